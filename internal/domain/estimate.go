package domain

import (
	"fmt"
	"math"
)

// Estimate is the expected effort of a task in hours.
type Estimate float64

// NewEstimate creates a new Estimate value object with validation
func NewEstimate(hours float64) (Estimate, error) {
	e := Estimate(hours)
	if err := e.Validate(); err != nil {
		return 0, err
	}
	return e, nil
}

// Validate checks if the estimate is valid
func (e Estimate) Validate() error {
	h := float64(e)
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return fmt.Errorf("estimate must be a finite number of hours")
	}
	if h < 0 {
		return fmt.Errorf("estimate cannot be negative, got %g", h)
	}
	return nil
}

// Hours returns the estimate in hours
func (e Estimate) Hours() float64 {
	return float64(e)
}
