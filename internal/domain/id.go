package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a user, project or task. IDs are assigned by the store and
// are always positive.
type ID int64

// NewID creates a new ID value object with validation
func NewID(value int64) (ID, error) {
	id := ID(value)
	if err := id.Validate(); err != nil {
		return 0, err
	}
	return id, nil
}

// ParseID parses an ID from a URL path segment or flag value
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("id cannot be empty")
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q is not a number", s)
	}

	return NewID(v)
}

// Validate checks if the ID is valid
func (id ID) Validate() error {
	if id <= 0 {
		return fmt.Errorf("id must be positive, got %d", int64(id))
	}
	return nil
}

// Int64 returns the raw value
func (id ID) Int64() int64 {
	return int64(id)
}

// String returns the string representation
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
