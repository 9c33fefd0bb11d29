package domain

import (
	"fmt"
	"regexp"
)

var (
	// usernamePattern allows letters, digits, dots, underscores and hyphens
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

	minUsernameLength = 3
	maxUsernameLength = 50
)

// Username is the login name of a user.
type Username string

// NewUsername creates a new Username value object with validation
func NewUsername(value string) (Username, error) {
	u := Username(value)
	if err := u.Validate(); err != nil {
		return "", err
	}
	return u, nil
}

// Validate checks if the username is valid
func (u Username) Validate() error {
	s := string(u)

	if len(s) < minUsernameLength || len(s) > maxUsernameLength {
		return fmt.Errorf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}

	if !usernamePattern.MatchString(s) {
		return fmt.Errorf("username %q may only contain letters, numbers, dots, underscores, and hyphens", s)
	}

	return nil
}

// String returns the string representation
func (u Username) String() string {
	return string(u)
}
