package domain

import "fmt"

const (
	minPasswordLength = 8
	// maxPasswordLength is the bcrypt input limit in bytes
	maxPasswordLength = 72
)

// ValidatePassword checks a plaintext password against the password policy.
// Passwords are never stored as a value object.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must be at most %d bytes", maxPasswordLength)
	}
	return nil
}
