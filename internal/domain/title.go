package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxTitleLength is the maximum number of characters in a project or task title
const maxTitleLength = 200

// Title is the display name of a project or task.
// Surrounding whitespace is trimmed on construction.
type Title string

// NewTitle creates a new Title value object with validation
func NewTitle(value string) (Title, error) {
	t := Title(strings.TrimSpace(value))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// Validate checks if the title is valid
func (t Title) Validate() error {
	s := string(t)

	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("title cannot be empty")
	}

	if n := utf8.RuneCountInString(s); n > maxTitleLength {
		return fmt.Errorf("title exceeds maximum length of %d characters (got %d)", maxTitleLength, n)
	}

	return nil
}

// String returns the string representation
func (t Title) String() string {
	return string(t)
}
