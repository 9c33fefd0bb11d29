package domain

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestNewUsername(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "simple", value: "alice"},
		{name: "with punctuation", value: "bob.smith_2-x"},
		{name: "too short", value: "ab", wantErr: true},
		{name: "too long", value: strings.Repeat("a", 51), wantErr: true},
		{name: "space", value: "alice smith", wantErr: true},
		{name: "symbol", value: "alice!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUsername(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewUsername(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

// TestUsername_GeneratedValidNamesPass tests that every name matching the
// documented alphabet and length passes validation
func TestUsername_GeneratedValidNamesPass(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[a-zA-Z0-9_.-]{3,50}`).Draw(t, "username")
		if _, err := NewUsername(name); err != nil {
			t.Fatalf("username %q should be valid: %v", name, err)
		}
	})
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("correct horse"); err != nil {
		t.Errorf("expected valid password, got %v", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Error("expected short password to fail")
	}
	if err := ValidatePassword(strings.Repeat("x", 73)); err == nil {
		t.Error("expected 73-byte password to fail")
	}
}
