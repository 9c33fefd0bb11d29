package domain

import (
	"strings"
	"testing"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    ID
		wantErr string
	}{
		{name: "simple", value: "42", want: 42},
		{name: "surrounding spaces", value: " 7 ", want: 7},
		{name: "empty", value: "", wantErr: "cannot be empty"},
		{name: "zero", value: "0", wantErr: "must be positive"},
		{name: "negative", value: "-3", wantErr: "must be positive"},
		{name: "not a number", value: "abc", wantErr: "not a number"},
		{name: "overflow", value: "99999999999999999999", wantErr: "not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.value)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseID(%q) expected error", tt.value)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q should contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID(%q) unexpected error: %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("ParseID(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestID_String(t *testing.T) {
	id, err := NewID(15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() != "15" {
		t.Errorf("String() = %q, want %q", id.String(), "15")
	}
	if id.Int64() != 15 {
		t.Errorf("Int64() = %d, want 15", id.Int64())
	}
}
