package domain

import (
	"strings"
	"testing"
)

func TestNewTitle(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    Title
		wantErr bool
	}{
		{name: "plain", value: "Write docs", want: "Write docs"},
		{name: "trimmed", value: "  Deploy  ", want: "Deploy"},
		{name: "unicode at limit", value: strings.Repeat("é", maxTitleLength), want: Title(strings.Repeat("é", maxTitleLength))},
		{name: "empty", value: "", wantErr: true},
		{name: "only whitespace", value: " \t ", wantErr: true},
		{name: "too long", value: strings.Repeat("a", maxTitleLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTitle(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTitle(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("NewTitle(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
