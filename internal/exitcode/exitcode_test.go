package exitcode

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"Success", Success, 0},
		{"GeneralError", GeneralError, 1},
		{"UsageError", UsageError, 2},
		{"ConfigError", ConfigError, 3},
		{"InvalidInput", InvalidInput, 4},
		{"AuthError", AuthError, 5},
		{"StoreError", StoreError, 6},
		{"CycleDetected", CycleDetected, 7},
		{"Interrupted", Interrupted, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("Exit code %s = %d, want %d", tt.name, tt.code, tt.expected)
			}
		})
	}
}

func TestDetermineExitCode(t *testing.T) {
	cycle := &schedule.CycleError{Cycle: []int64{1, 2}, Blocked: []int64{1, 2}}

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: Success,
		},
		{
			name:     "cycle error",
			err:      cycle,
			expected: CycleDetected,
		},
		{
			name:     "wrapped cycle error",
			err:      fmt.Errorf("schedule tasks.yaml: %w", apperrors.NewCycleDetectedError(cycle)),
			expected: CycleDetected,
		},
		{
			name:     "unresolved dependency",
			err:      &schedule.UnresolvedDependencyError{TaskID: 2, DependencyID: 9},
			expected: InvalidInput,
		},
		{
			name:     "duplicate task",
			err:      &schedule.DuplicateTaskError{TaskID: 3},
			expected: InvalidInput,
		},
		{
			name:     "unreadable task file",
			err:      apperrors.NewFileUnmarshalError("tasks.yaml", "YAML", errors.New("bad indent")),
			expected: InvalidInput,
		},
		{
			name:     "config not found",
			err:      apperrors.NewConfigNotFoundError("projectflow.yaml"),
			expected: ConfigError,
		},
		{
			name:     "store unavailable",
			err:      apperrors.NewStoreUnavailableError("sqlite", errors.New("disk I/O error")),
			expected: StoreError,
		},
		{
			name:     "auth error",
			err:      apperrors.New(apperrors.ErrCodeAuthTokenInvalid, "bad token"),
			expected: AuthError,
		},
		{
			name:     "unknown command",
			err:      errors.New(`unknown command "foo" for "projectflow"`),
			expected: UsageError,
		},
		{
			name:     "unknown flag",
			err:      errors.New("unknown flag: --nope"),
			expected: UsageError,
		},
		{
			name:     "required flag",
			err:      errors.New(`required flag(s) "in" not set`),
			expected: UsageError,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: GeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.expected {
				t.Errorf("DetermineExitCode(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{UsageError, "Usage error (invalid flags or arguments)"},
		{ConfigError, "Configuration error"},
		{InvalidInput, "Invalid task input"},
		{AuthError, "Authentication error"},
		{StoreError, "Storage error"},
		{CycleDetected, "Dependency cycle detected"},
		{Interrupted, "Interrupted"},
		{99, "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := GetExitCodeDescription(tt.code); got != tt.expected {
				t.Errorf("GetExitCodeDescription(%d) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}
