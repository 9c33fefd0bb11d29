package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ConfigError indicates a missing or invalid configuration
	ConfigError = 3

	// InvalidInput indicates a task file that cannot be scheduled for a
	// reason other than a cycle (unreadable, duplicate IDs, unknown
	// dependencies)
	InvalidInput = 4

	// AuthError indicates an authentication failure
	AuthError = 5

	// StoreError indicates the database could not be opened or queried
	StoreError = 6

	// CycleDetected indicates the task dependencies contain a cycle
	CycleDetected = 7

	// Interrupted indicates the command was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Scheduling sentinels and coded errors are matched first; cobra usage
// errors carry no type and are recognized by message.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch {
	case stderrors.Is(err, schedule.ErrCycleDetected):
		return CycleDetected
	case stderrors.Is(err, schedule.ErrUnresolvedDependency),
		stderrors.Is(err, schedule.ErrDuplicateTask):
		return InvalidInput
	}

	code := string(errors.CodeOf(err))
	switch {
	case code == string(errors.ErrCodeCycleDetected):
		return CycleDetected
	case strings.HasPrefix(code, "SCHED-"), strings.HasPrefix(code, "IO-"), strings.HasPrefix(code, "TASK-"):
		return InvalidInput
	case strings.HasPrefix(code, "CONFIG-"):
		return ConfigError
	case strings.HasPrefix(code, "AUTH-"):
		return AuthError
	case strings.HasPrefix(code, "STORE-"):
		return StoreError
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown shorthand flag") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || (strings.Contains(errMsg, "accepts") && strings.Contains(errMsg, "arg(s)")) {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ConfigError:
		return "Configuration error"
	case InvalidInput:
		return "Invalid task input"
	case AuthError:
		return "Authentication error"
	case StoreError:
		return "Storage error"
	case CycleDetected:
		return "Dependency cycle detected"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
