package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG-002"

	// Storage errors (STORE-001 to STORE-099)
	ErrCodeStoreUnavailable ErrorCode = "STORE-001"
	ErrCodeStoreQuery       ErrorCode = "STORE-002"
	ErrCodeStoreMigration   ErrorCode = "STORE-003"

	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthInvalidCredentials ErrorCode = "AUTH-001"
	ErrCodeAuthUsernameTaken      ErrorCode = "AUTH-002"
	ErrCodeAuthTokenInvalid       ErrorCode = "AUTH-003"
	ErrCodeAuthInvalidInput       ErrorCode = "AUTH-004"
	ErrCodeAuthTokenExpired       ErrorCode = "AUTH-005"
	ErrCodeAuthTokenMissing       ErrorCode = "AUTH-006"

	// Project errors (PROJECT-001 to PROJECT-099)
	ErrCodeProjectNotFound ErrorCode = "PROJECT-001"
	ErrCodeProjectInvalid  ErrorCode = "PROJECT-002"

	// Task errors (TASK-001 to TASK-099)
	ErrCodeTaskNotFound       ErrorCode = "TASK-001"
	ErrCodeTaskInvalid        ErrorCode = "TASK-002"
	ErrCodeDependencyNotFound ErrorCode = "TASK-003"

	// Scheduling errors (SCHED-001 to SCHED-099)
	ErrCodeCycleDetected        ErrorCode = "SCHED-001"
	ErrCodeUnresolvedDependency ErrorCode = "SCHED-002"
	ErrCodeDuplicateTask        ErrorCode = "SCHED-003"

	// HTTP errors (HTTP-001 to HTTP-099)
	ErrCodeRequestInvalid ErrorCode = "HTTP-001"
	ErrCodeInternal       ErrorCode = "HTTP-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"
)

// AppError represents an enhanced error with code, suggestions, and documentation
type AppError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError with the same code, so a bare
// New(code, ...) value can serve as a sentinel for errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *AppError) WithDocs(url string) *AppError {
	e.DocsURL = url
	return e
}

// CodeOf returns the code of the first AppError in err's chain, or "" if
// there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Common error constructors for frequently used errors

// NewConfigNotFoundError creates a config file not found error
func NewConfigNotFoundError(path string) *AppError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("config file not found: %s", path)).
		WithSuggestion("Check the --config flag or PROJECTFLOW_CONFIG").
		WithSuggestion("Omit --config to run with built-in defaults")
}

// NewConfigInvalidError creates a config validation error
func NewConfigInvalidError(details string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Review your projectflow.yaml against the documented keys").
		WithDocs("https://github.com/felixgeelhaar/projectflow#configuration")
}

// NewStoreUnavailableError creates a storage connectivity error
func NewStoreUnavailableError(driver string, cause error) *AppError {
	return Wrap(ErrCodeStoreUnavailable, fmt.Sprintf("%s store is unavailable", driver), cause).
		WithSuggestion("Check database.driver and database.dsn in your config").
		WithSuggestion("Verify the database file is writable")
}

// NewProjectNotFoundError creates a project not found error
func NewProjectNotFoundError(projectID int64) *AppError {
	return New(ErrCodeProjectNotFound, fmt.Sprintf("project %d not found", projectID))
}

// NewTaskNotFoundError creates a task not found error
func NewTaskNotFoundError(taskID int64) *AppError {
	return New(ErrCodeTaskNotFound, fmt.Sprintf("task %d not found", taskID))
}

// NewDependencyNotFoundError creates an error for a dependency outside the project
func NewDependencyNotFoundError(dependencyID, projectID int64) *AppError {
	return New(ErrCodeDependencyNotFound, fmt.Sprintf("dependent task %d not found in project %d", dependencyID, projectID)).
		WithSuggestion("Create the dependency task first, then reference its id")
}

// NewCycleDetectedError wraps a scheduling cycle error
func NewCycleDetectedError(cause error) *AppError {
	return Wrap(ErrCodeCycleDetected, "cycle detected in task dependencies", cause).
		WithSuggestion("Remove or change one dependency in the reported cycle").
		WithDocs("https://github.com/felixgeelhaar/projectflow#dependency-cycles")
}

// NewUnresolvedDependencyError wraps a dangling dependency error
func NewUnresolvedDependencyError(cause error) *AppError {
	return Wrap(ErrCodeUnresolvedDependency, "task references a dependency that does not exist", cause).
		WithSuggestion("Fix the dependentTaskId or remove it").
		WithSuggestion("Use --dangling=ignore or schedule.dangling_policy: ignore to treat unknown dependencies as absent")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *AppError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *AppError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
