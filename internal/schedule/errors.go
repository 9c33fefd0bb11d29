package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrCycleDetected is matched by every CycleError.
	ErrCycleDetected = errors.New("cycle detected in task dependencies")

	// ErrUnresolvedDependency is matched by every UnresolvedDependencyError.
	ErrUnresolvedDependency = errors.New("unresolved task dependency")

	// ErrDuplicateTask is matched by every DuplicateTaskError.
	ErrDuplicateTask = errors.New("duplicate task id")
)

// CycleError reports that no valid order exists.
//
// Cycle lists one simple cycle; each entry depends on the entry after it and
// the last entry depends on the first. Blocked lists every task that could
// not be scheduled, in input order: the cycle members plus anything that
// depends on them.
type CycleError struct {
	Cycle   []int64
	Blocked []int64
}

func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return ErrCycleDetected.Error()
	}
	parts := make([]string, 0, len(e.Cycle)+1)
	for _, id := range e.Cycle {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	parts = append(parts, strconv.FormatInt(e.Cycle[0], 10))
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(parts, " -> "))
}

// Is reports whether target is ErrCycleDetected.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}

// UnresolvedDependencyError reports a DependentTaskID that names no task in
// the snapshot.
type UnresolvedDependencyError struct {
	TaskID       int64
	DependencyID int64
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("%s: task %d depends on unknown task %d", ErrUnresolvedDependency, e.TaskID, e.DependencyID)
}

// Is reports whether target is ErrUnresolvedDependency.
func (e *UnresolvedDependencyError) Is(target error) bool {
	return target == ErrUnresolvedDependency
}

// DuplicateTaskError reports two tasks sharing an ID.
type DuplicateTaskError struct {
	TaskID int64
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("%s: %d", ErrDuplicateTask, e.TaskID)
}

// Is reports whether target is ErrDuplicateTask.
func (e *DuplicateTaskError) Is(target error) bool {
	return target == ErrDuplicateTask
}
