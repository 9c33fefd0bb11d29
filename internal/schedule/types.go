// Package schedule computes dependency-respecting execution orders for the
// tasks of a single project.
//
// Every task may name at most one predecessor through DependentTaskID. The
// package turns a snapshot of a project's tasks into:
//   - a linear order (Schedule) using Kahn's algorithm with FIFO tie-breaks
//   - dependency levels that can run side by side (Waves)
//   - an estimate-driven timeline with a critical path (Analyze)
//   - Graphviz DOT and Mermaid renderings of the dependency graph
//
// All functions are pure: they never mutate their input and keep no state
// between calls, so they are safe to call concurrently.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Task is the snapshot of a project task consumed by the scheduler.
// Only ID and DependentTaskID affect ordering; the remaining fields are
// carried through unchanged.
type Task struct {
	ID                 int64     `json:"id" yaml:"id"`
	ProjectID          int64     `json:"projectId,omitempty" yaml:"projectId,omitempty"`
	Title              string    `json:"title" yaml:"title"`
	EstimatedTimeHours float64   `json:"estimatedTimeHours" yaml:"estimatedTimeHours"`
	DueDate            time.Time `json:"dueDate" yaml:"dueDate"`
	IsCompleted        bool      `json:"isCompleted" yaml:"isCompleted"`
	DependentTaskID    *int64    `json:"dependentTaskId" yaml:"dependentTaskId"`
}

// DependsOn returns the predecessor ID and whether the task has one.
func (t Task) DependsOn() (int64, bool) {
	if t.DependentTaskID == nil {
		return 0, false
	}
	return *t.DependentTaskID, true
}

// DependencyRef returns a pointer to id, for building DependentTaskID values.
func DependencyRef(id int64) *int64 {
	return &id
}

// DanglingPolicy decides what happens to a DependentTaskID that does not
// match any task in the snapshot.
type DanglingPolicy int

const (
	// RejectDangling fails the call with an UnresolvedDependencyError.
	RejectDangling DanglingPolicy = iota
	// IgnoreDangling treats the dangling reference as if it were absent.
	IgnoreDangling
)

// String returns the policy name accepted by ParseDanglingPolicy.
func (p DanglingPolicy) String() string {
	switch p {
	case IgnoreDangling:
		return "ignore"
	default:
		return "reject"
	}
}

// ParseDanglingPolicy parses "reject" or "ignore", ignoring case.
func ParseDanglingPolicy(s string) (DanglingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reject":
		return RejectDangling, nil
	case "ignore":
		return IgnoreDangling, nil
	default:
		return RejectDangling, fmt.Errorf("unknown dangling policy %q (supported: reject, ignore)", s)
	}
}

type options struct {
	dangling DanglingPolicy
}

// Option configures a scheduling call.
type Option func(*options)

// WithDanglingPolicy sets how unresolved dependency references are handled.
func WithDanglingPolicy(p DanglingPolicy) Option {
	return func(o *options) {
		o.dangling = p
	}
}

func resolveOptions(opts []Option) options {
	o := options{dangling: RejectDangling}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Wave is a group of tasks sharing the same dependency depth. Tasks in one
// wave never depend on each other.
type Wave struct {
	Index int    `json:"index" yaml:"index"`
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

// TaskTiming holds the timeline figures for a single task, in hours.
type TaskTiming struct {
	TaskID         int64   `json:"taskId" yaml:"taskId"`
	Title          string  `json:"title" yaml:"title"`
	Duration       float64 `json:"duration" yaml:"duration"`
	EarliestStart  float64 `json:"earliestStart" yaml:"earliestStart"`
	EarliestFinish float64 `json:"earliestFinish" yaml:"earliestFinish"`
	LatestStart    float64 `json:"latestStart" yaml:"latestStart"`
	LatestFinish   float64 `json:"latestFinish" yaml:"latestFinish"`
	Slack          float64 `json:"slack" yaml:"slack"`
	Critical       bool    `json:"critical" yaml:"critical"`
	Wave           int     `json:"wave" yaml:"wave"`
}

// Timeline is the result of Analyze.
type Timeline struct {
	Order        []int64      `json:"order" yaml:"order"`
	Tasks        []TaskTiming `json:"tasks" yaml:"tasks"`
	TotalHours   float64      `json:"totalHours" yaml:"totalHours"`
	CriticalPath []int64      `json:"criticalPath" yaml:"criticalPath"`
}
