// Package project is the application service behind the project and task
// endpoints. It owns the ownership checks and turns a stored snapshot of a
// project's tasks into schedules, waves, timelines and graphs.
package project

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/projectflow/internal/domain"
	"github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/log"
	"github.com/felixgeelhaar/projectflow/internal/metrics"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
	"github.com/felixgeelhaar/projectflow/internal/store"
	"github.com/felixgeelhaar/projectflow/internal/telemetry"
)

// Errors returned by Service match these with errors.Is by code; the
// returned values name the offending id.
var (
	ErrProjectNotFound    = errors.New(errors.ErrCodeProjectNotFound, "project not found")
	ErrTaskNotFound       = errors.New(errors.ErrCodeTaskNotFound, "task not found")
	ErrDependencyNotFound = errors.New(errors.ErrCodeDependencyNotFound, "dependent task not found in this project")
	ErrInvalidInput       = errors.New(errors.ErrCodeTaskInvalid, "invalid input")
)

// Graph formats accepted by Graph.
const (
	FormatDOT     = "dot"
	FormatMermaid = "mermaid"
)

// Project is a project together with its tasks in creation order.
type Project struct {
	ID        int64
	Title     string
	CreatedAt time.Time
	Tasks     []schedule.Task
}

// NewTask is the input for AddTask.
type NewTask struct {
	Title              string
	EstimatedTimeHours float64
	DueDate            time.Time
	IsCompleted        bool
	DependentTaskID    *int64
}

// ScheduleResult is a computed order for one project snapshot.
type ScheduleResult struct {
	ProjectID   int64
	Tasks       []schedule.Task
	Fingerprint string
}

type Service struct {
	store   store.Store
	metrics *metrics.Metrics
}

// NewService returns a Service over s. m may be nil.
func NewService(s store.Store, m *metrics.Metrics) *Service {
	return &Service{store: s, metrics: m}
}

func invalid(err error) error {
	return errors.Wrap(errors.ErrCodeTaskInvalid, "invalid input", err)
}

// CreateProject creates an empty project owned by userID.
func (s *Service) CreateProject(ctx context.Context, userID int64, title string) (*Project, error) {
	t, err := domain.NewTitle(title)
	if err != nil {
		return nil, invalid(err)
	}
	p := &store.Project{UserID: userID, Title: t.String()}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &Project{ID: p.ID, Title: p.Title, CreatedAt: p.CreatedAt, Tasks: []schedule.Task{}}, nil
}

// ListProjects returns the caller's projects with their tasks.
func (s *Service) ListProjects(ctx context.Context, userID int64) ([]Project, error) {
	projects, err := s.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		tasks, err := s.store.ListTasks(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list tasks of project %d: %w", p.ID, err)
		}
		out = append(out, Project{ID: p.ID, Title: p.Title, CreatedAt: p.CreatedAt, Tasks: tasks})
	}
	return out, nil
}

func (s *Service) ownedProject(ctx context.Context, userID, projectID int64) (*store.Project, error) {
	p, err := s.store.GetProject(ctx, userID, projectID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewProjectNotFoundError(projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *Service) ownedTask(ctx context.Context, userID, taskID int64) (*schedule.Task, error) {
	t, err := s.store.GetTask(ctx, userID, taskID)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, errors.NewTaskNotFoundError(taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// AddTask adds a task to a project owned by userID. A dependency must name a
// task of the same project.
func (s *Service) AddTask(ctx context.Context, userID, projectID int64, in NewTask) (*schedule.Task, error) {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	title, err := domain.NewTitle(in.Title)
	if err != nil {
		return nil, invalid(err)
	}
	estimate, err := domain.NewEstimate(in.EstimatedTimeHours)
	if err != nil {
		return nil, invalid(err)
	}

	if dep, ok := (schedule.Task{DependentTaskID: in.DependentTaskID}).DependsOn(); ok {
		depTask, err := s.store.GetTask(ctx, userID, dep)
		if err != nil && !stderrors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("get dependency: %w", err)
		}
		if depTask == nil || depTask.ProjectID != projectID {
			return nil, errors.NewDependencyNotFoundError(dep, projectID)
		}
	}

	t := &schedule.Task{
		ProjectID:          projectID,
		Title:              title.String(),
		EstimatedTimeHours: estimate.Hours(),
		DueDate:            in.DueDate,
		IsCompleted:        in.IsCompleted,
	}
	if in.DependentTaskID != nil {
		t.DependentTaskID = schedule.DependencyRef(*in.DependentTaskID)
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// DeleteTask removes a task the caller owns.
func (s *Service) DeleteTask(ctx context.Context, userID, taskID int64) error {
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return errors.NewTaskNotFoundError(taskID)
		}
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// ToggleTask flips the completion flag and returns the updated task.
func (s *Service) ToggleTask(ctx context.Context, userID, taskID int64) (*schedule.Task, error) {
	t, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	t.IsCompleted = !t.IsCompleted
	if err := s.store.UpdateTask(ctx, t); err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewTaskNotFoundError(taskID)
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// snapshot loads the project's tasks after the ownership check.
func (s *Service) snapshot(ctx context.Context, userID, projectID int64) ([]schedule.Task, error) {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// observe records metrics, span status and a WARN log for scheduling
// failures. err is returned unchanged.
func (s *Service) observe(ctx context.Context, projectID int64, n int, err error) error {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case stderrors.Is(err, schedule.ErrCycleDetected):
		outcome = metrics.OutcomeCycle
		var cycleErr *schedule.CycleError
		if stderrors.As(err, &cycleErr) {
			log.FromContext(ctx).WarnContext(ctx, "dependency cycle detected",
				"project_id", projectID, "cycle", cycleErr.Cycle, "blocked", cycleErr.Blocked)
		}
		s.metrics.ObserveError(string(errors.ErrCodeCycleDetected), "schedule")
	case stderrors.Is(err, schedule.ErrUnresolvedDependency):
		outcome = metrics.OutcomeUnresolved
		s.metrics.ObserveError(string(errors.ErrCodeUnresolvedDependency), "schedule")
	default:
		outcome = metrics.OutcomeError
	}
	s.metrics.ObserveSchedule(outcome, n)
	return err
}

// Schedule computes the dependency order of a project's tasks.
// A cycle is reported as *schedule.CycleError.
func (s *Service) Schedule(ctx context.Context, userID, projectID int64) (*ScheduleResult, error) {
	ctx, span := telemetry.StartScheduleSpan(ctx, "order", projectID)
	defer span.End()

	tasks, err := s.snapshot(ctx, userID, projectID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	order, err := schedule.Schedule(tasks)
	if err = s.observe(ctx, projectID, len(tasks), err); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.RecordSuccess(span, attribute.Int("tasks", len(order)))
	return &ScheduleResult{
		ProjectID:   projectID,
		Tasks:       order,
		Fingerprint: schedule.Fingerprint(order),
	}, nil
}

// Waves groups a project's tasks by dependency depth.
func (s *Service) Waves(ctx context.Context, userID, projectID int64) ([]schedule.Wave, error) {
	ctx, span := telemetry.StartScheduleSpan(ctx, "waves", projectID)
	defer span.End()

	tasks, err := s.snapshot(ctx, userID, projectID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	waves, err := schedule.Waves(tasks)
	if err = s.observe(ctx, projectID, len(tasks), err); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.RecordSuccess(span, attribute.Int("waves", len(waves)))
	return waves, nil
}

// Timeline runs the critical path analysis for a project.
func (s *Service) Timeline(ctx context.Context, userID, projectID int64) (*schedule.Timeline, error) {
	ctx, span := telemetry.StartScheduleSpan(ctx, "timeline", projectID)
	defer span.End()

	tasks, err := s.snapshot(ctx, userID, projectID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	tl, err := schedule.Analyze(tasks)
	if err = s.observe(ctx, projectID, len(tasks), err); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.RecordSuccess(span, attribute.Float64("total_hours", tl.TotalHours))
	return tl, nil
}

// Graph writes the project's dependency graph to w as DOT or Mermaid.
// Cyclic projects still render.
func (s *Service) Graph(ctx context.Context, userID, projectID int64, format string, w io.Writer) error {
	p, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return err
	}
	tasks, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	switch format {
	case "", FormatDOT:
		return schedule.ExportDOT(w, p.Title, tasks)
	case FormatMermaid:
		return schedule.ExportMermaid(w, tasks)
	default:
		return errors.New(errors.ErrCodeTaskInvalid, fmt.Sprintf("invalid input: unknown graph format %q", format))
	}
}
