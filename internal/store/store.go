// Package store persists users, projects and tasks.
//
// Two implementations share the Store interface: an in-memory store for tests
// and throwaway servers, and a SQLite store for everything else.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/projectflow/internal/config"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

var (
	// ErrNotFound is returned when a record does not exist or is not visible
	// to the requesting user.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("store: conflict")
	// ErrClosed is returned by Ping after Close.
	ErrClosed = errors.New("store: closed")
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type Project struct {
	ID        int64
	UserID    int64
	Title     string
	CreatedAt time.Time
}

// Store is the persistence boundary. Owner-scoped lookups report records that
// belong to another user as ErrNotFound.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, userID, projectID int64) (*Project, error)
	ListProjects(ctx context.Context, userID int64) ([]Project, error)

	// CreateTask assigns t.ID.
	CreateTask(ctx context.Context, t *schedule.Task) error
	GetTask(ctx context.Context, userID, taskID int64) (*schedule.Task, error)
	UpdateTask(ctx context.Context, t *schedule.Task) error
	// DeleteTask removes the task and clears DependentTaskID on its
	// dependents.
	DeleteTask(ctx context.Context, taskID int64) error
	// ListTasks returns a consistent snapshot of a project's tasks in
	// creation order.
	ListTasks(ctx context.Context, projectID int64) ([]schedule.Task, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func cloneTask(t schedule.Task) schedule.Task {
	if t.DependentTaskID != nil {
		t.DependentTaskID = schedule.DependencyRef(*t.DependentTaskID)
	}
	return t
}
