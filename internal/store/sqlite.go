package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

//go:embed schema.sql
var schemaSQL string

// SQLStore persists records in SQLite through the pure Go modernc driver.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLite opens dsn, enables foreign keys and applies the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers anyway; one connection also keeps
	// ":memory:" databases and the foreign_keys pragma consistent.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000", schemaSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return &SQLStore{db: db}, nil
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

func isUniqueViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY constraint failed")
}

// isConstraint matches the extended result code, or the primary code plus
// message when extended codes are not reported.
func isConstraint(err error, extended int, msg string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == extended {
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), msg)
}

func (s *SQLStore) CreateUser(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		u.Username, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.getUser(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUser(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
}

func (s *SQLStore) getUser(ctx context.Context, query string, arg any) (*User, error) {
	var (
		u       User
		created string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("user %d created_at: %w", u.ID, err)
	}
	return &u, nil
}

func (s *SQLStore) CreateProject(ctx context.Context, p *Project) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (user_id, title, created_at) VALUES (?, ?, ?)`,
		p.UserID, p.Title, formatTime(p.CreatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert project: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *SQLStore) GetProject(ctx context.Context, userID, projectID int64) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at FROM projects WHERE id = ? AND user_id = ?`,
		projectID, userID)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *SQLStore) ListProjects(ctx context.Context, userID int64) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at FROM projects WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*Project, error) {
	var (
		p       Project
		created string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &created); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("project %d created_at: %w", p.ID, err)
	}
	return &p, nil
}

const taskColumns = `id, project_id, title, estimated_time_hours, due_date, is_completed, dependent_task_id`

func scanTask(row scanner) (*schedule.Task, error) {
	var (
		t   schedule.Task
		due string
		dep sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.EstimatedTimeHours, &due, &t.IsCompleted, &dep); err != nil {
		return nil, err
	}
	var err error
	if t.DueDate, err = parseTime(due); err != nil {
		return nil, fmt.Errorf("task %d due_date: %w", t.ID, err)
	}
	if dep.Valid {
		t.DependentTaskID = schedule.DependencyRef(dep.Int64)
	}
	return &t, nil
}

func nullableDep(t *schedule.Task) sql.NullInt64 {
	if dep, ok := t.DependsOn(); ok {
		return sql.NullInt64{Int64: dep, Valid: true}
	}
	return sql.NullInt64{}
}

func (s *SQLStore) CreateTask(ctx context.Context, t *schedule.Task) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (project_id, title, estimated_time_hours, due_date, is_completed, dependent_task_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ProjectID, t.Title, t.EstimatedTimeHours, formatTime(t.DueDate), t.IsCompleted, nullableDep(t),
		formatTime(time.Now()))
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert task: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *SQLStore) GetTask(ctx context.Context, userID, taskID int64) (*schedule.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT t.id, t.project_id, t.title, t.estimated_time_hours, t.due_date, t.is_completed, t.dependent_task_id
		 FROM tasks t JOIN projects p ON p.id = t.project_id
		 WHERE t.id = ? AND p.user_id = ?`, taskID, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *SQLStore) UpdateTask(ctx context.Context, t *schedule.Task) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, estimated_time_hours = ?, due_date = ?, is_completed = ?, dependent_task_id = ?
		 WHERE id = ?`,
		t.Title, t.EstimatedTimeHours, formatTime(t.DueDate), t.IsCompleted, nullableDep(t), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectOneRow(res)
}

func (s *SQLStore) DeleteTask(ctx context.Context, taskID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListTasks(ctx context.Context, projectID int64) ([]schedule.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := []schedule.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, tx.Commit()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
