package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

// MemoryStore keeps everything in maps guarded by a single RWMutex.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]User
	projects map[int64]Project
	tasks    map[int64]schedule.Task
	closed   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]User),
		projects: make(map[int64]Project),
		tasks:    make(map[int64]schedule.Task),
	}
}

// IDs are shared across record kinds, which keeps them unique and increasing.
func (m *MemoryStore) allocID() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrConflict
		}
	}
	u.ID = m.allocID()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateProject(_ context.Context, p *Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[p.UserID]; !ok {
		return ErrNotFound
	}
	p.ID = m.allocID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.projects[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetProject(_ context.Context, userID, projectID int64) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[projectID]
	if !ok || p.UserID != userID {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) ListProjects(_ context.Context, userID int64) ([]Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Project{}
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CreateTask(_ context.Context, t *schedule.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[t.ProjectID]; !ok {
		return ErrNotFound
	}
	if dep, ok := t.DependsOn(); ok {
		if _, exists := m.tasks[dep]; !exists {
			return ErrNotFound
		}
	}
	t.ID = m.allocID()
	m.tasks[t.ID] = cloneTask(*t)
	return nil
}

func (m *MemoryStore) GetTask(_ context.Context, userID, taskID int64) (*schedule.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	if p, ok := m.projects[t.ProjectID]; !ok || p.UserID != userID {
		return nil, ErrNotFound
	}
	t = cloneTask(t)
	return &t, nil
}

func (m *MemoryStore) UpdateTask(_ context.Context, t *schedule.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[t.ID]; !ok {
		return ErrNotFound
	}
	m.tasks[t.ID] = cloneTask(*t)
	return nil
}

func (m *MemoryStore) DeleteTask(_ context.Context, taskID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[taskID]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, taskID)
	for id, t := range m.tasks {
		if dep, ok := t.DependsOn(); ok && dep == taskID {
			t.DependentTaskID = nil
			m.tasks[id] = t
		}
	}
	return nil
}

func (m *MemoryStore) ListTasks(_ context.Context, projectID int64) ([]schedule.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []schedule.Task{}
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
