package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/projectflow/internal/project"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

// credentialsRequest is the body of register and login. Older clients send
// the plaintext password as "passwordHash"; both names are accepted.
type credentialsRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	PasswordHash string `json:"passwordHash"`
}

func (c credentialsRequest) password() string {
	if c.Password != "" {
		return c.Password
	}
	return c.PasswordHash
}

type projectRequest struct {
	Title string `json:"title"`
}

type taskRequest struct {
	Title              string   `json:"title"`
	EstimatedTimeHours float64  `json:"estimatedTimeHours"`
	DueDate            *dueDate `json:"dueDate"`
	IsCompleted        bool     `json:"isCompleted"`
	DependentTaskID    *int64   `json:"dependentTaskId"`
}

func (r taskRequest) toNewTask() project.NewTask {
	in := project.NewTask{
		Title:              r.Title,
		EstimatedTimeHours: r.EstimatedTimeHours,
		IsCompleted:        r.IsCompleted,
	}
	if r.DueDate != nil {
		in.DueDate = r.DueDate.Time
	}
	// 0 is what form-based clients send for "no dependency".
	if r.DependentTaskID != nil && *r.DependentTaskID != 0 {
		in.DependentTaskID = r.DependentTaskID
	}
	return in
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// dueDate accepts RFC 3339 timestamps as well as the local date and
// datetime forms produced by HTML inputs, which are read as UTC.
type dueDate struct {
	time.Time
}

func (d *dueDate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("dueDate must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("dueDate %q is not a recognized date", s)
}

type taskDTO struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	EstimatedTimeHours float64   `json:"estimatedTimeHours"`
	DueDate            time.Time `json:"dueDate"`
	IsCompleted        bool      `json:"isCompleted"`
	DependentTaskID    *int64    `json:"dependentTaskId"`
}

func newTaskDTO(t schedule.Task) taskDTO {
	return taskDTO{
		ID:                 t.ID,
		Title:              t.Title,
		EstimatedTimeHours: t.EstimatedTimeHours,
		DueDate:            t.DueDate,
		IsCompleted:        t.IsCompleted,
		DependentTaskID:    t.DependentTaskID,
	}
}

func newTaskDTOs(tasks []schedule.Task) []taskDTO {
	out := make([]taskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = newTaskDTO(t)
	}
	return out
}

type projectDTO struct {
	ID    int64     `json:"id"`
	Title string    `json:"title"`
	Tasks []taskDTO `json:"tasks"`
}

func newProjectDTO(p project.Project) projectDTO {
	return projectDTO{ID: p.ID, Title: p.Title, Tasks: newTaskDTOs(p.Tasks)}
}

type waveDTO struct {
	Index int       `json:"index"`
	Tasks []taskDTO `json:"tasks"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error   string  `json:"error"`
	Message string  `json:"message"`
	Cycle   []int64 `json:"cycle,omitempty"`
	Blocked []int64 `json:"blocked,omitempty"`
}
