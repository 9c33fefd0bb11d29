// Package taskfile reads task lists for the offline CLI commands.
//
// A task file is JSON or YAML, chosen by extension, and holds either a bare
// list of tasks or a document with a "tasks" key:
//
//	tasks:
//	  - id: 1
//	    title: Design
//	    estimatedTimeHours: 4
//	    dueDate: 2025-03-01
//	  - id: 2
//	    title: Build
//	    dependentTaskId: 1
package taskfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/projectflow/internal/domain"
	"github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

// Format is a task file encoding.
type Format string

const (
	FormatJSON Format = "JSON"
	FormatYAML Format = "YAML"
)

// Stdin is the path that makes Load read standard input.
const Stdin = "-"

// record is one task as written in a file. Dates stay strings so both
// encodings accept the same layouts.
type record struct {
	ID                 int64   `json:"id" yaml:"id"`
	Title              string  `json:"title" yaml:"title"`
	EstimatedTimeHours float64 `json:"estimatedTimeHours" yaml:"estimatedTimeHours"`
	DueDate            string  `json:"dueDate" yaml:"dueDate"`
	IsCompleted        bool    `json:"isCompleted" yaml:"isCompleted"`
	DependentTaskID    *int64  `json:"dependentTaskId" yaml:"dependentTaskId"`
}

type document struct {
	Tasks []record `json:"tasks" yaml:"tasks"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatFor picks the encoding from a file extension. Unknown extensions
// are read as YAML, which also accepts JSON.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads and validates the task file at path. Stdin reads from r.
func Load(path string, stdin io.Reader) ([]schedule.Task, error) {
	var (
		data []byte
		err  error
	)
	if path == Stdin {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if os.IsNotExist(err) {
		return nil, errors.NewFileNotFoundError(path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read %s", path), err)
	}

	tasks, err := Parse(data, FormatFor(path))
	if err != nil {
		if errors.CodeOf(err) == "" {
			return nil, errors.NewFileUnmarshalError(path, string(FormatFor(path)), err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}

// Parse decodes a task file body. Decoding errors are returned as is;
// invalid task fields are reported as TASK-002 errors.
func Parse(data []byte, format Format) ([]schedule.Task, error) {
	records, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	tasks := make([]schedule.Task, 0, len(records))
	for i, r := range records {
		t, err := r.toTask()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeTaskInvalid, fmt.Sprintf("task #%d", i+1), err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func decode(data []byte, format Format) ([]record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if format == FormatJSON {
		if trimmed[0] == '[' {
			var records []record
			if err := json.Unmarshal(trimmed, &records); err != nil {
				return nil, err
			}
			return records, nil
		}
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		return doc.Tasks, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var records []record
		if err := node.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}
	var doc document
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Tasks, nil
}

func (r record) toTask() (schedule.Task, error) {
	id, err := domain.NewID(r.ID)
	if err != nil {
		return schedule.Task{}, err
	}
	title, err := domain.NewTitle(r.Title)
	if err != nil {
		return schedule.Task{}, fmt.Errorf("task %d: %w", r.ID, err)
	}
	estimate, err := domain.NewEstimate(r.EstimatedTimeHours)
	if err != nil {
		return schedule.Task{}, fmt.Errorf("task %d: %w", r.ID, err)
	}
	due, err := parseDate(r.DueDate)
	if err != nil {
		return schedule.Task{}, fmt.Errorf("task %d: %w", r.ID, err)
	}

	t := schedule.Task{
		ID:                 id.Int64(),
		Title:              title.String(),
		EstimatedTimeHours: estimate.Hours(),
		DueDate:            due,
		IsCompleted:        r.IsCompleted,
	}
	if r.DependentTaskID != nil && *r.DependentTaskID != 0 {
		t.DependentTaskID = schedule.DependencyRef(*r.DependentTaskID)
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dueDate %q is not a recognized date", s)
}
