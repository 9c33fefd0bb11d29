package ux

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

// ScheduleView is the result of "projectflow schedule".
type ScheduleView struct {
	Source      string          `json:"source,omitempty" yaml:"source,omitempty"`
	Tasks       []schedule.Task `json:"tasks" yaml:"tasks"`
	Fingerprint string          `json:"fingerprint" yaml:"fingerprint"`
}

// WavesView is the result of "projectflow schedule --waves".
type WavesView struct {
	Source string          `json:"source,omitempty" yaml:"source,omitempty"`
	Waves  []schedule.Wave `json:"waves" yaml:"waves"`
}

// TimelineView is the result of "projectflow schedule --timeline".
type TimelineView struct {
	Source   string            `json:"source,omitempty" yaml:"source,omitempty"`
	Timeline schedule.Timeline `json:"timeline" yaml:"timeline"`
}

// ValidationView is the result of "projectflow validate".
type ValidationView struct {
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Tasks  int    `json:"tasks" yaml:"tasks"`
	Waves  int    `json:"waves" yaml:"waves"`
	Valid  bool   `json:"valid" yaml:"valid"`
}

func heading(s Styles, what, source string, n int) string {
	title := what
	if source != "" {
		title += " for " + source
	}
	return s.Title.Render(title) + " " + s.Muted.Render(fmt.Sprintf("(%d tasks)", n))
}

func newTable(s Styles, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		Headers(headers...)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func formatDue(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func formatDep(t schedule.Task) string {
	if dep, ok := t.DependsOn(); ok {
		return strconv.FormatInt(dep, 10)
	}
	return "-"
}

func formatDone(done bool) string {
	if done {
		return "yes"
	}
	return "no"
}

// RenderText draws the order as a table.
func (v ScheduleView) RenderText(s Styles) string {
	t := newTable(s, "#", "ID", "Title", "Hours", "Due", "After", "Done")
	for i, tk := range v.Tasks {
		t.Row(strconv.Itoa(i+1), strconv.FormatInt(tk.ID, 10), tk.Title,
			formatHours(tk.EstimatedTimeHours), formatDue(tk.DueDate), formatDep(tk), formatDone(tk.IsCompleted))
	}
	t.StyleFunc(func(row, _ int) lipgloss.Style {
		if row == table.HeaderRow {
			return s.Header
		}
		if row >= 0 && row < len(v.Tasks) && v.Tasks[row].IsCompleted {
			return s.Done.Padding(0, 1)
		}
		return s.Cell
	})

	var b strings.Builder
	b.WriteString(heading(s, "Schedule", v.Source, len(v.Tasks)))
	b.WriteString("\n")
	b.WriteString(t.String())
	if v.Fingerprint != "" {
		b.WriteString("\n")
		b.WriteString(s.Muted.Render("fingerprint " + v.Fingerprint))
	}
	return b.String()
}

// RenderText lists each wave with its tasks.
func (v WavesView) RenderText(s Styles) string {
	n := 0
	for _, w := range v.Waves {
		n += len(w.Tasks)
	}

	var b strings.Builder
	b.WriteString(heading(s, "Waves", v.Source, n))
	for _, w := range v.Waves {
		fmt.Fprintf(&b, "\n%s\n", s.Header.UnsetPadding().Render(fmt.Sprintf("Wave %d", w.Index+1)))
		for _, tk := range w.Tasks {
			line := fmt.Sprintf("  %d  %s (%sh)", tk.ID, tk.Title, formatHours(tk.EstimatedTimeHours))
			if tk.IsCompleted {
				line = s.Done.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderText draws the timing table and highlights the critical path.
func (v TimelineView) RenderText(s Styles) string {
	tl := v.Timeline
	t := newTable(s, "ID", "Title", "Hours", "Start", "Finish", "Slack", "Critical")
	for _, tt := range tl.Tasks {
		critical := ""
		if tt.Critical {
			critical = "*"
		}
		t.Row(strconv.FormatInt(tt.TaskID, 10), tt.Title, formatHours(tt.Duration),
			formatHours(tt.EarliestStart), formatHours(tt.EarliestFinish), formatHours(tt.Slack), critical)
	}
	t.StyleFunc(func(row, _ int) lipgloss.Style {
		if row == table.HeaderRow {
			return s.Header
		}
		if row >= 0 && row < len(tl.Tasks) && tl.Tasks[row].Critical {
			return s.Critical.Padding(0, 1)
		}
		return s.Cell
	})

	path := make([]string, len(tl.CriticalPath))
	for i, id := range tl.CriticalPath {
		path[i] = strconv.FormatInt(id, 10)
	}

	var b strings.Builder
	b.WriteString(heading(s, "Timeline", v.Source, len(tl.Tasks)))
	b.WriteString("\n")
	b.WriteString(t.String())
	fmt.Fprintf(&b, "\nTotal: %sh", formatHours(tl.TotalHours))
	if len(path) > 0 {
		fmt.Fprintf(&b, "\nCritical path: %s", s.Critical.Render(strings.Join(path, " -> ")))
	}
	return b.String()
}

// RenderText prints a one-line verdict.
func (v ValidationView) RenderText(s Styles) string {
	source := v.Source
	if source == "" {
		source = "input"
	}
	if !v.Valid {
		return s.Error.Render("✗ " + source + " is invalid")
	}
	return s.Success.Render("✓ "+source) +
		fmt.Sprintf(": %d tasks in %d waves, no cycles", v.Tasks, v.Waves)
}
