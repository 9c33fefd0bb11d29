package schedule

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNilWriter indicates that a nil writer was passed to an exporter.
var ErrNilWriter = errors.New("schedule: nil writer")

// ExportDOT renders the dependency graph in Graphviz DOT format. Nodes are
// emitted in schedule order and edges point from a task to its dependent.
func ExportDOT(w io.Writer, name string, tasks []Task, opts ...Option) error {
	if w == nil {
		return ErrNilWriter
	}
	g, positions, err := exportGraph(tasks, opts)
	if err != nil {
		return err
	}
	if name == "" {
		name = "project"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", dotQuote(name))
	b.WriteString("    rankdir=LR;\n")
	for _, i := range positions {
		t := g.tasks[i]
		attrs := fmt.Sprintf("label=%s", dotQuote(nodeLabel(t)))
		if t.IsCompleted {
			attrs += ", style=filled, fillcolor=\"#d3f9d8\""
		}
		fmt.Fprintf(&b, "    t%d [%s];\n", t.ID, attrs)
	}
	for _, i := range positions {
		for _, next := range g.adj[i] {
			fmt.Fprintf(&b, "    t%d -> t%d;\n", g.tasks[i].ID, g.tasks[next].ID)
		}
	}
	b.WriteString("}\n")

	_, err = io.WriteString(w, b.String())
	return err
}

// ExportMermaid renders the dependency graph as a Mermaid flowchart.
func ExportMermaid(w io.Writer, tasks []Task, opts ...Option) error {
	if w == nil {
		return ErrNilWriter
	}
	g, positions, err := exportGraph(tasks, opts)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("flowchart LR\n")
	var done []string
	for _, i := range positions {
		t := g.tasks[i]
		fmt.Fprintf(&b, "    t%d[%s]\n", t.ID, mermaidQuote(nodeLabel(t)))
		if t.IsCompleted {
			done = append(done, fmt.Sprintf("t%d", t.ID))
		}
	}
	for _, i := range positions {
		for _, next := range g.adj[i] {
			fmt.Fprintf(&b, "    t%d --> t%d\n", g.tasks[i].ID, g.tasks[next].ID)
		}
	}
	if len(done) > 0 {
		b.WriteString("    classDef done fill:#d3f9d8\n")
		fmt.Fprintf(&b, "    class %s done\n", strings.Join(done, ","))
	}

	_, err = io.WriteString(w, b.String())
	return err
}

// exportGraph builds the graph and a schedule order. Graphs with cycles
// still export, in input order, so the cycle can be inspected.
func exportGraph(tasks []Task, opts []Option) (*graph, []int, error) {
	g, err := build(tasks, resolveOptions(opts))
	if err != nil {
		return nil, nil, err
	}
	positions, err := g.order()
	if err != nil {
		var cycleErr *CycleError
		if !errors.As(err, &cycleErr) {
			return nil, nil, err
		}
		positions = make([]int, len(g.tasks))
		for i := range positions {
			positions[i] = i
		}
	}
	return g, positions, nil
}

func nodeLabel(t Task) string {
	if t.Title == "" {
		return fmt.Sprintf("#%d", t.ID)
	}
	return fmt.Sprintf("#%d %s", t.ID, t.Title)
}

func dotQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func mermaidQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "#quot;") + `"`
}
