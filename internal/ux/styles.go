package ux

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles used for text output. They are bound to a
// renderer for the output writer, so redirected output carries no escape
// codes.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Muted    lipgloss.Style
	Critical lipgloss.Style
	Done     lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Border   lipgloss.Style
}

// NewStyles returns styles for w. noColor yields unstyled output regardless
// of the terminal.
func NewStyles(w io.Writer, noColor bool) Styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return Styles{
			Title: plain, Header: plain, Cell: plain.Padding(0, 1), Muted: plain,
			Critical: plain, Done: plain, Success: plain, Error: plain, Border: plain,
		}
	}

	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Padding(0, 1),
		Cell:     r.NewStyle().Padding(0, 1),
		Muted:    r.NewStyle().Foreground(lipgloss.Color("241")),
		Critical: r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Done:     r.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true),
		Success:  r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Error:    r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Border:   r.NewStyle().Foreground(lipgloss.Color("238")),
	}
}

// TextRenderer is implemented by results that know how to draw themselves
// for the text format.
type TextRenderer interface {
	RenderText(s Styles) string
}
