package ux

import (
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

// RenderError writes err for a terminal user: the message in red, the
// offending cycle when there is one, then any suggestions and docs link
// carried by a coded error.
func RenderError(w io.Writer, err error, noColor bool) {
	if err == nil {
		return
	}
	s := NewStyles(w, noColor)

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		fmt.Fprintln(w, s.Error.Render("Error:")+" "+err.Error())
		return
	}

	var cycleErr *schedule.CycleError
	isCycle := stderrors.As(err, &cycleErr) && len(cycleErr.Cycle) > 0

	msg := appErr.Message
	if appErr.Cause != nil && !isCycle {
		msg += ": " + appErr.Cause.Error()
	}
	fmt.Fprintln(w, s.Error.Render(fmt.Sprintf("Error [%s]:", appErr.Code))+" "+msg)

	if isCycle {
		loop := make([]int64, 0, len(cycleErr.Cycle)+1)
		loop = append(loop, cycleErr.Cycle...)
		loop = append(loop, cycleErr.Cycle[0])
		fmt.Fprintln(w, "  cycle:   "+s.Error.Render(joinIDs(loop, " -> ")))
		fmt.Fprintln(w, "  blocked: "+joinIDs(cycleErr.Blocked, ", "))
	}

	if len(appErr.Suggestions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Muted.Render("Suggestions:"))
		for _, suggestion := range appErr.Suggestions {
			fmt.Fprintf(w, "  • %s\n", suggestion)
		}
	}
	if appErr.DocsURL != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.Muted.Render("Documentation:")+" "+appErr.DocsURL)
	}
}

func joinIDs(ids []int64, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, sep)
}
