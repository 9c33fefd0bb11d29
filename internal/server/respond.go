package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/felixgeelhaar/projectflow/internal/auth"
	"github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/log"
	"github.com/felixgeelhaar/projectflow/internal/project"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errors.ErrorCode, message string) {
	writeJSON(w, status, errorResponse{Error: string(code), Message: message})
}

// writeServiceError maps an error from the auth or project services to a
// response. Unknown errors are logged and answered with 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		authErr  *auth.AuthError
		cycleErr *schedule.CycleError
	)

	switch {
	case stderrors.Is(err, project.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, errors.ErrCodeProjectNotFound, "Project not found.")
	case stderrors.Is(err, project.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, errors.ErrCodeTaskNotFound, "Task not found.")
	case stderrors.Is(err, project.ErrDependencyNotFound):
		writeError(w, http.StatusBadRequest, errors.ErrCodeDependencyNotFound, "Dependent task not found in this project.")
	case stderrors.Is(err, project.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, errors.ErrCodeTaskInvalid, detail(err))
	case stderrors.As(err, &cycleErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   string(errors.ErrCodeCycleDetected),
			Message: "Cycle detected in task dependencies.",
			Cycle:   cycleErr.Cycle,
			Blocked: cycleErr.Blocked,
		})
	case stderrors.Is(err, schedule.ErrUnresolvedDependency):
		writeError(w, http.StatusConflict, errors.ErrCodeUnresolvedDependency, err.Error())
	case stderrors.As(err, &authErr):
		writeError(w, http.StatusBadRequest, authErr.Code, authErr.Message)
	default:
		log.FromContext(r.Context()).WithError(err).ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path)
		s.metrics.ObserveError(string(errors.ErrCodeInternal), "server")
		writeError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Internal server error.")
	}
}

// decodeJSON reads a JSON body into v. On failure it writes a 400 and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrCodeRequestInvalid, "Malformed request body: "+err.Error())
		return false
	}
	return true
}

// detail is the message of the first coded error in err's chain, followed by
// its cause, without the code prefix and suggestions of AppError.Error.
func detail(err error) string {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return err.Error()
	}
	if appErr.Cause == nil {
		return appErr.Message
	}
	return appErr.Message + ": " + appErr.Cause.Error()
}
