package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/projectflow/internal/auth"
	"github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/metrics"
	"github.com/felixgeelhaar/projectflow/internal/project"
)

func (s *Server) routes(mux *http.ServeMux, reg *prometheus.Registry) {
	s.handle(mux, "GET /health/live", s.handleLiveness, false)
	s.handle(mux, "GET /health/ready", s.handleReadiness, false)
	s.handle(mux, "GET /health/startup", s.handleStartup, false)
	// Backward compatibility: /healthz maps to readiness
	s.handle(mux, "GET /healthz", s.handleReadiness, false)

	if reg != nil {
		mux.Handle("GET /metrics", metrics.HandlerFor(reg))
	}
	s.handle(mux, "GET /api/openapi.yaml", serveOpenAPI, false)

	s.handle(mux, "POST /api/auth/register", s.handleRegister, false)
	s.handle(mux, "POST /api/auth/login", s.handleLogin, false)

	s.handle(mux, "POST /api/project", s.handleCreateProject, true)
	s.handle(mux, "GET /api/project", s.handleListProjects, true)

	s.handle(mux, "POST /api/task/project/{projectId}", s.handleAddTask, true)
	s.handle(mux, "DELETE /api/task/{taskId}", s.handleDeleteTask, true)
	s.handle(mux, "PATCH /api/task/toggle/{taskId}", s.handleToggleTask, true)
	s.handle(mux, "GET /api/task/schedule/{projectId}", s.handleSchedule, true)
	s.handle(mux, "GET /api/task/schedule/{projectId}/waves", s.handleWaves, true)
	s.handle(mux, "GET /api/task/schedule/{projectId}/timeline", s.handleTimeline, true)
	s.handle(mux, "GET /api/task/graph/{projectId}", s.handleGraph, true)
}

// handle registers h under pattern with per-route metrics and tracing, and
// bearer authentication when protected is set.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc, protected bool) {
	var next http.Handler = h
	if protected {
		next = auth.RequireAuth(s.auth.Tokens())(next)
	}
	mux.Handle(pattern, s.instrument(pattern, next))
}

// principal returns the authenticated caller's user ID. RequireAuth has
// already rejected requests without one.
func principal(r *http.Request) int64 {
	p, _ := auth.PrincipalFrom(r.Context())
	return p.UserID
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, errors.ErrCodeRequestInvalid, "Invalid "+name+".")
		return 0, false
	}
	return id, true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := s.auth.Register(r.Context(), req.Username, req.password()); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "User registered successfully."})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := s.auth.Login(r.Context(), req.Username, req.password())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.projects.CreateProject(r.Context(), principal(r), req.Title)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProjectDTO(*p))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.ListProjects(r.Context(), principal(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]projectDTO, len(projects))
	for i, p := range projects {
		out[i] = newProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectId")
	if !ok {
		return
	}
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := s.projects.AddTask(r.Context(), principal(r), projectID, req.toNewTask())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskDTO(*t))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}
	if err := s.projects.DeleteTask(r.Context(), principal(r), taskID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully."})
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathID(w, r, "taskId")
	if !ok {
		return
	}
	t, err := s.projects.ToggleTask(r.Context(), principal(r), taskID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskDTO(*t))
}

// handleSchedule returns the project's tasks in dependency order. The order
// fingerprint is the ETag, so unchanged schedules answer 304.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectId")
	if !ok {
		return
	}
	res, err := s.projects.Schedule(r.Context(), principal(r), projectID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	etag := `"` + res.Fingerprint + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, newTaskDTOs(res.Tasks))
}

func (s *Server) handleWaves(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectId")
	if !ok {
		return
	}
	waves, err := s.projects.Waves(r.Context(), principal(r), projectID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]waveDTO, len(waves))
	for i, wv := range waves {
		out[i] = waveDTO{Index: wv.Index, Tasks: newTaskDTOs(wv.Tasks)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectId")
	if !ok {
		return
	}
	tl, err := s.projects.Timeline(r.Context(), principal(r), projectID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "projectId")
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")

	var buf bytes.Buffer
	if err := s.projects.Graph(r.Context(), principal(r), projectID, format, &buf); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	contentType := "text/vnd.graphviz; charset=utf-8"
	if format == project.FormatMermaid {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(buf.Bytes())
}
