package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/felixgeelhaar/projectflow/internal/auth"
	"github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/health"
	"github.com/felixgeelhaar/projectflow/internal/metrics"
	"github.com/felixgeelhaar/projectflow/internal/project"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
	"github.com/felixgeelhaar/projectflow/internal/store"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type testEnv struct {
	t       *testing.T
	srv     *Server
	store   *store.MemoryStore
	probes  *health.ProbeManager
	reg     *prometheus.Registry
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	st := store.NewMemoryStore()
	reg, m := metrics.NewRegistry()
	authSvc, err := auth.NewService(st, auth.NewTokenManager(testKey, "projectflow", time.Hour), bcrypt.MinCost)
	require.NoError(t, err)

	pm := health.NewProbeManager("test")
	pm.AddChecker(health.NewPingChecker("store", st))

	srv, err := New(cfg, Deps{
		Auth:     authSvc,
		Projects: project.NewService(st, m),
		Probes:   pm,
		Metrics:  m,
		Registry: reg,
	})
	require.NoError(t, err)

	return &testEnv{t: t, srv: srv, store: st, probes: pm, reg: reg, metrics: m}
}

func (e *testEnv) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	e.t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(username string) string {
	e.t.Helper()

	creds := map[string]string{"username": username, "password": "s3cretpass"}
	rec := e.do(http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())

	var out tokenResponse
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(e.t, out.Token)
	return out.Token
}

func (e *testEnv) createProject(token, title string) projectDTO {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/project", token, map[string]string{"title": title})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var p projectDTO
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func (e *testEnv) addTask(token string, projectID int64, body map[string]any) taskDTO {
	e.t.Helper()
	rec := e.do(http.MethodPost, fmt.Sprintf("/api/task/project/%d", projectID), token, body)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var tk taskDTO
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &tk))
	return tk
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewDefaults(t *testing.T) {
	env := newTestEnv(t, Config{Address: ":8080"})

	assert.Equal(t, 30*time.Second, env.srv.shutdownTimeout)
	assert.Equal(t, 10*time.Second, env.srv.httpServer.ReadTimeout)
	assert.Equal(t, 10*time.Second, env.srv.httpServer.WriteTimeout)
	assert.Equal(t, 60*time.Second, env.srv.httpServer.IdleTimeout)
}

func TestNewRequiresServices(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, Config{})

	creds := map[string]string{"username": "ada", "password": "s3cretpass"}
	rec := env.do(http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User registered successfully.", decode[messageResponse](t, rec).Message)

	rec = env.do(http.MethodPost, "/api/auth/register", "", creds)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already exists.", decode[errorResponse](t, rec).Message)

	rec = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "ada", "password": "wrongpass"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid username or password.", decode[errorResponse](t, rec).Message)

	// Legacy clients send the plaintext password as passwordHash.
	rec = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "ada", "passwordHash": "s3cretpass"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[tokenResponse](t, rec).Token)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(http.MethodGet, "/api/project", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	rec = env.do(http.MethodGet, "/api/project", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProjectAndTaskLifecycle(t *testing.T) {
	env := newTestEnv(t, Config{ValidateRequests: true})
	token := env.login("ada")

	p := env.createProject(token, "Launch")
	assert.Equal(t, "Launch", p.Title)
	assert.Empty(t, p.Tasks)

	design := env.addTask(token, p.ID, map[string]any{
		"title":              "Design",
		"estimatedTimeHours": 4,
		"dueDate":            "2025-03-01",
	})
	assert.Nil(t, design.DependentTaskID)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), design.DueDate.UTC())

	build := env.addTask(token, p.ID, map[string]any{
		"title":              "Build",
		"estimatedTimeHours": 8,
		"dependentTaskId":    design.ID,
	})
	require.NotNil(t, build.DependentTaskID)
	assert.Equal(t, design.ID, *build.DependentTaskID)

	rec := env.do(http.MethodGet, "/api/project", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	projects := decode[[]projectDTO](t, rec)
	require.Len(t, projects, 1)
	assert.Len(t, projects[0].Tasks, 2)

	rec = env.do(http.MethodPatch, fmt.Sprintf("/api/task/toggle/%d", design.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[taskDTO](t, rec).IsCompleted)

	rec = env.do(http.MethodDelete, fmt.Sprintf("/api/task/%d", design.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/project", token, nil)
	projects = decode[[]projectDTO](t, rec)
	require.Len(t, projects[0].Tasks, 1)
	assert.Nil(t, projects[0].Tasks[0].DependentTaskID, "deleting a dependency clears it on dependents")

	rec = env.do(http.MethodDelete, fmt.Sprintf("/api/task/%d", design.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found.", decode[errorResponse](t, rec).Message)
}

func TestAddTaskErrors(t *testing.T) {
	env := newTestEnv(t, Config{})
	token := env.login("ada")
	p := env.createProject(token, "Launch")
	other := env.createProject(token, "Other")
	foreign := env.addTask(token, other.ID, map[string]any{"title": "Elsewhere"})

	rec := env.do(http.MethodPost, "/api/task/project/999", token, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Project not found.", decode[errorResponse](t, rec).Message)

	rec = env.do(http.MethodPost, fmt.Sprintf("/api/task/project/%d", p.ID), token,
		map[string]any{"title": "x", "dependentTaskId": foreign.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Dependent task not found in this project.", decode[errorResponse](t, rec).Message)

	rec = env.do(http.MethodPost, fmt.Sprintf("/api/task/project/%d", p.ID), token,
		map[string]any{"title": "x", "estimatedTimeHours": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, string(errors.ErrCodeTaskInvalid), body.Error)
	assert.True(t, strings.HasPrefix(body.Message, "invalid input: "), body.Message)
	assert.NotContains(t, body.Message, "[TASK-002]")

	// 0 means no dependency.
	tk := env.addTask(token, p.ID, map[string]any{"title": "Standalone", "dependentTaskId": 0})
	assert.Nil(t, tk.DependentTaskID)
}

func TestOwnershipIsEnforced(t *testing.T) {
	env := newTestEnv(t, Config{})
	ada := env.login("ada")
	bob := env.login("bob")

	p := env.createProject(ada, "Secret")
	tk := env.addTask(ada, p.ID, map[string]any{"title": "Hidden"})

	rec := env.do(http.MethodGet, fmt.Sprintf("/api/task/schedule/%d", p.ID), bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPatch, fmt.Sprintf("/api/task/toggle/%d", tk.ID), bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/api/project", bob, nil)
	assert.Empty(t, decode[[]projectDTO](t, rec))
}

func TestSchedule(t *testing.T) {
	env := newTestEnv(t, Config{})
	token := env.login("ada")
	p := env.createProject(token, "Launch")

	a := env.addTask(token, p.ID, map[string]any{"title": "A", "estimatedTimeHours": 2})
	b := env.addTask(token, p.ID, map[string]any{"title": "B", "estimatedTimeHours": 3, "dependentTaskId": a.ID})
	c := env.addTask(token, p.ID, map[string]any{"title": "C", "estimatedTimeHours": 1})

	path := fmt.Sprintf("/api/task/schedule/%d", p.ID)
	rec := env.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	order := decode[[]taskDTO](t, rec)
	ids := make([]int64, len(order))
	for i, tk := range order {
		ids[i] = tk.ID
	}
	assert.Equal(t, []int64{a.ID, c.ID, b.ID}, ids)

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = env.do(http.MethodGet, path, token, nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())

	env.do(http.MethodPatch, fmt.Sprintf("/api/task/toggle/%d", a.ID), token, nil)
	rec = env.do(http.MethodGet, path, token, nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestScheduleCycle(t *testing.T) {
	env := newTestEnv(t, Config{})
	token := env.login("ada")
	p := env.createProject(token, "Loop")

	a := env.addTask(token, p.ID, map[string]any{"title": "A"})
	b := env.addTask(token, p.ID, map[string]any{"title": "B", "dependentTaskId": a.ID})
	env.addTask(token, p.ID, map[string]any{"title": "C", "dependentTaskId": b.ID})

	// The API cannot produce a cycle; close one in storage.
	ctx := context.Background()
	tasks, err := env.store.ListTasks(ctx, p.ID)
	require.NoError(t, err)
	first := tasks[0]
	first.DependentTaskID = schedule.DependencyRef(b.ID)
	require.NoError(t, env.store.UpdateTask(ctx, &first))

	rec := env.do(http.MethodGet, fmt.Sprintf("/api/task/schedule/%d", p.ID), token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[errorResponse](t, rec)
	assert.Equal(t, "SCHED-001", body.Error)
	assert.Equal(t, "Cycle detected in task dependencies.", body.Message)
	assert.ElementsMatch(t, []int64{a.ID, b.ID}, body.Cycle)
	assert.Len(t, body.Blocked, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CyclesDetected))

	rec = env.do(http.MethodGet, fmt.Sprintf("/api/task/schedule/%d/waves", p.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Graphs still render so the loop can be inspected.
	rec = env.do(http.MethodGet, fmt.Sprintf("/api/task/graph/%d", p.ID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWavesTimelineAndGraph(t *testing.T) {
	env := newTestEnv(t, Config{ValidateRequests: true})
	token := env.login("ada")
	p := env.createProject(token, "Launch")

	a := env.addTask(token, p.ID, map[string]any{"title": "A", "estimatedTimeHours": 2})
	b := env.addTask(token, p.ID, map[string]any{"title": "B", "estimatedTimeHours": 3, "dependentTaskId": a.ID})
	env.addTask(token, p.ID, map[string]any{"title": "C", "estimatedTimeHours": 1})

	rec := env.do(http.MethodGet, fmt.Sprintf("/api/task/schedule/%d/waves", p.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	waves := decode[[]waveDTO](t, rec)
	require.Len(t, waves, 2)
	assert.Len(t, waves[0].Tasks, 2)
	assert.Equal(t, b.ID, waves[1].Tasks[0].ID)

	rec = env.do(http.MethodGet, fmt.Sprintf("/api/task/schedule/%d/timeline", p.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tl := decode[schedule.Timeline](t, rec)
	assert.InDelta(t, 5.0, tl.TotalHours, 1e-9)
	assert.Equal(t, []int64{a.ID, b.ID}, tl.CriticalPath)

	rec = env.do(http.MethodGet, fmt.Sprintf("/api/task/graph/%d", p.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "graphviz")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "digraph"))

	rec = env.do(http.MethodGet, fmt.Sprintf("/api/task/graph/%d?format=mermaid", p.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "flowchart"))

	rec = env.do(http.MethodGet, fmt.Sprintf("/api/task/graph/%d?format=svg", p.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestValidation(t *testing.T) {
	env := newTestEnv(t, Config{ValidateRequests: true})
	token := env.login("ada")

	rec := env.do(http.MethodPost, "/api/project", token, map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "HTTP-001", decode[errorResponse](t, rec).Error)

	rec = env.do(http.MethodPost, "/api/project", token, map[string]any{"title": 42})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/task/schedule/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t, Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "HTTP-001", decode[errorResponse](t, rec).Error)
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(http.MethodGet, "/health/live", "", nil)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = env.do(http.MethodGet, "/health/live", "", nil, requestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, Config{CORSOrigins: []string{"http://localhost:3000"}})

	rec := env.do(http.MethodOptions, "/api/project", "", nil,
		"Origin", "http://localhost:3000",
		"Access-Control-Request-Method", "POST")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = env.do(http.MethodGet, "/health/live", "", nil, "Origin", "http://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProbes(t *testing.T) {
	env := newTestEnv(t, Config{})

	rec := env.do(http.MethodGet, "/health/startup", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	env.probes.MarkInitialized()
	rec = env.do(http.MethodGet, "/health/startup", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{"/health/ready", "/healthz", "/health/live"} {
		rec = env.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	require.NoError(t, env.store.Close())
	rec = env.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	result := decode[health.ProbeResult](t, rec)
	assert.Equal(t, health.StatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks, "store")
}

func TestShutdown(t *testing.T) {
	env := newTestEnv(t, Config{Address: "127.0.0.1:0", ShutdownTimeout: time.Second})

	require.NoError(t, env.srv.Shutdown(context.Background()))
	assert.True(t, env.srv.IsShuttingDown())

	rec := env.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, health.StatusDegraded, decode[health.ProbeResult](t, rec).Status)
}

func TestMetricsAndOpenAPIEndpoints(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.do(http.MethodGet, "/health/live", "", nil)

	rec := env.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `projectflow_http_requests_total{method="GET",route="GET /health/live",status="200"} 1`)

	rec = env.do(http.MethodGet, "/api/openapi.yaml", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")

	doc, err := LoadOpenAPI(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/api/task/schedule/{projectId}"))
}

func TestPanicRecovery(t *testing.T) {
	env := newTestEnv(t, Config{})
	h := env.srv.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "HTTP-002", decode[errorResponse](t, rec).Error)
}

func TestETagMatches(t *testing.T) {
	assert.True(t, etagMatches(`"abc"`, `"abc"`))
	assert.True(t, etagMatches(`W/"abc"`, `"abc"`))
	assert.True(t, etagMatches(`"x", "abc"`, `"abc"`))
	assert.True(t, etagMatches(`*`, `"abc"`))
	assert.False(t, etagMatches(``, `"abc"`))
	assert.False(t, etagMatches(`"abd"`, `"abc"`))
}
