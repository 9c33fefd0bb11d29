package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projectflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "0.0.0.0:8080", c.Server.Address)
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, c.Server.CORSOrigins)
	assert.True(t, c.Server.ValidateRequests)
	assert.Equal(t, DriverSQLite, c.Database.Driver)
	assert.Equal(t, DevelopmentJWTKey, c.Auth.JWTKey)
	assert.Equal(t, 12*time.Hour, c.Auth.TokenTTL)
	assert.Equal(t, 10, c.Auth.BcryptCost)
	assert.Equal(t, "info", c.Log.Level)
	assert.False(t, c.Telemetry.Enabled)
	assert.Equal(t, "reject", c.Schedule.DanglingPolicy)
	assert.NoError(t, c.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  address: "127.0.0.1:9000"
database:
  driver: memory
auth:
  token_ttl: 1h
log:
  format: text
`)

	c, err := LoadWithEnv(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", c.Server.Address)
	assert.Equal(t, DriverMemory, c.Database.Driver)
	assert.Equal(t, time.Hour, c.Auth.TokenTTL)
	assert.Equal(t, "text", c.Log.Format)
	// untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, c.Server.WriteTimeout)
	assert.Equal(t, "projectflow", c.Auth.Issuer)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "database:\n  driver: memory\n")

	c, err := LoadWithEnv(path, env(map[string]string{
		"PROJECTFLOW_DATABASE_DRIVER":          "sqlite",
		"PROJECTFLOW_DATABASE_DSN":             "file::memory:",
		"PROJECTFLOW_AUTH_JWT_KEY":             "an-actual-production-signing-key-0123",
		"PROJECTFLOW_AUTH_TOKEN_TTL":           "30m",
		"PROJECTFLOW_SERVER_CORS_ORIGINS":      "https://a.example, https://b.example",
		"PROJECTFLOW_TELEMETRY_ENABLED":        "true",
		"PROJECTFLOW_TELEMETRY_SAMPLE_RATE":    "0.25",
		"PROJECTFLOW_AUTH_BCRYPT_COST":         "4",
		"PROJECTFLOW_SCHEDULE_DANGLING_POLICY": "ignore",
	}))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, c.Database.Driver)
	assert.Equal(t, "file::memory:", c.Database.DSN)
	assert.Equal(t, 30*time.Minute, c.Auth.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Server.CORSOrigins)
	assert.True(t, c.Telemetry.Enabled)
	assert.Equal(t, 0.25, c.Telemetry.SampleRate)
	assert.Equal(t, 4, c.Auth.BcryptCost)
	policy, err := c.Schedule.Policy()
	require.NoError(t, err)
	assert.Equal(t, schedule.IgnoreDangling, policy)
	assert.NoError(t, c.Validate())
	assert.Empty(t, c.Warnings())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		env      map[string]string
		wantCode errors.ErrorCode
	}{
		{
			name:     "missing file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantCode: errors.ErrCodeConfigNotFound,
		},
		{
			name:     "bad yaml",
			path:     func(t *testing.T) string { return writeFile(t, "server: [unterminated") },
			wantCode: errors.ErrCodeFileUnmarshal,
		},
		{
			name:     "bad duration env",
			path:     func(*testing.T) string { return "" },
			env:      map[string]string{"PROJECTFLOW_AUTH_TOKEN_TTL": "soon"},
			wantCode: errors.ErrCodeConfigInvalid,
		},
		{
			name:     "sample rate out of range",
			path:     func(*testing.T) string { return "" },
			env:      map[string]string{"PROJECTFLOW_TELEMETRY_SAMPLE_RATE": "2"},
			wantCode: errors.ErrCodeConfigInvalid,
		},
		{
			name:     "unknown dangling policy",
			path:     func(t *testing.T) string { return writeFile(t, "schedule:\n  dangling_policy: sometimes\n") },
			wantCode: errors.ErrCodeConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithEnv(tt.path(t), env(tt.env))
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
		})
	}
}

func TestLoad_ServerSectionsCheckedOnlyByValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"PROJECTFLOW_DATABASE_DRIVER": "postgres"}},
		{name: "empty jwt key", env: map[string]string{"PROJECTFLOW_AUTH_JWT_KEY": ""}},
		{name: "empty address", env: map[string]string{"PROJECTFLOW_SERVER_ADDRESS": " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadWithEnv("", env(tt.env))
			require.NoError(t, err)

			err = c.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
		})
	}
}

func TestWarnings(t *testing.T) {
	c := Default()
	c.Database.Driver = DriverMemory

	w := c.Warnings()
	require.Len(t, w, 2)
	assert.Contains(t, w[0], "development placeholder")
	assert.Contains(t, w[1], "memory")
}
