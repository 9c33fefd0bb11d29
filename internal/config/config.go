// Package config loads projectflow settings from built-in defaults, an
// optional YAML file and PROJECTFLOW_* environment variables, in that order
// of precedence.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
)

//go:embed default.yaml
var defaultYAML []byte

// DevelopmentJWTKey is the placeholder signing key shipped in the defaults.
const DevelopmentJWTKey = "default_super_secret_key"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PROJECTFLOW_"

// Database drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Auth      AuthConfig      `yaml:"auth" json:"auth"`
	Log       LogConfig       `yaml:"log" json:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Schedule  ScheduleConfig  `yaml:"schedule" json:"schedule"`
}

type ServerConfig struct {
	Address          string        `yaml:"address" json:"address"`
	ReadTimeout      time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	CORSOrigins      []string      `yaml:"cors_origins" json:"cors_origins"`
	ValidateRequests bool          `yaml:"validate_requests" json:"validate_requests"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" json:"driver"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

type AuthConfig struct {
	JWTKey     string        `yaml:"jwt_key" json:"-"`
	Issuer     string        `yaml:"issuer" json:"issuer"`
	TokenTTL   time.Duration `yaml:"token_ttl" json:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost" json:"bcrypt_cost"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	Endpoint   string  `yaml:"endpoint" json:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`
}

type ScheduleConfig struct {
	// DanglingPolicy applies to task files scheduled from the command line.
	// The API always rejects dangling references.
	DanglingPolicy string `yaml:"dangling_policy" json:"dangling_policy"`
}

// Policy returns the parsed dangling_policy.
func (c ScheduleConfig) Policy() (schedule.DanglingPolicy, error) {
	return schedule.ParseDanglingPolicy(c.DanglingPolicy)
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	if err := yaml.Unmarshal(defaultYAML, &c); err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return &c
}

// Load reads path (if non-empty) over the defaults and applies environment
// overrides from the process environment. Only the sections every command
// shares are validated here; callers that run the server also call Validate.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NewConfigNotFoundError(path)
			}
			return nil, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("failed to read config %s", path), err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, errors.NewFileUnmarshalError(path, "YAML", err)
		}
	}

	if err := c.applyEnv(lookup); err != nil {
		return nil, err
	}
	if problems := c.commonProblems(); len(problems) > 0 {
		return nil, errors.NewConfigInvalidError(strings.Join(problems, "; "))
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.NewConfigInvalidError(fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
		}
		*dst = d
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.NewConfigInvalidError(fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
		}
		*dst = b
		return nil
	}

	str("SERVER_ADDRESS", &c.Server.Address)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_DSN", &c.Database.DSN)
	str("AUTH_JWT_KEY", &c.Auth.JWTKey)
	str("AUTH_ISSUER", &c.Auth.Issuer)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	str("SCHEDULE_DANGLING_POLICY", &c.Schedule.DanglingPolicy)

	if v, ok := lookup(EnvPrefix + "SERVER_CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "AUTH_BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewConfigInvalidError(fmt.Sprintf("%sAUTH_BCRYPT_COST: %v", EnvPrefix, err))
		}
		c.Auth.BcryptCost = n
	}
	if v, ok := lookup(EnvPrefix + "TELEMETRY_SAMPLE_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.NewConfigInvalidError(fmt.Sprintf("%sTELEMETRY_SAMPLE_RATE: %v", EnvPrefix, err))
		}
		c.Telemetry.SampleRate = f
	}

	for _, set := range []error{
		dur("SERVER_READ_TIMEOUT", &c.Server.ReadTimeout),
		dur("SERVER_WRITE_TIMEOUT", &c.Server.WriteTimeout),
		dur("SERVER_IDLE_TIMEOUT", &c.Server.IdleTimeout),
		dur("SERVER_SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout),
		dur("AUTH_TOKEN_TTL", &c.Auth.TokenTTL),
		boolean("SERVER_VALIDATE_REQUESTS", &c.Server.ValidateRequests),
		boolean("TELEMETRY_ENABLED", &c.Telemetry.Enabled),
	} {
		if set != nil {
			return set
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// commonProblems checks the sections used by every command.
func (c *Config) commonProblems() []string {
	var problems []string
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		problems = append(problems, "telemetry.sample_rate must be between 0 and 1")
	}
	if _, err := c.Schedule.Policy(); err != nil {
		problems = append(problems, "schedule.dangling_policy: "+err.Error())
	}
	return problems
}

// Validate checks the whole configuration, including the server, database
// and auth sections the offline commands never touch.
func (c *Config) Validate() error {
	problems := c.commonProblems()

	if strings.TrimSpace(c.Server.Address) == "" {
		problems = append(problems, "server.address is required")
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Database.DSN == "" {
			problems = append(problems, "database.dsn is required for the sqlite driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("database.driver must be %q or %q, got %q", DriverMemory, DriverSQLite, c.Database.Driver))
	}
	if c.Auth.JWTKey == "" {
		problems = append(problems, "auth.jwt_key must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "auth.token_ttl must be positive")
	}
	// bcrypt.MinCost..bcrypt.MaxCost
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost))
	}

	if len(problems) > 0 {
		return errors.NewConfigInvalidError(strings.Join(problems, "; "))
	}
	return nil
}

// Warnings lists settings that are valid but unsafe outside development.
func (c *Config) Warnings() []string {
	var w []string
	if c.Auth.JWTKey == DevelopmentJWTKey {
		w = append(w, "auth.jwt_key is the development placeholder; set PROJECTFLOW_AUTH_JWT_KEY")
	}
	if len(c.Auth.JWTKey) < 32 && c.Auth.JWTKey != DevelopmentJWTKey {
		w = append(w, "auth.jwt_key is shorter than 32 bytes")
	}
	if c.Database.Driver == DriverMemory {
		w = append(w, "database.driver is memory; data is lost on restart")
	}
	return w
}
