package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/projectflow/internal/config"
	"github.com/felixgeelhaar/projectflow/internal/log"
	"github.com/felixgeelhaar/projectflow/internal/telemetry"
	"github.com/felixgeelhaar/projectflow/internal/version"
)

// configEnv names the config file when --config is not given.
const configEnv = config.EnvPrefix + "CONFIG"

const telemetryShutdownTimeout = 5 * time.Second

// CommandContext holds the resolved global flags and configuration of one
// command invocation.
type CommandContext struct {
	Config  *config.Config
	Logger  *log.Logger
	NoColor bool

	Out io.Writer
	Err io.Writer

	shutdownTelemetry func(context.Context) error
}

// NewCommandContext loads the configuration named by --config (or
// PROJECTFLOW_CONFIG), applies the --log-* overrides, installs the process
// logger and starts telemetry. Commands call it first in RunE and close it
// when done:
//
//	func runCommand(cmd *cobra.Command, args []string) error {
//		cc, err := NewCommandContext(cmd)
//		if err != nil {
//			return err
//		}
//		defer cc.Close()
//		// Use cc.Config, cc.Logger, etc.
//	}
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = os.Getenv(configEnv)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if level, _ := flags.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := flags.GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}

	logCfg := log.FromStrings(cfg.Log.Level, cfg.Log.Format, version.GetInfo().Version)
	logCfg.Output = cmd.ErrOrStderr()
	logger := log.New(logCfg)
	log.SetDefaultLogger(logger)

	cc := &CommandContext{
		Config:  cfg,
		Logger:  logger,
		NoColor: noColorRequested(cmd),
		Out:     cmd.OutOrStdout(),
		Err:     cmd.ErrOrStderr(),
	}
	cc.startTelemetry(cmd.Context())
	return cc, nil
}

// startTelemetry installs the tracer provider described by the telemetry
// config. A provider that fails to start is logged and tracing stays off.
func (cc *CommandContext) startTelemetry(ctx context.Context) {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = version.GetInfo().Version
	tc.Enabled = cc.Config.Telemetry.Enabled
	tc.Endpoint = cc.Config.Telemetry.Endpoint
	tc.SampleRate = cc.Config.Telemetry.SampleRate

	shutdown, err := telemetry.InitProvider(ctx, tc)
	if err != nil {
		cc.Logger.Warn("telemetry disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}
	cc.shutdownTelemetry = shutdown
}

// Close flushes pending spans and stops the tracer provider.
func (cc *CommandContext) Close() {
	if cc.shutdownTelemetry == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := cc.shutdownTelemetry(ctx); err != nil {
		cc.Logger.Warn("telemetry shutdown failed", "error", err)
	}
}

// noColorRequested reports whether --no-color was passed anywhere on the
// command line or NO_COLOR is set.
func noColorRequested(cmd *cobra.Command) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return true
	}
	noColor, _ := cmd.Root().PersistentFlags().GetBool("no-color")
	return noColor
}
