package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/projectflow/internal/ux"
)

// NewRootCommand builds the projectflow command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "projectflow",
		Short: "Projects, task dependencies and dependency-ordered schedules",
		Long: `projectflow organizes work into projects whose tasks may depend on one
other task, and computes the order in which the tasks can be done.

Run "projectflow serve" for the HTTP API, or use the schedule, graph and
validate commands to work on a task file offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default: built-in defaults, or $"+configEnv+")")
	pf.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	pf.String("log-format", "", "log format: json or text (overrides config)")
	pf.Bool("no-color", false, "disable colored output")

	root.AddCommand(
		newServeCmd(),
		newScheduleCmd(),
		newGraphCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// SIGINT or SIGTERM by main. Failures are rendered to stderr unless ctx was
// cancelled; the error is still returned for the exit code.
func ExecuteContext(ctx context.Context) error {
	return execute(ctx, NewRootCommand())
}

func execute(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if err != nil && ctx.Err() == nil {
		ux.RenderError(root.ErrOrStderr(), err, noColorRequested(root))
	}
	return err
}
