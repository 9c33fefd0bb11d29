package cmd

import (
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/projectflow/internal/schedule"
	"github.com/felixgeelhaar/projectflow/internal/telemetry"
	"github.com/felixgeelhaar/projectflow/internal/ux"
)

func newScheduleCmd() *cobra.Command {
	var (
		in       inputFlags
		format   string
		waves    bool
		timeline bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Order the tasks of a task file by their dependencies",
		Long: `Compute a dependency-respecting order for the tasks in a task file.

Tasks become ready once their dependency is scheduled; ready tasks keep the
order of the file. A dependency cycle fails the command with exit code 7 and
names the tasks in the loop.`,
		Example: `  projectflow schedule --in tasks.yaml
  projectflow schedule --in tasks.json --waves
  projectflow schedule --in tasks.yaml --timeline --format json
  cat tasks.json | projectflow schedule --in -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cc.Close()

			opts, err := in.options(cc.Config)
			if err != nil {
				return err
			}
			formatter, err := ux.NewFormatter(format, &ux.FormatterOptions{Writer: cc.Out, NoColor: cc.NoColor})
			if err != nil {
				return err
			}
			tasks, err := in.load(cmd)
			if err != nil {
				return err
			}

			ctx, span := telemetry.StartCommandSpan(cmd.Context(), "schedule")
			defer span.End()

			var view any
			switch {
			case waves:
				var ws []schedule.Wave
				ws, err = schedule.Waves(tasks, opts...)
				view = ux.WavesView{Source: in.source(), Waves: ws}
			case timeline:
				var tl *schedule.Timeline
				tl, err = schedule.Analyze(tasks, opts...)
				if err == nil {
					view = ux.TimelineView{Source: in.source(), Timeline: *tl}
				}
			default:
				var order []schedule.Task
				order, err = schedule.Schedule(tasks, opts...)
				view = ux.ScheduleView{Source: in.source(), Tasks: order, Fingerprint: schedule.Fingerprint(order)}
			}
			if err != nil {
				telemetry.RecordError(span, err)
				return scheduleError(ctx, err)
			}

			telemetry.RecordSuccess(span, attribute.Int("tasks", len(tasks)))
			return formatter.Format(view)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().BoolVar(&waves, "waves", false, "group tasks into dependency levels")
	cmd.Flags().BoolVar(&timeline, "timeline", false, "compute start and finish times and the critical path")
	cmd.MarkFlagsMutuallyExclusive("waves", "timeline")
	return cmd
}
