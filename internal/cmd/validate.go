package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/projectflow/internal/schedule"
	"github.com/felixgeelhaar/projectflow/internal/telemetry"
	"github.com/felixgeelhaar/projectflow/internal/ux"
)

func newValidateCmd() *cobra.Command {
	var (
		in     inputFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a task file for duplicate ids, unknown dependencies and cycles",
		Long: `Check that a task file can be scheduled. The exit code tells what is
wrong: 4 for invalid input (unreadable file, duplicate ids, unknown
dependencies) and 7 for a dependency cycle.`,
		Example: `  projectflow validate --in tasks.yaml`,
		Args:    cobra.NoArgs,
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

			ctx, span := telemetry.StartCommandSpan(cmd.Context(), "validate")
			defer span.End()

			waves, err := schedule.Waves(tasks, opts...)
			if err != nil {
				telemetry.RecordError(span, err)
				return scheduleError(ctx, err)
			}
			telemetry.RecordSuccess(span)

			return formatter.Format(ux.ValidationView{
				Source: in.source(),
				Tasks:  len(tasks),
				Waves:  len(waves),
				Valid:  true,
			})
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}
