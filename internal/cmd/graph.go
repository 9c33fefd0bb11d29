package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/projectflow/internal/schedule"
	"github.com/felixgeelhaar/projectflow/internal/telemetry"
)

func newGraphCmd() *cobra.Command {
	var (
		in     inputFlags
		format string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the dependency graph of a task file",
		Long: `Render the dependency graph as Graphviz DOT or a Mermaid flowchart.
Graphs with cycles still render, so a loop reported by "schedule" can be
inspected.`,
		Example: `  projectflow graph --in tasks.yaml | dot -Tsvg > tasks.svg
  projectflow graph --in tasks.yaml --format mermaid`,
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
			tasks, err := in.load(cmd)
			if err != nil {
				return err
			}

			ctx, span := telemetry.StartCommandSpan(cmd.Context(), "graph")
			defer span.End()

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(in.source()), filepath.Ext(in.source()))
			}

			switch format {
			case "dot":
				err = schedule.ExportDOT(cc.Out, name, tasks, opts...)
			case "mermaid":
				err = schedule.ExportMermaid(cc.Out, tasks, opts...)
			default:
				return fmt.Errorf("unknown graph format %q (supported: dot, mermaid)", format)
			}
			if err != nil {
				telemetry.RecordError(span, err)
				return scheduleError(ctx, err)
			}
			telemetry.RecordSuccess(span)
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "graph format: dot or mermaid")
	cmd.Flags().StringVar(&name, "name", "", "DOT graph name (default: task file name)")
	return cmd
}
