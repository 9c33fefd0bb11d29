package cmd

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/projectflow/internal/config"
	"github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/log"
	"github.com/felixgeelhaar/projectflow/internal/schedule"
	"github.com/felixgeelhaar/projectflow/internal/taskfile"
)

// inputFlags are shared by the commands that read a task file.
type inputFlags struct {
	path     string
	dangling string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.path, "in", "i", "", "task file, JSON or YAML by extension (- for stdin)")
	cmd.Flags().StringVar(&f.dangling, "dangling", "", "dependencies on unknown tasks: reject or ignore (overrides schedule.dangling_policy)")
	_ = cmd.MarkFlagRequired("in")
}

func (f *inputFlags) load(cmd *cobra.Command) ([]schedule.Task, error) {
	return taskfile.Load(f.path, cmd.InOrStdin())
}

func (f *inputFlags) source() string {
	if f.path == taskfile.Stdin {
		return "stdin"
	}
	return f.path
}

// options resolves the dangling policy from --dangling, falling back to
// schedule.dangling_policy.
func (f *inputFlags) options(cfg *config.Config) ([]schedule.Option, error) {
	sc := cfg.Schedule
	if f.dangling != "" {
		sc.DanglingPolicy = f.dangling
	}
	policy, err := sc.Policy()
	if err != nil {
		return nil, fmt.Errorf("invalid --dangling: %w", err)
	}
	return []schedule.Option{schedule.WithDanglingPolicy(policy)}, nil
}

// scheduleError turns a scheduler error into a coded error and logs cycles.
func scheduleError(ctx context.Context, err error) error {
	var cycleErr *schedule.CycleError
	switch {
	case stderrors.As(err, &cycleErr):
		log.FromContext(ctx).WarnContext(ctx, "dependency cycle detected",
			"cycle", cycleErr.Cycle, "blocked", cycleErr.Blocked)
		return errors.NewCycleDetectedError(err)
	case stderrors.Is(err, schedule.ErrUnresolvedDependency):
		return errors.NewUnresolvedDependencyError(err)
	case stderrors.Is(err, schedule.ErrDuplicateTask):
		return errors.Wrap(errors.ErrCodeDuplicateTask, "task file lists the same id twice", err).
			WithSuggestion("Give every task a unique id")
	default:
		return err
	}
}
