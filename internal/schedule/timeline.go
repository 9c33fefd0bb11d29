package schedule

import "math"

// slackEpsilon absorbs float rounding when deciding whether a task is critical.
const slackEpsilon = 1e-9

// remainingHours is the work left on a task. Completed tasks and invalid
// estimates count as zero.
func remainingHours(t Task) float64 {
	if t.IsCompleted {
		return 0
	}
	h := t.EstimatedTimeHours
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return 0
	}
	return h
}

// Analyze runs a critical path analysis over EstimatedTimeHours.
//
// A forward pass over the schedule computes earliest start and finish; a
// backward pass computes latest start and finish against the overall
// duration. Tasks with zero slack are critical. CriticalPath is the chain of
// predecessors ending at the task that finishes last; among tasks finishing
// at the same time the first in schedule order wins, so a snapshot with no
// remaining work yields a path of just the first task.
func Analyze(tasks []Task, opts ...Option) (*Timeline, error) {
	g, err := build(tasks, resolveOptions(opts))
	if err != nil {
		return nil, err
	}

	positions, err := g.order()
	if err != nil {
		return nil, err
	}

	n := len(g.tasks)
	dur := make([]float64, n)
	es := make([]float64, n)
	ef := make([]float64, n)
	ls := make([]float64, n)
	lf := make([]float64, n)
	levels := g.levels(positions)

	// Forward pass
	total := 0.0
	last := -1
	for _, i := range positions {
		dur[i] = remainingHours(g.tasks[i])
		if p := g.pred[i]; p >= 0 {
			es[i] = ef[p]
		}
		ef[i] = es[i] + dur[i]
		if last < 0 || ef[i] > total+slackEpsilon {
			total = ef[i]
			last = i
		}
	}

	// Backward pass
	for k := len(positions) - 1; k >= 0; k-- {
		i := positions[k]
		lf[i] = total
		for _, next := range g.adj[i] {
			if ls[next] < lf[i] {
				lf[i] = ls[next]
			}
		}
		ls[i] = lf[i] - dur[i]
	}

	tl := &Timeline{
		Order:        make([]int64, 0, n),
		Tasks:        make([]TaskTiming, 0, n),
		TotalHours:   total,
		CriticalPath: []int64{},
	}
	for _, i := range positions {
		slack := ls[i] - es[i]
		if math.Abs(slack) < slackEpsilon {
			slack = 0
		}
		tl.Order = append(tl.Order, g.tasks[i].ID)
		tl.Tasks = append(tl.Tasks, TaskTiming{
			TaskID:         g.tasks[i].ID,
			Title:          g.tasks[i].Title,
			Duration:       dur[i],
			EarliestStart:  es[i],
			EarliestFinish: ef[i],
			LatestStart:    ls[i],
			LatestFinish:   lf[i],
			Slack:          slack,
			Critical:       slack == 0,
			Wave:           levels[i],
		})
	}

	var chain []int64
	for cur := last; cur >= 0; cur = g.pred[cur] {
		chain = append(chain, g.tasks[cur].ID)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		tl.CriticalPath = append(tl.CriticalPath, chain[i])
	}

	return tl, nil
}
