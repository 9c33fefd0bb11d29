package schedule

// graph is the per-call working structure. Tasks are addressed by their
// position in the input slice.
type graph struct {
	tasks []Task
	index map[int64]int
	pred  []int   // position of the predecessor, or -1
	adj   [][]int // position -> dependents, in input order
}

// build indexes tasks and wires dependency edges.
func build(tasks []Task, o options) (*graph, error) {
	g := &graph{
		tasks: tasks,
		index: make(map[int64]int, len(tasks)),
		pred:  make([]int, len(tasks)),
		adj:   make([][]int, len(tasks)),
	}

	for i, t := range tasks {
		if _, exists := g.index[t.ID]; exists {
			return nil, &DuplicateTaskError{TaskID: t.ID}
		}
		g.index[t.ID] = i
	}

	for i, t := range tasks {
		g.pred[i] = -1
		dep, ok := t.DependsOn()
		if !ok {
			continue
		}
		p, found := g.index[dep]
		if !found {
			if o.dangling == IgnoreDangling {
				continue
			}
			return nil, &UnresolvedDependencyError{TaskID: t.ID, DependencyID: dep}
		}
		g.pred[i] = p
		g.adj[p] = append(g.adj[p], i)
	}

	return g, nil
}

// order runs Kahn's algorithm and returns task positions in execution order.
// The ready queue is FIFO: initially ready tasks keep input order, newly
// ready tasks are appended in discovery order.
func (g *graph) order() ([]int, error) {
	n := len(g.tasks)
	inDegree := make([]int, n)
	for i, p := range g.pred {
		if p >= 0 {
			inDegree[i]++
		}
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	out := make([]int, 0, n)
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		out = append(out, cur)
		for _, next := range g.adj[cur] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(out) != n {
		return nil, g.cycleError(out)
	}
	return out, nil
}

// cycleError describes the tasks left over after Kahn's algorithm stalls.
// Every leftover task has a leftover predecessor, so following predecessor
// pointers from any of them must revisit a task.
func (g *graph) cycleError(scheduled []int) *CycleError {
	done := make([]bool, len(g.tasks))
	for _, i := range scheduled {
		done[i] = true
	}

	err := &CycleError{}
	start := -1
	for i, t := range g.tasks {
		if done[i] {
			continue
		}
		err.Blocked = append(err.Blocked, t.ID)
		if start < 0 {
			start = i
		}
	}
	if start < 0 {
		return err
	}

	step := make(map[int]int)
	var path []int
	for cur := start; cur >= 0; cur = g.pred[cur] {
		if at, seen := step[cur]; seen {
			for _, i := range path[at:] {
				err.Cycle = append(err.Cycle, g.tasks[i].ID)
			}
			break
		}
		step[cur] = len(path)
		path = append(path, cur)
	}
	return err
}

// Schedule returns the tasks in an order where every task appears after the
// task it depends on. Ties are broken FIFO, so identical input always
// yields identical output.
//
// It returns a *CycleError when the dependencies contain a cycle, a
// *DuplicateTaskError when two tasks share an ID, and, under the default
// RejectDangling policy, an *UnresolvedDependencyError when a dependency
// names a task outside the snapshot. No partial order is ever returned.
func Schedule(tasks []Task, opts ...Option) ([]Task, error) {
	g, err := build(tasks, resolveOptions(opts))
	if err != nil {
		return nil, err
	}

	positions, err := g.order()
	if err != nil {
		return nil, err
	}

	sorted := make([]Task, 0, len(positions))
	for _, i := range positions {
		sorted = append(sorted, g.tasks[i])
	}
	return sorted, nil
}

// Waves groups the schedule into dependency levels. Wave 0 holds tasks with
// no predecessor; wave k holds tasks whose predecessor sits in wave k-1.
// Within a wave tasks keep their schedule order.
func Waves(tasks []Task, opts ...Option) ([]Wave, error) {
	g, err := build(tasks, resolveOptions(opts))
	if err != nil {
		return nil, err
	}

	positions, err := g.order()
	if err != nil {
		return nil, err
	}

	levels := g.levels(positions)
	waves := []Wave{}
	for _, i := range positions {
		lvl := levels[i]
		for len(waves) <= lvl {
			waves = append(waves, Wave{Index: len(waves)})
		}
		waves[lvl].Tasks = append(waves[lvl].Tasks, g.tasks[i])
	}
	return waves, nil
}

// levels returns the dependency depth of every position. positions must be
// a valid topological order.
func (g *graph) levels(positions []int) []int {
	levels := make([]int, len(g.tasks))
	for _, i := range positions {
		if p := g.pred[i]; p >= 0 {
			levels[i] = levels[p] + 1
		}
	}
	return levels
}
