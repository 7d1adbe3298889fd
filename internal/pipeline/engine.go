package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// StageFunc executes one stage against the shared state. A stage handles its
// own faults: it records them into State.Error and emits StepError rather than
// returning an error, so the engine stays a pure router.
type StageFunc func(ctx context.Context, s *State)

// ErrUnroutedStep reports a configuration fault: a stage emitted a next step
// that has no entry in its routing table. This is a programming error in the
// graph definition and is surfaced loudly instead of silently ending the run.
var ErrUnroutedStep = errors.New("pipeline: unrouted next step")

// Routes maps the steps a stage may emit to the stage that should run next.
// StepEnd as a target terminates the run.
type Routes map[Step]Step

// Graph is a compiled, immutable stage graph. It is safe for concurrent use;
// all per-run data lives in the State passed to Run.
type Graph struct {
	entry  Step
	stages map[Step]StageFunc
	routes map[Step]Routes
}

// Compile validates the stage registry and routing table and returns a
// runnable graph. Every stage must have a routing entry, and every routing
// target must name a registered stage or StepEnd.
func Compile(entry Step, stages map[Step]StageFunc, routes map[Step]Routes) (*Graph, error) {
	if _, ok := stages[entry]; !ok {
		return nil, fmt.Errorf("pipeline: entry stage %q is not registered", entry)
	}

	for name, fn := range stages {
		if fn == nil {
			return nil, fmt.Errorf("pipeline: stage %q has a nil function", name)
		}
		if _, ok := routes[name]; !ok {
			return nil, fmt.Errorf("pipeline: stage %q has no routing entry", name)
		}
	}

	for name, table := range routes {
		if _, ok := stages[name]; !ok {
			return nil, fmt.Errorf("pipeline: routing entry for unregistered stage %q", name)
		}
		for emitted, target := range table {
			if target == StepEnd {
				continue
			}
			if _, ok := stages[target]; !ok {
				return nil, fmt.Errorf("pipeline: stage %q routes %q to unregistered stage %q", name, emitted, target)
			}
		}
	}

	return &Graph{entry: entry, stages: stages, routes: routes}, nil
}

// Run executes stages sequentially starting at the entry stage until a route
// resolves to StepEnd. The only error Run itself can produce is a
// configuration fault; everything else terminates through the graph's error
// sink with the failure recorded in the state.
func (g *Graph) Run(ctx context.Context, s *State) error {
	current := g.entry
	for {
		g.stages[current](ctx, s)

		target, ok := g.routes[current][s.NextStep]
		if !ok {
			return fmt.Errorf("%w: stage %q emitted %q", ErrUnroutedStep, current, s.NextStep)
		}
		if target == StepEnd {
			return nil
		}
		current = target
	}
}
