package pipeline

import (
	"context"
	"errors"
	"testing"
)

func noopStage(next Step) StageFunc {
	return func(_ context.Context, s *State) {
		s.NextStep = next
	}
}

func TestCompileRejectsUnknownEntry(t *testing.T) {
	t.Parallel()

	_, err := Compile("missing", map[Step]StageFunc{"a": noopStage(StepEnd)}, map[Step]Routes{
		"a": {StepEnd: StepEnd},
	})
	if err == nil {
		t.Fatal("expected error for unregistered entry stage")
	}
}

func TestCompileRejectsStageWithoutRoutes(t *testing.T) {
	t.Parallel()

	stages := map[Step]StageFunc{
		"a": noopStage("b"),
		"b": noopStage(StepEnd),
	}
	_, err := Compile("a", stages, map[Step]Routes{
		"a": {"b": "b"},
	})
	if err == nil {
		t.Fatal("expected error for stage without routing entry")
	}
}

func TestCompileRejectsUnknownRouteTarget(t *testing.T) {
	t.Parallel()

	stages := map[Step]StageFunc{"a": noopStage(StepEnd)}
	_, err := Compile("a", stages, map[Step]Routes{
		"a": {StepEnd: StepEnd, "x": "ghost"},
	})
	if err == nil {
		t.Fatal("expected error for route to unregistered stage")
	}
}

func TestRunFollowsRoutesToEnd(t *testing.T) {
	t.Parallel()

	var order []Step
	record := func(name Step, next Step) StageFunc {
		return func(_ context.Context, s *State) {
			order = append(order, name)
			s.NextStep = next
		}
	}

	g, err := Compile("first", map[Step]StageFunc{
		"first":  record("first", "second"),
		"second": record("second", StepEnd),
	}, map[Step]Routes{
		"first":  {"second": "second"},
		"second": {StepEnd: StepEnd},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if err := g.Run(context.Background(), &State{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected stage order: %v", order)
	}
}

func TestRunFailsLoudlyOnUnroutedStep(t *testing.T) {
	t.Parallel()

	g, err := Compile("a", map[Step]StageFunc{
		"a": noopStage("surprise"),
	}, map[Step]Routes{
		"a": {StepEnd: StepEnd},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	err = g.Run(context.Background(), &State{})
	if !errors.Is(err, ErrUnroutedStep) {
		t.Fatalf("expected ErrUnroutedStep, got %v", err)
	}
}
