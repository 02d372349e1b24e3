package interp_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zooba/esec/internal/bind"
	"github.com/zooba/esec/internal/breed"
	"github.com/zooba/esec/internal/config"
	"github.com/zooba/esec/internal/esdl"
	"github.com/zooba/esec/internal/interp"
	"github.com/zooba/esec/internal/landscape"
	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/op"
	"github.com/zooba/esec/internal/rng"
)

// constEvaluator assigns a fixed fitness to everything.
type constEvaluator struct {
	name  string
	value float64
}

func (e *constEvaluator) Name() string { return e.name }

func (e *constEvaluator) Evaluate(context.Context, *op.Runtime, *model.Individual) (float64, error) {
	return e.value, nil
}

// captureMonitor records every checkpoint it sees.
type captureMonitor struct {
	checkpoints []interp.Checkpoint
	yieldErr    error
}

func (*captureMonitor) OnRunStart(context.Context) {}

func (m *captureMonitor) OnYield(_ context.Context, cp interp.Checkpoint) error {
	if m.yieldErr != nil {
		return m.yieldErr
	}
	m.checkpoints = append(m.checkpoints, cp)
	return nil
}

func (*captureMonitor) OnRunEnd(context.Context, error) {}

func newRuntime(ev op.Evaluator) *op.Runtime {
	return &op.Runtime{
		RNG:       rng.New(1, 1),
		Config:    config.EmptySnapshot(),
		Evaluator: ev,
	}
}

func bindDefinition(t *testing.T, src string) *bind.Program {
	t.Helper()
	prog, err := esdl.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ops := op.NewRegistry()
	if err := breed.RegisterAll(ops); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	evaluators := landscape.NewRegistry()
	if err := landscape.RegisterAll(evaluators); err != nil {
		t.Fatalf("landscape.RegisterAll: %v", err)
	}
	binder := &bind.Binder{Ops: ops, Evaluators: evaluators, Config: config.EmptySnapshot()}
	bound, err := binder.Bind(prog)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return bound
}

func TestInitFillsPopulationExactly(t *testing.T) {
	prog := bindDefinition(t, "FROM random_int(length=4) SELECT 5 population\n")
	it := interp.New(prog, newRuntime(nil), nil, 0)

	if err := it.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := len(it.Group("population")); got != 5 {
		t.Fatalf("population size = %d, want 5", got)
	}
	// No generation block: the run is single-shot.
	if it.State() != interp.StateTerminated {
		t.Fatalf("state = %s, want terminated", it.State())
	}
	if it.Generation() != 0 {
		t.Fatalf("generation = %d, want 0", it.Generation())
	}
}

func TestFromMergesGroupsAndGenerators(t *testing.T) {
	prog := bindDefinition(t, `
FROM random_binary(length=3) SELECT 4 seeds
FROM seeds, random_binary(length=3) SELECT 10 population
`)
	it := interp.New(prog, newRuntime(nil), nil, 0)
	if err := it.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// 4 carried over, 6 generated to fill the count.
	if got := len(it.Group("population")); got != 10 {
		t.Fatalf("population size = %d, want 10", got)
	}
}

func TestFromTruncatesNonExactSurplus(t *testing.T) {
	prog := bindDefinition(t, `
FROM random_binary(length=3) SELECT 8 population
FROM population SELECT 3 chosen USING select_all
FROM population SELECT 2 sliced
`)
	it := interp.New(prog, newRuntime(nil), nil, 0)
	if err := it.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := len(it.Group("chosen")); got != 3 {
		t.Fatalf("chosen size = %d, want 3", got)
	}
	if got := len(it.Group("sliced")); got != 2 {
		t.Fatalf("sliced size = %d, want 2", got)
	}
}

func TestFromShortfallFails(t *testing.T) {
	// Single-bit genomes allow at most two distinct individuals, so the
	// unique filter cannot meet a count of 5.
	prog := bindDefinition(t, `
FROM random_binary(length=1) SELECT 8 population
FROM population SELECT 5 distinct USING unique
`)
	it := interp.New(prog, newRuntime(nil), nil, 0)
	err := it.Init(context.Background())
	var perr *interp.PopulationSizeError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *PopulationSizeError", err)
	}
	if perr.Dest != "distinct" || perr.Want != 5 {
		t.Fatalf("error = %+v", perr)
	}
	if it.State() != interp.StateTerminated {
		t.Fatalf("state = %s, want terminated after failure", it.State())
	}
}

func TestExactSurplusFails(t *testing.T) {
	over := op.Descriptor{
		Name:  "overflow",
		Kind:  op.KindSelector,
		Exact: true,
		Apply: func(_ context.Context, _ *op.Runtime, in []*model.Individual, n int, _ op.Args) ([]*model.Individual, error) {
			out := make([]*model.Individual, n+1)
			for i := range out {
				out[i] = &model.Individual{Genome: model.Genome{Kind: model.KindBinary, Bits: []bool{true}}}
			}
			return out, nil
		},
	}
	gen := op.Descriptor{
		Name:  "stub_gen",
		Kind:  op.KindGenerator,
		Exact: true,
		Apply: func(_ context.Context, _ *op.Runtime, _ []*model.Individual, n int, _ op.Args) ([]*model.Individual, error) {
			out := make([]*model.Individual, n)
			for i := range out {
				out[i] = &model.Individual{Genome: model.Genome{Kind: model.KindBinary, Bits: []bool{false}}}
			}
			return out, nil
		},
	}
	prog := &bind.Program{Init: []bind.Statement{
		&bind.From{Sources: []bind.Source{{Gen: &bind.BoundOp{Desc: gen}}}, Count: 3, Dest: "a"},
		&bind.From{Sources: []bind.Source{{Group: "a"}}, Count: 3, Dest: "b", Using: []bind.BoundOp{{Desc: over}}},
	}}
	it := interp.New(prog, newRuntime(nil), nil, 0)
	err := it.Init(context.Background())
	var perr *interp.PopulationSizeError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *PopulationSizeError", err)
	}
	if perr.Got != 4 {
		t.Fatalf("got = %d, want 4", perr.Got)
	}
}

func TestGenerationCounterAndYields(t *testing.T) {
	prog := bindDefinition(t, `
FROM random_binary(length=4) SELECT 6 population
YIELD population
BEGIN generation
  FROM population SELECT 6 population USING binary_tournament
  YIELD population
END generation
`)
	mon := &captureMonitor{}
	rt := newRuntime(&constEvaluator{name: "flat", value: 1})
	it := interp.New(prog, rt, mon, 3)

	if err := it.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if it.Generation() != 3 {
		t.Fatalf("generation = %d, want 3", it.Generation())
	}
	if it.State() != interp.StateTerminated {
		t.Fatalf("state = %s, want terminated", it.State())
	}

	wantGens := []int{0, 1, 2, 3}
	if len(mon.checkpoints) != len(wantGens) {
		t.Fatalf("got %d checkpoints, want %d", len(mon.checkpoints), len(wantGens))
	}
	for i, cp := range mon.checkpoints {
		if cp.Generation != wantGens[i] {
			t.Errorf("checkpoint %d generation = %d, want %d", i, cp.Generation, wantGens[i])
		}
		if cp.Group != "population" || len(cp.Members) != 6 {
			t.Errorf("checkpoint %d = %s/%d members", i, cp.Group, len(cp.Members))
		}
		for _, ind := range cp.Members {
			if !ind.Valid {
				t.Errorf("checkpoint %d published an unevaluated individual", i)
			}
		}
	}
}

func TestStepAfterTermination(t *testing.T) {
	prog := bindDefinition(t, "FROM random_binary(length=2) SELECT 2 population\n")
	it := interp.New(prog, newRuntime(nil), nil, 0)
	if err := it.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := it.Step(context.Background()); !errors.Is(err, interp.ErrTerminated) {
		t.Fatalf("err = %v, want ErrTerminated", err)
	}
}

func TestStepObservesCancellation(t *testing.T) {
	prog := bindDefinition(t, `
FROM random_binary(length=2) SELECT 2 population
BEGIN generation
  YIELD population
END generation
`)
	rt := newRuntime(&constEvaluator{name: "flat", value: 0})
	it := interp.New(prog, rt, nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	if err := it.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	cancel()
	if err := it.Step(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if it.State() != interp.StateTerminated {
		t.Fatalf("state = %s, want terminated", it.State())
	}
}

func TestEvalOverridesCachedFitness(t *testing.T) {
	def := &constEvaluator{name: "low", value: 1}
	alt := &constEvaluator{name: "high", value: 9}
	prog := bindDefinition(t, "FROM random_binary(length=2) SELECT 3 population\nYIELD population\n")
	prog.Init = append(prog.Init, &bind.Eval{Groups: []string{"population"}, Evaluator: alt})

	rt := newRuntime(def)
	it := interp.New(prog, rt, nil, 0)
	if err := it.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, ind := range it.Group("population") {
		if !ind.Valid || ind.Fitness != 9 {
			t.Fatalf("fitness = %g (valid=%t), want 9 from explicit evaluator", ind.Fitness, ind.Valid)
		}
	}
	// YIELD evaluated 3, EVAL re-evaluated 3.
	if rt.Evaluations() != 6 {
		t.Fatalf("evaluations = %d, want 6", rt.Evaluations())
	}
}

func TestMonitorErrorTerminatesRun(t *testing.T) {
	prog := bindDefinition(t, "FROM random_binary(length=2) SELECT 2 population\nYIELD population\n")
	mon := &captureMonitor{yieldErr: errors.New("disk full")}
	rt := newRuntime(&constEvaluator{name: "flat", value: 0})
	it := interp.New(prog, rt, mon, 0)

	err := it.Run(context.Background())
	var oerr *interp.OperatorExecutionError
	if !errors.As(err, &oerr) {
		t.Fatalf("err = %v, want *OperatorExecutionError", err)
	}
	if oerr.Name != "monitor" {
		t.Fatalf("failed component = %q, want monitor", oerr.Name)
	}
}

func TestYieldWithoutEvaluatorFails(t *testing.T) {
	prog := bindDefinition(t, "FROM random_binary(length=2) SELECT 2 population\nYIELD population\n")
	it := interp.New(prog, newRuntime(nil), nil, 0)
	err := it.Init(context.Background())
	if !errors.Is(err, op.ErrNoEvaluator) {
		t.Fatalf("err = %v, want ErrNoEvaluator", err)
	}
}
