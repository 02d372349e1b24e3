package op

import (
	"context"
	"errors"
	"testing"

	"github.com/zclconf/go-cty/cty"

	"github.com/zooba/esec/internal/grammar"
	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/rng"
)

// countingEvaluator scores by genome length and counts invocations.
type countingEvaluator struct {
	calls int
}

func (*countingEvaluator) Name() string { return "counting" }

func (e *countingEvaluator) Evaluate(_ context.Context, _ *Runtime, ind *model.Individual) (float64, error) {
	e.calls++
	return float64(ind.Genome.Len()), nil
}

type terminalEvaluator struct{ countingEvaluator }

func (*terminalEvaluator) Terminals() []string { return []string{"x", "y"} }

func TestFitnessCaches(t *testing.T) {
	ev := &countingEvaluator{}
	rt := &Runtime{RNG: rng.New(1, 1), Evaluator: ev}
	ind := &model.Individual{Genome: model.Genome{Kind: model.KindBinary, Bits: make([]bool, 4)}}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		fitness, err := rt.Fitness(ctx, ind)
		if err != nil {
			t.Fatalf("Fitness: %v", err)
		}
		if fitness != 4 {
			t.Fatalf("fitness = %g, want 4", fitness)
		}
	}
	if ev.calls != 1 {
		t.Fatalf("evaluator ran %d times, want 1", ev.calls)
	}
	if rt.Evaluations() != 1 {
		t.Fatalf("Evaluations = %d, want 1", rt.Evaluations())
	}
	if !ind.Valid {
		t.Fatal("individual should be marked evaluated")
	}
}

func TestFitnessAfterInvalidate(t *testing.T) {
	ev := &countingEvaluator{}
	rt := &Runtime{RNG: rng.New(1, 1), Evaluator: ev}
	ind := &model.Individual{Genome: model.Genome{Kind: model.KindBinary, Bits: make([]bool, 2)}}

	ctx := context.Background()
	if _, err := rt.Fitness(ctx, ind); err != nil {
		t.Fatalf("Fitness: %v", err)
	}
	ind.Invalidate()
	if _, err := rt.Fitness(ctx, ind); err != nil {
		t.Fatalf("Fitness: %v", err)
	}
	if ev.calls != 2 {
		t.Fatalf("evaluator ran %d times, want 2", ev.calls)
	}
}

func TestEvaluateWithReplacesCache(t *testing.T) {
	def := &countingEvaluator{}
	alt := &countingEvaluator{}
	rt := &Runtime{RNG: rng.New(1, 1), Evaluator: def}
	ind := &model.Individual{Genome: model.Genome{Kind: model.KindBinary, Bits: make([]bool, 3)}}

	ctx := context.Background()
	if _, err := rt.Fitness(ctx, ind); err != nil {
		t.Fatalf("Fitness: %v", err)
	}
	if _, err := rt.EvaluateWith(ctx, alt, ind); err != nil {
		t.Fatalf("EvaluateWith: %v", err)
	}
	if def.calls != 1 || alt.calls != 1 {
		t.Fatalf("calls = %d/%d, want 1/1", def.calls, alt.calls)
	}
	if rt.Evaluations() != 2 {
		t.Fatalf("Evaluations = %d, want 2", rt.Evaluations())
	}
}

func TestFitnessWithoutEvaluator(t *testing.T) {
	rt := &Runtime{RNG: rng.New(1, 1)}
	ind := &model.Individual{Genome: model.Genome{Kind: model.KindBinary}}
	if _, err := rt.Fitness(context.Background(), ind); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("err = %v, want ErrNoEvaluator", err)
	}
}

func TestNextBirthIsMonotonic(t *testing.T) {
	rt := &Runtime{}
	if rt.NextBirth() != 1 || rt.NextBirth() != 2 || rt.NextBirth() != 3 {
		t.Fatal("birth counter must count up from 1")
	}
}

func TestTerminalsFromProvider(t *testing.T) {
	rt := &Runtime{Evaluator: &countingEvaluator{}}
	if rt.Terminals() != nil {
		t.Fatal("plain evaluator supplies no terminals")
	}
	rt.Evaluator = &terminalEvaluator{}
	terms := rt.Terminals()
	if len(terms) != 2 || terms[0] != "x" {
		t.Fatalf("terminals = %v", terms)
	}
}

func TestExpandGE(t *testing.T) {
	table, err := grammar.NewTable(map[string][]string{
		"*": {`"A" X`},
		"X": {`"1"`, `"2"`, `"3"`},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	rt := &Runtime{Grammar: table}

	result, err := rt.ExpandGE(model.Genome{Kind: model.KindGE, Ints: []int64{4}})
	if err != nil {
		t.Fatalf("ExpandGE: %v", err)
	}
	if result.Text != "A2" {
		t.Fatalf("Text = %q, want A2", result.Text)
	}

	if _, err := rt.ExpandGE(model.Genome{Kind: model.KindBinary}); err == nil {
		t.Fatal("expected error for non-GE genome")
	}

	bare := &Runtime{}
	if _, err := bare.ExpandGE(model.Genome{Kind: model.KindGE}); err == nil {
		t.Fatal("expected error without a grammar table")
	}
}

func TestArgsAccessors(t *testing.T) {
	args := Args{
		"count": cty.NumberIntVal(7),
		"rate":  cty.NumberFloatVal(0.25),
		"flag":  cty.True,
		"name":  cty.StringVal("roulette"),
		"empty": cty.NullVal(cty.Number),
	}
	if args.Int("count") != 7 || args.Int64("count") != 7 {
		t.Fatalf("Int(count) = %d", args.Int("count"))
	}
	if args.Float("rate") != 0.25 {
		t.Fatalf("Float(rate) = %g", args.Float("rate"))
	}
	if !args.Bool("flag") || args.String("name") != "roulette" {
		t.Fatal("Bool/String accessor failed")
	}
	if args.Has("empty") || args.Has("absent") {
		t.Fatal("Has should reject null and absent arguments")
	}
	if args.Int("absent") != 0 || args.Float("absent") != 0 {
		t.Fatal("absent numbers default to zero")
	}
}
