package breed

import (
	"context"
	"testing"

	"github.com/zclconf/go-cty/cty"

	"github.com/zooba/esec/internal/config"
	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/op"
	"github.com/zooba/esec/internal/rng"
)

func newRT() *op.Runtime {
	return &op.Runtime{RNG: rng.New(1, 1), Config: config.EmptySnapshot()}
}

// apply resolves a registered operator and runs it.
func apply(t *testing.T, rt *op.Runtime, name string, in []*model.Individual, n int, args map[string]any) []*model.Individual {
	t.Helper()
	out, err := tryApply(rt, name, in, n, args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out
}

func tryApply(rt *op.Runtime, name string, in []*model.Individual, n int, args map[string]any) ([]*model.Individual, error) {
	reg := op.NewRegistry()
	if err := RegisterAll(reg); err != nil {
		return nil, err
	}
	desc, err := reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	bound := make(op.Args)
	for _, spec := range desc.Params {
		if spec.Default != cty.NilVal {
			bound[spec.Name] = spec.Default
		}
	}
	for key, raw := range args {
		v, err := config.FromGo(raw)
		if err != nil {
			return nil, err
		}
		bound[key] = v
	}
	return desc.Apply(context.Background(), rt, in, n, bound)
}

// scored builds an evaluated binary population with the given fitness
// values; genome bit i of member j is set so genomes are all distinct.
func scored(fitness ...float64) []*model.Individual {
	out := make([]*model.Individual, len(fitness))
	for i, f := range fitness {
		bits := make([]bool, len(fitness))
		bits[i] = true
		out[i] = &model.Individual{
			Genome:  model.Genome{Kind: model.KindBinary, Bits: bits},
			Fitness: f,
			Valid:   true,
			Birth:   i + 1,
		}
	}
	return out
}

func TestRegisterAllIsComplete(t *testing.T) {
	reg := op.NewRegistry()
	if err := RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	want := []string{
		"random_binary", "random_real", "random_int", "random_ge",
		"select_all", "repeated", "best", "worst",
		"tournament", "binary_tournament", "uniform_random", "fitness_proportional",
		"mutate_random", "mutate_bitflip", "mutate_inversion", "mutate_delta", "mutate_gaussian",
		"crossover_one_point", "crossover_uniform", "crossover_average",
		"unique",
	}
	for _, name := range want {
		if _, err := reg.Resolve(name); err != nil {
			t.Errorf("missing operator %s", name)
		}
	}
	if got := len(reg.Names()); got != len(want) {
		t.Errorf("registered %d operators, want %d", got, len(want))
	}
}
