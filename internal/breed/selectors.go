package breed

import (
	"context"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/op"
)

func selectorDescriptors() []op.Descriptor {
	return []op.Descriptor{
		{
			Name:  "select_all",
			Kind:  op.KindSelector,
			Apply: selectAll,
		},
		{
			Name:  "repeated",
			Kind:  op.KindSelector,
			Exact: true,
			Apply: repeated,
		},
		{
			Name:  "best",
			Kind:  op.KindSelector,
			Exact: true,
			Params: []op.ParamSpec{
				{Name: "only", Type: cty.Bool, Default: cty.False},
			},
			Apply: best,
		},
		{
			Name:  "worst",
			Kind:  op.KindSelector,
			Exact: true,
			Params: []op.ParamSpec{
				{Name: "only", Type: cty.Bool, Default: cty.False},
			},
			Apply: worst,
		},
		{
			Name:  "tournament",
			Kind:  op.KindSelector,
			Exact: true,
			Params: []op.ParamSpec{
				{Name: "k", Type: cty.Number, Default: cty.NumberIntVal(2)},
				{Name: "replacement", Type: cty.Bool, Default: cty.True},
				{Name: "greediness", Type: cty.Number, Default: cty.NumberFloatVal(1)},
			},
			Apply: tournament,
		},
		{
			Name:  "binary_tournament",
			Kind:  op.KindSelector,
			Exact: true,
			Apply: binaryTournament,
		},
		{
			Name:  "uniform_random",
			Kind:  op.KindSelector,
			Exact: true,
			Params: []op.ParamSpec{
				{Name: "replacement", Type: cty.Bool, Default: cty.True},
			},
			Apply: uniformRandom,
		},
		{
			Name:  "fitness_proportional",
			Kind:  op.KindSelector,
			Exact: true,
			Params: []op.ParamSpec{
				{Name: "replacement", Type: cty.Bool, Default: cty.True},
			},
			Apply: fitnessProportional,
		},
	}
}

// selectAll passes every input through, in order. It advertises no exact
// count: the enclosing SELECT truncates any surplus.
func selectAll(_ context.Context, _ *op.Runtime, in []*model.Individual, _ int, _ op.Args) ([]*model.Individual, error) {
	out := make([]*model.Individual, 0, len(in))
	for _, ind := range in {
		out = append(out, ind.Clone())
	}
	return out, nil
}

// repeated cycles the input until the requested count is met.
func repeated(_ context.Context, _ *op.Runtime, in []*model.Individual, n int, _ op.Args) ([]*model.Individual, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]*model.Individual, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, in[i%len(in)].Clone())
	}
	return out, nil
}

// sortedByFitness returns the input ordered by fitness, forcing evaluation
// first. The sort is stable so equal fitness preserves stream order.
func sortedByFitness(ctx context.Context, rt *op.Runtime, in []*model.Individual, descending bool) ([]*model.Individual, error) {
	for _, ind := range in {
		if _, err := rt.Fitness(ctx, ind); err != nil {
			return nil, err
		}
	}
	out := append([]*model.Individual(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].Fitness > out[j].Fitness
		}
		return out[i].Fitness < out[j].Fitness
	})
	return out, nil
}

func selectRanked(ctx context.Context, rt *op.Runtime, in []*model.Individual, n int, only, descending bool) ([]*model.Individual, error) {
	ranked, err := sortedByFitness(ctx, rt, in, descending)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Individual, 0, n)
	for i := 0; i < n && len(ranked) > 0; i++ {
		if only {
			out = append(out, ranked[0].Clone())
			continue
		}
		out = append(out, ranked[i%len(ranked)].Clone())
	}
	return out, nil
}

// best selects in descending fitness order, cycling if the input runs out.
// With only=true the single best individual is repeated.
func best(ctx context.Context, rt *op.Runtime, in []*model.Individual, n int, args op.Args) ([]*model.Individual, error) {
	return selectRanked(ctx, rt, in, n, args.Bool("only"), true)
}

func worst(ctx context.Context, rt *op.Runtime, in []*model.Individual, n int, args op.Args) ([]*model.Individual, error) {
	return selectRanked(ctx, rt, in, n, args.Bool("only"), false)
}

// tournament runs n independent k-way tournaments over the input. With
// greediness below 1 the winner is occasionally a random non-best entrant.
func tournament(ctx context.Context, rt *op.Runtime, in []*model.Individual, n int, args op.Args) ([]*model.Individual, error) {
	k := args.Int("k")
	greediness := args.Float("greediness")
	withReplacement := args.Bool("replacement")
	if k < 2 {
		return nil, fmt.Errorf("tournament: k must be at least 2, got %d", k)
	}
	if len(in) == 0 {
		return nil, nil
	}
	for _, ind := range in {
		if _, err := rt.Fitness(ctx, ind); err != nil {
			return nil, err
		}
	}

	r := rt.RNG.Breeding()
	pool := append([]*model.Individual(nil), in...)
	out := make([]*model.Individual, 0, n)
	for len(out) < n && len(pool) > 0 {
		entrants := make([]*model.Individual, 0, k)
		for i := 0; i < k; i++ {
			entrants = append(entrants, pool[r.Intn(len(pool))])
		}
		bestIdx := 0
		for i, e := range entrants {
			if e.Fitness > entrants[bestIdx].Fitness {
				bestIdx = i
			}
		}
		winner := entrants[bestIdx]
		if greediness < 1 && r.Float64() >= greediness {
			// Loser round: any entrant but the best.
			i := r.Intn(len(entrants) - 1)
			if i >= bestIdx {
				i++
			}
			winner = entrants[i]
		}
		out = append(out, winner.Clone())
		if !withReplacement {
			for i, ind := range pool {
				if ind == winner {
					pool = append(pool[:i], pool[i+1:]...)
					break
				}
			}
		}
	}
	return out, nil
}

func binaryTournament(ctx context.Context, rt *op.Runtime, in []*model.Individual, n int, _ op.Args) ([]*model.Individual, error) {
	args := op.Args{
		"k":           cty.NumberIntVal(2),
		"replacement": cty.True,
		"greediness":  cty.NumberFloatVal(1),
	}
	return tournament(ctx, rt, in, n, args)
}

func uniformRandom(_ context.Context, rt *op.Runtime, in []*model.Individual, n int, args op.Args) ([]*model.Individual, error) {
	if len(in) == 0 {
		return nil, nil
	}
	r := rt.RNG.Breeding()
	out := make([]*model.Individual, 0, n)
	if args.Bool("replacement") {
		for i := 0; i < n; i++ {
			out = append(out, in[r.Intn(len(in))].Clone())
		}
		return out, nil
	}
	pool := append([]*model.Individual(nil), in...)
	for len(out) < n && len(pool) > 0 {
		i := r.Intn(len(pool))
		out = append(out, pool[i].Clone())
		pool = append(pool[:i], pool[i+1:]...)
	}
	return out, nil
}

// fitnessProportional is roulette-wheel selection. Fitness values are
// shifted so the worst weighs zero; a flat population degenerates to
// uniform selection.
func fitnessProportional(ctx context.Context, rt *op.Runtime, in []*model.Individual, n int, args op.Args) ([]*model.Individual, error) {
	if len(in) == 0 {
		return nil, nil
	}
	for _, ind := range in {
		if _, err := rt.Fitness(ctx, ind); err != nil {
			return nil, err
		}
	}
	r := rt.RNG.Breeding()
	pool := append([]*model.Individual(nil), in...)
	out := make([]*model.Individual, 0, n)
	for len(out) < n && len(pool) > 0 {
		low := pool[0].Fitness
		for _, ind := range pool {
			if ind.Fitness < low {
				low = ind.Fitness
			}
		}
		total := 0.0
		for _, ind := range pool {
			total += ind.Fitness - low
		}

		var i int
		if total <= 0 {
			i = r.Intn(len(pool))
		} else {
			target := r.Float64() * total
			acc := 0.0
			for j, ind := range pool {
				acc += ind.Fitness - low
				if acc >= target {
					i = j
					break
				}
			}
		}
		out = append(out, pool[i].Clone())
		if !args.Bool("replacement") {
			pool = append(pool[:i], pool[i+1:]...)
		}
	}
	return out, nil
}
