package breed

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/zclconf/go-cty/cty"

	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/op"
)

func rateParams(defaultGeneRate float64) []op.ParamSpec {
	return []op.ParamSpec{
		{Name: "per_indiv_rate", Type: cty.Number, Default: cty.NumberFloatVal(1)},
		{Name: "per_gene_rate", Type: cty.Number, Default: cty.NumberFloatVal(defaultGeneRate)},
	}
}

func variatorDescriptors() []op.Descriptor {
	return []op.Descriptor{
		{
			Name:   "mutate_random",
			Kind:   op.KindVariator,
			Params: rateParams(0.1),
			Apply:  mutateRandom,
		},
		{
			Name:   "mutate_bitflip",
			Kind:   op.KindVariator,
			Params: rateParams(0.1),
			Apply:  mutateBitflip,
		},
		{
			Name: "mutate_inversion",
			Kind: op.KindVariator,
			Params: []op.ParamSpec{
				{Name: "per_indiv_rate", Type: cty.Number, Default: cty.NumberFloatVal(0.1)},
			},
			Apply: mutateInversion,
		},
		{
			Name: "mutate_delta",
			Kind: op.KindVariator,
			Params: append(rateParams(0.1),
				op.ParamSpec{Name: "step_size", Type: cty.Number, Default: cty.NumberFloatVal(1)},
			),
			Apply: mutateDelta,
		},
		{
			Name: "mutate_gaussian",
			Kind: op.KindVariator,
			Params: append(rateParams(0.1),
				op.ParamSpec{Name: "step_size", Type: cty.Number, Default: cty.NumberFloatVal(1)},
				op.ParamSpec{Name: "sigma", Type: cty.Number, Default: cty.NumberFloatVal(1)},
			),
			Apply: mutateGaussian,
		},
		{
			Name: "crossover_one_point",
			Kind: op.KindVariator,
			Params: []op.ParamSpec{
				{Name: "per_pair_rate", Type: cty.Number, Default: cty.NumberFloatVal(1)},
			},
			Apply: crossoverOnePoint,
		},
		{
			Name: "crossover_uniform",
			Kind: op.KindVariator,
			Params: []op.ParamSpec{
				{Name: "per_pair_rate", Type: cty.Number, Default: cty.NumberFloatVal(1)},
				{Name: "per_gene_rate", Type: cty.Number, Default: cty.NumberFloatVal(0.5)},
			},
			Apply: crossoverUniform,
		},
		{
			Name: "crossover_average",
			Kind: op.KindVariator,
			Params: []op.ParamSpec{
				{Name: "per_pair_rate", Type: cty.Number, Default: cty.NumberFloatVal(1)},
			},
			Apply: crossoverAverage,
		},
	}
}

// offspring copies a parent into a fresh, unevaluated individual.
func offspring(rt *op.Runtime, parent *model.Individual) *model.Individual {
	child := parent.Clone()
	child.Invalidate()
	child.Stats = nil
	child.Birth = rt.NextBirth()
	return child
}

// mutateEach applies mutate to each selected individual's genome in place
// (on a fresh copy). Every input yields exactly one output.
func mutateEach(rt *op.Runtime, in []*model.Individual, perIndiv float64, mutate func(r *rand.Rand, g *model.Genome)) []*model.Individual {
	r := rt.RNG.Breeding()
	out := make([]*model.Individual, 0, len(in))
	for _, parent := range in {
		child := offspring(rt, parent)
		if r.Float64() < perIndiv {
			mutate(r, &child.Genome)
			child.Tag("mutated", 1)
		}
		out = append(out, child)
	}
	return out
}

// mutateRandom resets genes to fresh random values drawn from the genome's
// own domain, whatever the representation.
func mutateRandom(_ context.Context, rt *op.Runtime, in []*model.Individual, _ int, args op.Args) ([]*model.Individual, error) {
	perGene := args.Float("per_gene_rate")
	return mutateEach(rt, in, args.Float("per_indiv_rate"), func(r *rand.Rand, g *model.Genome) {
		switch g.Kind {
		case model.KindBinary:
			for i := range g.Bits {
				if r.Float64() < perGene {
					g.Bits[i] = r.Intn(2) == 1
				}
			}
		case model.KindReal:
			for i := range g.Reals {
				if r.Float64() < perGene {
					g.Reals[i] = g.Lowest + r.Float64()*(g.Highest-g.Lowest)
				}
			}
		default:
			lo, hi := int64(g.Lowest), int64(g.Highest)
			span := hi - lo + 1
			if span < 1 {
				span = 1
			}
			for i := range g.Ints {
				if r.Float64() < perGene {
					g.Ints[i] = lo + r.Int63n(span)
				}
			}
		}
	}), nil
}

func mutateBitflip(_ context.Context, rt *op.Runtime, in []*model.Individual, _ int, args op.Args) ([]*model.Individual, error) {
	if err := requireKind(in, "mutate_bitflip", model.KindBinary); err != nil {
		return nil, err
	}
	perGene := args.Float("per_gene_rate")
	return mutateEach(rt, in, args.Float("per_indiv_rate"), func(r *rand.Rand, g *model.Genome) {
		for i := range g.Bits {
			if r.Float64() < perGene {
				g.Bits[i] = !g.Bits[i]
			}
		}
	}), nil
}

// mutateInversion reverses one randomly chosen segment of a binary genome.
func mutateInversion(_ context.Context, rt *op.Runtime, in []*model.Individual, _ int, args op.Args) ([]*model.Individual, error) {
	if err := requireKind(in, "mutate_inversion", model.KindBinary); err != nil {
		return nil, err
	}
	return mutateEach(rt, in, args.Float("per_indiv_rate"), func(r *rand.Rand, g *model.Genome) {
		if len(g.Bits) < 2 {
			return
		}
		i := r.Intn(len(g.Bits) - 1)
		j := i + 1 + r.Intn(len(g.Bits)-i-1)
		for i < j {
			g.Bits[i], g.Bits[j] = g.Bits[j], g.Bits[i]
			i++
			j--
		}
	}), nil
}

// mutateDelta nudges integer or real genes by a fixed step in a random
// direction, clamped to the genome bounds.
func mutateDelta(_ context.Context, rt *op.Runtime, in []*model.Individual, _ int, args op.Args) ([]*model.Individual, error) {
	if err := requireKind(in, "mutate_delta", model.KindInteger, model.KindReal, model.KindGE); err != nil {
		return nil, err
	}
	perGene := args.Float("per_gene_rate")
	step := args.Float("step_size")
	return mutateEach(rt, in, args.Float("per_indiv_rate"), func(r *rand.Rand, g *model.Genome) {
		if g.Kind == model.KindReal {
			for i := range g.Reals {
				if r.Float64() < perGene {
					g.Reals[i] = clampFloat(g.Reals[i]+signed(r)*step, g.Lowest, g.Highest)
				}
			}
			return
		}
		istep := int64(step)
		if istep < 1 {
			istep = 1
		}
		for i := range g.Ints {
			if r.Float64() < perGene {
				g.Ints[i] = clampInt(g.Ints[i]+int64(signed(r))*istep, int64(g.Lowest), int64(g.Highest))
			}
		}
	}), nil
}

func mutateGaussian(_ context.Context, rt *op.Runtime, in []*model.Individual, _ int, args op.Args) ([]*model.Individual, error) {
	if err := requireKind(in, "mutate_gaussian", model.KindReal); err != nil {
		return nil, err
	}
	perGene := args.Float("per_gene_rate")
	scale := args.Float("step_size") * args.Float("sigma")
	return mutateEach(rt, in, args.Float("per_indiv_rate"), func(r *rand.Rand, g *model.Genome) {
		for i := range g.Reals {
			if r.Float64() < perGene {
				g.Reals[i] = clampFloat(g.Reals[i]+r.NormFloat64()*scale, g.Lowest, g.Highest)
			}
		}
	}), nil
}

// crossoverPairs pairs consecutive parents, applying cross to fresh copies
// of each pair with the given probability. An odd trailing parent passes
// through untouched.
func crossoverPairs(rt *op.Runtime, in []*model.Individual, perPair float64, cross func(r *rand.Rand, a, b *model.Genome)) []*model.Individual {
	r := rt.RNG.Breeding()
	out := make([]*model.Individual, 0, len(in))
	for i := 0; i+1 < len(in); i += 2 {
		a, b := offspring(rt, in[i]), offspring(rt, in[i+1])
		if r.Float64() < perPair {
			cross(r, &a.Genome, &b.Genome)
			a.Tag("recombined", 1)
			b.Tag("recombined", 1)
		}
		out = append(out, a, b)
	}
	if len(in)%2 == 1 {
		out = append(out, offspring(rt, in[len(in)-1]))
	}
	return out
}

func crossoverOnePoint(_ context.Context, rt *op.Runtime, in []*model.Individual, _ int, args op.Args) ([]*model.Individual, error) {
	return crossoverPairs(rt, in, args.Float("per_pair_rate"), func(r *rand.Rand, a, b *model.Genome) {
		n := a.Len()
		if b.Len() < n {
			n = b.Len()
		}
		if n < 2 {
			return
		}
		cut := 1 + r.Intn(n-1)
		switch a.Kind {
		case model.KindBinary:
			swapTail(a.Bits, b.Bits, cut)
		case model.KindReal:
			swapTail(a.Reals, b.Reals, cut)
		default:
			swapTail(a.Ints, b.Ints, cut)
		}
	}), nil
}

func crossoverUniform(_ context.Context, rt *op.Runtime, in []*model.Individual, _ int, args op.Args) ([]*model.Individual, error) {
	perGene := args.Float("per_gene_rate")
	return crossoverPairs(rt, in, args.Float("per_pair_rate"), func(r *rand.Rand, a, b *model.Genome) {
		n := a.Len()
		if b.Len() < n {
			n = b.Len()
		}
		for i := 0; i < n; i++ {
			if r.Float64() >= perGene {
				continue
			}
			switch a.Kind {
			case model.KindBinary:
				a.Bits[i], b.Bits[i] = b.Bits[i], a.Bits[i]
			case model.KindReal:
				a.Reals[i], b.Reals[i] = b.Reals[i], a.Reals[i]
			default:
				a.Ints[i], b.Ints[i] = b.Ints[i], a.Ints[i]
			}
		}
	}), nil
}

// crossoverAverage replaces both real genomes of a pair with their
// per-gene mean.
func crossoverAverage(_ context.Context, rt *op.Runtime, in []*model.Individual, _ int, args op.Args) ([]*model.Individual, error) {
	if err := requireKind(in, "crossover_average", model.KindReal); err != nil {
		return nil, err
	}
	return crossoverPairs(rt, in, args.Float("per_pair_rate"), func(_ *rand.Rand, a, b *model.Genome) {
		n := len(a.Reals)
		if len(b.Reals) < n {
			n = len(b.Reals)
		}
		for i := 0; i < n; i++ {
			mean := (a.Reals[i] + b.Reals[i]) / 2
			a.Reals[i], b.Reals[i] = mean, mean
		}
	}), nil
}

func requireKind(in []*model.Individual, name string, kinds ...model.SpeciesKind) error {
	for _, ind := range in {
		ok := false
		for _, kind := range kinds {
			if ind.Genome.Kind == kind {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%s cannot operate on %s genomes", name, ind.Genome.Kind)
		}
	}
	return nil
}

func swapTail[T any](a, b []T, cut int) {
	for i := cut; i < len(a) && i < len(b); i++ {
		a[i], b[i] = b[i], a[i]
	}
}

func signed(r *rand.Rand) float64 {
	if r.Intn(2) == 0 {
		return -1
	}
	return 1
}

func clampFloat(v, lo, hi float64) float64 {
	if hi > lo {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
	}
	return v
}

func clampInt(v, lo, hi int64) int64 {
	if hi > lo {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
	}
	return v
}
