package breed

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/op"
)

func generatorDescriptors() []op.Descriptor {
	return []op.Descriptor{
		{
			Name:  "random_binary",
			Kind:  op.KindGenerator,
			Exact: true,
			Params: []op.ParamSpec{
				{Name: "length", Type: cty.Number},
			},
			Apply: randomBinary,
		},
		{
			Name:  "random_real",
			Kind:  op.KindGenerator,
			Exact: true,
			Params: []op.ParamSpec{
				{Name: "length", Type: cty.Number},
				{Name: "lowest", Type: cty.Number, Default: cty.NumberFloatVal(0)},
				{Name: "highest", Type: cty.Number, Default: cty.NumberFloatVal(1)},
			},
			Apply: randomReal,
		},
		{
			Name:  "random_int",
			Kind:  op.KindGenerator,
			Exact: true,
			Params: []op.ParamSpec{
				{Name: "length", Type: cty.Number},
				{Name: "lowest", Type: cty.Number, Default: cty.NumberIntVal(0)},
				{Name: "highest", Type: cty.Number, Default: cty.NumberIntVal(100)},
			},
			Apply: randomInt,
		},
		{
			Name:  "random_ge",
			Kind:  op.KindGenerator,
			Exact: true,
			Params: []op.ParamSpec{
				{Name: "length", Type: cty.Number, Default: cty.NumberIntVal(10)},
				{Name: "shortest", Type: cty.Number, Default: cty.NumberIntVal(0)},
				{Name: "longest", Type: cty.Number, Default: cty.NumberIntVal(0)},
				{Name: "lowest", Type: cty.Number, Default: cty.NumberIntVal(0)},
				{Name: "highest", Type: cty.Number, Default: cty.NumberIntVal(255)},
				{Name: "wrap", Type: cty.String, Default: cty.StringVal(string(model.WrapRestart))},
				{Name: "wrap_limit", Type: cty.Number, Default: cty.NumberIntVal(10)},
			},
			Apply: randomGE,
		},
	}
}

func randomBinary(_ context.Context, rt *op.Runtime, _ []*model.Individual, n int, args op.Args) ([]*model.Individual, error) {
	length := args.Int("length")
	if length <= 0 {
		return nil, fmt.Errorf("random_binary: length must be positive, got %d", length)
	}
	r := rt.RNG.Breeding()
	out := make([]*model.Individual, 0, n)
	for i := 0; i < n; i++ {
		bits := make([]bool, length)
		for j := range bits {
			bits[j] = r.Intn(2) == 1
		}
		out = append(out, &model.Individual{
			Genome: model.Genome{Kind: model.KindBinary, Bits: bits},
			Birth:  rt.NextBirth(),
		})
	}
	return out, nil
}

func randomReal(_ context.Context, rt *op.Runtime, _ []*model.Individual, n int, args op.Args) ([]*model.Individual, error) {
	length := args.Int("length")
	lowest, highest := args.Float("lowest"), args.Float("highest")
	if length <= 0 {
		return nil, fmt.Errorf("random_real: length must be positive, got %d", length)
	}
	if highest < lowest {
		return nil, fmt.Errorf("random_real: highest %g below lowest %g", highest, lowest)
	}
	r := rt.RNG.Breeding()
	out := make([]*model.Individual, 0, n)
	for i := 0; i < n; i++ {
		reals := make([]float64, length)
		for j := range reals {
			reals[j] = lowest + r.Float64()*(highest-lowest)
		}
		out = append(out, &model.Individual{
			Genome: model.Genome{Kind: model.KindReal, Reals: reals, Lowest: lowest, Highest: highest},
			Birth:  rt.NextBirth(),
		})
	}
	return out, nil
}

func randomInt(_ context.Context, rt *op.Runtime, _ []*model.Individual, n int, args op.Args) ([]*model.Individual, error) {
	length := args.Int("length")
	lowest, highest := args.Int64("lowest"), args.Int64("highest")
	if length <= 0 {
		return nil, fmt.Errorf("random_int: length must be positive, got %d", length)
	}
	if highest < lowest {
		return nil, fmt.Errorf("random_int: highest %d below lowest %d", highest, lowest)
	}
	r := rt.RNG.Breeding()
	out := make([]*model.Individual, 0, n)
	for i := 0; i < n; i++ {
		ints := make([]int64, length)
		for j := range ints {
			ints[j] = lowest + r.Int63n(highest-lowest+1)
		}
		out = append(out, &model.Individual{
			Genome: model.Genome{
				Kind:    model.KindInteger,
				Ints:    ints,
				Lowest:  float64(lowest),
				Highest: float64(highest),
			},
			Birth: rt.NextBirth(),
		})
	}
	return out, nil
}

func randomGE(_ context.Context, rt *op.Runtime, _ []*model.Individual, n int, args op.Args) ([]*model.Individual, error) {
	length := args.Int("length")
	shortest, longest := args.Int("shortest"), args.Int("longest")
	lowest, highest := args.Int64("lowest"), args.Int64("highest")
	wrap := model.WrapPolicy(args.String("wrap"))
	wrapLimit := args.Int("wrap_limit")

	switch wrap {
	case model.WrapRestart, model.WrapFail, model.WrapPad:
	default:
		return nil, fmt.Errorf("random_ge: unknown wrap policy %q", wrap)
	}
	if highest < lowest {
		return nil, fmt.Errorf("random_ge: highest %d below lowest %d", highest, lowest)
	}
	if shortest > 0 && longest < shortest {
		return nil, fmt.Errorf("random_ge: longest %d below shortest %d", longest, shortest)
	}
	if shortest <= 0 && length <= 0 {
		return nil, fmt.Errorf("random_ge: length must be positive, got %d", length)
	}

	r := rt.RNG.Breeding()
	out := make([]*model.Individual, 0, n)
	for i := 0; i < n; i++ {
		size := length
		if shortest > 0 {
			size = shortest + r.Intn(longest-shortest+1)
		}
		ints := make([]int64, size)
		for j := range ints {
			ints[j] = lowest + r.Int63n(highest-lowest+1)
		}
		out = append(out, &model.Individual{
			Genome: model.Genome{
				Kind:      model.KindGE,
				Ints:      ints,
				Lowest:    float64(lowest),
				Highest:   float64(highest),
				Wrap:      wrap,
				WrapLimit: wrapLimit,
			},
			Birth: rt.NextBirth(),
		})
	}
	return out, nil
}
