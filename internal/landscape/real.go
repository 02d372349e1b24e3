package landscape

import (
	"context"
	"fmt"

	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/op"
)

// Sphere is the n-dimensional sphere function. Minimising, so fitness is
// the negated sum of squares; the optimum at the origin scores 0.
type Sphere struct{}

func (Sphere) Name() string { return "sphere" }

func (Sphere) Evaluate(_ context.Context, _ *op.Runtime, ind *model.Individual) (float64, error) {
	if ind.Genome.Kind != model.KindReal {
		return 0, fmt.Errorf("sphere expects a real genome, got %s", ind.Genome.Kind)
	}
	sum := 0.0
	for _, x := range ind.Genome.Reals {
		sum += x * x
	}
	return -sum, nil
}

// Rosenbrock is the classic banana-valley function, negated for
// maximisation. The optimum at (1, ..., 1) scores 0.
type Rosenbrock struct{}

func (Rosenbrock) Name() string { return "rosenbrock" }

func (Rosenbrock) Evaluate(_ context.Context, _ *op.Runtime, ind *model.Individual) (float64, error) {
	if ind.Genome.Kind != model.KindReal {
		return 0, fmt.Errorf("rosenbrock expects a real genome, got %s", ind.Genome.Kind)
	}
	xs := ind.Genome.Reals
	if len(xs) < 2 {
		return 0, fmt.Errorf("rosenbrock needs at least 2 dimensions, got %d", len(xs))
	}
	sum := 0.0
	for i := 0; i+1 < len(xs); i++ {
		a := xs[i+1] - xs[i]*xs[i]
		b := 1 - xs[i]
		sum += 100*a*a + b*b
	}
	return -sum, nil
}
