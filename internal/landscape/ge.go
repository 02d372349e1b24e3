package landscape

import (
	"context"
	"errors"
	"math"

	"github.com/zooba/esec/internal/grammar"
	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/op"
)

// WorstFitness is assigned to GE individuals whose genome fails to map or
// whose phenome fails to parse or evaluate. Failing the individual instead
// of the run is a host policy: a broken program is just a very bad
// candidate.
const WorstFitness = -1e9

// GERegression is a grammatical-evolution symbolic-regression landscape.
// Genomes are mapped through the run's grammar table to an arithmetic
// expression over the terminal `x`, then scored by negated squared error
// against the target polynomial x^4 + x^3 + x^2 + x on a fixed sample.
type GERegression struct {
	points []float64
}

func NewGERegression() *GERegression {
	// 21 samples over [-1, 1].
	points := make([]float64, 21)
	for i := range points {
		points[i] = -1 + float64(i)*0.1
	}
	return &GERegression{points: points}
}

func (*GERegression) Name() string { return "ge_regression" }

// Terminals supplies the symbol set consumed by the grammar's TERMINAL
// rule.
func (*GERegression) Terminals() []string { return []string{"x"} }

func target(x float64) float64 {
	return x*x*x*x + x*x*x + x*x + x
}

func (l *GERegression) Evaluate(_ context.Context, rt *op.Runtime, ind *model.Individual) (float64, error) {
	result, err := rt.ExpandGE(ind.Genome)
	if err != nil {
		if errors.Is(err, grammar.ErrRecursionLimit) ||
			errors.Is(err, grammar.ErrGenomeExhausted) ||
			errors.Is(err, grammar.ErrIndentUnderflow) {
			ind.Tag("did_not_compile", 1)
			return WorstFitness, nil
		}
		return 0, err
	}
	ind.Tag("effective_size", result.EffectiveSize)

	program, err := parseArith(result.Text)
	if err != nil {
		ind.Tag("did_not_compile", 1)
		return WorstFitness, nil
	}

	sum := 0.0
	for _, x := range l.points {
		y := program.eval(x)
		diff := y - target(x)
		sum += diff * diff
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		ind.Tag("non_finite", 1)
		return WorstFitness, nil
	}
	return -sum, nil
}
