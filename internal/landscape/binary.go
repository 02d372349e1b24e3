package landscape

import (
	"context"
	"fmt"

	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/op"
)

// OneMax scores a binary genome by the number of set bits.
type OneMax struct{}

func (OneMax) Name() string { return "onemax" }

func (OneMax) Evaluate(_ context.Context, _ *op.Runtime, ind *model.Individual) (float64, error) {
	if ind.Genome.Kind != model.KindBinary {
		return 0, fmt.Errorf("onemax expects a binary genome, got %s", ind.Genome.Kind)
	}
	count := 0
	for _, bit := range ind.Genome.Bits {
		if bit {
			count++
		}
	}
	return float64(count), nil
}
