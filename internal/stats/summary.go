// Package stats reduces yield checkpoints to per-generation summaries for
// monitors and storage.
package stats

import (
	"math"

	"github.com/zooba/esec/internal/model"
)

// Summarize computes the fitness summary of one published group. Members
// are assumed evaluated; unevaluated individuals are skipped.
func Summarize(generation int, group string, members []*model.Individual, evaluations int) model.GenerationStats {
	out := model.GenerationStats{
		Generation:  generation,
		Group:       group,
		Size:        len(members),
		Evaluations: evaluations,
	}

	n := 0
	sum := 0.0
	best := math.Inf(-1)
	for _, ind := range members {
		if !ind.Valid {
			continue
		}
		n++
		sum += ind.Fitness
		if ind.Fitness > best {
			best = ind.Fitness
		}
	}
	if n == 0 {
		return out
	}
	mean := sum / float64(n)

	variance := 0.0
	for _, ind := range members {
		if !ind.Valid {
			continue
		}
		d := ind.Fitness - mean
		variance += d * d
	}
	variance /= float64(n)

	out.BestFitness = best
	out.MeanFitness = mean
	out.StddevFit = math.Sqrt(variance)
	return out
}

// Best returns the evaluated member with the highest fitness, or nil. Ties
// keep the earliest member.
func Best(members []*model.Individual) *model.Individual {
	var best *model.Individual
	for _, ind := range members {
		if !ind.Valid {
			continue
		}
		if best == nil || ind.Fitness > best.Fitness {
			best = ind
		}
	}
	return best
}
