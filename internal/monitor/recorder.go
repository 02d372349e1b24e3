package monitor

import (
	"context"

	"github.com/zooba/esec/internal/interp"
	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/stats"
	"github.com/zooba/esec/internal/storage"
)

// Recorder persists generation stats and the best individual seen through a
// Store. Phenome, when set, renders an individual's mapped form for the
// stored snapshot (GE runs pass the grammar expansion here).
type Recorder struct {
	Store   storage.Store
	RunID   string
	Phenome func(*model.Individual) string

	best *model.BestIndividual
}

func (r *Recorder) OnRunStart(context.Context) {}

func (r *Recorder) OnYield(ctx context.Context, cp interp.Checkpoint) error {
	s := stats.Summarize(cp.Generation, cp.Group, cp.Members, cp.Evaluations)
	if err := r.Store.AppendGenerationStats(ctx, r.RunID, s); err != nil {
		return err
	}

	top := stats.Best(cp.Members)
	if top == nil {
		return nil
	}
	if r.best == nil || top.Fitness > r.best.Individual.Fitness {
		best := model.BestIndividual{
			RunID:      r.RunID,
			Generation: cp.Generation,
			Individual: *top.Clone(),
		}
		if r.Phenome != nil {
			best.Phenome = r.Phenome(top)
		}
		r.best = &best
	}
	return nil
}

func (r *Recorder) OnRunEnd(ctx context.Context, _ error) {
	if r.best != nil {
		_ = r.Store.SaveBest(ctx, *r.best)
	}
}

// Best reports the best individual recorded so far, or nil.
func (r *Recorder) Best() *model.BestIndividual {
	return r.best
}
