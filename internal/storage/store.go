package storage

import (
	"context"

	"github.com/zooba/esec/internal/model"
)

// Store persists experiment results: one record per run, a stats row per
// yield checkpoint and the best individual seen.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	AppendGenerationStats(ctx context.Context, runID string, stats model.GenerationStats) error
	GetGenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, error)
	SaveBest(ctx context.Context, best model.BestIndividual) error
	GetBest(ctx context.Context, runID string) (model.BestIndividual, bool, error)
}
