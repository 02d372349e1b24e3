package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/zooba/esec/internal/model"
)

type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]model.RunRecord
	stats map[string][]model.GenerationStats
	best  map[string]model.BestIndividual
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:  make(map[string]model.RunRecord),
		stats: make(map[string][]model.GenerationStats),
		best:  make(map[string]model.BestIndividual),
	}
}

// Init resets the store to empty.
func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	s.stats = make(map[string][]model.GenerationStats)
	s.best = make(map[string]model.BestIndividual)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
	return runs, nil
}

func (s *MemoryStore) AppendGenerationStats(_ context.Context, runID string, stats model.GenerationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats[runID] = append(s.stats[runID], stats)
	return nil
}

func (s *MemoryStore) GetGenerationStats(_ context.Context, runID string) ([]model.GenerationStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats[runID]
	copied := make([]model.GenerationStats, len(stats))
	copy(copied, stats)
	return copied, nil
}

func (s *MemoryStore) SaveBest(_ context.Context, best model.BestIndividual) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.best[best.RunID] = best
	return nil
}

func (s *MemoryStore) GetBest(_ context.Context, runID string) (model.BestIndividual, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, ok := s.best[runID]
	return best, ok, nil
}
