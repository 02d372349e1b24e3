//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/zooba/esec/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "esec.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	run := sampleRun("run-1", time.Unix(100, 0).UTC())
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	loaded, ok, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok || loaded.Landscape != run.Landscape || loaded.Evaluations != run.Evaluations {
		t.Fatalf("unexpected run: %+v", loaded)
	}

	// Saving again with the same id overwrites.
	run.BestFitness = 99
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("resave run: %v", err)
	}
	loaded, _, _ = store.GetRun(ctx, "run-1")
	if loaded.BestFitness != 99 {
		t.Fatalf("upsert lost the update: %+v", loaded)
	}

	if _, ok, _ := store.GetRun(ctx, "missing"); ok {
		t.Fatal("unknown id must report not found")
	}
}

func TestSQLiteListRunsOrdered(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	for _, run := range []model.RunRecord{
		sampleRun("run-b", time.Unix(200, 0)),
		sampleRun("run-a", time.Unix(100, 0)),
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-a" || runs[1].ID != "run-b" {
		t.Fatalf("runs out of order: %+v", runs)
	}
}

func TestSQLiteGenerationStats(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	for gen := 0; gen < 3; gen++ {
		err := store.AppendGenerationStats(ctx, "run-1", model.GenerationStats{
			Generation: gen, Group: "population", BestFitness: float64(gen),
		})
		if err != nil {
			t.Fatalf("append stats: %v", err)
		}
	}
	// Other runs must stay isolated.
	if err := store.AppendGenerationStats(ctx, "run-2", model.GenerationStats{Generation: 0}); err != nil {
		t.Fatalf("append stats: %v", err)
	}

	stats, err := store.GetGenerationStats(ctx, "run-1")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("got %d rows, want 3", len(stats))
	}
	for i, row := range stats {
		if row.Generation != i || row.BestFitness != float64(i) {
			t.Fatalf("rows wrong: %+v", stats)
		}
	}
}

func TestSQLiteBestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	best := model.BestIndividual{
		RunID:      "run-1",
		Generation: 7,
		Individual: model.Individual{
			Genome:  model.Genome{Kind: model.KindBinary, Bits: []bool{true}},
			Fitness: 1,
			Valid:   true,
		},
	}
	if err := store.SaveBest(ctx, best); err != nil {
		t.Fatalf("save best: %v", err)
	}

	best.Generation = 9
	if err := store.SaveBest(ctx, best); err != nil {
		t.Fatalf("resave best: %v", err)
	}

	loaded, ok, err := store.GetBest(ctx, "run-1")
	if err != nil {
		t.Fatalf("get best: %v", err)
	}
	if !ok || loaded.Generation != 9 {
		t.Fatalf("unexpected best: %+v", loaded)
	}
}

func TestSQLiteRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "esec.db"))
	if err := store.SaveRun(context.Background(), model.RunRecord{ID: "x"}); err == nil {
		t.Fatal("expected error before Init")
	}
}

func TestSQLiteRequiresPath(t *testing.T) {
	store := NewSQLiteStore("")
	if err := store.Init(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
