package platform

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/rng"
)

// BatchResult is the outcome of one repeat within a batch.
type BatchResult struct {
	Offset int
	Record model.RunRecord
	Err    error
}

// RunBatch executes Repeats independently seeded copies of the experiment
// concurrently. Repeat i runs with both seeds offset by i, so a batch is as
// reproducible as a single run. Each repeat owns a full experiment instance
// and runs as a temporary supervised task: a failed repeat is reported, not
// restarted, and does not stop its siblings.
func RunBatch(ctx context.Context, opts Options, repeats int) ([]BatchResult, error) {
	if repeats <= 0 {
		return nil, errors.New("batch needs at least one repeat")
	}

	breedingSeed := opts.BreedingSeed
	if breedingSeed <= 0 {
		breedingSeed = rng.DefaultSeed
	}
	landscapeSeed := opts.LandscapeSeed
	if landscapeSeed <= 0 {
		landscapeSeed = rng.DefaultSeed
	}

	var mu sync.Mutex
	results := make([]BatchResult, 0, repeats)

	sup := NewSupervisor(SupervisorPolicy{})
	for i := 0; i < repeats; i++ {
		offset := i
		runOpts := opts
		runOpts.BreedingSeed = breedingSeed + int64(offset)
		runOpts.LandscapeSeed = landscapeSeed + int64(offset)

		name := fmt.Sprintf("repeat-%d", offset)
		err := sup.Start(name, RestartTemporary, func(taskCtx context.Context) error {
			runCtx, cancel := joinContexts(ctx, taskCtx)
			defer cancel()

			result := BatchResult{Offset: offset}
			exp, err := NewExperiment(runOpts)
			if err != nil {
				result.Err = err
			} else {
				result.Record, result.Err = exp.Run(runCtx)
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return result.Err
		})
		if err != nil {
			sup.StopAll()
			return nil, err
		}
	}
	sup.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Offset < results[j].Offset })
	return results, nil
}

// joinContexts derives a context cancelled when either parent is.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
