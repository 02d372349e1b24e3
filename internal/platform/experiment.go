package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zooba/esec/internal/bind"
	"github.com/zooba/esec/internal/breed"
	"github.com/zooba/esec/internal/config"
	"github.com/zooba/esec/internal/ctxlog"
	"github.com/zooba/esec/internal/esdl"
	"github.com/zooba/esec/internal/grammar"
	"github.com/zooba/esec/internal/interp"
	"github.com/zooba/esec/internal/landscape"
	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/monitor"
	"github.com/zooba/esec/internal/op"
	"github.com/zooba/esec/internal/rng"
	"github.com/zooba/esec/internal/storage"
)

// Options assembles one experiment. Definition is the pipeline text;
// Landscape names a registered evaluator. Grammar is only needed for GE
// runs. Zero seeds fall back to the default seed; zero Generations runs
// unbounded.
type Options struct {
	Definition    string
	Landscape     string
	Grammar       map[string][]string
	Config        *config.Context
	BreedingSeed  int64
	LandscapeSeed int64
	Generations   int
	Store         storage.Store
	Monitors      []interp.Monitor
}

// Experiment owns every piece of one run: parsed and bound pipeline,
// registries, random streams, interpreter, monitor and store. Nothing is
// shared between experiments; concurrent experiments each build their own.
type Experiment struct {
	opts    Options
	runID   string
	rt      *op.Runtime
	interp  *interp.Interpreter
	rec     *monitor.Recorder
	grammar *grammar.Table
}

// NewExperiment parses, validates and binds the definition, failing fast on
// any diagnostic.
func NewExperiment(opts Options) (*Experiment, error) {
	if opts.Definition == "" {
		return nil, errors.New("a pipeline definition is required")
	}
	if opts.Landscape == "" {
		return nil, errors.New("a landscape name is required")
	}

	prog, err := esdl.Parse(opts.Definition)
	if err != nil {
		return nil, err
	}

	ops := op.NewRegistry()
	if err := breed.RegisterAll(ops); err != nil {
		return nil, err
	}
	evaluators := landscape.NewRegistry()
	if err := landscape.RegisterAll(evaluators); err != nil {
		return nil, err
	}
	evaluator, err := evaluators.Resolve(opts.Landscape)
	if err != nil {
		return nil, err
	}

	var table *grammar.Table
	if opts.Grammar != nil {
		table, err = grammar.NewTable(opts.Grammar)
		if err != nil {
			return nil, err
		}
	}

	snapshot := config.EmptySnapshot()
	if opts.Config != nil {
		snapshot = opts.Config.Snapshot()
	}

	binder := &bind.Binder{Ops: ops, Evaluators: evaluators, Config: snapshot}
	bound, err := binder.Bind(prog)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	rt := &op.Runtime{
		RNG:       rng.New(opts.BreedingSeed, opts.LandscapeSeed),
		Config:    snapshot,
		Grammar:   table,
		Evaluator: evaluator,
	}

	mons := append([]interp.Monitor(nil), opts.Monitors...)
	var rec *monitor.Recorder
	if opts.Store != nil {
		rec = &monitor.Recorder{Store: opts.Store, RunID: runID}
		if table != nil {
			rec.Phenome = func(ind *model.Individual) string {
				result, err := rt.ExpandGE(ind.Genome)
				if err != nil {
					return ""
				}
				return result.Text
			}
		}
		mons = append(mons, rec)
	}

	return &Experiment{
		opts:    opts,
		runID:   runID,
		rt:      rt,
		interp:  interp.New(bound, rt, monitor.Multi(mons), opts.Generations),
		rec:     rec,
		grammar: table,
	}, nil
}

// RunID reports the experiment's assigned run identifier.
func (e *Experiment) RunID() string { return e.runID }

// Run drives the experiment to termination and records the outcome. The
// returned record is saved to the store (when one is configured) even if
// the run failed.
func (e *Experiment) Run(ctx context.Context) (model.RunRecord, error) {
	log := ctxlog.FromContext(ctx)
	log.Info("run starting",
		"run_id", e.runID,
		"landscape", e.opts.Landscape,
		"breeding_seed", e.rt.RNG.BreedingSeed(),
		"landscape_seed", e.rt.RNG.LandscapeSeed())

	record := model.RunRecord{
		ID:            e.runID,
		Definition:    e.opts.Definition,
		Landscape:     e.opts.Landscape,
		BreedingSeed:  e.rt.RNG.BreedingSeed(),
		LandscapeSeed: e.rt.RNG.LandscapeSeed(),
		StartedAt:     time.Now().UTC(),
	}

	runErr := e.interp.Run(ctx)

	record.FinishedAt = time.Now().UTC()
	record.Generations = e.interp.Generation()
	record.Evaluations = e.rt.Evaluations()
	if runErr != nil {
		record.Error = runErr.Error()
	}
	if e.rec != nil {
		if best := e.rec.Best(); best != nil {
			record.BestFitness = best.Individual.Fitness
		}
	}

	if e.opts.Store != nil {
		if err := e.opts.Store.SaveRun(ctx, record); err != nil {
			if runErr == nil {
				runErr = fmt.Errorf("save run %s: %w", e.runID, err)
			} else {
				log.Error("save run failed", "run_id", e.runID, "error", err)
			}
		}
	}

	if runErr != nil {
		log.Error("run failed", "run_id", e.runID, "error", runErr)
		return record, runErr
	}
	log.Info("run finished",
		"run_id", e.runID,
		"generations", record.Generations,
		"evaluations", record.Evaluations,
		"best_fitness", record.BestFitness)
	return record, nil
}
