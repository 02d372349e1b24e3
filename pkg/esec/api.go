// Package esec is the embedding surface for the pipeline engine: a Client
// that owns a result store and runs, checks and queries experiments.
package esec

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/zooba/esec/internal/bind"
	"github.com/zooba/esec/internal/breed"
	"github.com/zooba/esec/internal/config"
	"github.com/zooba/esec/internal/esdl"
	"github.com/zooba/esec/internal/grammar"
	"github.com/zooba/esec/internal/interp"
	"github.com/zooba/esec/internal/landscape"
	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/monitor"
	"github.com/zooba/esec/internal/op"
	"github.com/zooba/esec/internal/platform"
	"github.com/zooba/esec/internal/storage"
)

const defaultDBPath = "esec.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store
}

// RunRequest describes one experiment. Definition is the pipeline text and
// Landscape a registered evaluator name; Grammar is required only for GE
// landscapes. Config holds dotted-key values for the named-configuration
// layer and Overrides for the override layer. Seed 0 uses the default seed;
// Generations 0 runs until the pipeline terminates on its own.
type RunRequest struct {
	Definition    string
	Landscape     string
	Grammar       map[string][]string
	ConfigFiles   []string
	Config        map[string]any
	Overrides     map[string]any
	Seed          int64
	LandscapeSeed int64
	Generations   int

	// ConsoleOutput and CSVOutput attach progress monitors when non-nil.
	ConsoleOutput io.Writer
	CSVOutput     io.Writer
}

type RunSummary struct {
	RunID       string
	Generations int
	Evaluations int
	BestFitness float64
}

type BatchItem struct {
	Offset  int
	Summary RunSummary
	Err     error
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Check parses and binds a definition without running it, reporting the
// first diagnostic found.
func (c *Client) Check(req RunRequest) error {
	_, err := buildOptions(req, nil)
	return err
}

// Run executes one experiment to termination and persists its results.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	opts, err := buildOptions(req, c.store)
	if err != nil {
		return RunSummary{}, err
	}
	exp, err := platform.NewExperiment(*opts)
	if err != nil {
		return RunSummary{}, err
	}
	record, err := exp.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	return summarize(record), nil
}

// Batch runs independently seeded repeats concurrently. Individual repeat
// failures are reported per item, not returned as the batch error.
func (c *Client) Batch(ctx context.Context, req RunRequest, repeats int) ([]BatchItem, error) {
	opts, err := buildOptions(req, c.store)
	if err != nil {
		return nil, err
	}
	results, err := platform.RunBatch(ctx, *opts, repeats)
	if err != nil {
		return nil, err
	}
	items := make([]BatchItem, 0, len(results))
	for _, result := range results {
		items = append(items, BatchItem{
			Offset:  result.Offset,
			Summary: summarize(result.Record),
			Err:     result.Err,
		})
	}
	return items, nil
}

// Expand maps a codon genome through a grammar, the way a GE landscape
// would during a run. Useful for debugging grammars by hand.
func (c *Client) Expand(rules map[string][]string, genome []int64, terminals []string) (string, error) {
	table, err := grammar.NewTable(rules)
	if err != nil {
		return "", err
	}
	result, err := table.Expand(genome, grammar.Options{Terminals: terminals})
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Runs lists stored run records, most recent last.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunRecord, error) {
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[len(runs)-limit:]
	}
	return runs, nil
}

// Fitness returns the stored per-generation summaries of a run.
func (c *Client) Fitness(ctx context.Context, runID string) ([]model.GenerationStats, error) {
	if runID == "" {
		return nil, errors.New("run id is required")
	}
	stats, err := c.store.GetGenerationStats(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("no stats found for run id: %s", runID)
	}
	return stats, nil
}

// Best returns the stored best individual of a run.
func (c *Client) Best(ctx context.Context, runID string) (model.BestIndividual, error) {
	if runID == "" {
		return model.BestIndividual{}, errors.New("run id is required")
	}
	best, ok, err := c.store.GetBest(ctx, runID)
	if err != nil {
		return model.BestIndividual{}, err
	}
	if !ok {
		return model.BestIndividual{}, fmt.Errorf("no best individual found for run id: %s", runID)
	}
	return best, nil
}

// Operators lists the names of the built-in operators.
func (c *Client) Operators() ([]string, error) {
	reg := op.NewRegistry()
	if err := breed.RegisterAll(reg); err != nil {
		return nil, err
	}
	return reg.Names(), nil
}

// Landscapes lists the names of the built-in landscapes.
func (c *Client) Landscapes() ([]string, error) {
	reg := landscape.NewRegistry()
	if err := landscape.RegisterAll(reg); err != nil {
		return nil, err
	}
	return reg.Names(), nil
}

func buildOptions(req RunRequest, store storage.Store) (*platform.Options, error) {
	cfg := config.NewContext()
	for _, path := range req.ConfigFiles {
		values, err := config.LoadYAML(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.SetAll(config.LayerNamed, values); err != nil {
			return nil, err
		}
	}
	if err := setLayer(cfg, config.LayerNamed, req.Config); err != nil {
		return nil, err
	}
	if err := setLayer(cfg, config.LayerOverride, req.Overrides); err != nil {
		return nil, err
	}

	var mons []interp.Monitor
	if req.ConsoleOutput != nil {
		mons = append(mons, monitor.NewConsole(req.ConsoleOutput))
	}
	if req.CSVOutput != nil {
		mons = append(mons, monitor.NewCSV(req.CSVOutput))
	}

	opts := &platform.Options{
		Definition:    req.Definition,
		Landscape:     req.Landscape,
		Grammar:       req.Grammar,
		Config:        cfg,
		BreedingSeed:  req.Seed,
		LandscapeSeed: req.LandscapeSeed,
		Generations:   req.Generations,
		Store:         store,
		Monitors:      mons,
	}

	// Building the experiment front-loads every parse/bind diagnostic, so a
	// Check call never partially runs anything.
	if store == nil {
		if _, err := checkOnly(opts); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

func checkOnly(opts *platform.Options) (*bind.Program, error) {
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
	if opts.Landscape != "" {
		if _, err := evaluators.Resolve(opts.Landscape); err != nil {
			return nil, err
		}
	}
	if opts.Grammar != nil {
		if _, err := grammar.NewTable(opts.Grammar); err != nil {
			return nil, err
		}
	}
	snapshot := config.EmptySnapshot()
	if opts.Config != nil {
		snapshot = opts.Config.Snapshot()
	}
	binder := &bind.Binder{Ops: ops, Evaluators: evaluators, Config: snapshot}
	return binder.Bind(prog)
}

func setLayer(cfg *config.Context, layer string, values map[string]any) error {
	for key, raw := range values {
		v, err := config.FromGo(raw)
		if err != nil {
			return fmt.Errorf("config key %s: %w", key, err)
		}
		if err := cfg.Set(layer, key, v); err != nil {
			return err
		}
	}
	return nil
}

func summarize(record model.RunRecord) RunSummary {
	return RunSummary{
		RunID:       record.ID,
		Generations: record.Generations,
		Evaluations: record.Evaluations,
		BestFitness: record.BestFitness,
	}
}
