package op

import (
	"context"
	"errors"
	"fmt"

	"github.com/zooba/esec/internal/config"
	"github.com/zooba/esec/internal/grammar"
	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/rng"
)

// ErrNoEvaluator is returned when fitness is requested but no evaluator is
// bound to the run.
var ErrNoEvaluator = errors.New("no evaluator bound")

// Evaluator computes fitness for one individual. Implementations draw
// randomness exclusively from the runtime's landscape stream. Higher fitness
// is better.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, rt *Runtime, ind *model.Individual) (float64, error)
}

// TerminalProvider is implemented by evaluators that supply the terminal
// symbol set consumed by the grammar's TERMINAL rule.
type TerminalProvider interface {
	Terminals() []string
}

// Runtime is the per-run execution context shared by operators and
// evaluators: the two random streams, the configuration snapshot, the
// grammar table for GE genomes and the default evaluator. One Runtime is
// owned by exactly one pipeline execution; concurrent executions each build
// their own.
type Runtime struct {
	RNG       *rng.Service
	Config    config.Snapshot
	Grammar   *grammar.Table
	Evaluator Evaluator

	birth       int
	evaluations int
}

// NextBirth issues the next birth counter value for a fresh individual.
func (rt *Runtime) NextBirth() int {
	rt.birth++
	return rt.birth
}

// Evaluations reports how many fitness evaluations have run so far.
func (rt *Runtime) Evaluations() int { return rt.evaluations }

// Fitness returns the individual's fitness, computing and caching it on
// first request. At most one evaluation per individual per generation
// unless the cache is explicitly invalidated.
func (rt *Runtime) Fitness(ctx context.Context, ind *model.Individual) (float64, error) {
	if ind.Valid {
		return ind.Fitness, nil
	}
	return rt.evaluateWith(ctx, rt.Evaluator, ind)
}

// EvaluateWith forces evaluation of an individual with a specific
// evaluator, replacing any cached fitness.
func (rt *Runtime) EvaluateWith(ctx context.Context, ev Evaluator, ind *model.Individual) (float64, error) {
	ind.Invalidate()
	return rt.evaluateWith(ctx, ev, ind)
}

func (rt *Runtime) evaluateWith(ctx context.Context, ev Evaluator, ind *model.Individual) (float64, error) {
	if ev == nil {
		return 0, ErrNoEvaluator
	}
	fitness, err := ev.Evaluate(ctx, rt, ind)
	if err != nil {
		return 0, fmt.Errorf("evaluator %s: %w", ev.Name(), err)
	}
	ind.Fitness = fitness
	ind.Valid = true
	rt.evaluations++
	return fitness, nil
}

// Terminals returns the terminal set supplied by the bound evaluator, if
// any.
func (rt *Runtime) Terminals() []string {
	if tp, ok := rt.Evaluator.(TerminalProvider); ok {
		return tp.Terminals()
	}
	return nil
}

// ExpandGE maps a GE genome to target text using the run's grammar table
// and the genome's own wrap policy.
func (rt *Runtime) ExpandGE(genome model.Genome) (grammar.Result, error) {
	if rt.Grammar == nil {
		return grammar.Result{}, errors.New("no grammar table bound")
	}
	if genome.Kind != model.KindGE {
		return grammar.Result{}, fmt.Errorf("genome kind %s is not grammar-mapped", genome.Kind)
	}
	return rt.Grammar.Expand(genome.Ints, grammar.Options{
		Terminals: rt.Terminals(),
		Wrap:      genome.Wrap,
		WrapLimit: genome.WrapLimit,
	})
}
