package interp

import (
	"context"
	"errors"
	"fmt"

	"github.com/zooba/esec/internal/bind"
	"github.com/zooba/esec/internal/model"
	"github.com/zooba/esec/internal/op"
)

// State is the interpreter's lifecycle position.
type State string

const (
	StateInitializing State = "initializing"
	StateRunning      State = "running_generation"
	StateTerminated   State = "terminated"
)

// GenerationBlock is the block executed once per Step.
const GenerationBlock = "generation"

var ErrTerminated = errors.New("interpreter already terminated")

// Interpreter executes one bound pipeline. It owns its populations and its
// runtime; nothing is shared between concurrent interpreters. Cancellation
// is cooperative and only observed at step boundaries.
type Interpreter struct {
	prog  *bind.Program
	rt    *op.Runtime
	mon   Monitor
	limit int

	state      State
	generation int
	groups     map[string][]*model.Individual
}

// New builds an interpreter. limit is the number of generations to run; 0
// means unbounded.
func New(prog *bind.Program, rt *op.Runtime, mon Monitor, limit int) *Interpreter {
	if mon == nil {
		mon = NopMonitor{}
	}
	return &Interpreter{
		prog:   prog,
		rt:     rt,
		mon:    mon,
		limit:  limit,
		state:  StateInitializing,
		groups: make(map[string][]*model.Individual),
	}
}

func (it *Interpreter) State() State    { return it.state }
func (it *Interpreter) Generation() int { return it.generation }

// Group returns the current contents of a named population.
func (it *Interpreter) Group(name string) []*model.Individual {
	return it.groups[name]
}

// Init executes the top-level statements once. If the program has no
// generation block the run is single-shot and terminates here.
func (it *Interpreter) Init(ctx context.Context) error {
	if it.state != StateInitializing {
		return fmt.Errorf("init in state %s", it.state)
	}
	if _, err := it.exec(ctx, it.prog.Init); err != nil {
		it.state = StateTerminated
		return err
	}
	if it.prog.Block(GenerationBlock) == nil {
		it.state = StateTerminated
		return nil
	}
	it.state = StateRunning
	return nil
}

// Step executes the generation block exactly once. The generation counter
// advances after any step in which a YIELD completed.
func (it *Interpreter) Step(ctx context.Context) error {
	if it.state == StateTerminated {
		return ErrTerminated
	}
	if it.state != StateRunning {
		return fmt.Errorf("step in state %s", it.state)
	}
	if err := ctx.Err(); err != nil {
		it.state = StateTerminated
		return err
	}

	block := it.prog.Block(GenerationBlock)
	yielded, err := it.exec(ctx, block.Body)
	if err != nil {
		it.state = StateTerminated
		return err
	}
	if yielded {
		it.generation++
	}
	if it.limit > 0 && it.generation >= it.limit {
		it.state = StateTerminated
	}
	return nil
}

// ExecBlock runs a named non-generation block on host request.
func (it *Interpreter) ExecBlock(ctx context.Context, name string) error {
	if it.state == StateTerminated {
		return ErrTerminated
	}
	block := it.prog.Block(name)
	if block == nil {
		return fmt.Errorf("no block named %q", name)
	}
	_, err := it.exec(ctx, block.Body)
	if err != nil {
		it.state = StateTerminated
	}
	return err
}

// Run drives the interpreter to termination: Init, then Step until the
// generation limit, a failure, or cancellation.
func (it *Interpreter) Run(ctx context.Context) error {
	it.mon.OnRunStart(ctx)
	err := it.run(ctx)
	it.mon.OnRunEnd(ctx, err)
	return err
}

func (it *Interpreter) run(ctx context.Context) error {
	if err := it.Init(ctx); err != nil {
		return err
	}
	for it.state == StateRunning {
		if err := it.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) exec(ctx context.Context, stmts []bind.Statement) (yielded bool, err error) {
	for _, stmt := range stmts {
		switch stmt := stmt.(type) {
		case *bind.From:
			if err := it.execFrom(ctx, stmt); err != nil {
				return yielded, err
			}
		case *bind.Yield:
			if err := it.execYield(ctx, stmt); err != nil {
				return yielded, err
			}
			yielded = true
		case *bind.Eval:
			if err := it.execEval(ctx, stmt); err != nil {
				return yielded, err
			}
		default:
			return yielded, fmt.Errorf("%s: unexpected statement", stmt.At())
		}
	}
	return yielded, nil
}

// execFrom merges the sources in order, applies the operator chain left to
// right and replaces the destination group. The final stream must meet the
// SELECT count: shortfall is always an error; surplus is truncated only when
// the last operator does not promise an exact count.
func (it *Interpreter) execFrom(ctx context.Context, stmt *bind.From) error {
	var stream []*model.Individual
	for _, src := range stmt.Sources {
		if src.Gen == nil {
			stream = append(stream, it.groups[src.Group]...)
			continue
		}
		want := stmt.Count - len(stream)
		if want < 0 {
			want = 0
		}
		out, err := src.Gen.Desc.Apply(ctx, it.rt, nil, want, src.Gen.Args)
		if err != nil {
			return &OperatorExecutionError{At: stmt.Pos, Name: src.Gen.Desc.Name, Err: err}
		}
		stream = append(stream, out...)
	}

	exact := false
	for i := range stmt.Using {
		bop := &stmt.Using[i]
		out, err := bop.Desc.Apply(ctx, it.rt, stream, stmt.Count, bop.Args)
		if err != nil {
			return &OperatorExecutionError{At: stmt.Pos, Name: bop.Desc.Name, Err: err}
		}
		stream = out
		exact = bop.Desc.Exact
	}

	if len(stream) < stmt.Count {
		return &PopulationSizeError{At: stmt.Pos, Dest: stmt.Dest, Want: stmt.Count, Got: len(stream)}
	}
	if len(stream) > stmt.Count {
		if exact {
			return &PopulationSizeError{At: stmt.Pos, Dest: stmt.Dest, Want: stmt.Count, Got: len(stream)}
		}
		stream = stream[:stmt.Count]
	}
	it.groups[stmt.Dest] = stream
	return nil
}

// execYield forces evaluation of each group, then publishes it to the
// monitor. The checkpoint carries the generation being produced by the
// current step.
func (it *Interpreter) execYield(ctx context.Context, stmt *bind.Yield) error {
	gen := it.generation
	if it.state == StateRunning {
		gen++
	}
	for _, name := range stmt.Groups {
		for _, ind := range it.groups[name] {
			if _, err := it.rt.Fitness(ctx, ind); err != nil {
				return &OperatorExecutionError{At: stmt.Pos, Name: "yield", Err: err}
			}
		}
		cp := Checkpoint{
			Generation:  gen,
			Group:       name,
			Members:     it.groups[name],
			Evaluations: it.rt.Evaluations(),
		}
		if err := it.mon.OnYield(ctx, cp); err != nil {
			return &OperatorExecutionError{At: stmt.Pos, Name: "monitor", Err: err}
		}
	}
	return nil
}

func (it *Interpreter) execEval(ctx context.Context, stmt *bind.Eval) error {
	ev := stmt.Evaluator
	if ev == nil {
		ev = it.rt.Evaluator
	}
	for _, name := range stmt.Groups {
		for _, ind := range it.groups[name] {
			if _, err := it.rt.EvaluateWith(ctx, ev, ind); err != nil {
				return &OperatorExecutionError{At: stmt.Pos, Name: "eval", Err: err}
			}
		}
	}
	return nil
}
