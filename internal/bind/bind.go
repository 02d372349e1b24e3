package bind

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/zooba/esec/internal/config"
	"github.com/zooba/esec/internal/esdl"
	"github.com/zooba/esec/internal/landscape"
	"github.com/zooba/esec/internal/op"
)

// Program is the bound form of a pipeline: every operator reference resolved
// to a descriptor, every argument folded and schema-checked, every count a
// concrete integer. The interpreter executes it without consulting the
// registries or the configuration again.
type Program struct {
	Init   []Statement
	Blocks []*Block
}

// Block finds a named bound block, or nil.
func (p *Program) Block(name string) *Block {
	for _, b := range p.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

type Block struct {
	Name string
	Body []Statement
}

type Statement interface {
	At() esdl.Pos
}

// From is a bound `FROM ... SELECT ... USING ...` statement.
type From struct {
	Sources []Source
	Count   int
	Dest    string
	Using   []BoundOp
	Pos     esdl.Pos
}

// Source is one bound FROM source: either an existing group name or a bound
// generator invocation.
type Source struct {
	Group string
	Gen   *BoundOp
}

type Yield struct {
	Groups []string
	Pos    esdl.Pos
}

// Eval forces evaluation of groups. A nil Evaluator means the run default.
type Eval struct {
	Groups    []string
	Evaluator op.Evaluator
	Pos       esdl.Pos
}

// BoundOp is one resolved operator invocation with its folded arguments.
type BoundOp struct {
	Desc op.Descriptor
	Args op.Args
	Pos  esdl.Pos
}

func (f *From) At() esdl.Pos  { return f.Pos }
func (y *Yield) At() esdl.Pos { return y.Pos }
func (e *Eval) At() esdl.Pos  { return e.Pos }

// Binder resolves a parsed program against the host's registries and the
// composed configuration snapshot.
type Binder struct {
	Ops        *op.Registry
	Evaluators *landscape.Registry
	Config     config.Snapshot
}

// Bind folds and checks the whole program. Assignment statements do not
// survive binding; their values fold into a statement-local scope that
// shadows the configuration for everything after them.
func (b *Binder) Bind(prog *esdl.Program) (*Program, error) {
	out := &Program{}
	scope := b.Config
	groups := make(map[string]bool)

	for _, stmt := range prog.Init {
		bound, err := b.bindStatement(stmt, &scope, groups)
		if err != nil {
			return nil, err
		}
		if bound != nil {
			out.Init = append(out.Init, bound)
		}
	}

	for _, block := range prog.Blocks {
		// Each block sees the groups established by init, plus its own, and
		// a fresh copy of the post-init scope.
		blockScope := scope
		blockGroups := make(map[string]bool, len(groups))
		for name := range groups {
			blockGroups[name] = true
		}
		bb := &Block{Name: block.Name}
		for _, stmt := range block.Body {
			bound, err := b.bindStatement(stmt, &blockScope, blockGroups)
			if err != nil {
				return nil, err
			}
			if bound != nil {
				bb.Body = append(bb.Body, bound)
			}
		}
		out.Blocks = append(out.Blocks, bb)
	}
	return out, nil
}

func (b *Binder) bindStatement(stmt esdl.Statement, scope *config.Snapshot, groups map[string]bool) (Statement, error) {
	switch stmt := stmt.(type) {
	case *esdl.Assign:
		v, err := evalExpr(stmt.Value, *scope)
		if err != nil {
			return nil, err
		}
		*scope = scope.With(stmt.Name, v)
		return nil, nil

	case *esdl.From:
		return b.bindFrom(stmt, *scope, groups)

	case *esdl.Yield:
		for _, g := range stmt.Groups {
			if !groups[g] {
				return nil, bindErrf(stmt.At, "YIELD of unknown population %q", g)
			}
		}
		return &Yield{Groups: stmt.Groups, Pos: stmt.At}, nil

	case *esdl.Eval:
		for _, g := range stmt.Groups {
			if !groups[g] {
				return nil, bindErrf(stmt.At, "EVAL of unknown population %q", g)
			}
		}
		ev, err := b.bindEvaluator(stmt.Using)
		if err != nil {
			return nil, err
		}
		return &Eval{Groups: stmt.Groups, Evaluator: ev, Pos: stmt.At}, nil
	}
	return nil, bindErrf(stmt.Pos(), "statement cannot appear here")
}

func (b *Binder) bindFrom(stmt *esdl.From, scope config.Snapshot, groups map[string]bool) (Statement, error) {
	out := &From{Dest: stmt.Dest, Pos: stmt.At}

	for _, src := range stmt.Sources {
		if src.Call == nil {
			if !groups[src.Group] {
				return nil, bindErrf(src.At, "unknown population %q", src.Group)
			}
			out.Sources = append(out.Sources, Source{Group: src.Group})
			continue
		}
		gen, err := b.bindOp(src.Call, scope)
		if err != nil {
			return nil, err
		}
		if gen.Desc.Kind != op.KindGenerator {
			return nil, bindErrf(src.Call.At, "%s is a %s and cannot be a FROM source", gen.Desc.Name, gen.Desc.Kind)
		}
		out.Sources = append(out.Sources, Source{Gen: gen})
	}

	count, err := evalCount(stmt.Count, scope)
	if err != nil {
		return nil, err
	}
	out.Count = count

	for i, call := range stmt.Using {
		bop, err := b.bindOp(call, scope)
		if err != nil {
			return nil, err
		}
		switch {
		case bop.Desc.Kind == op.KindGenerator:
			return nil, bindErrf(call.At, "generator %s cannot appear in a USING chain", bop.Desc.Name)
		case bop.Desc.Kind == op.KindSelector && i > 0:
			return nil, bindErrf(call.At, "selector %s may only open a USING chain", bop.Desc.Name)
		}
		out.Using = append(out.Using, *bop)
	}

	groups[stmt.Dest] = true
	return out, nil
}

func (b *Binder) bindOp(call *esdl.OpCall, scope config.Snapshot) (*BoundOp, error) {
	desc, err := b.Ops.Resolve(call.Name)
	if err != nil {
		return nil, &UnresolvedOperatorError{Name: call.Name, At: call.At}
	}
	args, err := b.bindArgs(call, desc, scope)
	if err != nil {
		return nil, err
	}
	return &BoundOp{Desc: desc, Args: args, Pos: call.At}, nil
}

// bindArgs folds the supplied arguments, checks them against the operator's
// parameter schema and fills defaults.
func (b *Binder) bindArgs(call *esdl.OpCall, desc op.Descriptor, scope config.Snapshot) (op.Args, error) {
	specs := make(map[string]op.ParamSpec, len(desc.Params))
	for _, p := range desc.Params {
		specs[p.Name] = p
	}

	args := make(op.Args, len(desc.Params))
	for _, arg := range call.Args {
		spec, ok := specs[arg.Name]
		if !ok {
			return nil, bindErrf(arg.At, "%s does not accept an argument %q", desc.Name, arg.Name)
		}
		if _, dup := args[arg.Name]; dup {
			return nil, bindErrf(arg.At, "duplicate argument %q", arg.Name)
		}
		v, err := evalExpr(arg.Value, scope)
		if err != nil {
			return nil, err
		}
		converted, err := convert.Convert(v, spec.Type)
		if err != nil {
			return nil, bindErrf(arg.At, "argument %q of %s: %s", arg.Name, desc.Name, err)
		}
		args[arg.Name] = converted
	}

	for _, spec := range desc.Params {
		if _, ok := args[spec.Name]; ok {
			continue
		}
		if spec.Required() {
			return nil, bindErrf(call.At, "%s requires argument %q", desc.Name, spec.Name)
		}
		if spec.Default != cty.NilVal {
			args[spec.Name] = spec.Default
		}
	}
	return args, nil
}

func (b *Binder) bindEvaluator(call *esdl.OpCall) (op.Evaluator, error) {
	if call == nil {
		return nil, nil
	}
	if len(call.Args) > 0 {
		return nil, bindErrf(call.At, "evaluator %s does not take arguments", call.Name)
	}
	ev, err := b.Evaluators.Resolve(call.Name)
	if err != nil {
		return nil, &UnresolvedOperatorError{Name: call.Name, At: call.At}
	}
	return ev, nil
}
