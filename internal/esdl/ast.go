package esdl

import "github.com/zclconf/go-cty/cty"

// Program is the parsed form of one pipeline definition: the top-level
// statements (executed once to establish initial populations) and the named
// blocks (the block named "generation" is the per-generation loop body).
type Program struct {
	Init   []Statement
	Blocks []*Block
}

// Block finds a named block, or nil.
func (p *Program) Block(name string) *Block {
	for _, b := range p.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

type Statement interface {
	Pos() Pos
	stmt()
}

// Block is `BEGIN name ... END [name]`. Blocks do not nest.
type Block struct {
	Name    string
	Body    []Statement
	BeginAt Pos
}

// From is `FROM sources SELECT count dest [USING op, op...]`.
type From struct {
	Sources []Source
	Count   Expr
	Dest    string
	Using   []*OpCall
	At      Pos
}

// Source is one entry of a FROM clause: either an existing group name or a
// generator invocation.
type Source struct {
	Group string
	Call  *OpCall
	At    Pos
}

// Yield is `YIELD group[, group...]`: the generation's observable checkpoint.
type Yield struct {
	Groups []string
	At     Pos
}

// Eval is `EVAL group[, group...] [USING evaluator]`.
type Eval struct {
	Groups []string
	Using  *OpCall
	At     Pos
}

// Assign is `name = expr`, folded at bind time into the statement-local
// scope.
type Assign struct {
	Name  string
	Value Expr
	At    Pos
}

// OpCall is an operator invocation `name(key=value, ...)`.
type OpCall struct {
	Name string
	Args []Arg
	At   Pos
}

// Arg is one named operator argument.
type Arg struct {
	Name  string
	Value Expr
	At    Pos
}

func (b *Block) Pos() Pos  { return b.BeginAt }
func (f *From) Pos() Pos   { return f.At }
func (y *Yield) Pos() Pos  { return y.At }
func (e *Eval) Pos() Pos   { return e.At }
func (a *Assign) Pos() Pos { return a.At }

func (*Block) stmt()  {}
func (*From) stmt()   {}
func (*Yield) stmt()  {}
func (*Eval) stmt()   {}
func (*Assign) stmt() {}

// Expr is a node of the restricted expression grammar: literals, dotted
// configuration references, and a fixed arithmetic/boolean operator set.
// There is no call syntax and no general evaluation.
type Expr interface {
	Pos() Pos
	expr()
}

// Literal holds a number, string or boolean constant.
type Literal struct {
	Value cty.Value
	At    Pos
}

// Ref is a dotted reference into the configuration context, e.g.
// `system.size`.
type Ref struct {
	Path []string
	At   Pos
}

// Name returns the dotted form of the reference.
func (r *Ref) Name() string {
	out := r.Path[0]
	for _, part := range r.Path[1:] {
		out += "." + part
	}
	return out
}

type Unary struct {
	Op string // "-" or "not"
	X  Expr
	At Pos
}

type Binary struct {
	Op   string // + - * / % ^ == != < <= > >= and or
	L, R Expr
	At   Pos
}

func (l *Literal) Pos() Pos { return l.At }
func (r *Ref) Pos() Pos     { return r.At }
func (u *Unary) Pos() Pos   { return u.At }
func (b *Binary) Pos() Pos  { return b.At }

func (*Literal) expr() {}
func (*Ref) expr()     {}
func (*Unary) expr()   {}
func (*Binary) expr()  {}
