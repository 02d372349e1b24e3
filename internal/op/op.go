package op

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/zooba/esec/internal/model"
)

// Kind classifies what an operator does to a population stream. The binder
// uses it to check chain shape: generators appear only as FROM sources and a
// selector may only open a USING chain.
type Kind string

const (
	// KindGenerator produces fresh individuals; it takes no input group.
	KindGenerator Kind = "generator"
	// KindSelector draws individuals from its input, typically copying.
	KindSelector Kind = "selector"
	// KindVariator consumes parents and produces the same number of new
	// individuals (crossover, mutation).
	KindVariator Kind = "variator"
	// KindFilter passes through a subset of its input.
	KindFilter Kind = "filter"
)

// ParamSpec describes one named parameter accepted by an operator. A null
// Default marks the parameter required.
type ParamSpec struct {
	Name    string
	Type    cty.Type
	Default cty.Value
}

// Required reports whether the parameter has no usable default.
func (p ParamSpec) Required() bool {
	return p.Default == cty.NilVal
}

// Func applies an operator. in is the incoming stream (nil for generators),
// n is the number of individuals the enclosing SELECT asks for. Operators
// must not mutate their input; variation returns fresh individuals.
type Func func(ctx context.Context, rt *Runtime, in []*model.Individual, n int, args Args) ([]*model.Individual, error)

// Descriptor is the capability record for one operator: its chain position,
// cardinality contract and parameter schema.
type Descriptor struct {
	Name string
	Kind Kind
	// Exact means the operator produces exactly the requested count. A
	// non-exact operator (select_all, filters) produces "whatever it has";
	// surplus over the SELECT count is truncated, shortfall is an error.
	Exact  bool
	Params []ParamSpec
	Apply  Func
}

// Args holds the bound, schema-checked arguments for one invocation. The
// binder has already folded expressions, applied defaults and converted
// values to each parameter's declared type, so accessors can be direct.
type Args map[string]cty.Value

func (a Args) Int(name string) int {
	v, ok := a[name]
	if !ok || v.IsNull() {
		return 0
	}
	i, _ := v.AsBigFloat().Int64()
	return int(i)
}

func (a Args) Int64(name string) int64 {
	v, ok := a[name]
	if !ok || v.IsNull() {
		return 0
	}
	i, _ := v.AsBigFloat().Int64()
	return i
}

func (a Args) Float(name string) float64 {
	v, ok := a[name]
	if !ok || v.IsNull() {
		return 0
	}
	f, _ := v.AsBigFloat().Float64()
	return f
}

func (a Args) Bool(name string) bool {
	v, ok := a[name]
	if !ok || v.IsNull() {
		return false
	}
	return v.True()
}

func (a Args) String(name string) string {
	v, ok := a[name]
	if !ok || v.IsNull() {
		return ""
	}
	return v.AsString()
}

// Has reports whether the argument was supplied (or defaulted) non-null.
func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && !v.IsNull()
}
