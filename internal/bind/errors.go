package bind

import (
	"fmt"

	"github.com/zooba/esec/internal/esdl"
)

// UnresolvedOperatorError reports an operator or evaluator name that no
// registry entry matches.
type UnresolvedOperatorError struct {
	Name string
	At   esdl.Pos
}

func (e *UnresolvedOperatorError) Error() string {
	return fmt.Sprintf("bind error at %s: unresolved operator %q", e.At, e.Name)
}

// UnresolvedVariableError reports a configuration reference with no value in
// any layer or statement-local assignment.
type UnresolvedVariableError struct {
	Name string
	At   esdl.Pos
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("bind error at %s: unresolved variable %q", e.At, e.Name)
}

// BindError reports a schema or chain-shape violation: bad argument types,
// missing required arguments, operators in illegal chain positions, unknown
// populations, invalid counts.
type BindError struct {
	At  esdl.Pos
	Msg string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind error at %s: %s", e.At, e.Msg)
}

func bindErrf(at esdl.Pos, format string, args ...any) *BindError {
	return &BindError{At: at, Msg: fmt.Sprintf(format, args...)}
}
