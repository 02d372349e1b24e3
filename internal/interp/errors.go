package interp

import (
	"fmt"

	"github.com/zooba/esec/internal/esdl"
)

// PopulationSizeError reports a FROM statement whose stream could not meet
// its SELECT count contract.
type PopulationSizeError struct {
	At   esdl.Pos
	Dest string
	Want int
	Got  int
}

func (e *PopulationSizeError) Error() string {
	return fmt.Sprintf("%s: population %q needs %d individuals, got %d", e.At, e.Dest, e.Want, e.Got)
}

// OperatorExecutionError wraps a failure inside an operator, evaluator or
// monitor with the statement that triggered it. There is no retry; the run
// terminates.
type OperatorExecutionError struct {
	At   esdl.Pos
	Name string
	Err  error
}

func (e *OperatorExecutionError) Error() string {
	return fmt.Sprintf("%s: %s failed: %s", e.At, e.Name, e.Err)
}

func (e *OperatorExecutionError) Unwrap() error { return e.Err }
