package interp

import (
	"context"

	"github.com/zooba/esec/internal/model"
)

// Checkpoint is what a YIELD publishes: the named group at a given
// generation, fully evaluated. The members slice is owned by the
// interpreter; observers must copy anything they keep.
type Checkpoint struct {
	Generation  int
	Group       string
	Members     []*model.Individual
	Evaluations int
}

// Monitor observes a run. Calls are synchronous; a non-nil error from
// OnYield terminates the run.
type Monitor interface {
	OnRunStart(ctx context.Context)
	OnYield(ctx context.Context, cp Checkpoint) error
	OnRunEnd(ctx context.Context, err error)
}

// NopMonitor ignores everything.
type NopMonitor struct{}

func (NopMonitor) OnRunStart(context.Context)             {}
func (NopMonitor) OnYield(context.Context, Checkpoint) error { return nil }
func (NopMonitor) OnRunEnd(context.Context, error)        {}
