package monitor

import (
	"context"

	"github.com/zooba/esec/internal/interp"
)

// Multi fans every event out to each monitor in order. The first OnYield
// error stops the fan-out and terminates the run.
type Multi []interp.Monitor

func (m Multi) OnRunStart(ctx context.Context) {
	for _, mon := range m {
		mon.OnRunStart(ctx)
	}
}

func (m Multi) OnYield(ctx context.Context, cp interp.Checkpoint) error {
	for _, mon := range m {
		if err := mon.OnYield(ctx, cp); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) OnRunEnd(ctx context.Context, err error) {
	for _, mon := range m {
		mon.OnRunEnd(ctx, err)
	}
}
