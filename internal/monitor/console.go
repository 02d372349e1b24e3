package monitor

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/zooba/esec/internal/interp"
	"github.com/zooba/esec/internal/stats"
)

// Console prints one summary line per yield checkpoint in aligned columns.
type Console struct {
	tw *tabwriter.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{tw: tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)}
}

func (c *Console) OnRunStart(context.Context) {
	fmt.Fprintln(c.tw, "GEN\tGROUP\tSIZE\tBEST\tMEAN\tSTDDEV\tEVALS")
}

func (c *Console) OnYield(_ context.Context, cp interp.Checkpoint) error {
	s := stats.Summarize(cp.Generation, cp.Group, cp.Members, cp.Evaluations)
	fmt.Fprintf(c.tw, "%d\t%s\t%d\t%g\t%g\t%g\t%d\n",
		s.Generation, s.Group, s.Size, s.BestFitness, s.MeanFitness, s.StddevFit, s.Evaluations)
	return nil
}

func (c *Console) OnRunEnd(_ context.Context, err error) {
	if err != nil {
		fmt.Fprintf(c.tw, "run failed:\t%s\n", err)
	}
	c.tw.Flush()
}
