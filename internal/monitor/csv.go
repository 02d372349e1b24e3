package monitor

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/zooba/esec/internal/interp"
	"github.com/zooba/esec/internal/stats"
)

// CSV writes one record per yield checkpoint.
type CSV struct {
	w *csv.Writer
}

func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

func (c *CSV) OnRunStart(context.Context) {
	_ = c.w.Write([]string{"generation", "group", "size", "best", "mean", "stddev", "evaluations"})
}

func (c *CSV) OnYield(_ context.Context, cp interp.Checkpoint) error {
	s := stats.Summarize(cp.Generation, cp.Group, cp.Members, cp.Evaluations)
	return c.w.Write([]string{
		strconv.Itoa(s.Generation),
		s.Group,
		strconv.Itoa(s.Size),
		strconv.FormatFloat(s.BestFitness, 'g', -1, 64),
		strconv.FormatFloat(s.MeanFitness, 'g', -1, 64),
		strconv.FormatFloat(s.StddevFit, 'g', -1, 64),
		strconv.Itoa(s.Evaluations),
	})
}

func (c *CSV) OnRunEnd(context.Context, error) {
	c.w.Flush()
}
