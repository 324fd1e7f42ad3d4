// Package linear implements the exhaustive baseline used as the exact
// oracle by the autotuner and ground-truth harness, and directly
// selectable as the "linear" algorithm.
package linear

import (
	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
	"github.com/hupe1980/flann-go/querystate"
)

func init() {
	index.Register(index.Linear, func(ds *dataset.Dataset, opts index.BuildOptions) (index.Index, error) {
		return New(ds, opts)
	})
}

// Linear sweeps every row of its Dataset on every query. It has no
// build cost and is always exact.
type Linear struct {
	ds   *dataset.Dataset
	opts index.BuildOptions
}

// New creates a Linear index over ds. BuildIndex is a no-op but must
// still be called once, per the shared Index lifecycle.
func New(ds *dataset.Dataset, opts index.BuildOptions) (*Linear, error) {
	if err := index.ValidateBasicOptions(ds); err != nil {
		return nil, err
	}
	return &Linear{ds: ds, opts: opts}, nil
}

func (l *Linear) Name() string { return string(index.Linear) }

// BuildIndex is a no-op: LinearSearch has no build cost.
func (l *Linear) BuildIndex() error { return nil }

func (l *Linear) Size() int    { return l.ds.Rows() }
func (l *Linear) VecLen() int  { return l.ds.Cols() }
func (l *Linear) UsedMemory() int {
	// No additional structure beyond the Dataset itself.
	return 0
}

// FindNeighbors scores every row against q with early-exit against the
// sink's current worst-accepted distance.
func (l *Linear) FindNeighbors(state *querystate.State, sink index.ResultSink, q []float32) error {
	if len(q) != l.ds.Cols() {
		return &index.ErrDimensionMismatch{Expected: l.ds.Cols(), Actual: len(q)}
	}

	for i := 0; i < l.ds.Rows(); i++ {
		if state != nil && state.Visited.Visited(i) {
			continue
		}
		if state != nil && !state.ConsumeCheck() {
			break
		}
		d := l.opts.Space.Distance(q, l.ds.Row(i), sink.WorstDist())
		if d <= sink.WorstDist() {
			sink.AddPoint(d, i)
		}
	}
	return nil
}
