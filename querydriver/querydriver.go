// Package querydriver runs a batch of queries against an Index and
// collects the results into output index/distance matrices, the shape
// the ground-truth harness and autotuner both consume.
package querydriver

import (
	"math"

	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
	"github.com/hupe1980/flann-go/querystate"
	"github.com/hupe1980/flann-go/resultset"
)

// SearchForNeighbors runs one FindNeighbors call per row of testset
// against idx, collecting the top-k result into indicesOut and
// distsOut (both pre-allocated T x k matrices). Rows that return fewer
// than k points are padded with the sentinel (-1, +Inf).
//
// skip optionally excludes one point index per query row from its own
// results (leave-one-out ground-truth evaluation); pass nil to disable.
func SearchForNeighbors(idx index.Index, testset *dataset.Dataset, k int, opts index.SearchOptions, indicesOut *dataset.IntMatrix, distsOut *dataset.FloatMatrix, skip []int) error {
	if k <= 0 {
		return &index.ErrInvalidK{K: k}
	}
	if indicesOut.Rows() != testset.Rows() || distsOut.Rows() != testset.Rows() {
		return &index.ErrDimensionMismatch{Expected: testset.Rows(), Actual: indicesOut.Rows()}
	}
	if indicesOut.Cols() != k || distsOut.Cols() != k {
		return &index.ErrInvalidK{K: k}
	}

	state := querystate.Get(idx.Size(), opts.Checks)
	defer querystate.Put(state)

	for row := 0; row < testset.Rows(); row++ {
		state.Reset(opts.Checks)
		state.CBIndex = opts.CBIndex

		sink := resultset.NewKNN(k)
		if skip != nil {
			state.Visited.Visit(skip[row])
		}

		q := testset.Row(row)
		if err := idx.FindNeighbors(state, sink, q); err != nil {
			return err
		}

		indices := sink.Indices()
		dists := sink.Dists()
		outIdxRow := indicesOut.Row(row)
		outDistRow := distsOut.Row(row)
		for c := 0; c < k; c++ {
			if c < len(indices) {
				outIdxRow[c] = indices[c]
				outDistRow[c] = dists[c]
			} else {
				outIdxRow[c] = -1
				outDistRow[c] = float32(math.Inf(1))
			}
		}
	}
	return nil
}
