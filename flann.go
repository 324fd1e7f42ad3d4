// Package flann is an approximate nearest-neighbor (ANN) search library
// over dense real-valued vectors, offering a randomized KD-tree forest,
// a hierarchical k-means tree, a composite of both, an exhaustive linear
// baseline, and a precision-targeted autotuner that picks among them.
//
// # Quick start
//
//	ds, _ := dataset.New(vectors, n, dim)
//	idx, err := flann.NewKDTree(ds, flann.WithTrees(8), flann.WithRandomSeed(42))
//	if err != nil {
//	    panic(err)
//	}
//
//	result := resultset.NewKNN(5)
//	if err := flann.FindNeighbors(idx, result, query, flann.DefaultSearchOptions); err != nil {
//	    panic(err)
//	}
//
// # Autotuning
//
//	tuned, err := flann.Autotune(ds,
//	    flann.WithTargetPrecision(0.9),
//	    flann.WithSampleFraction(0.1),
//	)
package flann

import (
	_ "github.com/hupe1980/flann-go/index/composite"
	_ "github.com/hupe1980/flann-go/index/kdtree"
	_ "github.com/hupe1980/flann-go/index/kmeans"
	_ "github.com/hupe1980/flann-go/index/linear"
	_ "github.com/hupe1980/flann-go/index/vptree"

	"github.com/hupe1980/flann-go/autotune"
	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
	"github.com/hupe1980/flann-go/querystate"
	"github.com/hupe1980/flann-go/resultset"
)

// DefaultSearchOptions is the unlimited-checks default search config.
var DefaultSearchOptions = index.DefaultSearchOptions

// SearchOptions re-exports index.SearchOptions so callers need not
// import package index for the common path.
type SearchOptions = index.SearchOptions

// NewKDTree builds a randomized KD-tree forest over ds.
func NewKDTree(ds *dataset.Dataset, opts ...Option) (index.Index, error) {
	o := applyOptions(opts)
	idx, err := index.Create(index.KDTree, ds, o.build)
	if err != nil {
		return nil, translateError(err)
	}
	if err := idx.BuildIndex(); err != nil {
		o.logger.LogBuild(idx.Name(), idx.Size(), err)
		return nil, translateError(err)
	}
	o.logger.LogBuild(idx.Name(), idx.Size(), nil)
	return idx, nil
}

// NewKMeansTree builds a hierarchical k-means tree over ds.
func NewKMeansTree(ds *dataset.Dataset, opts ...Option) (index.Index, error) {
	o := applyOptions(opts)
	idx, err := index.Create(index.KMeans, ds, o.build)
	if err != nil {
		return nil, translateError(err)
	}
	if err := idx.BuildIndex(); err != nil {
		o.logger.LogBuild(idx.Name(), idx.Size(), err)
		return nil, translateError(err)
	}
	o.logger.LogBuild(idx.Name(), idx.Size(), nil)
	return idx, nil
}

// NewComposite builds a CompositeTree (one KD forest + one k-means tree,
// each with its own canonical defaults) over ds.
func NewComposite(ds *dataset.Dataset, opts ...Option) (index.Index, error) {
	o := applyOptions(opts)
	idx, err := index.Create(index.Composite, ds, o.build)
	if err != nil {
		return nil, translateError(err)
	}
	if err := idx.BuildIndex(); err != nil {
		o.logger.LogBuild(idx.Name(), idx.Size(), err)
		return nil, translateError(err)
	}
	o.logger.LogBuild(idx.Name(), idx.Size(), nil)
	return idx, nil
}

// NewLinear builds the exhaustive linear-search baseline over ds.
func NewLinear(ds *dataset.Dataset, opts ...Option) (index.Index, error) {
	o := applyOptions(opts)
	idx, err := index.Create(index.Linear, ds, o.build)
	if err != nil {
		return nil, translateError(err)
	}
	if err := idx.BuildIndex(); err != nil {
		return nil, translateError(err)
	}
	o.logger.LogBuild(idx.Name(), idx.Size(), nil)
	return idx, nil
}

// AutotuneResult carries the autotuner's telemetry alongside the
// built, ready-to-query index it selected.
type AutotuneResult struct {
	Index         index.Index
	SearchOptions SearchOptions
	Shortfall     float64
	Speedup       float64
	SessionID     string
}

// Autotune samples ds, grid-searches algorithm and parameters for the
// configured target precision, builds the winning candidate over the
// full dataset, and returns it ready to query.
//
// A nonzero Shortfall means the grid could not reach TargetPrecision;
// per spec this is logged, not returned as an error.
func Autotune(ds *dataset.Dataset, opts ...Option) (*AutotuneResult, error) {
	o := applyOptions(opts)

	cfg := autotune.Config{
		TargetPrecision: o.targetPrecision,
		BuildWeight:     o.buildWeight,
		MemoryWeight:    o.memoryWeight,
		SampleFraction:  o.sampleFraction,
		NN:              o.nn,
		QuerySampleSize: o.querySampleSize,
		RandomSeed:      o.build.RandomSeed,
		Logger:          o.logger.Logger,
	}

	res, err := autotune.Run(ds, cfg)
	if err != nil {
		return nil, translateError(err)
	}

	idx, err := index.Create(res.Algorithm, ds, res.BuildOptions)
	if err != nil {
		return nil, translateError(err)
	}
	if err := idx.BuildIndex(); err != nil {
		return nil, translateError(err)
	}

	if res.Shortfall > 0 {
		o.logger.LogAutotuneShortfall(res.SessionID, o.targetPrecision, o.targetPrecision-res.Shortfall, res.Shortfall)
	}
	o.logger.LogBuild(idx.Name(), idx.Size(), nil)

	return &AutotuneResult{
		Index:         idx,
		SearchOptions: res.SearchOptions,
		Shortfall:     res.Shortfall,
		Speedup:       res.Speedup,
		SessionID:     res.SessionID,
	}, nil
}

// FindNeighbors runs one k-NN query against idx, honoring opts.Checks
// and opts.CBIndex. sink is typically a *resultset.KNN.
func FindNeighbors(idx index.Index, sink index.ResultSink, q []float32, opts SearchOptions) error {
	if idx == nil {
		return &ErrInvalidHandle{Reason: "index is nil"}
	}

	state := querystate.Get(idx.Size(), opts.Checks)
	defer querystate.Put(state)
	state.CBIndex = opts.CBIndex

	if err := idx.FindNeighbors(state, sink, q); err != nil {
		return translateError(err)
	}
	return nil
}

// RadiusSearch finds all points within radius r (squared-distance
// space) of q, truncating to maxNN results ordered by distance. It
// returns the truncated count; when count < maxNN the returned set is
// exact (every point within r was found).
func RadiusSearch(idx index.Index, q []float32, r float32, maxNN int, opts SearchOptions) (indices []int, dists []float32, count int, err error) {
	if idx == nil {
		return nil, nil, 0, &ErrInvalidHandle{Reason: "index is nil"}
	}

	sink := resultset.NewRadius(r)
	state := querystate.Get(idx.Size(), opts.Checks)
	defer querystate.Put(state)
	state.CBIndex = opts.CBIndex

	if err := idx.FindNeighbors(state, sink, q); err != nil {
		return nil, nil, 0, translateError(err)
	}

	allIdx, allDist := sink.Sorted()
	count = len(allIdx)
	if count > maxNN {
		count = maxNN
	}
	return allIdx[:count], allDist[:count], count, nil
}
