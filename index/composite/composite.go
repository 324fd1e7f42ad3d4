// Package composite implements the CompositeIndex: a KD-tree forest and
// a hierarchical k-means tree, both built with their own canonical
// defaults, searched together against one shared ResultSink.
package composite

import (
	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
	"github.com/hupe1980/flann-go/index/kdtree"
	"github.com/hupe1980/flann-go/index/kmeans"
	"github.com/hupe1980/flann-go/querystate"
)

func init() {
	index.Register(index.Composite, func(ds *dataset.Dataset, opts index.BuildOptions) (index.Index, error) {
		return New(ds, opts)
	})
}

// Composite holds one KD forest and one k-means tree over the same
// dataset. Each sub-index builds with its own canonical defaults rather
// than the caller's BuildOptions verbatim: a caller tuning one algorithm
// family (say, forest size) should not silently mis-tune the other.
type Composite struct {
	ds     *dataset.Dataset
	forest *kdtree.Forest
	tree   *kmeans.Tree
}

// New creates an unbuilt Composite over ds. opts.Space carries through to
// both sub-indexes; all other fields use each sub-index's own defaults.
func New(ds *dataset.Dataset, opts index.BuildOptions) (*Composite, error) {
	if err := index.ValidateBasicOptions(ds); err != nil {
		return nil, err
	}

	forestOpts := index.DefaultBuildOptions
	forestOpts.Space = opts.Space
	forest, err := kdtree.New(ds, forestOpts)
	if err != nil {
		return nil, err
	}

	treeOpts := index.DefaultBuildOptions
	treeOpts.Space = opts.Space
	tree, err := kmeans.New(ds, treeOpts)
	if err != nil {
		return nil, err
	}

	return &Composite{ds: ds, forest: forest, tree: tree}, nil
}

func (c *Composite) Name() string { return string(index.Composite) }
func (c *Composite) Size() int    { return c.ds.Rows() }
func (c *Composite) VecLen() int  { return c.ds.Cols() }

func (c *Composite) UsedMemory() int {
	return c.forest.UsedMemory() + c.tree.UsedMemory()
}

// BuildIndex builds both sub-indexes.
func (c *Composite) BuildIndex() error {
	if err := c.forest.BuildIndex(); err != nil {
		return err
	}
	return c.tree.BuildIndex()
}

// FindNeighbors searches the forest, then the tree, against the same
// sink, through one shared querystate: both sub-searches decrement the
// same ChecksRemaining budget and suppress the same Visited points
// (including any the caller pre-marked, e.g. a querydriver skip
// exclusion). Only Branches is reset between the two, since the forest
// can return with branches still queued and the forest's and tree's
// node-ref encodings are incompatible.
func (c *Composite) FindNeighbors(state *querystate.State, sink index.ResultSink, q []float32) error {
	if len(q) != c.ds.Cols() {
		return &index.ErrDimensionMismatch{Expected: c.ds.Cols(), Actual: len(q)}
	}

	checks := -1
	cb := float32(-1)
	if state != nil {
		checks = state.ChecksRemaining
		cb = state.CBIndex
	}

	shared := querystate.Get(c.ds.Rows(), checks)
	originalVisited := shared.Visited
	defer func() {
		shared.Visited = originalVisited
		querystate.Put(shared)
	}()
	shared.CBIndex = cb
	if state != nil {
		shared.Visited = state.Visited
	}

	if err := c.forest.FindNeighbors(shared, sink, q); err != nil {
		return err
	}

	shared.Branches.Reset()
	if err := c.tree.FindNeighbors(shared, sink, q); err != nil {
		return err
	}

	if state != nil {
		state.ChecksRemaining = shared.ChecksRemaining
	}
	return nil
}
