// Package kdtree implements the randomized KD-tree forest: T
// independently randomized trees sharing one best-bin-first traversal,
// one branch priority queue, and one checks budget per query.
package kdtree

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
	"github.com/hupe1980/flann-go/querystate"
	"github.com/hupe1980/flann-go/util"
)

func init() {
	index.Register(index.KDTree, func(ds *dataset.Dataset, opts index.BuildOptions) (index.Index, error) {
		return New(ds, opts)
	})
}

// node is either a leaf holding a single point index, or an internal
// node with a split dimension/value and two child refs.
type node struct {
	leaf       bool
	point      int32
	splitDim   int16
	splitValue float32
	lo, hi     int32
}

// tree is one randomized KD-tree: an arena of nodes indexed by int32,
// avoiding recursive owning pointers per the arena-of-nodes design note.
type tree struct {
	nodes []node
	root  int32
}

// Forest is the KD-tree forest index variant.
type Forest struct {
	ds    *dataset.Dataset
	opts  index.BuildOptions
	trees []*tree
}

// New creates an unbuilt Forest over ds with the given options.
func New(ds *dataset.Dataset, opts index.BuildOptions) (*Forest, error) {
	if err := index.ValidateBasicOptions(ds); err != nil {
		return nil, err
	}
	if opts.Trees < 1 {
		opts.Trees = index.DefaultBuildOptions.Trees
	}
	if opts.SampleSize < 1 {
		opts.SampleSize = index.DefaultBuildOptions.SampleSize
	}
	return &Forest{ds: ds, opts: opts}, nil
}

func (f *Forest) Name() string { return string(index.KDTree) }
func (f *Forest) Size() int    { return f.ds.Rows() }
func (f *Forest) VecLen() int  { return f.ds.Cols() }

// UsedMemory approximates the forest's footprint: 2N-1 node structs per
// tree (a binary tree with N single-point leaves has 2N-1 nodes).
func (f *Forest) UsedMemory() int {
	const bytesPerNode = 16 // leaf/splitDim/splitValue/lo/hi, packed
	return f.opts.Trees * (2*f.ds.Rows() - 1) * bytesPerNode
}

// BuildIndex builds the T randomized trees. One-shot.
func (f *Forest) BuildIndex() error {
	rng := util.NewRNG(f.opts.RandomSeed)

	members := make([]int, f.ds.Rows())
	for i := range members {
		members[i] = i
	}

	f.trees = make([]*tree, f.opts.Trees)
	for t := 0; t < f.opts.Trees; t++ {
		tr := &tree{nodes: make([]node, 0, 2*len(members))}
		tr.root = tr.build(members, f.ds, rng, f.opts.SampleSize)
		f.trees[t] = tr
	}
	return nil
}

// build recursively splits members, returning the new subtree's root index.
func (t *tree) build(members []int, ds *dataset.Dataset, rng *util.RNG, sampleSize int) int32 {
	if len(members) == 1 {
		t.nodes = append(t.nodes, node{leaf: true, point: int32(members[0])})
		return int32(len(t.nodes) - 1)
	}

	dim := chooseSplitDim(members, ds, rng, sampleSize)
	splitValue := meanAlongDim(members, ds, dim)

	var lo, hi []int
	for _, m := range members {
		if ds.Row(m)[dim] < splitValue {
			lo = append(lo, m)
		} else {
			hi = append(hi, m)
		}
	}
	if len(lo) == 0 || len(hi) == 0 {
		lo, hi = medianSplit(members, ds, dim)
	}

	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{})

	loRef := t.build(lo, ds, rng, sampleSize)
	hiRef := t.build(hi, ds, rng, sampleSize)

	t.nodes[idx] = node{
		splitDim:   int16(dim),
		splitValue: splitValue,
		lo:         loRef,
		hi:         hiRef,
	}
	return idx
}

// chooseSplitDim picks a dimension uniformly at random from the top 5
// highest-variance dimensions over a random sample of up to sampleSize
// member points.
func chooseSplitDim(members []int, ds *dataset.Dataset, rng *util.RNG, sampleSize int) int {
	n := len(members)
	sampled := members
	if n > sampleSize {
		idx := rng.Sample(n, sampleSize)
		sampled = make([]int, len(idx))
		for i, j := range idx {
			sampled[i] = members[j]
		}
	}

	cols := ds.Cols()
	type dimVar struct {
		dim int
		v   float64
	}
	vars := make([]dimVar, cols)
	col := make([]float64, len(sampled))
	for d := 0; d < cols; d++ {
		for i, m := range sampled {
			col[i] = float64(ds.Row(m)[d])
		}
		vars[d] = dimVar{dim: d, v: stat.Variance(col, nil)}
	}

	sort.Slice(vars, func(i, j int) bool { return vars[i].v > vars[j].v })

	top := vars
	if len(top) > 5 {
		top = top[:5]
	}
	return top[rng.Intn(len(top))].dim
}

func meanAlongDim(members []int, ds *dataset.Dataset, dim int) float32 {
	var sum float32
	for _, m := range members {
		sum += ds.Row(m)[dim]
	}
	return sum / float32(len(members))
}

// medianSplit breaks a degenerate (all-equal-along-dim) partition by
// sorting members along dim and splitting them in half.
func medianSplit(members []int, ds *dataset.Dataset, dim int) (lo, hi []int) {
	sorted := append([]int(nil), members...)
	sort.Slice(sorted, func(i, j int) bool { return ds.Row(sorted[i])[dim] < ds.Row(sorted[j])[dim] })
	mid := len(sorted) / 2
	return sorted[:mid], sorted[mid:]
}

// ref packs (treeIdx, nodeIdx) into the branch queue's uint32 NodeRef.
// Up to 256 trees and 16M nodes per tree, comfortably above the spec's
// forest-size grid and any dataset this core is meant to index.
func ref(treeIdx, nodeIdx int) uint32 {
	return uint32(treeIdx)<<24 | uint32(nodeIdx)&0x00FFFFFF
}

func decodeRef(r uint32) (treeIdx, nodeIdx int) {
	return int(r >> 24), int(r & 0x00FFFFFF)
}

// FindNeighbors runs the shared best-first traversal across all T trees.
func (f *Forest) FindNeighbors(state *querystate.State, sink index.ResultSink, q []float32) error {
	if len(q) != f.ds.Cols() {
		return &index.ErrDimensionMismatch{Expected: f.ds.Cols(), Actual: len(q)}
	}

	for t, tr := range f.trees {
		f.descend(t, tr, tr.root, 0, state, sink, q)
		if state != nil && state.Exhausted() {
			break
		}
	}

	if state == nil {
		return nil
	}

	for !state.Exhausted() {
		b, ok := state.Branches.Pop()
		if !ok {
			break
		}
		if b.LowerBound >= sink.WorstDist() {
			break
		}
		t, nodeIdx := decodeRef(b.NodeRef)
		f.descend(t, f.trees[t], int32(nodeIdx), b.LowerBound, state, sink, q)
	}
	return nil
}

// descend walks from node downward, pushing each unvisited sibling onto
// the shared branch queue, until it reaches a leaf, which it scores.
func (f *Forest) descend(treeIdx int, tr *tree, nodeIdx int32, bound float32, state *querystate.State, sink index.ResultSink, q []float32) {
	n := tr.nodes[nodeIdx]
	for !n.leaf {
		diff := q[n.splitDim] - n.splitValue
		sideBound := bound + diff*diff

		var next int32
		if q[n.splitDim] < n.splitValue {
			next = n.lo
			if state != nil {
				state.Branches.Push(ref(treeIdx, int(n.hi)), sideBound)
			}
		} else {
			next = n.hi
			if state != nil {
				state.Branches.Push(ref(treeIdx, int(n.lo)), sideBound)
			}
		}
		nodeIdx = next
		n = tr.nodes[nodeIdx]
	}

	point := int(n.point)
	if state != nil && !state.Visited.Visit(point) {
		return
	}
	if state != nil && !state.ConsumeCheck() {
		return
	}

	d := f.opts.Space.Distance(q, f.ds.Row(point), sink.WorstDist())
	if d <= sink.WorstDist() {
		sink.AddPoint(d, point)
	}
}
