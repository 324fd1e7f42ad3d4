// Package kmeans implements the hierarchical k-means tree: recursive
// Lloyd's-algorithm partitioning into a branching-factor-B tree, searched
// best-bin-first with a cluster-boundary (cb_index) lower-bound blend.
package kmeans

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
	"github.com/hupe1980/flann-go/querystate"
	"github.com/hupe1980/flann-go/util"
)

func init() {
	index.Register(index.KMeans, func(ds *dataset.Dataset, opts index.BuildOptions) (index.Index, error) {
		return New(ds, opts)
	})
}

// node is either a leaf holding member point indices, or an internal
// node with B children, a cached center, child radius, and variance.
type node struct {
	leaf    bool
	members []int32

	center   []float32
	radius   float32 // max distance from center to any descendant point
	variance float64 // sum-of-squared deviations of member distances to center
	children []int32
}

// Tree is the hierarchical k-means index variant.
type Tree struct {
	ds    *dataset.Dataset
	opts  index.BuildOptions
	nodes []node
	root  int32
}

// New creates an unbuilt Tree over ds with the given options.
func New(ds *dataset.Dataset, opts index.BuildOptions) (*Tree, error) {
	if err := index.ValidateBasicOptions(ds); err != nil {
		return nil, err
	}
	if opts.Branching < 2 {
		opts.Branching = index.DefaultBuildOptions.Branching
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = index.DefaultBuildOptions.MaxIterations
	}
	return &Tree{ds: ds, opts: opts}, nil
}

func (t *Tree) Name() string { return string(index.KMeans) }
func (t *Tree) Size() int    { return t.ds.Rows() }
func (t *Tree) VecLen() int  { return t.ds.Cols() }

// UsedMemory approximates the tree's footprint: one center vector plus
// bookkeeping fields per internal node, one int32 per leaf member.
func (t *Tree) UsedMemory() int {
	total := 0
	for _, n := range t.nodes {
		if n.leaf {
			total += len(n.members) * 4
		} else {
			total += len(n.center)*4 + 16
		}
	}
	return total
}

// BuildIndex recursively partitions the dataset into the k-means tree.
func (t *Tree) BuildIndex() error {
	rng := util.NewRNG(t.opts.RandomSeed)

	members := make([]int32, t.ds.Rows())
	for i := range members {
		members[i] = int32(i)
	}

	t.nodes = make([]node, 0, 2*len(members))
	t.root = t.build(members, rng)
	return nil
}

func (t *Tree) build(members []int32, rng *util.RNG) int32 {
	if len(members) <= t.opts.Branching {
		center := weightedCenter(members, t.ds)
		radius, _ := t.radiusAndVariance(members, center)
		t.nodes = append(t.nodes, node{leaf: true, members: members, center: center, radius: radius})
		return int32(len(t.nodes) - 1)
	}

	centers := t.initCenters(members, rng)
	assignments, _ := t.lloyd(members, centers, rng)

	buckets := make([][]int32, t.opts.Branching)
	for i, m := range members {
		c := assignments[i]
		buckets[c] = append(buckets[c], m)
	}

	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{})

	children := make([]int32, 0, t.opts.Branching)
	for c := 0; c < t.opts.Branching; c++ {
		bucket := buckets[c]
		if len(bucket) == 0 {
			continue
		}
		if len(bucket) == len(members) {
			// No progress was made; stop recursing to avoid infinite descent.
			center := weightedCenter(bucket, t.ds)
			radius, _ := t.radiusAndVariance(bucket, center)
			t.nodes = append(t.nodes, node{leaf: true, members: bucket, center: center, radius: radius})
			children = append(children, int32(len(t.nodes)-1))
			continue
		}
		children = append(children, t.build(bucket, rng))
	}

	radius, variance := t.radiusAndVariance(members, weightedCenter(members, t.ds))

	t.nodes[idx] = node{
		center:   weightedCenter(members, t.ds),
		radius:   radius,
		variance: variance,
		children: children,
	}
	return idx
}


// weightedCenter computes the mean vector over members.
func weightedCenter(members []int32, ds *dataset.Dataset) []float32 {
	cols := ds.Cols()
	center := make([]float32, cols)
	for _, m := range members {
		row := ds.Row(int(m))
		for d := 0; d < cols; d++ {
			center[d] += row[d]
		}
	}
	inv := 1.0 / float32(len(members))
	for d := range center {
		center[d] *= inv
	}
	return center
}

// radiusAndVariance computes the max distance from center to any member
// (used as the traversal lower-bound radius) and the sum-of-squared
// deviations of member distances to center (variance, stored on the
// node; neither the traversal bound nor the autotuner reads it).
func (t *Tree) radiusAndVariance(members []int32, center []float32) (float32, float64) {
	var maxDist float32
	dists := make([]float64, len(members))
	for i, m := range members {
		d := t.opts.Space.Full(t.ds.Row(int(m)), center)
		if d > maxDist {
			maxDist = d
		}
		dists[i] = float64(d)
	}
	return maxDist, stat.Variance(dists, nil) * float64(len(members)-1)
}

// initCenters seeds B centers among members per the configured strategy.
func (t *Tree) initCenters(members []int32, rng *util.RNG) []int32 {
	b := t.opts.Branching
	if b > len(members) {
		b = len(members)
	}
	switch t.opts.CentersInit {
	case index.Gonzalez:
		return t.gonzalezCenters(members, b, rng)
	case index.KMeansPP:
		return t.kmeansPPCenters(members, b, rng)
	default:
		idx := rng.Sample(len(members), b)
		centers := make([]int32, b)
		for i, j := range idx {
			centers[i] = members[j]
		}
		return centers
	}
}

func (t *Tree) gonzalezCenters(members []int32, b int, rng *util.RNG) []int32 {
	centers := make([]int32, 0, b)
	first := members[rng.Intn(len(members))]
	centers = append(centers, first)

	for len(centers) < b {
		bestMember := members[0]
		bestDist := float32(-1)
		for _, m := range members {
			minDist := float32(math.Inf(1))
			for _, c := range centers {
				d := t.opts.Space.Full(t.ds.Row(int(m)), t.ds.Row(int(c)))
				if d < minDist {
					minDist = d
				}
			}
			if minDist > bestDist {
				bestDist = minDist
				bestMember = m
			}
		}
		centers = append(centers, bestMember)
	}
	return centers
}

func (t *Tree) kmeansPPCenters(members []int32, b int, rng *util.RNG) []int32 {
	centers := make([]int32, 0, b)
	first := members[rng.Intn(len(members))]
	centers = append(centers, first)

	for len(centers) < b {
		weights := make([]float64, len(members))
		for i, m := range members {
			minDist := float32(math.Inf(1))
			for _, c := range centers {
				d := t.opts.Space.Full(t.ds.Row(int(m)), t.ds.Row(int(c)))
				if d < minDist {
					minDist = d
				}
			}
			weights[i] = float64(minDist)
		}
		choice := rng.WeightedChoice(weights)
		centers = append(centers, members[choice])
	}
	return centers
}

// lloyd runs up to MaxIterations of Lloyd's algorithm, returning the
// final cluster assignment (parallel to members) and center vectors.
func (t *Tree) lloyd(members []int32, initCenters []int32, rng *util.RNG) ([]int, [][]float32) {
	b := len(initCenters)
	cols := t.ds.Cols()

	centerVecs := make([][]float32, b)
	for i, c := range initCenters {
		centerVecs[i] = append([]float32(nil), t.ds.Row(int(c))...)
	}

	assignments := make([]int, len(members))
	maxIter := t.opts.MaxIterations
	if maxIter < 0 {
		// Unbounded: iterate until the assignment stops changing.
		maxIter = math.MaxInt
	} else if maxIter == 0 {
		maxIter = index.DefaultBuildOptions.MaxIterations
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, m := range members {
			best, bestDist := 0, float32(math.Inf(1))
			row := t.ds.Row(int(m))
			for c := 0; c < b; c++ {
				d := t.opts.Space.Full(row, centerVecs[c])
				if d < bestDist {
					bestDist = d
					best = c
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float32, b)
		counts := make([]int, b)
		for c := range sums {
			sums[c] = make([]float32, cols)
		}
		for i, m := range members {
			c := assignments[i]
			row := t.ds.Row(int(m))
			for d := 0; d < cols; d++ {
				sums[c][d] += row[d]
			}
			counts[c]++
		}
		for c := 0; c < b; c++ {
			if counts[c] > 0 {
				inv := 1.0 / float32(counts[c])
				for d := 0; d < cols; d++ {
					centerVecs[c][d] = sums[c][d] * inv
				}
			} else {
				reseed := members[rng.Intn(len(members))]
				copy(centerVecs[c], t.ds.Row(int(reseed)))
			}
		}
	}
	return assignments, centerVecs
}

// FindNeighbors runs the best-bin-first traversal from the root.
func (t *Tree) FindNeighbors(state *querystate.State, sink index.ResultSink, q []float32) error {
	if len(q) != t.ds.Cols() {
		return &index.ErrDimensionMismatch{Expected: t.ds.Cols(), Actual: len(q)}
	}

	t.descend(t.root, state, sink, q)
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
		t.descend(int32(b.NodeRef), state, sink, q)
	}
	return nil
}

// descend scores a leaf, or recurses greedily into the closest child of
// an internal node while pushing the rest onto the shared branch queue
// with a cb_index-blended lower bound.
func (t *Tree) descend(ref int32, state *querystate.State, sink index.ResultSink, q []float32) {
	n := t.nodes[ref]
	if n.leaf {
		for _, m := range n.members {
			point := int(m)
			if state != nil && !state.Visited.Visit(point) {
				continue
			}
			if state != nil && !state.ConsumeCheck() {
				return
			}
			d := t.opts.Space.Distance(q, t.ds.Row(point), sink.WorstDist())
			if d <= sink.WorstDist() {
				sink.AddPoint(d, point)
			}
		}
		return
	}

	cb := t.opts.CBIndex
	if state != nil && state.CBIndex >= 0 {
		cb = state.CBIndex
	}
	if cb < 0 {
		cb = index.DefaultBuildOptions.CBIndex
	}

	type scored struct {
		child int32
		d2    float32
	}
	scoredChildren := make([]scored, len(n.children))
	for i, c := range n.children {
		cn := t.nodes[c]
		d2 := t.opts.Space.Full(q, cn.center)
		scoredChildren[i] = scored{child: c, d2: d2}
	}

	best := 0
	for i := 1; i < len(scoredChildren); i++ {
		if scoredChildren[i].d2 < scoredChildren[best].d2 {
			best = i
		}
	}

	for i, sc := range scoredChildren {
		if i == best {
			continue
		}
		cn := t.nodes[sc.child]
		radiusBound := sc.d2 - cn.radius
		if radiusBound < 0 {
			radiusBound = 0
		}
		lowerBound := (1-cb)*sc.d2 + cb*radiusBound
		if state != nil {
			state.Branches.Push(uint32(sc.child), lowerBound)
		}
	}

	t.descend(scoredChildren[best].child, state, sink, q)
}
