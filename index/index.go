// Package index defines the shared Index capability every algorithm
// variant (kdtree, kmeans, composite, linear, and the unimplemented
// vptree plug-in point) implements, plus the strongly-typed options
// records and the dynamic Params bag used to cross the public boundary.
package index

import (
	"sync"

	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/distance"
	"github.com/hupe1980/flann-go/querystate"
)

// ResultSink is satisfied by resultset.KNN and resultset.Radius. Index
// implementations are written against this narrow interface so they
// never know which collection policy the caller chose.
type ResultSink interface {
	AddPoint(dist float32, idx int) bool
	WorstDist() float32
}

// Index is the capability every algorithm variant exposes. The query
// driver, autotuner, and ground-truth harness are generic over it.
type Index interface {
	// Name identifies the algorithm, e.g. "kdtree", "kmeans".
	Name() string

	// BuildIndex constructs the index over its Dataset. One-shot; a
	// second call is undefined, matching the spec's build lifecycle.
	BuildIndex() error

	// FindNeighbors scores candidate points against q, adding admitted
	// points to sink, and honors state's shared checks budget and
	// visited suppression.
	FindNeighbors(state *querystate.State, sink ResultSink, q []float32) error

	// Size returns the number of indexed points.
	Size() int

	// VecLen returns the configured vector dimensionality.
	VecLen() int

	// UsedMemory returns an approximate memory footprint in bytes,
	// used by the autotuner's cost model.
	UsedMemory() int
}

// CentersInit selects the k-means centers initialization strategy.
type CentersInit int

const (
	Random CentersInit = iota
	Gonzalez
	KMeansPP
)

func (c CentersInit) String() string {
	switch c {
	case Random:
		return "random"
	case Gonzalez:
		return "gonzales"
	case KMeansPP:
		return "kmeanspp"
	default:
		return "random"
	}
}

// BuildOptions is the strongly-typed build-time options record that
// every component converts its slice of the Params bag into at entry.
type BuildOptions struct {
	Space distance.Space

	// Trees is the KD forest size T.
	Trees int

	// Branching is the k-means branching factor B.
	Branching int

	// MaxIterations bounds Lloyd's algorithm; -1 means until convergence.
	MaxIterations int

	// CentersInit selects the k-means seeding strategy.
	CentersInit CentersInit

	// CBIndex blends center-distance vs radius-offset lower bounds
	// during k-means traversal, in [0,1].
	CBIndex float32

	// RandomSeed seeds the build RNG; 0 uses a fixed default seed so
	// builds stay reproducible unless the caller opts into entropy.
	RandomSeed int64

	// SampleSize is the per-node variance-sampling size used by the KD
	// split-dimension heuristic.
	SampleSize int
}

// DefaultBuildOptions mirrors FLANN's documented defaults.
var DefaultBuildOptions = BuildOptions{
	Space:         distance.DefaultSpace,
	Trees:         4,
	Branching:     32,
	MaxIterations: 11,
	CentersInit:   Random,
	CBIndex:       0.4,
	RandomSeed:    0,
	SampleSize:    100,
}

// SearchOptions is the strongly-typed search-time options record.
type SearchOptions struct {
	// Checks bounds leaf-point distance evaluations across the whole
	// forest/tree for one query; -1 means unlimited.
	Checks int

	// CBIndex overrides BuildOptions.CBIndex for this search, if >= 0.
	CBIndex float32
}

// DefaultSearchOptions is FLANN's documented default: unlimited checks.
var DefaultSearchOptions = SearchOptions{Checks: -1, CBIndex: -1}

// Params is the dynamic string->value bag carrying build and search
// options across the public boundary (spec.md §3's "Params bag").
// Components immediately convert the keys they recognize into a typed
// Options record; Params itself is never consulted mid-algorithm.
type Params map[string]any

func (p Params) getInt(key string, def int) int {
	if v, ok := p[key]; ok {
		if i, ok := v.(int); ok {
			return i
		}
	}
	return def
}

func (p Params) getFloat32(key string, def float32) float32 {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case float32:
			return n
		case float64:
			return float32(n)
		}
	}
	return def
}

func (p Params) getInt64(key string, def int64) int64 {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case int64:
			return n
		case int:
			return int64(n)
		}
	}
	return def
}

func (p Params) getString(key, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// ToBuildOptions converts p into a BuildOptions record, filling
// unrecognized keys with DefaultBuildOptions.
func (p Params) ToBuildOptions() BuildOptions {
	o := DefaultBuildOptions
	o.Trees = p.getInt("trees", o.Trees)
	o.Branching = p.getInt("branching", o.Branching)
	o.MaxIterations = p.getInt("iterations", o.MaxIterations)
	o.CBIndex = p.getFloat32("cb_index", o.CBIndex)
	o.RandomSeed = p.getInt64("random_seed", o.RandomSeed)

	switch p.getString("centers_init", o.CentersInit.String()) {
	case "gonzales":
		o.CentersInit = Gonzalez
	case "kmeans++", "kmeanspp":
		o.CentersInit = KMeansPP
	default:
		o.CentersInit = Random
	}
	return o
}

// ToSearchOptions converts p into a SearchOptions record.
func (p Params) ToSearchOptions() SearchOptions {
	o := DefaultSearchOptions
	o.Checks = p.getInt("checks", o.Checks)
	o.CBIndex = p.getFloat32("cb_index", o.CBIndex)
	return o
}

// Algorithm identifies a registered index variant by name.
type Algorithm string

const (
	Linear    Algorithm = "linear"
	KDTree    Algorithm = "kdtree"
	KMeans    Algorithm = "kmeans"
	Composite Algorithm = "composite"
	VPTree    Algorithm = "vptree"
)

// Constructor builds an unbuilt Index instance over ds with opts.
type Constructor func(ds *dataset.Dataset, opts BuildOptions) (Index, error)

var (
	registryMu sync.RWMutex
	registry   = map[Algorithm]Constructor{}
)

// Register associates a Constructor with an Algorithm name. Index
// packages call this from an init() function.
func Register(alg Algorithm, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[alg] = ctor
}

// Create dispatches to the registered Constructor for alg.
func Create(alg Algorithm, ds *dataset.Dataset, opts BuildOptions) (Index, error) {
	registryMu.RLock()
	ctor, ok := registry[alg]
	registryMu.RUnlock()
	if !ok {
		return nil, &ErrUnsupportedAlgorithm{Algorithm: string(alg)}
	}
	return ctor(ds, opts)
}

// ValidateBasicOptions checks the common build preconditions shared by
// every algorithm variant.
func ValidateBasicOptions(ds *dataset.Dataset) error {
	if ds == nil {
		return &ErrInvalidArgument{Reason: "dataset must not be nil"}
	}
	if ds.Rows() <= 0 {
		return &ErrInvalidArgument{Reason: "dataset must have at least one row"}
	}
	return nil
}
