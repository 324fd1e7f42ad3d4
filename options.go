package flann

import (
	"log/slog"

	"github.com/hupe1980/flann-go/index"
)

// options collects every constructor knob behind one functional-options
// surface, mirroring the teacher's applyOptions defaulting pattern.
type options struct {
	build  index.BuildOptions
	logger *Logger

	targetPrecision float64
	buildWeight     float32
	memoryWeight    float32
	sampleFraction  float64
	nn              int
	querySampleSize int
}

// Option configures an index constructor or Autotune call.
type Option func(*options)

func applyOptions(optFns []Option) options {
	o := options{
		build:           index.DefaultBuildOptions,
		logger:          NoopLogger(),
		targetPrecision: 0.9,
		buildWeight:     0,
		memoryWeight:    0,
		sampleFraction:  0.1,
		nn:              1,
		querySampleSize: 1000,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// WithTrees sets the KD-tree forest size T.
func WithTrees(trees int) Option {
	return func(o *options) { o.build.Trees = trees }
}

// WithBranching sets the k-means tree branching factor B.
func WithBranching(branching int) Option {
	return func(o *options) { o.build.Branching = branching }
}

// WithMaxIterations bounds Lloyd's algorithm; -1 means until convergence.
func WithMaxIterations(iterations int) Option {
	return func(o *options) { o.build.MaxIterations = iterations }
}

// CentersInit selects the k-means centers initialization strategy,
// re-exported from package index so callers need not import it directly.
type CentersInit = index.CentersInit

const (
	Random   = index.Random
	Gonzalez = index.Gonzalez
	KMeansPP = index.KMeansPP
)

// WithCentersInit selects the k-means seeding strategy.
func WithCentersInit(strategy CentersInit) Option {
	return func(o *options) { o.build.CentersInit = strategy }
}

// WithCBIndex sets the k-means cluster-boundary blend in [0, 1].
func WithCBIndex(cb float32) Option {
	return func(o *options) { o.build.CBIndex = cb }
}

// WithRandomSeed seeds the build and sampling RNGs.
func WithRandomSeed(seed int64) Option {
	return func(o *options) { o.build.RandomSeed = seed }
}

// WithSampleSize sets the KD split-dimension variance sampling size.
func WithSampleSize(n int) Option {
	return func(o *options) { o.build.SampleSize = n }
}

// WithLogger installs a Logger. The default is NoopLogger().
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLogLevel installs a text Logger writing to stderr at level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) { o.logger = NewTextLogger(level) }
}

// WithTargetPrecision sets Autotune's target precision p* in (0, 1).
func WithTargetPrecision(p float64) Option {
	return func(o *options) { o.targetPrecision = p }
}

// WithBuildWeight sets Autotune's cost-model build-time weight w_b.
func WithBuildWeight(w float32) Option {
	return func(o *options) { o.buildWeight = w }
}

// WithMemoryWeight sets Autotune's cost-model memory weight w_m.
func WithMemoryWeight(w float32) Option {
	return func(o *options) { o.memoryWeight = w }
}

// WithSampleFraction sets Autotune's working-subset sampling fraction f.
func WithSampleFraction(f float64) Option {
	return func(o *options) { o.sampleFraction = f }
}

// WithNN sets the neighbor count Autotune's grid search optimizes for.
func WithNN(k int) Option {
	return func(o *options) { o.nn = k }
}

// WithQuerySampleSize sets Autotune's held-out query subset size.
func WithQuerySampleSize(n int) Option {
	return func(o *options) { o.querySampleSize = n }
}
