// Package autotune selects an index algorithm and its structural and
// search parameters for a user-specified target precision, by sampling
// the dataset and cross-validating candidates against an exhaustive
// linear-search ground truth.
package autotune

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/groundtruth"
	"github.com/hupe1980/flann-go/index"
	_ "github.com/hupe1980/flann-go/index/composite"
	_ "github.com/hupe1980/flann-go/index/kdtree"
	_ "github.com/hupe1980/flann-go/index/kmeans"
	"github.com/hupe1980/flann-go/querydriver"
	"github.com/hupe1980/flann-go/util"
)

// CostModel holds the per-algorithm memory-cost coefficients the
// candidate-selection cost function uses. These are closed-form
// approximations (bytes per tree/tier node), not measured allocations,
// so the autotuner can score a candidate without fully materializing
// alternatives it will discard.
var CostModel = struct {
	KDBytesPerNode     float32
	KMeansBytesPerNode float32
}{
	KDBytesPerNode:     16,
	KMeansBytesPerNode: 48,
}

var errNoCandidates = errors.New("autotune: no candidate evaluated")

// Config configures one autotuning run.
type Config struct {
	// TargetPrecision is p* in (0, 1).
	TargetPrecision float64

	// BuildWeight and MemoryWeight are w_b and w_m in the cost model
	// cost = searchTime + w_b*buildTime + w_m*memoryBytes.
	BuildWeight  float32
	MemoryWeight float32

	// SampleFraction is f in (0, 1]: the fraction of the dataset used
	// as the working subset S.
	SampleFraction float64

	// NN is the neighbor count k the grid search optimizes precision
	// for. Defaults to 1 if <= 0.
	NN int

	// QuerySampleSize is the size of the held-out query subset Q.
	// Defaults to 1000 if <= 0.
	QuerySampleSize int

	// RandomSeed seeds every sampling and tie-break decision in the run.
	RandomSeed int64

	Logger *slog.Logger
}

// Result is the autotuner's selected configuration plus telemetry.
type Result struct {
	Algorithm     index.Algorithm
	BuildOptions  index.BuildOptions
	SearchOptions index.SearchOptions

	// Shortfall is max(0, TargetPrecision - measured precision) on Q.
	// A nonzero Shortfall means the grid could not reach the target;
	// the run still returns its best-found candidate rather than
	// failing the call.
	Shortfall float64

	// Speedup is linear-search time / measured ANN time on Q.
	Speedup float64

	SessionID string
}

type candidate struct {
	alg      index.Algorithm
	opts     index.BuildOptions
	checks   int
	cost     float64
	built    index.Index
	measured float64
}

// Run samples ds, builds ground truth over the sample, grid-searches
// build and search parameters, and returns the lowest-cost candidate
// meeting TargetPrecision (or the closest one found).
func Run(ds *dataset.Dataset, cfg Config) (*Result, error) {
	cfg = withDefaults(cfg)
	log := cfg.Logger
	sessionID := uuid.NewString()
	log = log.With("session_id", sessionID)

	rng := util.NewRNG(cfg.RandomSeed)

	sampleSize := int(cfg.SampleFraction * float64(ds.Rows()))
	if sampleSize < cfg.NN+1 {
		sampleSize = minInt(ds.Rows(), cfg.NN+1)
	}
	if sampleSize > ds.Rows() {
		sampleSize = ds.Rows()
	}
	qSize := cfg.QuerySampleSize
	if qSize > ds.Rows()-sampleSize {
		qSize = ds.Rows() - sampleSize
	}
	if qSize < 0 {
		qSize = 0
	}

	allIdx := rng.Sample(ds.Rows(), sampleSize+qSize)
	sIdx := allIdx[:sampleSize]
	qIdx := allIdx[sampleSize : sampleSize+qSize]

	s := ds.Subset(sIdx)
	q := ds.Subset(qIdx)

	wantIdx, _, err := groundtruth.Compute(s, q, cfg.NN, 0)
	if err != nil {
		return nil, err
	}

	log.Info("autotune sampling complete", "sample_size", s.Rows(), "query_size", q.Rows())

	var best *candidate

	for _, T := range []int{1, 4, 8, 16, 32} {
		opts := index.DefaultBuildOptions
		opts.Trees = T
		c, err := evaluateCandidate(index.KDTree, s, q, opts, cfg, wantIdx, log)
		if err != nil {
			return nil, err
		}
		best = betterOf(best, c, cfg.TargetPrecision)
	}

	for _, B := range []int{16, 32, 64, 128, 256} {
		for _, I := range []int{1, 5, 7, 11} {
			for _, ci := range []index.CentersInit{index.Random, index.Gonzalez, index.KMeansPP} {
				opts := index.DefaultBuildOptions
				opts.Branching = B
				opts.MaxIterations = I
				opts.CentersInit = ci
				c, err := evaluateCandidate(index.KMeans, s, q, opts, cfg, wantIdx, log)
				if err != nil {
					return nil, err
				}
				best = betterOf(best, c, cfg.TargetPrecision)
			}
		}
	}

	if best == nil {
		return nil, errNoCandidates
	}

	searchOpts, speedup, err := estimateSearchParams(best, s, q, cfg, wantIdx, log)
	if err != nil {
		return nil, err
	}

	measured, err := groundtruth.MeasurePrecisionAtChecks(best.built, q, cfg.NN, searchOpts.Checks, wantIdx)
	if err != nil {
		return nil, err
	}
	shortfall := cfg.TargetPrecision - measured
	if shortfall < 0 {
		shortfall = 0
	}
	if shortfall > 0 {
		log.Warn("autotune did not reach target precision within its grid",
			"target", cfg.TargetPrecision, "measured", measured, "shortfall", shortfall)
	}

	return &Result{
		Algorithm:     best.alg,
		BuildOptions:  best.opts,
		SearchOptions: searchOpts,
		Shortfall:     shortfall,
		Speedup:       speedup,
		SessionID:     sessionID,
	}, nil
}

func withDefaults(cfg Config) Config {
	if cfg.TargetPrecision <= 0 {
		cfg.TargetPrecision = 0.9
	}
	if cfg.SampleFraction <= 0 || cfg.SampleFraction > 1 {
		cfg.SampleFraction = 0.1
	}
	if cfg.NN <= 0 {
		cfg.NN = 1
	}
	if cfg.QuerySampleSize <= 0 {
		cfg.QuerySampleSize = 1000
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.Level(1000)}))
	}
	return cfg
}

// discard is an io.Writer that drops everything, used to build a
// default no-op slog.Logger without touching stderr.
type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// evaluateCandidate builds one (algorithm, structural params) candidate
// over s, binary-searches the smallest checks meeting TargetPrecision
// on q, and scores it under the cost model.
func evaluateCandidate(alg index.Algorithm, s, q *dataset.Dataset, opts index.BuildOptions, cfg Config, wantIdx *dataset.IntMatrix, log *slog.Logger) (*candidate, error) {
	buildStart := time.Now()
	idx, err := index.Create(alg, s, opts)
	if err != nil {
		return nil, err
	}
	if err := idx.BuildIndex(); err != nil {
		return nil, err
	}
	buildTime := time.Since(buildStart).Seconds()

	checks, precision, err := groundtruth.MeasureChecksForPrecision(idx, q, cfg.NN, cfg.TargetPrecision, 1, s.Rows(), wantIdx)
	if err != nil {
		return nil, err
	}

	searchStart := time.Now()
	if _, err := groundtruth.MeasurePrecisionAtChecks(idx, q, cfg.NN, checks, wantIdx); err != nil {
		return nil, err
	}
	searchTime := time.Since(searchStart).Seconds()

	memBytes := estimateMemory(alg, opts, s.Rows())
	cost := searchTime + float64(cfg.BuildWeight)*buildTime + float64(cfg.MemoryWeight)*float64(memBytes)

	log.Debug("autotune candidate evaluated",
		"algorithm", string(alg), "checks", checks, "precision", precision, "cost", cost)

	return &candidate{alg: alg, opts: opts, checks: checks, cost: cost, built: idx, measured: precision}, nil
}

func estimateMemory(alg index.Algorithm, opts index.BuildOptions, n int) float32 {
	switch alg {
	case index.KDTree:
		return CostModel.KDBytesPerNode * float32(opts.Trees) * float32(2*n-1)
	case index.KMeans:
		// A branching-B tree over n points has roughly n/(B-1) internal
		// nodes in addition to its n leaf-member slots.
		internal := float32(n) / float32(opts.Branching-1)
		return CostModel.KMeansBytesPerNode * (internal + float32(n))
	default:
		return 0
	}
}

// betterOf prefers a candidate meeting target over one that does not;
// among candidates missing target it prefers the higher precision, and
// otherwise the lower cost.
func betterOf(best, c *candidate, target float64) *candidate {
	if best == nil {
		return c
	}
	cMeets, bestMeets := c.measured >= target, best.measured >= target
	if cMeets != bestMeets {
		if cMeets {
			return c
		}
		return best
	}
	if !cMeets && c.measured != best.measured {
		if c.measured > best.measured {
			return c
		}
		return best
	}
	if c.cost < best.cost {
		return c
	}
	return best
}

// estimateSearchParams refines checks on the chosen candidate's own
// built index, and for a k-means candidate, brackets the best cb_index.
func estimateSearchParams(best *candidate, s, q *dataset.Dataset, cfg Config, wantIdx *dataset.IntMatrix, log *slog.Logger) (index.SearchOptions, float64, error) {
	cbIndex := float32(-1)

	if best.alg == index.KMeans {
		grid := []float32{0, 0.2, 0.4, 0.6, 0.8, 1.0}
		bestChecks := s.Rows()
		bestCB := float32(0.4)
		for _, cb := range grid {
			checks, _, err := measureChecksWithCB(best.built, q, cfg, wantIdx, cb)
			if err != nil {
				return index.SearchOptions{}, 0, err
			}
			if checks < bestChecks {
				bestChecks = checks
				bestCB = cb
			}
		}
		cbIndex = bestCB
	}

	checks, _, err := measureChecksWithCB(best.built, q, cfg, wantIdx, cbIndex)
	if err != nil {
		return index.SearchOptions{}, 0, err
	}

	linStart := time.Now()
	if _, _, err := groundtruth.Compute(s, q, cfg.NN, 0); err != nil {
		return index.SearchOptions{}, 0, err
	}
	linTime := time.Since(linStart).Seconds()

	annStart := time.Now()
	if _, err := groundtruth.MeasurePrecisionAtChecks(best.built, q, cfg.NN, checks, wantIdx); err != nil {
		return index.SearchOptions{}, 0, err
	}
	annTime := time.Since(annStart).Seconds()

	speedup := 1.0
	if annTime > 0 {
		speedup = linTime / annTime
	}

	log.Info("autotune search params estimated", "algorithm", string(best.alg), "checks", checks, "cb_index", cbIndex, "speedup", speedup)

	return index.SearchOptions{Checks: checks, CBIndex: cbIndex}, speedup, nil
}

func measureChecksWithCB(idx index.Index, q *dataset.Dataset, cfg Config, wantIdx *dataset.IntMatrix, cb float32) (int, float64, error) {
	lo, hi := 1, idx.Size()

	bestChecks := hi
	bestPrecision, err := precisionAt(idx, q, cfg.NN, hi, cb, wantIdx)
	if err != nil {
		return 0, 0, err
	}
	if bestPrecision < cfg.TargetPrecision {
		return hi, bestPrecision, nil
	}
	for lo < hi {
		mid := lo + (hi-lo)/2
		p, err := precisionAt(idx, q, cfg.NN, mid, cb, wantIdx)
		if err != nil {
			return 0, 0, err
		}
		if p >= cfg.TargetPrecision {
			hi = mid
			bestChecks = mid
			bestPrecision = p
		} else {
			lo = mid + 1
		}
	}
	return bestChecks, bestPrecision, nil
}

func precisionAt(idx index.Index, q *dataset.Dataset, k, checks int, cb float32, wantIdx *dataset.IntMatrix) (float64, error) {
	opts := index.SearchOptions{Checks: checks, CBIndex: cb}
	idxOut, err := dataset.NewIntMatrix(nil, q.Rows(), k)
	if err != nil {
		return 0, err
	}
	distOut, err := dataset.NewFloatMatrix(nil, q.Rows(), k)
	if err != nil {
		return 0, err
	}
	if err := querydriver.SearchForNeighbors(idx, q, k, opts, idxOut, distOut, nil); err != nil {
		return 0, err
	}
	return groundtruth.Precision(wantIdx, idxOut), nil
}
