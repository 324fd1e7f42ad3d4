// Package groundtruth computes exact nearest-neighbor matches via the
// linear baseline and measures an index's precision against them, the
// harness the autotuner and test suites both build on.
package groundtruth

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
	"github.com/hupe1980/flann-go/index/linear"
	"github.com/hupe1980/flann-go/querydriver"
)

// Compute returns the exact top-k matches of every row of testset
// against ds, via LinearSearch. skip drops the first skip exact matches
// from each row before keeping k, which leave-one-out evaluation uses
// (skip=1) when testset is itself a subset of ds, so a row's own
// self-match does not count as its nearest neighbor.
func Compute(ds *dataset.Dataset, testset *dataset.Dataset, k int, skip int) (*dataset.IntMatrix, *dataset.FloatMatrix, error) {
	if skip < 0 {
		skip = 0
	}

	lin, err := linear.New(ds, index.DefaultBuildOptions)
	if err != nil {
		return nil, nil, err
	}
	if err := lin.BuildIndex(); err != nil {
		return nil, nil, err
	}

	wide := k + skip
	wideIdx, err := dataset.NewIntMatrix(nil, testset.Rows(), wide)
	if err != nil {
		return nil, nil, err
	}
	wideDist, err := dataset.NewFloatMatrix(nil, testset.Rows(), wide)
	if err != nil {
		return nil, nil, err
	}

	if err := querydriver.SearchForNeighbors(lin, testset, wide, index.DefaultSearchOptions, wideIdx, wideDist, nil); err != nil {
		return nil, nil, err
	}
	if skip == 0 {
		return wideIdx, wideDist, nil
	}

	idxOut, _ := dataset.NewIntMatrix(nil, testset.Rows(), k)
	distOut, _ := dataset.NewFloatMatrix(nil, testset.Rows(), k)
	for row := 0; row < testset.Rows(); row++ {
		copy(idxOut.Row(row), wideIdx.Row(row)[skip:])
		copy(distOut.Row(row), wideDist.Row(row)[skip:])
	}
	return idxOut, distOut, nil
}

// Precision measures the fraction of query rows for which got's top-k
// set matches want's top-k set exactly (order-insensitive; sentinel
// -1 slots compare as absent on both sides).
func Precision(want, got *dataset.IntMatrix) float64 {
	if want.Rows() == 0 {
		return 1.0
	}
	var hits float64
	for row := 0; row < want.Rows(); row++ {
		if rowMatches(want.Row(row), got.Row(row)) {
			hits++
		}
	}
	return hits / float64(want.Rows())
}

func rowMatches(want, got []int) bool {
	set := make(map[int]struct{}, len(want))
	for _, w := range want {
		if w >= 0 {
			set[w] = struct{}{}
		}
	}
	count := 0
	for _, g := range got {
		if g < 0 {
			continue
		}
		if _, ok := set[g]; !ok {
			return false
		}
		count++
	}
	return count == len(set)
}

// MeasurePrecisionAtChecks runs idx over testset with the given checks
// budget and reports its precision against the precomputed ground
// truth wantIdx.
func MeasurePrecisionAtChecks(idx index.Index, testset *dataset.Dataset, k int, checks int, wantIdx *dataset.IntMatrix) (float64, error) {
	gotIdx, err := runAt(idx, testset, k, checks)
	if err != nil {
		return 0, err
	}
	return Precision(wantIdx, gotIdx), nil
}

// MeasureChecksForPrecision binary-searches the smallest checks value
// (within [lo, hi]) at which idx's measured precision against wantIdx
// reaches at least target. Returns the checks value and the precision
// actually measured there.
func MeasureChecksForPrecision(idx index.Index, testset *dataset.Dataset, k int, target float64, lo, hi int, wantIdx *dataset.IntMatrix) (int, float64, error) {
	bestChecks := hi
	bestPrecision, err := measureAt(idx, testset, k, hi, wantIdx)
	if err != nil {
		return 0, 0, err
	}
	if bestPrecision < target {
		return hi, bestPrecision, nil
	}

	for lo < hi {
		mid := lo + (hi-lo)/2
		p, err := measureAt(idx, testset, k, mid, wantIdx)
		if err != nil {
			return 0, 0, err
		}
		if p >= target {
			hi = mid
			bestChecks = mid
			bestPrecision = p
		} else {
			lo = mid + 1
		}
	}
	return bestChecks, bestPrecision, nil
}

func measureAt(idx index.Index, testset *dataset.Dataset, k, checks int, wantIdx *dataset.IntMatrix) (float64, error) {
	gotIdx, err := runAt(idx, testset, k, checks)
	if err != nil {
		return 0, err
	}
	return Precision(wantIdx, gotIdx), nil
}

func runAt(idx index.Index, testset *dataset.Dataset, k, checks int) (*dataset.IntMatrix, error) {
	opts := index.SearchOptions{Checks: checks, CBIndex: -1}
	idxOut, err := dataset.NewIntMatrix(nil, testset.Rows(), k)
	if err != nil {
		return nil, err
	}
	distOut, err := dataset.NewFloatMatrix(nil, testset.Rows(), k)
	if err != nil {
		return nil, err
	}
	if err := querydriver.SearchForNeighbors(idx, testset, k, opts, idxOut, distOut, nil); err != nil {
		return nil, err
	}
	return idxOut, nil
}

// PrecisionConfidenceInterval reports the sample mean precision across
// per-query hit/miss outcomes and its standard error, letting callers
// judge whether an observed precision is distinguishable from target
// given the query count (spec's "within statistical noise" clause).
func PrecisionConfidenceInterval(want, got *dataset.IntMatrix) (mean, stderr float64) {
	n := want.Rows()
	if n == 0 {
		return 1.0, 0
	}
	outcomes := make([]float64, n)
	for row := 0; row < n; row++ {
		if rowMatches(want.Row(row), got.Row(row)) {
			outcomes[row] = 1
		}
	}
	mean = stat.Mean(outcomes, nil)
	variance := stat.Variance(outcomes, nil)
	stderr = 0
	if n > 1 {
		stderr = math.Sqrt(variance / float64(n))
	}
	return mean, stderr
}
