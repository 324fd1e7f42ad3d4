package flann_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flann "github.com/hupe1980/flann-go"
	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/resultset"
)

// cubicLattice builds a 1-unit cubic lattice in R^3, side x side x side.
func cubicLattice(side int) *dataset.Dataset {
	n := side * side * side
	data := make([]float32, n*3)
	i := 0
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			for z := 0; z < side; z++ {
				data[i*3+0] = float32(x)
				data[i*3+1] = float32(y)
				data[i*3+2] = float32(z)
				i++
			}
		}
	}
	ds, _ := dataset.New(data, n, 3)
	return ds
}

func TestRadiusSearchOnCubicLatticeFindsFaceNeighbors(t *testing.T) {
	// side=5 keeps the query point (at index (2,2,2), away from every
	// boundary face) fully surrounded: 6 face neighbors at dist^2=1,
	// plus itself at dist^2=0, for 7 points within r^2=1.0.
	ds := cubicLattice(5)

	idx, err := flann.NewLinear(ds)
	require.NoError(t, err)

	q := []float32{2, 2, 2}
	_, _, count, err := flann.RadiusSearch(idx, q, 1.0, 10, flann.DefaultSearchOptions)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestNewKDTreeFindsExactNearestWithUnlimitedChecks(t *testing.T) {
	ds := cubicLattice(3)

	idx, err := flann.NewKDTree(ds, flann.WithTrees(4), flann.WithRandomSeed(7))
	require.NoError(t, err)

	q := []float32{1, 1, 1} // lattice point (1,1,1) -> row index 1*9+1*3+1=13
	sink := resultset.NewKNN(1)
	err = flann.FindNeighbors(idx, sink, q, flann.DefaultSearchOptions)
	require.NoError(t, err)

	require.Equal(t, 1, sink.Len())
	assert.Equal(t, 13, sink.Indices()[0])
	assert.InDelta(t, 0, sink.Dists()[0], 1e-6)
}

func TestNewCompositeBuildsAndQueries(t *testing.T) {
	ds := cubicLattice(3)

	idx, err := flann.NewComposite(ds)
	require.NoError(t, err)
	assert.Equal(t, ds.Rows(), idx.Size())

	sink := resultset.NewKNN(3)
	err = flann.FindNeighbors(idx, sink, []float32{0, 0, 0}, flann.DefaultSearchOptions)
	require.NoError(t, err)
	assert.LessOrEqual(t, sink.Len(), 3)
}

func TestNewKMeansTreeRejectsDimensionMismatch(t *testing.T) {
	ds := cubicLattice(3)

	idx, err := flann.NewKMeansTree(ds, flann.WithBranching(4))
	require.NoError(t, err)

	sink := resultset.NewKNN(1)
	err = flann.FindNeighbors(idx, sink, []float32{0, 0}, flann.DefaultSearchOptions)
	require.Error(t, err)

	var dimErr *flann.ErrDimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}

func TestFindNeighborsRejectsNilHandle(t *testing.T) {
	sink := resultset.NewKNN(1)
	err := flann.FindNeighbors(nil, sink, []float32{0, 0, 0}, flann.DefaultSearchOptions)
	require.Error(t, err)

	var handleErr *flann.ErrInvalidHandle
	assert.ErrorAs(t, err, &handleErr)
}

func TestRadiusSearchRejectsNilHandle(t *testing.T) {
	_, _, _, err := flann.RadiusSearch(nil, []float32{0, 0, 0}, 1.0, 10, flann.DefaultSearchOptions)
	require.Error(t, err)

	var handleErr *flann.ErrInvalidHandle
	assert.ErrorAs(t, err, &handleErr)
}

func TestNewLinearRejectsNilDataset(t *testing.T) {
	_, err := flann.NewLinear(nil)
	require.Error(t, err)

	var argErr *flann.ErrInvalidArgument
	assert.ErrorAs(t, err, &argErr)
}

func TestAutotuneReturnsIndexMeetingOrNearTarget(t *testing.T) {
	ds := cubicLattice(5) // 125 points, small enough to autotune quickly

	res, err := flann.Autotune(ds,
		flann.WithTargetPrecision(0.8),
		flann.WithSampleFraction(0.5),
		flann.WithRandomSeed(11),
	)
	require.NoError(t, err)
	require.NotNil(t, res.Index)
	assert.GreaterOrEqual(t, res.Shortfall, 0.0)
}
