package kdtree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
	"github.com/hupe1980/flann-go/querystate"
	"github.com/hupe1980/flann-go/resultset"
)

func grid9() *dataset.Dataset {
	// A 3x3 axis-aligned grid at integer coordinates 0,1,2 in both dims.
	data := make([]float32, 0, 18)
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			data = append(data, float32(x), float32(y))
		}
	}
	ds, _ := dataset.New(data, 9, 2)
	return ds
}

func TestForestExactWithUnlimitedChecks(t *testing.T) {
	ds := grid9()
	opts := index.DefaultBuildOptions
	opts.Trees = 4
	opts.RandomSeed = 7

	f, err := New(ds, opts)
	require.NoError(t, err)
	require.NoError(t, f.BuildIndex())

	q := []float32{1, 1} // center point, index 4
	sink := resultset.NewKNN(1)
	state := querystate.New(ds.Rows(), -1)

	require.NoError(t, f.FindNeighbors(state, sink, q))
	require.Equal(t, 1, sink.Len())
	assert.Equal(t, 4, sink.Indices()[0], "expected nearest point index 4 (the query itself)")
	assert.Equal(t, float32(0), sink.Dists()[0])
}

func TestForestDimensionMismatch(t *testing.T) {
	ds := grid9()
	f, err := New(ds, index.DefaultBuildOptions)
	require.NoError(t, err)
	require.NoError(t, f.BuildIndex())

	sink := resultset.NewKNN(1)
	err = f.FindNeighbors(nil, sink, []float32{0, 0, 0})
	assert.Error(t, err)
}

func TestForestMonotoneInChecks(t *testing.T) {
	ds := grid9()
	opts := index.DefaultBuildOptions
	opts.Trees = 1
	opts.RandomSeed = 3
	f, err := New(ds, opts)
	require.NoError(t, err)
	require.NoError(t, f.BuildIndex())

	q := []float32{0.1, 0.1}

	lowChecksBest := math.Inf(1)
	highChecksBest := math.Inf(1)

	sinkLow := resultset.NewKNN(1)
	stateLow := querystate.New(ds.Rows(), 1)
	require.NoError(t, f.FindNeighbors(stateLow, sinkLow, q))
	if sinkLow.Len() > 0 {
		lowChecksBest = float64(sinkLow.Dists()[0])
	}

	sinkHigh := resultset.NewKNN(1)
	stateHigh := querystate.New(ds.Rows(), 9)
	require.NoError(t, f.FindNeighbors(stateHigh, sinkHigh, q))
	if sinkHigh.Len() > 0 {
		highChecksBest = float64(sinkHigh.Dists()[0])
	}

	assert.LessOrEqualf(t, highChecksBest, lowChecksBest, "more checks should never worsen the best distance found")
}

func TestRefEncodeDecodeRoundTrip(t *testing.T) {
	r := ref(2, 12345)
	tIdx, nodeIdx := decodeRef(r)
	assert.Equal(t, 2, tIdx)
	assert.Equal(t, 12345, nodeIdx)
}
