package autotune

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
)

func defaultOptsForTest() index.BuildOptions {
	return index.DefaultBuildOptions
}

func randomDataset(n, dim int, seed int64) *dataset.Dataset {
	r := rand.New(rand.NewSource(seed))
	data := make([]float32, n*dim)
	for i := range data {
		data[i] = float32(r.NormFloat64())
	}
	ds, _ := dataset.New(data, n, dim)
	return ds
}

func TestRunReturnsCandidateMeetingOrNearTarget(t *testing.T) {
	ds := randomDataset(500, 8, 42)

	cfg := Config{
		TargetPrecision: 0.8,
		SampleFraction:  0.4,
		NN:              1,
		QuerySampleSize: 50,
		RandomSeed:      42,
	}

	result, err := Run(ds, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
	assert.Greater(t, result.SearchOptions.Checks, 0)
	assert.GreaterOrEqual(t, result.Shortfall, 0.0, "shortfall must never be negative")
}

func TestRunDeterministicGivenSeed(t *testing.T) {
	ds := randomDataset(300, 4, 7)
	cfg := Config{
		TargetPrecision: 0.8,
		SampleFraction:  0.5,
		NN:              1,
		QuerySampleSize: 30,
		RandomSeed:      99,
	}

	r1, err := Run(ds, cfg)
	require.NoError(t, err)
	r2, err := Run(ds, cfg)
	require.NoError(t, err)

	assert.Equal(t, r1.Algorithm, r2.Algorithm, "expected deterministic algorithm choice given identical seed")
	assert.Equal(t, r1.BuildOptions, r2.BuildOptions, "expected deterministic build options given identical seed")
}

func TestEstimateMemoryIsPositiveForKnownAlgorithms(t *testing.T) {
	opts := defaultOptsForTest()
	assert.Greater(t, estimateMemory("kdtree", opts, 1000), float32(0))
	assert.Greater(t, estimateMemory("kmeans", opts, 1000), float32(0))
}

func TestRunDoesNotPanicWhenSampleFractionLeavesFewQueryRows(t *testing.T) {
	// SampleFraction=0.6 with the spec-literal default QuerySampleSize=1000
	// on a dataset under ~2000 points used to request more query rows than
	// remained after sampling, panicking inside rng.Sample. It must now
	// fall back to whatever remains and return a normal result or error.
	ds := randomDataset(100, 4, 1)

	cfg := Config{
		TargetPrecision: 0.8,
		SampleFraction:  0.6,
		NN:              1,
		QuerySampleSize: 1000,
		RandomSeed:      1,
	}

	require.NotPanics(t, func() {
		_, _ = Run(ds, cfg)
	})
}
