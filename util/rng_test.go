package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRNGDeterministic(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)

	for i := 0; i < 10; i++ {
		x := a.Intn(1000)
		y := b.Intn(1000)
		assert.Equalf(t, y, x, "RNGs with same seed diverged at step %d", i)
	}
}

func TestSampleDistinct(t *testing.T) {
	r := NewRNG(7)
	idx := r.Sample(20, 5)
	require.Len(t, idx, 5)

	seen := make(map[int]bool)
	for _, i := range idx {
		assert.Falsef(t, seen[i], "duplicate sample index %d", i)
		seen[i] = true
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 20)
	}
}

func TestWeightedChoiceZeroWeights(t *testing.T) {
	r := NewRNG(1)
	assert.Equal(t, 0, r.WeightedChoice([]float64{0, 0, 0}))
}
