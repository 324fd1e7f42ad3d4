package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsShapeMismatch(t *testing.T) {
	_, err := New([]float32{1, 2, 3}, 2, 2)
	require.Error(t, err)

	var invalidArg *ErrInvalidArgument
	assert.ErrorAs(t, err, &invalidArg)
}

func TestNewRejectsNonpositiveShape(t *testing.T) {
	_, err := New([]float32{}, 0, 2)
	require.Error(t, err)

	var invalidArg *ErrInvalidArgument
	assert.ErrorAs(t, err, &invalidArg)
}

func TestRowView(t *testing.T) {
	d, err := New([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Rows())
	assert.Equal(t, 2, d.Cols())

	row := d.Row(1)
	assert.Equal(t, []float32{3, 4}, row)
}

func TestSubset(t *testing.T) {
	d, err := New([]float32{0, 0, 1, 1, 2, 2, 3, 3}, 4, 2)
	require.NoError(t, err)

	sub := d.Subset([]int{3, 1})
	require.Equal(t, 2, sub.Rows())
	assert.Equal(t, float32(3), sub.Row(0)[0])
	assert.Equal(t, float32(1), sub.Row(1)[0])
}

func TestIntMatrixRow(t *testing.T) {
	m, err := NewIntMatrix(nil, 2, 3)
	require.NoError(t, err)

	row := m.Row(1)
	row[0] = 42
	assert.Equal(t, 42, m.Row(1)[0])
}
