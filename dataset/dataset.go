// Package dataset provides the borrowed, read-only row-major views that
// every index is built over and queried against. A Dataset never owns
// its backing storage: the caller must keep it alive and unmodified for
// as long as any index built over it exists.
package dataset

import "fmt"

// ErrInvalidArgument indicates a malformed Dataset constructor argument:
// nonpositive rows/cols, or data whose length doesn't match rows*cols.
type ErrInvalidArgument struct {
	Reason string
}

func (e *ErrInvalidArgument) Error() string { return fmt.Sprintf("dataset: %s", e.Reason) }

// Dataset is a read-only rectangular view (Rows x Cols) over a
// caller-owned float32 slice, exposing row i as a Vector in O(1).
type Dataset struct {
	data []float32
	rows int
	cols int
}

// New wraps data as a Rows x Cols row-major view. data must have
// exactly rows*cols elements. The returned Dataset aliases data; it
// does not copy.
func New(data []float32, rows, cols int) (*Dataset, error) {
	if rows <= 0 || cols <= 0 {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("rows and cols must be positive, got rows=%d cols=%d", rows, cols)}
	}
	if len(data) != rows*cols {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("data has %d elements, want rows*cols=%d", len(data), rows*cols)}
	}
	return &Dataset{data: data, rows: rows, cols: cols}, nil
}

// Rows returns the number of rows (points) in the dataset.
func (d *Dataset) Rows() int { return d.rows }

// Cols returns the vector dimensionality.
func (d *Dataset) Cols() int { return d.cols }

// Row returns row i as a []float32 view. The slice aliases the
// Dataset's backing storage; callers must not mutate it.
func (d *Dataset) Row(i int) []float32 {
	off := i * d.cols
	return d.data[off : off+d.cols]
}

// Subset returns a new Dataset view containing only the given row
// indices, copying their vectors into fresh backing storage (used by
// the autotuner to materialize a sample subset S or query subset Q).
func (d *Dataset) Subset(indices []int) *Dataset {
	data := make([]float32, len(indices)*d.cols)
	for i, idx := range indices {
		copy(data[i*d.cols:(i+1)*d.cols], d.Row(idx))
	}
	ds, _ := New(data, len(indices), d.cols)
	return ds
}

// IntMatrix is a caller-owned Rows x Cols output matrix of point
// indices, used for ground-truth and query-driver result matrices.
type IntMatrix struct {
	data []int
	rows int
	cols int
}

// NewIntMatrix wraps data (or allocates rows*cols entries if data is
// nil) as a Rows x Cols int matrix view.
func NewIntMatrix(data []int, rows, cols int) (*IntMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("rows and cols must be positive, got rows=%d cols=%d", rows, cols)}
	}
	if data == nil {
		data = make([]int, rows*cols)
	}
	if len(data) != rows*cols {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("data has %d elements, want rows*cols=%d", len(data), rows*cols)}
	}
	return &IntMatrix{data: data, rows: rows, cols: cols}, nil
}

// Rows returns the number of rows.
func (m *IntMatrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *IntMatrix) Cols() int { return m.cols }

// Row returns row i as a []int view.
func (m *IntMatrix) Row(i int) []int {
	off := i * m.cols
	return m.data[off : off+m.cols]
}

// FloatMatrix is the float32 analog of IntMatrix, used for the output
// distance matrix alongside an IntMatrix of indices.
type FloatMatrix struct {
	data []float32
	rows int
	cols int
}

// NewFloatMatrix wraps data (or allocates rows*cols entries if data is
// nil) as a Rows x Cols float32 matrix view.
func NewFloatMatrix(data []float32, rows, cols int) (*FloatMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("rows and cols must be positive, got rows=%d cols=%d", rows, cols)}
	}
	if data == nil {
		data = make([]float32, rows*cols)
	}
	if len(data) != rows*cols {
		return nil, &ErrInvalidArgument{Reason: fmt.Sprintf("data has %d elements, want rows*cols=%d", len(data), rows*cols)}
	}
	return &FloatMatrix{data: data, rows: rows, cols: cols}, nil
}

// Rows returns the number of rows.
func (m *FloatMatrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *FloatMatrix) Cols() int { return m.cols }

// Row returns row i as a []float32 view.
func (m *FloatMatrix) Row(i int) []float32 {
	off := i * m.cols
	return m.data[off : off+m.cols]
}
