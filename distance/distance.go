// Package distance provides the Minkowski-family distance used by every
// index variant, with early-exit accumulation against a caller-supplied
// bound. All comparisons, bounds, and results live in the same space the
// accumulator produces — square roots are never taken internally.
package distance

import (
	"fmt"
	"math"
)

// Metric selects the process-wide distance family.
type Metric int

const (
	// L2 is the squared Euclidean distance (default).
	L2 Metric = iota
	// L1 is the Manhattan distance.
	L1
	// Lp is the general Minkowski distance with a caller-chosen order.
	Lp
)

func (m Metric) String() string {
	switch m {
	case L2:
		return "L2"
	case L1:
		return "L1"
	case Lp:
		return "Lp"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Space bundles the process-wide distance configuration (metric and,
// for Lp, the Minkowski order) so it can be threaded explicitly into
// components rather than read from global state, per the "encapsulate
// then pass explicitly" design note.
type Space struct {
	Metric Metric
	Order  int // only consulted when Metric == Lp
}

// DefaultSpace is squared-L2, the default used when a component is not
// given an explicit Space.
var DefaultSpace = Space{Metric: L2, Order: 2}

// Distance returns a value >= the true distance between a and b under s,
// terminating the running accumulation as soon as it exceeds bound.
// Callers pass the current worst-accepted distance (e.g. a ResultSet's
// WorstDist) so non-improving points are rejected cheaply. a and b must
// have equal length; this is the caller's responsibility.
func (s Space) Distance(a, b []float32, bound float32) float32 {
	switch s.Metric {
	case L1:
		return l1(a, b, bound)
	case Lp:
		return lp(a, b, s.Order, bound)
	default:
		return squaredL2(a, b, bound)
	}
}

// Full computes the exact distance with no early exit, used where a
// bound is not available (e.g. computing a Branch lower bound).
func (s Space) Full(a, b []float32) float32 {
	return s.Distance(a, b, float32(math.Inf(1)))
}

func squaredL2(a, b []float32, bound float32) float32 {
	var sum float32
	n := len(a)
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
		if sum > bound {
			return sum
		}
	}
	return sum
}

func l1(a, b []float32, bound float32) float32 {
	var sum float32
	n := len(a)
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += d
		if sum > bound {
			return sum
		}
	}
	return sum
}

func lp(a, b []float32, order int, bound float32) float32 {
	var sum float32
	n := len(a)
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += pow32(d, order)
		if sum > bound {
			return sum
		}
	}
	return sum
}

func pow32(x float32, order int) float32 {
	r := float32(1)
	for i := 0; i < order; i++ {
		r *= x
	}
	return r
}

