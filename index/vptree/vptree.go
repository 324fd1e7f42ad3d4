// Package vptree is a registered plug-in point for a vantage-point tree
// algorithm variant. It is not implemented: the metric-space vantage
// point tree needs a different split primitive (distance to a pivot,
// not a coordinate-axis split or a cluster center) than either existing
// variant generalizes to, so there is no teacher idiom to adapt it from
// yet. Selecting it fails fast with ErrUnsupportedAlgorithm rather than
// silently falling back to another algorithm.
package vptree

import (
	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
)

func init() {
	index.Register(index.VPTree, func(ds *dataset.Dataset, opts index.BuildOptions) (index.Index, error) {
		return nil, &index.ErrUnsupportedAlgorithm{Algorithm: string(index.VPTree)}
	})
}
