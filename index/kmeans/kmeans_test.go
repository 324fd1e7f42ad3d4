package kmeans

import (
	"testing"

	"github.com/hupe1980/flann-go/dataset"
	"github.com/hupe1980/flann-go/index"
	"github.com/hupe1980/flann-go/querystate"
	"github.com/hupe1980/flann-go/resultset"
	"github.com/hupe1980/flann-go/util"
)

func newTestRNG() *util.RNG { return util.NewRNG(42) }

// threeBlobs builds 3 well-separated clusters of 10 points each in 2D.
func threeBlobs() *dataset.Dataset {
	data := make([]float32, 0, 60*2)
	centers := [][2]float32{{0, 0}, {100, 0}, {0, 100}}
	for _, c := range centers {
		for i := 0; i < 10; i++ {
			jitter := float32(i%3) * 0.1
			data = append(data, c[0]+jitter, c[1]+jitter)
		}
	}
	ds, _ := dataset.New(data, 30, 2)
	return ds
}

func TestTreeExactWithUnlimitedChecks(t *testing.T) {
	ds := threeBlobs()
	opts := index.DefaultBuildOptions
	opts.Branching = 4
	opts.MaxIterations = 11
	opts.RandomSeed = 11

	tr, err := New(ds, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tr.BuildIndex(); err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}

	q := []float32{100, 0} // exactly on the second blob's center point
	sink := resultset.NewKNN(1)
	state := querystate.New(ds.Rows(), -1)

	if err := tr.FindNeighbors(state, sink, q); err != nil {
		t.Fatalf("FindNeighbors: %v", err)
	}
	if sink.Len() != 1 {
		t.Fatalf("expected 1 result, got %d", sink.Len())
	}
	if sink.Dists()[0] != 0 {
		t.Fatalf("expected exact match distance 0, got %v", sink.Dists()[0])
	}
}

func TestCentersInitStrategiesProduceBranchingCenters(t *testing.T) {
	ds := threeBlobs()
	for _, ci := range []index.CentersInit{index.Random, index.Gonzalez, index.KMeansPP} {
		opts := index.DefaultBuildOptions
		opts.Branching = 3
		opts.CentersInit = ci
		opts.RandomSeed = 5

		tr, err := New(ds, opts)
		if err != nil {
			t.Fatalf("%v: New: %v", ci, err)
		}
		members := make([]int32, ds.Rows())
		for i := range members {
			members[i] = int32(i)
		}
		centers := tr.initCenters(members, newTestRNG())
		if len(centers) != 3 {
			t.Fatalf("%v: expected 3 centers, got %d", ci, len(centers))
		}
	}
}

func TestDimensionMismatch(t *testing.T) {
	ds := threeBlobs()
	tr, _ := New(ds, index.DefaultBuildOptions)
	tr.BuildIndex()

	sink := resultset.NewKNN(1)
	if err := tr.FindNeighbors(nil, sink, []float32{0, 0, 0}); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}
