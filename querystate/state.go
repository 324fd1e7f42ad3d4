// Package querystate carries the per-query traversal context — visited
// suppression, the best-first branch frontier, and the shared checks
// budget — as an explicit value threaded through findNeighbors calls,
// rather than as index member state. This is what lets a KD forest's T
// trees, or a CompositeTree's two sub-indices, cooperate on one query
// without synchronization: State is never touched by more than one
// logical query at a time.
package querystate

import (
	"sync"

	"github.com/hupe1980/flann-go/internal/branchqueue"
	"github.com/hupe1980/flann-go/internal/visited"
)

// State is a reusable, non-thread-safe per-query execution context.
type State struct {
	// Visited suppresses re-scoring the same point index across trees.
	Visited *visited.Set

	// Branches is the shared best-first frontier of deferred subtrees.
	Branches *branchqueue.Queue

	// ChecksRemaining is the shared leaf-point distance-evaluation
	// budget across the whole forest/tree for this query. -1 means
	// unlimited.
	ChecksRemaining int

	// CBIndex overrides a k-means tree's build-time cluster-boundary
	// blend for this query; negative means "use the tree's default".
	CBIndex float32
}

// New creates a State sized for the given point capacity, with the
// checks budget set to checks (-1 = unlimited).
func New(capacity, checks int) *State {
	return &State{
		Visited:         visited.New(capacity),
		Branches:        branchqueue.New(64),
		ChecksRemaining: checks,
		CBIndex:         -1,
	}
}

// Reset clears all per-query bookkeeping and reinstates the checks
// budget, so a State can be reused across queries.
func (s *State) Reset(checks int) {
	s.Visited.Reset()
	s.Branches.Reset()
	s.ChecksRemaining = checks
	s.CBIndex = -1
}

// ConsumeCheck decrements the checks budget by one leaf-point distance
// evaluation and reports whether the budget still allows further work.
// An unlimited budget (-1) always reports true.
func (s *State) ConsumeCheck() bool {
	if s.ChecksRemaining < 0 {
		return true
	}
	if s.ChecksRemaining == 0 {
		return false
	}
	s.ChecksRemaining--
	return true
}

// Exhausted reports whether the checks budget has been fully consumed.
func (s *State) Exhausted() bool {
	return s.ChecksRemaining == 0
}

var pool = sync.Pool{
	New: func() any {
		return New(1024, -1)
	},
}

// Get returns a pooled State, reset with the given capacity guarantee
// and checks budget. Prefer this in hot autotuning/eval loops that
// issue many queries back to back.
func Get(capacity, checks int) *State {
	s := pool.Get().(*State)
	s.Visited.EnsureCapacity(capacity)
	s.Reset(checks)
	return s
}

// Put returns a State to the pool for reuse.
func Put(s *State) {
	pool.Put(s)
}
