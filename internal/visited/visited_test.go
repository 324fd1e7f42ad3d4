package visited

import "testing"

func TestVisitMarksOnce(t *testing.T) {
	s := New(16)
	if !s.Visit(3) {
		t.Fatalf("first visit of 3 should return true")
	}
	if s.Visit(3) {
		t.Fatalf("second visit of 3 should return false")
	}
	if !s.Visited(3) {
		t.Fatalf("3 should be visited")
	}
	if s.Visited(4) {
		t.Fatalf("4 should not be visited")
	}
}

func TestResetClearsOnlyDirty(t *testing.T) {
	s := New(1000)
	s.Visit(5)
	s.Visit(900)
	s.Reset()
	if s.Visited(5) || s.Visited(900) {
		t.Fatalf("expected all bits cleared after reset")
	}
	if !s.Visit(5) {
		t.Fatalf("after reset, 5 should be visitable again")
	}
}

func TestGrowBeyondInitialCapacity(t *testing.T) {
	s := New(4)
	s.Visit(500)
	if !s.Visited(500) {
		t.Fatalf("expected growth to accommodate id 500")
	}
}
