package branchqueue

import "testing"

func TestPopOrdersByLowerBound(t *testing.T) {
	q := New(4)
	q.Push(1, 5.0)
	q.Push(2, 1.0)
	q.Push(3, 3.0)

	want := []uint32{2, 3, 1}
	for _, w := range want {
		b, ok := q.Pop()
		if !ok {
			t.Fatalf("expected pop to succeed")
		}
		if b.NodeRef != w {
			t.Fatalf("got node %d want %d", b.NodeRef, w)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestPopBreaksTiesByInsertionOrder(t *testing.T) {
	q := New(4)
	q.Push(10, 1.0)
	q.Push(20, 1.0)
	q.Push(30, 1.0)

	for _, want := range []uint32{10, 20, 30} {
		b, _ := q.Pop()
		if b.NodeRef != want {
			t.Fatalf("got %d want %d", b.NodeRef, want)
		}
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	q := New(1)
	q.Push(1, 2.0)
	b, ok := q.Peek()
	if !ok || b.NodeRef != 1 {
		t.Fatalf("peek failed")
	}
	if q.Len() != 1 {
		t.Fatalf("peek must not remove")
	}
}

func TestResetClearsQueue(t *testing.T) {
	q := New(4)
	q.Push(1, 1.0)
	q.Push(2, 2.0)
	q.Reset()
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after reset")
	}
	q.Push(3, 0.5)
	b, _ := q.Pop()
	if b.NodeRef != 3 {
		t.Fatalf("queue should be usable after reset")
	}
}
