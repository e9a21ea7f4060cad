package sched

import "testing"

func TestPutGetPriorityOrder(t *testing.T) {
	s := New()
	t1 := &Thread{ID: 1, Priority: 5}
	t2 := &Thread{ID: 2, Priority: 3}
	t3 := &Thread{ID: 3, Priority: 3}

	s.Put(t1)
	s.Put(t2)
	s.Put(t3)

	idle := &Thread{ID: 99}
	if got := s.Get(idle); got != t2 {
		t.Fatalf("expected t2 (prio 3, first) got id=%d", got.ID)
	}
	if got := s.Get(idle); got != t3 {
		t.Fatalf("expected t3 (prio 3, FIFO second) got id=%d", got.ID)
	}
	if got := s.Get(idle); got != t1 {
		t.Fatalf("expected t1 (prio 5) got id=%d", got.ID)
	}
	if got := s.Get(idle); got != idle {
		t.Fatal("empty queue should return idle")
	}
}

func TestPutSetsReadyState(t *testing.T) {
	s := New()
	th := &Thread{ID: 1, Priority: 1, State: Waiting}
	s.Put(th)
	if th.State != Ready {
		t.Fatalf("Put should transition the thread to READY, got %v", th.State)
	}
}

func TestHighestPriority(t *testing.T) {
	s := New()
	if _, ok := s.HighestPriority(); ok {
		t.Fatal("empty queue should report ok=false")
	}
	s.Put(&Thread{ID: 1, Priority: 7})
	if p, ok := s.HighestPriority(); !ok || p != 7 {
		t.Fatalf("HighestPriority = %d,%v want 7,true", p, ok)
	}
}
