package wait

import (
	"testing"

	"kore/defs"
	"kore/sched"
	"kore/timer"
)

func TestNotifyWakesInFIFOOrder(t *testing.T) {
	c, s := newTestCore()
	ts := timer.NewSoftware()
	b := NewBase(ts)

	t1 := &sched.Thread{ID: 1, Priority: 5}
	t2 := &sched.Thread{ID: 2, Priority: 5}
	t3 := &sched.Thread{ID: 3, Priority: 5}
	for _, th := range []*sched.Thread{t1, t2, t3} {
		th.State = sched.Waiting
		th.WaitFor = b
		b.push(th)
	}

	if n := b.Notify(c, defs.Notify); n != 3 {
		t.Fatalf("Notify woke %d threads, want 3", n)
	}

	idle := &sched.Thread{ID: 99, Priority: 1 << 30}
	if got := s.Get(idle); got != t1 {
		t.Fatalf("first woken should be t1 (FIFO), got id=%d", got.ID)
	}
	if got := s.Get(idle); got != t2 {
		t.Fatalf("second woken should be t2 (FIFO), got id=%d", got.ID)
	}
	if got := s.Get(idle); got != t3 {
		t.Fatalf("third woken should be t3 (FIFO), got id=%d", got.ID)
	}
	for _, th := range []*sched.Thread{t1, t2, t3} {
		if th.LastReason != defs.Notify {
			t.Fatalf("thread %d LastReason = %v, want NOTIFY", th.ID, th.LastReason)
		}
		if th.WaitFor != nil {
			t.Fatalf("thread %d WaitFor should be cleared after waking", th.ID)
		}
	}
}

func TestCancelRemovesFromMiddleOfQueue(t *testing.T) {
	c, _ := newTestCore()
	ts := timer.NewSoftware()
	b := NewBase(ts)

	t1 := &sched.Thread{ID: 1}
	t2 := &sched.Thread{ID: 2}
	t3 := &sched.Thread{ID: 3}
	b.push(t1)
	b.push(t2)
	b.push(t3)

	if !b.Cancel(c, t2) {
		t.Fatal("Cancel(t2) should succeed")
	}

	head := b.stealAll()
	var ids []defs.Tid_t
	for cur := head; cur != nil; cur = cur.Next {
		ids = append(ids, cur.ID)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("remaining queue = %v, want [1 3]", ids)
	}
}

func TestRelaxToZeroAbandonsWaiters(t *testing.T) {
	c, s := newTestCore()
	ts := timer.NewSoftware()
	b := NewBase(ts)
	b.Manage() // refCount now 2

	waiter := &sched.Thread{ID: 1, Priority: 1}
	waiter.State = sched.Waiting
	waiter.WaitFor = b
	b.push(waiter)

	b.Relax(c) // 2 -> 1, no-op
	if waiter.LastReason == defs.Abandoned {
		t.Fatal("a single Relax should not yet abandon the waiter")
	}

	b.Relax(c) // 1 -> 0, triggers Notify(ABANDONED)
	if waiter.LastReason != defs.Abandoned {
		t.Fatalf("LastReason = %v, want ABANDONED once refcount hits zero", waiter.LastReason)
	}
	idle := &sched.Thread{ID: 99, Priority: 1 << 30}
	if got := s.Get(idle); got != waiter {
		t.Fatal("abandoned waiter should be back on the ready queue")
	}
}
