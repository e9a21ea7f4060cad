package wait

import (
	"testing"

	"kore/sched"
	"kore/timer"
)

func TestSemaphoreWaitPassesWhenCountPositive(t *testing.T) {
	c, _ := newTestCore()
	ts := timer.NewSoftware()
	sem := NewSemaphore(ts, 1, 0)

	if r := sem.Wait(c, 0); r != 0 {
		t.Fatalf("Wait with count=1 = %v, want PASSED", r)
	}
	if sem.count != 0 {
		t.Fatalf("count after consuming the only unit = %d, want 0", sem.count)
	}
}

func TestSemaphoreSignalHandsOffDirectlyToWaiter(t *testing.T) {
	c, _ := newTestCore()
	ts := timer.NewSoftware()
	sem := NewSemaphore(ts, 0, 0)

	waiter := &sched.Thread{ID: 1, Priority: 1}
	sem.push(waiter)
	waiter.State = sched.Waiting
	waiter.WaitFor = sem.Base

	sem.Signal(c)

	if sem.count != 0 {
		t.Fatalf("a direct handoff must not touch count, got %d", sem.count)
	}
	if waiter.State != sched.Ready {
		t.Fatalf("waiter should be READY after handoff, got %v", waiter.State)
	}
}

func TestSemaphoreSignalIncrementsCountWhenNoWaiters(t *testing.T) {
	c, _ := newTestCore()
	ts := timer.NewSoftware()
	sem := NewSemaphore(ts, 0, 0)

	sem.Signal(c)
	if sem.count != 1 {
		t.Fatalf("count = %d, want 1", sem.count)
	}
}

func TestSemaphoreSignalRespectsMax(t *testing.T) {
	c, _ := newTestCore()
	ts := timer.NewSoftware()
	sem := NewSemaphore(ts, 2, 2)

	sem.Signal(c)
	if sem.count != 2 {
		t.Fatalf("count = %d, want capped at max=2", sem.count)
	}
}

func TestSemaphoreCancelRemovesFromQueue(t *testing.T) {
	c, _ := newTestCore()
	ts := timer.NewSoftware()
	sem := NewSemaphore(ts, 0, 0)

	waiter := &sched.Thread{ID: 1, Priority: 1}
	sem.push(waiter)

	if !sem.Cancel(c, waiter) {
		t.Fatal("Cancel should find and remove the queued waiter")
	}
	if sem.Cancel(c, waiter) {
		t.Fatal("canceling an already-removed thread should report false")
	}
}
