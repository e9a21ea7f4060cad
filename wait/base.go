// Package wait implements the waitable primitive of spec.md §4.3:
// a reference-counted synchronization object carrying a FIFO thread
// wait-queue, with wait/notify/cancel/relax. Grounded directly on
// original_source's waitable.cpp (imp_wait/imp_notify/cancel/on_timer
// control flow) and event.cpp (signal_one/signal_all's pop-or-set-
// state loop), generalized from COFUOS's vtable-style virtual dispatch
// into the Go interface Kind (Satisfied/Acquire, the check and the
// on-acquire step) plus the wait/notify/cancel/manage/relax methods
// every subtype shares through Base, per spec.md
// §9's explicit note that a tagged-base-with-dispatch-table and a sum
// type are equivalent at this design level — the dispatch-table form
// is chosen since it reads closest to COFUOS's actual virtual methods.
//
// Every entry point takes the acting *sched.Core explicitly rather
// than Base owning one, matching the "this_core core;" locally
// constructed at each call site in original_source's thread.cpp: on
// real SMP hardware, wait/notify/cancel can each run on a different
// core, and sched already establishes the "no implicit current core"
// discipline this package follows.
package wait

import (
	"sync"
	"sync/atomic"
	"time"

	"kore/defs"
	"kore/sched"
	"kore/timer"
)

// Kind is the per-subtype capability set spec.md §9 names: the
// "already satisfied" predicate and the atomic-with-the-check
// acquisition step the fast path performs under the object's lock.
type Kind interface {
	Satisfied() bool
	Acquire()
}

// Base is the shared waitable state: lock, FIFO wait queue, refcount.
// Event, Semaphore, and the process/thread terminal waitables all
// embed Base.
type Base struct {
	mu   sync.Mutex
	head *sched.Thread
	tail *sched.Thread

	refCount int32

	timer timer.Service
}

// NewBase constructs a Base with one initial reference and a timer
// service for timeout support.
func NewBase(tsvc timer.Service) *Base {
	return &Base{refCount: 1, timer: tsvc}
}

func (b *Base) push(t *sched.Thread) {
	t.Next = nil
	if b.tail == nil {
		b.head, b.tail = t, t
		return
	}
	b.tail.Next = t
	b.tail = t
}

// stealAll detaches the entire queue and returns its head, per
// spec.md §4.3's notify: "steal the entire wait queue under lock".
func (b *Base) stealAll() *sched.Thread {
	h := b.head
	b.head, b.tail = nil, nil
	return h
}

// pop removes and returns the head of the queue, or nil if empty.
func (b *Base) pop() *sched.Thread {
	t := b.head
	if t == nil {
		return nil
	}
	b.head = t.Next
	if b.head == nil {
		b.tail = nil
	}
	t.Next = nil
	return t
}

// remove implements cancel's "O(n) linear scan" removal of an
// arbitrary thread from the middle of the queue (spec.md §4.3).
func (b *Base) remove(target *sched.Thread) bool {
	if b.head == nil {
		return false
	}
	if b.head == target {
		b.head = target.Next
		if b.head == nil {
			b.tail = nil
		}
		target.Next = nil
		return true
	}
	for cur := b.head; cur.Next != nil; cur = cur.Next {
		if cur.Next == target {
			cur.Next = target.Next
			if cur.Next == nil {
				b.tail = cur
			}
			target.Next = nil
			return true
		}
	}
	return false
}

// Wait implements spec.md §4.3's wait(timeout, on_acquire). The fast
// path checks kind.Satisfied() under the lock and, if true, calls
// kind.Acquire() atomically with the check and returns PASSED. The
// slow path enqueues the calling thread, optionally arms a timeout,
// and switches off to the next ready thread; the eventual waker
// (notify/timeout/abandonment) sets LastReason before re-readying it.
func (b *Base) Wait(core *sched.Core, kind Kind, timeoutUs int64) defs.Reason {
	prev := core.DisableInterrupts()
	b.mu.Lock()
	if kind.Satisfied() {
		kind.Acquire()
		b.mu.Unlock()
		core.RestoreInterrupts(prev)
		return defs.Passed
	}

	self := core.Current()
	b.push(self)
	self.WaitFor = b
	self.State = sched.Waiting
	self.LastReason = 0

	if timeoutUs > 0 {
		self.TimerTicket = b.armTimeout(core, self, timeoutUs)
	} else {
		self.TimerTicket = 0
	}
	b.mu.Unlock()

	core.Yield()
	core.RestoreInterrupts(prev)
	return self.LastReason
}

func (b *Base) armTimeout(core *sched.Core, t *sched.Thread, timeoutUs int64) uint64 {
	var ticket timer.Ticket
	ticket = b.timer.ScheduleOnce(time.Duration(timeoutUs)*time.Microsecond, func() {
		b.onTimerFire(core, t, uint64(ticket))
	})
	return uint64(ticket)
}

// onTimerFire is the Go analogue of waitable.cpp's on_timer: it only
// acts if t is still waiting on this Base with this exact ticket,
// defeating the race against a concurrent notify/cancel (spec.md §5:
// "competing paths are defeated by checking thread.timer_ticket
// identity against the timer's ticket at fire time").
func (b *Base) onTimerFire(core *sched.Core, t *sched.Thread, ticket uint64) {
	prev := core.DisableInterrupts()
	b.mu.Lock()
	if t.TimerTicket != ticket || t.WaitFor != any(b) {
		b.mu.Unlock()
		core.RestoreInterrupts(prev)
		return
	}
	b.remove(t)
	t.WaitFor = nil
	t.TimerTicket = 0
	t.LastReason = defs.Timeout
	b.mu.Unlock()

	core.PutReady(t)
	core.RestoreInterrupts(prev)
	core.MaybePreempt()
}

// Notify implements spec.md §4.3's notify(reason): steals the entire
// wait queue, transitions each thread to READY, cancels its timer,
// and enqueues it on the scheduler's ready queue; preempts if the
// highest-priority wakee outranks the currently running thread.
func (b *Base) Notify(core *sched.Core, reason defs.Reason) int {
	prev := core.DisableInterrupts()
	b.mu.Lock()
	head := b.stealAll()
	b.mu.Unlock()

	count := 0
	for t := head; t != nil; {
		next := t.Next
		t.Next = nil
		t.WaitFor = nil
		t.LastReason = reason
		if t.TimerTicket != 0 {
			b.timer.Cancel(timer.Ticket(t.TimerTicket))
			t.TimerTicket = 0
		}
		core.PutReady(t)
		count++
		t = next
	}
	core.RestoreInterrupts(prev)
	if count > 0 {
		core.MaybePreempt()
	}
	return count
}

// wakeOneOrElse wakes the single longest-waiting thread, or runs
// orElse (under the same lock) if the queue is empty — the shared
// shape behind Event.SignalOne and Semaphore.Signal.
func (b *Base) wakeOneOrElse(core *sched.Core, orElse func()) {
	prev := core.DisableInterrupts()
	b.mu.Lock()
	t := b.pop()
	if t == nil {
		orElse()
		b.mu.Unlock()
		core.RestoreInterrupts(prev)
		return
	}
	b.mu.Unlock()

	t.WaitFor = nil
	if t.TimerTicket != 0 {
		b.timer.Cancel(timer.Ticket(t.TimerTicket))
		t.TimerTicket = 0
	}
	t.LastReason = defs.Notify
	core.PutReady(t)
	core.RestoreInterrupts(prev)
	core.MaybePreempt()
}

// Cancel implements spec.md §4.3's cancel(thread): removes thread
// from the wait queue via an O(n) linear scan.
func (b *Base) Cancel(core *sched.Core, t *sched.Thread) bool {
	prev := core.DisableInterrupts()
	b.mu.Lock()
	ok := b.remove(t)
	if ok {
		t.WaitFor = nil
		t.TimerTicket = 0
	}
	b.mu.Unlock()
	core.RestoreInterrupts(prev)
	return ok
}

// Manage double-counts the reference for named/global objects, per
// spec.md §3.
func (b *Base) Manage() { atomic.AddInt32(&b.refCount, 1) }

// Relax decrements the refcount; reaching zero triggers
// notify(ABANDONED) so any still-waiting threads wake deterministically
// (spec.md §4.3, §8 scenario 6).
func (b *Base) Relax(core *sched.Core) {
	if atomic.AddInt32(&b.refCount, -1) == 0 {
		b.Notify(core, defs.Abandoned)
	}
}
