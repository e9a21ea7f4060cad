package sched

import (
	"kore/hal"
	"kore/kbug"
	"kore/vspace"
)

// Core is "this_core": the per-simulated-CPU facade that performs
// switch_to and escape, per spec.md §4.4. Grounded on COFUOS's
// this_core/core_state.hpp (core.switch_to, core.escape,
// core.this_thread()).
type Core struct {
	id      int
	facade  hal.Facade
	sched   *Scheduler
	idle    *Thread
	current *Thread
	masked  bool
}

// NewCore constructs the Core for simulated CPU id, with its
// dedicated idle thread (returned by Scheduler.Get when the ready
// queue is empty).
func NewCore(id int, facade hal.Facade, s *Scheduler, idle *Thread) *Core {
	idle.Owner = 0
	idle.Priority = int(^uint(0) >> 1) // lowest possible priority
	return &Core{id: id, facade: facade, sched: s, idle: idle, current: idle}
}

func (c *Core) ID() int           { return c.id }
func (c *Core) Current() *Thread  { return c.current }

// DisableInterrupts masks local interrupts on this core and returns
// the prior state, for use as the "interrupt guard" scope spec.md §5
// names.
func (c *Core) DisableInterrupts() bool {
	prev := c.facade.DisableInterrupts(c.id)
	c.masked = true
	return prev
}

// RestoreInterrupts restores a previously saved interrupt mask state.
func (c *Core) RestoreInterrupts(prev bool) {
	c.masked = prev
	c.facade.RestoreInterrupts(c.id, prev)
}

// SwitchTo saves the outgoing thread's state (the register-save area
// is assumed already current — a hosted simulation has no trap frame
// to capture, so callers update next/current Regs directly before
// calling SwitchTo; see DESIGN.md), loads the page-table root if the
// owning process differs, and makes next current. A no-op if next is
// already current, per spec.md §4.4.
func (c *Core) SwitchTo(next *Thread) {
	if next == c.current {
		return
	}
	if c.current != nil && c.current.State == Running {
		c.current.State = Ready
	}
	if c.current == nil || next.Owner != c.current.Owner {
		c.facade.LoadCR3(c.id, ownerCR3(next))
	}
	next.State = Running
	c.current = next
}

// ownerCR3 resolves the page-table root to load for t: t.VSpace is the
// owning process's virtual space (sched.Thread carries it directly so
// this stays self-contained without importing proc, which itself
// imports sched). A thread with no VSpace set (scheduler-only tests
// that never cross processes) loads root 0, a no-op on the software
// CPU facade.
func ownerCR3(t *Thread) uintptr {
	if t.VSpace == nil {
		return 0
	}
	return uintptr(t.VSpace.Root())
}

// Escape is called by the exit path to free the outgoing thread's own
// kernel stack after switching off it; it requires interrupts
// disabled, per spec.md §4.4.
func (c *Core) Escape(space *vspace.Space, t *Thread) {
	if !c.masked {
		kbug.Check(kbug.AssertFailed, "escape requires interrupts disabled")
	}
	space.Release(c.id, t.StackBase, t.StackPages)
}

// Yield switches away from the current thread to the next ready
// thread (or the core's idle thread if none is ready), without
// re-enqueuing the outgoing thread. Callers that want the outgoing
// thread to remain schedulable must Put it themselves first — the
// wait package's slow path instead leaves it off the ready queue
// entirely, since it is already recorded on a waitable's wait queue.
func (c *Core) Yield() {
	next := c.sched.Get(c.idle)
	c.SwitchTo(next)
}

// PutReady exposes the scheduler's ready-queue insertion so other
// packages (wait, proc) can re-enqueue a thread they have woken
// without reaching into Core's private scheduler field.
func (c *Core) PutReady(t *Thread) {
	c.sched.Put(t)
}

// MaybePreempt implements spec.md §4.4's preemption rule: after any
// operation that readies a thread of strictly higher priority than
// the one running, the running thread is set READY and re-enqueued
// and the higher-priority thread is switched in. Returns true if a
// switch occurred.
func (c *Core) MaybePreempt() bool {
	hi, ok := c.sched.HighestPriority()
	if !ok || c.current == nil {
		return false
	}
	if hi >= c.current.Priority {
		return false
	}
	outgoing := c.current
	next := c.sched.Get(c.idle)
	if next == outgoing {
		return false
	}
	if outgoing.State == Running {
		c.sched.Put(outgoing)
	}
	c.SwitchTo(next)
	return true
}
