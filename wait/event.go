package wait

import (
	"kore/defs"
	"kore/sched"
	"kore/timer"
)

// Event is the manual/auto-reset notification waitable spec.md §4.3
// names, grounded on original_source's event.cpp. signaled tracks
// whether the event is currently set; autoReset mirrors auto-reset
// semantics, where a successful wait consumes the signal.
type Event struct {
	*Base
	signaled  bool
	autoReset bool
}

// NewEvent constructs an Event bound to tsvc, initially unsignaled.
func NewEvent(tsvc timer.Service, autoReset bool) *Event {
	return &Event{Base: NewBase(tsvc), autoReset: autoReset}
}

// eventKind adapts Event to the Kind interface under Base's lock;
// Acquire consumes the signal for an auto-reset event, matching
// event.cpp's wait() clearing signaled before returning PASSED.
type eventKind struct{ e *Event }

func (k eventKind) Satisfied() bool { return k.e.signaled }
func (k eventKind) Acquire() {
	if k.e.autoReset {
		k.e.signaled = false
	}
}

// Wait blocks until the event is signaled (or timeoutUs elapses).
func (e *Event) Wait(core *sched.Core, timeoutUs int64) defs.Reason {
	return e.Base.Wait(core, eventKind{e}, timeoutUs)
}

// SignalOne wakes exactly one waiter, matching event.cpp's
// signal_one: if nobody is waiting, leaves the event set so the next
// waiter's fast path passes immediately.
func (e *Event) SignalOne(core *sched.Core) {
	e.wakeOneOrElse(core, func() {
		e.signaled = true
	})
}

// SignalAll sets the event and wakes every waiter, per event.cpp's
// signal_all. A manual-reset event stays set afterward; an auto-reset
// event set via SignalAll still wakes everyone currently waiting
// (only a subsequent Wait's Acquire consumes it).
func (e *Event) SignalAll(core *sched.Core) {
	e.mu.Lock()
	e.signaled = true
	e.mu.Unlock()
	e.Notify(core, defs.Notify)
}

// Reset clears a manual-reset event back to unsignaled.
func (e *Event) Reset() {
	e.mu.Lock()
	e.signaled = false
	e.mu.Unlock()
}

// Peek reports whether the event is currently signaled, without
// blocking and without consuming an auto-reset signal — the Go
// analogue of COFUOS's check(waitable*).
func (e *Event) Peek() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signaled
}
