// Package timer is the timer-service port spec.md §1 names as an
// external collaborator: "schedule-one-shot with cancel". Grounded on
// COFUOS's timer.wait(us, cb, ctx)/timer.cancel(ticket) calls seen in
// waitable.cpp/thread.cpp for the one-shot-with-cancellable-ticket
// shape.
package timer

import (
	"sync"
	"time"
)

// Ticket identifies a scheduled callback so it can be cancelled before
// it fires. The zero Ticket is never issued and means "no timer".
type Ticket uint64

// Service is the narrow interface the waitable subsystem consumes.
type Service interface {
	// ScheduleOnce arranges for cb to run after d elapses and returns
	// a Ticket identifying the scheduled callback.
	ScheduleOnce(d time.Duration, cb func()) Ticket
	// Cancel prevents a not-yet-fired callback from running. Canceling
	// an already-fired or unknown ticket is a silent no-op, matching
	// the "competing paths are defeated by checking timer_ticket
	// identity" discipline spec.md §5 describes (the identity check
	// itself lives in the wait package; Cancel here only stops the
	// callback from firing a second time).
	Cancel(Ticket)
}

// Software is a time.AfterFunc-backed Service, the hosted
// implementation used outside real hardware.
type Software struct {
	mu      sync.Mutex
	next    uint64
	pending map[Ticket]*time.Timer
}

func NewSoftware() *Software {
	return &Software{pending: map[Ticket]*time.Timer{}}
}

func (s *Software) ScheduleOnce(d time.Duration, cb func()) Ticket {
	s.mu.Lock()
	s.next++
	t := Ticket(s.next)

	// s.mu stays held until t is in pending, so a callback that fires
	// at once waits for the registration instead of finding no entry.
	timer := time.AfterFunc(d, func() {
		s.mu.Lock()
		_, still := s.pending[t]
		if still {
			delete(s.pending, t)
		}
		s.mu.Unlock()
		if still {
			cb()
		}
	})
	s.pending[t] = timer
	s.mu.Unlock()
	return t
}

func (s *Software) Cancel(t Ticket) {
	s.mu.Lock()
	timer, ok := s.pending[t]
	if ok {
		delete(s.pending, t)
	}
	s.mu.Unlock()
	if ok {
		timer.Stop()
	}
}
