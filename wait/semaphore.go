package wait

import (
	"kore/defs"
	"kore/sched"
	"kore/timer"
)

// Semaphore is the counting waitable spec.md §4.3 names, grounded on
// original_source's semaphore.cpp. count tracks the number of
// available units; a wait that finds count > 0 decrements it and
// passes immediately, otherwise the calling thread blocks until a
// Signal hands it one unit directly.
type Semaphore struct {
	*Base
	count int
	max   int
}

// NewSemaphore constructs a Semaphore with an initial count, capped
// at max (max <= 0 means uncapped, matching a plain counting
// semaphore with no upper bound).
func NewSemaphore(tsvc timer.Service, initial, max int) *Semaphore {
	return &Semaphore{Base: NewBase(tsvc), count: initial, max: max}
}

type semaphoreKind struct{ s *Semaphore }

func (k semaphoreKind) Satisfied() bool { return k.s.count > 0 }
func (k semaphoreKind) Acquire()        { k.s.count-- }

// Wait decrements the semaphore, blocking until a unit is available
// or timeoutUs elapses.
func (s *Semaphore) Wait(core *sched.Core, timeoutUs int64) defs.Reason {
	return s.Base.Wait(core, semaphoreKind{s}, timeoutUs)
}

// Peek reports whether a unit is currently available, without
// blocking and without consuming it.
func (s *Semaphore) Peek() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count > 0
}

// Signal releases one unit: if a thread is already waiting, the unit
// transfers to it directly without ever incrementing count (matching
// semaphore.cpp's signal, which hands off rather than ping-ponging
// through the counter); otherwise count is incremented, capped at max
// when max > 0.
func (s *Semaphore) Signal(core *sched.Core) {
	s.wakeOneOrElse(core, func() {
		if s.max <= 0 || s.count < s.max {
			s.count++
		}
	})
}
