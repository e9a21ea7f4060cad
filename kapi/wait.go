package kapi

import (
	"kore/defs"
	"kore/proc"
	"kore/sched"
	"kore/wait"
)

// Check implements check(h): a non-blocking poll of whether a
// waitable is satisfied right now, without consuming anything a
// subsequent wait_for would otherwise see.
func (s *Service) Check(caller *proc.Thread, h defs.Handle_t) (bool, bool) {
	_, obj, ok := caller.Process.Handles.Get(h)
	if !ok {
		return false, false
	}
	switch w := obj.(type) {
	case *wait.Event:
		return w.Peek(), true
	case *wait.Semaphore:
		return w.Peek(), true
	case *proc.Process:
		return w.State() == proc.Stopped, true
	case *proc.Thread:
		return w.State == sched.Stopped, true
	default:
		return false, false
	}
}

// WaitFor implements wait_for(h,us): blocks the caller until h
// becomes satisfied or timeoutUs elapses.
func (s *Service) WaitFor(core *sched.Core, caller *proc.Thread, h defs.Handle_t, timeoutUs int64) (defs.Reason, bool) {
	_, obj, ok := caller.Process.Handles.Get(h)
	if !ok {
		return 0, false
	}
	switch w := obj.(type) {
	case *wait.Event:
		return w.Wait(core, timeoutUs), true
	case *wait.Semaphore:
		return w.Wait(core, timeoutUs), true
	case *proc.Process:
		return w.Wait(core, timeoutUs), true
	case *proc.Thread:
		return w.Wait(core, timeoutUs), true
	default:
		return 0, false
	}
}

// SignalMode selects signal(h,mode)'s behavior for an Event handle; a
// Semaphore ignores mode and always releases one unit.
type SignalMode int

const (
	SignalOne SignalMode = iota
	SignalAll
)

// Signal implements signal(h,mode).
func (s *Service) Signal(core *sched.Core, caller *proc.Thread, h defs.Handle_t, mode SignalMode) bool {
	_, obj, ok := caller.Process.Handles.Get(h)
	if !ok {
		return false
	}
	switch w := obj.(type) {
	case *wait.Event:
		if mode == SignalAll {
			w.SignalAll(core)
		} else {
			w.SignalOne(core)
		}
		return true
	case *wait.Semaphore:
		w.Signal(core)
		return true
	default:
		return false
	}
}
