package kapi

import (
	"kore/defs"
	"kore/proc"
	"kore/sched"
	"kore/stream"
	"kore/wait"
)

// ObjectType selects what create_object(type,a1,a2) constructs.
type ObjectType int

const (
	ObjectEvent ObjectType = iota
	ObjectSemaphore
)

// CloseHandle implements close_handle(h).
func (s *Service) CloseHandle(core *sched.Core, caller *proc.Thread, h defs.Handle_t) bool {
	return caller.Process.Handles.Close(core, h)
}

// HandleType implements handle_type(h): a coarse type tag, or ("",
// false) if h names nothing.
func (s *Service) HandleType(caller *proc.Thread, h defs.Handle_t) (string, bool) {
	_, obj, ok := caller.Process.Handles.Get(h)
	if !ok {
		return "", false
	}
	switch obj.(type) {
	case *proc.Process:
		return "process", true
	case *proc.Thread:
		return "thread", true
	case *wait.Event:
		return "event", true
	case *wait.Semaphore:
		return "semaphore", true
	case stream.Object:
		return "stream", true
	default:
		return "unknown", true
	}
}

// OpenHandle implements open_handle(name,len). original_source's
// named-object directory has no counterpart here — no filesystem or
// registry of named kernel objects is modeled — so this always
// reports not-found rather than fabricating one.
func (s *Service) OpenHandle(name string) (defs.Handle_t, bool) {
	return 0, false
}

// CreateObject implements create_object(type,a1,a2): for ObjectEvent,
// a1 != 0 selects auto-reset; for ObjectSemaphore, a1 is the initial
// count and a2 the cap (a2 <= 0 means uncapped).
func (s *Service) CreateObject(caller *proc.Thread, typ ObjectType, a1, a2 int64) (defs.Handle_t, bool) {
	switch typ {
	case ObjectEvent:
		ev := wait.NewEvent(s.tsvc, a1 != 0)
		return caller.Process.Handles.Put(ev.Base, ev)
	case ObjectSemaphore:
		sem := wait.NewSemaphore(s.tsvc, int(a1), int(a2))
		return caller.Process.Handles.Put(sem.Base, sem)
	default:
		return 0, false
	}
}
