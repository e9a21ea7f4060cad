package kapi

import (
	"kore/defs"
	"kore/proc"
	"kore/sched"
	"kore/wait"
)

func resolveThread(caller *proc.Thread, h defs.Handle_t) (*proc.Thread, bool) {
	_, obj, ok := caller.Process.Handles.Get(h)
	if !ok {
		return nil, false
	}
	th, ok := obj.(*proc.Thread)
	return th, ok
}

// GetThread implements get_thread: installs a handle to the caller's
// own thread into its own handle table.
func (s *Service) GetThread(caller *proc.Thread) (defs.Handle_t, bool) {
	caller.Manage()
	return caller.Process.Handles.Put(caller.Base, caller)
}

// ThreadID implements thread_id(h).
func (s *Service) ThreadID(caller *proc.Thread, h defs.Handle_t) (defs.Tid_t, bool) {
	th, ok := resolveThread(caller, h)
	if !ok {
		return 0, false
	}
	return th.ID, true
}

// GetPriority implements get_priority(h).
func (s *Service) GetPriority(caller *proc.Thread, h defs.Handle_t) (int, bool) {
	th, ok := resolveThread(caller, h)
	if !ok {
		return 0, false
	}
	return th.Priority, true
}

// SetPriority implements set_priority(h,val).
func (s *Service) SetPriority(caller *proc.Thread, h defs.Handle_t, val int) bool {
	th, ok := resolveThread(caller, h)
	if !ok {
		return false
	}
	th.Priority = val
	return true
}

// GetHandler implements get_handler: the caller's own exception-
// dispatch entry point.
func (s *Service) GetHandler(caller *proc.Thread) uintptr {
	return caller.Handler
}

// SetHandler implements set_handler(h).
func (s *Service) SetHandler(caller *proc.Thread, entry uintptr) {
	caller.Handler = entry
}

// CreateThread implements create_thread(entry,arg,stk).
func (s *Service) CreateThread(core *sched.Core, caller *proc.Thread, entry, arg uintptr, stackPages int) (defs.Handle_t, bool) {
	th, ok := s.Table.SpawnThread(core, caller.Process, entry, arg, stackPages)
	if !ok {
		return 0, false
	}
	return caller.Process.Handles.Put(th.Base, th)
}

// ExitThread implements exit_thread: the caller exits itself.
func (s *Service) ExitThread(core *sched.Core, caller *proc.Thread) {
	s.Table.ExitThread(core, caller)
}

// KillThread implements kill_thread(h): a thread may kill any thread
// in its own process, including one other than itself.
func (s *Service) KillThread(core *sched.Core, caller *proc.Thread, h defs.Handle_t) bool {
	th, ok := resolveThread(caller, h)
	if !ok {
		return false
	}
	s.Table.ExitThread(core, th)
	return true
}

// sleepKind is never satisfied; Sleep's wait ends only via the timer
// armed alongside it, the same shape event.cpp's sleep() gets by
// waiting on a throwaway waitable with a timeout and no signaler.
type sleepKind struct{}

func (sleepKind) Satisfied() bool { return false }
func (sleepKind) Acquire()        {}

// Sleep implements sleep(us): blocks the caller for at least us
// microseconds.
func (s *Service) Sleep(core *sched.Core, us int64) {
	if us <= 0 {
		core.Yield()
		return
	}
	b := wait.NewBase(s.tsvc)
	b.Wait(core, sleepKind{}, us)
}
