// Package sched implements the preemptive priority scheduler of
// spec.md §4.4 and the Thread data model of spec.md §3. Grounded on
// COFUOS's this_core/core_state.hpp usage (core.switch_to, core.escape,
// core.this_thread()) seen throughout thread.cpp/waitable.cpp, and on
// biscuit's per-CPU percpu struct (mem/mem.go) for the "one real struct
// per simulated core" shape. Thread lives here rather than in proc so
// that wait (which must push/pop threads on a FIFO queue and read
// priority) can depend on sched without proc sitting between them.
package sched

import (
	"kore/defs"
	"kore/hal"
	"kore/vspace"
)

// State is a thread's lifecycle state, per spec.md §3.
type State int

const (
	Ready State = iota
	Running
	Waiting
	Stopped
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Waiting:
		return "WAITING"
	case Stopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Thread is spec.md §3's thread record. Next is the single intrusive
// link field shared by the ready queue and every waitable's wait
// queue — the invariant spec.md §5 states is that a thread is on at
// most one of those at any moment.
type Thread struct {
	ID       defs.Tid_t
	Priority int
	State    State

	Regs         hal.RegisterState
	StackBase    uintptr
	StackPages   int

	Next *Thread

	// WaitFor is a non-owning reference to the waitable this thread is
	// blocked on, opaque here (typed `any`, normally a *wait.Base) so
	// sched need not import wait (spec.md §9's cyclic-reference note:
	// "the thread→waitable link is non-owning and is cleared
	// atomically at the same set_state that removes the thread from
	// the queue").
	WaitFor any

	TimerTicket uint64
	LastReason  defs.Reason

	Owner  defs.Pid_t
	HasFPU bool

	// VSpace is the owning process's virtual space, held here (rather
	// than resolved through a proc.Process lookup sched cannot import
	// without a cycle) so SwitchTo can reload CR3 with the real
	// per-process page-table root spec.md §4.4 requires whenever the
	// owning process differs, not a placeholder constant.
	VSpace *vspace.Space
}

// NewThread constructs a READY thread with its register-save area
// initialized with rip=entry, rcx=arg and IF set. No segment
// selectors are written: CS and SS are left zero. space is the owning
// process's virtual space, used by SwitchTo to reload CR3.
func NewThread(id defs.Tid_t, owner defs.Pid_t, priority int, entry, arg uintptr, stackBase uintptr, stackPages int, space *vspace.Space) *Thread {
	return &Thread{
		ID:         id,
		Owner:      owner,
		Priority:   priority,
		State:      Ready,
		StackBase:  stackBase,
		StackPages: stackPages,
		Regs: hal.RegisterState{
			RIP:    entry,
			RCX:    arg,
			RFlags: hal.IF,
		},
		VSpace: space,
	}
}
