package proc

import (
	"kore/defs"
	"kore/sched"
)

// processKind and threadKind adapt Process/Thread to wait.Kind the
// same way wait's own semaphoreKind/eventKind do: Satisfied reports
// terminal state, Acquire is a no-op since reaching STOPPED is not a
// consumable resource the way a semaphore unit or auto-reset event is.
type processKind struct{ p *Process }

func (k processKind) Satisfied() bool { return k.p.State() == Stopped }
func (k processKind) Acquire()        {}

// Wait blocks until the process terminates (or timeoutUs elapses).
func (p *Process) Wait(core *sched.Core, timeoutUs int64) defs.Reason {
	return p.Base.Wait(core, processKind{p}, timeoutUs)
}

type threadKind struct{ t *Thread }

func (k threadKind) Satisfied() bool { return k.t.State == sched.Stopped }
func (k threadKind) Acquire()        {}

// Wait blocks until the thread exits (or timeoutUs elapses).
func (t *Thread) Wait(core *sched.Core, timeoutUs int64) defs.Reason {
	return t.Base.Wait(core, threadKind{t}, timeoutUs)
}
