package proc

import (
	"kore/defs"
	"kore/kbug"
	"kore/sched"
	"kore/vspace"
	"kore/wait"
)

// defaultStackPages is the minimum kernel-stack commitment spec.md
// §4.5 names ("allocates and commits at least one page of kernel
// stack").
const defaultStackPages = 1

// SpawnThread implements spec.md §4.5's thread creation: reserves and
// commits kernel stack pages, builds the register-save area, and
// enqueues the new thread onto the ready queue. stackPages < 1 is
// rounded up to defaultStackPages.
func (t *Table) SpawnThread(core *sched.Core, p *Process, entry, arg uintptr, stackPages int) (*Thread, bool) {
	prev := p.lock(core.ID())
	stopped := p.state == Stopped
	p.unlock(core.ID(), prev)
	if stopped {
		return nil, false
	}

	if stackPages < defaultStackPages {
		stackPages = defaultStackPages
	}

	base := p.VSpace.Reserve(core.ID(), 0, stackPages)
	if base == 0 {
		return nil, false
	}
	if !p.VSpace.Commit(core.ID(), base, stackPages) {
		p.VSpace.Release(core.ID(), base, stackPages)
		return nil, false
	}

	prev = p.lock(core.ID())
	id := p.nextTid
	p.nextTid++
	p.unlock(core.ID(), prev)

	st := sched.NewThread(id, p.ID, 0, entry, arg, base, stackPages, p.VSpace)
	th := &Thread{Thread: st, Base: wait.NewBase(t.tsvc), Process: p}

	p.addThread(th)

	prev = p.lock(core.ID())
	p.activeCount++
	p.unlock(core.ID(), prev)

	core.PutReady(st)
	return th, true
}

// ExitThread implements spec.md §4.5's thread exit: disables
// interrupts, sets STOPPED, invokes the owning process's kill_thread
// hook, then releases the kernel stack via this_core.escape.
func (t *Table) ExitThread(core *sched.Core, th *Thread) {
	prev := core.DisableInterrupts()
	th.State = sched.Stopped

	t.killThread(core, th)
	core.Escape(th.Process.VSpace, th.Thread)
	core.RestoreInterrupts(prev)
}

// killThread implements process::on_exit: decrements the active
// thread count; at zero, marks the process STOPPED, notifies its
// waiters, and clears the handle table.
func (t *Table) killThread(core *sched.Core, th *Thread) {
	th.Base.Notify(core, defs.Notify)

	p := th.Process
	prev := p.lock(core.ID())
	if p.activeCount == 0 {
		p.unlock(core.ID(), prev)
		kbug.Check(kbug.AssertFailed, "killThread: active count already zero")
	}
	p.activeCount--
	last := p.activeCount == 0
	if last {
		p.state = Stopped
	}
	p.unlock(core.ID(), prev)

	if last {
		p.Notify(core, defs.Notify)
		p.Handles.Clear(core)
	}

	p.threadsMu.Lock()
	delete(p.threads, th.ID)
	p.threadsMu.Unlock()
}

// KillProcess implements spec.md §4.5's process kill: under the
// process lock, marks STOPPED and every thread STOPPED; if the
// calling thread belongs to this process, it is killed last so its
// own stack remains valid through the loop.
func (t *Table) KillProcess(core *sched.Core, p *Process, ret int) {
	self := core.Current()
	var killSelf *Thread

	prev := p.lock(core.ID())
	p.state = Stopped
	p.result = ret
	p.unlock(core.ID(), prev)

	p.threadsMu.RLock()
	victims := make([]*Thread, 0, len(p.threads))
	for _, th := range p.threads {
		if th.Thread == self {
			killSelf = th
			continue
		}
		victims = append(victims, th)
	}
	p.threadsMu.RUnlock()

	for _, th := range victims {
		th.State = sched.Stopped
	}
	if killSelf != nil {
		killSelf.State = sched.Stopped
	}
}

// SpawnProcess implements spec.md §4.5's process creation: validates
// caller privilege, constructs a fresh user virtual space, installs
// the image handle and standard streams, and returns the new process
// with its loader thread already enqueued. Image validation and
// env/imgbase/imgsize/headersize wiring are the caller's
// responsibility (via image.Loader) before calling SpawnProcess.
func (t *Table) SpawnProcess(core *sched.Core, callerPrivilege, requestedPrivilege int, cmd string, loaderEntry, loaderArg uintptr, image any, streams [3]any) (*Process, bool) {
	if requestedPrivilege < callerPrivilege {
		return nil, false
	}

	t.mu.Lock()
	id := t.allocID()
	t.mu.Unlock()

	vs := vspace.NewUser(t.kernel, t.facade, t.alloc)
	p := t.newProcess(id, vs, requestedPrivilege, cmd)
	p.state = Running

	t.mu.Lock()
	t.processes[id] = p
	t.mu.Unlock()

	if image != nil {
		p.Handles.Assign(core, 0, p.Base, image)
	}
	for i, st := range streams {
		if st != nil {
			p.Handles.Assign(core, defs.Handle_t(i+1), p.Base, st)
		}
	}

	if _, ok := t.SpawnThread(core, p, loaderEntry, loaderArg, 0); !ok {
		t.erase(id)
		return nil, false
	}
	return p, true
}
