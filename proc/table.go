package proc

import (
	"sync"

	"kore/defs"
	"kore/hal"
	"kore/pm"
	"kore/rwspin"
	"kore/sched"
	"kore/timer"
	"kore/vspace"
	"kore/wait"
)

// Table is the global process table (process_manager), constructed
// once during boot. Grounded on original_source's process_manager
// (table/lock/spawn/erase/enumerate/find).
type Table struct {
	mu      sync.Mutex
	facade  hal.Facade
	alloc   pm.Allocator
	tsvc    timer.Service
	sched   *sched.Scheduler
	kernel  *vspace.Space
	nextPid defs.Pid_t

	processes map[defs.Pid_t]*Process
}

// NewTable constructs the process table with the permanent kernel
// process (id 0) already inserted, matching process_manager's
// constructor inserting process::initial_process_tag.
func NewTable(facade hal.Facade, alloc pm.Allocator, tsvc timer.Service, s *sched.Scheduler, kernel *vspace.Space) *Table {
	t := &Table{
		facade:    facade,
		alloc:     alloc,
		tsvc:      tsvc,
		sched:     s,
		kernel:    kernel,
		processes: map[defs.Pid_t]*Process{},
	}
	kp := t.newProcess(defs.KernelPid, kernel, 0, "kernel")
	kp.state = Running
	kp.activeCount = 1
	kp.Manage()
	t.processes[defs.KernelPid] = kp
	t.nextPid = 1
	return t
}

func (t *Table) newProcess(id defs.Pid_t, vs *vspace.Space, privilege int, cmd string) *Process {
	p := &Process{
		Base:        wait.NewBase(t.tsvc),
		ID:          id,
		VSpace:      vs,
		Privilege:   privilege,
		CommandLine: cmd,
		facade:      t.facade,
		threadsMu:   rwspin.New(),
		threads:     map[defs.Tid_t]*Thread{},
		Handles:     NewHandleTable(),
	}
	return p
}

// allocID assigns the next process id, matching original_source's
// id_gen<dword> monotonic generator.
func (t *Table) allocID() defs.Pid_t {
	id := t.nextPid
	t.nextPid++
	return id
}

// Find looks up a process by id, optionally taking a reference.
func (t *Table) Find(id defs.Pid_t, acquire bool) *Process {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.processes[id]
	if !ok {
		return nil
	}
	if acquire {
		p.Manage()
	}
	return p
}

// Enumerate implements process_manager::enumerate: given the last id
// seen (0 to start), returns the next process id in table order,
// skipping the kernel process (id 0). Returns (0, false) when
// enumeration is exhausted.
func (t *Table) Enumerate(last defs.Pid_t) (defs.Pid_t, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	best := defs.Pid_t(0)
	found := false
	for id := range t.processes {
		if id == 0 || id <= last {
			continue
		}
		if !found || id < best {
			best = id
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return best, true
}

func (t *Table) erase(id defs.Pid_t) {
	t.mu.Lock()
	delete(t.processes, id)
	t.mu.Unlock()
}
