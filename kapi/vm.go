package kapi

import (
	"kore/proc"
	"kore/pte"
	"kore/sched"
)

// VMPeek implements vm_peek(va): the raw page-table entry covering
// va, letting a caller (or a future page-fault handler built on top of
// this package) inspect presence/permissions directly.
func (s *Service) VMPeek(core *sched.Core, caller *proc.Thread, va uintptr) pte.Entry {
	return caller.Process.VSpace.Peek(core.ID(), va)
}

// VMProtect implements vm_protect(va,n,attrib).
func (s *Service) VMProtect(core *sched.Core, caller *proc.Thread, va uintptr, n int, attr pte.Attr, value bool) bool {
	return caller.Process.VSpace.Protect(core.ID(), va, n, attr, value)
}

// VMReserve implements vm_reserve(va,n): va == 0 asks the allocator to
// pick a base.
func (s *Service) VMReserve(core *sched.Core, caller *proc.Thread, va uintptr, n int) uintptr {
	return caller.Process.VSpace.Reserve(core.ID(), va, n)
}

// VMCommit implements vm_commit(va,n).
func (s *Service) VMCommit(core *sched.Core, caller *proc.Thread, va uintptr, n int) bool {
	return caller.Process.VSpace.Commit(core.ID(), va, n)
}

// VMRelease implements vm_release(va,n).
func (s *Service) VMRelease(core *sched.Core, caller *proc.Thread, va uintptr, n int) bool {
	return caller.Process.VSpace.Release(core.ID(), va, n)
}
