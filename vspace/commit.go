package vspace

import (
	"kore/pm"
	"kore/pte"
)

// Commit implements spec.md §4.2's commit: precondition the range is
// fully reserved; allocates frames and marks PTEs present. A check
// pass validates every covered PTE before any mutation, and the frame
// allocator's Reserve pre-flight (pm.Allocator.Reserve) guarantees the
// second pass cannot fail partway — "commit is either wholly applied
// or a no-op" (spec.md §4.2).
func (s *Space) Commit(core int, base uintptr, n int) bool {
	if n <= 0 || !s.inRange(base, n) {
		return false
	}
	prev := s.lock(core)
	defer s.unlock(core, prev)

	ok := s.forEachRun(base, n, false, func(_ *pte.Table, _ int, pt *pte.Table, _ pm.Frame, _ uintptr, startOff, take int) bool {
		for i := 0; i < take; i++ {
			e := pt.Entries[startOff+i]
			if !e.Preserve() || e.Bypass() || e.Present() {
				return false
			}
		}
		return true
	})
	if !ok {
		return false
	}
	if !s.alloc.Reserve(n) {
		return false
	}
	leaf := pte.UserLeaf
	if s.kernel {
		leaf = pte.KernelLeaf
	}
	s.forEachRun(base, n, false, func(_ *pte.Table, _ int, pt *pte.Table, _ pm.Frame, _ uintptr, startOff, take int) bool {
		for i := 0; i < take; i++ {
			f := pm.MustAllocate(s.alloc, 0, pm.Take)
			pt.Entries[startOff+i] = leaf(uintptr(f))
		}
		return true
	})
	return true
}
