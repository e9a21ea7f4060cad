package vspace

import (
	"kore/pm"
	"kore/pte"
)

// Release implements spec.md §4.2's release: precondition the range
// was reserved or committed by this space; releases any committed
// frames, marks PTEs unmapped, and coalesces the resulting free block
// with its neighbors in the PT's intrusive free list.
func (s *Space) Release(core int, base uintptr, n int) bool {
	if n <= 0 || !s.inRange(base, n) {
		return false
	}
	prev := s.lock(core)
	defer s.unlock(core, prev)

	ok := s.forEachRun(base, n, false, func(_ *pte.Table, _ int, pt *pte.Table, _ pm.Frame, _ uintptr, startOff, take int) bool {
		for i := 0; i < take; i++ {
			e := pt.Entries[startOff+i]
			if e.Bypass() {
				return false
			}
			if !e.Preserve() && !e.Present() {
				return false
			}
		}
		return true
	})
	if !ok {
		return false
	}

	s.forEachRun(base, n, false, func(pdt *pte.Table, pdtI int, pt *pte.Table, ptFrame pm.Frame, runBase uintptr, startOff, take int) bool {
		for i := 0; i < take; i++ {
			e := pt.Entries[startOff+i]
			if e.Present() {
				s.alloc.Release(pm.Frame(e.Frame()))
				s.facade.Invlpg(runBase + uintptr(startOff+i)*pte.PageSize)
			}
			pt.Entries[startOff+i] = 0
		}
		head := s.ptHead[ptFrame]
		freeListRelease(pt, &head, startOff, take)
		s.ptHead[ptFrame] = head
		s.updateMaxFree(pdt, pdtI, pt, head)
		return true
	})
	return true
}
