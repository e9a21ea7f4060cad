package vspace

import (
	"kore/pm"
	"kore/pte"
)

// Assign implements spec.md §4.2's assign (kernel only): precondition
// the range is reserved, pa is page-aligned, and pa<base — "the design
// encodes the mapping as a constant delta so walk-back requires no
// extra table" (spec.md §4.2, and the Open Question in §9 this spec
// adopts as-is). Marks PTEs bypass+present for MMIO/identity mapping.
func (s *Space) Assign(core int, base, pa uintptr, n int) bool {
	if !s.kernel || n <= 0 || !s.inRange(base, n) {
		return false
	}
	if pa%pte.PageSize != 0 || pa >= base {
		return false
	}
	delta := base - pa

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
	s.forEachRun(base, n, false, func(_ *pte.Table, _ int, pt *pte.Table, _ pm.Frame, runBase uintptr, startOff, take int) bool {
		for i := 0; i < take; i++ {
			va := runBase + uintptr(startOff+i)*pte.PageSize
			pt.Entries[startOff+i] = pte.BypassLeaf(va - delta)
		}
		return true
	})
	return true
}
