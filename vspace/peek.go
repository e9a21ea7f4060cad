package vspace

import "kore/pte"

// Peek implements spec.md §4.2's peek (user spaces only): inspects
// the leaf PTE for a user address; returns the zero PTE for
// out-of-range. Takes the space lock shared, per spec.md §4.2's
// concurrency note ("peek may take it shared").
func (s *Space) Peek(core int, va uintptr) pte.Entry {
	if s.kernel {
		return 0
	}
	prev := s.rlock(core)
	defer s.runlock(core, prev)

	if !s.inRange(va, 1) {
		return 0
	}
	off := va - s.base
	pdt := s.pdtFor(off, false)
	if pdt == nil {
		return 0
	}
	pt, _ := s.ptFor(pdt, off, false)
	if pt == nil {
		return 0
	}
	return pt.Entries[ptIndex(off)]
}
