package vspace

import (
	"kore/pm"
	"kore/pte"
)

// Protect implements spec.md §4.2's protect: precondition the range is
// fully committed (not assigned/bypassed); attr is drawn from
// {XD, GLOBAL, CACHE_DISABLE, WRITE_THROUGH, WRITE}; unknown bits
// reject.
func (s *Space) Protect(core int, base uintptr, n int, attr pte.Attr, value bool) bool {
	if n <= 0 || !s.inRange(base, n) || !pte.ValidAttr(attr) {
		return false
	}
	prev := s.lock(core)
	defer s.unlock(core, prev)

	ok := s.forEachRun(base, n, false, func(_ *pte.Table, _ int, pt *pte.Table, _ pm.Frame, _ uintptr, startOff, take int) bool {
		for i := 0; i < take; i++ {
			e := pt.Entries[startOff+i]
			if !e.Present() || e.Bypass() {
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
			pt.Entries[startOff+i] = pt.Entries[startOff+i].WithAttr(attr, value)
			if !value || attr == pte.AttrWrite {
				s.facade.Invlpg(runBase + uintptr(startOff+i)*pte.PageSize)
			}
		}
		return true
	})
	return true
}
