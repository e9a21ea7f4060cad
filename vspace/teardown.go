package vspace

import (
	"kore/kbug"
	"kore/pm"
)

// Destroy implements spec.md §4.2's user-space teardown: walk the
// top-level table; for each present PDPTE/PDE/PTE, release each
// committed user frame, then release the PT frame, then the PDT
// frame, then the PDPT frame, then the top-level frame. Bypassed
// entries are skipped (they alias kernel tables).
func (s *Space) Destroy(core int) {
	if s.kernel {
		kbug.Check(kbug.AssertFailed, "the kernel virtual space is never destroyed")
	}
	prev := s.lock(core)
	defer s.unlock(core, prev)

	for pdptI := range s.pdpt.Entries {
		pe := s.pdpt.Entries[pdptI]
		if !pe.Present() || pe.Bypass() {
			continue
		}
		pdtFrame := pm.Frame(pe.Frame())
		pdt := s.tables[pdtFrame]
		for pdtI := range pdt.Entries {
			de := pdt.Entries[pdtI]
			if !de.Present() || de.Bypass() {
				continue
			}
			ptFrame := pm.Frame(de.Frame())
			pt := s.tables[ptFrame]
			for _, e := range pt.Entries {
				if e.Present() && !e.Bypass() {
					s.alloc.Release(pm.Frame(e.Frame()))
				}
			}
			s.alloc.Release(ptFrame)
			delete(s.tables, ptFrame)
			delete(s.ptHead, ptFrame)
		}
		s.alloc.Release(pdtFrame)
		delete(s.tables, pdtFrame)
	}
	s.alloc.Release(s.pdptFrame)
	s.alloc.Release(s.pml4Frame)
}
