package vspace

import (
	"kore/kbug"
	"kore/pm"
	"kore/pte"
)

func (s *Space) lock(core int) bool {
	prev := s.facade.DisableInterrupts(core)
	s.mu.Lock()
	return prev
}

func (s *Space) unlock(core int, prev bool) {
	s.mu.Unlock()
	s.facade.RestoreInterrupts(core, prev)
}

func (s *Space) rlock(core int) bool {
	prev := s.facade.DisableInterrupts(core)
	s.mu.RLock()
	return prev
}

func (s *Space) runlock(core int, prev bool) {
	s.mu.RUnlock()
	s.facade.RestoreInterrupts(core, prev)
}

func (s *Space) updateMaxFree(pdt *pte.Table, pdtI int, pt *pte.Table, head int) {
	pdt.Entries[pdtI] = pdt.Entries[pdtI].WithMaxFreeLog2(log2Floor(maxFree(pt, head)))
}

func (s *Space) markReserved(pt *pte.Table, off, n int) {
	for i := 0; i < n; i++ {
		pt.Entries[off+i] = pte.Entry(0).WithPreserve(true)
	}
}

// Reserve implements spec.md §4.2's reserve: hint==0 picks any base,
// otherwise the exact range is attempted. Returns 0 on failure.
func (s *Space) Reserve(core int, hint uintptr, n int) uintptr {
	if n <= 0 {
		return 0
	}
	prev := s.lock(core)
	defer s.unlock(core, prev)

	if hint != 0 {
		if !s.inRange(hint, n) {
			return 0
		}
		if s.reserveFixed(hint, n) {
			return hint
		}
		return 0
	}
	if n < pte.PagesPerTable {
		if base, ok := s.reserveSmallAny(n); ok {
			return base
		}
		return 0
	}
	if base, ok := s.reserveBigAny(n); ok {
		return base
	}
	return 0
}

// reserveSmallAny implements the small-range search (spec.md §4.2):
// scan top-level slots in order, walking existing PTs for a first-fit
// free block before lazily allocating a fresh PT.
func (s *Space) reserveSmallAny(n int) (uintptr, bool) {
	for pdptI := 0; pdptI < pte.PagesPerTable; pdptI++ {
		pe := s.pdpt.Entries[pdptI]
		if pe.Bypass() || !pe.Present() {
			continue
		}
		pdt := s.tables[pm.Frame(pe.Frame())]
		for pdtI := 0; pdtI < pte.PagesPerTable; pdtI++ {
			de := pdt.Entries[pdtI]
			if de.Bypass() || !de.Present() {
				continue
			}
			ptFrame := pm.Frame(de.Frame())
			pt := s.tables[ptFrame]
			head := s.ptHead[ptFrame]
			if off, ok := freeListAlloc(pt, &head, n); ok {
				s.ptHead[ptFrame] = head
				s.markReserved(pt, off, n)
				s.updateMaxFree(pdt, pdtI, pt, head)
				return s.base + addr(pdptI, pdtI, off), true
			}
		}
	}
	// nothing existing had room; allocate fresh tables at the first
	// fully-absent slot.
	for pdptI := 0; pdptI < pte.PagesPerTable; pdptI++ {
		pdt := s.pdtFor(uintptr(pdptI)<<30, true)
		for pdtI := 0; pdtI < pte.PagesPerTable; pdtI++ {
			de := pdt.Entries[pdtI]
			if de.Present() || de.Bypass() {
				continue
			}
			pt, ptFrame := s.ptFor(pdt, uintptr(pdtI)<<21, true)
			head := s.ptHead[ptFrame]
			off, ok := freeListAlloc(pt, &head, n)
			if !ok {
				kbug.Check(kbug.Corrupted, "fresh PT has no room for n<512")
			}
			s.ptHead[ptFrame] = head
			s.markReserved(pt, off, n)
			s.updateMaxFree(pdt, pdtI, pt, head)
			return s.base + addr(pdptI, pdtI, off), true
		}
	}
	return 0, false
}

// reserveBigAny implements the large-range search (spec.md §4.2,
// ≥512 pages): round up to whole PTs, find a run of consecutive PDEs
// that are absent or fully-free (max_free==512) and not bypass.
func (s *Space) reserveBigAny(n int) (uintptr, bool) {
	ptCount := (n + pte.PagesPerTable - 1) / pte.PagesPerTable
	for pdptI := 0; pdptI < pte.PagesPerTable; pdptI++ {
		pdt := s.pdtFor(uintptr(pdptI)<<30, true)
		run := 0
		for pdtI := 0; pdtI <= pte.PagesPerTable; pdtI++ {
			ok := false
			if pdtI < pte.PagesPerTable {
				de := pdt.Entries[pdtI]
				if !de.Bypass() {
					if !de.Present() {
						ok = true
					} else if de.MaxFreeLog2() == log2Floor(pte.PagesPerTable) {
						ok = true
					}
				}
			}
			if ok {
				run++
				if run == ptCount {
					startI := pdtI - ptCount + 1
					for i := startI; i <= pdtI; i++ {
						pt, ptFrame := s.ptFor(pdt, uintptr(i)<<21, true)
						head := s.ptHead[ptFrame]
						if head == -1 && maxFree(pt, head) != pte.PagesPerTable {
							initFreeList(pt, 0, pte.PagesPerTable)
							head = 0
						}
						off, allocOK := freeListAlloc(pt, &head, pte.PagesPerTable)
						if !allocOK {
							kbug.Check(kbug.Corrupted, "big reserve: PT reported free but alloc failed")
						}
						s.ptHead[ptFrame] = head
						s.markReserved(pt, off, pte.PagesPerTable)
						s.updateMaxFree(pdt, i, pt, head)
					}
					return s.base + addr(pdptI, startI, 0), true
				}
			} else {
				run = 0
			}
		}
	}
	return 0, false
}

// reserveFixed implements the fixed-address reserve path (spec.md
// §4.2): for each PT covered by [base,base+n), carve the exact span;
// any PT that cannot satisfy its share rolls back all prior carves
// from this call.
func (s *Space) reserveFixed(base uintptr, n int) bool {
	off := base - s.base
	remaining := n
	cur := off
	type carve struct {
		pdt  *pte.Table
		pdtI int
		off  int
		n    int
	}
	var done []carve
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			c := done[i]
			ptFrame := pm.Frame(c.pdt.Entries[c.pdtI].Frame())
			pt := s.tables[ptFrame]
			for j := 0; j < c.n; j++ {
				pt.Entries[c.off+j] = 0
			}
			head := s.ptHead[ptFrame]
			freeListRelease(pt, &head, c.off, c.n)
			s.ptHead[ptFrame] = head
			s.updateMaxFree(c.pdt, c.pdtI, pt, head)
		}
	}
	for remaining > 0 {
		pdt := s.pdtFor(cur, true)
		pdtI := pdtIndex(cur)
		pt, ptFrame := s.ptFor(pdt, cur, true)
		startOff := ptIndex(cur)
		take := pte.PagesPerTable - startOff
		if take > remaining {
			take = remaining
		}
		head := s.ptHead[ptFrame]
		if !freeListReserveFixed(pt, &head, startOff, take) {
			rollback()
			return false
		}
		s.ptHead[ptFrame] = head
		s.markReserved(pt, startOff, take)
		s.updateMaxFree(pdt, pdtI, pt, head)
		done = append(done, carve{pdt: pdt, pdtI: pdtI, off: startOff, n: take})
		cur += uintptr(take) * pte.PageSize
		remaining -= take
	}
	return true
}

func addr(pdptI, pdtI, ptI int) uintptr {
	return uintptr(pdptI)<<30 | uintptr(pdtI)<<21 | uintptr(ptI)<<12
}

// forEachRun walks [base,base+n) one PT-span at a time, invoking fn
// once per contiguous run within a single PT (startOff, take). create
// controls whether missing PDTs/PTs are lazily allocated; every
// current caller (commit, protect, assign, release) passes false, so a
// covered PDT or PT that does not exist makes forEachRun return false.
// fn returning false aborts and forEachRun returns false.
func (s *Space) forEachRun(base uintptr, n int, create bool, fn func(pdt *pte.Table, pdtI int, pt *pte.Table, ptFrame pm.Frame, runBase uintptr, startOff, take int) bool) bool {
	off := base - s.base
	remaining := n
	cur := off
	for remaining > 0 {
		pdt := s.pdtFor(cur, create)
		if pdt == nil {
			return false
		}
		pdtI := pdtIndex(cur)
		pt, ptFrame := s.ptFor(pdt, cur, create)
		if pt == nil {
			return false
		}
		startOff := ptIndex(cur)
		take := pte.PagesPerTable - startOff
		if take > remaining {
			take = remaining
		}
		runBase := s.base + cur - uintptr(startOff)*pte.PageSize
		if !fn(pdt, pdtI, pt, ptFrame, runBase, startOff, take) {
			return false
		}
		cur += uintptr(take) * pte.PageSize
		remaining -= take
	}
	return true
}
