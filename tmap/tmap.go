// Package tmap implements the transient mapper, spec.md §4.1: a fixed
// slot array used to obtain a CPU-addressable window onto an arbitrary
// physical frame without touching permanent page tables. Grounded
// directly on original_source's VM::map_view (kernel/memory/vm.cpp) —
// the single-CAS-per-slot acquire/release loop over MAP_TABLE_BASE —
// and on biscuit's Dmap/Kpmap recursive-mapping trick (mem/dmap.go)
// for the "one dedicated region of slots, scanned linearly" shape.
package tmap

import (
	"runtime"
	"sync/atomic"

	"kore/hal"
	"kore/kbug"
	"kore/pm"
	"kore/pte"
)

// MaxWalkDepth is the number of page-table levels a single PDPT/PDT/PT
// walk may need to touch concurrently on one core (PML4, PDPT, PDT,
// PT): the peak per-core demand rule spec.md §4.1 names.
const MaxWalkDepth = 4

// Mapper owns the slot array. Each slot's synchronization word is its
// own raw PTE bit pattern: a present=0 word is free, and the sole
// writer race is resolved by hal.Facade.CompareAndSwap64 against that
// word, exactly as spec.md §4.1 states ("no separate lock is
// required").
type Mapper struct {
	facade hal.Facade
	base   uintptr
	slots  []uint64
}

// New constructs a Mapper with the given slot count at virtual base
// (base must be page-aligned; callers own picking a window that does
// not collide with any vspace reservation). DefaultSlots is the usual
// choice.
func New(base uintptr, slots int, facade hal.Facade) *Mapper {
	if slots < 1 {
		kbug.Check(kbug.OutOfRange, slots)
	}
	return &Mapper{
		facade: facade,
		base:   base,
		slots:  make([]uint64, slots),
	}
}

// DefaultSlots returns MaxWalkDepth slots per core (one for each
// paging level a walk may hold at once), times the number of cores;
// runtime.NumCPU stands in when the facade reports no cores.
func DefaultSlots(facade hal.Facade) int {
	n := facade.NumCores()
	if n < 1 {
		n = runtime.NumCPU()
	}
	return n * MaxWalkDepth
}

// Acquire claims a free slot for pa (which must be page-aligned) and
// returns the virtual address the caller may now dereference. Every
// slot busy is the fatal condition spec.md §4.1 names explicitly
// ("succeeds unless all N slots are in use (fatal...)").
func (m *Mapper) Acquire(pa pm.Frame) uintptr {
	if uintptr(pa)%pte.PageSize != 0 {
		kbug.Check(kbug.OutOfRange, pa)
	}
	desired := pte.KernelLeaf(uintptr(pa))
	for i := range m.slots {
		cur := atomic.LoadUint64(&m.slots[i])
		if pte.Entry(cur).Present() {
			continue
		}
		if m.facade.CompareAndSwap64(&m.slots[i], cur, uint64(desired)) {
			return m.base + uintptr(i)*pte.PageSize
		}
		// lost the race for this slot; continue scanning rather than
		// retrying the same one, matching map_view's linear-scan-not-
		// retry behavior.
	}
	kbug.Check(kbug.BadAlloc, "transient mapper: all slots in use")
	return 0
}

// Release reverts the slot backing va to free and issues a local TLB
// invalidation for it, per spec.md §4.1.
func (m *Mapper) Release(va uintptr) {
	idx, ok := m.slotOf(va)
	if !ok {
		kbug.Check(kbug.OutOfRange, va)
	}
	for {
		cur := atomic.LoadUint64(&m.slots[idx])
		if !pte.Entry(cur).Present() {
			kbug.Check(kbug.Corrupted, va)
		}
		if m.facade.CompareAndSwap64(&m.slots[idx], cur, 0) {
			m.facade.Invlpg(va)
			return
		}
	}
}

func (m *Mapper) slotOf(va uintptr) (int, bool) {
	if va < m.base {
		return 0, false
	}
	off := va - m.base
	if off%pte.PageSize != 0 {
		return 0, false
	}
	idx := int(off / pte.PageSize)
	if idx < 0 || idx >= len(m.slots) {
		return 0, false
	}
	return idx, true
}

// Frame returns the physical frame currently mapped at va, for tests
// and diagnostics; it does not consume or validate slot ownership.
func (m *Mapper) Frame(va uintptr) (pm.Frame, bool) {
	idx, ok := m.slotOf(va)
	if !ok {
		return 0, false
	}
	e := pte.Entry(atomic.LoadUint64(&m.slots[idx]))
	if !e.Present() {
		return 0, false
	}
	return pm.Frame(e.Frame()), true
}
