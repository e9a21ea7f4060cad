// Package proc implements the process/thread subsystem of spec.md
// §4.5: process lifecycle, the sparse handle table, and the process
// table (process_manager). Grounded on original_source's
// process.cpp/thread.cpp (handle_table::put/assign/close,
// process::spawn/kill/on_exit/erase, process_manager::spawn/erase/
// enumerate) and biscuit's tinfo.Tnote_t/Threadinfo_t for the
// per-thread-note / global-table split.
package proc

import (
	"kore/defs"
	"kore/rwspin"
	"kore/sched"
	"kore/wait"
)

// handlesPerPage mirrors original_source's handle_of_page: a page of
// handle slots, except here each "page" is a plain Go slice rather
// than a VM-backed page of raw pointers — the handle table's storage
// is kernel-private bookkeeping, not something user code ever maps,
// so there is nothing a real page buys beyond what a slice already
// gives (adapted to Go idiom rather than carried over verbatim).
const handlesPerPage = 512

// handleEntry is what a non-null handle slot holds: the generic
// waitable reference every slot's invariant requires, plus the
// concrete object for type-specific operations (handle_type,
// process/thread/stream casts) kapi needs later.
type handleEntry struct {
	base   *wait.Base
	object any
}

// HandleTable is spec.md §3's sparse, page-grown handle table.
type HandleTable struct {
	lock *rwspin.Lock

	pages [][]handleEntry // grown lazily in units of handlesPerPage
	top   int             // one past the highest ever-occupied slot
	avlBase int           // lowest slot never explicitly assigned to
	count int             // non-null slot count
}

func NewHandleTable() *HandleTable {
	return &HandleTable{lock: rwspin.New(), avlBase: 4}
}

func (t *HandleTable) pageFor(index int, grow bool) []handleEntry {
	pageIdx := index / handlesPerPage
	for len(t.pages) <= pageIdx {
		if !grow {
			return nil
		}
		t.pages = append(t.pages, nil)
	}
	if t.pages[pageIdx] == nil {
		if !grow {
			return nil
		}
		t.pages[pageIdx] = make([]handleEntry, handlesPerPage)
	}
	return t.pages[pageIdx]
}

// Put implements handle_table::put: finds the first free slot at or
// after avlBase (or top, once occupancy exceeds 3/4), installs w, and
// returns its index. Slot pages are added as needed with no upper
// bound, so Put always returns ok=true.
func (t *HandleTable) Put(base *wait.Base, object any) (defs.Handle_t, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	index := t.avlBase
	if t.count*4 > t.top*3 && t.top > index {
		index = t.top
	}
	for {
		page := t.pageFor(index, true)
		slot := &page[index%handlesPerPage]
		if slot.base != nil {
			index++
			continue
		}
		slot.base = base
		slot.object = object
		t.count++
		if index+1 > t.top {
			t.top = index + 1
		}
		return defs.Handle_t(index), true
	}
}

// Assign implements handle_table::assign: writes a specific slot
// (used for the reserved stream handles 0..3), atomically releasing
// any prior occupant. index must be below avlBase (reserved range).
func (t *HandleTable) Assign(core *sched.Core, index defs.Handle_t, base *wait.Base, object any) bool {
	if int(index) >= t.avlBase || base == nil {
		return false
	}
	t.lock.Lock()
	page := t.pageFor(int(index), true)
	slot := &page[int(index)%handlesPerPage]
	prior := slot.base
	slot.base, slot.object = base, object
	if prior == nil {
		t.count++
	}
	t.lock.Unlock()

	if prior != nil {
		prior.Relax(core)
	}
	return true
}

// Close implements handle_table::close: clears a slot and relaxes the
// reference it held, shrinking top if this was the highest occupied
// slot.
func (t *HandleTable) Close(core *sched.Core, index defs.Handle_t) bool {
	t.lock.Lock()
	page := t.pageFor(int(index), false)
	if page == nil {
		t.lock.Unlock()
		return false
	}
	slot := &page[int(index)%handlesPerPage]
	if slot.base == nil {
		t.lock.Unlock()
		return false
	}
	base := slot.base
	slot.base, slot.object = nil, nil
	t.count--
	if int(index)+1 >= t.top {
		i := int(index) - 1
		for i >= t.avlBase {
			p := t.pageFor(i, false)
			if p == nil || p[i%handlesPerPage].base != nil {
				break
			}
			i--
		}
		t.top = i + 1
	}
	t.lock.Unlock()

	base.Relax(core)
	return true
}

// Get returns the waitable and object held at index, or (nil,nil,
// false) if the slot is empty or out of range. Get takes and releases
// the table's read lock itself, so the result is a snapshot at call
// time; no variant keeps the lock held while the caller uses it.
func (t *HandleTable) Get(index defs.Handle_t) (*wait.Base, any, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	page := t.pageFor(int(index), false)
	if page == nil {
		return nil, nil, false
	}
	slot := page[int(index)%handlesPerPage]
	if slot.base == nil {
		return nil, nil, false
	}
	return slot.base, slot.object, true
}

// Clear implements handle_table::clear, called at process exit:
// drops every held reference and leaves the table empty.
func (t *HandleTable) Clear(core *sched.Core) {
	t.lock.Lock()
	var toRelax []*wait.Base
	for _, page := range t.pages {
		for i := range page {
			if page[i].base != nil {
				toRelax = append(toRelax, page[i].base)
				page[i].base, page[i].object = nil, nil
				t.count--
			}
		}
	}
	t.lock.Unlock()

	for _, base := range toRelax {
		base.Relax(core)
	}
}

// Count reports the number of occupied slots.
func (t *HandleTable) Count() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.count
}
