package vspace

// This file implements the intrusive free-block list spec.md §3
// describes: "the first PTE of a free block stores {size, prev_offset,
// next_offset, prev_valid, next_valid} so free blocks form an
// intrusive doubly-linked list within the PT itself." Grounded on
// COFUOS's BLOCK struct and kernel_vspace.cpp's new_pt/reserve_fixed/
// block.put/put_max_size.

import "kore/pte"

// Free-block metadata is packed starting at bit 11, strictly above
// every hardware/software bit pte.Entry defines below it (Present=0,
// Writable=1, User=2, WriteThrough=3, CacheDisable=4, Accessed=5,
// Large=6, Global=7, Preserve=9, Bypass=10): a free block is always
// "unmapped" in the page-state sense, so an encoded freeMeta must
// decode with Present()==false, Preserve()==false and Bypass()==false
// no matter what size/link values it carries, or code that walks raw
// entries (e.g. Space.Destroy) misreads a free-list node as a mapped
// or bypassed frame.
const (
	fmSizeBits  = 10
	fmSizeShift = 11
	fmSizeMask  = (1 << fmSizeBits) - 1

	fmPrevShift = fmSizeShift + fmSizeBits // 21
	fmNextShift = fmPrevShift + 9          // 30
	fmOffMask   = 0x1FF                    // 9 bits, offsets 0..511

	fmPrevValidBit = fmNextShift + 9 // 39
	fmNextValidBit = fmPrevValidBit + 1
)

type freeMeta struct {
	size       int
	prevOffset int
	nextOffset int
	prevValid  bool
	nextValid  bool
}

func decodeFree(e pte.Entry) freeMeta {
	v := uint64(e)
	return freeMeta{
		size:       int(v>>fmSizeShift) & fmSizeMask,
		prevOffset: int(v>>fmPrevShift) & fmOffMask,
		nextOffset: int(v>>fmNextShift) & fmOffMask,
		prevValid:  v&(1<<fmPrevValidBit) != 0,
		nextValid:  v&(1<<fmNextValidBit) != 0,
	}
}

func encodeFree(m freeMeta) pte.Entry {
	var v uint64
	v |= uint64(m.size&fmSizeMask) << fmSizeShift
	v |= uint64(m.prevOffset&fmOffMask) << fmPrevShift
	v |= uint64(m.nextOffset&fmOffMask) << fmNextShift
	if m.prevValid {
		v |= 1 << fmPrevValidBit
	}
	if m.nextValid {
		v |= 1 << fmNextValidBit
	}
	return pte.Entry(v)
}

func writeFree(t *pte.Table, offset int, m freeMeta) {
	t.Entries[offset] = encodeFree(m)
}

// initFreeList installs a single free block [offset, offset+size) with
// no neighbors — the state a freshly allocated PT starts in, covering
// all 512 slots (spec.md §4.2: "initialize the free-list head covering
// the full 512 slots").
func initFreeList(t *pte.Table, offset, size int) {
	writeFree(t, offset, freeMeta{size: size})
}

func setNext(t *pte.Table, offset, nextOffset int, nextValid bool) {
	m := decodeFree(t.Entries[offset])
	m.nextOffset, m.nextValid = nextOffset, nextValid
	writeFree(t, offset, m)
}

func setPrev(t *pte.Table, offset, prevOffset int, prevValid bool) {
	m := decodeFree(t.Entries[offset])
	m.prevOffset, m.prevValid = prevOffset, prevValid
	writeFree(t, offset, m)
}

// freeListAlloc first-fit allocates n contiguous slots from the free
// list rooted at *head, splitting the winning block and relinking its
// neighbors, per spec.md §4.2's small-range search algorithm.
func freeListAlloc(t *pte.Table, head *int, n int) (int, bool) {
	cur, curValid := *head, *head != -1
	for curValid {
		m := decodeFree(t.Entries[cur])
		if m.size >= n {
			remaining := m.size - n
			allocOffset := cur
			if remaining == 0 {
				if m.prevValid {
					setNext(t, m.prevOffset, m.nextOffset, m.nextValid)
				} else {
					*head = -1
					if m.nextValid {
						*head = m.nextOffset
					}
				}
				if m.nextValid {
					setPrev(t, m.nextOffset, m.prevOffset, m.prevValid)
				}
			} else {
				newOffset := cur + n
				newMeta := freeMeta{
					size: remaining,
					prevOffset: m.prevOffset, prevValid: m.prevValid,
					nextOffset: m.nextOffset, nextValid: m.nextValid,
				}
				writeFree(t, newOffset, newMeta)
				moveNode(t, head, cur, newOffset, newMeta)
			}
			return allocOffset, true
		}
		if !m.nextValid {
			break
		}
		cur, curValid = m.nextOffset, true
	}
	return 0, false
}

// moveNode fixes up a node's neighbors (and head, if applicable) after
// its free-list entry relocates from oldOffset to newOffset, retaining
// the same logical prev/next links described by m.
func moveNode(t *pte.Table, head *int, oldOffset, newOffset int, m freeMeta) {
	if m.prevValid {
		setNext(t, m.prevOffset, newOffset, true)
	} else {
		*head = newOffset
	}
	if m.nextValid {
		setPrev(t, m.nextOffset, newOffset, true)
	}
}

// freeListRelease returns [offset, offset+n) to the free list, coalescing
// with an adjacent predecessor and/or successor block, per spec.md
// §4.2's release path ("coalesce the resulting free block with its
// neighbors").
func freeListRelease(t *pte.Table, head *int, offset, n int) {
	prevOff, prevValid := -1, false
	nextOff, nextValid := -1, false

	cur, curValid := *head, *head != -1
	for curValid {
		m := decodeFree(t.Entries[cur])
		if cur > offset {
			nextOff, nextValid = cur, true
			break
		}
		prevOff, prevValid = cur, true
		cur, curValid = m.nextOffset, m.nextValid
	}

	mergeLeft := false
	var pm freeMeta
	if prevValid {
		pm = decodeFree(t.Entries[prevOff])
		mergeLeft = prevOff+pm.size == offset
	}
	mergeRight := false
	var nm freeMeta
	if nextValid {
		nm = decodeFree(t.Entries[nextOff])
		mergeRight = offset+n == nextOff
	}

	switch {
	case mergeLeft && mergeRight:
		merged := freeMeta{
			size: pm.size + n + nm.size,
			prevOffset: pm.prevOffset, prevValid: pm.prevValid,
			nextOffset: nm.nextOffset, nextValid: nm.nextValid,
		}
		writeFree(t, prevOff, merged)
		if merged.nextValid {
			setPrev(t, merged.nextOffset, prevOff, true)
		}
	case mergeLeft:
		grown := freeMeta{
			size: pm.size + n,
			prevOffset: pm.prevOffset, prevValid: pm.prevValid,
			nextOffset: pm.nextOffset, nextValid: pm.nextValid,
		}
		writeFree(t, prevOff, grown)
	case mergeRight:
		merged := freeMeta{
			size: n + nm.size,
			prevOffset: nm.prevOffset, prevValid: nm.prevValid,
			nextOffset: nm.nextOffset, nextValid: nm.nextValid,
		}
		writeFree(t, offset, merged)
		moveNode(t, head, nextOff, offset, merged)
	default:
		fresh := freeMeta{size: n, prevOffset: prevOff, prevValid: prevValid, nextOffset: nextOff, nextValid: nextValid}
		writeFree(t, offset, fresh)
		if prevValid {
			setNext(t, prevOff, offset, true)
		} else {
			*head = offset
		}
		if nextValid {
			setPrev(t, nextOff, offset, true)
		}
	}
}

// freeListReserveFixed carves [offset,offset+n) out of the free list
// if (and only if) it lies entirely within one free block, splitting
// off the unused prefix/suffix as their own blocks. Used by the
// fixed-address reserve path (spec.md §4.2).
func freeListReserveFixed(t *pte.Table, head *int, offset, n int) bool {
	cur, curValid := *head, *head != -1
	for curValid {
		m := decodeFree(t.Entries[cur])
		if cur <= offset && offset+n <= cur+m.size {
			// remove the whole block, then re-insert prefix/suffix remainders.
			if m.prevValid {
				setNext(t, m.prevOffset, m.nextOffset, m.nextValid)
			} else {
				*head = -1
				if m.nextValid {
					*head = m.nextOffset
				}
			}
			if m.nextValid {
				setPrev(t, m.nextOffset, m.prevOffset, m.prevValid)
			}
			if pre := offset - cur; pre > 0 {
				freeListRelease(t, head, cur, pre)
			}
			if suf := (cur + m.size) - (offset + n); suf > 0 {
				freeListRelease(t, head, offset+n, suf)
			}
			return true
		}
		cur, curValid = m.nextOffset, m.nextValid
	}
	return false
}

// maxFree walks the free list rooted at head and returns the largest
// block size found (0 if head is -1), used to recompute the owning
// PDE's max_free_contiguous hint after a mutation.
func maxFree(t *pte.Table, head int) int {
	max := 0
	cur, curValid := head, head != -1
	for curValid {
		m := decodeFree(t.Entries[cur])
		if m.size > max {
			max = m.size
		}
		cur, curValid = m.nextOffset, m.nextValid
	}
	return max
}

func log2Floor(n int) uint {
	var l uint
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}
