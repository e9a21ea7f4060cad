package vspace

import (
	"testing"

	"kore/pte"
)

func TestFreeListAllocSplitsAndRelinks(t *testing.T) {
	tbl := &pte.Table{}
	head := 0
	initFreeList(tbl, 0, pte.PagesPerTable)

	off, ok := freeListAlloc(tbl, &head, 10)
	if !ok || off != 0 {
		t.Fatalf("first alloc: off=%d ok=%v", off, ok)
	}
	if head != 10 {
		t.Fatalf("head should advance to 10 after consuming [0,10), got %d", head)
	}
	if m := maxFree(tbl, head); m != pte.PagesPerTable-10 {
		t.Fatalf("maxFree = %d, want %d", m, pte.PagesPerTable-10)
	}
}

func TestFreeListReleaseCoalescesBothSides(t *testing.T) {
	tbl := &pte.Table{}
	head := -1
	// three disjoint free blocks: [0,10) [20,30) [40,pagesPerTable)
	freeListRelease(tbl, &head, 0, 10)
	freeListRelease(tbl, &head, 20, 10)
	freeListRelease(tbl, &head, 40, pte.PagesPerTable-40)

	if m := maxFree(tbl, head); m != pte.PagesPerTable-40 {
		t.Fatalf("maxFree = %d, want %d", m, pte.PagesPerTable-40)
	}
	// fill the gap [10,20) — should coalesce [0,10)+[10,20)+[20,30) into one [0,30) block
	freeListRelease(tbl, &head, 10, 10)
	if m := decodeFree(tbl.Entries[head]); head != 0 || m.size != 30 {
		t.Fatalf("after filling the gap, head block = [%d,+%d), want [0,+30)", head, m.size)
	}
}

func TestFreeListReserveFixedSplitsPrefixSuffix(t *testing.T) {
	tbl := &pte.Table{}
	head := 0
	initFreeList(tbl, 0, pte.PagesPerTable)

	if !freeListReserveFixed(tbl, &head, 100, 50) {
		t.Fatal("reserve-fixed of [100,150) within the full free block should succeed")
	}
	// remaining free space should be [0,100) and [150,512), max being 362.
	if m := maxFree(tbl, head); m != pte.PagesPerTable-150 {
		t.Fatalf("maxFree after fixed carve = %d, want %d", m, pte.PagesPerTable-150)
	}
	if freeListReserveFixed(tbl, &head, 90, 20) {
		t.Fatal("a span overlapping the carved-out region must be rejected")
	}
}

func TestFreeListAllocFailsWhenNoBlockIsBigEnough(t *testing.T) {
	tbl := &pte.Table{}
	head := 0
	initFreeList(tbl, 0, 10)
	if _, ok := freeListAlloc(tbl, &head, 11); ok {
		t.Fatal("allocating more than the only free block's size must fail")
	}
}

// TestFreeListEntryNeverAliasesHardwareBits guards against the
// free-metadata encoding colliding with pte.Entry's Present/Preserve/
// Bypass bits: Space.Destroy and friends distinguish a mapped frame
// from a free-list node purely by those bits, so every freeMeta —
// including odd sizes, which previously set bit 0 (Present) — must
// decode as unmapped.
func TestFreeListEntryNeverAliasesHardwareBits(t *testing.T) {
	for size := 1; size <= pte.PagesPerTable; size++ {
		for _, prevValid := range []bool{false, true} {
			for _, nextValid := range []bool{false, true} {
				m := freeMeta{
					size:       size,
					prevOffset: 511,
					nextOffset: 511,
					prevValid:  prevValid,
					nextValid:  nextValid,
				}
				e := encodeFree(m)
				if e.Present() || e.Preserve() || e.Bypass() {
					t.Fatalf("size=%d prevValid=%v nextValid=%v encoded to Present=%v Preserve=%v Bypass=%v, want all false",
						size, prevValid, nextValid, e.Present(), e.Preserve(), e.Bypass())
				}
				if got := decodeFree(e); got != m {
					t.Fatalf("decodeFree(encodeFree(%+v)) = %+v, want round-trip", m, got)
				}
			}
		}
	}
}

// TestFreeListAllocOddRemainderDoesNotLookMapped reproduces the
// concrete scenario from Space.Destroy's teardown walk: splitting a
// fresh 512-page block into a 1-page allocation leaves an odd-sized
// (511) remainder at offset 1, which must still decode as unmapped.
func TestFreeListAllocOddRemainderDoesNotLookMapped(t *testing.T) {
	tbl := &pte.Table{}
	head := 0
	initFreeList(tbl, 0, pte.PagesPerTable)

	if _, ok := freeListAlloc(tbl, &head, 1); !ok {
		t.Fatal("alloc of 1 page from a full free PT must succeed")
	}
	remainder := tbl.Entries[1]
	if remainder.Present() || remainder.Bypass() {
		t.Fatalf("odd-sized remainder free-list node must not read as mapped: Present=%v Bypass=%v",
			remainder.Present(), remainder.Bypass())
	}
}
