package pte

import "testing"

func TestKernelLeafBits(t *testing.T) {
	e := KernelLeaf(0x1234000)
	if !e.Present() || !e.Writable() || !e.Global() || !e.ExecuteDisable() {
		t.Fatalf("unexpected bits: %#x", e)
	}
	if e.User() || e.Bypass() || e.Preserve() {
		t.Fatalf("unexpected extra bits: %#x", e)
	}
	if e.Frame() != 0x1234000 {
		t.Fatalf("frame = %#x, want %#x", e.Frame(), 0x1234000)
	}
}

func TestPreserveBypassAreExclusiveOfPresent(t *testing.T) {
	reserved := Entry(0).WithPreserve(true)
	if reserved.Present() {
		t.Fatal("a reserved-only entry must not read as present")
	}
	bypass := BypassLeaf(0x9000)
	if !bypass.Present() || !bypass.Bypass() {
		t.Fatal("bypass leaf must be present and bypass")
	}
}

func TestMaxFreeLog2RoundTrip(t *testing.T) {
	var e Entry
	for log2 := uint(0); log2 <= 9; log2++ {
		e = e.WithMaxFreeLog2(log2)
		if got := e.MaxFreeLog2(); got != log2 {
			t.Fatalf("log2=%d: got %d", log2, got)
		}
	}
	// installing the hint must not disturb unrelated bits
	leaf := KernelLeaf(0x2000).WithMaxFreeLog2(9)
	if !leaf.Present() || !leaf.Writable() || leaf.Frame() != 0x2000 {
		t.Fatalf("hint write corrupted other fields: %#x", leaf)
	}
}

func TestWithAttrRejectsUnknown(t *testing.T) {
	if ValidAttr(Attr(99)) {
		t.Fatal("Attr(99) must not be valid")
	}
	for a := AttrXD; a <= AttrWrite; a++ {
		if !ValidAttr(a) {
			t.Fatalf("Attr(%d) should be valid", a)
		}
	}
}

func TestFrameMasksLowBits(t *testing.T) {
	e := Entry(0).WithFrame(0xABCDE123) // not page aligned on purpose
	if e.Frame()&0xFFF != 0 {
		t.Fatalf("Frame() must mask the low 12 bits, got %#x", e.Frame())
	}
}
