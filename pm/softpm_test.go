package pm

import "testing"

func TestAllocateReleaseRoundTrip(t *testing.T) {
	a := NewSoftware(0x100000, 4)
	if a.Available() != 4 {
		t.Fatalf("Available = %d, want 4", a.Available())
	}
	f, ok := a.Allocate(0, 0)
	if !ok {
		t.Fatal("Allocate failed on fresh pool")
	}
	if a.Available() != 3 {
		t.Fatalf("Available = %d, want 3", a.Available())
	}
	a.Release(f)
	if a.Available() != 4 {
		t.Fatalf("Available after release = %d, want 4", a.Available())
	}
}

func TestExhaustionRejectsWithoutMustSucceed(t *testing.T) {
	a := NewSoftware(0, 1)
	if _, ok := a.Allocate(0, 0); !ok {
		t.Fatal("first allocate should succeed")
	}
	if _, ok := a.Allocate(0, 0); ok {
		t.Fatal("second allocate should fail, pool is empty")
	}
}

func TestExhaustionBugchecksWithMustSucceed(t *testing.T) {
	a := NewSoftware(0, 1)
	a.Allocate(0, 0)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a bugcheck panic on exhaustion with MustSucceed")
		}
	}()
	a.Allocate(0, MustSucceed)
}

func TestReserveThenTakeCannotFailPartway(t *testing.T) {
	a := NewSoftware(0, 4)
	if !a.Reserve(2) {
		t.Fatal("reserve of 2 out of 4 should succeed")
	}
	if a.Available() != 2 {
		t.Fatalf("Available after reserve = %d, want 2", a.Available())
	}
	// the two un-reserved frames are still allocatable the normal way
	if _, ok := a.Allocate(0, 0); !ok {
		t.Fatal("normal allocate should still work for unreserved frames")
	}
	if _, ok := a.Allocate(0, 0); !ok {
		t.Fatal("normal allocate should still work for unreserved frames")
	}
	if _, ok := a.Allocate(0, 0); ok {
		t.Fatal("normal allocate must not dip into the reservation")
	}
	if _, ok := a.Allocate(0, Take); !ok {
		t.Fatal("Take should succeed against the reservation")
	}
	if _, ok := a.Allocate(0, Take); !ok {
		t.Fatal("Take should succeed against the reservation")
	}
	if _, ok := a.Allocate(0, Take); ok {
		t.Fatal("Take must fail once the reservation is exhausted")
	}
}

func TestReserveRejectsWhenInsufficient(t *testing.T) {
	a := NewSoftware(0, 2)
	if a.Reserve(3) {
		t.Fatal("reserve of 3 out of 2 frames must fail")
	}
	if a.Available() != 2 {
		t.Fatalf("a failed reserve must not consume availability, got %d", a.Available())
	}
}
