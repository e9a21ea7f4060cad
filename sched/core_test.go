package sched

import (
	"testing"

	"kore/hal"
	"kore/pm"
	"kore/vspace"
)

func TestSwitchToSameThreadIsNoOp(t *testing.T) {
	facade := hal.NewSoftware(1)
	idle := &Thread{ID: 0}
	c := NewCore(0, facade, New(), idle)
	before := c.Current()
	c.SwitchTo(before)
	if c.Current() != before {
		t.Fatal("switching to the already-current thread must be a no-op")
	}
}

func TestSwitchToMakesThreadRunning(t *testing.T) {
	facade := hal.NewSoftware(1)
	c := NewCore(0, facade, New(), &Thread{ID: 0})
	th := &Thread{ID: 1, State: Ready}
	c.SwitchTo(th)
	if c.Current() != th {
		t.Fatal("current thread should be th after switch")
	}
	if th.State != Running {
		t.Fatalf("switched-in thread should be RUNNING, got %v", th.State)
	}
}

func TestSwitchToReloadsCR3ForDifferentOwningProcess(t *testing.T) {
	facade := hal.NewSoftware(1)
	alloc := pm.NewSoftware(0, 1024)
	kernel := vspace.NewKernel(facade, alloc)
	userA := vspace.NewUser(kernel, facade, alloc)
	userB := vspace.NewUser(kernel, facade, alloc)

	c := NewCore(0, facade, New(), &Thread{ID: 0, Owner: 0, VSpace: kernel})

	a := &Thread{ID: 1, Owner: 1, VSpace: userA}
	c.SwitchTo(a)
	if got, want := facade.CR3(0), uintptr(userA.Root()); got != want {
		t.Fatalf("CR3 after switching into process A = %#x, want %#x", got, want)
	}

	b := &Thread{ID: 2, Owner: 2, VSpace: userB}
	c.SwitchTo(b)
	if got, want := facade.CR3(0), uintptr(userB.Root()); got != want {
		t.Fatalf("CR3 after switching into process B = %#x, want %#x", got, want)
	}
}

func TestMaybePreemptSwitchesToHigherPriority(t *testing.T) {
	facade := hal.NewSoftware(1)
	s := New()
	c := NewCore(0, facade, s, &Thread{ID: 0})
	running := &Thread{ID: 1, Priority: 5}
	c.SwitchTo(running)

	hiPrio := &Thread{ID: 2, Priority: 1}
	s.Put(hiPrio)

	if !c.MaybePreempt() {
		t.Fatal("a strictly higher priority ready thread should trigger preemption")
	}
	if c.Current() != hiPrio {
		t.Fatal("the higher priority thread should now be current")
	}
	if running.State != Ready {
		t.Fatalf("the preempted thread should be READY, got %v", running.State)
	}
}

func TestMaybePreemptNoOpWhenNothingOutranksRunning(t *testing.T) {
	facade := hal.NewSoftware(1)
	s := New()
	c := NewCore(0, facade, s, &Thread{ID: 0})
	running := &Thread{ID: 1, Priority: 1}
	c.SwitchTo(running)

	s.Put(&Thread{ID: 2, Priority: 5})
	if c.MaybePreempt() {
		t.Fatal("a lower priority ready thread must not preempt")
	}
	if c.Current() != running {
		t.Fatal("current thread must be unchanged")
	}
}
