// Package pm is the physical-page allocator port spec.md §1 and §5
// name as an external collaborator: "alloc/release/reserve with a
// 'must succeed' flag". Grounded on biscuit's mem.Physmem_t
// (mem/mem.go: the _phys_new/_phys_put free-list pair, the respgs
// pre-reservation counter Phys_init sets aside) for the shape, and
// generalized from its per-CPU free-list split into one mutex-guarded
// free list: the spec's Non-goals exclude NUMA affinity and per-CPU
// run-queues with work stealing, and a single shared pool is the
// simplest design consistent with that exclusion (recorded in
// DESIGN.md as a deliberate simplification, not an oversight).
package pm

import "kore/kbug"

const PageSize = 4096

// Frame is a physical, page-aligned address.
type Frame uintptr

// Flags modify an Allocate call.
type Flags uint

const (
	// MustSucceed turns allocation failure into a bugcheck, per
	// spec.md §5 ("MUST_SUCCEED turns failure into bugcheck").
	MustSucceed Flags = 1 << iota
	// Take consumes one frame from a prior Reserve call instead of
	// the general pool, used by commit() to realize its
	// pre-reservation guarantee (spec.md §4.2/§5).
	Take
)

// Allocator is the narrow physical-frame-allocator interface the
// virtual-space manager and transient mapper consume.
type Allocator interface {
	// Allocate returns a free, page-aligned frame. hint is advisory
	// (the software implementation ignores it; a bare-metal one might
	// use it for locality) and may be zero. Allocate returns ok=false
	// on exhaustion unless flags includes MustSucceed, in which case
	// it bugchecks instead of returning.
	Allocate(hint Frame, flags Flags) (Frame, bool)
	// Reserve pre-allocates n frames atomically so a subsequent
	// sequence of Allocate(_, Take) calls cannot fail partway
	// (spec.md §4.2's commit-path all-or-nothing guarantee).
	Reserve(n int) bool
	// Release returns a frame to the pool.
	Release(Frame)
	// Available is a lower-bound estimate of free frames, per
	// spec.md §5.
	Available() int
}

// MustAllocate is a convenience wrapper equivalent to
// Allocate(hint, flags|MustSucceed) for callers that always want the
// bugcheck-on-exhaustion behavior.
func MustAllocate(a Allocator, hint Frame, flags Flags) Frame {
	f, ok := a.Allocate(hint, flags|MustSucceed)
	if !ok {
		kbug.Check(kbug.BadAlloc, "MustAllocate returned false despite MustSucceed")
	}
	return f
}
