package hal

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

/// Software is a hosted implementation of Facade used by tests and by
/// any environment without real bare-metal access. It is grounded on
/// biscuit's mem.Physmem_t percpu array (mem/mem.go's
/// [runtime.MAXCPUS]pcpuphys_t) for the "fixed-size per-core state
/// array guarded by its own mutex" shape.
type Software struct {
	n        int
	mu       sync.Mutex
	cr3      []uintptr
	ifmasked []bool
	features Features
}

/// NewSoftware constructs a software Facade simulating n cores. Its
/// Features are fixed (GlobalPages and NX both true) rather than
/// detected; golang.org/x/sys/cpu backs only FastZeroCapable below.
func NewSoftware(n int) *Software {
	if n < 1 {
		n = 1
	}
	return &Software{
		n:        n,
		cr3:      make([]uintptr, n),
		ifmasked: make([]bool, n),
		features: Features{
			// x/sys/cpu does not expose the PGE/NX control-register
			// bits biscuit's Dmap_init reads via runtime.Rcr4 (those
			// require a real CR4 read, unavailable to a hosted
			// process); both are assumed present on any x86-64 target
			// this module runs on, matching biscuit's own panic-if-
			// absent stance rather than silently degrading.
			GlobalPages: true,
			NX:          true,
		},
	}
}

// FastZeroCapable reports whether the host CPU exposes the enhanced
// REP MOVSB/STOSB string-copy extensions biscuit's zero-page paths
// would benefit from. No package in this module calls it; vspace's
// newTable gets a zeroed page-table page from a fresh Go allocation.
func FastZeroCapable() bool {
	return cpu.X86.HasERMS
}

func (s *Software) NumCores() int { return s.n }

func (s *Software) Probe() Features { return s.features }

func (s *Software) CompareAndSwap64(addr *uint64, old, new uint64) bool {
	return atomic.CompareAndSwapUint64(addr, old, new)
}

func (s *Software) Invlpg(va uintptr) {
	// No real TLB to invalidate in a hosted simulation; the call still
	// exists so callers exercise the same control flow a bare-metal
	// Facade would. Software does not record the call.
}

func (s *Software) DisableInterrupts(core int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.ifmasked[core]
	s.ifmasked[core] = true
	return prev
}

func (s *Software) RestoreInterrupts(core int, prev bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ifmasked[core] = prev
}

func (s *Software) LoadCR3(core int, root uintptr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cr3[core] = root
}

func (s *Software) CR3(core int) uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cr3[core]
}
