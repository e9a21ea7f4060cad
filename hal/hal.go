// Package hal is the narrow CPU facade spec.md §1 lists as a
// deliberately external collaborator: "a low-level CPU facade
// (current-core state, context switch, TLB invalidate, atomic
// compare-exchange, interrupt mask)". The core consumes only this
// interface; Facade itself never appears concretely outside this
// package and the software implementation in softcpu.go.
//
// Grounded on biscuit's use of runtime.Cpuid/Vtop/Pml4freeze/CPUHint
// (mem/mem.go, mem/dmap.go) to talk to its patched Go runtime, and on
// COFUOS's cmpxchg/__invlpg/interrupt_guard intrinsics seen throughout
// vm.cpp/kernel_vspace.cpp.
package hal

/// RegisterState is the per-thread register-save area named in
/// spec.md §3. It is populated by the process/thread subsystem and
/// handed to Facade.SwitchTo; the hosted software Facade does not
/// restore it onto a real CPU (there is no bare-metal stack to swap
/// to), but keeping the struct lets tests assert on the values a real
/// switch would have installed, and keeps the data model honest.
type RegisterState struct {
	RIP, RSP, RBP uintptr
	RCX           uintptr // first argument register, per spec.md §4.5
	CS, SS        uint16
	RFlags        uint64
}

/// IF is the interrupt-enable bit of RFlags, set by thread creation per
/// spec.md §4.5 ("kernel selectors, and the IF flag set").
const IF uint64 = 1 << 9

/// Features reports the CPU capabilities biscuit's Dmap_init probes via
/// runtime.Cpuid/Rcr4 before trusting global pages to work.
type Features struct {
	GlobalPages bool
	NX          bool
}

/// Facade is the CPU abstraction the kernel core depends on. Operations
/// that are meaningful per-core (interrupt mask, active page-table
/// root) take an explicit core index rather than querying "the calling
/// core" implicitly: biscuit gets that for free from a patched runtime
/// (runtime.CPUHint), which a hosted Go program cannot reproduce, so the
/// core/scheduler package threads the core index explicitly instead —
/// an adaptation recorded in DESIGN.md, not a silent behavior change.
type Facade interface {
	/// NumCores returns the number of simulated cores.
	NumCores() int

	/// Probe returns the CPU features detected at boot.
	Probe() Features

	/// CompareAndSwap64 performs the hardware cmpxchg the transient
	/// mapper and paging-structure mutators rely on as their sole
	/// synchronization word.
	CompareAndSwap64(addr *uint64, old, new uint64) bool

	/// Invlpg issues a local TLB invalidation for va. Cross-core
	/// shootdown is out of scope per spec.md §5.
	Invlpg(va uintptr)

	/// DisableInterrupts masks local interrupts on core and returns the
	/// prior mask state, for use by the interrupt-guard scope in §5.
	DisableInterrupts(core int) (prev bool)
	/// RestoreInterrupts restores a previously saved mask state on core.
	RestoreInterrupts(core int, prev bool)

	/// LoadCR3 switches core's active page-table root, the step
	/// switch_to takes "if the owning process differs" (spec.md §4.4).
	LoadCR3(core int, root uintptr)
	/// CR3 returns core's active page-table root.
	CR3(core int) uintptr
}
