// Package kbug implements the kernel's single fatal-error path. Every
// invariant violation the core detects at runtime funnels through
// Check, which is the Go analogue of COFUOS's BugCheck(reason, context)
// and of biscuit's bare "panic()" calls scattered through mem/vm: both
// teachers treat a detected invariant violation as unrecoverable, never
// as a returned error.
package kbug

import "fmt"

/// Reason classifies why the kernel halted.
type Reason string

const (
	Corrupted     Reason = "corrupted"
	HardwareFault Reason = "hardware_fault"
	BadAlloc      Reason = "bad_alloc"
	OutOfRange    Reason = "out_of_range"
	NotImplemented Reason = "not_implemented"
	AssertFailed  Reason = "assert_failed"
)

/// Fault carries the reason and offending context out of a panic so
/// tests can recover() and inspect it instead of crashing the process.
type Fault struct {
	Reason  Reason
	Context any
}

func (f *Fault) Error() string {
	return fmt.Sprintf("bugcheck(%s): %+v", f.Reason, f.Context)
}

/// Check halts the kernel with the given reason and context. It never
/// returns.
func Check(reason Reason, context any) {
	panic(&Fault{Reason: reason, Context: context})
}

/// Assert panics with AssertFailed if cond is false. There is no
/// separate checked build: Assert is active in every build.
func Assert(cond bool, context any) {
	if !cond {
		Check(AssertFailed, context)
	}
}
