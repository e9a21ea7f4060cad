// Package kapi is the external-interface facade spec.md §6 names: one
// Go method per syscall-table row, operating on Go-typed handles and
// addresses in place of raw registers. It is deliberately not a trap
// dispatcher — decoding a syscall number and copying arguments out of
// registers is the boundary this package sits behind, not something it
// does. Grounded on original_source's syscall.cpp (the thin
// switch(call_number) body that does nothing but validate arguments
// and call straight into process.cpp/thread.cpp/vm.cpp), generalized
// here the same way proc's Table methods already take the acting core
// and caller thread explicitly rather than consulting a global
// "current" pointer.
package kapi

import (
	"kore/proc"
	"kore/timer"
)

// Service is constructed once over the process table every method
// here is wired against, plus the narrow external ports (timer,
// display) a handful of calls need directly.
type Service struct {
	Table   *proc.Table
	tsvc    timer.Service
	Display Display
}

// New constructs a Service. display may be nil; DisplayFill/DisplayDraw
// then report failure rather than panicking, matching a system booted
// without a framebuffer handed off in SYSINFO.
func New(table *proc.Table, tsvc timer.Service, display Display) *Service {
	return &Service{Table: table, tsvc: tsvc, Display: display}
}
