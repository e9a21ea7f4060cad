// Package klog is the kernel's logging path: a thin wrapper over the
// standard log package, matching biscuit's use of plain fmt.Printf from
// kernel context (see mem.Phys_init's "Reserved %v pages" line) rather
// than any structured/leveled third-party logger. There is no
// standard-out/file descriptor abstraction to hand a logging library
// before the paging and process subsystems exist, so the teacher never
// reaches for one and neither do we.
package klog

import (
	"log"
	"os"
)

var std = log.New(os.Stdout, "", log.LstdFlags)

/// SetOutput redirects kernel log output, primarily for tests that want
/// to capture it.
func SetOutput(l *log.Logger) {
	if l != nil {
		std = l
	}
}

/// Printf logs a formatted kernel diagnostic line.
func Printf(format string, args ...any) {
	std.Printf(format, args...)
}
