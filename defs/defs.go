// Package defs holds the small shared types used across the kernel core:
// typed identifiers and the kernel-internal error code, the way biscuit's
// defs package centralizes Err_t and friends for every other package to
// import without creating import cycles.
package defs

/// Err_t is the kernel-internal error code. Zero means success; negative
/// values name a rejected-request condition (never a bugcheck).
type Err_t int

const (
	EINVAL   Err_t = -1
	ENOMEM   Err_t = -2
	EFAULT   Err_t = -3
	ENOHEAP  Err_t = -4
	EEXIST   Err_t = -5
	ENOENT   Err_t = -6
	EBUSY    Err_t = -7
	EPERM    Err_t = -8
	ESRCH    Err_t = -9
	ETIMEDOUT Err_t = -10
)

/// Tid_t names a thread within its owning process.
type Tid_t uint32

/// Pid_t names a process within the global process table.
type Pid_t uint32

/// Handle_t is a process-local index naming a waitable in a handle table.
type Handle_t uint32

/// KernelPid is the id reserved for the permanent kernel process.
const KernelPid Pid_t = 0

/// KernelTid is the id of a process's initial (loader) thread.
const KernelTid Tid_t = 0
