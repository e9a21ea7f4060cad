package kapi

import (
	"kore/defs"
	"kore/proc"
	"kore/pte"
	"kore/sched"
	"kore/stream"
)

// UserBuffer names a caller-owned buffer by virtual address: the
// Go-typed stand-in for a raw (va, len) pair a real dispatcher would
// copy in or out of user memory. Data carries the actual bytes, since
// this hosted vspace tracks page-table metadata only and has no
// backing byte store at va itself; VA/Len are still validated against
// the page tables so a buffer that the caller's address space has not
// actually committed (or made writable) is rejected the same way a
// real copy-in/copy-out would fault.
type UserBuffer struct {
	VA   uintptr
	Len  int
	Data []byte
}

// validateUserBuffer walks the page range [va, va+n) and requires every
// page be present and user-accessible, additionally writable when
// forWrite is set (the kernel is about to write into the caller's
// buffer, as in Read).
func validateUserBuffer(core *sched.Core, caller *proc.Thread, va uintptr, n int, forWrite bool) bool {
	if n <= 0 {
		return false
	}
	start := va - va%pte.PageSize
	end := va + uintptr(n)
	for p := start; p < end; p += pte.PageSize {
		e := caller.Process.VSpace.Peek(core.ID(), p)
		if !e.Present() || !e.User() {
			return false
		}
		if forWrite && !e.Writable() {
			return false
		}
	}
	return true
}

func resolveStream(caller *proc.Thread, h defs.Handle_t) (stream.Object, bool) {
	_, obj, ok := caller.Process.Handles.Get(h)
	if !ok {
		return nil, false
	}
	st, ok := obj.(stream.Object)
	return st, ok
}

// Read implements read(h,buf,lim): buf.VA/buf.Len must name a
// range the caller's address space has committed and made writable
// (the kernel is about to fill it); buf.Data receives the bytes.
func (s *Service) Read(core *sched.Core, caller *proc.Thread, h defs.Handle_t, buf UserBuffer) (int, bool) {
	if !validateUserBuffer(core, caller, buf.VA, buf.Len, true) {
		return 0, false
	}
	obj, ok := resolveStream(caller, h)
	if !ok {
		return 0, false
	}
	n, err := obj.Read(buf.Data)
	if err != nil && n == 0 {
		return 0, false
	}
	return n, true
}

// Write implements write(h,buf,len): buf.VA/buf.Len must name a
// committed, user-readable range; buf.Data carries the bytes to write.
func (s *Service) Write(core *sched.Core, caller *proc.Thread, h defs.Handle_t, buf UserBuffer) (int, bool) {
	if !validateUserBuffer(core, caller, buf.VA, buf.Len, false) {
		return 0, false
	}
	obj, ok := resolveStream(caller, h)
	if !ok {
		return 0, false
	}
	n, err := obj.Write(buf.Data)
	if err != nil {
		return n, false
	}
	return n, true
}

// IOState implements iostate(h): the stream's current seek position,
// the narrow bit of stream state a caller can query without reading.
func (s *Service) IOState(caller *proc.Thread, h defs.Handle_t) (int64, bool) {
	obj, ok := resolveStream(caller, h)
	if !ok {
		return 0, false
	}
	pos, err := obj.Seek(0, 1) // io.SeekCurrent
	if err != nil {
		return 0, false
	}
	return pos, true
}
