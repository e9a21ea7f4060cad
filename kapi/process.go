package kapi

import (
	"time"

	"kore/defs"
	"kore/proc"
	"kore/sched"
)

// OSInfo answers os_info: the fixed identification record a caller
// reads once at startup, the Go analogue of a SYSINFO-page field.
type OSInfo struct {
	Name         string
	VersionMajor int
	VersionMinor int
}

// OSInfo implements os_info.
func (s *Service) OSInfo() OSInfo {
	return OSInfo{Name: "kore", VersionMajor: 0, VersionMinor: 1}
}

// GetTime implements get_time: nanoseconds since the host clock's
// epoch, standing in for a real TSC/RTC read.
func (s *Service) GetTime() int64 {
	return time.Now().UnixNano()
}

// ProcessInfo is the fixed-size record process_info copies out: the
// Go-typed stand-in for the raw byte layout a real dispatcher would
// marshal into the caller's buffer.
type ProcessInfo struct {
	ID        defs.Pid_t
	Privilege int
	State     proc.State
	Command   string
}

// EnumProcess implements enum_process(id): given the last id seen (0
// to start), returns the next process id in table order, or ok=false
// once enumeration is exhausted.
func (s *Service) EnumProcess(last defs.Pid_t) (defs.Pid_t, bool) {
	return s.Table.Enumerate(last)
}

// GetProcess implements get_process: installs a handle to the
// caller's own process into the caller's own handle table.
func (s *Service) GetProcess(caller *proc.Thread) (defs.Handle_t, bool) {
	p := caller.Process
	p.Manage()
	return p.Handles.Put(p.Base, p)
}

// OpenProcess implements open_process(id): looks the process up by
// id and installs a handle to it.
func (s *Service) OpenProcess(caller *proc.Thread, id defs.Pid_t) (defs.Handle_t, bool) {
	p := s.Table.Find(id, true)
	if p == nil {
		return 0, false
	}
	return caller.Process.Handles.Put(p.Base, p)
}

func resolveProcess(caller *proc.Thread, h defs.Handle_t) (*proc.Process, bool) {
	_, obj, ok := caller.Process.Handles.Get(h)
	if !ok {
		return nil, false
	}
	p, ok := obj.(*proc.Process)
	return p, ok
}

// ProcessID implements process_id(h).
func (s *Service) ProcessID(caller *proc.Thread, h defs.Handle_t) (defs.Pid_t, bool) {
	p, ok := resolveProcess(caller, h)
	if !ok {
		return 0, false
	}
	return p.ID, true
}

// ProcessInfo implements process_info(h,buf,lim): buf/lim's raw-byte
// copy is the caller's concern once it has this record; here the
// record itself is the return value.
func (s *Service) ProcessInfo(caller *proc.Thread, h defs.Handle_t) (ProcessInfo, bool) {
	p, ok := resolveProcess(caller, h)
	if !ok {
		return ProcessInfo{}, false
	}
	return ProcessInfo{ID: p.ID, Privilege: p.Privilege, State: p.State(), Command: p.CommandLine}, true
}

// GetCommand implements get_command(h,buf,lim).
func (s *Service) GetCommand(caller *proc.Thread, h defs.Handle_t) (string, bool) {
	p, ok := resolveProcess(caller, h)
	if !ok {
		return "", false
	}
	return p.CommandLine, true
}

// ExitProcess implements exit_process(result): the caller kills its
// own process.
func (s *Service) ExitProcess(core *sched.Core, caller *proc.Thread, result int) {
	s.Table.KillProcess(core, caller.Process, result)
}

// KillProcess implements kill_process(h,result): kills the process a
// handle names, which may or may not be the caller's own.
func (s *Service) KillProcess(core *sched.Core, caller *proc.Thread, h defs.Handle_t, result int) bool {
	p, ok := resolveProcess(caller, h)
	if !ok {
		return false
	}
	s.Table.KillProcess(core, p, result)
	return true
}

// ProcessResult implements process_result(h): meaningful only once
// the named process has stopped.
func (s *Service) ProcessResult(caller *proc.Thread, h defs.Handle_t) (int, bool) {
	p, ok := resolveProcess(caller, h)
	if !ok {
		return 0, false
	}
	return p.Result(), true
}

// CreateProcessArgs carries create_process(info,len)'s decoded
// arguments. The raw info/len buffer's PE-header validation and
// stream opening happen before CreateProcess is called (via
// image.Loader/stream.Object, already resolved to concrete values
// here) — this method's job starts at process_manager::spawn proper.
type CreateProcessArgs struct {
	Privilege   int
	CommandLine string
	Entry       uintptr
	Arg         uintptr
	Image       any
	Streams     [3]any
}

// CreateProcess implements create_process(info,len).
func (s *Service) CreateProcess(core *sched.Core, caller *proc.Thread, args CreateProcessArgs) (defs.Handle_t, bool) {
	p, ok := s.Table.SpawnProcess(core, caller.Process.Privilege, args.Privilege, args.CommandLine, args.Entry, args.Arg, args.Image, args.Streams)
	if !ok {
		return 0, false
	}
	return caller.Process.Handles.Put(p.Base, p)
}
