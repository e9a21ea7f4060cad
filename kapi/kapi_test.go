package kapi

import (
	"bytes"
	"testing"

	"kore/defs"
	"kore/hal"
	"kore/pm"
	"kore/proc"
	"kore/pte"
	"kore/sched"
	"kore/timer"
	"kore/vspace"
)

// fakeStream is a minimal in-memory stream.Object for io-category tests.
type fakeStream struct {
	*bytes.Reader
	buf []byte
}

func newFakeStream(data []byte) *fakeStream {
	cp := append([]byte(nil), data...)
	return &fakeStream{Reader: bytes.NewReader(cp), buf: cp}
}

func (f *fakeStream) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	return len(p), nil
}

func (f *fakeStream) Close() error { return nil }

func (f *fakeStream) Seek(offset int64, whence int) (int64, error) {
	return f.Reader.Seek(offset, whence)
}

func newTestService(t *testing.T) (*Service, *sched.Core, *proc.Table) {
	t.Helper()
	facade := hal.NewSoftware(1)
	alloc := pm.NewSoftware(0, 4096)
	tsvc := timer.NewSoftware()
	s := sched.New()
	kernel := vspace.NewKernel(facade, alloc)
	tbl := proc.NewTable(facade, alloc, tsvc, s, kernel)
	core := sched.NewCore(0, facade, s, &sched.Thread{ID: 0})
	return New(tbl, tsvc, nil), core, tbl
}

func spawnTestProcess(t *testing.T, svc *Service, core *sched.Core) *proc.Thread {
	t.Helper()
	p, ok := svc.Table.SpawnProcess(core, 0, 0, "test.exe", 0x1000, 0, nil, [3]any{})
	if !ok {
		t.Fatal("SpawnProcess should succeed")
	}
	th := p.Find(defs.KernelTid, false)
	if th == nil {
		t.Fatal("loader thread should exist at KernelTid")
	}
	return th
}

func TestGetProcessAndProcessInfoRoundTrip(t *testing.T) {
	svc, core, _ := newTestService(t)
	caller := spawnTestProcess(t, svc, core)

	h, ok := svc.GetProcess(caller)
	if !ok {
		t.Fatal("GetProcess should succeed")
	}
	info, ok := svc.ProcessInfo(caller, h)
	if !ok {
		t.Fatal("ProcessInfo should succeed")
	}
	if info.Command != "test.exe" {
		t.Fatalf("Command = %q, want test.exe", info.Command)
	}
	if info.State != proc.Running {
		t.Fatalf("State = %v, want Running", info.State)
	}
}

func TestExitProcessRecordsResult(t *testing.T) {
	svc, core, _ := newTestService(t)
	caller := spawnTestProcess(t, svc, core)

	h, _ := svc.GetProcess(caller)
	svc.ExitProcess(core, caller, 42)

	res, ok := svc.ProcessResult(caller, h)
	if !ok {
		t.Fatal("ProcessResult should succeed")
	}
	if res != 42 {
		t.Fatalf("ProcessResult = %d, want 42", res)
	}
}

func TestCreateThreadAndKillThread(t *testing.T) {
	svc, core, _ := newTestService(t)
	caller := spawnTestProcess(t, svc, core)

	h, ok := svc.CreateThread(core, caller, 0x2000, 0, 1)
	if !ok {
		t.Fatal("CreateThread should succeed")
	}
	tid, ok := svc.ThreadID(caller, h)
	if !ok || tid == caller.ID {
		t.Fatalf("new thread id = %v, should differ from caller's %v", tid, caller.ID)
	}
	if !svc.KillThread(core, caller, h) {
		t.Fatal("KillThread should succeed")
	}
}

func TestCreateObjectEventSignalAndWait(t *testing.T) {
	svc, core, _ := newTestService(t)
	caller := spawnTestProcess(t, svc, core)

	h, ok := svc.CreateObject(caller, ObjectEvent, 0, 0)
	if !ok {
		t.Fatal("CreateObject(event) should succeed")
	}
	if signaled, ok := svc.Check(caller, h); !ok || signaled {
		t.Fatal("freshly created manual-reset event should not be signaled")
	}
	if !svc.Signal(core, caller, h, SignalAll) {
		t.Fatal("Signal should succeed")
	}
	if signaled, ok := svc.Check(caller, h); !ok || !signaled {
		t.Fatal("event should be signaled after SignalAll")
	}
	reason, ok := svc.WaitFor(core, caller, h, 0)
	if !ok || reason != defs.Passed {
		t.Fatalf("WaitFor on a signaled event = %v,%v, want Passed,true", reason, ok)
	}
}

func TestCloseHandleAndHandleType(t *testing.T) {
	svc, core, _ := newTestService(t)
	caller := spawnTestProcess(t, svc, core)

	h, _ := svc.CreateObject(caller, ObjectSemaphore, 1, 1)
	if kind, ok := svc.HandleType(caller, h); !ok || kind != "semaphore" {
		t.Fatalf("HandleType = %q,%v, want semaphore,true", kind, ok)
	}
	if !svc.CloseHandle(core, caller, h) {
		t.Fatal("CloseHandle should succeed")
	}
	if _, ok := svc.HandleType(caller, h); ok {
		t.Fatal("HandleType should fail once the handle is closed")
	}
}

func TestVMReserveCommitProtectPeek(t *testing.T) {
	svc, core, _ := newTestService(t)
	caller := spawnTestProcess(t, svc, core)

	base := svc.VMReserve(core, caller, 0, 1)
	if base == 0 {
		t.Fatal("VMReserve should return a non-zero base")
	}
	if !svc.VMCommit(core, caller, base, 1) {
		t.Fatal("VMCommit should succeed")
	}
	e := svc.VMPeek(core, caller, base)
	if !e.Present() || !e.User() {
		t.Fatalf("committed user page should be Present and User, got %+v", e)
	}
	if !svc.VMProtect(core, caller, base, 1, pte.AttrWrite, false) {
		t.Fatal("VMProtect should succeed")
	}
	e = svc.VMPeek(core, caller, base)
	if e.Writable() {
		t.Fatal("page should no longer be writable after VMProtect clears AttrWrite")
	}
	if !svc.VMRelease(core, caller, base, 1) {
		t.Fatal("VMRelease should succeed")
	}
}

func TestReadWriteValidatesUserBufferAgainstVSpace(t *testing.T) {
	svc, core, _ := newTestService(t)
	caller := spawnTestProcess(t, svc, core)

	st := newFakeStream([]byte("hello"))
	// Without a committed VA, Read/Write must reject the buffer outright.
	buf := UserBuffer{VA: 0x7000, Len: 5, Data: make([]byte, 5)}
	if n, ok := svc.Read(core, caller, 4, buf); ok || n != 0 {
		t.Fatalf("Read against an uncommitted VA should fail, got n=%d ok=%v", n, ok)
	}

	base := svc.VMReserve(core, caller, 0, 1)
	svc.VMCommit(core, caller, base, 1)
	buf = UserBuffer{VA: base, Len: 5, Data: make([]byte, 5)}

	h2, ok := caller.Process.Handles.Put(caller.Process.Base, st)
	if !ok {
		t.Fatal("installing the stream handle should succeed")
	}
	n, ok := svc.Read(core, caller, h2, buf)
	if !ok || n != 5 || string(buf.Data[:n]) != "hello" {
		t.Fatalf("Read = %d,%v,%q, want 5,true,hello", n, ok, buf.Data[:n])
	}

	wbuf := UserBuffer{VA: base, Len: 5, Data: []byte("abcde")}
	n, ok = svc.Write(core, caller, h2, wbuf)
	if !ok || n != 5 {
		t.Fatalf("Write = %d,%v, want 5,true", n, ok)
	}
	if !bytes.Contains(st.buf, []byte("abcde")) {
		t.Fatal("written bytes should reach the underlying stream")
	}
}

func TestDisplayFillWithoutDisplayWiredReportsFailure(t *testing.T) {
	svc, _, _ := newTestService(t)
	if svc.DisplayFill(DisplayRect{W: 1, H: 1}, 0xFFFFFF) {
		t.Fatal("DisplayFill should fail when no Display is wired")
	}
}

func TestSoftwareDisplayFillAndDraw(t *testing.T) {
	d := NewSoftwareDisplay(4, 4)
	if err := d.Fill(DisplayRect{X: 0, Y: 0, W: 4, H: 4}, 0x0000FF); err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}
	for _, px := range d.Pixels {
		if px != 0x0000FF {
			t.Fatal("every pixel should be filled")
		}
	}
	if err := d.Draw(1, 1, []uint32{0xFF0000, 0xFF0000}, 2, 1); err != nil {
		t.Fatalf("Draw returned error: %v", err)
	}
	if d.Pixels[1*4+1] != 0xFF0000 {
		t.Fatal("drawn pixel should overwrite the fill color")
	}
}
