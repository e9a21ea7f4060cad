// Package boot implements the fixed four-stage bring-up sequence
// spec.md §9 names ("constructed once during boot in a fixed order"):
// kernel virtual space, ACPI/MADT discovery, scheduler/per-core
// bring-up, then the process table. Physical memory is not a stage:
// the caller hands in an already constructed allocator. It owns no
// algorithm of its own — every stage calls straight into the package
// that implements it — it exists only to fix the order and to barrier-
// join per-core bring-up within the scheduler stage, grounded on
// biscuit's own boot path (Cpu_add/Acpi_iommu/Proc_init sequenced from
// main.go's Go entry point) generalized with golang.org/x/sync/errgroup
// in place of biscuit's hand-rolled wait-group-and-channel bring-up.
package boot

import (
	"context"

	"golang.org/x/sync/errgroup"

	"kore/acpi"
	"kore/defs"
	"kore/hal"
	"kore/klog"
	"kore/pm"
	"kore/proc"
	"kore/sched"
	"kore/timer"
	"kore/vspace"
)

// Config is the SYSINFO-page equivalent spec.md §6 names: the
// bootloader-placed facts the core needs before it can do anything
// else (PE header location for the loader image, RSDP address for
// ACPI discovery, PMM bitmap base/size for the physical allocator,
// framebuffer geometry for kapi's display calls). It is a plain value
// passed explicitly through every stage below — there is no
// filesystem or environment to load configuration from before stage 1
// completes, so there is nothing a config-file/flag library would buy.
type Config struct {
	PEHeaderAddr uint64
	RSDPAddr     uint64

	PMMBitmapBase uint64
	PMMBitmapSize uint64

	FramebufferBase   uint64
	FramebufferWidth  int
	FramebufferHeight int

	NumCores int
}

// System is everything the fixed boot sequence produces: the running
// kernel's top-level handles, wired together in dependency order.
type System struct {
	Config Config

	Facade hal.Facade
	Alloc  pm.Allocator
	Timer  timer.Service

	Kernel *vspace.Space
	Tables *acpi.Tables

	Scheduler *sched.Scheduler
	Cores     []*sched.Core

	Processes *proc.Table
}

// Sequence runs the fixed boot order. Physical memory, the timer
// service, the CPU facade and the ACPI reader are constructed by the
// caller and handed in (the process/VM modules do not discover
// physical memory or a SYSINFO page themselves). From there, Sequence
// constructs the kernel virtual space, then does ACPI discovery,
// per-core scheduler bring-up, and process-table construction, in
// that fixed order.
func Sequence(ctx context.Context, cfg Config, facade hal.Facade, alloc pm.Allocator, tsvc timer.Service, reader acpi.Reader) (*System, error) {
	sys := &System{Config: cfg, Facade: facade, Alloc: alloc, Timer: tsvc}

	klog.Printf("boot: stage 1/4 kernel virtual space")
	sys.Kernel = vspace.NewKernel(facade, alloc)

	klog.Printf("boot: stage 2/4 ACPI discovery")
	rsdp := make([]byte, 8)
	putLE64(rsdp, cfg.RSDPAddr)
	tables, err := acpi.NewSoftware(reader).Parse(rsdp)
	if err != nil {
		return nil, err
	}
	sys.Tables = tables

	klog.Printf("boot: stage 3/4 scheduler bring-up (%d cores)", cfg.NumCores)
	if err := sys.bringUpCores(ctx, facade, sys.Kernel); err != nil {
		return nil, err
	}

	klog.Printf("boot: stage 4/4 process table")
	sys.Processes = proc.NewTable(facade, alloc, tsvc, sys.Scheduler, sys.Kernel)

	return sys, nil
}

// bringUpCores constructs the scheduler and one sched.Core per
// requested core, matching spec.md §4.4's "per-core idle thread owned
// and never leaves the scheduler tables." Cores are independent of one
// another at construction time, so an errgroup runs them concurrently
// and barrier-joins before the next stage starts — the shape spec.md
// §9 calls out explicitly for this stage.
func (sys *System) bringUpCores(ctx context.Context, facade hal.Facade, kernel *vspace.Space) error {
	n := sys.Config.NumCores
	if n < 1 {
		n = 1
	}
	sys.Scheduler = sched.New()
	sys.Cores = make([]*sched.Core, n)

	g, _ := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			idle := sched.NewThread(defs.Tid_t(i), defs.KernelPid, 0, 0, 0, 0, 0, kernel)
			idle.State = sched.Running
			sys.Cores[i] = sched.NewCore(i, facade, sys.Scheduler, idle)
			return nil
		})
	}
	return g.Wait()
}

func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}
