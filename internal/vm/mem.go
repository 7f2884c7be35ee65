package vm

// mem.go is the machine's memory controller: address decoding, MMIO dispatch, privilege
// checking, and the per-step observer used to drive incremental debug-index updates.

import (
	"errors"
	"fmt"

	"github.com/patt3/lc3core/internal/log"
)

// Address space regions. Each begins at the given address and runs up to the next region.
const (
	ServiceRoutineAddr Word = 0x0000 // Trap service routine table and code.
	SystemSpaceAddr    Word = 0x0200 // Supervisor-only code and data.
	UserSpaceAddr      Word = 0x3000 // User programs load here by convention.
	IOPageAddr         Word = 0xfe00 // Memory-mapped device registers live above this address.
	AddrSpace          Word = 0xffff // Top of the 16-bit logical address space.
)

// MemCtx carries the access-control and diagnostic policy for a single memory operation.
type MemCtx struct {
	// Privileged is true when the accessor runs with supervisor privilege.
	Privileged bool

	// Strict causes a read of a never-initialized cell to be reported to the observer as an
	// AccessEvent with Uninit set; the read itself still succeeds.
	Strict bool

	// Omnipotent bypasses privilege and strict checks entirely; used by host inspection and by
	// controller bookkeeping that must see the "real" value regardless of current mode.
	Omnipotent bool
}

// UserCtx returns the access context for ordinary user-mode execution.
func UserCtx(strict bool) MemCtx { return MemCtx{Strict: strict} }

// SystemCtx returns the access context for supervisor-mode execution.
func SystemCtx(strict bool) MemCtx { return MemCtx{Privileged: true, Strict: strict} }

// OmnipotentCtx returns the access context used for host inspection and mutation while the
// simulator is idle.
func OmnipotentCtx() MemCtx { return MemCtx{Omnipotent: true} }

// AccessEvent records a single read or write performed through Memory, for the simulator's
// per-step observer.
type AccessEvent struct {
	Addr     Word
	Write    bool
	Modified bool

	// Uninit is set when a strict-mode read found the cell never written. It is a diagnostic, not
	// a fault: the read still returns the cell's zero value and execution continues.
	Uninit bool
}

// Memory is the machine's 64K word address space, dispatching memory-mapped addresses to the
// device bus and enforcing supervisor-only regions for everything else.
type Memory struct {
	cells   [int(AddrSpace) + 1]Cell
	Devices *DeviceBus

	observer *Observer

	log *log.Logger
}

// NewMemory creates an empty memory controller wired to bus.
func NewMemory(bus *DeviceBus, observer *Observer) *Memory {
	return &Memory{
		Devices:  bus,
		observer: observer,
		log:      log.DefaultLogger(),
	}
}

// Privileged reports whether addr falls in a region that requires supervisor privilege to
// access: the system space below UserSpaceAddr, or the I/O page.
func Privileged(addr Word) bool {
	return addr < UserSpaceAddr || addr >= IOPageAddr
}

// Read loads the word at addr, dispatching to the device bus for memory-mapped addresses.
func (mem *Memory) Read(addr Word, ctx MemCtx) (Word, error) {
	if dev, ok := mem.Devices.lookup(addr); ok {
		val, err := dev.Read(addr)
		mem.record(addr, false, false)

		if err != nil {
			return 0, fmt.Errorf("mem: read %s: %w", addr, err)
		}

		return val, nil
	}

	if !ctx.Omnipotent && !ctx.Privileged && Privileged(addr) {
		return 0, &MemoryError{Addr: addr, Err: ErrAccessControl}
	}

	cell := mem.cells[addr]
	uninit := ctx.Strict && !ctx.Omnipotent && !cell.IsInit()

	if mem.observer != nil {
		mem.observer.record(AccessEvent{Addr: addr, Uninit: uninit})
	}

	val, _ := cell.Get()

	return val, nil
}

// Write stores val at addr, dispatching to the device bus for memory-mapped addresses.
func (mem *Memory) Write(addr Word, val Word, ctx MemCtx) error {
	if dev, ok := mem.Devices.lookup(addr); ok {
		effect, err := dev.Write(addr, val)
		mem.record(addr, true, true)

		if err != nil {
			return fmt.Errorf("mem: write %s: %w", addr, err)
		}

		mem.Devices.applyEffect(dev, effect)

		return nil
	}

	if !ctx.Omnipotent && !ctx.Privileged && Privileged(addr) {
		return &MemoryError{Addr: addr, Err: ErrAccessControl}
	}

	mem.cells[addr].Set(val)
	mem.record(addr, true, true)

	return nil
}

// rawLoad reads a cell's raw value and whether it was ever written, bypassing devices, access
// control, and the observer.
func (mem *Memory) rawLoad(addr Word) (Word, bool) {
	return mem.cells[addr].Get()
}

// rawStore writes a cell's raw value, bypassing devices, access control, and the observer. Used
// by the loader and by system-image setup, neither of which are user-visible steps.
func (mem *Memory) rawStore(addr Word, val Word) {
	mem.cells[addr].Set(val)
}

// reset clears every cell to uninitialized, or to a fixed fill value, per seedFn.
func (mem *Memory) reset(seedFn func(addr Word) (Word, bool)) {
	for addr := 0; addr <= int(AddrSpace); addr++ {
		val, seeded := seedFn(Word(addr))

		if seeded {
			mem.cells[addr] = NewInitCell(val)
		} else {
			mem.cells[addr] = NewUninitCell()
		}
	}
}

func (mem *Memory) record(addr Word, write, modified bool) {
	if mem.observer != nil {
		mem.observer.record(AccessEvent{Addr: addr, Write: write, Modified: modified})
	}
}

// MemoryError reports the address at which a memory access failed.
type MemoryError struct {
	Addr Word
	Err  error
}

func (me *MemoryError) Error() string {
	return fmt.Sprintf("mem: %s: %s", me.Addr, me.Err)
}

func (me *MemoryError) Unwrap() error { return me.Err }

func (me *MemoryError) Is(target error) bool {
	return errors.Is(me.Err, target)
}

// Sentinel memory errors. MemoryError wraps one of these with the offending address.
var (
	ErrMemory        = errors.New("memory error")
	ErrAccessControl = fmt.Errorf("%w: access violation", ErrMemory)
	ErrStrictUninit  = fmt.Errorf("%w: read of uninitialized memory", ErrMemory)
)
