package vm

// machine.go assembles the CPU from its parts: registers, memory, devices, and the
// bookkeeping (breakpoints, frame stack, observer) the execution controller and host rely on.

import (
	"fmt"

	"github.com/patt3/lc3core/internal/log"
)

// Vector table base addresses.
const (
	TrapVectorTableAddr     Word = 0x0000
	InterruptVectorTableAddr Word = 0x0100
)

// Exception vectors, serviced like any other interrupt.
const (
	PrivilegeViolationVect Word = 0x00
	IllegalOpcodeVect      Word = 0x01
	AccessViolationVect    Word = 0x02
)

// MachineInitKind selects how newly reset memory is seeded.
type MachineInitKind uint8

const (
	// Unseeded leaves every cell uninitialized.
	Unseeded MachineInitKind = iota
	// Known fills every cell with a fixed value.
	Known
	// Seeded fills every cell from a deterministic pseudo-random sequence, for reproducible
	// fuzzing of uninitialized-memory handling.
	Seeded
)

// MachineInit configures memory seeding on reset.
type MachineInit struct {
	Kind  MachineInitKind
	Value Word  // used when Kind == Known
	Seed  int64 // used when Kind == Seeded
}

// Flags control optional machine behavior.
type Flags struct {
	// IgnorePrivilege disables the supervisor-region access check entirely.
	IgnorePrivilege bool

	// UseRealTraps routes TRAP through the vectored service-routine table instead of an
	// in-process builtin implementation, and routes LEA's NZP update accordingly.
	UseRealTraps bool

	// Strict causes reads of never-written memory to be reported as a diagnostic.
	Strict bool

	// PauseOnFatalTrap, when UseRealTraps is set, clears MCR immediately after vectoring a fatal
	// exception instead of letting the machine's own handler run. It is the logical inverse of
	// UseRealTraps at the host API (setPauseOnFatalTrap), but kept as its own flag since a real-trap
	// machine may still want the vectored handler to run to completion.
	PauseOnFatalTrap bool

	Init MachineInit
}

// CPU is the simulated LC-3 processor: registers, memory, devices, and the extra bookkeeping
// (breakpoints, frame stack, observer) the debugger surface needs.
type CPU struct {
	PC  Word
	IR  Instruction
	PSR ProcessorStatus
	MCR *ControlRegister
	USP Register
	SSP Register
	REG RegisterFile

	Mem      *Memory
	Devices  *DeviceBus
	Keyboard *Keyboard
	Display  *Display
	Timer    *Timer

	Flags       Flags
	Breakpoints map[Word]struct{}
	HitBP       bool
	Frames      FrameStack
	Observer    *Observer

	log *log.Logger
}

// New creates and initializes a CPU: registers, memory, the default device set, and the embedded
// OS image of trap/interrupt vectors.
func New(flags Flags) *CPU {
	cpu := &CPU{
		Flags:       flags,
		Breakpoints: make(map[Word]struct{}),
		Observer:    NewObserver(),
		log:         log.DefaultLogger(),
	}

	cpu.build()

	return cpu
}

// build (re)creates memory and devices and seeds them, without touching Breakpoints - used by
// both New and Reset so breakpoints survive a reset.
func (cpu *CPU) build() {
	cpu.MCR = NewControlRegister()
	cpu.Devices = NewDeviceBus()
	cpu.Keyboard = NewKeyboard(0x80, PriorityNormal)
	cpu.Display = NewDisplay()

	seed := cpu.Flags.Init.Seed
	if seed == 0 {
		seed = 1
	}

	cpu.Timer = NewTimer(seed)

	cpu.Mem = NewMemory(cpu.Devices, cpu.Observer)

	if err := cpu.Devices.Map(cpu.Keyboard); err != nil {
		panic(err)
	}

	if err := cpu.Devices.Map(cpu.Display); err != nil {
		panic(err)
	}

	if err := cpu.Devices.Map(cpu.Timer); err != nil {
		panic(err)
	}

	if err := cpu.Devices.Map(&mcrDevice{cpu.MCR}); err != nil {
		panic(err)
	}

	if err := cpu.Devices.Map(&psrDevice{cpu}); err != nil {
		panic(err)
	}

	cpu.Mem.reset(cpu.seedFn())

	// Z is set on power-on, matching real LC-3 hardware: a freshly reset machine always has
	// exactly one condition bit set, so a BRnzp at the very first instruction (common in
	// bootstrap loops) branches without requiring a prior ALU instruction.
	cpu.PSR = StatusSystem | StatusLow | StatusZero
	cpu.SSP = Register(UserSpaceAddr)
	cpu.USP = Register(IOPageAddr)
	cpu.REG = RegisterFile{}
	cpu.REG[SP] = cpu.SSP
	cpu.PC = Word(UserSpaceAddr)
	cpu.Frames = nil
	cpu.HitBP = false

	loadSystemImage(cpu)

	cpu.PSR = cpu.PSR&^StatusPrivilege | StatusUser
	cpu.REG[SP] = cpu.USP
}

func (cpu *CPU) seedFn() func(Word) (Word, bool) {
	switch cpu.Flags.Init.Kind {
	case Known:
		v := cpu.Flags.Init.Value
		return func(Word) (Word, bool) { return v, true }
	case Seeded:
		rng := newLCG(cpu.Flags.Init.Seed)
		return func(Word) (Word, bool) { return Word(rng()), true }
	default:
		return func(Word) (Word, bool) { return 0, false }
	}
}

// newLCG returns a tiny linear-congruential generator seeded deterministically, so Seeded
// initialization is reproducible without pulling in math/rand state across a 64K fill.
func newLCG(seed int64) func() uint32 {
	state := uint32(seed)
	if state == 0 {
		state = 1
	}

	return func() uint32 {
		state = state*1664525 + 1013904223
		return state >> 16
	}
}

// Reset restores the machine per Flags.Init, reloads the system image, clears registers, PSR, and
// the frame stack, resets devices, and rebinds the device bus - but preserves Breakpoints.
func (cpu *CPU) Reset() {
	cpu.build()
}

func (cpu *CPU) String() string {
	return fmt.Sprintf("PC: %s IR: %s\nPSR: %s\nUSP: %s SSP: %s MCR: %s",
		cpu.PC, cpu.IR, cpu.PSR, cpu.USP, cpu.SSP, cpu.MCR)
}

// mcrDevice adapts ControlRegister to the Device interface so MCR is reachable through ordinary
// memory-mapped reads/writes per the MMIO address list, bypassing the privileged-region check
// that would otherwise apply to its address in the I/O page.
type mcrDevice struct{ mcr *ControlRegister }

func (d *mcrDevice) Addrs() []Word { return []Word{MCRAddr} }

func (d *mcrDevice) Read(Word) (Word, error) { return Word(d.mcr.Get()), nil }

func (d *mcrDevice) Write(_ Word, val Word) (WriteEffect, error) {
	was := d.mcr.Running()
	d.mcr.Put(Register(val))

	if was && !d.mcr.Running() {
		return EffectInterruptCleared, nil
	}

	return EffectNone, nil
}

func (d *mcrDevice) PollInterrupt() (Word, Priority, bool) { return 0, 0, false }

func (d *mcrDevice) Reset() { d.mcr.Reset() }

// MCRAddr is the Master Control Register's memory-mapped address.
const MCRAddr Word = 0xfffe

// psrDevice adapts the CPU's ProcessorStatus to the Device interface, per the same rationale as
// mcrDevice.
type psrDevice struct{ cpu *CPU }

func (d *psrDevice) Addrs() []Word { return []Word{PSRAddr} }

func (d *psrDevice) Read(Word) (Word, error) { return Word(d.cpu.PSR.Get()), nil }

func (d *psrDevice) Write(_ Word, val Word) (WriteEffect, error) {
	d.cpu.PSR.Put(Register(val))
	return EffectNone, nil
}

func (d *psrDevice) PollInterrupt() (Word, Priority, bool) { return 0, 0, false }

func (d *psrDevice) Reset() {}

// PSRAddr is the Processor Status Register's memory-mapped address.
const PSRAddr Word = 0xfffc
