package vm

// loader.go imports object-file blocks into memory, and seeds the minimal embedded OS image
// (trap/interrupt vector tables) every fresh or reset machine starts with.

import (
	"errors"
	"fmt"
)

// ErrOverlapWithReserved is returned by LoadObjectFile when a block would write into the
// supervisor region without IgnorePrivilege set.
var ErrOverlapWithReserved = errors.New("vm: object block overlaps reserved system region")

// Block is one contiguous run of words with a starting address, the unit LoadObjectFile imports.
type Block struct {
	Start Word
	Words []Word
}

// LoadObjectFile writes each block's words into memory starting at its address. A block that
// falls, even partially, in the supervisor region (below UserSpaceAddr, or the I/O page) is
// rejected unless Flags.IgnorePrivilege is set.
func (cpu *CPU) LoadObjectFile(blocks []Block) error {
	for _, b := range blocks {
		if !cpu.Flags.IgnorePrivilege && blockOverlapsReserved(b) {
			return fmt.Errorf("%w: block at %s, %d words", ErrOverlapWithReserved, b.Start, len(b.Words))
		}
	}

	for _, b := range blocks {
		addr := b.Start

		for _, w := range b.Words {
			cpu.Mem.rawStore(addr, w)
			addr++
		}
	}

	return nil
}

func blockOverlapsReserved(b Block) bool {
	addr := b.Start

	for range b.Words {
		if Privileged(addr) {
			return true
		}

		addr++
	}

	return false
}

// defaultISRAddr is where every trap and interrupt vector points in the embedded OS image: a
// single instruction, RTI, which is a correct (if minimal) handler for a vectored exception or
// interrupt that carries no real service routine. The builtin trap path (Flags.UseRealTraps ==
// false) implements GETC/OUT/PUTS/IN/PUTSP/HALT directly in Go, in builtinTrap, and returns
// exceptions as errors; with UseRealTraps set, TRAP and the three exceptions land on this stub. A
// device interrupt lands on it under either setting, as long as its vector still holds this default.
const defaultISRAddr Word = 0x0200

// rtiInstruction encodes the bare RTI opcode (1000, operand bits unused).
const rtiInstruction Word = 0x8000

// loadSystemImage seeds the trap and interrupt vector tables of a freshly built CPU.
func loadSystemImage(cpu *CPU) {
	cpu.Mem.rawStore(defaultISRAddr, rtiInstruction)

	for v := Word(0); v < 256; v++ {
		cpu.Mem.rawStore(TrapVectorTableAddr+v, defaultISRAddr)
		cpu.Mem.rawStore(InterruptVectorTableAddr+v, defaultISRAddr)
	}
}
