package vm

// ops.go implements the sixteen LC-3 opcodes as small operation types, each exposing whichever of
// the addressable/fetchable/executable/storable stages its semantics require. exec.go drives the
// stages in order; an operation that never sets an error runs to completion.

import "fmt"

// base carries the fields every operation needs: the decoded instruction and any error raised
// partway through a stage.
type base struct {
	ir  Instruction
	err error
}

func (b *base) Decode(cpu *CPU) { b.ir = cpu.IR }
func (b *base) Fail(err error)  { b.err = err }
func (b *base) Err() error      { return b.err }
func (b *base) String() string  { return b.ir.String() }

// Builtin trap vectors used when Flags.UseRealTraps is false.
const (
	trapGETC  Word = 0x20
	trapOUT   Word = 0x21
	trapPUTS  Word = 0x22
	trapIN    Word = 0x23
	trapPUTSP Word = 0x24
	trapHALT  Word = 0x25
)

// --- ALU operations: ADD, AND, NOT --------------------------------------------------------

type add struct{ base }

func (o *add) Execute(cpu *CPU) {
	sum := Register(cpu.REG[o.ir.SR1()]) + Register(cpu.REG[o.ir.SR2()])
	cpu.REG[o.ir.DR()] = sum
	cpu.PSR.Set(sum)
}

type addImm struct{ base }

func (o *addImm) Execute(cpu *CPU) {
	sum := Register(cpu.REG[o.ir.SR1()]) + Register(o.ir.Literal(Imm5))
	cpu.REG[o.ir.DR()] = sum
	cpu.PSR.Set(sum)
}

type and struct{ base }

func (o *and) Execute(cpu *CPU) {
	res := cpu.REG[o.ir.SR1()] & cpu.REG[o.ir.SR2()]
	cpu.REG[o.ir.DR()] = res
	cpu.PSR.Set(res)
}

type andImm struct{ base }

func (o *andImm) Execute(cpu *CPU) {
	res := cpu.REG[o.ir.SR1()] & Register(o.ir.Literal(Imm5))
	cpu.REG[o.ir.DR()] = res
	cpu.PSR.Set(res)
}

type not struct{ base }

func (o *not) Execute(cpu *CPU) {
	res := ^cpu.REG[o.ir.SR1()]
	cpu.REG[o.ir.DR()] = res
	cpu.PSR.Set(res)
}

// --- Control flow: BR, JMP, JSR/JSRR -------------------------------------------------------

type br struct{ base }

func (o *br) Execute(cpu *CPU) {
	if cpu.PSR.Any(o.ir.Cond()) {
		cpu.PC += o.ir.Offset(Offset9)
	}
}

type jmp struct{ base }

func (o *jmp) Execute(cpu *CPU) {
	base := cpu.REG[o.ir.SR1()]

	if o.ir.SR1() == RETP {
		cpu.Frames.Pop() // JMP R7 is RET; close the call frame it returns from.
	}

	cpu.PC = Word(base)
}

type jsr struct{ base }

func (o *jsr) Execute(cpu *CPU) {
	ret := cpu.PC
	cpu.REG[RETP] = Register(ret)
	cpu.PC += o.ir.Offset(Offset11)
	cpu.Frames.Push(FrameJSR, ret)
}

type jsrr struct{ base }

func (o *jsrr) Execute(cpu *CPU) {
	ret := cpu.PC
	target := cpu.REG[o.ir.SR1()]
	cpu.REG[RETP] = Register(ret)
	cpu.PC = Word(target)
	cpu.Frames.Push(FrameJSR, ret)
}

// --- Memory operations: LD, LDI, LDR, LEA, ST, STI, STR --------------------------------------

type ld struct {
	base
	addr Word
	val  Word
}

func (o *ld) EvalAddress(cpu *CPU) { o.addr = cpu.PC + o.ir.Offset(Offset9) }

func (o *ld) FetchOperands(cpu *CPU) {
	v, err := cpu.Mem.Read(o.addr, cpu.accessCtx())
	if err != nil {
		o.Fail(err)
		return
	}

	o.val = v
}

func (o *ld) Execute(cpu *CPU) {
	cpu.REG[o.ir.DR()] = Register(o.val)
	cpu.PSR.Set(Register(o.val))
}

type ldi struct {
	base
	addr1, addr2 Word
	val          Word
}

func (o *ldi) EvalAddress(cpu *CPU) {
	o.addr1 = cpu.PC + o.ir.Offset(Offset9)

	addr2, err := cpu.Mem.Read(o.addr1, cpu.accessCtx())
	if err != nil {
		o.Fail(err)
		return
	}

	o.addr2 = addr2
}

func (o *ldi) FetchOperands(cpu *CPU) {
	v, err := cpu.Mem.Read(o.addr2, cpu.accessCtx())
	if err != nil {
		o.Fail(err)
		return
	}

	o.val = v
}

func (o *ldi) Execute(cpu *CPU) {
	cpu.REG[o.ir.DR()] = Register(o.val)
	cpu.PSR.Set(Register(o.val))
}

type ldr struct {
	base
	addr Word
	val  Word
}

func (o *ldr) EvalAddress(cpu *CPU) {
	o.addr = cpu.REG[o.ir.SR1()].wordAddr() + o.ir.Offset(Offset6)
}

func (o *ldr) FetchOperands(cpu *CPU) {
	v, err := cpu.Mem.Read(o.addr, cpu.accessCtx())
	if err != nil {
		o.Fail(err)
		return
	}

	o.val = v
}

func (o *ldr) Execute(cpu *CPU) {
	cpu.REG[o.ir.DR()] = Register(o.val)
	cpu.PSR.Set(Register(o.val))
}

type lea struct {
	base
	addr Word
}

func (o *lea) EvalAddress(cpu *CPU) { o.addr = cpu.PC + o.ir.Offset(Offset9) }

func (o *lea) Execute(cpu *CPU) {
	cpu.REG[o.ir.DR()] = Register(o.addr)

	if cpu.Flags.UseRealTraps {
		cpu.PSR.Set(Register(o.addr))
	}
}

type st struct {
	base
	addr Word
}

func (o *st) EvalAddress(cpu *CPU) { o.addr = cpu.PC + o.ir.Offset(Offset9) }

func (o *st) StoreResult(cpu *CPU) {
	if err := cpu.Mem.Write(o.addr, Word(cpu.REG[o.ir.SR()]), cpu.accessCtx()); err != nil {
		o.Fail(err)
	}
}

type sti struct {
	base
	addr1, addr2 Word
}

func (o *sti) EvalAddress(cpu *CPU) {
	o.addr1 = cpu.PC + o.ir.Offset(Offset9)

	addr2, err := cpu.Mem.Read(o.addr1, cpu.accessCtx())
	if err != nil {
		o.Fail(err)
		return
	}

	o.addr2 = addr2
}

func (o *sti) StoreResult(cpu *CPU) {
	if err := cpu.Mem.Write(o.addr2, Word(cpu.REG[o.ir.SR()]), cpu.accessCtx()); err != nil {
		o.Fail(err)
	}
}

type str struct {
	base
	addr Word
}

func (o *str) EvalAddress(cpu *CPU) {
	o.addr = cpu.REG[o.ir.SR1()].wordAddr() + o.ir.Offset(Offset6)
}

func (o *str) StoreResult(cpu *CPU) {
	if err := cpu.Mem.Write(o.addr, Word(cpu.REG[o.ir.SR()]), cpu.accessCtx()); err != nil {
		o.Fail(err)
	}
}

// --- Traps, interrupts, exceptions -----------------------------------------------------------

type trap struct{ base }

func (o *trap) Execute(cpu *CPU) {
	vect := o.ir.Vector(Vector8)

	if cpu.Flags.UseRealTraps {
		if err := cpu.trapVector(vect); err != nil {
			o.Fail(err)
		}

		return
	}

	if err := cpu.builtinTrap(vect); err != nil {
		o.Fail(err)
	}
}

// trapVector implements the real-trap form of TRAP: R7 := pc, pc := M[zext(trapvect8)], switching
// to supervisor (with a stack-pointer swap, when entered from user mode) the same way JSR/JSRR
// establish a call. Unlike a device interrupt or exception, TRAP never pushes PSR/PC onto the
// supervisor stack - the service routine is expected to return via RET (JMP R7), which is why R7
// holds the return address here, matching jsr/jsrr's own Execute.
func (cpu *CPU) trapVector(vect Word) error {
	ret := cpu.PC
	cpu.REG[RETP] = Register(ret)

	if cpu.PSR.Privilege() == PrivilegeUser {
		cpu.USP = cpu.REG[SP]
		cpu.REG[SP] = cpu.SSP
		cpu.PSR = cpu.PSR&^StatusPrivilege | StatusSystem
	}

	dest, err := cpu.Mem.Read(TrapVectorTableAddr+vect, SystemCtx(false))
	if err != nil {
		return fmt.Errorf("trap: %w", err)
	}

	cpu.PC = dest
	cpu.Frames.Push(FrameTrap, ret)

	return nil
}

func (cpu *CPU) builtinTrap(vect Word) error {
	switch vect {
	case trapGETC:
		b, ok := cpu.Keyboard.Blocking(func() bool { return !cpu.MCR.Running() })
		if !ok {
			cpu.MCR.Halt()
			return nil
		}

		cpu.REG[R0] = Register(b)

		return nil
	case trapIN:
		b, ok := cpu.Keyboard.Blocking(func() bool { return !cpu.MCR.Running() })
		if !ok {
			cpu.MCR.Halt()
			return nil
		}

		cpu.REG[R0] = Register(b)

		return cpu.Mem.Write(DDRAddr, Word(b), cpu.accessCtx())
	case trapOUT:
		return cpu.Mem.Write(DDRAddr, Word(cpu.REG[R0]&0x00ff), cpu.accessCtx())
	case trapPUTS:
		addr := Word(cpu.REG[R0])

		for {
			w, err := cpu.Mem.Read(addr, cpu.accessCtx())
			if err != nil {
				return err
			}

			if w == 0 {
				return nil
			}

			if err := cpu.Mem.Write(DDRAddr, w&0x00ff, cpu.accessCtx()); err != nil {
				return err
			}

			addr++
		}
	case trapPUTSP:
		addr := Word(cpu.REG[R0])

		for {
			w, err := cpu.Mem.Read(addr, cpu.accessCtx())
			if err != nil {
				return err
			}

			lo := byte(w & 0x00ff)
			hi := byte(w >> 8)

			if lo == 0 {
				return nil
			}

			if err := cpu.Mem.Write(DDRAddr, Word(lo), cpu.accessCtx()); err != nil {
				return err
			}

			if hi == 0 {
				return nil
			}

			if err := cpu.Mem.Write(DDRAddr, Word(hi), cpu.accessCtx()); err != nil {
				return err
			}

			addr++
		}
	case trapHALT:
		cpu.MCR.Halt()
		return nil
	default:
		return newSimError(IllegalOpcode, cpu.PC, fmt.Errorf("unknown builtin trap vector %s", vect))
	}
}

type rti struct{ base }

func (o *rti) Execute(cpu *CPU) {
	if err := cpu.returnFromInterrupt(); err != nil {
		o.Fail(err)
	}
}

type resv struct{ base }

func (o *resv) Decode(cpu *CPU) {
	o.base.Decode(cpu)
	o.Fail(newSimError(IllegalOpcode, cpu.PC, nil))
}

// accessCtx returns the MemCtx matching the CPU's current privilege and strictness flags.
func (cpu *CPU) accessCtx() MemCtx {
	if cpu.Flags.IgnorePrivilege {
		return MemCtx{Privileged: true, Strict: cpu.Flags.Strict}
	}

	if cpu.PSR.Privilege() == PrivilegeSystem {
		return SystemCtx(cpu.Flags.Strict)
	}

	return UserCtx(cpu.Flags.Strict)
}

// wordAddr is a small convenience so base-register arithmetic reads naturally as address math.
func (r Register) wordAddr() Word { return Word(r) }
