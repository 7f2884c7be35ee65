package vm

// exec.go drives the fetch/decode/execute cycle: one operation per call to StepIn, five optional
// stages per operation, timer and interrupt bookkeeping after each instruction, and the
// step-over/step-out helpers the execution controller uses to skip across calls.

import (
	"errors"
	"fmt"
)

// ErrHalted is returned by StepIn when called while the machine control register is already
// clear.
var ErrHalted = errors.New("vm: halted")

// operation represents an instruction as it moves through the execute pipeline. Each opcode
// implements the subset of addressable/fetchable/executable/storable its semantics require.
type operation interface {
	Decode(cpu *CPU)
	Fail(err error)
	Err() error
	fmt.Stringer
}

type addressable interface {
	operation
	EvalAddress(cpu *CPU)
}

type fetchable interface {
	addressable
	FetchOperands(cpu *CPU)
}

type executable interface {
	operation
	Execute(cpu *CPU)
}

type storable interface {
	addressable
	StoreResult(cpu *CPU)
}

// decode builds the operation matching the CPU's freshly fetched instruction register.
func (cpu *CPU) decode() operation {
	var op operation

	switch cpu.IR.Opcode() {
	case BR:
		op = &br{}
	case ADD:
		if cpu.IR.Imm() {
			op = &addImm{}
		} else {
			op = &add{}
		}
	case LD:
		op = &ld{}
	case ST:
		op = &st{}
	case JSR:
		if cpu.IR.Relative() {
			op = &jsr{}
		} else {
			op = &jsrr{}
		}
	case AND:
		if cpu.IR.Imm() {
			op = &andImm{}
		} else {
			op = &and{}
		}
	case LDR:
		op = &ldr{}
	case STR:
		op = &str{}
	case RTI:
		op = &rti{}
	case NOT:
		op = &not{}
	case LDI:
		op = &ldi{}
	case STI:
		op = &sti{}
	case JMP:
		op = &jmp{}
	case LEA:
		op = &lea{}
	case TRAP:
		op = &trap{}
	case RESV:
		fallthrough
	default:
		op = &resv{}
	}

	op.Decode(cpu)

	return op
}

func (cpu *CPU) runStages(op operation) {
	if a, ok := op.(addressable); ok && op.Err() == nil {
		a.EvalAddress(cpu)
	}

	if f, ok := op.(fetchable); ok && op.Err() == nil {
		f.FetchOperands(cpu)
	}

	if e, ok := op.(executable); ok && op.Err() == nil {
		e.Execute(cpu)
	}

	if s, ok := op.(storable); ok && op.Err() == nil {
		s.StoreResult(cpu)
	}
}

// StepIn fetches, decodes, and executes exactly one instruction, then runs the per-instruction
// bookkeeping: timer countdown, interrupt dispatch, and breakpoint evaluation.
func (cpu *CPU) StepIn() error {
	if !cpu.MCR.Running() {
		return ErrHalted
	}

	prefetchPC := cpu.PC

	word, err := cpu.Mem.Read(cpu.PC, cpu.accessCtx())
	if err != nil {
		return cpu.handleOpError(wrapFetchErr(err, prefetchPC))
	}

	cpu.IR = Instruction(word)
	cpu.PC++

	op := cpu.decode()
	cpu.runStages(op)

	if err := op.Err(); err != nil {
		if err := cpu.handleOpError(cpu.classifyOpError(err)); err != nil {
			cpu.log.Error("instruction error", "op", op, "err", err)
			return err
		}
	} else {
		cpu.log.Debug("executed instruction", "op", op)
	}

	cpu.Timer.Tick()

	if err := cpu.serviceDeviceInterrupts(); err != nil {
		return err
	}

	_, cpu.HitBP = cpu.Breakpoints[cpu.PC]

	return nil
}

// wrapFetchErr attaches the prefetch PC to a fetch-time memory error, classifying it as an
// AccessViolation per the simulation error kinds.
func wrapFetchErr(err error, prefetchPC Word) error {
	return newSimError(AccessViolation, prefetchPC, err)
}

// classifyOpError wraps a data-access MemoryError raised mid-instruction (by a load or store
// stage reading/writing an operand address) into the same SimError shape fetch-time errors
// already use, so handleOpError's switch on SimErrKind - and UseRealTraps vectoring - applies
// uniformly regardless of which stage caught the violation. Errors already classified, such as
// decode-time IllegalOpcode/PrivilegedInstruction, pass through unchanged.
func (cpu *CPU) classifyOpError(err error) error {
	var se *SimError
	if errors.As(err, &se) {
		return err
	}

	if errors.Is(err, ErrAccessControl) {
		return newSimError(AccessViolation, cpu.PC, err)
	}

	return err
}

// handleOpError classifies an operation's error. Under UseRealTraps, the three vectorable
// exceptions are serviced by the machine's own exception table instead of being returned, unless
// PauseOnFatalTrap asks the run loop to stop right after vectoring.
func (cpu *CPU) handleOpError(err error) error {
	var se *SimError
	if !errors.As(err, &se) {
		return err
	}

	switch se.Kind {
	case IllegalOpcode, PrivilegedInstruction, AccessViolation:
		if cpu.Flags.UseRealTraps {
			if vErr := cpu.raiseException(exceptionVect(se.Kind)); vErr != nil {
				return vErr
			}

			if cpu.Flags.PauseOnFatalTrap {
				cpu.MCR.Halt()
			}

			return nil
		}

		return se
	default:
		return se
	}
}

func exceptionVect(kind SimErrKind) Word {
	switch kind {
	case PrivilegedInstruction:
		return PrivilegeViolationVect
	case AccessViolation:
		return AccessViolationVect
	default:
		return IllegalOpcodeVect
	}
}

// Run single-steps until the machine halts (MCR clears), a breakpoint is hit, or a fatal error is
// raised.
func (cpu *CPU) Run() error {
	for {
		err := cpu.StepIn()

		switch {
		case errors.Is(err, ErrHalted):
			return nil
		case err != nil:
			return err
		case cpu.HitBP:
			return nil
		case !cpu.MCR.Running():
			return nil
		}
	}
}

// StepOver runs one instruction; if it was a call (JSR/JSRR/TRAP under real traps), it continues
// running until the frame stack returns to its pre-call depth, a breakpoint fires, or MCR clears.
func (cpu *CPU) StepOver() error {
	depth := cpu.Frames.Len()

	if err := cpu.StepIn(); err != nil {
		if errors.Is(err, ErrHalted) {
			return nil
		}

		return err
	}

	if cpu.Frames.Len() <= depth || cpu.HitBP || !cpu.MCR.Running() {
		return nil
	}

	for cpu.Frames.Len() > depth {
		err := cpu.StepIn()

		switch {
		case errors.Is(err, ErrHalted):
			return nil
		case err != nil:
			return err
		case cpu.HitBP, !cpu.MCR.Running():
			return nil
		}
	}

	return nil
}

// StepOut runs until the current frame returns, a breakpoint fires, or MCR clears.
func (cpu *CPU) StepOut() error {
	if cpu.Frames.Len() == 0 {
		return cpu.StepIn()
	}

	depth := cpu.Frames.Len() - 1

	for cpu.Frames.Len() > depth {
		err := cpu.StepIn()

		switch {
		case errors.Is(err, ErrHalted):
			return nil
		case err != nil:
			return err
		case cpu.HitBP, !cpu.MCR.Running():
			return nil
		}
	}

	return nil
}
