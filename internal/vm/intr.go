package vm

// intr.go implements interrupt and exception dispatch: saving the interrupted context on the
// supervisor stack, switching to supervisor priority, and vectoring through the trap/interrupt
// tables.

import "fmt"

// serviceDeviceInterrupts polls the bus for its highest-priority pending interrupt and, if its
// priority exceeds the CPU's current priority, vectors to its service routine. It is called once
// per instruction, after Execute, per the fetch/decode/execute cycle.
func (cpu *CPU) serviceDeviceInterrupts() error {
	dev, vect, priority, pending := cpu.Devices.pollInterrupts()
	if !pending || priority <= cpu.PSR.Priority() {
		return nil
	}

	if err := cpu.vector(InterruptVectorTableAddr+vect, priority); err != nil {
		return fmt.Errorf("intr: %w", err)
	}

	cpu.Devices.AckInterrupt(dev)

	return nil
}

// raiseException vectors through the interrupt/exception vector table at the given 8-bit vector, preserving
// the current priority rather than raising it - exceptions are serviced regardless of PSR
// priority, unlike maskable device interrupts.
func (cpu *CPU) raiseException(vect Word) error {
	return cpu.vector(InterruptVectorTableAddr+vect, cpu.PSR.Priority())
}

// vector performs the common context-save and jump shared by device interrupts and exceptions:
// push PSR then PC onto the (possibly just-switched-to) supervisor stack, enter supervisor mode at
// the given priority, and load PC from the word stored at the vector table address. Neither device
// interrupts nor exceptions push a call frame: frame tracking exists for step_over/step_out, which
// are defined in terms of JSR/JSRR/TRAP call depth only, not asynchronous vectoring.
func (cpu *CPU) vector(tableAddr Word, priority Priority) error {
	oldPC, oldPSR := cpu.PC, cpu.PSR

	if cpu.PSR.Privilege() == PrivilegeUser {
		cpu.USP = cpu.REG[SP]
		cpu.REG[SP] = cpu.SSP
	}

	if err := cpu.pushWord(Word(oldPSR.Get())); err != nil {
		return err
	}

	if err := cpu.pushWord(oldPC); err != nil {
		return err
	}

	cpu.PSR = cpu.PSR&^StatusPrivilege | StatusSystem
	cpu.PSR = cpu.PSR&^StatusPriority | ProcessorStatus(priority)<<8

	dest, err := cpu.Mem.Read(tableAddr, SystemCtx(false))
	if err != nil {
		return fmt.Errorf("vector: %w", err)
	}

	cpu.PC = dest

	return nil
}

// pushWord pushes w onto the current stack, using the supervisor-privileged access context since
// interrupt/trap bookkeeping always runs with system privileges by this point.
func (cpu *CPU) pushWord(w Word) error {
	cpu.REG[SP]--
	return cpu.Mem.Write(Word(cpu.REG[SP]), w, SystemCtx(false))
}

// popWord pops the top of the current stack.
func (cpu *CPU) popWord() (Word, error) {
	v, err := cpu.Mem.Read(Word(cpu.REG[SP]), SystemCtx(false))
	if err != nil {
		return 0, err
	}

	cpu.REG[SP]++

	return v, nil
}

// returnFromInterrupt implements RTI: pop PC then PSR, restoring the interrupted stack pointer and
// closing the call frame only when the return actually crosses back from supervisor to user mode. A
// supervisor-to-supervisor RTI (a nested ISR chaining onward) never pushed a frame for the jump it's
// unwinding here, so it must not pop one either.
func (cpu *CPU) returnFromInterrupt() error {
	if cpu.PSR.Privilege() == PrivilegeUser {
		return newSimError(PrivilegedInstruction, cpu.PC, nil)
	}

	pc, err := cpu.popWord()
	if err != nil {
		return err
	}

	psrWord, err := cpu.popWord()
	if err != nil {
		return err
	}

	cpu.PC = pc
	oldPrivilege := cpu.PSR.Privilege()
	cpu.PSR.Put(Register(psrWord))

	if oldPrivilege == PrivilegeSystem && cpu.PSR.Privilege() == PrivilegeUser {
		cpu.SSP = cpu.REG[SP]
		cpu.REG[SP] = cpu.USP
		cpu.Frames.Pop()
	}

	return nil
}
