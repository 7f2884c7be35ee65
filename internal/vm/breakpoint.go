package vm

// breakpoint.go implements the PC breakpoint set. The spec reserves room for other breakpoint
// kinds but defines none; Breakpoints is keyed on address, addressed only via PC for now.

import "sort"

// SetBreakpoint installs a breakpoint at addr. It reports whether the breakpoint was newly
// inserted (false if one was already there).
func (cpu *CPU) SetBreakpoint(addr Word) bool {
	if _, ok := cpu.Breakpoints[addr]; ok {
		return false
	}

	cpu.Breakpoints[addr] = struct{}{}

	return true
}

// RemoveBreakpoint removes the breakpoint at addr, reporting whether one was present.
func (cpu *CPU) RemoveBreakpoint(addr Word) bool {
	if _, ok := cpu.Breakpoints[addr]; !ok {
		return false
	}

	delete(cpu.Breakpoints, addr)

	return true
}

// ListBreakpoints returns every breakpoint address, ascending.
func (cpu *CPU) ListBreakpoints() []Word {
	addrs := make([]Word, 0, len(cpu.Breakpoints))
	for addr := range cpu.Breakpoints {
		addrs = append(addrs, addr)
	}

	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	return addrs
}

// DidHitBreakpoint reports whether the most recent StepIn/Run/StepOver/StepOut call landed on PC
// with a breakpoint installed.
func (cpu *CPU) DidHitBreakpoint() bool { return cpu.HitBP }

// FrameNumber reports the current call depth, for the host's stack-depth display.
func (cpu *CPU) FrameNumber() int { return cpu.Frames.Len() }
