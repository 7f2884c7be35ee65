// Package image maintains the host-facing object image cache: the address-to-display-string map
// the disassembly pane reads, plus the label/address source-range lookups that back it.
package image

import (
	"fmt"

	"github.com/patt3/lc3core/internal/vm"
)

// Disassemble renders word as an assembly mnemonic line, the fallback text used once a cell has
// been overwritten at runtime and its original source line no longer applies.
func Disassemble(word vm.Word) (string, bool) {
	ir := vm.Instruction(word)

	switch ir.Opcode() {
	case vm.ADD, vm.AND:
		op := "ADD"
		if ir.Opcode() == vm.AND {
			op = "AND"
		}

		if ir.Imm() {
			return fmt.Sprintf("%s %s, %s, #%d", op, ir.DR(), ir.SR1(), int16(ir.Literal(vm.Imm5))), true
		}

		return fmt.Sprintf("%s %s, %s, %s", op, ir.DR(), ir.SR1(), ir.SR2()), true
	case vm.NOT:
		return fmt.Sprintf("NOT %s, %s", ir.DR(), ir.SR1()), true
	case vm.BR:
		return fmt.Sprintf("BR%s #%d", condSuffix(ir.Cond()), int16(ir.Offset(vm.Offset9))), true
	case vm.JMP:
		if ir.SR1() == vm.RETP {
			return "RET", true
		}

		return fmt.Sprintf("JMP %s", ir.SR1()), true
	case vm.JSR:
		if ir.Relative() {
			return fmt.Sprintf("JSR #%d", int16(ir.Offset(vm.Offset11))), true
		}

		return fmt.Sprintf("JSRR %s", ir.SR1()), true
	case vm.LD:
		return fmt.Sprintf("LD %s, #%d", ir.DR(), int16(ir.Offset(vm.Offset9))), true
	case vm.LDI:
		return fmt.Sprintf("LDI %s, #%d", ir.DR(), int16(ir.Offset(vm.Offset9))), true
	case vm.LDR:
		return fmt.Sprintf("LDR %s, %s, #%d", ir.DR(), ir.SR1(), int16(ir.Offset(vm.Offset6))), true
	case vm.LEA:
		return fmt.Sprintf("LEA %s, #%d", ir.DR(), int16(ir.Offset(vm.Offset9))), true
	case vm.ST:
		return fmt.Sprintf("ST %s, #%d", ir.SR(), int16(ir.Offset(vm.Offset9))), true
	case vm.STI:
		return fmt.Sprintf("STI %s, #%d", ir.SR(), int16(ir.Offset(vm.Offset9))), true
	case vm.STR:
		return fmt.Sprintf("STR %s, %s, #%d", ir.SR(), ir.SR1(), int16(ir.Offset(vm.Offset6))), true
	case vm.TRAP:
		return fmt.Sprintf("TRAP x%02X", uint8(ir.Vector(vm.Vector8))), true
	case vm.RTI:
		return "RTI", true
	default:
		return "", false
	}
}

func condSuffix(c vm.Condition) string {
	s := ""

	if c.Negative() {
		s += "n"
	}

	if c.Zero() {
		s += "z"
	}

	if c.Positive() {
		s += "p"
	}

	return s
}
