package objfile

// ops.go is pass two of the assembler: turns a parsed stmt plus a resolved symbol table into the
// 16-bit word it assembles to. One generate function per mnemonic family, table-dispatched, in
// place of the teacher's one-struct-per-opcode Instruction hierarchy - a deliberate simplification
// recorded in DESIGN.md, since operand syntax (not opcode behavior) is all pass two needs to know.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/patt3/lc3core/internal/vm"
)

type generator func(s stmt, symtab *SymbolTable) (vm.Word, error)

var generators = map[string]generator{
	"ADD":  genALU(0x1),
	"AND":  genALU(0x5),
	"NOT":  genNot,
	"BR":   genBranch(0x7),
	"BRN":  genBranch(0x4),
	"BRZ":  genBranch(0x2),
	"BRP":  genBranch(0x1),
	"BRNZ": genBranch(0x6),
	"BRNP": genBranch(0x5),
	"BRZP": genBranch(0x3),
	"BRNZP": genBranch(0x7),
	"JMP":  genJmp,
	"RET":  genRet,
	"JSR":  genJsr,
	"JSRR": genJsrr,
	"LD":   genPCOffset(0x2),
	"LDI":  genPCOffset(0xa),
	"LEA":  genPCOffset(0xe),
	"ST":   genPCOffset(0x3),
	"STI":  genPCOffset(0xb),
	"LDR":  genBaseOffset(0x6),
	"STR":  genBaseOffset(0x7),
	"TRAP": genTrap,
	"RTI":  genFixed(0x8000),
	"GETC": genTrapAlias(0x20),
	"OUT":  genTrapAlias(0x21),
	"PUTS": genTrapAlias(0x22),
	"IN":   genTrapAlias(0x23),
	"PUTSP": genTrapAlias(0x24),
	"HALT": genTrapAlias(0x25),
	".FILL": genFill,
}

// Generate assembles one statement into a word. It is exported for gen.go's pass-two loop.
func Generate(s stmt, symtab *SymbolTable) (vm.Word, error) {
	gen, ok := generators[s.Mnemonic]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a known opcode or directive", ErrOpcode, s.Mnemonic)
	}

	return gen(s, symtab)
}

func genFixed(word vm.Word) generator {
	return func(s stmt, _ *SymbolTable) (vm.Word, error) { return word, nil }
}

func genTrapAlias(vect vm.Word) generator {
	return func(s stmt, _ *SymbolTable) (vm.Word, error) {
		return 0xf000 | vect, nil
	}
}

func genTrap(s stmt, _ *SymbolTable) (vm.Word, error) {
	if len(s.Operands) != 1 {
		return 0, &RegisterError{Op: "TRAP", Arg: "(missing vector)"}
	}

	vect, err := parseNumericLiteral(s.Operands[0])
	if err != nil {
		return 0, err
	}

	if vect > 0xff {
		return 0, &LiteralRangeError{Literal: s.Operands[0], Bits: 8}
	}

	return 0xf000 | vect, nil
}

func genFill(s stmt, symtab *SymbolTable) (vm.Word, error) {
	arg := s.Operands[0]

	if v, err := parseNumericLiteral(arg); err == nil {
		return v, nil
	}

	if addr, ok := symtab.Lookup(arg); ok {
		return addr, nil
	}

	symtab.MarkExternal(arg)

	return 0, &SymbolError{Symbol: arg, Addr: s.Addr}
}

func genALU(opbits vm.Word) generator {
	return func(s stmt, _ *SymbolTable) (vm.Word, error) {
		if len(s.Operands) != 3 {
			return 0, &RegisterError{Op: s.Mnemonic, Arg: "(need DR, SR1, SR2|imm5)"}
		}

		dr, err := parseRegister(s.Mnemonic, s.Operands[0])
		if err != nil {
			return 0, err
		}

		sr1, err := parseRegister(s.Mnemonic, s.Operands[1])
		if err != nil {
			return 0, err
		}

		word := opbits<<12 | dr<<9 | sr1<<6

		if sr2, err := parseRegister(s.Mnemonic, s.Operands[2]); err == nil {
			return word | sr2, nil
		}

		imm, err := parseImmediate(s.Operands[2], 5)
		if err != nil {
			return 0, err
		}

		return word | 1<<5 | imm&0x1f, nil
	}
}

func genNot(s stmt, _ *SymbolTable) (vm.Word, error) {
	if len(s.Operands) != 2 {
		return 0, &RegisterError{Op: "NOT", Arg: "(need DR, SR)"}
	}

	dr, err := parseRegister("NOT", s.Operands[0])
	if err != nil {
		return 0, err
	}

	sr, err := parseRegister("NOT", s.Operands[1])
	if err != nil {
		return 0, err
	}

	return 0x9<<12 | dr<<9 | sr<<6 | 0x3f, nil
}

func genBranch(cond vm.Word) generator {
	return func(s stmt, symtab *SymbolTable) (vm.Word, error) {
		if len(s.Operands) != 1 {
			return 0, &RegisterError{Op: "BR", Arg: "(need LABEL)"}
		}

		off, err := pcOffset(s, symtab, s.Operands[0], 9)
		if err != nil {
			return 0, err
		}

		return cond<<9 | off&0x1ff, nil
	}
}

func genJmp(s stmt, _ *SymbolTable) (vm.Word, error) {
	if len(s.Operands) != 1 {
		return 0, &RegisterError{Op: "JMP", Arg: "(need BaseR)"}
	}

	base, err := parseRegister("JMP", s.Operands[0])
	if err != nil {
		return 0, err
	}

	return 0xc<<12 | base<<6, nil
}

func genRet(s stmt, _ *SymbolTable) (vm.Word, error) { return 0xc<<12 | 7<<6, nil }

func genJsr(s stmt, symtab *SymbolTable) (vm.Word, error) {
	if len(s.Operands) != 1 {
		return 0, &RegisterError{Op: "JSR", Arg: "(need LABEL)"}
	}

	off, err := pcOffset(s, symtab, s.Operands[0], 11)
	if err != nil {
		return 0, err
	}

	return 0x4<<12 | 1<<11 | off&0x7ff, nil
}

func genJsrr(s stmt, _ *SymbolTable) (vm.Word, error) {
	if len(s.Operands) != 1 {
		return 0, &RegisterError{Op: "JSRR", Arg: "(need BaseR)"}
	}

	base, err := parseRegister("JSRR", s.Operands[0])
	if err != nil {
		return 0, err
	}

	return 0x4<<12 | base<<6, nil
}

func genPCOffset(opbits vm.Word) generator {
	return func(s stmt, symtab *SymbolTable) (vm.Word, error) {
		if len(s.Operands) != 2 {
			return 0, &RegisterError{Op: s.Mnemonic, Arg: "(need DR/SR, LABEL)"}
		}

		dr, err := parseRegister(s.Mnemonic, s.Operands[0])
		if err != nil {
			return 0, err
		}

		off, err := pcOffset(s, symtab, s.Operands[1], 9)
		if err != nil {
			return 0, err
		}

		return opbits<<12 | dr<<9 | off&0x1ff, nil
	}
}

func genBaseOffset(opbits vm.Word) generator {
	return func(s stmt, _ *SymbolTable) (vm.Word, error) {
		if len(s.Operands) != 3 {
			return 0, &RegisterError{Op: s.Mnemonic, Arg: "(need DR/SR, BaseR, offset6)"}
		}

		dr, err := parseRegister(s.Mnemonic, s.Operands[0])
		if err != nil {
			return 0, err
		}

		base, err := parseRegister(s.Mnemonic, s.Operands[1])
		if err != nil {
			return 0, err
		}

		off, err := parseImmediate(s.Operands[2], 6)
		if err != nil {
			return 0, err
		}

		return opbits<<12 | dr<<9 | base<<6 | off&0x3f, nil
	}
}

func pcOffset(s stmt, symtab *SymbolTable, label string, bits uint8) (vm.Word, error) {
	addr, ok := symtab.Lookup(label)
	if !ok {
		symtab.MarkExternal(label)
		return 0, &SymbolError{Symbol: label, Addr: s.Addr}
	}

	offset := int(addr) - int(s.Addr) - 1
	lo, hi := -(1 << (bits - 1)), 1<<(bits-1)-1

	if offset < lo || offset > hi {
		return 0, &OffsetRangeError{Label: label, Offset: offset, Bits: bits}
	}

	return vm.Word(offset) & vm.Word(1<<bits-1), nil
}

func parseRegister(op string, arg string) (vm.Word, error) {
	arg = strings.ToUpper(strings.TrimSpace(arg))

	if len(arg) != 2 || arg[0] != 'R' || arg[1] < '0' || arg[1] > '7' {
		return 0, &RegisterError{Op: op, Arg: arg}
	}

	return vm.Word(arg[1] - '0'), nil
}

func parseImmediate(arg string, bits uint8) (vm.Word, error) {
	n, err := parseNumericLiteral(arg)
	if err != nil {
		return 0, err
	}

	lo, hi := -(1 << (bits - 1)), 1<<(bits-1)-1
	signed := int(int16(n))

	if signed < lo || signed > hi {
		return 0, &LiteralRangeError{Literal: arg, Bits: bits}
	}

	return n, nil
}

// parseNumericLiteral accepts LC-3 assembly's three numeric forms: #decimal, xHEX (or 0xHEX), and
// plain decimal (used by .ORIG/.BLKW counts).
func parseNumericLiteral(arg string) (vm.Word, error) {
	arg = strings.TrimSpace(arg)

	switch {
	case strings.HasPrefix(arg, "#"):
		v, err := strconv.ParseInt(arg[1:], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a decimal literal", ErrLiteral, arg)
		}

		return vm.Word(v), nil
	case strings.HasPrefix(strings.ToLower(arg), "0x"):
		v, err := strconv.ParseUint(arg[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a hex literal", ErrLiteral, arg)
		}

		return vm.Word(v), nil
	case strings.HasPrefix(strings.ToLower(arg), "x"):
		v, err := strconv.ParseUint(arg[1:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a hex literal", ErrLiteral, arg)
		}

		return vm.Word(v), nil
	default:
		v, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrLiteral, arg)
		}

		return vm.Word(v), nil
	}
}

func parseStringLiteral(arg string) (string, error) {
	arg = strings.TrimSpace(arg)

	if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
		return "", fmt.Errorf("%w: %q is not a quoted string", ErrOperand, arg)
	}

	unquoted, err := strconv.Unquote(arg)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %s", ErrOperand, arg, err)
	}

	return unquoted, nil
}
