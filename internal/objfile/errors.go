package objfile

// errors.go collects the diagnostic-carrying errors raised by the parser, assembler, and linker.

import (
	"errors"
	"fmt"

	"github.com/patt3/lc3core/internal/vm"
)

// Sentinel causes, wrapped by the structured errors below.
var (
	ErrOpcode  = errors.New("opcode error")
	ErrOperand = errors.New("operand error")
	ErrLiteral = errors.New("literal error")
	ErrSymbol  = errors.New("symbol error")
)

// SyntaxError reports a malformed source line: Pos is its 1-indexed line number and Line its text.
// File is empty when the caller parsed a buffer rather than a named file.
type SyntaxError struct {
	File string
	Pos  int
	Line string
	Err  error
}

func (se *SyntaxError) Error() string {
	switch {
	case se.File != "":
		return fmt.Sprintf("%s:%d: syntax error: %q: %s", se.File, se.Pos, se.Line, se.Err)
	case se.Line != "":
		return fmt.Sprintf("%d: syntax error: %q: %s", se.Pos, se.Line, se.Err)
	default:
		return fmt.Sprintf("syntax error: %s", se.Err)
	}
}

func (se *SyntaxError) Unwrap() error { return se.Err }

// OffsetRangeError reports a PC-relative offset that overflows its instruction field.
type OffsetRangeError struct {
	Label  string
	Offset int
	Bits   uint8
}

func (oe *OffsetRangeError) Error() string {
	return fmt.Sprintf("offset error: %q resolves to offset %d, which does not fit in %d bits",
		oe.Label, oe.Offset, oe.Bits)
}

func (oe *OffsetRangeError) Unwrap() error { return ErrOperand }

// LiteralRangeError reports an immediate value that overflows its instruction field.
type LiteralRangeError struct {
	Literal string
	Bits    uint8
}

func (le *LiteralRangeError) Error() string {
	lo, hi := -(1 << (le.Bits - 1)), 1<<(le.Bits-1)-1
	return fmt.Sprintf("literal range error: %q must be within [%d, %d]", le.Literal, lo, hi)
}

func (le *LiteralRangeError) Unwrap() error { return ErrLiteral }

// RegisterError reports an operand that should have named a GPR but didn't.
type RegisterError struct {
	Op  string
	Arg string
}

func (re *RegisterError) Error() string {
	return fmt.Sprintf("%s: register error: %q is not a valid register", re.Op, re.Arg)
}

func (re *RegisterError) Unwrap() error { return ErrOperand }

// SymbolError reports a reference to a label with no definition anywhere in the linked object.
type SymbolError struct {
	Symbol string
	Addr   vm.Word
}

func (se *SymbolError) Error() string {
	return fmt.Sprintf("symbol error: %q referenced at %s is undefined", se.Symbol, se.Addr)
}

func (se *SymbolError) Unwrap() error { return ErrSymbol }

// LinkError reports why Link refused to combine two object files.
type LinkError struct {
	Reason string
}

func (le *LinkError) Error() string { return fmt.Sprintf("link error: %s", le.Reason) }
