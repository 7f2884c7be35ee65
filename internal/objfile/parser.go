package objfile

// parser.go is pass one of the assembler: regex-based line parsing that builds the symbol table
// and a statement list with addresses already assigned, since every directive and instruction
// occupies a statically known number of words regardless of its operands' values. Grounded on the
// teacher's internal/asm/parser.go comment-stripping/label/directive regex pipeline, generalized
// to a complete directive set (.ORIG/.FILL/.BLKW/.STRINGZ/.END) and a single generic instruction
// statement instead of per-opcode AST nodes.

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/patt3/lc3core/internal/vm"
)

var (
	commentPattern   = regexp.MustCompile(`;.*$`)
	labelPattern     = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*:?\s+`)
	directivePattern = regexp.MustCompile(`(?i)^\.(ORIG|FILL|BLKW|STRINGZ|END)\s*(.*)$`)
	mnemonicPattern  = regexp.MustCompile(`^([A-Za-z]+)\s*(.*)$`)
)

// stmt is a single parsed line: an instruction or a data directive, already placed at an address.
type stmt struct {
	Addr     vm.Word
	Line     int
	Range    SourceRange
	Mnemonic string   // opcode, or ".FILL" (.BLKW/.STRINGZ expand to .FILL words; .ORIG/.END emit none)
	Operands []string
}

// Parser accumulates statements and the symbol table across one or more calls to Parse.
type Parser struct {
	stmts       []stmt
	symbols     *SymbolTable
	errs        []error
	labelRanges map[string]SourceRange

	loc     vm.Word
	origSet bool
	ended   bool
	file    string
}

// NewParser returns an empty parser.
func NewParser() *Parser {
	return &Parser{symbols: NewSymbolTable()}
}

// Symbols returns the symbol table built so far.
func (p *Parser) Symbols() *SymbolTable { return p.symbols }

// Statements returns the parsed statement list.
func (p *Parser) Statements() []stmt { return p.stmts }

// Err joins every syntax error encountered.
func (p *Parser) Err() error {
	if len(p.errs) == 0 {
		return nil
	}

	msg := p.errs[0].Error()
	for _, e := range p.errs[1:] {
		msg += "; " + e.Error()
	}

	return fmt.Errorf("%s", msg)
}

// Parse reads source from r, named file for diagnostics (may be empty), and appends to the
// parser's statement list and symbol table. It takes ownership of r and closes it if it
// implements io.Closer.
func (p *Parser) Parse(file string, r io.Reader) {
	p.file = file

	if rc, ok := r.(io.Closer); ok {
		defer rc.Close()
	}

	scanner := bufio.NewScanner(r)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		p.parseLine(lineNo, scanner.Text())
	}
}

func (p *Parser) parseLine(lineNo int, raw string) {
	line := commentPattern.ReplaceAllString(raw, "")
	line = strings.TrimSpace(line)

	if line == "" {
		return
	}

	// A leading word is a label unless it is itself a mnemonic ("ADD R0, R0, #1").
	if m := labelPattern.FindStringSubmatchIndex(line); m != nil && generators[strings.ToUpper(line[m[2]:m[3]])] == nil {
		label := line[m[2]:m[3]]
		p.symbols.Define(label, p.loc)
		p.LabelSourceRange(label, lineNo, len(raw))
		line = strings.TrimSpace(line[m[1]:])

		if line == "" {
			return
		}
	}

	if m := directivePattern.FindStringSubmatch(line); m != nil {
		p.parseDirective(lineNo, raw, strings.ToUpper(m[1]), strings.TrimSpace(m[2]))
		return
	}

	m := mnemonicPattern.FindStringSubmatch(line)
	if m == nil {
		p.syntaxError(lineNo, raw, fmt.Errorf("%w: empty statement", ErrOpcode))
		return
	}

	mnemonic := strings.ToUpper(m[1])
	operands := splitOperands(m[2])

	p.addInstr(lineNo, raw, mnemonic, operands)
}

func (p *Parser) addInstr(lineNo int, raw string, mnemonic string, operands []string) {
	if !p.origSet {
		p.syntaxError(lineNo, raw, fmt.Errorf("%w: statement before .ORIG", ErrOpcode))
		return
	}

	p.stmts = append(p.stmts, stmt{
		Addr:     p.loc,
		Line:     lineNo,
		Range:    SourceRange{StartLine: lineNo, EndLine: lineNo, EndCol: len(raw)},
		Mnemonic: mnemonic,
		Operands: operands,
	})
	p.loc++
}

func (p *Parser) parseDirective(lineNo int, raw string, directive string, arg string) {
	switch directive {
	case "ORIG":
		addr, err := parseNumericLiteral(arg)
		if err != nil {
			p.syntaxError(lineNo, raw, err)
			return
		}

		p.loc = addr
		p.origSet = true
		p.ended = false
	case "END":
		p.ended = true
	case "FILL":
		if !p.origSet {
			p.syntaxError(lineNo, raw, fmt.Errorf("%w: .FILL before .ORIG", ErrOperand))
			return
		}

		p.stmts = append(p.stmts, stmt{
			Addr: p.loc, Line: lineNo,
			Range:    SourceRange{StartLine: lineNo, EndLine: lineNo, EndCol: len(raw)},
			Mnemonic: ".FILL", Operands: []string{arg},
		})
		p.loc++
	case "BLKW":
		if !p.origSet {
			p.syntaxError(lineNo, raw, fmt.Errorf("%w: .BLKW before .ORIG", ErrOperand))
			return
		}

		n, err := parseNumericLiteral(arg)
		if err != nil {
			p.syntaxError(lineNo, raw, err)
			return
		}

		for i := vm.Word(0); i < n; i++ {
			p.stmts = append(p.stmts, stmt{
				Addr: p.loc, Line: lineNo,
				Range:    SourceRange{StartLine: lineNo, EndLine: lineNo, EndCol: len(raw)},
				Mnemonic: ".FILL", Operands: []string{"0"},
			})
			p.loc++
		}
	case "STRINGZ":
		if !p.origSet {
			p.syntaxError(lineNo, raw, fmt.Errorf("%w: .STRINGZ before .ORIG", ErrOperand))
			return
		}

		s, err := parseStringLiteral(arg)
		if err != nil {
			p.syntaxError(lineNo, raw, err)
			return
		}

		for _, r := range s {
			p.stmts = append(p.stmts, stmt{
				Addr: p.loc, Line: lineNo,
				Range:    SourceRange{StartLine: lineNo, EndLine: lineNo, EndCol: len(raw)},
				Mnemonic: ".FILL", Operands: []string{fmt.Sprintf("%d", r)},
			})
			p.loc++
		}

		p.stmts = append(p.stmts, stmt{
			Addr: p.loc, Line: lineNo,
			Range:    SourceRange{StartLine: lineNo, EndLine: lineNo, EndCol: len(raw)},
			Mnemonic: ".FILL", Operands: []string{"0"},
		})
		p.loc++
	}
}

func (p *Parser) syntaxError(lineNo int, line string, err error) {
	p.errs = append(p.errs, &SyntaxError{File: p.file, Pos: lineNo, Line: line, Err: err})
}

// LabelSourceRange records label's defining source position.
func (p *Parser) LabelSourceRange(label string, line int, endCol int) {
	if p.labelRanges == nil {
		p.labelRanges = make(map[string]SourceRange)
	}

	p.labelRanges[label] = SourceRange{StartLine: line, EndLine: line, EndCol: endCol}
}

// LabelRanges returns the source ranges collected for every defined label.
func (p *Parser) LabelRanges() map[string]SourceRange { return p.labelRanges }

func splitOperands(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return parts
}
