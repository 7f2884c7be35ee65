package objfile

// codec_text.go implements the object file's whitespace-tolerant ASCII wire format: each block is
// a ".ORIG"-style header giving its start address, followed by one hex word per line, until
// ".END". This is the assembled object, not assembly source - no labels or mnemonics survive here,
// only resolved addresses and words, so SerializeText/DeserializeText round-trip independently of
// the source-level Parser/Generate pair above.

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/patt3/lc3core/internal/vm"
)

// SerializeText renders of's blocks in ascending address order as text.
func SerializeText(of *ObjectFile) string {
	var b strings.Builder

	for _, blk := range of.sortedBlocks() {
		fmt.Fprintf(&b, ".ORIG x%04X\n", uint16(blk.Start))

		for _, w := range blk.Words {
			fmt.Fprintf(&b, "x%04X\n", uint16(w))
		}

		b.WriteString(".END\n")
	}

	return b.String()
}

// DeserializeText parses text produced by SerializeText (or any whitespace-tolerant equivalent)
// back into an ObjectFile with no side-data (LineToAddrs and friends are left empty; this is the
// wire format, not the source).
func DeserializeText(text string) (*ObjectFile, error) {
	of := New()

	scanner := bufio.NewScanner(strings.NewReader(text))

	var cur *Block

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(strings.ToUpper(line), ".ORIG"):
			if cur != nil {
				return nil, fmt.Errorf("%w: line %d: .ORIG without closing .END", ErrOpcode, lineNo)
			}

			addr, err := parseNumericLiteral(strings.TrimSpace(line[len(".ORIG"):]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

			cur = &Block{Start: addr}
		case strings.HasPrefix(strings.ToUpper(line), ".END"):
			if cur == nil {
				return nil, fmt.Errorf("%w: line %d: .END without .ORIG", ErrOpcode, lineNo)
			}

			of.Blocks = append(of.Blocks, *cur)
			cur = nil
		default:
			if cur == nil {
				return nil, fmt.Errorf("%w: line %d: word outside .ORIG/.END block", ErrOpcode, lineNo)
			}

			word, err := parseHexWord(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

			cur.Words = append(cur.Words, word)
		}
	}

	if cur != nil {
		return nil, fmt.Errorf("%w: unterminated .ORIG block", ErrOpcode)
	}

	return of, nil
}

func parseHexWord(s string) (vm.Word, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "x")

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a hex word", ErrLiteral, s)
	}

	return vm.Word(v), nil
}
