package objfile

// gen.go drives assembly end to end: parse source with Parser, then resolve every statement's word
// with Generate, grouping consecutive addresses into Blocks and recording line/address/source side
// tables on the resulting ObjectFile.

import (
	"fmt"
	"io"
	"sort"

	"github.com/patt3/lc3core/internal/vm"
)

// Assemble parses and assembles a single source file into an ObjectFile.
func Assemble(file string, r io.Reader) (*ObjectFile, error) {
	p := NewParser()
	p.Parse(file, r)

	if err := p.Err(); err != nil {
		return nil, err
	}

	return generate(p)
}

func generate(p *Parser) (*ObjectFile, error) {
	of := New()
	of.Symbols = p.Symbols()

	for label, rng := range p.LabelRanges() {
		of.LabelSource[label] = rng
	}

	stmts := p.Statements()
	sort.Slice(stmts, func(i, j int) bool { return stmts[i].Addr < stmts[j].Addr })

	words := make(map[vm.Word]vm.Word, len(stmts))
	order := make([]vm.Word, 0, len(stmts))

	for _, s := range stmts {
		word, err := Generate(s, of.Symbols)
		if err != nil {
			return nil, fmt.Errorf("assemble %s: %w", s.Addr, err)
		}

		words[s.Addr] = word
		order = append(order, s.Addr)

		of.LineToAddrs[s.Line] = append(of.LineToAddrs[s.Line], s.Addr)
		of.AddrToLine[s.Addr] = s.Line
		of.AddrSource[s.Addr] = s.Range
	}

	of.Blocks = coalesce(order, words)

	return of, nil
}

// coalesce groups addresses that were assigned words into the smallest number of contiguous
// Blocks, in ascending address order.
func coalesce(order []vm.Word, words map[vm.Word]vm.Word) []Block {
	if len(order) == 0 {
		return nil
	}

	var blocks []Block

	cur := Block{Start: order[0], Words: []vm.Word{words[order[0]]}}

	for _, addr := range order[1:] {
		if addr == cur.Start+vm.Word(len(cur.Words)) {
			cur.Words = append(cur.Words, words[addr])
			continue
		}

		blocks = append(blocks, cur)
		cur = Block{Start: addr, Words: []vm.Word{words[addr]}}
	}

	blocks = append(blocks, cur)

	return blocks
}
