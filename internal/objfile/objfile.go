// Package objfile parses LC-3 assembly source, assembles it into an ObjectFile, links multiple
// object files together, and serializes/deserializes the result in both the text and binary wire
// formats the loader accepts.
package objfile

import (
	"sort"

	"github.com/patt3/lc3core/internal/vm"
)

// Block is one contiguous run of words starting at an address, the unit an ObjectFile is made of
// and the unit the simulator's loader imports.
type Block struct {
	Start vm.Word
	Words []vm.Word
}

// SourceRange locates a span of source text: 1-indexed lines, 0-indexed byte columns, end-exclusive.
type SourceRange struct {
	StartLine, StartCol int
	EndLine, EndCol     int
}

// SymbolTable records the bidirectional label<->address mapping produced by assembly, plus which
// labels were referenced but never defined in this file - a supplement to the spec's plain
// label/address map. Link unions the two inputs' sets into its output and does not check them.
type SymbolTable struct {
	byLabel map[string]vm.Word
	byAddr  map[vm.Word]string
	external map[string]bool
}

// NewSymbolTable returns an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byLabel:  make(map[string]vm.Word),
		byAddr:   make(map[vm.Word]string),
		external: make(map[string]bool),
	}
}

// Define records label as bound to addr.
func (st *SymbolTable) Define(label string, addr vm.Word) {
	st.byLabel[label] = addr
	st.byAddr[addr] = label
	delete(st.external, label)
}

// MarkExternal records that label was referenced but has no definition (yet) in this file.
func (st *SymbolTable) MarkExternal(label string) {
	if _, ok := st.byLabel[label]; !ok {
		st.external[label] = true
	}
}

// Lookup returns the address bound to label, if any.
func (st *SymbolTable) Lookup(label string) (vm.Word, bool) {
	addr, ok := st.byLabel[label]
	return addr, ok
}

// LabelAt returns the label bound to addr, if any.
func (st *SymbolTable) LabelAt(addr vm.Word) (string, bool) {
	label, ok := st.byAddr[addr]
	return label, ok
}

// Externals returns the labels referenced but never defined, ascending.
func (st *SymbolTable) Externals() []string {
	out := make([]string, 0, len(st.external))
	for label := range st.external {
		out = append(out, label)
	}

	sort.Strings(out)

	return out
}

// Labels returns a copy of the label -> address map.
func (st *SymbolTable) Labels() map[string]vm.Word {
	out := make(map[string]vm.Word, len(st.byLabel))
	for k, v := range st.byLabel {
		out[k] = v
	}

	return out
}

// ObjectFile is an unordered collection of address blocks plus the symbol and source-line side
// data produced by assembly (or read back from a deserialized file, where the side data is
// absent).
type ObjectFile struct {
	Blocks  []Block
	Symbols *SymbolTable

	// LineToAddrs maps a 1-indexed source line to the addresses of the words it generated.
	LineToAddrs map[int][]vm.Word
	// AddrToLine maps an address back to the source line that generated it.
	AddrToLine map[vm.Word]int

	// AddrSource maps an address to the source range of the line that generated it, for
	// getAddrSourceRange.
	AddrSource map[vm.Word]SourceRange
	// LabelSource maps a label to the source range of its defining line, for getLabelSourceRange.
	LabelSource map[string]SourceRange
}

// New returns an empty ObjectFile ready for Blocks/Symbols to be filled in by the assembler.
func New() *ObjectFile {
	return &ObjectFile{
		Symbols:     NewSymbolTable(),
		LineToAddrs: make(map[int][]vm.Word),
		AddrToLine:  make(map[vm.Word]int),
		AddrSource:  make(map[vm.Word]SourceRange),
		LabelSource: make(map[string]SourceRange),
	}
}

// ToVMBlocks converts the object file's blocks to the shape the simulator's loader accepts.
func (of *ObjectFile) ToVMBlocks() []vm.Block {
	out := make([]vm.Block, len(of.Blocks))

	for i, b := range of.Blocks {
		out[i] = vm.Block{Start: b.Start, Words: append([]vm.Word(nil), b.Words...)}
	}

	return out
}

// addrAt returns the word at addr across all blocks, and whether addr is covered by one.
func (of *ObjectFile) addrAt(addr vm.Word) (vm.Word, bool) {
	for _, b := range of.Blocks {
		if addr >= b.Start && int(addr-b.Start) < len(b.Words) {
			return b.Words[addr-b.Start], true
		}
	}

	return 0, false
}

// sortedBlocks returns Blocks ordered by start address, for deterministic serialization.
func (of *ObjectFile) sortedBlocks() []Block {
	out := append([]Block(nil), of.Blocks...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	return out
}
