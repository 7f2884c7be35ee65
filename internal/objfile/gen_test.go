package objfile

import (
	"strings"
	"testing"

	"github.com/patt3/lc3core/internal/vm"
)

const helloSource = `
	.ORIG x3000
START	LEA R0, MSG
	PUTS
	HALT
MSG	.STRINGZ "hi"
	.END
`

func TestAssemble_HelloWorld(t *testing.T) {
	t.Parallel()

	of, err := Assemble("hello.asm", strings.NewReader(helloSource))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	addr, ok := of.Symbols.Lookup("START")
	if !ok || addr != 0x3000 {
		t.Fatalf("START = %v, %v; want 0x3000, true", addr, ok)
	}

	if _, ok := of.Symbols.Lookup("MSG"); !ok {
		t.Fatalf("MSG not defined")
	}

	blocks := of.ToVMBlocks()
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d; want 1", len(blocks))
	}

	blk := blocks[0]
	if blk.Start != 0x3000 {
		t.Fatalf("block start = %v; want 0x3000", blk.Start)
	}

	if blk.Words[0]>>12 != 0xe {
		t.Fatalf("first word opcode = %#x; want LEA (0xe)", blk.Words[0]>>12)
	}

	if blk.Words[1] != 0xf000|0x22 {
		t.Fatalf("second word = %#x; want PUTS trap", blk.Words[1])
	}

	if blk.Words[2] != 0xf000|0x25 {
		t.Fatalf("third word = %#x; want HALT trap", blk.Words[2])
	}

	if of.AddrToLine[0x3000] == 0 {
		t.Fatalf("missing line mapping for entry point")
	}
}

func TestAssemble_UndefinedSymbol(t *testing.T) {
	t.Parallel()

	src := ".ORIG x3000\nBR NOWHERE\n.END\n"

	_, err := Assemble("bad.asm", strings.NewReader(src))
	if err == nil {
		t.Fatalf("expected error for undefined label")
	}
}

func TestAssemble_OffsetOutOfRange(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString(".ORIG x3000\n")
	b.WriteString("BR FAR\n")

	for i := 0; i < 400; i++ {
		b.WriteString("AND R0, R0, #0\n")
	}

	b.WriteString("FAR ADD R0, R0, #1\n")
	b.WriteString(".END\n")

	_, err := Assemble("far.asm", strings.NewReader(b.String()))
	if err == nil {
		t.Fatalf("expected offset range error")
	}
}

func TestGenerators_ALUImmediateAndRegister(t *testing.T) {
	t.Parallel()

	symtab := NewSymbolTable()

	word, err := Generate(stmt{Mnemonic: "ADD", Operands: []string{"R1", "R2", "R3"}}, symtab)
	if err != nil {
		t.Fatalf("ADD reg: %v", err)
	}

	if word != 0x1<<12|1<<9|2<<6|3 {
		t.Fatalf("ADD reg = %#x", word)
	}

	word, err = Generate(stmt{Mnemonic: "ADD", Operands: []string{"R1", "R2", "#-1"}}, symtab)
	if err != nil {
		t.Fatalf("ADD imm: %v", err)
	}

	if word != 0x1<<12|1<<9|2<<6|1<<5|0x1f {
		t.Fatalf("ADD imm = %#x", word)
	}
}

func TestLink_DetectsOverlap(t *testing.T) {
	t.Parallel()

	a := New()
	a.Blocks = []Block{{Start: 0x3000, Words: []vm.Word{1, 2, 3}}}

	b := New()
	b.Blocks = []Block{{Start: 0x3001, Words: []vm.Word{9}}}

	if _, err := Link(a, b); err == nil {
		t.Fatalf("expected overlap error")
	}
}

func TestLink_Associative(t *testing.T) {
	t.Parallel()

	a := New()
	a.Blocks = []Block{{Start: 0x3000, Words: []vm.Word{1}}}
	a.Symbols.Define("A", 0x3000)

	b := New()
	b.Blocks = []Block{{Start: 0x4000, Words: []vm.Word{2}}}
	b.Symbols.Define("B", 0x4000)

	c := New()
	c.Blocks = []Block{{Start: 0x5000, Words: []vm.Word{3}}}
	c.Symbols.Define("C", 0x5000)

	ab, err := Link(a, b)
	if err != nil {
		t.Fatalf("Link(a,b): %v", err)
	}

	abc1, err := Link(ab, c)
	if err != nil {
		t.Fatalf("Link(ab,c): %v", err)
	}

	bc, err := Link(b, c)
	if err != nil {
		t.Fatalf("Link(b,c): %v", err)
	}

	abc2, err := Link(a, bc)
	if err != nil {
		t.Fatalf("Link(a,bc): %v", err)
	}

	if len(abc1.Blocks) != len(abc2.Blocks) {
		t.Fatalf("block count differs: %d vs %d", len(abc1.Blocks), len(abc2.Blocks))
	}

	for _, label := range []string{"A", "B", "C"} {
		addr1, _ := abc1.Symbols.Lookup(label)
		addr2, _ := abc2.Symbols.Lookup(label)

		if addr1 != addr2 {
			t.Fatalf("%s address differs under grouping: %v vs %v", label, addr1, addr2)
		}
	}
}

func TestCodecText_RoundTrip(t *testing.T) {
	t.Parallel()

	of := New()
	of.Blocks = []Block{
		{Start: 0x3000, Words: []vm.Word{0x1234, 0x5678}},
		{Start: 0x4000, Words: []vm.Word{0xffff}},
	}

	text := SerializeText(of)

	back, err := DeserializeText(text)
	if err != nil {
		t.Fatalf("DeserializeText: %v", err)
	}

	if len(back.Blocks) != 2 {
		t.Fatalf("len(blocks) = %d; want 2", len(back.Blocks))
	}

	if back.Blocks[0].Start != 0x3000 || back.Blocks[0].Words[1] != 0x5678 {
		t.Fatalf("block 0 = %+v", back.Blocks[0])
	}
}

func TestCodecBinary_RoundTrip(t *testing.T) {
	t.Parallel()

	of := New()
	of.Blocks = []Block{
		{Start: 0x3000, Words: []vm.Word{0x1234, 0x5678, 0x9abc}},
	}

	data := SerializeBinary(of)

	back, err := DeserializeBinary(data)
	if err != nil {
		t.Fatalf("DeserializeBinary: %v", err)
	}

	if len(back.Blocks) != 1 || back.Blocks[0].Start != 0x3000 {
		t.Fatalf("blocks = %+v", back.Blocks)
	}

	if len(back.Blocks[0].Words) != 3 || back.Blocks[0].Words[2] != 0x9abc {
		t.Fatalf("words = %+v", back.Blocks[0].Words)
	}
}
