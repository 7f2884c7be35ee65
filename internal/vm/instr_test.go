package vm

import "testing"

func TestInstruction_FieldExtraction(t *testing.T) {
	t.Parallel()

	// ADD R1, R2, R3: opcode 0001, DR=001, SR1=010, imm=0, SR2=011.
	i := Instruction(0x1283)

	if i.Opcode() != ADD {
		t.Errorf("Opcode() = %s, want ADD", i.Opcode())
	}

	if i.DR() != R1 {
		t.Errorf("DR() = %s, want R1", i.DR())
	}

	if i.SR1() != R2 {
		t.Errorf("SR1() = %s, want R2", i.SR1())
	}

	if i.SR2() != R3 {
		t.Errorf("SR2() = %s, want R3", i.SR2())
	}

	if i.Imm() {
		t.Errorf("Imm() = true, want false")
	}
}

func TestInstruction_ImmediateAndOffsetSignExtension(t *testing.T) {
	t.Parallel()

	// ADD R0, R0, #-1: opcode 0001, DR=000, SR1=000, imm=1, imm5=11111.
	i := Instruction(0x103f)

	if !i.Imm() {
		t.Fatalf("Imm() = false, want true")
	}

	if got := i.Literal(Imm5); got != 0xffff {
		t.Fatalf("Literal(Imm5) = %#04x, want 0xffff (-1)", uint16(got))
	}
}

func TestInstruction_VectorIsZeroExtended(t *testing.T) {
	t.Parallel()

	i := Instruction(0xf0ff) // TRAP xFF
	if got := i.Vector(Vector8); got != 0x00ff {
		t.Fatalf("Vector(Vector8) = %#04x, want 0x00ff", uint16(got))
	}
}
