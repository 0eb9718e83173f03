package bytecode

import (
	"strings"
	"testing"
)

func TestEmitRecordsOffsetAndLine(t *testing.T) {
	p := NewProgram()
	off := p.Emit(OpPop, 3)
	if off != 0 {
		t.Errorf("Emit offset = %d, want 0", off)
	}
	if p.Lines[0] != 3 {
		t.Errorf("Lines[0] = %d, want 3", p.Lines[0])
	}
	if len(p.Code) != 1 {
		t.Errorf("len(Code) = %d, want 1", len(p.Code))
	}
}

func TestEmitOperandEncodesLittleEndianWords(t *testing.T) {
	p := NewProgram()
	p.EmitOperand(OpPush, 1, 7)
	if got := ReadOperand(p.Code, 0, 0); got != 7 {
		t.Errorf("ReadOperand = %d, want 7", got)
	}
	if got := InstrLen(p.Code, 0); got != 5 {
		t.Errorf("InstrLen = %d, want 5 (1 opcode byte + 4 operand bytes)", got)
	}
}

func TestPatchOperandOverwritesForwardJumpTarget(t *testing.T) {
	p := NewProgram()
	jumpOff := p.EmitOperand(OpJump, 1, -1)
	p.Emit(OpPop, 2)
	target := len(p.Code)
	p.PatchOperand(jumpOff, 0, int32(target))

	if got := ReadOperand(p.Code, jumpOff, 0); got != int32(target) {
		t.Errorf("patched jump target = %d, want %d", got, target)
	}
}

func TestAddConstantReturnsSequentialIndices(t *testing.T) {
	p := NewProgram()
	i0 := p.AddConstant(ConstInt{Value: 1})
	i1 := p.AddConstant(ConstString{Value: "x"})
	if i0 != 0 || i1 != 1 {
		t.Errorf("indices = (%d, %d), want (0, 1)", i0, i1)
	}
}

func TestMarshalUnmarshalPreservesConstantsAndCode(t *testing.T) {
	p := NewProgram()
	p.AddConstant(ConstInt{Value: 42})
	p.AddConstant(&ConstFunction{Name: "f", Entry: 3, ParamNames: []string{"n"}})
	p.EmitOperand(OpPush, 1, 0)
	p.Emit(OpReturn, 1)

	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(got.Code) != len(p.Code) {
		t.Fatalf("round-tripped Code length = %d, want %d", len(got.Code), len(p.Code))
	}
	if len(got.Constants) != 2 {
		t.Fatalf("round-tripped Constants length = %d, want 2", len(got.Constants))
	}
	fn, ok := got.Constants[1].(*ConstFunction)
	if !ok {
		t.Fatalf("Constants[1] = %T, want *ConstFunction", got.Constants[1])
	}
	if fn.Name != "f" || fn.Entry != 3 {
		t.Errorf("round-tripped ConstFunction = %+v, want Name=f Entry=3", fn)
	}
}

func TestDisassembleIncludesOpcodeNamesAndOperands(t *testing.T) {
	p := NewProgram()
	p.AddConstant(ConstInt{Value: 10})
	p.EmitOperand(OpPush, 1, 0)
	p.Emit(OpReturn, 1)

	out := Disassemble(p)
	if !strings.Contains(out, "Push") || !strings.Contains(out, "Return") {
		t.Errorf("Disassemble output = %q, want it to mention Push and Return", out)
	}
}

func TestOpStringFallsBackToUnknownPastTableEnd(t *testing.T) {
	if got := Op(200).String(); got != "UNKNOWN" {
		t.Errorf("Op(200).String() = %q, want %q", got, "UNKNOWN")
	}
}
