package bytecode

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
)

// Constant is one entry in a Program's constant pool.
type Constant interface{ isConstant() }

type ConstInt struct{ Value int64 }
type ConstDecimal struct{ Raw string } // literal text, parsed lazily by the VM
type ConstString struct{ Value string }
type ConstBool struct{ Value bool }
type ConstNull struct{}

// ConstFunction describes a user-defined function: its entry address in the
// owning Program's code and its declared parameters. The compiler adds it
// after the function body has been emitted, so Entry is already known,
// following a constant-pool-holds-callables pattern.
type ConstFunction struct {
	Name       string
	Entry      int
	ParamNames []string
}

func init() {
	gob.Register(ConstInt{})
	gob.Register(ConstDecimal{})
	gob.Register(ConstString{})
	gob.Register(ConstBool{})
	gob.Register(ConstNull{})
	gob.Register(&ConstFunction{})
}

func (ConstInt) isConstant()       {}
func (ConstDecimal) isConstant()   {}
func (ConstString) isConstant()    {}
func (ConstBool) isConstant()      {}
func (ConstNull) isConstant()      {}
func (*ConstFunction) isConstant() {}

// Program is the compiler's output: instructions, a constant pool, and a
// parallel line table (instruction start offset -> source line).
type Program struct {
	Code      []byte
	Constants []Constant
	Lines     map[int]int
}

func NewProgram() *Program {
	return &Program{Lines: make(map[int]int)}
}

// AddConstant appends c and returns its index; callers that want dedup for
// literals should check first.
func (p *Program) AddConstant(c Constant) int {
	p.Constants = append(p.Constants, c)
	return len(p.Constants) - 1
}

// Emit appends an opcode with no operands at the given source line and
// returns the instruction's starting offset.
func (p *Program) Emit(op Op, line int) int {
	off := len(p.Code)
	p.Lines[off] = line
	p.Code = append(p.Code, byte(op))
	return off
}

// EmitOperand appends an opcode followed by one or more 4-byte
// little-endian operand words.
func (p *Program) EmitOperand(op Op, line int, operands ...int32) int {
	off := len(p.Code)
	p.Lines[off] = line
	p.Code = append(p.Code, byte(op))
	for _, operand := range operands {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(operand))
		p.Code = append(p.Code, buf[:]...)
	}
	return off
}

// PatchOperand overwrites the wordIdx'th 4-byte operand (0-based) of the
// instruction starting at instrOffset, used for backpatching forward jumps
// once their target address is known.
func (p *Program) PatchOperand(instrOffset, wordIdx int, value int32) {
	start := instrOffset + 1 + wordIdx*4
	binary.LittleEndian.PutUint32(p.Code[start:start+4], uint32(value))
}

// ReadOperand reads the wordIdx'th 4-byte operand of the instruction at
// instrOffset.
func ReadOperand(code []byte, instrOffset, wordIdx int) int32 {
	start := instrOffset + 1 + wordIdx*4
	return int32(binary.LittleEndian.Uint32(code[start : start+4]))
}

// InstrLen returns the total byte length (opcode + operands) of the
// instruction at offset.
func InstrLen(code []byte, offset int) int {
	return 1 + 4*OperandWords(Op(code[offset]))
}

// Marshal encodes the program (code, constants, line table) into the
// on-disk ".chb" format `chen build` writes.
func Marshal(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a ".chb" file produced by Marshal.
func Unmarshal(data []byte) (*Program, error) {
	var p Program
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Disassemble renders the program as a human-readable instruction listing,
// used by `chen build --disasm`.
func Disassemble(p *Program) string {
	out := ""
	for off := 0; off < len(p.Code); {
		op := Op(p.Code[off])
		words := OperandWords(op)
		line := p.Lines[off]
		out += fmt.Sprintf("%04d  L%-4d %-20s", off, line, op.String())
		for w := 0; w < words; w++ {
			out += fmt.Sprintf(" %d", ReadOperand(p.Code, off, w))
		}
		out += "\n"
		off += 1 + 4*words
	}
	return out
}
