package compiler

import (
	"testing"

	"github.com/chen-lang/chen/pkg/bytecode"
	"github.com/chen-lang/chen/pkg/parser"
)

func compile(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	bc, err := CompileProgram(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return bc
}

func TestCompileProgramEmitsNonEmptyCode(t *testing.T) {
	bc := compile(t, `let x = 1 + 2`)
	if len(bc.Code) == 0 {
		t.Fatal("expected non-empty emitted code")
	}
}

func TestConstantPoolDedupesStringConstants(t *testing.T) {
	bc := compile(t, `let a = "same"
let b = "same"`)
	count := 0
	for _, c := range bc.Constants {
		if s, ok := c.(bytecode.ConstString); ok && s.Value == "same" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected the literal \"same\" to be deduped to one constant-pool entry, found %d", count)
	}
}

func TestFunctionDeclProducesConstFunction(t *testing.T) {
	bc := compile(t, `def square(n) { n * n }`)
	found := false
	for _, c := range bc.Constants {
		if fn, ok := c.(*bytecode.ConstFunction); ok && fn.Name != "" {
			found = true
			if len(fn.ParamNames) != 1 || fn.ParamNames[0] != "n" {
				t.Fatalf("ConstFunction params = %v, want [n]", fn.ParamNames)
			}
		}
	}
	if !found {
		t.Fatal("expected a *ConstFunction constant for the declared function")
	}
}

func TestLineTableTracksSourceLines(t *testing.T) {
	bc := compile(t, "let a = 1\nlet b = 2\n")
	lines := map[int]bool{}
	for _, line := range bc.Lines {
		lines[line] = true
	}
	if !lines[1] || !lines[2] {
		t.Fatalf("expected instructions tagged with lines 1 and 2, got %v", lines)
	}
}

func TestMarshalUnmarshalRoundTrips(t *testing.T) {
	bc := compile(t, `def f(n) { n + 1 }
let x = f(41)`)
	data, err := bytecode.Marshal(bc)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	got, err := bytecode.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(got.Code) != len(bc.Code) {
		t.Fatalf("round-tripped code length = %d, want %d", len(got.Code), len(bc.Code))
	}
	if len(got.Constants) != len(bc.Constants) {
		t.Fatalf("round-tripped constant count = %d, want %d", len(got.Constants), len(bc.Constants))
	}
}

func TestBreakOutsideLoopIsSemanticError(t *testing.T) {
	prog, err := parser.Parse(`break`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = CompileProgram(prog)
	if err == nil {
		t.Fatal("expected a SemanticError for a break outside any loop")
	}
	if _, ok := err.(*SemanticError); !ok {
		t.Fatalf("error = %T, want *SemanticError", err)
	}
}
