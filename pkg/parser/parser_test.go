package parser

import (
	"testing"

	"github.com/chen-lang/chen/pkg/ast"
)

func TestParseLetAndExpression(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"let int", "let x = 1"},
		{"let decimal", "let x = 0.1 + 0.2"},
		{"if else", "if x < 1 { y } else { z }"},
		{"for in", "for x in arr { println(x) }"},
		{"method call", `p1:to_string()`},
		{"object literal", `let p = ${x: 1, y: 2}`},
		{"try catch finally", `try { throw 1 } catch e { println(e) } finally { println("d") }`},
		{"async def expr", `let co = async def(n) { await n }`},
		{"import", `import "stdlib/io" as io`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.src, err)
			}
			if len(prog.Statements) == 0 {
				t.Fatalf("Parse(%q) produced no statements", tt.src)
			}
		})
	}
}

func TestParseFibonacci(t *testing.T) {
	src := `def f(n) { if n <= 1 { n } else { f(n-1)+f(n-2) } } println(f(10))`
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 top-level statements, got %d", len(prog.Statements))
	}
	if _, ok := prog.Statements[0].(*ast.FunctionDecl); !ok {
		t.Fatalf("expected first statement to be a FunctionDecl, got %T", prog.Statements[0])
	}
}

func TestParseErrorReportsLine(t *testing.T) {
	_, err := Parse("let x = \n\n  )")
	if err == nil {
		t.Fatal("expected a parse error")
	}
}
