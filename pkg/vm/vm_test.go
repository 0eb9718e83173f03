package vm

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/chen-lang/chen/pkg/compiler"
	"github.com/chen-lang/chen/pkg/parser"
	"github.com/chen-lang/chen/pkg/value"
)

// runSource compiles and executes src on a fresh VM, returning the VM so the
// test can inspect top-level globals afterward.
func runSource(t *testing.T, src string) *VM {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	bc, err := compiler.CompileProgram(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	vmInst := New(bc)
	if err := vmInst.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	return vmInst
}

func TestArithmeticIntegerAndDecimal(t *testing.T) {
	vmInst := runSource(t, `let x = 1 + 2 * 3
let y = 0.1 + 0.2`)

	xv, ok := vmInst.Globals["x"].(value.Integer)
	if !ok || xv.Val != 7 {
		t.Fatalf("x = %v, want Integer(7)", vmInst.Globals["x"])
	}

	yv, ok := vmInst.Globals["y"].(*value.Decimal)
	if !ok {
		t.Fatalf("y = %v, want *Decimal", vmInst.Globals["y"])
	}
	want, _ := value.ParseDecimal("0.3")
	if yv.Cmp(want) != 0 {
		t.Fatalf("0.1 + 0.2 = %s, want 0.3", yv.String())
	}
}

func TestFunctionCallAndRecursion(t *testing.T) {
	vmInst := runSource(t, `
def fib(n) {
  if n <= 1 { n } else { fib(n-1) + fib(n-2) }
}
let result = fib(10)
`)
	got, ok := vmInst.Globals["result"].(value.Integer)
	if !ok || got.Val != 55 {
		t.Fatalf("fib(10) = %v, want Integer(55)", vmInst.Globals["result"])
	}
}

func TestObjectFieldAccessAndMethodDispatch(t *testing.T) {
	vmInst := runSource(t, `
let p = ${x: 1, y: 2}
p.sum = def(self) {
  self.x + self.y
}
let total = p:sum()
`)
	got, ok := vmInst.Globals["total"].(value.Integer)
	if !ok || got.Val != 3 {
		t.Fatalf("total = %v, want Integer(3)", vmInst.Globals["total"])
	}
}

func TestMetatableIndexFallback(t *testing.T) {
	vmInst := runSource(t, `
let proto = ${greeting: "hi"}
proto.__index = proto
let child = ${}
set_meta(child, proto)
let g = child.greeting
`)
	got, ok := vmInst.Globals["g"].(value.String)
	if !ok || got.Val != "hi" {
		t.Fatalf("g = %v, want String(\"hi\")", vmInst.Globals["g"])
	}
}

func TestMetatableWithoutExplicitIndexFieldYieldsNull(t *testing.T) {
	vmInst := runSource(t, `
let proto = ${greeting: "hi"}
let child = ${}
set_meta(child, proto)
let g = child.greeting
`)
	if vmInst.Globals["g"] != value.NullValue {
		t.Fatalf("g = %v, want Null: a metatable's own keys are not consulted without an __index field", vmInst.Globals["g"])
	}
}

func TestIndexCallableComputesFieldDynamically(t *testing.T) {
	vmInst := runSource(t, `
let proto = ${}
proto.__index = def(obj, key) {
  key + "!"
}
let child = ${}
set_meta(child, proto)
let g = child.anything
`)
	got, ok := vmInst.Globals["g"].(value.String)
	if !ok || got.Val != "anything!" {
		t.Fatalf("g = %v, want String(\"anything!\")", vmInst.Globals["g"])
	}
}

func TestMetatableCycleRaisesMetatableRecursion(t *testing.T) {
	prog, err := parser.Parse(`
let t = ${}
set_meta(t, t)
t.__index = t
let x = t.foo
`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	bc, err := compiler.CompileProgram(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	vmInst := New(bc)
	err = vmInst.Run()
	rerr, ok := err.(*RuntimeError)
	if !ok || rerr.Kind != MetatableRecurse {
		t.Fatalf("err = %v, want *RuntimeError{Kind: MetatableRecurse}", err)
	}
}

func TestThrowAcrossNestedCallRestoresCallerFP(t *testing.T) {
	vmInst := runSource(t, `
def r() {
  throw "boom"
}
def m() {
  let local = 42
  let caught = null
  try {
    r()
  } catch e {
    caught = e
  }
  local + 1
}
let result = m()
`)
	got, ok := vmInst.Globals["result"].(value.Integer)
	if !ok || got.Val != 43 {
		t.Fatalf("result = %v, want Integer(43): unwinding through r() must leave m()'s fp and locals intact", vmInst.Globals["result"])
	}
}

func TestMetamethodArithmetic(t *testing.T) {
	vmInst := runSource(t, `
let vecMeta = ${}
vecMeta.__add = def(a, b) {
  ${x: a.x + b.x, y: a.y + b.y}
}
let v1 = ${x: 1, y: 2}
let v2 = ${x: 3, y: 4}
set_meta(v1, vecMeta)
set_meta(v2, vecMeta)
let v3 = v1 + v2
let sumX = v3.x
`)
	got, ok := vmInst.Globals["sumX"].(value.Integer)
	if !ok || got.Val != 4 {
		t.Fatalf("sumX = %v, want Integer(4)", vmInst.Globals["sumX"])
	}
}

func TestTryCatchFinallyOrdering(t *testing.T) {
	vmInst := runSource(t, `
let n = 0
let first = null
let second = null
let third = null
try {
  n = n + 1
  first = "try"
  throw "boom"
  n = n + 1
  first = "unreachable"
} catch e {
  n = n + 1
  if n == 2 { second = e }
} finally {
  n = n + 1
  if n == 3 { third = "finally" }
}
let order = [first, second, third]
`)
	arr, ok := vmInst.Globals["order"].(*value.Array)
	if !ok {
		t.Fatalf("order = %v, want *Array", vmInst.Globals["order"])
	}
	want := []string{"try", "boom", "finally"}
	if len(arr.Elems) != len(want) {
		t.Fatalf("order = %v, want %v", arr.Elems, want)
	}
	for i, w := range want {
		if value.Display(arr.Elems[i]) != w {
			t.Errorf("order[%d] = %v, want %q", i, arr.Elems[i], w)
		}
	}
}

func TestUncaughtExceptionPropagatesAsRuntimeError(t *testing.T) {
	prog, err := parser.Parse(`throw "boom"`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	bc, err := compiler.CompileProgram(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	vmInst := New(bc)
	err = vmInst.Run()
	if err == nil {
		t.Fatal("expected an uncaught-exception error")
	}
}

func TestMaxStepsCancelsRunawayLoop(t *testing.T) {
	prog, err := parser.Parse(`let i = 0
for true {
  i = i + 1
}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	bc, err := compiler.CompileProgram(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	vmInst := New(bc)
	vmInst.SetMaxSteps(1000)
	err = vmInst.Run()
	if err == nil {
		t.Fatal("expected the runaway loop to be cancelled by the step ceiling")
	}
}

func TestImportCachesFileModuleExecutionAndValue(t *testing.T) {
	dir := t.TempDir()
	modPath := filepath.Join(dir, "greeter.ch")
	if err := os.WriteFile(modPath, []byte(`${greeting: "hi"}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	src := fmt.Sprintf(`
import %q as a
import %q as b
`, modPath, modPath)
	vmInst := runSource(t, src)
	a, ok := vmInst.Globals["a"].(*value.Table)
	if !ok {
		t.Fatalf("a = %v, want *value.Table", vmInst.Globals["a"])
	}
	b, ok := vmInst.Globals["b"].(*value.Table)
	if !ok {
		t.Fatalf("b = %v, want *value.Table", vmInst.Globals["b"])
	}
	if a != b {
		t.Fatalf("import %q returned distinct tables on the second call, want the same cached value", modPath)
	}
	greeting, ok := a.Get("greeting")
	if !ok {
		t.Fatal("a.greeting missing")
	}
	if s, ok := greeting.(value.String); !ok || s.Val != "hi" {
		t.Fatalf("a.greeting = %v, want String(\"hi\")", greeting)
	}
}

func TestImportUnknownPathFails(t *testing.T) {
	prog, err := parser.Parse(`import "/nonexistent/path/that/does/not/exist.ch"`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	bc, err := compiler.CompileProgram(prog)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	vmInst := New(bc)
	if err := vmInst.Run(); err == nil {
		t.Fatal("expected importing a nonexistent file to fail")
	}
}
