// Package compiler lowers a pkg/ast.Program into a pkg/bytecode.Program
// using an emit/patchJump/addConstant machinery and a consistent style of
// control-flow lowering (JumpIfFalse+Jump-to-shared-end for if, loop_start/
// JumpIfFalse/Jump-back for while) across a general-purpose program
// compiler rather than a set of per-handler compile paths.
package compiler

import (
	"fmt"

	"github.com/chen-lang/chen/pkg/ast"
	"github.com/chen-lang/chen/pkg/bytecode"
)

// SemanticError is a CompileError-class failure raised at compile time:
// an unknown statement, expression or operator, an invalid assignment
// target, or break/continue outside a loop.
type SemanticError struct {
	Message string
	Line    int
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

type loopCtx struct {
	startAddr     int
	breakPatches  []int
}

// Compiler compiles one pkg/ast.Program into one pkg/bytecode.Program.
type Compiler struct {
	prog         *bytecode.Program
	scope        *SymbolTable
	stringConsts map[string]int
	loops        []*loopCtx
	tmpCounter   int
	nullIdx      *int
}

func New() *Compiler {
	return &Compiler{
		prog:         bytecode.NewProgram(),
		scope:        NewGlobalSymbolTable(),
		stringConsts: make(map[string]int),
	}
}

// CompileProgram is the single entry point for compilation: Chen Lang
// compiles whole programs, not per-request handlers, so one path suffices.
func CompileProgram(prog *ast.Program) (*bytecode.Program, error) {
	c := New()
	for _, stmt := range prog.Statements {
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	return c.prog, nil
}

// CompileModule compiles prog the same way CompileProgram does, except
// that a trailing top-level expression statement has its value left on
// the stack instead of popped — the value an `import` of this file
// reports back. Any other trailing statement form yields no such value.
func CompileModule(prog *ast.Program) (*bytecode.Program, error) {
	c := New()
	for i, stmt := range prog.Statements {
		if i == len(prog.Statements)-1 {
			if es, ok := stmt.(*ast.ExpressionStatement); ok {
				if err := c.compileExpr(es.Expr); err != nil {
					return nil, err
				}
				continue
			}
		}
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	return c.prog, nil
}

func (c *Compiler) stringConst(s string) int {
	if idx, ok := c.stringConsts[s]; ok {
		return idx
	}
	idx := c.prog.AddConstant(bytecode.ConstString{Value: s})
	c.stringConsts[s] = idx
	return idx
}

func (c *Compiler) tmpName() string {
	c.tmpCounter++
	return fmt.Sprintf("#t%d", c.tmpCounter)
}

// ---- statement compilation (value-less; invariant-preserving) ----

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.LetStatement:
		return c.compileLet(s)
	case *ast.AssignStatement:
		return c.compileAssign(s)
	case *ast.FunctionDecl:
		return c.compileFunctionDecl(s.Name, s.Params, s.Body, false)
	case *ast.AsyncFunctionDecl:
		return c.compileFunctionDecl(s.Name, s.Params, s.Body, true)
	case *ast.IfStatement:
		return c.compileIfStatement(s, false)
	case *ast.ForStatement:
		return c.compileFor(s)
	case *ast.BreakStatement:
		return c.compileBreak(s)
	case *ast.ContinueStatement:
		return c.compileContinue(s)
	case *ast.ReturnStatement:
		return c.compileReturn(s)
	case *ast.ThrowStatement:
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		c.prog.Emit(bytecode.OpThrow, s.Line())
		return nil
	case *ast.TryStatement:
		return c.compileTry(s)
	case *ast.ImportStatement:
		return c.compileImport(s)
	case *ast.ExpressionStatement:
		if err := c.compileExpr(s.Expr); err != nil {
			return err
		}
		c.prog.Emit(bytecode.OpPop, s.Line())
		return nil
	}
	return &SemanticError{Message: fmt.Sprintf("unknown statement %T", stmt), Line: stmt.Line()}
}

func (c *Compiler) compileLet(s *ast.LetStatement) error {
	if err := c.compileExpr(s.Value); err != nil {
		return err
	}
	sym := c.scope.Define(s.Name)
	if sym.Scope == GlobalScope {
		c.prog.EmitOperand(bytecode.OpStore, s.Line(), int32(c.stringConst(s.Name)))
	} else {
		c.prog.EmitOperand(bytecode.OpMovePlusFP, s.Line(), int32(sym.Index))
	}
	return nil
}

func (c *Compiler) storeTarget(target ast.Expr, line int) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if sym, ok := c.scope.Resolve(t.Name); ok && sym.Scope != GlobalScope {
			c.prog.EmitOperand(bytecode.OpMovePlusFP, line, int32(sym.Index))
			return nil
		}
		c.prog.EmitOperand(bytecode.OpStore, line, int32(c.stringConst(t.Name)))
		return nil
	case *ast.FieldAccess:
		if err := c.compileExpr(t.Object); err != nil {
			return err
		}
		c.prog.Emit(bytecode.OpSwap, line)
		c.prog.EmitOperand(bytecode.OpSetField, line, int32(c.stringConst(t.Field)))
		return nil
	case *ast.IndexExpr:
		if err := c.compileExpr(t.Object); err != nil {
			return err
		}
		if err := c.compileExpr(t.Index); err != nil {
			return err
		}
		c.prog.Emit(bytecode.OpSwap, line)
		c.prog.Emit(bytecode.OpSetIndex, line)
		return nil
	}
	return &SemanticError{Message: "invalid assignment target", Line: line}
}

func (c *Compiler) compileAssign(s *ast.AssignStatement) error {
	if err := c.compileExpr(s.Value); err != nil {
		return err
	}
	return c.storeTarget(s.Target, s.Line())
}

func (c *Compiler) compileFunctionDecl(name string, params []string, body []ast.Statement, isAsync bool) error {
	implName := name
	if isAsync {
		implName = name + "$impl"
	}
	entry, err := c.compileFunctionBody(implName, params, body)
	if err != nil {
		return err
	}
	fnIdx := c.prog.AddConstant(&bytecode.ConstFunction{Name: implName, Entry: entry, ParamNames: params})

	if isAsync {
		// Wrapper: f(params) { return coroutine.create(f$impl, params...) }
		wrapperBody := func() (int, error) {
			jumpOff := c.prog.EmitOperand(bytecode.OpJump, 0, 0)
			wrapperEntry := len(c.prog.Code)
			saved := c.scope
			c.scope = c.scope.EnterScope(FunctionScope)
			for _, p := range params {
				c.scope.Define(p)
			}
			c.prog.EmitOperand(bytecode.OpPush, 0, int32(fnIdx))
			for _, p := range params {
				sym, _ := c.scope.Resolve(p)
				c.prog.EmitOperand(bytecode.OpDupPlusFP, 0, int32(sym.Index))
			}
			c.prog.EmitOperand(bytecode.OpCall, 0, int32(c.stringConst("coroutine.create")), int32(len(params)+1))
			c.prog.Emit(bytecode.OpReturn, 0)
			c.scope = saved
			c.prog.PatchOperand(jumpOff, 0, int32(len(c.prog.Code)))
			return wrapperEntry, nil
		}
		wEntry, _ := wrapperBody()
		wIdx := c.prog.AddConstant(&bytecode.ConstFunction{Name: name, Entry: wEntry, ParamNames: params})
		return c.bindFunctionGlobal(name, wIdx)
	}
	return c.bindFunctionGlobal(name, fnIdx)
}

func (c *Compiler) bindFunctionGlobal(name string, constIdx int) error {
	sym := c.scope.Define(name)
	c.prog.EmitOperand(bytecode.OpPush, 0, int32(constIdx))
	if sym.Scope == GlobalScope {
		c.prog.EmitOperand(bytecode.OpStore, 0, int32(c.stringConst(name)))
	} else {
		c.prog.EmitOperand(bytecode.OpMovePlusFP, 0, int32(sym.Index))
	}
	return nil
}

// compileFunctionBody emits a skip-over jump, the function body right
// after it, and a trailing Return, with the jump landing past the body;
// it returns the body's entry address
// — an inline-nested-body splice used for every function defined here.
func (c *Compiler) compileFunctionBody(name string, params []string, body []ast.Statement) (int, error) {
	jumpOff := c.prog.EmitOperand(bytecode.OpJump, 0, 0)
	entry := len(c.prog.Code)

	saved := c.scope
	c.scope = c.scope.EnterScope(FunctionScope)
	for _, p := range params {
		c.scope.Define(p)
	}
	savedLoops := c.loops
	c.loops = nil

	if err := c.compileFunctionStatements(body); err != nil {
		return 0, err
	}

	c.loops = savedLoops
	c.scope = saved
	c.prog.PatchOperand(jumpOff, 0, int32(len(c.prog.Code)))
	return entry, nil
}

// compileFunctionStatements compiles every statement but the last
// normally, then arranges for the last statement's value (if any) to be on
// the stack before emitting Return — the implicit-return rule used by the
// Fibonacci-style `def f(n){ if n<=1 {n} else {...} }` end-to-end scenario.
func (c *Compiler) compileFunctionStatements(body []ast.Statement) error {
	if len(body) == 0 {
		c.prog.EmitOperand(bytecode.OpPush, 0, int32(c.pushNull()))
		c.prog.Emit(bytecode.OpReturn, 0)
		return nil
	}
	for _, stmt := range body[:len(body)-1] {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	last := body[len(body)-1]
	switch s := last.(type) {
	case *ast.ReturnStatement:
		return c.compileStatement(s)
	case *ast.ThrowStatement:
		return c.compileStatement(s)
	default:
		if err := c.compileTrailingValue(last); err != nil {
			return err
		}
		c.prog.Emit(bytecode.OpReturn, last.Line())
		return nil
	}
}

// compileTrailingValue compiles stmt so exactly one value is left on the
// stack: an ExpressionStatement's expression, an IfStatement's
// chosen-arm value (each arm recursively trailing-valued), or Null for any
// other statement shape with no natural value.
func (c *Compiler) compileTrailingValue(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return c.compileExpr(s.Expr)
	case *ast.IfStatement:
		return c.compileIfStatement(s, true)
	default:
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
		c.prog.EmitOperand(bytecode.OpPush, stmt.Line(), int32(c.pushNull()))
		return nil
	}
}

func (c *Compiler) pushNull() int {
	return c.nullLiteralConst()
}

func (c *Compiler) compileBlockStatements(body []ast.Statement) error {
	for _, stmt := range body {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// compileIfStatement compiles an if/else-if/else chain. When asValue is
// true, every arm is compiled via compileBlock(..., true) (leaving one
// value on the stack, so if can be used as an expression, with a missing
// else supplying Null); when false, arms are compiled as plain
// statement blocks with no residual value, preserving the per-statement
// stack-depth invariant.
func (c *Compiler) compileIfStatement(s *ast.IfStatement, asValue bool) error {
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	jumpElseOff := c.prog.EmitOperand(bytecode.OpJumpIfFalse, s.Line(), 0)
	if err := c.compileBlock(s.Then, asValue); err != nil {
		return err
	}
	jumpEndOff := c.prog.EmitOperand(bytecode.OpJump, s.Line(), 0)

	elseAddr := len(c.prog.Code)
	c.prog.PatchOperand(jumpElseOff, 0, int32(elseAddr))
	if err := c.compileBlock(s.Else, asValue); err != nil {
		return err
	}
	c.prog.PatchOperand(jumpEndOff, 0, int32(len(c.prog.Code)))
	return nil
}

func (c *Compiler) compileBlock(body []ast.Statement, asValue bool) error {
	if asValue {
		return c.compileTrailingBlock(body)
	}
	return c.compileBlockStatements(body)
}

func (c *Compiler) compileTrailingBlock(body []ast.Statement) error {
	if len(body) == 0 {
		c.prog.EmitOperand(bytecode.OpPush, 0, int32(c.pushNull()))
		return nil
	}
	for _, stmt := range body[:len(body)-1] {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	return c.compileTrailingValue(body[len(body)-1])
}

func (c *Compiler) compileFor(s *ast.ForStatement) error {
	if s.Iter != nil {
		return c.compileForIn(s)
	}
	loop := &loopCtx{}
	c.loops = append(c.loops, loop)
	defer func() { c.loops = c.loops[:len(c.loops)-1] }()

	loop.startAddr = len(c.prog.Code)
	var jumpEndOff int
	hasCond := s.Cond != nil
	if hasCond {
		if err := c.compileExpr(s.Cond); err != nil {
			return err
		}
		jumpEndOff = c.prog.EmitOperand(bytecode.OpJumpIfFalse, s.Line(), 0)
	}
	if err := c.compileBlockStatements(s.Body); err != nil {
		return err
	}
	c.prog.EmitOperand(bytecode.OpJump, s.Line(), int32(loop.startAddr))
	end := len(c.prog.Code)
	if hasCond {
		c.prog.PatchOperand(jumpEndOff, 0, int32(end))
	}
	for _, off := range loop.breakPatches {
		c.prog.PatchOperand(off, 0, int32(end))
	}
	return nil
}

func (c *Compiler) compileForIn(s *ast.ForStatement) error {
	if err := c.compileExpr(s.Iter); err != nil {
		return err
	}
	iterName := c.tmpName()
	iterSym := c.scope.Define(iterName)
	c.emitBindLocalOrGlobal(iterSym, iterName, s.Line())
	if err := c.emitMethodCallNoArgs(iterSym, iterName, "iter", s.Line()); err != nil {
		return err
	}
	c.emitBindLocalOrGlobal(iterSym, iterName, s.Line())

	itemSym := c.scope.Define(s.IterVar)

	loop := &loopCtx{}
	c.loops = append(c.loops, loop)
	defer func() { c.loops = c.loops[:len(c.loops)-1] }()

	loop.startAddr = len(c.prog.Code)
	c.emitLoad(iterSym, iterName, s.Line())
	c.prog.EmitOperand(bytecode.OpPush, s.Line(), int32(c.nullLiteralConst()))
	c.prog.EmitOperand(bytecode.OpCall, s.Line(), int32(c.stringConst("coroutine.resume")), 2)
	resultName := c.tmpName()
	resultSym := c.scope.Define(resultName)
	c.emitBindLocalOrGlobal(resultSym, resultName, s.Line())

	c.emitLoad(iterSym, iterName, s.Line())
	c.prog.EmitOperand(bytecode.OpCall, s.Line(), int32(c.stringConst("coroutine.status")), 1)
	c.prog.EmitOperand(bytecode.OpPush, s.Line(), int32(c.stringConst("dead")))
	c.prog.Emit(bytecode.OpEq, s.Line())
	jumpEndOff := c.prog.EmitOperand(bytecode.OpJumpIfTrue, s.Line(), 0)

	c.emitLoad(resultSym, resultName, s.Line())
	c.emitBindLocalOrGlobal(itemSym, s.IterVar, s.Line())

	if err := c.compileBlockStatements(s.Body); err != nil {
		return err
	}
	c.prog.EmitOperand(bytecode.OpJump, s.Line(), int32(loop.startAddr))
	end := len(c.prog.Code)
	c.prog.PatchOperand(jumpEndOff, 0, int32(end))
	for _, off := range loop.breakPatches {
		c.prog.PatchOperand(off, 0, int32(end))
	}
	return nil
}

// emitMethodCallNoArgs compiles `<local>:method()` given the local already
// holds the receiver, leaving the result on the stack.
func (c *Compiler) emitMethodCallNoArgs(sym *Symbol, name, method string, line int) error {
	c.emitLoad(sym, name, line)
	c.prog.EmitOperand(bytecode.OpGetMethod, line, int32(c.stringConst(method)))
	c.prog.Emit(bytecode.OpSwap, line)
	c.prog.EmitOperand(bytecode.OpCallStack, line, 1)
	return nil
}

func (c *Compiler) emitLoad(sym *Symbol, name string, line int) {
	if sym.Scope == GlobalScope {
		c.prog.EmitOperand(bytecode.OpLoad, line, int32(c.stringConst(name)))
	} else {
		c.prog.EmitOperand(bytecode.OpDupPlusFP, line, int32(sym.Index))
	}
}

func (c *Compiler) emitBindLocalOrGlobal(sym *Symbol, name string, line int) {
	if sym.Scope == GlobalScope {
		c.prog.EmitOperand(bytecode.OpStore, line, int32(c.stringConst(name)))
	} else {
		c.prog.EmitOperand(bytecode.OpMovePlusFP, line, int32(sym.Index))
	}
}

func (c *Compiler) compileBreak(s *ast.BreakStatement) error {
	if len(c.loops) == 0 {
		return &SemanticError{Message: "'break' outside of a loop", Line: s.Line()}
	}
	loop := c.loops[len(c.loops)-1]
	off := c.prog.EmitOperand(bytecode.OpJump, s.Line(), 0)
	loop.breakPatches = append(loop.breakPatches, off)
	return nil
}

func (c *Compiler) compileContinue(s *ast.ContinueStatement) error {
	if len(c.loops) == 0 {
		return &SemanticError{Message: "'continue' outside of a loop", Line: s.Line()}
	}
	loop := c.loops[len(c.loops)-1]
	c.prog.EmitOperand(bytecode.OpJump, s.Line(), int32(loop.startAddr))
	return nil
}

func (c *Compiler) compileReturn(s *ast.ReturnStatement) error {
	if s.Value != nil {
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
	} else {
		c.prog.EmitOperand(bytecode.OpPush, s.Line(), int32(c.nullLiteralConst()))
	}
	c.prog.Emit(bytecode.OpReturn, s.Line())
	return nil
}

// compileTry emits PushExceptionHandler/body/PopExceptionHandler, a catch
// arm (or, with no catch clause, a stash-rethrow arm), and the finally arm.
// The finally body is compiled twice — once for the normal/catch-completed
// path, once ahead of the no-catch rethrow — since an exception that isn't
// caught here must still run finally before it keeps propagating.
func (c *Compiler) compileTry(s *ast.TryStatement) error {
	catchOff := c.prog.EmitOperand(bytecode.OpPushExceptionHandler, s.Line(), 0)
	if err := c.compileBlockStatements(s.Try); err != nil {
		return err
	}
	c.prog.Emit(bytecode.OpPopExceptionHandler, s.Line())
	jumpFinallyOff := c.prog.EmitOperand(bytecode.OpJump, s.Line(), 0)

	catchAddr := len(c.prog.Code)
	c.prog.PatchOperand(catchOff, 0, int32(catchAddr))
	if s.HasCatch {
		if s.CatchName != "" {
			sym := c.scope.Define(s.CatchName)
			c.emitBindLocalOrGlobal(sym, s.CatchName, s.Line())
		} else {
			c.prog.Emit(bytecode.OpPop, s.Line())
		}
		if err := c.compileBlockStatements(s.Catch); err != nil {
			return err
		}
	} else {
		excName := c.tmpName()
		excSym := c.scope.Define(excName)
		c.emitBindLocalOrGlobal(excSym, excName, s.Line())
		if s.HasFinally {
			if err := c.compileBlockStatements(s.Finally); err != nil {
				return err
			}
		}
		c.emitLoad(excSym, excName, s.Line())
		c.prog.Emit(bytecode.OpThrow, s.Line())
	}

	finallyAddr := len(c.prog.Code)
	c.prog.PatchOperand(jumpFinallyOff, 0, int32(finallyAddr))
	if s.HasFinally {
		if err := c.compileBlockStatements(s.Finally); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileImport(s *ast.ImportStatement) error {
	c.prog.EmitOperand(bytecode.OpPush, s.Line(), int32(c.stringConst(s.Path)))
	c.prog.EmitOperand(bytecode.OpCall, s.Line(), int32(c.stringConst("import")), 1)
	name := s.As
	if name == "" {
		name = s.Path
	}
	sym := c.scope.Define(name)
	c.emitBindLocalOrGlobal(sym, name, s.Line())
	return nil
}

// ---- expression compilation ----

func (c *Compiler) nullLiteralConst() int {
	if c.nullIdx != nil {
		return *c.nullIdx
	}
	idx := c.prog.AddConstant(bytecode.ConstNull{})
	c.nullIdx = &idx
	return idx
}

func (c *Compiler) compileExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		idx := c.prog.AddConstant(bytecode.ConstInt{Value: e.Value})
		c.prog.EmitOperand(bytecode.OpPush, e.Line(), int32(idx))
		return nil
	case *ast.DecimalLiteral:
		idx := c.prog.AddConstant(bytecode.ConstDecimal{Raw: e.Raw})
		c.prog.EmitOperand(bytecode.OpPush, e.Line(), int32(idx))
		return nil
	case *ast.StringLiteral:
		idx := c.stringConst(e.Value)
		c.prog.EmitOperand(bytecode.OpPush, e.Line(), int32(idx))
		return nil
	case *ast.BoolLiteral:
		idx := c.prog.AddConstant(bytecode.ConstBool{Value: e.Value})
		c.prog.EmitOperand(bytecode.OpPush, e.Line(), int32(idx))
		return nil
	case *ast.NullLiteral:
		c.prog.EmitOperand(bytecode.OpPush, e.Line(), int32(c.nullLiteralConst()))
		return nil
	case *ast.Identifier:
		if sym, ok := c.scope.Resolve(e.Name); ok && sym.Scope != GlobalScope {
			c.prog.EmitOperand(bytecode.OpDupPlusFP, e.Line(), int32(sym.Index))
			return nil
		}
		c.prog.EmitOperand(bytecode.OpLoad, e.Line(), int32(c.stringConst(e.Name)))
		return nil
	case *ast.BinaryOp:
		return c.compileBinary(e)
	case *ast.UnaryOp:
		return c.compileUnary(e)
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			if err := c.compileExpr(el); err != nil {
				return err
			}
		}
		c.prog.EmitOperand(bytecode.OpBuildArray, e.Line(), int32(len(e.Elements)))
		return nil
	case *ast.ObjectLiteral:
		c.prog.Emit(bytecode.OpNewObject, e.Line())
		for _, entry := range e.Entries {
			c.prog.Emit(bytecode.OpDup, e.Line())
			if err := c.compileExpr(entry.Value); err != nil {
				return err
			}
			c.prog.EmitOperand(bytecode.OpSetField, e.Line(), int32(c.stringConst(entry.Key)))
		}
		return nil
	case *ast.FunctionLiteral:
		name := c.tmpName()
		entry, err := c.compileFunctionBody(name, e.Params, e.Body)
		if err != nil {
			return err
		}
		idx := c.prog.AddConstant(&bytecode.ConstFunction{Name: name, Entry: entry, ParamNames: e.Params})
		c.prog.EmitOperand(bytecode.OpPush, e.Line(), int32(idx))
		return nil
	case *ast.AsyncExpr:
		return c.compileAsyncExprValue(e)
	case *ast.AwaitExpr:
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
		c.prog.EmitOperand(bytecode.OpCall, e.Line(), int32(c.stringConst("coroutine.yield")), 1)
		return nil
	case *ast.FieldAccess:
		if err := c.compileExpr(e.Object); err != nil {
			return err
		}
		c.prog.EmitOperand(bytecode.OpGetField, e.Line(), int32(c.stringConst(e.Field)))
		return nil
	case *ast.IndexExpr:
		if err := c.compileExpr(e.Object); err != nil {
			return err
		}
		if err := c.compileExpr(e.Index); err != nil {
			return err
		}
		c.prog.Emit(bytecode.OpGetIndex, e.Line())
		return nil
	case *ast.MethodCallExpr:
		if err := c.compileExpr(e.Receiver); err != nil {
			return err
		}
		c.prog.EmitOperand(bytecode.OpGetMethod, e.Line(), int32(c.stringConst(e.Method)))
		c.prog.Emit(bytecode.OpSwap, e.Line())
		for _, a := range e.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		c.prog.EmitOperand(bytecode.OpCallStack, e.Line(), int32(len(e.Args)+1))
		return nil
	case *ast.CallExpr:
		return c.compileCall(e)
	}
	return &SemanticError{Message: fmt.Sprintf("unknown expression %T", expr), Line: expr.Line()}
}

func (c *Compiler) compileAsyncExprValue(e *ast.AsyncExpr) error {
	implName := c.tmpName()
	entry, err := c.compileFunctionBody(implName, e.Params, e.Body)
	if err != nil {
		return err
	}
	fnIdx := c.prog.AddConstant(&bytecode.ConstFunction{Name: implName, Entry: entry, ParamNames: e.Params})

	jumpOff := c.prog.EmitOperand(bytecode.OpJump, e.Line(), 0)
	wrapperEntry := len(c.prog.Code)
	saved := c.scope
	c.scope = c.scope.EnterScope(FunctionScope)
	for _, p := range e.Params {
		c.scope.Define(p)
	}
	c.prog.EmitOperand(bytecode.OpPush, e.Line(), int32(fnIdx))
	for _, p := range e.Params {
		sym, _ := c.scope.Resolve(p)
		c.prog.EmitOperand(bytecode.OpDupPlusFP, e.Line(), int32(sym.Index))
	}
	c.prog.EmitOperand(bytecode.OpCall, e.Line(), int32(c.stringConst("coroutine.create")), int32(len(e.Params)+1))
	c.prog.Emit(bytecode.OpReturn, e.Line())
	c.scope = saved
	c.prog.PatchOperand(jumpOff, 0, int32(len(c.prog.Code)))

	wrapperName := c.tmpName()
	wIdx := c.prog.AddConstant(&bytecode.ConstFunction{Name: wrapperName, Entry: wrapperEntry, ParamNames: e.Params})
	c.prog.EmitOperand(bytecode.OpPush, e.Line(), int32(wIdx))
	return nil
}

func (c *Compiler) compileUnary(e *ast.UnaryOp) error {
	if err := c.compileExpr(e.Operand); err != nil {
		return err
	}
	switch e.Op {
	case "-":
		c.prog.Emit(bytecode.OpNeg, e.Line())
	case "!":
		c.prog.Emit(bytecode.OpNot, e.Line())
	default:
		return &SemanticError{Message: fmt.Sprintf("unknown unary operator %q", e.Op), Line: e.Line()}
	}
	return nil
}

func (c *Compiler) compileBinary(e *ast.BinaryOp) error {
	// Logical operators short-circuit via jumps, emitted by the compiler
	// per spec ("short-circuit handled by compiler with jumps").
	if e.Op == "&&" {
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		c.prog.Emit(bytecode.OpDup, e.Line())
		jumpFalseOff := c.prog.EmitOperand(bytecode.OpJumpIfFalse, e.Line(), 0)
		c.prog.Emit(bytecode.OpPop, e.Line())
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.prog.PatchOperand(jumpFalseOff, 0, int32(len(c.prog.Code)))
		return nil
	}
	if e.Op == "||" {
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		c.prog.Emit(bytecode.OpDup, e.Line())
		jumpTrueOff := c.prog.EmitOperand(bytecode.OpJumpIfTrue, e.Line(), 0)
		c.prog.Emit(bytecode.OpPop, e.Line())
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		c.prog.PatchOperand(jumpTrueOff, 0, int32(len(c.prog.Code)))
		return nil
	}

	if err := c.compileExpr(e.Left); err != nil {
		return err
	}
	if err := c.compileExpr(e.Right); err != nil {
		return err
	}
	ops := map[string]bytecode.Op{
		"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul,
		"/": bytecode.OpDiv, "%": bytecode.OpMod,
		"==": bytecode.OpEq, "!=": bytecode.OpNe,
		"<": bytecode.OpLt, "<=": bytecode.OpLe, ">": bytecode.OpGt, ">=": bytecode.OpGe,
	}
	op, ok := ops[e.Op]
	if !ok {
		return &SemanticError{Message: fmt.Sprintf("unknown binary operator %q", e.Op), Line: e.Line()}
	}
	c.prog.Emit(op, e.Line())
	return nil
}

// compileCall handles the two calling conventions from the instruction set:
// a bare-identifier callee that does not resolve in the compile-time scope
// chain (a native, or a global not defined so far) goes through the
// known-named Call(name,argc) path; every other callee (a bare identifier
// that resolves to a local or an already-defined global, field access,
// index, parenthesized expression, immediately-invoked literal) pushes the
// callable value and uses CallStack(argc).
func (c *Compiler) compileCall(e *ast.CallExpr) error {
	if ident, ok := e.Callee.(*ast.Identifier); ok {
		if _, isLocal := c.scope.Resolve(ident.Name); !isLocal {
			for _, a := range e.Args {
				if err := c.compileExpr(a); err != nil {
					return err
				}
			}
			c.prog.EmitOperand(bytecode.OpCall, e.Line(), int32(c.stringConst(ident.Name)), int32(len(e.Args)))
			return nil
		}
	}
	if err := c.compileExpr(e.Callee); err != nil {
		return err
	}
	for _, a := range e.Args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	c.prog.EmitOperand(bytecode.OpCallStack, e.Line(), int32(len(e.Args)))
	return nil
}
