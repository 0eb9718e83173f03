// Package vm executes a compiled pkg/bytecode.Program: a stack machine with
// fp-relative call frames, a metatable-aware field/method protocol,
// exception-handler unwinding, and goroutine-backed coroutines, built on a
// fetch-decode-dispatch loop generalized to a fixed, general-purpose
// instruction set rather than any single request-shaped dispatch table.
package vm

import (
	"fmt"

	"github.com/chen-lang/chen/pkg/bytecode"
	"github.com/chen-lang/chen/pkg/value"
)

// MaxMetatableDepth bounds __index/__add-style metatable chain walks as a
// guard against metatable cycles.
const MaxMetatableDepth = 64

// Frame is one call-frame: where to resume on return and the base stack
// offset ("fp") that this call's locals are indexed relative to.
type Frame struct {
	ReturnPC int
	FP       int
}

type handlerEntry struct {
	catchAddr  int
	stackDepth int
	frameDepth int
	savedFP    int
}

// Thread is one independently-executing fiber: the main program or a
// coroutine body. Each has its own data stack, call frames and exception
// handlers; all threads share the owning VM's Program, globals and natives.
type Thread struct {
	vm          *VM
	stack       []value.Value
	frames      []Frame
	returnBases []int
	handlers    []handlerEntry
	pc          int
	fp          int
	coro        *value.Coroutine // nil for the main thread
}

// VM holds program-global state shared by every thread: the compiled
// program, the global variable table, and the native-function registry.
type VM struct {
	Program  *bytecode.Program
	Globals  map[string]value.Value
	Natives  map[string]*value.NativeFunction
	Modules  map[string]*value.Table
	MaxSteps int64

	nextCoroID int64
	steps      int64
	trace      bool

	// fileModules caches a filesystem module's last expression value by
	// normalized absolute path, so `import` executes the file at most once.
	fileModules map[string]value.Value
	// loadingModules tracks paths currently mid-load, for circular-import
	// detection.
	loadingModules []string
}

func New(prog *bytecode.Program) *VM {
	vm := &VM{
		Program: prog,
		Globals: make(map[string]value.Value),
		Natives: make(map[string]*value.NativeFunction),
	}
	registerBuiltinNatives(vm)
	registerCoroutineNatives(vm)
	return vm
}

func (vm *VM) SetTrace(on bool)     { vm.trace = on }
func (vm *VM) SetMaxSteps(n int64)  { vm.MaxSteps = n }

func (vm *VM) newThread() *Thread {
	return &Thread{vm: vm, stack: make([]value.Value, 0, 256)}
}

// Run executes the program from address 0 on the main thread to completion.
func (vm *VM) Run() error {
	t := vm.newThread()
	_, err := t.run(len(vm.Program.Code))
	return err
}

func (t *Thread) line() int {
	return t.vm.Program.Lines[t.pc]
}

func (t *Thread) push(v value.Value) { t.stack = append(t.stack, v) }

func (t *Thread) pop() value.Value {
	v := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return v
}

func (t *Thread) peek() value.Value { return t.stack[len(t.stack)-1] }

// popN pops n values off the top and reverses them so index 0 is the
// earliest-pushed value, restoring original left-to-right evaluation order
// — shared by Call and CallStack argument collection.
func (t *Thread) popN(n int) []value.Value {
	out := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = t.pop()
	}
	return out
}

// run executes instructions starting at t.pc until t.pc reaches stopPC at
// call-frame depth 0 (i.e. the outermost invocation on this thread
// returns), returning the last value pushed by a top-level expression
// statement's implicit discard is irrelevant — run returns the final
// OpReturn value when used to execute a function, or nil for top-level
// program execution that simply falls off the end.
func (t *Thread) run(stopPC int) (value.Value, error) {
	code := t.vm.Program.Code
	baseFrameDepth := len(t.frames)
	for t.pc < stopPC {
		if t.vm.MaxSteps > 0 {
			t.vm.steps++
			if t.vm.steps > t.vm.MaxSteps {
				return nil, newRuntimeError(Cancelled, t.line(), "max step count exceeded")
			}
		}
		op := bytecode.Op(code[t.pc])
		startPC := t.pc
		var result value.Value
		var done bool
		var err error
		result, done, err = t.step(op)
		if err != nil {
			if rerr, ok := toRuntimeFailure(err, t.line()); ok {
				if t.handleThrow(rerr) {
					continue
				}
				return nil, rerr
			}
			return nil, err
		}
		if done {
			return result, nil
		}
		if t.pc == startPC {
			t.pc += 1 + 4*bytecode.OperandWords(op)
		}
		if len(t.frames) < baseFrameDepth {
			// A Return unwound past the frame this call to run() was
			// tracking (shouldn't happen for well-formed programs).
			return nil, fmt.Errorf("frame underflow")
		}
	}
	return nil, nil
}

// toRuntimeFailure normalizes any error from step() into a reportable
// failure carrying a source line, for both host RuntimeErrors and
// user-thrown values.
func toRuntimeFailure(err error, line int) (error, bool) {
	switch err.(type) {
	case *RuntimeError, *ThrownValue:
		return err, true
	}
	return err, false
}

// handleThrow unwinds to the nearest exception handler on this thread, if
// any, restoring stack and frame depth as it goes.
// It returns true if a handler absorbed the error (execution should
// continue at the catch address), false if the thread has no handler left
// (the caller should propagate the error).
func (t *Thread) handleThrow(err error) bool {
	if len(t.handlers) == 0 {
		return false
	}
	h := t.handlers[len(t.handlers)-1]
	t.handlers = t.handlers[:len(t.handlers)-1]
	if len(t.stack) > h.stackDepth {
		t.stack = t.stack[:h.stackDepth]
	}
	if len(t.frames) > h.frameDepth {
		t.frames = t.frames[:h.frameDepth]
	}
	if len(t.returnBases) > h.frameDepth {
		t.returnBases = t.returnBases[:h.frameDepth]
	}
	t.fp = h.savedFP
	t.push(errorPayload(err))
	t.pc = h.catchAddr
	return true
}

func errorPayload(err error) value.Value {
	switch e := err.(type) {
	case *ThrownValue:
		if v, ok := e.Value.(value.Value); ok {
			return v
		}
		return value.String{Val: fmt.Sprint(e.Value)}
	case *RuntimeError:
		t := value.NewTable()
		t.Set("kind", value.String{Val: string(e.Kind)})
		t.Set("message", value.String{Val: e.Detail})
		return t
	}
	return value.String{Val: err.Error()}
}
