package vm

import (
	"strings"

	"github.com/chen-lang/chen/pkg/bytecode"
	"github.com/chen-lang/chen/pkg/value"
)

// resolveCallable looks up a Call(name, argc) target: a dotted name
// ("coroutine.create") resolves through a global table's field, a plain
// name resolves via globals-then-natives. Bare-identifier callees that
// the compiler could resolve to a local at compile time never reach here
// — they take the CallStack path instead — so this only ever sees globals
// and natives, implementing the "locals-then-globals" rule at compile time.
func (t *Thread) resolveCallable(name string, line int) (value.Value, error) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		objName, field := name[:i], name[i+1:]
		obj, ok := t.vm.Globals[objName]
		if !ok {
			return nil, newRuntimeError(UndefinedVariable, line, "%s", objName)
		}
		return t.getField(obj, field, line)
	}
	if v, ok := t.vm.Globals[name]; ok {
		return v, nil
	}
	if n, ok := t.vm.Natives[name]; ok {
		return n, nil
	}
	return nil, newRuntimeError(UndefinedVariable, line, "%s", name)
}

func (t *Thread) execCall(line int) (value.Value, bool, error) {
	nameIdx := t.operand(0)
	argc := int(t.operand(1))
	name := t.constString(nameIdx)
	args := t.popN(argc)
	callable, err := t.resolveCallable(name, line)
	if err != nil {
		return nil, false, err
	}
	instrLen := bytecode.InstrLen(t.vm.Program.Code, t.pc)
	return nil, false, t.invoke(callable, args, line, instrLen)
}

func (t *Thread) execCallStack(line int) (value.Value, bool, error) {
	argc := int(t.operand(0))
	vals := t.popN(argc + 1)
	callable := vals[0]
	args := vals[1:]
	instrLen := bytecode.InstrLen(t.vm.Program.Code, t.pc)
	return nil, false, t.invoke(callable, args, line, instrLen)
}

// invoke dispatches to a native (synchronous, pushes its result directly)
// or a user function (pushes a call frame and redirects pc — the thread's
// main loop continues iteratively, no Go-level recursion per call).
func (t *Thread) invoke(callable value.Value, args []value.Value, line, instrLen int) error {
	switch fn := callable.(type) {
	case *value.NativeFunction:
		res, err := fn.Fn(t, args)
		if err != nil {
			if _, ok := err.(*RuntimeError); ok {
				return err
			}
			if _, ok := err.(*ThrownValue); ok {
				return err
			}
			return newRuntimeError(TypeError, line, "%s: %s", fn.Name, err.Error())
		}
		t.push(res)
		t.pc += instrLen
		return nil
	case *value.Function:
		stackBase := len(t.stack)
		want := len(fn.ParamNames)
		for len(args) < want {
			args = append(args, value.NullValue)
		}
		if len(args) > want {
			args = args[:want]
		}
		for _, a := range args {
			t.push(a)
		}
		t.frames = append(t.frames, Frame{ReturnPC: t.pc + instrLen, FP: t.fp})
		t.fp = stackBase
		t.pc = fn.Entry
		// record where Return should truncate the stack back to
		t.returnBases = append(t.returnBases, stackBase)
		return nil
	default:
		return newRuntimeError(TypeError, line, "value of type %s is not callable", callable.Type())
	}
}

func (t *Thread) execReturn(line int) (value.Value, bool, error) {
	retVal := t.pop()
	if len(t.frames) == 0 {
		return retVal, true, nil
	}
	frame := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	base := t.returnBases[len(t.returnBases)-1]
	t.returnBases = t.returnBases[:len(t.returnBases)-1]
	t.stack = t.stack[:base]
	t.fp = frame.FP
	t.pc = frame.ReturnPC
	t.push(retVal)
	return nil, false, nil
}
