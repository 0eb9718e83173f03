package vm

import (
	"github.com/chen-lang/chen/pkg/bytecode"
	"github.com/chen-lang/chen/pkg/value"
)

func (t *Thread) constValue(idx int32) value.Value {
	switch k := t.vm.Program.Constants[idx].(type) {
	case bytecode.ConstInt:
		return value.Integer{Val: k.Value}
	case bytecode.ConstDecimal:
		d, ok := value.ParseDecimal(k.Raw)
		if !ok {
			return value.Integer{Val: 0}
		}
		return d
	case bytecode.ConstString:
		return value.String{Val: k.Value}
	case bytecode.ConstBool:
		return value.Bool{Val: k.Value}
	case bytecode.ConstNull:
		return value.NullValue
	case *bytecode.ConstFunction:
		return &value.Function{Name: k.Name, Entry: k.Entry, Arity: len(k.ParamNames), ParamNames: k.ParamNames}
	}
	return value.NullValue
}

func (t *Thread) constString(idx int32) string {
	if s, ok := t.vm.Program.Constants[idx].(bytecode.ConstString); ok {
		return s.Value
	}
	return ""
}

func (t *Thread) operand(w int) int32 {
	return bytecode.ReadOperand(t.vm.Program.Code, t.pc, w)
}

// step executes the single instruction at t.pc. It returns (result, true,
// nil) when this thread's run() should stop and return result (an OpReturn
// at frame depth 0 relative to the call that invoked run); otherwise it
// returns (nil, false, err).
func (t *Thread) step(op bytecode.Op) (value.Value, bool, error) {
	line := t.line()
	switch op {
	case bytecode.OpPush:
		t.push(t.constValue(t.operand(0)))
	case bytecode.OpPop:
		t.pop()
	case bytecode.OpDup:
		t.push(t.peek())
	case bytecode.OpSwap:
		a := t.pop()
		b := t.pop()
		t.push(a)
		t.push(b)
	case bytecode.OpDupPlusFP:
		idx := t.fp + int(t.operand(0))
		t.push(t.stack[idx])
	case bytecode.OpMovePlusFP:
		idx := t.fp + int(t.operand(0))
		v := t.pop()
		for idx >= len(t.stack) {
			t.stack = append(t.stack, value.NullValue)
		}
		t.stack[idx] = v
	case bytecode.OpLoad:
		name := t.constString(t.operand(0))
		v, ok := t.vm.Globals[name]
		if !ok {
			if n, ok2 := t.vm.Natives[name]; ok2 {
				v = n
			} else {
				return nil, false, newRuntimeError(UndefinedVariable, line, "%s", name)
			}
		}
		t.push(v)
	case bytecode.OpStore:
		name := t.constString(t.operand(0))
		t.vm.Globals[name] = t.pop()
	case bytecode.OpJump:
		t.pc = int(t.operand(0))
		return nil, false, nil
	case bytecode.OpJumpIfFalse:
		target := int(t.operand(0))
		v := t.pop()
		if !value.Truthy(v) {
			t.pc = target
			return nil, false, nil
		}
	case bytecode.OpJumpIfTrue:
		target := int(t.operand(0))
		v := t.pop()
		if value.Truthy(v) {
			t.pc = target
			return nil, false, nil
		}
	case bytecode.OpCall:
		return t.execCall(line)
	case bytecode.OpCallStack:
		return t.execCallStack(line)
	case bytecode.OpReturn:
		return t.execReturn(line)
	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
		return nil, false, t.execArith(op, line)
	case bytecode.OpNeg:
		v := t.pop()
		r, err := negate(v, line)
		if err != nil {
			return nil, false, err
		}
		t.push(r)
	case bytecode.OpNot:
		v := t.pop()
		t.push(value.Bool{Val: !value.Truthy(v)})
	case bytecode.OpEq:
		b, a := t.pop(), t.pop()
		t.push(value.Bool{Val: value.Equal(a, b)})
	case bytecode.OpNe:
		b, a := t.pop(), t.pop()
		t.push(value.Bool{Val: !value.Equal(a, b)})
	case bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
		return nil, false, t.execCompare(op, line)
	case bytecode.OpNewObject:
		t.push(value.NewTable())
	case bytecode.OpSetField:
		return nil, false, t.execSetField(line)
	case bytecode.OpGetField:
		return nil, false, t.execGetField(line)
	case bytecode.OpGetMethod:
		return nil, false, t.execGetMethod(line)
	case bytecode.OpSetIndex:
		return nil, false, t.execSetIndex(line)
	case bytecode.OpGetIndex:
		return nil, false, t.execGetIndex(line)
	case bytecode.OpBuildArray:
		n := int(t.operand(0))
		elems := t.popN(n)
		t.push(value.NewArray(elems))
	case bytecode.OpThrow:
		v := t.pop()
		return nil, false, &ThrownValue{Value: v, Line: line}
	case bytecode.OpPushExceptionHandler:
		addr := int(t.operand(0))
		t.handlers = append(t.handlers, handlerEntry{catchAddr: addr, stackDepth: len(t.stack), frameDepth: len(t.frames), savedFP: t.fp})
	case bytecode.OpPopExceptionHandler:
		if len(t.handlers) > 0 {
			t.handlers = t.handlers[:len(t.handlers)-1]
		}
	case bytecode.OpMakeFunction:
		t.push(t.constValue(t.operand(0)))
	default:
		return nil, false, newRuntimeError(TypeError, line, "unimplemented opcode %s", op)
	}
	return nil, false, nil
}
