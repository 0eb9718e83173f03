package vm

import (
	"github.com/chen-lang/chen/pkg/bytecode"
	"github.com/chen-lang/chen/pkg/value"
)

var metaOpName = map[bytecode.Op]string{
	bytecode.OpAdd: "__add", bytecode.OpSub: "__sub", bytecode.OpMul: "__mul",
	bytecode.OpDiv: "__div", bytecode.OpMod: "__mod",
	bytecode.OpLt: "__lt", bytecode.OpLe: "__le", bytecode.OpGt: "__gt", bytecode.OpGe: "__ge",
}

// tryMetaArith dispatches to a __add/__sub/... metamethod found on either
// operand's metatable chain.
func (t *Thread) tryMetaArith(op bytecode.Op, a, b value.Value, line int) (value.Value, bool, error) {
	name, ok := metaOpName[op]
	if !ok {
		return nil, false, nil
	}
	for _, v := range [2]value.Value{a, b} {
		tbl, ok := v.(*value.Table)
		if !ok || tbl.Meta == nil {
			continue
		}
		fnVal, found, err := lookupMeta(tbl.Meta, name, 0, line)
		if err != nil {
			return nil, true, err
		}
		if !found {
			continue
		}
		res, err := t.invokeValueForResult(fnVal, []value.Value{a, b}, line)
		return res, true, err
	}
	return nil, false, nil
}

// lookupMeta walks a metatable chain looking for name, bounded by
// MaxMetatableDepth; overflow raises MetatableRecursion the same way
// lookupField does.
func lookupMeta(meta *value.Table, name string, depth int, line int) (value.Value, bool, error) {
	if depth > MaxMetatableDepth {
		return nil, false, newRuntimeError(MetatableRecurse, line, "metatable chain exceeds depth %d looking up %q", MaxMetatableDepth, name)
	}
	if v, ok := meta.Get(name); ok {
		return v, true, nil
	}
	if meta.Meta != nil {
		return lookupMeta(meta.Meta, name, depth+1, line)
	}
	return nil, false, nil
}

// invokeValueForResult calls a Function or NativeFunction value and waits
// for its single return value, for use by metamethod dispatch where the
// call must complete before the surrounding arithmetic expression resumes.
func (t *Thread) invokeValueForResult(callable value.Value, args []value.Value, line int) (value.Value, error) {
	switch fn := callable.(type) {
	case *value.NativeFunction:
		return fn.Fn(t, args)
	case *value.Function:
		sub := &Thread{vm: t.vm}
		want := len(fn.ParamNames)
		for len(args) < want {
			args = append(args, value.NullValue)
		}
		for _, a := range args[:want] {
			sub.push(a)
		}
		sub.pc = fn.Entry
		sub.fp = 0
		res, err := sub.run(len(t.vm.Program.Code))
		if err != nil {
			return nil, err
		}
		return res, nil
	default:
		return nil, newRuntimeError(TypeError, line, "metamethod value is not callable")
	}
}

func isString(v value.Value) bool {
	_, ok := v.(value.String)
	return ok
}

func asNumeric(v value.Value) (*value.Decimal, bool, bool) {
	switch x := v.(type) {
	case value.Integer:
		return value.NewDecimalFromInt(x.Val), false, true
	case *value.Decimal:
		return x, true, true
	}
	return nil, false, false
}

func (t *Thread) execArith(op bytecode.Op, line int) error {
	b := t.pop()
	a := t.pop()

	if res, handled, err := t.tryMetaArith(op, a, b, line); handled {
		if err != nil {
			return err
		}
		t.push(res)
		return nil
	}

	if op == bytecode.OpAdd {
		if isString(a) || isString(b) {
			t.push(value.String{Val: value.Display(a) + value.Display(b)})
			return nil
		}
	}

	aInt, aIsInt := a.(value.Integer)
	bInt, bIsInt := b.(value.Integer)
	if aIsInt && bIsInt {
		switch op {
		case bytecode.OpAdd:
			t.push(value.Integer{Val: aInt.Val + bInt.Val})
		case bytecode.OpSub:
			t.push(value.Integer{Val: aInt.Val - bInt.Val})
		case bytecode.OpMul:
			t.push(value.Integer{Val: aInt.Val * bInt.Val})
		case bytecode.OpDiv:
			if bInt.Val == 0 {
				return newRuntimeError(ArithmeticError, line, "division by zero")
			}
			t.push(value.Integer{Val: aInt.Val / bInt.Val})
		case bytecode.OpMod:
			if bInt.Val == 0 {
				return newRuntimeError(ArithmeticError, line, "modulo by zero")
			}
			t.push(value.Integer{Val: aInt.Val % bInt.Val})
		}
		return nil
	}

	ad, _, aOK := asNumeric(a)
	bd, _, bOK := asNumeric(b)
	if !aOK || !bOK {
		return newRuntimeError(TypeError, line, "cannot apply %s to %s and %s", op, a.Type(), b.Type())
	}
	switch op {
	case bytecode.OpAdd:
		t.push(ad.Add(bd))
	case bytecode.OpSub:
		t.push(ad.Sub(bd))
	case bytecode.OpMul:
		t.push(ad.Mul(bd))
	case bytecode.OpDiv:
		r, ok := ad.Div(bd)
		if !ok {
			return newRuntimeError(ArithmeticError, line, "division by zero")
		}
		t.push(r)
	case bytecode.OpMod:
		return newRuntimeError(TypeError, line, "'%%' is not defined for decimal operands")
	}
	return nil
}

func negate(v value.Value, line int) (value.Value, error) {
	switch x := v.(type) {
	case value.Integer:
		return value.Integer{Val: -x.Val}, nil
	case *value.Decimal:
		return x.Neg(), nil
	}
	return nil, newRuntimeError(TypeError, line, "cannot negate %s", v.Type())
}

func (t *Thread) execCompare(op bytecode.Op, line int) error {
	b := t.pop()
	a := t.pop()
	if res, handled, err := t.tryMetaArith(op, a, b, line); handled {
		if err != nil {
			return err
		}
		t.push(res)
		return nil
	}
	ad, _, aOK := asNumeric(a)
	bd, _, bOK := asNumeric(b)
	if !aOK || !bOK {
		return newRuntimeError(TypeError, line, "cannot compare %s and %s", a.Type(), b.Type())
	}
	cmp := ad.Cmp(bd)
	var result bool
	switch op {
	case bytecode.OpLt:
		result = cmp < 0
	case bytecode.OpLe:
		result = cmp <= 0
	case bytecode.OpGt:
		result = cmp > 0
	case bytecode.OpGe:
		result = cmp >= 0
	}
	t.push(value.Bool{Val: result})
	return nil
}
