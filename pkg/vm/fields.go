package vm

import (
	"github.com/chen-lang/chen/pkg/value"
)

// lookupField implements GetField resolution: look up key in obj's own
// map; on a miss, consult obj.Meta's __index field. A table __index is
// recursed into; a callable __index is invoked with (obj, key) and its
// return used and reported as found. Exhausting the chain without a hit
// reports found=false, letting callers decide what a miss means (GetField
// yields Null; method lookup falls through to builtin iterator methods).
// depth bounds the walk against cycles (set_meta(t, t) is representable)
// and overflow raises MetatableRecursion.
func (t *Thread) lookupField(obj *value.Table, key string, depth int, line int) (value.Value, bool, error) {
	if depth > MaxMetatableDepth {
		return nil, false, newRuntimeError(MetatableRecurse, line, "metatable chain exceeds depth %d looking up %q", MaxMetatableDepth, key)
	}
	if v, ok := obj.Get(key); ok {
		return v, true, nil
	}
	if obj.Meta == nil {
		return nil, false, nil
	}
	idx, ok := obj.Meta.Get("__index")
	if !ok {
		return nil, false, nil
	}
	switch h := idx.(type) {
	case *value.Table:
		return t.lookupField(h, key, depth+1, line)
	case *value.Function, *value.NativeFunction:
		v, err := t.invokeValueForResult(h, []value.Value{obj, value.String{Val: key}}, line)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	default:
		return nil, false, nil
	}
}

func (t *Thread) getField(obj value.Value, key string, line int) (value.Value, error) {
	tbl, ok := obj.(*value.Table)
	if !ok {
		return nil, newRuntimeError(TypeError, line, "cannot read field %q of %s", key, obj.Type())
	}
	v, found, err := t.lookupField(tbl, key, 0, line)
	if err != nil {
		return nil, err
	}
	if !found {
		return value.NullValue, nil
	}
	return v, nil
}

func (t *Thread) execGetField(line int) error {
	key := t.constString(t.operand(0))
	obj := t.pop()
	v, err := t.getField(obj, key, line)
	if err != nil {
		return err
	}
	t.push(v)
	return nil
}

func (t *Thread) execSetField(line int) error {
	key := t.constString(t.operand(0))
	val := t.pop()
	obj := t.pop()
	tbl, ok := obj.(*value.Table)
	if !ok {
		return newRuntimeError(TypeError, line, "cannot set field %q of %s", key, obj.Type())
	}
	tbl.Set(key, val)
	return nil
}

// getMethodValue resolves a `:method` lookup, which in addition to a
// Table's own/metatable chain also recognizes the built-in iterator
// methods defined directly on Array, String and Coroutine (those types
// carry no metatable of their own).
func (t *Thread) getMethodValue(obj value.Value, key string, line int) (value.Value, error) {
	switch o := obj.(type) {
	case *value.Table:
		v, found, err := t.lookupField(o, key, 0, line)
		if err != nil {
			return nil, err
		}
		if found {
			return v, nil
		}
		if key == "iter" {
			return t.objectIterNative(o), nil
		}
		return nil, newRuntimeError(TypeError, line, "no method %q", key)
	case *value.Array:
		if key == "iter" {
			return t.arrayIterNative(o), nil
		}
		return nil, newRuntimeError(TypeError, line, "no method %q on array", key)
	case value.String:
		if key == "iter" {
			return t.stringIterNative(o), nil
		}
		return nil, newRuntimeError(TypeError, line, "no method %q on string", key)
	case *value.Coroutine:
		if key == "iter" {
			// A coroutine is already its own iterator: resuming it produces
			// successive yields until it dies.
			return &value.NativeFunction{Name: "<self-iter>", Arity: 0, Fn: func(interface{}, []value.Value) (value.Value, error) {
				return o, nil
			}}, nil
		}
		return nil, newRuntimeError(TypeError, line, "no method %q on coroutine", key)
	}
	return nil, newRuntimeError(TypeError, line, "cannot call method %q on %s", key, obj.Type())
}

func (t *Thread) execGetMethod(line int) error {
	key := t.constString(t.operand(0))
	obj := t.peek() // stack effect: obj -> obj, fn (obj stays on the stack)
	fn, err := t.getMethodValue(obj, key, line)
	if err != nil {
		return err
	}
	t.push(fn)
	return nil
}

func (t *Thread) arrayIterNative(a *value.Array) value.Value {
	return &value.NativeFunction{Name: "<array-iter>", Arity: 0, Fn: func(interface{}, []value.Value) (value.Value, error) {
		return newGeneratorCoroutine(t.vm, func(emit func(value.Value)) {
			for _, el := range a.Elems {
				emit(el)
			}
		}), nil
	}}
}

func (t *Thread) objectIterNative(o *value.Table) value.Value {
	return &value.NativeFunction{Name: "<object-iter>", Arity: 0, Fn: func(interface{}, []value.Value) (value.Value, error) {
		return newGeneratorCoroutine(t.vm, func(emit func(value.Value)) {
			for _, k := range o.Keys() {
				v, _ := o.Get(k)
				entry := value.NewTable()
				entry.Set("key", value.String{Val: k})
				entry.Set("value", v)
				emit(entry)
			}
		}), nil
	}}
}

func (t *Thread) stringIterNative(s value.String) value.Value {
	return &value.NativeFunction{Name: "<string-iter>", Arity: 0, Fn: func(interface{}, []value.Value) (value.Value, error) {
		return newGeneratorCoroutine(t.vm, func(emit func(value.Value)) {
			// Iterates by Unicode code point, not by byte.
			for _, r := range s.Val {
				emit(value.String{Val: string(r)})
			}
		}), nil
	}}
}

func (t *Thread) execGetIndex(line int) error {
	idx := t.pop()
	obj := t.pop()
	switch o := obj.(type) {
	case *value.Array:
		i, ok := idx.(value.Integer)
		if !ok {
			return newRuntimeError(TypeError, line, "array index must be an integer")
		}
		if i.Val < 0 || int(i.Val) >= len(o.Elems) {
			return newRuntimeError(IndexOutOfRange, line, "index %d out of range (length %d)", i.Val, len(o.Elems))
		}
		t.push(o.Elems[i.Val])
		return nil
	case *value.Table:
		s, ok := idx.(value.String)
		if !ok {
			return newRuntimeError(TypeError, line, "object index must be a string")
		}
		v, err := t.getField(o, s.Val, line)
		if err != nil {
			return err
		}
		t.push(v)
		return nil
	case value.String:
		i, ok := idx.(value.Integer)
		if !ok {
			return newRuntimeError(TypeError, line, "string index must be an integer")
		}
		runes := []rune(o.Val)
		if i.Val < 0 || int(i.Val) >= len(runes) {
			return newRuntimeError(IndexOutOfRange, line, "index %d out of range (length %d)", i.Val, len(runes))
		}
		t.push(value.String{Val: string(runes[i.Val])})
		return nil
	}
	return newRuntimeError(TypeError, line, "cannot index into %s", obj.Type())
}

func (t *Thread) execSetIndex(line int) error {
	val := t.pop()
	idx := t.pop()
	obj := t.pop()
	switch o := obj.(type) {
	case *value.Array:
		i, ok := idx.(value.Integer)
		if !ok {
			return newRuntimeError(TypeError, line, "array index must be an integer")
		}
		if i.Val < 0 || int(i.Val) >= len(o.Elems) {
			return newRuntimeError(IndexOutOfRange, line, "index %d out of range (length %d)", i.Val, len(o.Elems))
		}
		o.Elems[i.Val] = val
		return nil
	case *value.Table:
		s, ok := idx.(value.String)
		if !ok {
			return newRuntimeError(TypeError, line, "object index must be a string")
		}
		o.Set(s.Val, val)
		return nil
	}
	return newRuntimeError(TypeError, line, "cannot index-assign into %s", obj.Type())
}
