// Package value defines Chen Lang's dynamic value model: a tagged union of
// Integer, Decimal, Bool, String, Null, Array, Object (Table), Function,
// NativeFunction and Coroutine, following the Value-interface-plus-variant-
// structs shape used throughout the VM's bytecode layer.
package value

import "fmt"

// Value is implemented by every Chen Lang runtime value.
type Value interface {
	Type() string
	String() string
}

// Null is the singleton null value.
type Null struct{}

func (Null) Type() string   { return "null" }
func (Null) String() string { return "null" }

// NullValue is the single shared Null instance; Null carries no state so
// every call site can share it instead of allocating.
var NullValue = Null{}

// Bool wraps a boolean.
type Bool struct{ Val bool }

func (Bool) Type() string     { return "bool" }
func (b Bool) String() string { return fmt.Sprintf("%t", b.Val) }

// Integer wraps a 64-bit signed integer.
type Integer struct{ Val int64 }

func (Integer) Type() string     { return "integer" }
func (i Integer) String() string { return fmt.Sprintf("%d", i.Val) }

// String wraps an immutable UTF-8 string.
type String struct{ Val string }

func (String) Type() string     { return "string" }
func (s String) String() string { return s.Val }

// Array is an ordered, reference-shared, interior-mutable sequence.
// It is always handled through a pointer so that two variables referring to
// the same array observe each other's writes.
type Array struct {
	Elems []Value
}

func NewArray(elems []Value) *Array { return &Array{Elems: elems} }

func (*Array) Type() string { return "array" }
func (a *Array) String() string {
	s := "["
	for i, e := range a.Elems {
		if i > 0 {
			s += ", "
		}
		s += Display(e)
	}
	return s + "]"
}

// Function is a user-defined, closure-free function value: an entry address
// into the owning Program's code plus its declared parameter names.
type Function struct {
	Name       string
	Entry      int
	Arity      int
	ParamNames []string
}

func (*Function) Type() string     { return "function" }
func (f *Function) String() string { return fmt.Sprintf("<function %s/%d>", f.Name, f.Arity) }

// NativeCall is the signature every host-provided builtin implements. vm is
// an interface{} (concretely the calling *vm.Thread) to avoid an import cycle between
// pkg/value and pkg/vm; adapters type-assert it back.
type NativeCall func(vm interface{}, args []Value) (Value, error)

// NativeFunction wraps a host callback registered under a name.
type NativeFunction struct {
	Name string
	Fn   NativeCall
	// Arity is -1 for variadic natives; otherwise arity mismatches are a
	// TypeError raised by the caller before Fn is invoked.
	Arity int
}

func (*NativeFunction) Type() string     { return "native_function" }
func (n *NativeFunction) String() string { return fmt.Sprintf("<native %s>", n.Name) }

// Display renders a value the way string concatenation ("+") does: Decimal
// without trailing zeros but at full precision, Null as "null", Bool as
// "true"/"false", everything else via its own String().
func Display(v Value) string {
	if v == nil {
		return "null"
	}
	return v.String()
}

// Truthy implements Chen Lang's truthiness rule: null and false are falsy,
// everything else (including 0 and "") is truthy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Null:
		return false
	case Bool:
		return x.Val
	default:
		return true
	}
}

// Equal implements Chen Lang's equality: numeric types compare by numeric
// value (Integer/Decimal cross-compare), String/Bool/Null structurally,
// Array/Object/Coroutine/Function by identity (same underlying cell).
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x.Val == y.Val
	case String:
		y, ok := b.(String)
		return ok && x.Val == y.Val
	case Integer:
		switch y := b.(type) {
		case Integer:
			return x.Val == y.Val
		case *Decimal:
			return NewDecimalFromInt(x.Val).Cmp(y) == 0
		}
		return false
	case *Decimal:
		switch y := b.(type) {
		case *Decimal:
			return x.Cmp(y) == 0
		case Integer:
			return x.Cmp(NewDecimalFromInt(y.Val)) == 0
		}
		return false
	case *Array:
		y, ok := b.(*Array)
		return ok && x == y
	case *Table:
		y, ok := b.(*Table)
		return ok && x == y
	case *Coroutine:
		y, ok := b.(*Coroutine)
		return ok && x == y
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	case *NativeFunction:
		y, ok := b.(*NativeFunction)
		return ok && x == y
	}
	return false
}
