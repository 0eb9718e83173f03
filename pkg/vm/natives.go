package vm

import (
	"fmt"

	"github.com/chen-lang/chen/pkg/value"
)

// registerBuiltinNatives installs the always-available global natives:
// output, basic reflection, and the `import` entry point that resolves a
// module path against vm.Modules (populated by pkg/stdlib adapters).
func registerBuiltinNatives(vm *VM) {
	vm.Modules = make(map[string]*value.Table)
	vm.Natives["println"] = &value.NativeFunction{Name: "println", Arity: -1, Fn: nativePrintln}
	vm.Natives["print"] = &value.NativeFunction{Name: "print", Arity: -1, Fn: nativePrint}
	vm.Natives["len"] = &value.NativeFunction{Name: "len", Arity: 1, Fn: nativeLen}
	vm.Natives["type"] = &value.NativeFunction{Name: "type", Arity: 1, Fn: nativeType}
	vm.Natives["to_string"] = &value.NativeFunction{Name: "to_string", Arity: 1, Fn: nativeToString}
	vm.Natives["import"] = &value.NativeFunction{Name: "import", Arity: 1, Fn: nativeImport}
	vm.Natives["set_meta"] = &value.NativeFunction{Name: "set_meta", Arity: 2, Fn: nativeSetMeta}
	vm.Natives["get_meta"] = &value.NativeFunction{Name: "get_meta", Arity: 1, Fn: nativeGetMeta}
}

// nativeSetMeta implements `set_meta(obj, meta)`: attaches meta
// as obj's metatable (or clears it when meta is null). `set_meta(t, t)` is
// representable — the cycle is caught by MaxMetatableDepth-bounded chain
// walks in lookupField/lookupMeta rather than rejected here.
func nativeSetMeta(vmIface interface{}, args []value.Value) (value.Value, error) {
	t := vmIface.(*Thread)
	if len(args) != 2 {
		return nil, newRuntimeError(TypeError, t.line(), "set_meta expects 2 arguments")
	}
	obj, ok := args[0].(*value.Table)
	if !ok {
		return nil, newRuntimeError(TypeError, t.line(), "set_meta: first argument must be an object")
	}
	switch meta := args[1].(type) {
	case *value.Table:
		obj.Meta = meta
	case value.Null:
		obj.Meta = nil
	default:
		return nil, newRuntimeError(TypeError, t.line(), "set_meta: second argument must be an object or null")
	}
	return obj, nil
}

func nativeGetMeta(vmIface interface{}, args []value.Value) (value.Value, error) {
	t := vmIface.(*Thread)
	if len(args) != 1 {
		return nil, newRuntimeError(TypeError, t.line(), "get_meta expects 1 argument")
	}
	obj, ok := args[0].(*value.Table)
	if !ok {
		return nil, newRuntimeError(TypeError, t.line(), "get_meta: argument must be an object")
	}
	if obj.Meta == nil {
		return value.NullValue, nil
	}
	return obj.Meta, nil
}

func nativePrintln(_ interface{}, args []value.Value) (value.Value, error) {
	parts := make([]interface{}, len(args))
	for i, a := range args {
		parts[i] = value.Display(a)
	}
	fmt.Println(parts...)
	return value.NullValue, nil
}

func nativePrint(_ interface{}, args []value.Value) (value.Value, error) {
	for i, a := range args {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(value.Display(a))
	}
	return value.NullValue, nil
}

func nativeLen(vmIface interface{}, args []value.Value) (value.Value, error) {
	t := vmIface.(*Thread)
	if len(args) != 1 {
		return nil, newRuntimeError(TypeError, t.line(), "len expects 1 argument")
	}
	switch v := args[0].(type) {
	case *value.Array:
		return value.Integer{Val: int64(len(v.Elems))}, nil
	case value.String:
		return value.Integer{Val: int64(len([]rune(v.Val)))}, nil
	case *value.Table:
		return value.Integer{Val: int64(v.Len())}, nil
	}
	return nil, newRuntimeError(TypeError, t.line(), "len: unsupported type %s", args[0].Type())
}

func nativeType(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.String{Val: "null"}, nil
	}
	return value.String{Val: args[0].Type()}, nil
}

func nativeToString(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.String{Val: "null"}, nil
	}
	return value.String{Val: value.Display(args[0])}, nil
}

// nativeImport resolves a module path: first against the built-in
// registry pkg/stdlib adapters populate at VM construction time
// (vm.Modules), falling back to loading it as a .ch file from the
// filesystem (relative paths resolve against the current working
// directory), executed once and cached by normalized path thereafter.
func nativeImport(vmIface interface{}, args []value.Value) (value.Value, error) {
	t := vmIface.(*Thread)
	if len(args) != 1 {
		return nil, newRuntimeError(TypeError, t.line(), "import expects a module path string")
	}
	path, ok := args[0].(value.String)
	if !ok {
		return nil, newRuntimeError(TypeError, t.line(), "import expects a string path")
	}
	if mod, ok := t.vm.Modules[path.Val]; ok {
		return mod, nil
	}
	return t.vm.resolveFileModule(path.Val, t.line())
}
