// Package fs implements the "stdlib/fs" module on top of the standard
// library's os package — justified in DESIGN.md: the corpus carries no
// third-party filesystem abstraction beyond os itself.
package fs

import (
	"fmt"
	"os"

	"github.com/chen-lang/chen/pkg/value"
	"github.com/chen-lang/chen/pkg/vm"
)

func Register(vmInst *vm.VM) {
	mod := value.NewTable()
	mod.Set("read_file", &value.NativeFunction{Name: "fs.read_file", Arity: 1, Fn: nativeReadFile})
	mod.Set("write_file", &value.NativeFunction{Name: "fs.write_file", Arity: 2, Fn: nativeWriteFile})
	mod.Set("exists", &value.NativeFunction{Name: "fs.exists", Arity: 1, Fn: nativeExists})
	vmInst.Modules["stdlib/fs"] = mod
}

func nativeReadFile(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("fs.read_file expects a path string")
	}
	path, ok := args[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("fs.read_file expects a path string")
	}
	data, err := os.ReadFile(path.Val)
	if err != nil {
		return nil, err
	}
	return value.String{Val: string(data)}, nil
}

func nativeWriteFile(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("fs.write_file expects (path, contents)")
	}
	path, ok := args[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("fs.write_file: path must be a string")
	}
	contents, ok := args[1].(value.String)
	if !ok {
		return nil, fmt.Errorf("fs.write_file: contents must be a string")
	}
	if err := os.WriteFile(path.Val, []byte(contents.Val), 0o644); err != nil {
		return nil, err
	}
	return value.NullValue, nil
}

func nativeExists(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("fs.exists expects a path string")
	}
	path, ok := args[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("fs.exists expects a path string")
	}
	_, err := os.Stat(path.Val)
	return value.Bool{Val: err == nil}, nil
}
