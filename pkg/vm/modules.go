package vm

import (
	"os"
	"path/filepath"

	"github.com/chen-lang/chen/pkg/compiler"
	"github.com/chen-lang/chen/pkg/parser"
	"github.com/chen-lang/chen/pkg/value"
)

// resolveFileModule loads, compiles and runs a .ch file exactly once,
// caching its last top-level expression's value (Null if it has none) by
// normalized absolute path, so every subsequent import of the same path
// returns the cached value without re-running the file. A path still on
// vm.loadingModules when re-entered is a circular import.
func (vm *VM) resolveFileModule(path string, line int) (value.Value, error) {
	abs, absErr := filepath.Abs(path)
	if absErr != nil {
		return nil, newRuntimeError(UndefinedVariable, line, "unknown module %q", path)
	}
	if cached, ok := vm.fileModules[abs]; ok {
		return cached, nil
	}
	for _, loading := range vm.loadingModules {
		if loading == abs {
			return nil, newRuntimeError(UndefinedVariable, line, "circular import of %q", path)
		}
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, newRuntimeError(UndefinedVariable, line, "unknown module %q", path)
	}

	vm.loadingModules = append(vm.loadingModules, abs)
	defer func() { vm.loadingModules = vm.loadingModules[:len(vm.loadingModules)-1] }()

	prog, err := parser.Parse(string(src))
	if err != nil {
		return nil, newRuntimeError(TypeError, line, "module %q failed to parse: %v", path, err)
	}
	bc, err := compiler.CompileModule(prog)
	if err != nil {
		return nil, newRuntimeError(TypeError, line, "module %q failed to compile: %v", path, err)
	}

	sub := New(bc)
	sub.Modules = vm.Modules
	sub.MaxSteps = vm.MaxSteps

	t := sub.newThread()
	if _, err := t.run(len(bc.Code)); err != nil {
		return nil, err
	}

	var result value.Value = value.NullValue
	if len(t.stack) > 0 {
		result = t.stack[len(t.stack)-1]
	}
	if vm.fileModules == nil {
		vm.fileModules = make(map[string]value.Value)
	}
	vm.fileModules[abs] = result
	return result, nil
}
