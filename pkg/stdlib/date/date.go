// Package date implements the "stdlib/date" module on top of the standard
// library's time package — justified in DESIGN.md the same way stdlib/json
// is: no third-party date/time library appears in the corpus.
package date

import (
	"fmt"
	"time"

	"github.com/chen-lang/chen/pkg/value"
	"github.com/chen-lang/chen/pkg/vm"
)

func Register(vmInst *vm.VM) {
	mod := value.NewTable()
	mod.Set("now", &value.NativeFunction{Name: "date.now", Arity: 0, Fn: nativeNow})
	mod.Set("format", &value.NativeFunction{Name: "date.format", Arity: 2, Fn: nativeFormat})
	mod.Set("parse", &value.NativeFunction{Name: "date.parse", Arity: 2, Fn: nativeParse})
	vmInst.Modules["stdlib/date"] = mod
}

func nativeNow(_ interface{}, _ []value.Value) (value.Value, error) {
	return value.Integer{Val: time.Now().UnixMilli()}, nil
}

func nativeFormat(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("date.format expects (epoch_millis, layout)")
	}
	millis, ok := args[0].(value.Integer)
	if !ok {
		return nil, fmt.Errorf("date.format: first argument must be an integer epoch")
	}
	layout, ok := args[1].(value.String)
	if !ok {
		return nil, fmt.Errorf("date.format: second argument must be a layout string")
	}
	t := time.UnixMilli(millis.Val).UTC()
	return value.String{Val: t.Format(layout.Val)}, nil
}

func nativeParse(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("date.parse expects (text, layout)")
	}
	text, ok := args[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("date.parse: first argument must be a string")
	}
	layout, ok := args[1].(value.String)
	if !ok {
		return nil, fmt.Errorf("date.parse: second argument must be a layout string")
	}
	t, err := time.Parse(layout.Val, text.Val)
	if err != nil {
		return nil, err
	}
	return value.Integer{Val: t.UnixMilli()}, nil
}
