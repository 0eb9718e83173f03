// Package json implements the "stdlib/json" module on top of encoding/json
// — justified as a standard-library usage in DESIGN.md since no
// third-party JSON library appears anywhere in the retrieved corpus.
package json

import (
	"encoding/json"
	"fmt"

	"github.com/chen-lang/chen/pkg/value"
	"github.com/chen-lang/chen/pkg/vm"
)

func Register(vmInst *vm.VM) {
	mod := value.NewTable()
	mod.Set("stringify", &value.NativeFunction{Name: "json.stringify", Arity: 1, Fn: nativeEncode})
	mod.Set("parse", &value.NativeFunction{Name: "json.parse", Arity: 1, Fn: nativeDecode})
	vmInst.Modules["stdlib/json"] = mod
}

func nativeEncode(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("json.stringify expects one argument")
	}
	raw, err := toGo(args[0])
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return value.String{Val: string(b)}, nil
}

func nativeDecode(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("json.parse expects one string argument")
	}
	s, ok := args[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("json.parse expects a string")
	}
	var raw interface{}
	if err := json.Unmarshal([]byte(s.Val), &raw); err != nil {
		return nil, err
	}
	return fromGo(raw), nil
}

func toGo(v value.Value) (interface{}, error) {
	switch x := v.(type) {
	case value.Null:
		return nil, nil
	case value.Bool:
		return x.Val, nil
	case value.Integer:
		return x.Val, nil
	case *value.Decimal:
		return x.String(), nil
	case value.String:
		return x.Val, nil
	case *value.Array:
		out := make([]interface{}, len(x.Elems))
		for i, e := range x.Elems {
			g, err := toGo(e)
			if err != nil {
				return nil, err
			}
			out[i] = g
		}
		return out, nil
	case *value.Table:
		out := make(map[string]interface{}, x.Len())
		for _, k := range x.Keys() {
			fv, _ := x.Get(k)
			g, err := toGo(fv)
			if err != nil {
				return nil, err
			}
			out[k] = g
		}
		return out, nil
	}
	return nil, fmt.Errorf("json.stringify: unsupported value of type %s", v.Type())
}

func fromGo(raw interface{}) value.Value {
	switch x := raw.(type) {
	case nil:
		return value.NullValue
	case bool:
		return value.Bool{Val: x}
	case float64:
		if x == float64(int64(x)) {
			return value.Integer{Val: int64(x)}
		}
		d, _ := value.ParseDecimal(fmt.Sprintf("%v", x))
		return d
	case string:
		return value.String{Val: x}
	case []interface{}:
		elems := make([]value.Value, len(x))
		for i, e := range x {
			elems[i] = fromGo(e)
		}
		return value.NewArray(elems)
	case map[string]interface{}:
		t := value.NewTable()
		for k, v := range x {
			t.Set(k, fromGo(v))
		}
		return t
	}
	return value.NullValue
}
