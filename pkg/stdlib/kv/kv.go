// Package kv implements the "stdlib/kv" module on top of
// github.com/redis/go-redis/v9, grounded in the pack's redis client stack.
package kv

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/chen-lang/chen/pkg/value"
	"github.com/chen-lang/chen/pkg/vm"
)

func Register(vmInst *vm.VM) {
	mod := value.NewTable()
	mod.Set("connect", native("kv.connect", nativeConnect))
	vmInst.Modules["stdlib/kv"] = mod
}

func native(name string, fn value.NativeCall) *value.NativeFunction {
	return &value.NativeFunction{Name: name, Arity: -1, Fn: fn}
}

func nativeConnect(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("kv.connect expects a redis URL")
	}
	addr, ok := args[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("kv.connect expects a redis URL string")
	}
	opts, err := redis.ParseURL(addr.Val)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	ctx := context.Background()

	handle := value.NewTable()
	handle.Set("get", native("kv.get", func(_ interface{}, args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("get expects a key string")
		}
		key, _ := args[0].(value.String)
		v, err := client.Get(ctx, key.Val).Result()
		if err == redis.Nil {
			return value.NullValue, nil
		}
		if err != nil {
			return nil, err
		}
		return value.String{Val: v}, nil
	}))
	handle.Set("set", native("kv.set", func(_ interface{}, args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("set expects (key, value)")
		}
		key, _ := args[0].(value.String)
		val, _ := args[1].(value.String)
		if err := client.Set(ctx, key.Val, val.Val, 0).Err(); err != nil {
			return nil, err
		}
		return value.NullValue, nil
	}))
	handle.Set("delete", native("kv.delete", func(_ interface{}, args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("delete expects a key string")
		}
		key, _ := args[0].(value.String)
		if err := client.Del(ctx, key.Val).Err(); err != nil {
			return nil, err
		}
		return value.NullValue, nil
	}))
	handle.Set("close", native("kv.close", func(_ interface{}, _ []value.Value) (value.Value, error) {
		return value.NullValue, client.Close()
	}))
	return handle, nil
}
