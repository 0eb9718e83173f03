package vm

import (
	"github.com/chen-lang/chen/pkg/value"
)

// registerCoroutineNatives installs the coroutine namespace as a global
// Table of NativeFunctions, so user code's `coroutine.create(...)` compiles
// as an ordinary FieldAccess+CallStack — no compiler special-casing needed
// the way a namespaced call-sugar form would require.
func registerCoroutineNatives(vm *VM) {
	ns := value.NewTable()
	ns.Set("create", &value.NativeFunction{Name: "coroutine.create", Arity: -1, Fn: coroutineCreate})
	ns.Set("resume", &value.NativeFunction{Name: "coroutine.resume", Arity: -1, Fn: coroutineResume})
	ns.Set("yield", &value.NativeFunction{Name: "coroutine.yield", Arity: 1, Fn: coroutineYield})
	ns.Set("status", &value.NativeFunction{Name: "coroutine.status", Arity: 1, Fn: coroutineStatus})
	vm.Globals["coroutine"] = ns

	sched := value.NewTable()
	sched.Set("spawn", &value.NativeFunction{Name: "scheduler.spawn", Arity: -1, Fn: schedulerSpawn})
	sched.Set("await_all", &value.NativeFunction{Name: "scheduler.await_all", Arity: 1, Fn: schedulerAwaitAll})
	vm.Globals["scheduler"] = sched
}

// schedulerSpawn starts a coroutine immediately (as opposed to
// coroutine.create, which only allocates it) by issuing its first resume
// right away: spawn begins running without a separate explicit first
// resume.
func schedulerSpawn(vmIface interface{}, args []value.Value) (value.Value, error) {
	t := vmIface.(*Thread)
	if len(args) == 0 {
		return nil, newRuntimeError(TypeError, t.line(), "scheduler.spawn requires a function argument")
	}
	co, err := coroutineCreate(vmIface, args)
	if err != nil {
		return nil, err
	}
	if _, err := coroutineResume(vmIface, []value.Value{co}); err != nil {
		return nil, err
	}
	return co, nil
}

// schedulerAwaitAll drives every coroutine in the given array to
// completion, round-robin, collecting each one's final value in order —
// a duck-typed await_all fan-in over whatever the array holds.
func schedulerAwaitAll(vmIface interface{}, args []value.Value) (value.Value, error) {
	t := vmIface.(*Thread)
	if len(args) != 1 {
		return nil, newRuntimeError(TypeError, t.line(), "scheduler.await_all expects an array of coroutines")
	}
	arr, ok := args[0].(*value.Array)
	if !ok {
		return nil, newRuntimeError(TypeError, t.line(), "scheduler.await_all expects an array")
	}
	results := make([]value.Value, len(arr.Elems))
	pending := make([]bool, len(arr.Elems))
	remaining := 0
	for i, el := range arr.Elems {
		if co, ok := el.(*value.Coroutine); ok && co.Status() != value.StatusDead {
			pending[i] = true
			remaining++
		} else if !ok {
			results[i] = el // a plain (non-coroutine) value is already its own result
		}
	}
	for remaining > 0 {
		for i, el := range arr.Elems {
			if !pending[i] {
				continue
			}
			co := el.(*value.Coroutine)
			v, err := coroutineResume(vmIface, []value.Value{co})
			if err != nil {
				return nil, err
			}
			if co.Status() == value.StatusDead {
				results[i] = v
				pending[i] = false
				remaining--
			}
		}
	}
	return value.NewArray(results), nil
}

func coroutineCreate(vmIface interface{}, args []value.Value) (value.Value, error) {
	t := vmIface.(*Thread)
	if len(args) == 0 {
		return nil, newRuntimeError(TypeError, t.line(), "coroutine.create requires a function argument")
	}
	fn := args[0]
	t.vm.nextCoroID++
	co := value.NewCoroutine(t.vm.nextCoroID, fn, args[1:])
	return co, nil
}

func coroutineResume(vmIface interface{}, args []value.Value) (value.Value, error) {
	t := vmIface.(*Thread)
	if len(args) == 0 {
		return nil, newRuntimeError(TypeError, t.line(), "coroutine.resume requires a coroutine argument")
	}
	co, ok := args[0].(*value.Coroutine)
	if !ok {
		return nil, newRuntimeError(TypeError, t.line(), "coroutine.resume: not a coroutine")
	}
	var resumeArg value.Value = value.NullValue
	if len(args) > 1 {
		resumeArg = args[1]
	}
	if co.Status() == value.StatusDead {
		return value.NullValue, nil
	}
	if !co.Started() {
		co.MarkStarted()
		co.SetStatus(value.StatusRunning)
		go runCoroutineBody(t.vm, co)
	} else {
		co.SetStatus(value.StatusRunning)
		co.ResumeCh <- value.ResumeSignal{Value: resumeArg}
	}
	sig := <-co.YieldCh
	if sig.Done {
		co.SetStatus(value.StatusDead)
	} else {
		co.SetStatus(value.StatusSuspended)
	}
	if sig.Err != nil {
		// Cross-coroutine-boundary convention: an exception that escapes a
		// coroutine body re-raises in the resuming thread.
		return nil, sig.Err
	}
	return sig.Value, nil
}

func coroutineYield(vmIface interface{}, args []value.Value) (value.Value, error) {
	t := vmIface.(*Thread)
	if t.coro == nil {
		return nil, newRuntimeError(TypeError, t.line(), "'coroutine.yield' called outside of a coroutine")
	}
	var v value.Value = value.NullValue
	if len(args) > 0 {
		v = args[0]
	}
	t.coro.YieldCh <- value.YieldSignal{Value: v, Done: false}
	sig := <-t.coro.ResumeCh
	return sig.Value, nil
}

func coroutineStatus(vmIface interface{}, args []value.Value) (value.Value, error) {
	t := vmIface.(*Thread)
	if len(args) == 0 {
		return nil, newRuntimeError(TypeError, t.line(), "coroutine.status requires a coroutine argument")
	}
	co, ok := args[0].(*value.Coroutine)
	if !ok {
		return nil, newRuntimeError(TypeError, t.line(), "coroutine.status: not a coroutine")
	}
	return value.String{Val: string(co.Status())}, nil
}

// runCoroutineBody drives a coroutine's fiber goroutine: it invokes the
// bound function on a fresh Thread with its own stack/frames (sharing only
// the VM's Program/globals/natives), then reports the final value or error
// back through YieldCh with Done=true.
func runCoroutineBody(vm *VM, co *value.Coroutine) {
	th := &Thread{vm: vm, coro: co}
	var result value.Value
	var err error
	switch fn := co.Fn.(type) {
	case *value.Function:
		want := len(fn.ParamNames)
		args := append([]value.Value{}, co.Args...)
		for len(args) < want {
			args = append(args, value.NullValue)
		}
		for _, a := range args[:want] {
			th.push(a)
		}
		th.pc = fn.Entry
		th.fp = 0
		result, err = th.run(len(vm.Program.Code))
	case *value.NativeFunction:
		result, err = fn.Fn(th, co.Args)
	default:
		err = newRuntimeError(TypeError, 0, "coroutine.create: not callable")
	}
	if result == nil && err == nil {
		result = value.NullValue
	}
	co.YieldCh <- value.YieldSignal{Value: result, Done: true, Err: err}
}

// newGeneratorCoroutine builds a native-driven coroutine for the built-in
// Array/Object/String iterators. gen receives an emit callback and is run
// lazily on the coroutine's own fiber goroutine the same way a
// user-defined coroutine body is (started on first resume via
// runCoroutineBody's NativeFunction case), so it follows the exact same
// lazy-start handshake and never races coroutine.resume's first call.
func newGeneratorCoroutine(vm *VM, gen func(emit func(value.Value))) *value.Coroutine {
	native := &value.NativeFunction{
		Name:  "<iterator>",
		Arity: -1,
		Fn: func(vmIface interface{}, args []value.Value) (value.Value, error) {
			th := vmIface.(*Thread)
			gen(func(v value.Value) {
				th.coro.YieldCh <- value.YieldSignal{Value: v, Done: false}
				<-th.coro.ResumeCh
			})
			return value.NullValue, nil
		},
	}
	vm.nextCoroID++
	return value.NewCoroutine(vm.nextCoroID, native, nil)
}
