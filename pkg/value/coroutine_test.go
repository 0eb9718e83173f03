package value

import "testing"

func TestNewCoroutineStartsSuspended(t *testing.T) {
	fn := &Function{Name: "gen", Arity: 0}
	co := NewCoroutine(1, fn, nil)

	if co.Status() != StatusSuspended {
		t.Errorf("Status() = %q, want %q", co.Status(), StatusSuspended)
	}
	if co.Started() {
		t.Error("Started() = true, want false for a freshly created coroutine")
	}
}

func TestMarkStartedIsObservable(t *testing.T) {
	co := NewCoroutine(2, &Function{Name: "gen"}, nil)
	co.MarkStarted()
	if !co.Started() {
		t.Error("Started() = false after MarkStarted()")
	}
}

func TestSetStatusTransitions(t *testing.T) {
	co := NewCoroutine(3, &Function{Name: "gen"}, nil)
	co.SetStatus(StatusRunning)
	if co.Status() != StatusRunning {
		t.Errorf("Status() = %q, want %q", co.Status(), StatusRunning)
	}
	co.SetStatus(StatusDead)
	if co.Status() != StatusDead {
		t.Errorf("Status() = %q, want %q", co.Status(), StatusDead)
	}
}

func TestResumeYieldHandshakeOverChannels(t *testing.T) {
	co := NewCoroutine(4, &Function{Name: "gen"}, nil)

	go func() {
		signal := <-co.ResumeCh
		co.YieldCh <- YieldSignal{Value: Integer{Val: signal.Value.(Integer).Val + 1}, Done: true}
	}()

	co.ResumeCh <- ResumeSignal{Value: Integer{Val: 41}}
	result := <-co.YieldCh

	if !result.Done {
		t.Error("expected Done=true on the final yield")
	}
	if result.Value.(Integer).Val != 42 {
		t.Errorf("result.Value = %v, want 42", result.Value)
	}
}
