package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAddStepsIncrementsCounter(t *testing.T) {
	m := NewMetrics(DefaultConfig())
	m.AddSteps(5)
	m.AddSteps(3)

	if got := testutil.ToFloat64(m.stepsTotal); got != 8 {
		t.Errorf("stepsTotal = %v, want 8", got)
	}
}

func TestSetCoroutinesActiveSetsGauge(t *testing.T) {
	m := NewMetrics(DefaultConfig())
	m.SetCoroutinesActive(4)

	if got := testutil.ToFloat64(m.coroutinesActive); got != 4 {
		t.Errorf("coroutinesActive = %v, want 4", got)
	}
}

func TestIncExceptionsThrownIncrements(t *testing.T) {
	m := NewMetrics(DefaultConfig())
	m.IncExceptionsThrown()
	m.IncExceptionsThrown()

	if got := testutil.ToFloat64(m.exceptionsThrown); got != 2 {
		t.Errorf("exceptionsThrown = %v, want 2", got)
	}
}

func TestSetSchedulerQueueDepthSetsGauge(t *testing.T) {
	m := NewMetrics(DefaultConfig())
	m.SetSchedulerQueueDepth(7)

	if got := testutil.ToFloat64(m.schedulerQueue); got != 7 {
		t.Errorf("schedulerQueue = %v, want 7", got)
	}
}

func TestUpdateRuntimeMetricsPopulatesGauges(t *testing.T) {
	m := NewMetrics(DefaultConfig())
	m.UpdateRuntimeMetrics()

	if testutil.ToFloat64(m.goroutines) <= 0 {
		t.Error("goroutines gauge should be positive after UpdateRuntimeMetrics")
	}
}

func TestRegisterCustomCounterRejectsDuplicateNames(t *testing.T) {
	m := NewMetrics(DefaultConfig())
	if err := m.RegisterCustomCounter("user_events_total", "test counter", []string{"kind"}); err != nil {
		t.Fatalf("first RegisterCustomCounter error = %v", err)
	}
	if err := m.RegisterCustomCounter("user_events_total", "test counter", []string{"kind"}); err == nil {
		t.Fatal("expected an error registering the same custom counter name twice")
	}
}

func TestIncrementCustomCounterRecordsByLabel(t *testing.T) {
	m := NewMetrics(DefaultConfig())
	if err := m.RegisterCustomCounter("script_calls_total", "calls", []string{"fn"}); err != nil {
		t.Fatalf("RegisterCustomCounter error = %v", err)
	}
	m.IncrementCustomCounter("script_calls_total", map[string]string{"fn": "fib"})
	m.IncrementCustomCounter("script_calls_total", map[string]string{"fn": "fib"})

	got := testutil.ToFloat64(m.customCounters["script_calls_total"].With(map[string]string{"fn": "fib"}))
	if got != 2 {
		t.Errorf("script_calls_total{fn=fib} = %v, want 2", got)
	}
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	m := NewMetrics(DefaultConfig())
	m.AddSteps(1)
	if m.Handler() == nil {
		t.Fatal("Handler() returned nil")
	}
	if m.GetRegistry() == nil {
		t.Fatal("GetRegistry() returned nil")
	}
}
