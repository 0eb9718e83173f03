// Package metrics holds the Prometheus collectors for a running VM: step
// throughput, live coroutines, thrown exceptions, and the scheduler's
// pending queue, plus the standard Go runtime gauges.
package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics collectors for a VM instance.
type Metrics struct {
	stepsTotal        prometheus.Counter
	coroutinesActive  prometheus.Gauge
	exceptionsThrown  prometheus.Counter
	schedulerQueue    prometheus.Gauge

	goroutines  prometheus.Gauge
	memoryAlloc prometheus.Gauge
	memoryTotal prometheus.Gauge
	numGC       prometheus.Gauge

	customCounters   map[string]*prometheus.CounterVec
	customGauges     map[string]*prometheus.GaugeVec
	customHistograms map[string]*prometheus.HistogramVec

	registry *prometheus.Registry
}

// Config holds configuration for metrics registration.
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Namespace: "chen",
		Subsystem: "vm",
	}
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(config Config) *Metrics {
	if config.Namespace == "" {
		config = DefaultConfig()
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry:         registry,
		customCounters:   make(map[string]*prometheus.CounterVec),
		customGauges:     make(map[string]*prometheus.GaugeVec),
		customHistograms: make(map[string]*prometheus.HistogramVec),
	}

	m.stepsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "steps_total",
		Help:      "Total number of VM instructions executed",
	})
	m.coroutinesActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "coroutines_active",
		Help:      "Number of coroutines currently suspended or running",
	})
	m.exceptionsThrown = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "exceptions_thrown_total",
		Help:      "Total number of thrown values (caught or uncaught)",
	})
	m.schedulerQueue = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: "scheduler",
		Name:      "queue_depth",
		Help:      "Number of coroutines awaiting a scheduler turn",
	})

	m.goroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: "runtime",
		Name:      "goroutines",
		Help:      "Number of Go goroutines currently running",
	})
	m.memoryAlloc = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: "runtime",
		Name:      "memory_alloc_bytes",
		Help:      "Number of bytes allocated and still in use",
	})
	m.memoryTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: "runtime",
		Name:      "memory_total_alloc_bytes",
		Help:      "Total number of bytes allocated (cumulative)",
	})
	m.numGC = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: "runtime",
		Name:      "gc_runs_total",
		Help:      "Total number of GC runs",
	})

	registry.MustRegister(
		m.stepsTotal,
		m.coroutinesActive,
		m.exceptionsThrown,
		m.schedulerQueue,
		m.goroutines,
		m.memoryAlloc,
		m.memoryTotal,
		m.numGC,
	)

	go m.collectRuntimeMetrics()

	return m
}

func (m *Metrics) collectRuntimeMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		m.UpdateRuntimeMetrics()
	}
}

// UpdateRuntimeMetrics refreshes the Go-runtime resource gauges.
func (m *Metrics) UpdateRuntimeMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.goroutines.Set(float64(runtime.NumGoroutine()))
	m.memoryAlloc.Set(float64(memStats.Alloc))
	m.memoryTotal.Set(float64(memStats.TotalAlloc))
	m.numGC.Set(float64(memStats.NumGC))
}

// AddSteps increments the step counter by n.
func (m *Metrics) AddSteps(n int) {
	m.stepsTotal.Add(float64(n))
}

// SetCoroutinesActive sets the live-coroutine gauge.
func (m *Metrics) SetCoroutinesActive(n int) {
	m.coroutinesActive.Set(float64(n))
}

// IncExceptionsThrown records one thrown value.
func (m *Metrics) IncExceptionsThrown() {
	m.exceptionsThrown.Inc()
}

// SetSchedulerQueueDepth sets the scheduler backlog gauge.
func (m *Metrics) SetSchedulerQueueDepth(n int) {
	m.schedulerQueue.Set(float64(n))
}

// RegisterCustomCounter registers a custom counter metric.
func (m *Metrics) RegisterCustomCounter(name, help string, labels []string) error {
	if _, exists := m.customCounters[name]; exists {
		return prometheus.AlreadyRegisteredError{}
	}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	if err := m.registry.Register(counter); err != nil {
		return err
	}
	m.customCounters[name] = counter
	return nil
}

// RegisterCustomGauge registers a custom gauge metric.
func (m *Metrics) RegisterCustomGauge(name, help string, labels []string) error {
	if _, exists := m.customGauges[name]; exists {
		return prometheus.AlreadyRegisteredError{}
	}
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	if err := m.registry.Register(gauge); err != nil {
		return err
	}
	m.customGauges[name] = gauge
	return nil
}

// RegisterCustomHistogram registers a custom histogram metric.
func (m *Metrics) RegisterCustomHistogram(name, help string, labels []string, buckets []float64) error {
	if _, exists := m.customHistograms[name]; exists {
		return prometheus.AlreadyRegisteredError{}
	}
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labels)
	if err := m.registry.Register(histogram); err != nil {
		return err
	}
	m.customHistograms[name] = histogram
	return nil
}

// IncrementCustomCounter increments a custom counter.
func (m *Metrics) IncrementCustomCounter(name string, labels map[string]string) {
	if counter, exists := m.customCounters[name]; exists {
		counter.With(prometheus.Labels(labels)).Inc()
	}
}

// SetCustomGauge sets a custom gauge value.
func (m *Metrics) SetCustomGauge(name string, value float64, labels map[string]string) {
	if gauge, exists := m.customGauges[name]; exists {
		gauge.With(prometheus.Labels(labels)).Set(value)
	}
}

// ObserveCustomHistogram observes a value in a custom histogram.
func (m *Metrics) ObserveCustomHistogram(name string, value float64, labels map[string]string) {
	if histogram, exists := m.customHistograms[name]; exists {
		histogram.With(prometheus.Labels(labels)).Observe(value)
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// GetRegistry returns the Prometheus registry.
func (m *Metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}
