package value

import "sync"

// CoroutineStatus is the externally observable state of a fiber, per the
// spec's "exactly one of suspended, running, dead" invariant.
type CoroutineStatus string

const (
	StatusSuspended CoroutineStatus = "suspended"
	StatusRunning   CoroutineStatus = "running"
	StatusDead      CoroutineStatus = "dead"
)

// ResumeSignal is sent into a coroutine's ResumeCh to wake it.
type ResumeSignal struct {
	Value Value
}

// YieldSignal is sent out of a coroutine's YieldCh, either because it
// called coroutine.yield (Done=false) or because it returned/threw
// (Done=true, Err set on an uncaught exception).
type YieldSignal struct {
	Value Value
	Done  bool
	Err   error
}

// Coroutine is a handle onto a goroutine-backed fiber. It generalizes the
// one-shot goroutine+channel Future pattern (resolve once, read once) into
// a resumable two-channel handshake: ResumeCh wakes the fiber with a value,
// YieldCh reports back its next suspension point or its final result, so
// the same goroutine can suspend and resume arbitrarily many times instead
// of completing exactly once.
type Coroutine struct {
	ID   int64
	Name string

	ResumeCh chan ResumeSignal
	YieldCh  chan YieldSignal

	mu      sync.Mutex
	status  CoroutineStatus
	started bool

	// Fn and Args are the bound entry point, captured at coroutine.create
	// time; the owning VM's fiber goroutine reads them on first resume.
	Fn   Value
	Args []Value
}

func NewCoroutine(id int64, fn Value, args []Value) *Coroutine {
	return &Coroutine{
		ID:       id,
		Fn:       fn,
		Args:     args,
		ResumeCh: make(chan ResumeSignal),
		YieldCh:  make(chan YieldSignal),
		status:   StatusSuspended,
	}
}

func (*Coroutine) Type() string     { return "coroutine" }
func (c *Coroutine) String() string { return "<coroutine>" }

func (c *Coroutine) Status() CoroutineStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Coroutine) setStatus(s CoroutineStatus) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// SetStatus is exported so the owning scheduler/VM package (which starts
// and drives the fiber goroutine) can transition status without value
// needing to know anything about the VM.
func (c *Coroutine) SetStatus(s CoroutineStatus) { c.setStatus(s) }

func (c *Coroutine) MarkStarted() {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
}

func (c *Coroutine) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}
