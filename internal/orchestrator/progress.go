package orchestrator

import "sync"

// Progress describes how far a validation run has advanced. Percent is
// monotonic for the lifetime of one run.
type Progress struct {
	Percent int    `json:"percent"`
	Step    string `json:"stepDescription"`
}

// Emitter delivers progress events to a single subscriber without ever
// blocking the run. When the subscriber lags behind the buffer, events are
// dropped; the terminal event is the only one callers may rely on seeing
// if they drain the channel to the end.
type Emitter struct {
	mu     sync.Mutex
	ch     chan Progress
	last   int
	closed bool
	onDrop func()
}

// NewEmitter builds an emitter with the given buffer. onDrop is invoked for
// every dropped event and may be nil.
func NewEmitter(buffer int, onDrop func()) *Emitter {
	if buffer < 1 {
		buffer = 1
	}
	return &Emitter{ch: make(chan Progress, buffer), onDrop: onDrop}
}

// Events returns the subscriber side of the emitter. The channel closes
// when the run finishes.
func (e *Emitter) Events() <-chan Progress {
	return e.ch
}

// Emit publishes a progress event. Percents below the last emitted value are
// raised to it so the stream never goes backwards.
func (e *Emitter) Emit(percent int, step string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if percent < e.last {
		percent = e.last
	}
	e.last = percent
	select {
	case e.ch <- Progress{Percent: percent, Step: step}:
	default:
		if e.onDrop != nil {
			e.onDrop()
		}
	}
}

// Close ends the stream. Safe to call once per run; Emit after Close is a
// no-op.
func (e *Emitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
