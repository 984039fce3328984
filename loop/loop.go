// Package loop implements the self-rescheduling frame task that drives the
// hero render loop, and the display pump that feeds it from a live
// graphics context.
package loop

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/glasshero/glasshero/graphics"
)

// Scheduler requests a single callback for the host's next frame slot. The
// returned cancel withdraws the request if it has not fired yet and is safe
// to call more than once.
type Scheduler interface {
	RequestFrame(fn func()) (cancel func())
}

// Task is a repeating frame callback: after Start, the body runs once per
// scheduler frame until Cancel.
type Task struct {
	sched Scheduler
	body  func()

	mu     sync.Mutex
	cancel func()
	done   bool
}

// Start schedules body to run once per frame on s.
func Start(s Scheduler, body func()) *Task {
	t := &Task{sched: s, body: body}
	t.mu.Lock()
	t.cancel = s.RequestFrame(t.run)
	t.mu.Unlock()
	return t
}

func (t *Task) run() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	// The body runs unlocked so it may cancel its own task.
	t.body()

	t.mu.Lock()
	if !t.done {
		t.cancel = t.sched.RequestFrame(t.run)
	}
	t.mu.Unlock()
}

// Cancel withdraws the pending frame request and stops the task for good.
// The body never runs again after Cancel returns. Safe to call repeatedly.
func (t *Task) Cancel() {
	t.mu.Lock()
	already := t.done
	t.done = true
	cancel := t.cancel
	t.mu.Unlock()

	if !already && cancel != nil {
		cancel()
	}
}

// Active reports whether the task is still scheduled.
func (t *Task) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.done
}

// DisplayLoop drives a Scheduler from a graphics context: each iteration
// runs the pending frame callback, then swaps buffers and polls events.
type DisplayLoop struct {
	ctx graphics.Context

	// OnFrame, when set before Run, receives the duration of every
	// iteration. Used for frame telemetry.
	OnFrame func(time.Duration)

	mu      sync.Mutex
	pending func()
	seq     uint64

	stopped atomic.Bool
}

// NewDisplayLoop returns a loop pumping the given context.
func NewDisplayLoop(ctx graphics.Context) *DisplayLoop {
	return &DisplayLoop{ctx: ctx}
}

// RequestFrame implements Scheduler. Only one request is held at a time;
// the hero component never has more than one in flight.
func (d *DisplayLoop) RequestFrame(fn func()) (cancel func()) {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.pending = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		if d.seq == seq {
			d.pending = nil
		}
		d.mu.Unlock()
	}
}

// Run pumps frames until the context asks to close or Stop is called.
func (d *DisplayLoop) Run() {
	for !d.ctx.ShouldClose() && !d.stopped.Load() {
		start := time.Now()

		d.mu.Lock()
		fn := d.pending
		d.pending = nil
		d.mu.Unlock()
		if fn != nil {
			fn()
		}

		d.ctx.EndFrame()

		if d.OnFrame != nil {
			d.OnFrame(time.Since(start))
		}
	}
}

// Stop makes Run return after the current iteration.
func (d *DisplayLoop) Stop() {
	d.stopped.Store(true)
}
