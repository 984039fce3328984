package loop

import (
	"testing"
	"time"
)

// manualScheduler runs requested callbacks only when stepped.
type manualScheduler struct {
	pending map[int]func()
	next    int
}

func (s *manualScheduler) RequestFrame(fn func()) (cancel func()) {
	if s.pending == nil {
		s.pending = make(map[int]func())
	}
	id := s.next
	s.next++
	s.pending[id] = fn
	return func() { delete(s.pending, id) }
}

func (s *manualScheduler) step() {
	run := s.pending
	s.pending = nil
	for _, fn := range run {
		fn()
	}
}

func TestTaskRunsOncePerFrame(t *testing.T) {
	s := &manualScheduler{}
	runs := 0
	task := Start(s, func() { runs++ })

	for i := 1; i <= 3; i++ {
		s.step()
		if runs != i {
			t.Fatalf("after %d frames body ran %d times", i, runs)
		}
		if len(s.pending) != 1 {
			t.Fatalf("after frame %d there are %d pending requests, want 1", i, len(s.pending))
		}
	}
	if !task.Active() {
		t.Error("task reports inactive while still scheduled")
	}
}

func TestCancelStopsTask(t *testing.T) {
	s := &manualScheduler{}
	runs := 0
	task := Start(s, func() { runs++ })

	s.step()
	task.Cancel()

	if len(s.pending) != 0 {
		t.Errorf("cancel left %d pending requests", len(s.pending))
	}
	s.step()
	s.step()
	if runs != 1 {
		t.Errorf("body ran %d times after cancel, want 1", runs)
	}
	if task.Active() {
		t.Error("cancelled task reports active")
	}

	// Repeated cancel is a no-op.
	task.Cancel()
}

func TestCancelBeforeFirstFrame(t *testing.T) {
	s := &manualScheduler{}
	runs := 0
	task := Start(s, func() { runs++ })
	task.Cancel()

	s.step()
	if runs != 0 {
		t.Errorf("body ran %d times, want 0", runs)
	}
}

func TestCancelFromBody(t *testing.T) {
	s := &manualScheduler{}
	runs := 0
	var task *Task
	task = Start(s, func() {
		runs++
		if runs == 2 {
			task.Cancel()
		}
	})

	for i := 0; i < 5; i++ {
		s.step()
	}
	if runs != 2 {
		t.Errorf("body ran %d times, want 2", runs)
	}
}

// fakeContext closes after a fixed number of frames.
type fakeContext struct {
	frames int
	limit  int
}

func (c *fakeContext) MakeCurrent()                   {}
func (c *fakeContext) Shutdown()                      {}
func (c *fakeContext) ShouldClose() bool              { return c.frames >= c.limit }
func (c *fakeContext) EndFrame()                      { c.frames++ }
func (c *fakeContext) GetFramebufferSize() (int, int) { return 640, 480 }
func (c *fakeContext) Time() float64                  { return 0 }

func TestDisplayLoopPumpsTask(t *testing.T) {
	ctx := &fakeContext{limit: 3}
	d := NewDisplayLoop(ctx)

	runs := 0
	durations := 0
	d.OnFrame = func(time.Duration) { durations++ }
	Start(d, func() { runs++ })

	d.Run()

	if runs != 3 {
		t.Errorf("body ran %d times over 3 display frames", runs)
	}
	if durations != 3 {
		t.Errorf("OnFrame fired %d times, want 3", durations)
	}
}

func TestDisplayLoopStop(t *testing.T) {
	ctx := &fakeContext{limit: 100}
	d := NewDisplayLoop(ctx)

	runs := 0
	Start(d, func() {
		runs++
		if runs == 2 {
			d.Stop()
		}
	})

	d.Run()

	if runs != 2 {
		t.Errorf("body ran %d times, want 2", runs)
	}
}

func TestRequestFrameCancelAfterReplace(t *testing.T) {
	d := NewDisplayLoop(&fakeContext{limit: 1})

	cancelA := d.RequestFrame(func() {})
	ran := false
	d.RequestFrame(func() { ran = true })

	// A stale cancel must not withdraw a newer request.
	cancelA()

	d.Run()
	if !ran {
		t.Error("stale cancel withdrew the replacement request")
	}
}
