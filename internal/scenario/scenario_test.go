package scenario

import (
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"
)

// recorder collects callback and hook activity from the playback goroutine
type recorder struct {
	mu       sync.Mutex
	fired    []int
	starts   int
	stops    int
	outcomes []Outcome
	runs     map[Outcome][]uint64
}

func (r *recorder) frames(n int, delay, duration time.Duration) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{
			Delay:    delay,
			Duration: duration,
			Callback: func() {
				r.mu.Lock()
				r.fired = append(r.fired, i)
				r.mu.Unlock()
			},
		}
	}
	return frames
}

func (r *recorder) attach(s *Scenario) {
	s.OnStart(func(*Scenario) {
		r.mu.Lock()
		r.starts++
		r.mu.Unlock()
	})
	s.OnStop(func(*Scenario) {
		r.mu.Lock()
		r.stops++
		r.mu.Unlock()
	})
	s.OnEnd(func(_ *Scenario, playback uint64, o Outcome) {
		r.mu.Lock()
		r.outcomes = append(r.outcomes, o)
		if r.runs == nil {
			r.runs = make(map[Outcome][]uint64)
		}
		r.runs[o] = append(r.runs[o], playback)
		r.mu.Unlock()
	})
}

func (r *recorder) snapshot() ([]int, []Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.fired...), append([]Outcome(nil), r.outcomes...)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFinitePass(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		s := New(rec.frames(3, 10*time.Millisecond, 20*time.Millisecond), Options{})
		rec.attach(s)

		begin := time.Now()
		if !s.StartAt(0) {
			t.Fatal("StartAt on idle scenario returned false")
		}
		if !s.Playing() {
			t.Error("Expected playing after start")
		}
		<-s.Done()

		if elapsed := time.Since(begin); elapsed != 90*time.Millisecond {
			t.Errorf("Expected pass to take 90ms, got %v", elapsed)
		}

		fired, outcomes := rec.snapshot()
		if !equalInts(fired, []int{0, 1, 2}) {
			t.Errorf("Expected frames [0 1 2], got %v", fired)
		}
		if len(outcomes) != 1 || outcomes[0] != Completed {
			t.Errorf("Expected one completed pass, got %v", outcomes)
		}
		if s.Playing() {
			t.Error("Finite scenario still playing after its pass")
		}
		if s.Step() != 0 {
			t.Errorf("Expected step 0, got %d", s.Step())
		}
		if n := s.pendingWaits(); n != 0 {
			t.Errorf("Expected no pending waits, got %d", n)
		}
	})
}

func TestCallbackTiming(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		begin := time.Now()
		var at []time.Duration
		frames := []Frame{
			{Delay: 50 * time.Millisecond, Duration: 100 * time.Millisecond, Callback: func() { at = append(at, time.Since(begin)) }},
			{Delay: 0, Duration: 10 * time.Millisecond, Callback: func() { at = append(at, time.Since(begin)) }},
			{Delay: 25 * time.Millisecond, Callback: func() { at = append(at, time.Since(begin)) }},
		}
		s := New(frames, Options{})
		s.Start()
		<-s.Done()

		want := []time.Duration{50 * time.Millisecond, 150 * time.Millisecond, 185 * time.Millisecond}
		if len(at) != len(want) {
			t.Fatalf("Expected %d callbacks, got %d", len(want), len(at))
		}
		for i := range want {
			if at[i] != want[i] {
				t.Errorf("Frame %d: expected to fire at %v, got %v", i, want[i], at[i])
			}
		}
	})
}

func TestInfiniteUntilStop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		s := New(rec.frames(2, 0, 50*time.Millisecond), Options{Infinity: true})
		rec.attach(s)

		s.Start()
		time.Sleep(275 * time.Millisecond)

		fired, _ := rec.snapshot()
		if len(fired) != 6 {
			t.Errorf("Expected 6 callbacks after 275ms, got %d (%v)", len(fired), fired)
		}

		s.Stop()
		if s.Playing() {
			t.Error("Expected idle after stop")
		}
		if n := s.pendingWaits(); n != 0 {
			t.Errorf("Expected stop to clear pending waits, got %d", n)
		}

		time.Sleep(time.Second)
		<-s.Done()

		after, outcomes := rec.snapshot()
		if len(after) != len(fired) {
			t.Errorf("Callbacks fired after stop: %v", after[len(fired):])
		}
		want := []Outcome{Completed, Completed, Aborted}
		if len(outcomes) != len(want) {
			t.Fatalf("Expected outcomes %v, got %v", want, outcomes)
		}
		for i := range want {
			if outcomes[i] != want[i] {
				t.Errorf("Pass %d: expected %v, got %v", i, want[i], outcomes[i])
			}
		}
		if s.Step() != 0 {
			t.Errorf("Expected step reset after aborted pass, got %d", s.Step())
		}
	})
}

func TestStopDuringDelay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		s := New(rec.frames(1, 100*time.Millisecond, 0), Options{})
		rec.attach(s)

		s.Start()
		time.Sleep(50 * time.Millisecond)
		s.Stop()
		time.Sleep(200 * time.Millisecond)
		<-s.Done()

		fired, outcomes := rec.snapshot()
		if len(fired) != 0 {
			t.Errorf("Callback fired after stop: %v", fired)
		}
		if len(outcomes) != 1 || outcomes[0] != Aborted {
			t.Errorf("Expected one aborted pass, got %v", outcomes)
		}
	})
}

func TestStopIsIdempotent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		s := New(rec.frames(2, 10*time.Millisecond, 10*time.Millisecond), Options{Infinity: true})
		rec.attach(s)

		s.Stop()
		s.Start()
		time.Sleep(5 * time.Millisecond)
		s.Stop()
		s.Stop()
		<-s.Done()

		rec.mu.Lock()
		stops := rec.stops
		rec.mu.Unlock()
		if stops != 3 {
			t.Errorf("Expected stop hook to fire 3 times, got %d", stops)
		}
		if n := s.pendingWaits(); n != 0 {
			t.Errorf("Expected no pending waits, got %d", n)
		}
	})
}

func TestStartGuard(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		s := New(rec.frames(2, 10*time.Millisecond, 10*time.Millisecond), Options{})
		rec.attach(s)

		if !s.Start() {
			t.Fatal("First start returned false")
		}
		if s.Start() {
			t.Error("Second start while playing returned true")
		}
		if s.StartAt(1) {
			t.Error("StartAt while playing returned true")
		}
		<-s.Done()

		fired, outcomes := rec.snapshot()
		if rec.starts != 1 {
			t.Errorf("Expected start hook once, got %d", rec.starts)
		}
		if !equalInts(fired, []int{0, 1}) {
			t.Errorf("Expected frames [0 1], got %v", fired)
		}
		if len(outcomes) != 1 {
			t.Errorf("Expected one pass, got %v", outcomes)
		}
	})
}

func TestStartAtAndResume(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		s := New(rec.frames(3, 10*time.Millisecond, 0), Options{})
		rec.attach(s)

		s.StartAt(2)
		<-s.Done()
		fired, _ := rec.snapshot()
		if !equalInts(fired, []int{2}) {
			t.Errorf("StartAt(2): expected [2], got %v", fired)
		}

		// out of range steps are clamped
		s.StartAt(99)
		<-s.Done()
		s.StartAt(-3)
		<-s.Done()
		fired, outcomes := rec.snapshot()
		if !equalInts(fired, []int{2, 0, 1, 2}) {
			t.Errorf("Expected [2 0 1 2], got %v", fired)
		}
		if len(outcomes) != 3 {
			t.Errorf("Expected three passes, got %v", outcomes)
		}
	})
}

func TestRestart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		s := New(rec.frames(3, 10*time.Millisecond, 0), Options{})
		rec.attach(s)

		s.Start()
		time.Sleep(15 * time.Millisecond)
		if s.Step() != 1 {
			t.Errorf("Expected step 1, got %d", s.Step())
		}
		if !s.Restart() {
			t.Fatal("Restart returned false")
		}
		<-s.Done()

		fired, outcomes := rec.snapshot()
		if !equalInts(fired, []int{0, 0, 1, 2}) {
			t.Errorf("Expected [0 0 1 2], got %v", fired)
		}
		var completed, aborted int
		for _, o := range outcomes {
			switch o {
			case Completed:
				completed++
			case Aborted:
				aborted++
			}
		}
		if completed != 1 || aborted != 1 {
			t.Errorf("Expected one completed and one aborted pass, got %v", outcomes)
		}
		if rec.starts != 2 || rec.stops != 1 {
			t.Errorf("Expected 2 starts and 1 stop, got %d and %d", rec.starts, rec.stops)
		}

		// the aborted pass is reported against the superseded run
		if s.Playback() != 2 {
			t.Errorf("Expected playback 2, got %d", s.Playback())
		}
		rec.mu.Lock()
		defer rec.mu.Unlock()
		if runs := rec.runs[Aborted]; len(runs) != 1 || runs[0] != 1 {
			t.Errorf("Expected the aborted pass on playback 1, got %v", runs)
		}
		if runs := rec.runs[Completed]; len(runs) != 1 || runs[0] != 2 {
			t.Errorf("Expected the completed pass on playback 2, got %v", runs)
		}
	})
}

func TestEmptyScenario(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		for _, infinity := range []bool{false, true} {
			rec := &recorder{}
			s := New(nil, Options{Infinity: infinity})
			rec.attach(s)

			s.Start()
			<-s.Done()

			_, outcomes := rec.snapshot()
			if len(outcomes) != 1 || outcomes[0] != Completed {
				t.Errorf("infinity=%v: expected one completed pass, got %v", infinity, outcomes)
			}
			if s.Playing() {
				t.Errorf("infinity=%v: still playing", infinity)
			}
		}
	})
}

func TestHooksMayControlPlayback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		s := New(rec.frames(1, 10*time.Millisecond, 10*time.Millisecond), Options{})

		passes := 0
		s.OnEnd(func(s *Scenario, _ uint64, _ Outcome) {
			passes++
			if passes < 3 {
				s.Start()
			}
		})

		s.Start()
		time.Sleep(time.Second)
		<-s.Done()

		fired, _ := rec.snapshot()
		if passes != 3 || len(fired) != 3 {
			t.Errorf("Expected 3 chained passes, got %d passes and %d callbacks", passes, len(fired))
		}
	})
}

func TestSchedulerSlots(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var s scheduler

		first, err := s.arm(phaseDelay, time.Second)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.arm(phaseDelay, time.Second); !errors.Is(err, errSlotBusy) {
			t.Errorf("Expected errSlotBusy, got %v", err)
		}
		if _, err := s.arm(phaseDuration, time.Second); err != nil {
			t.Errorf("Duration slot should be free: %v", err)
		}
		if s.pending() != 2 {
			t.Errorf("Expected 2 pending, got %d", s.pending())
		}

		if n := s.cancelAll(); n != 2 {
			t.Errorf("Expected 2 cancelled, got %d", n)
		}
		select {
		case <-first.cancel:
		default:
			t.Error("cancel channel not closed")
		}

		second, _ := s.arm(phaseDelay, time.Second)
		// releasing a stale wait leaves the newer one armed
		s.release(phaseDelay, first)
		if s.pending() != 1 {
			t.Errorf("Stale release freed the slot")
		}
		s.release(phaseDelay, second)
		if s.pending() != 0 {
			t.Errorf("Expected empty scheduler, got %d", s.pending())
		}
	})
}
