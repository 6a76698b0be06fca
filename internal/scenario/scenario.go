// Package scenario plays an ordered list of compiled frames: wait the frame delay,
// fire its callback, wait its duration, advance. Playback is either a single pass
// or repeats until stopped.
package scenario

import (
	"log"
	"sync"
	"time"
)

// Frame is the runtime form of a frame descriptor
type Frame struct {
	Delay    time.Duration
	Duration time.Duration
	Callback func()
}

// Options configures playback
type Options struct {
	// Infinity repeats passes until Stop is called
	Infinity bool
}

// Outcome tells how a pass ended
type Outcome int

const (
	Completed Outcome = iota
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Hook observes a state transition
type Hook func(*Scenario)

// EndHook observes the end of a pass. playback is the number of the run the
// pass belonged to: after Stop and a new start it is older than Playback(),
// and the hook may run after the new run's start hook.
type EndHook func(s *Scenario, playback uint64, outcome Outcome)

// Scenario is a sequencer over compiled frames.
//
// Frame callbacks run on the playback goroutine and must not call Stop,
// Restart or Start; hooks may.
type Scenario struct {
	frames []Frame
	opts   Options

	mu      sync.Mutex
	playing bool
	step    int
	gen     uint64 // incremented by every start; a run acts only while it is current
	done    chan struct{}
	sched   scheduler

	onStart Hook
	onStop  Hook
	onEnd   EndHook

	// fireMu serialises callbacks against Stop
	fireMu sync.Mutex
}

// New creates an idle scenario over frames
func New(frames []Frame, opts Options) *Scenario {
	done := make(chan struct{})
	close(done)
	return &Scenario{
		frames: append([]Frame(nil), frames...),
		opts:   opts,
		done:   done,
	}
}

func (s *Scenario) OnStart(h Hook) {
	s.mu.Lock()
	s.onStart = h
	s.mu.Unlock()
}

func (s *Scenario) OnStop(h Hook) {
	s.mu.Lock()
	s.onStop = h
	s.mu.Unlock()
}

// OnEnd is called after every pass, completed or aborted
func (s *Scenario) OnEnd(h EndHook) {
	s.mu.Lock()
	s.onEnd = h
	s.mu.Unlock()
}

// Playing reports whether a playback is in progress
func (s *Scenario) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Playback is the number of the latest run, starting at 1. Start hooks see
// the number of the run they announce.
func (s *Scenario) Playback() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Step is the index of the next frame to run
func (s *Scenario) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Scenario) Len() int {
	return len(s.frames)
}

// Infinity reports whether passes repeat
func (s *Scenario) Infinity() bool {
	return s.opts.Infinity
}

// Done is closed when the current (or last) playback has finished.
// Before the first start it is already closed.
func (s *Scenario) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Start resumes playback from the current step
func (s *Scenario) Start() bool {
	s.mu.Lock()
	step := s.step
	s.mu.Unlock()
	return s.StartAt(step)
}

// StartAt begins playback at step. It returns false and does nothing while
// a playback is already in progress.
func (s *Scenario) StartAt(step int) bool {
	s.mu.Lock()
	if s.playing {
		s.mu.Unlock()
		return false
	}
	s.step = max(0, min(step, len(s.frames)))
	s.playing = true
	s.gen++
	gen := s.gen
	done := make(chan struct{})
	s.done = done
	onStart := s.onStart
	s.mu.Unlock()

	if onStart != nil {
		onStart(s)
	}

	go s.run(gen, done)
	return true
}

// Stop aborts the playback and cancels pending waits. It fires the stop hook
// on every call, including when the scenario is already idle. Once Stop
// returns no further callback of the aborted playback runs.
func (s *Scenario) Stop() {
	s.fireMu.Lock()
	s.mu.Lock()
	s.playing = false
	s.sched.cancelAll()
	onStop := s.onStop
	s.mu.Unlock()
	s.fireMu.Unlock()

	if onStop != nil {
		onStop(s)
	}
}

// Restart stops a running playback and starts again from the first frame
func (s *Scenario) Restart() bool {
	if s.Playing() {
		s.Stop()
	}
	return s.StartAt(0)
}

func (s *Scenario) run(gen uint64, done chan struct{}) {
	defer close(done)

	for {
		outcome := s.pass(gen)
		last := outcome == Aborted || !s.opts.Infinity || len(s.frames) == 0
		s.endPass(gen, outcome, last)
		if last || !s.active(gen) {
			return
		}
	}
}

func (s *Scenario) pass(gen uint64) Outcome {
	for {
		s.mu.Lock()
		if s.step >= len(s.frames) {
			s.mu.Unlock()
			return Completed
		}
		if !s.activeLocked(gen) {
			s.mu.Unlock()
			return Aborted
		}
		frame := s.frames[s.step]
		s.mu.Unlock()

		if !s.sleep(gen, phaseDelay, frame.Delay) {
			return Aborted
		}
		if !s.fire(gen, frame.Callback) {
			return Aborted
		}
		if !s.sleep(gen, phaseDuration, frame.Duration) {
			return Aborted
		}

		s.mu.Lock()
		if s.gen == gen {
			s.step++
		}
		s.mu.Unlock()
	}
}

func (s *Scenario) endPass(gen uint64, outcome Outcome, last bool) {
	s.mu.Lock()
	if s.gen == gen {
		s.step = 0
		if last {
			s.playing = false
		}
	}
	onEnd := s.onEnd
	s.mu.Unlock()

	if onEnd != nil {
		onEnd(s, gen, outcome)
	}
}

// sleep blocks for d unless the playback is stopped first
func (s *Scenario) sleep(gen uint64, p phase, d time.Duration) bool {
	s.mu.Lock()
	if !s.activeLocked(gen) {
		s.mu.Unlock()
		return false
	}
	w, err := s.sched.arm(p, d)
	s.mu.Unlock()
	if err != nil {
		log.Printf("[!] scenario: %v", err)
		return false
	}

	select {
	case <-w.timer.C:
	case <-w.cancel:
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched.release(p, w)
	return s.activeLocked(gen)
}

func (s *Scenario) fire(gen uint64, callback func()) bool {
	s.fireMu.Lock()
	defer s.fireMu.Unlock()

	if !s.active(gen) {
		return false
	}
	if callback != nil {
		callback()
	}
	return true
}

func (s *Scenario) active(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(gen)
}

func (s *Scenario) activeLocked(gen uint64) bool {
	return s.playing && s.gen == gen
}

// pendingWaits is the number of armed timers
func (s *Scenario) pendingWaits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched.pending()
}
