package scenario

import (
	"errors"
	"fmt"
	"time"
)

type phase int

const (
	phaseDelay phase = iota
	phaseDuration
)

func (p phase) String() string {
	if p == phaseDelay {
		return "delay"
	}
	return "duration"
}

var errSlotBusy = errors.New("wait already pending")

// wait is one armed timer together with the channel that aborts it
type wait struct {
	timer  *time.Timer
	cancel chan struct{}
}

// scheduler holds at most one pending wait per phase.
// All methods must be called with the owning Scenario's mutex held.
type scheduler struct {
	slots [2]*wait
}

func (s *scheduler) arm(p phase, d time.Duration) (*wait, error) {
	if s.slots[p] != nil {
		return nil, fmt.Errorf("%s slot: %w", p, errSlotBusy)
	}
	w := &wait{
		timer:  time.NewTimer(d),
		cancel: make(chan struct{}),
	}
	s.slots[p] = w
	return w, nil
}

// release frees the slot if it still holds w
func (s *scheduler) release(p phase, w *wait) {
	w.timer.Stop()
	if s.slots[p] == w {
		s.slots[p] = nil
	}
}

// cancelAll aborts every pending wait and returns how many were cancelled
func (s *scheduler) cancelAll() int {
	n := 0
	for i, w := range s.slots {
		if w == nil {
			continue
		}
		w.timer.Stop()
		close(w.cancel)
		s.slots[i] = nil
		n++
	}
	return n
}

func (s *scheduler) pending() int {
	n := 0
	for _, w := range s.slots {
		if w != nil {
			n++
		}
	}
	return n
}
