package session

import "time"

// DefaultRefreshInterval is the minimum time between two redraws.
const DefaultRefreshInterval = 4 * time.Millisecond

// Scheduler debounces redraws. A redraw never happens sooner than the
// interval after the previous one, and a redraw that was refused is owed
// until the timer path pays it.
type Scheduler struct {
	interval time.Duration
	last     time.Time
	owed     bool
}

// NewScheduler returns an idle scheduler that has never drawn.
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Scheduler{interval: interval}
}

// OnEvent reports whether a redraw may happen now. If not, the redraw
// becomes owed.
func (s *Scheduler) OnEvent(now time.Time) bool {
	if s.due(now) {
		return true
	}
	s.owed = true
	return false
}

// OnTimer reports whether an owed redraw is due.
func (s *Scheduler) OnTimer(now time.Time) bool {
	return s.owed && s.due(now)
}

// Drawn records a completed redraw and returns to idle.
func (s *Scheduler) Drawn(now time.Time) {
	s.last = now
	s.owed = false
}

// Owed reports whether a redraw is pending.
func (s *Scheduler) Owed() bool {
	return s.owed
}

// Wait returns how long until the next redraw is allowed.
func (s *Scheduler) Wait(now time.Time) time.Duration {
	if s.last.IsZero() {
		return 0
	}
	d := s.last.Add(s.interval).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func (s *Scheduler) due(now time.Time) bool {
	return s.last.IsZero() || now.Sub(s.last) >= s.interval
}
