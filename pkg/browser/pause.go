package browser

import (
	"time"

	"github.com/entrhq/uchrome/pkg/wait"
)

// Sleep pauses for a random duration within the session's pause bounds
// (321ms to 1234ms by default).
func (s *Session) Sleep() {
	s.SleepBetween(s.pauseMin, s.pauseMax)
}

// SleepFor pauses for d.
func (s *Session) SleepFor(d time.Duration) {
	if d <= 0 {
		return
	}
	s.Clock().Sleep(d)
}

// SleepBetween pauses for a random duration in [lo, hi].
func (s *Session) SleepBetween(lo, hi time.Duration) {
	s.SleepFor(wait.Jitter(lo, hi).Sequence()())
}
