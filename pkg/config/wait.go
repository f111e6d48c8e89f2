package config

import (
	"fmt"
	"sync"
	"time"
)

// SectionIDWait is the identifier for the polling section
const SectionIDWait = "wait"

const (
	defaultWaitTimeout  = 60 * time.Second
	defaultClickTimeout = 30 * time.Second
	defaultPollInterval = 10 * time.Millisecond
	defaultJitterMin    = 321 * time.Millisecond
	defaultJitterMax    = 1234 * time.Millisecond
)

// WaitSection tunes the polling waits.
type WaitSection struct {
	Timeout      time.Duration `json:"timeout"`
	ClickTimeout time.Duration `json:"click_timeout"`
	PollInterval time.Duration `json:"poll_interval"`
	JitterMin    time.Duration `json:"jitter_min"`
	JitterMax    time.Duration `json:"jitter_max"`
	mu           sync.RWMutex
}

// NewWaitSection returns the section with defaults.
func NewWaitSection() *WaitSection {
	s := &WaitSection{}
	s.Reset()
	return s
}

func (s *WaitSection) ID() string { return SectionIDWait }

func (s *WaitSection) Title() string { return "Waits" }

func (s *WaitSection) Description() string {
	return "Timeouts and polling cadence for element and page waits."
}

func (s *WaitSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"timeout":       s.Timeout.String(),
		"click_timeout": s.ClickTimeout.String(),
		"poll_interval": s.PollInterval.String(),
		"jitter_min":    s.JitterMin.String(),
		"jitter_max":    s.JitterMax.String(),
	}
}

func (s *WaitSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var target *time.Duration
		switch key {
		case "timeout":
			target = &s.Timeout
		case "click_timeout":
			target = &s.ClickTimeout
		case "poll_interval":
			target = &s.PollInterval
		case "jitter_min":
			target = &s.JitterMin
		case "jitter_max":
			target = &s.JitterMax
		default:
			continue
		}
		d, err := asDuration(key, value)
		if err != nil {
			return err
		}
		*target = d
	}
	return nil
}

func (s *WaitSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Timeout <= 0 || s.ClickTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive, got timeout=%v click_timeout=%v", s.Timeout, s.ClickTimeout)
	}
	if s.PollInterval <= 0 || s.PollInterval > s.Timeout {
		return fmt.Errorf("poll_interval must be between 0 and timeout, got %v", s.PollInterval)
	}
	if s.JitterMin < 0 || s.JitterMax < s.JitterMin {
		return fmt.Errorf("jitter bounds must satisfy 0 <= min <= max, got %v..%v", s.JitterMin, s.JitterMax)
	}
	return nil
}

func (s *WaitSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Timeout = defaultWaitTimeout
	s.ClickTimeout = defaultClickTimeout
	s.PollInterval = defaultPollInterval
	s.JitterMin = defaultJitterMin
	s.JitterMax = defaultJitterMax
}

// Timeouts returns the default and click timeouts.
func (s *WaitSection) Timeouts() (time.Duration, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Timeout, s.ClickTimeout
}

// Jitter returns the bounds of the random pause.
func (s *WaitSection) Jitter() (time.Duration, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.JitterMin, s.JitterMax
}

// Interval returns the fine polling cadence.
func (s *WaitSection) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.PollInterval
}
