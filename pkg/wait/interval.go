package wait

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Default pauses between attempts
const (
	// DefaultJitterMin and DefaultJitterMax bound the randomized pause used
	// when a Poller has no Interval.
	DefaultJitterMin = 321 * time.Millisecond
	DefaultJitterMax = 1234 * time.Millisecond

	// FineInterval is the short fixed pause used by the condition catalogue.
	FineInterval = 10 * time.Millisecond

	// URLCheckInterval is the cadence of URLChanged.
	URLCheckInterval = 100 * time.Millisecond
)

// Interval decides how long a poll loop pauses between two attempts.
type Interval interface {
	// Sequence returns a fresh pause generator for one poll loop. Generators
	// are not shared between loops, so an Interval may be used concurrently.
	Sequence() func() time.Duration
}

type fixed time.Duration

// Fixed pauses d between every attempt.
func Fixed(d time.Duration) Interval {
	if d < 0 {
		d = 0
	}
	return fixed(d)
}

func (f fixed) Sequence() func() time.Duration {
	return func() time.Duration { return time.Duration(f) }
}

type backoffInterval struct {
	initial    time.Duration
	min        time.Duration
	max        time.Duration
	multiplier float64
	factor     float64
}

// Jitter pauses a random duration in [lo, hi] between attempts.
func Jitter(lo, hi time.Duration) Interval {
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi <= 0 {
		return Fixed(0)
	}
	return backoffInterval{
		initial:    (lo + hi) / 2,
		min:        lo,
		max:        hi,
		multiplier: 1,
		factor:     float64(hi-lo) / float64(hi+lo),
	}
}

// DefaultJitter is Jitter(DefaultJitterMin, DefaultJitterMax).
func DefaultJitter() Interval {
	return Jitter(DefaultJitterMin, DefaultJitterMax)
}

// Exponential grows the pause from initial up to ceiling, with 20% jitter.
func Exponential(initial, ceiling time.Duration) Interval {
	if initial <= 0 {
		initial = FineInterval
	}
	if ceiling < initial {
		ceiling = initial
	}
	return backoffInterval{
		initial:    initial,
		max:        ceiling,
		multiplier: 2,
		factor:     0.2,
	}
}

func (b backoffInterval) Sequence() func() time.Duration {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.initial
	eb.MaxInterval = b.max
	eb.Multiplier = b.multiplier
	eb.RandomizationFactor = b.factor
	eb.Reset()

	return func() time.Duration {
		d := eb.NextBackOff()
		if d > b.max {
			d = b.max
		}
		if d < b.min {
			d = b.min
		}
		return d
	}
}
