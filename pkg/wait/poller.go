package wait

import (
	"fmt"
	"time"

	"github.com/entrhq/uchrome/pkg/driver"
	"github.com/entrhq/uchrome/pkg/logging"
)

var debugLog *logging.Logger

func init() {
	debugLog = logging.MustNew("wait")
}

// Default timeouts of the condition catalogue
const (
	DefaultTimeout      = 60 * time.Second
	DefaultClickTimeout = 30 * time.Second
)

// Poller drives a Condition until it is met or Timeout elapses.
// The zero value polls once with the default jittered interval.
type Poller struct {
	// Name labels the poll in debug logs
	Name string

	// Timeout bounds the whole poll. Zero or negative means a single attempt.
	Timeout time.Duration

	// Interval is the pause between attempts (default: DefaultJitter)
	Interval Interval

	// Clock is the time source (default: SystemClock)
	Clock Clock
}

// Poll evaluates cond against d until it reports Found, returning its value
// and true, or until p.Timeout has elapsed, returning the zero value and false.
//
// Errors and panics raised by cond count as transient failures and are
// retried. The pause before an attempt never extends past the deadline and
// an attempt always follows the last pause, so a condition that never holds
// returns between Timeout and Timeout plus one interval.
func Poll[T any](p Poller, d driver.Driver, cond Condition[T]) (T, bool) {
	clock := p.Clock
	if clock == nil {
		clock = SystemClock
	}
	interval := p.Interval
	if interval == nil {
		interval = DefaultJitter()
	}
	next := interval.Sequence()

	start := clock.Now()
	attempts := 0
	var lastErr error
	for {
		attempts++
		out := evaluate(d, cond)
		switch out.Status {
		case Found:
			return out.Value, true
		case Transient:
			lastErr = out.Err
		}

		elapsed := clock.Now().Sub(start)
		if elapsed >= p.Timeout {
			if lastErr != nil {
				debugLog.Debugf("%s timed out after %d attempts in %s (last error: %v)", p.label(), attempts, elapsed, lastErr)
			} else {
				debugLog.Debugf("%s timed out after %d attempts in %s", p.label(), attempts, elapsed)
			}
			var zero T
			return zero, false
		}

		pause := next()
		if remaining := p.Timeout - elapsed; pause > remaining {
			pause = remaining
		}
		clock.Sleep(pause)
	}
}

func (p Poller) label() string {
	if p.Name == "" {
		return "poll"
	}
	return p.Name
}

// evaluate runs cond once, converting a panic into a transient failure.
func evaluate[T any](d driver.Driver, cond Condition[T]) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = Failed[T](fmt.Errorf("condition panicked: %v", r))
		}
	}()
	return cond(d)
}
