package wait

import (
	"fmt"
	"time"

	"github.com/entrhq/uchrome/pkg/driver"
)

// Match filters resolved elements. Errors and panics count as "not ready".
type Match func(e driver.Element) bool

// Waiter runs the condition catalogue against one driver.
//
// Every method swallows all failures and reports a negative result (nil,
// an empty slice or false) when the condition is not met within timeout.
type Waiter struct {
	driver   driver.Driver
	interval Interval
	clock    Clock
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithInterval overrides the pause between attempts (default: Fixed(FineInterval)).
func WithInterval(i Interval) Option {
	return func(w *Waiter) {
		if i != nil {
			w.interval = i
		}
	}
}

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(w *Waiter) {
		if c != nil {
			w.clock = c
		}
	}
}

// New returns a Waiter for d.
func New(d driver.Driver, opts ...Option) *Waiter {
	w := &Waiter{
		driver:   d,
		interval: Fixed(FineInterval),
		clock:    SystemClock,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Driver returns the driver the Waiter polls.
func (w *Waiter) Driver() driver.Driver {
	return w.driver
}

// Clock returns the Waiter's time source.
func (w *Waiter) Clock() Clock {
	return w.clock
}

func (w *Waiter) poller(name string, timeout time.Duration) Poller {
	return Poller{Name: name, Timeout: timeout, Interval: w.interval, Clock: w.clock}
}

// Until polls an arbitrary condition with the Waiter's cadence and clock.
func Until[T any](w *Waiter, name string, timeout time.Duration, cond Condition[T]) (v T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			debugLog.Warnf("%s aborted: %v", name, r)
			var zero T
			v, ok = zero, false
		}
	}()
	return Poll(w.poller(name, timeout), w.driver, cond)
}

// ElementExists waits until by resolves at least one element (hidden ones
// included) and returns the first.
func (w *Waiter) ElementExists(by driver.By, timeout time.Duration) driver.Element {
	e, _ := Until(w, "element-exists "+by.String(), timeout, func(d driver.Driver) Outcome[driver.Element] {
		elems, err := d.FindElements(by)
		if err != nil {
			return Failed[driver.Element](err)
		}
		if len(elems) == 0 {
			return Pending[driver.Element]()
		}
		return Ready(elems[0])
	})
	return e
}

// ElementMatching waits until an element resolved by by satisfies match and
// returns the first one that does.
func (w *Waiter) ElementMatching(by driver.By, match Match, timeout time.Duration) driver.Element {
	e, _ := Until(w, "element-matching "+by.String(), timeout, firstWhere(by, func(e driver.Element) (bool, error) {
		return match(e), nil
	}))
	return e
}

// OneOfExists waits until any of bys resolves. Selectors are tried in order
// on every attempt, so an earlier selector wins whenever both resolve.
func (w *Waiter) OneOfExists(bys []driver.By, timeout time.Duration) driver.Element {
	e, _ := Until(w, fmt.Sprintf("one-of-exists %v", bys), timeout, func(d driver.Driver) Outcome[driver.Element] {
		for _, by := range bys {
			elems, err := d.FindElements(by)
			if err != nil || len(elems) == 0 {
				continue
			}
			return Ready(elems[0])
		}
		return Pending[driver.Element]()
	})
	return e
}

// ElementsExist waits until by resolves at least one element and returns
// the whole current set.
func (w *Waiter) ElementsExist(by driver.By, timeout time.Duration) []driver.Element {
	elems, _ := Until(w, "elements-exist "+by.String(), timeout, allWhere(by, nil))
	return elems
}

// ElementsMatching waits until at least one element resolved by by satisfies
// match and returns every element that does.
func (w *Waiter) ElementsMatching(by driver.By, match Match, timeout time.Duration) []driver.Element {
	elems, _ := Until(w, "elements-matching "+by.String(), timeout, allWhere(by, func(e driver.Element) (bool, error) {
		return match(e), nil
	}))
	return elems
}

// ElementNotExists waits until by resolves nothing.
func (w *Waiter) ElementNotExists(by driver.By, timeout time.Duration) bool {
	_, ok := Until(w, "element-not-exists "+by.String(), timeout, func(d driver.Driver) Outcome[struct{}] {
		elems, err := d.FindElements(by)
		if err != nil {
			return Failed[struct{}](err)
		}
		if len(elems) > 0 {
			return Pending[struct{}]()
		}
		return Ready(struct{}{})
	})
	return ok
}

// ElementDisplayed waits until an element resolved by by is visible.
func (w *Waiter) ElementDisplayed(by driver.By, timeout time.Duration) driver.Element {
	e, _ := Until(w, "element-displayed "+by.String(), timeout, firstWhere(by, displayed))
	return e
}

// ElementDisplayedMatching waits until a visible element resolved by by
// satisfies match.
func (w *Waiter) ElementDisplayedMatching(by driver.By, match Match, timeout time.Duration) driver.Element {
	e, _ := Until(w, "element-displayed-matching "+by.String(), timeout, firstWhere(by, func(e driver.Element) (bool, error) {
		ok, err := displayed(e)
		if err != nil || !ok {
			return false, err
		}
		return match(e), nil
	}))
	return e
}

// ElementsDisplayed waits until any element resolved by by is visible and
// returns the visible ones.
func (w *Waiter) ElementsDisplayed(by driver.By, timeout time.Duration) []driver.Element {
	elems, _ := Until(w, "elements-displayed "+by.String(), timeout, allWhere(by, displayed))
	return elems
}

// OneOfDisplayed waits until the first element of any of bys is visible.
// Selectors are tried in order on every attempt.
func (w *Waiter) OneOfDisplayed(bys []driver.By, timeout time.Duration) driver.Element {
	e, _ := Until(w, fmt.Sprintf("one-of-displayed %v", bys), timeout, func(d driver.Driver) Outcome[driver.Element] {
		for _, by := range bys {
			elems, err := d.FindElements(by)
			if err != nil || len(elems) == 0 {
				continue
			}
			if ok, err := elems[0].Displayed(); err == nil && ok {
				return Ready(elems[0])
			}
		}
		return Pending[driver.Element]()
	})
	return e
}

// ElementNotDisplayed waits until by resolves nothing or its first element
// is hidden.
func (w *Waiter) ElementNotDisplayed(by driver.By, timeout time.Duration) bool {
	_, ok := Until(w, "element-not-displayed "+by.String(), timeout, func(d driver.Driver) Outcome[struct{}] {
		elems, err := d.FindElements(by)
		if err != nil {
			return Failed[struct{}](err)
		}
		if len(elems) == 0 {
			return Ready(struct{}{})
		}
		visible, err := elems[0].Displayed()
		if err != nil {
			return Failed[struct{}](err)
		}
		if visible {
			return Pending[struct{}]()
		}
		return Ready(struct{}{})
	})
	return ok
}

// ElementNotDisplayedMatching waits until no visible element resolved by by
// satisfies match. It succeeds on the first check when nothing matches.
//
// Unlike every other wait, a negative timeout polls forever. A zero timeout
// still checks once.
func (w *Waiter) ElementNotDisplayedMatching(by driver.By, match Match, timeout time.Duration) (gone bool) {
	defer func() {
		if r := recover(); r != nil {
			debugLog.Warnf("element-not-displayed-matching %s aborted: %v", by, r)
			gone = false
		}
	}()

	cond := firstWhere(by, func(e driver.Element) (bool, error) {
		ok, err := displayed(e)
		if err != nil || !ok {
			return false, err
		}
		return match(e), nil
	})
	next := w.interval.Sequence()
	start := w.clock.Now()
	for {
		out := evaluate(w.driver, cond)
		if out.Status == NotReady {
			return true
		}
		if timeout >= 0 && w.clock.Now().Sub(start) >= timeout {
			return false
		}
		w.clock.Sleep(next())
	}
}

// ElementEnabled waits until the first element resolved by by is enabled.
func (w *Waiter) ElementEnabled(by driver.By, timeout time.Duration) driver.Element {
	e, _ := Until(w, "element-enabled "+by.String(), timeout, func(d driver.Driver) Outcome[driver.Element] {
		elems, err := d.FindElements(by)
		if err != nil {
			return Failed[driver.Element](err)
		}
		if len(elems) == 0 {
			return Pending[driver.Element]()
		}
		enabled, err := elems[0].Enabled()
		if err != nil {
			return Failed[driver.Element](err)
		}
		if !enabled {
			return Pending[driver.Element]()
		}
		return Ready(elems[0])
	})
	return e
}

func displayed(e driver.Element) (bool, error) {
	return e.Displayed()
}

// firstWhere resolves by and returns the first element accepted by pred.
// A pred error fails the whole attempt.
func firstWhere(by driver.By, pred func(driver.Element) (bool, error)) Condition[driver.Element] {
	return func(d driver.Driver) Outcome[driver.Element] {
		elems, err := d.FindElements(by)
		if err != nil {
			return Failed[driver.Element](err)
		}
		for _, e := range elems {
			ok, err := pred(e)
			if err != nil {
				return Failed[driver.Element](err)
			}
			if ok {
				return Ready(e)
			}
		}
		return Pending[driver.Element]()
	}
}

// allWhere resolves by and returns every element accepted by pred (all of
// them when pred is nil), pending while that set is empty.
func allWhere(by driver.By, pred func(driver.Element) (bool, error)) Condition[[]driver.Element] {
	return func(d driver.Driver) Outcome[[]driver.Element] {
		elems, err := d.FindElements(by)
		if err != nil {
			return Failed[[]driver.Element](err)
		}
		if pred == nil {
			if len(elems) == 0 {
				return Pending[[]driver.Element]()
			}
			return Ready(elems)
		}
		var kept []driver.Element
		for _, e := range elems {
			ok, err := pred(e)
			if err != nil {
				return Failed[[]driver.Element](err)
			}
			if ok {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			return Pending[[]driver.Element]()
		}
		return Ready(kept)
	}
}
