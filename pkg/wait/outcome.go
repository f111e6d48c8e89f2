package wait

import "github.com/entrhq/uchrome/pkg/driver"

// Status is the result of one evaluation of a Condition.
type Status int

const (
	// NotReady means the condition is not met yet.
	NotReady Status = iota

	// Found means the condition is met and Outcome.Value is set.
	Found

	// Transient means reading the page failed. It is retried like NotReady.
	Transient
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case Transient:
		return "transient"
	default:
		return "not-ready"
	}
}

// Outcome is what a Condition reports for a single attempt.
type Outcome[T any] struct {
	Status Status
	Value  T
	Err    error
}

// Ready reports a met condition carrying v.
func Ready[T any](v T) Outcome[T] {
	return Outcome[T]{Status: Found, Value: v}
}

// Pending reports a condition that is not met yet.
func Pending[T any]() Outcome[T] {
	return Outcome[T]{Status: NotReady}
}

// Failed reports a transient failure to read the page.
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Status: Transient, Err: err}
}

// Condition checks the page once. It must not block for long; the Poller
// owns the retry cadence.
type Condition[T any] func(d driver.Driver) Outcome[T]
