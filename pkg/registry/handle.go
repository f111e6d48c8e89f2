package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Member is anything the registry can track and tear down.
type Member interface {
	// ID uniquely identifies the member within a registry.
	ID() string

	// ProcessID returns the OS process to kill, or a value <= 0 for none.
	ProcessID() int

	// MarkDisposed flips the disposed flag and reports whether this call
	// was the one that flipped it.
	MarkDisposed() bool

	// Release frees non-process resources such as the driver connection.
	Release()
}

// Handle is a ready-made Member. Embed it in a session type or use it
// directly with a release callback.
type Handle struct {
	id       string
	pid      int
	created  time.Time
	disposed atomic.Bool

	releaseOnce sync.Once
	release     func()
}

// NewHandle returns a handle for pid with a fresh ID. release may be nil.
func NewHandle(pid int, release func()) *Handle {
	return &Handle{
		id:      uuid.NewString(),
		pid:     pid,
		created: time.Now(),
		release: release,
	}
}

func (h *Handle) ID() string {
	return h.id
}

func (h *Handle) ProcessID() int {
	return h.pid
}

// CreatedAt returns when the handle was made.
func (h *Handle) CreatedAt() time.Time {
	return h.created
}

func (h *Handle) MarkDisposed() bool {
	return h.disposed.CompareAndSwap(false, true)
}

// Disposed reports whether the handle has been terminated. Once true it
// stays true.
func (h *Handle) Disposed() bool {
	return h.disposed.Load()
}

// Release runs the release callback at most once.
func (h *Handle) Release() {
	h.releaseOnce.Do(func() {
		if h.release != nil {
			h.release()
		}
	})
}
