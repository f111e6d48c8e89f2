// Package registry tracks live browser processes so they can be torn down
// deterministically, one at a time or all at once.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/uchrome/pkg/logging"
)

var debugLog *logging.Logger

func init() {
	debugLog = logging.MustNew("registry")
}

var (
	// ErrAlreadyRegistered is returned when a member ID is already tracked.
	ErrAlreadyRegistered = errors.New("member already registered")

	// ErrDisposed is returned when registering a member that was terminated.
	ErrDisposed = errors.New("member already disposed")

	// ErrClosed is returned when registering into a closed registry.
	ErrClosed = errors.New("registry closed")
)

// disposedReporter is implemented by members that can report their
// disposed flag without flipping it.
type disposedReporter interface {
	Disposed() bool
}

// Registry is a set of live members. The zero value is not usable; call New.
type Registry struct {
	mu      sync.RWMutex
	members map[string]entry
	seq     uint64
	closed  bool
	killer  Killer
	log     *logging.Logger
}

type entry struct {
	member Member
	seq    uint64
}

// Info describes one live member.
type Info struct {
	ID        string
	ProcessID int
}

// Option configures a Registry.
type Option func(*Registry)

// WithKiller replaces the OS tree killer.
func WithKiller(k Killer) Option {
	return func(r *Registry) {
		if k != nil {
			r.killer = k
		}
	}
}

// WithLogger replaces the package logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		members: make(map[string]entry),
		killer:  TreeKiller{},
		log:     debugLog,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register starts tracking m.
func (r *Registry) Register(m Member) error {
	if m == nil {
		return fmt.Errorf("register: nil member")
	}
	if d, ok := m.(disposedReporter); ok && d.Disposed() {
		return fmt.Errorf("register %s: %w", m.ID(), ErrDisposed)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return fmt.Errorf("register %s: %w", m.ID(), ErrClosed)
	}
	if _, exists := r.members[m.ID()]; exists {
		r.mu.Unlock()
		return fmt.Errorf("register %s: %w", m.ID(), ErrAlreadyRegistered)
	}
	r.seq++
	r.members[m.ID()] = entry{member: m, seq: r.seq}
	r.mu.Unlock()

	// A Terminate that ran between the first check and the insert found
	// nothing to delete. MarkDisposed precedes its delete, so the flag is
	// visible here.
	if d, ok := m.(disposedReporter); ok && d.Disposed() {
		r.mu.Lock()
		delete(r.members, m.ID())
		r.mu.Unlock()
		return fmt.Errorf("register %s: %w", m.ID(), ErrDisposed)
	}
	r.log.Debugf("registered %s (pid %d)", m.ID(), m.ProcessID())
	return nil
}

// Terminate disposes m: it is removed from the registry, its process tree
// is killed and its resources are released. Only the first call for a
// member does anything. Terminate never panics; failures are logged.
func (r *Registry) Terminate(m Member) {
	if m == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorf("terminate %s panicked: %v", m.ID(), rec)
		}
	}()

	if !m.MarkDisposed() {
		return
	}

	r.mu.Lock()
	delete(r.members, m.ID())
	r.mu.Unlock()

	if pid := m.ProcessID(); pid > 0 {
		r.kill(m.ID(), pid)
	}
	m.Release()
}

// kill runs the killer for one pid, logging errors and panics.
func (r *Registry) kill(id string, pid int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorf("kill %s (pid %d) panicked: %v", id, pid, rec)
		}
	}()
	if err := r.killer.Kill(pid); err != nil {
		r.log.Warnf("kill %s (pid %d): %v", id, pid, err)
		return
	}
	r.log.Debugf("killed %s (pid %d)", id, pid)
}

// TerminateAll terminates every live member concurrently and returns once
// all of them have been attempted.
func (r *Registry) TerminateAll() {
	snapshot := r.snapshot()
	if len(snapshot) == 0 {
		return
	}
	r.log.Infof("terminating %d live sessions", len(snapshot))

	var g errgroup.Group
	for _, m := range snapshot {
		g.Go(func() error {
			r.Terminate(m)
			return nil
		})
	}
	_ = g.Wait()
}

// Close rejects further registrations and terminates every live member.
// Use it on shutdown so a session that finishes starting afterwards is not
// left running.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.TerminateAll()
}

// Contains reports whether a member with id is live.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[id]
	return ok
}

// Len returns the number of live members.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Live lists the live members in registration order.
func (r *Registry) Live() []Info {
	members := r.snapshot()
	infos := make([]Info, 0, len(members))
	for _, m := range members {
		infos = append(infos, Info{ID: m.ID(), ProcessID: m.ProcessID()})
	}
	return infos
}

func (r *Registry) snapshot() []Member {
	r.mu.RLock()
	entries := make([]entry, 0, len(r.members))
	for _, e := range r.members {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	members := make([]Member, len(entries))
	for i, e := range entries {
		members[i] = e.member
	}
	return members
}
