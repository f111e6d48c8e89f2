package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/uchrome/pkg/config"
	"github.com/entrhq/uchrome/pkg/driver"
	pwdriver "github.com/entrhq/uchrome/pkg/driver/playwright"
	roddriver "github.com/entrhq/uchrome/pkg/driver/rod"
	"github.com/entrhq/uchrome/pkg/logging"
	"github.com/entrhq/uchrome/pkg/registry"
	"github.com/entrhq/uchrome/pkg/wait"
)

var debugLog *logging.Logger

func init() {
	debugLog = logging.MustNew("browser")
}

// ErrNoCookieJar is returned by cookie helpers when the driver keeps no jar.
var ErrNoCookieJar = errors.New("driver does not support cookies")

// DefaultRegistry tracks sessions created without WithRegistry.
var DefaultRegistry = registry.New()

// DisposeAll kills every session in DefaultRegistry.
func DisposeAll() {
	DefaultRegistry.TerminateAll()
}

// Shutdown kills every session in DefaultRegistry and makes later
// NewSession and Launch calls fail. Call it from signal handlers.
func Shutdown() {
	DefaultRegistry.Close()
}

// Session is one live browser: the driver, its OS process and the waits
// bound to it. Sessions register themselves on creation and leave the
// registry on Close.
type Session struct {
	*registry.Handle
	*wait.Waiter

	drv          driver.Driver
	registry     *registry.Registry
	timeout      time.Duration
	clickTimeout time.Duration
	pauseMin     time.Duration
	pauseMax     time.Duration
}

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	registry     *registry.Registry
	clock        wait.Clock
	interval     wait.Interval
	timeout      time.Duration
	clickTimeout time.Duration
	pauseMin     time.Duration
	pauseMax     time.Duration
	onRelease    []func()
}

// WithRegistry registers the session in r instead of DefaultRegistry.
func WithRegistry(r *registry.Registry) Option {
	return func(c *sessionConfig) { c.registry = r }
}

// WithClock sets the time source for waits and pauses.
func WithClock(clock wait.Clock) Option {
	return func(c *sessionConfig) { c.clock = clock }
}

// WithPollInterval sets the pause between wait attempts.
func WithPollInterval(i wait.Interval) Option {
	return func(c *sessionConfig) { c.interval = i }
}

// WithTimeouts sets the default and click wait budgets.
func WithTimeouts(timeout, click time.Duration) Option {
	return func(c *sessionConfig) {
		c.timeout = timeout
		c.clickTimeout = click
	}
}

// WithPause sets the bounds of Sleep's random pause.
func WithPause(lo, hi time.Duration) Option {
	return func(c *sessionConfig) {
		c.pauseMin = lo
		c.pauseMax = hi
	}
}

// OnRelease adds a cleanup step run after the driver is closed.
func OnRelease(fn func()) Option {
	return func(c *sessionConfig) { c.onRelease = append(c.onRelease, fn) }
}

func defaultSessionConfig() *sessionConfig {
	c := &sessionConfig{
		registry:     DefaultRegistry,
		clock:        wait.SystemClock,
		interval:     wait.Fixed(wait.FineInterval),
		timeout:      wait.DefaultTimeout,
		clickTimeout: wait.DefaultClickTimeout,
		pauseMin:     wait.DefaultJitterMin,
		pauseMax:     wait.DefaultJitterMax,
	}
	if w := config.GetWait(); w != nil {
		c.timeout, c.clickTimeout = w.Timeouts()
		c.interval = wait.Fixed(w.Interval())
		c.pauseMin, c.pauseMax = w.Jitter()
	}
	return c
}

// NewSession wraps an already connected driver and registers it.
func NewSession(d driver.Driver, opts ...Option) (*Session, error) {
	if d == nil {
		return nil, fmt.Errorf("new session: nil driver")
	}
	c := defaultSessionConfig()
	for _, opt := range opts {
		opt(c)
	}

	release := func() {
		if err := d.Close(); err != nil {
			debugLog.Debugf("close driver: %v", err)
		}
		for _, fn := range c.onRelease {
			fn()
		}
	}

	s := &Session{
		Handle:       registry.NewHandle(d.ProcessID(), release),
		Waiter:       wait.New(d, wait.WithClock(c.clock), wait.WithInterval(c.interval)),
		drv:          d,
		registry:     c.registry,
		timeout:      c.timeout,
		clickTimeout: c.clickTimeout,
		pauseMin:     c.pauseMin,
		pauseMax:     c.pauseMax,
	}
	if err := s.registry.Register(s); err != nil {
		s.Release()
		return nil, err
	}
	debugLog.Infof("session %s started (pid %d)", s.ID(), s.ProcessID())
	return s, nil
}

// Launch starts Chrome, connects the selected backend and registers the
// session.
func Launch(opts LaunchOptions, sessionOpts ...Option) (*Session, error) {
	if err := opts.writeProxyExtension(); err != nil {
		return nil, err
	}

	c := defaultSessionConfig()
	for _, opt := range sessionOpts {
		opt(c)
	}

	proc, err := roddriver.Launch(roddriver.LaunchOptions{
		Bin:         opts.ChromeBinary,
		Headless:    opts.Hidden,
		UserDataDir: opts.UserDataDir,
		Args:        opts.ChromeArgs(),
	})
	if err != nil {
		return nil, err
	}

	var d driver.Driver
	switch opts.Backend {
	case "", BackendRod:
		d, err = roddriver.Connect(proc.ControlURL, proc.PID, roddriver.WithActionTimeout(c.clickTimeout))
	case BackendPlaywright:
		d, err = pwdriver.Connect(proc.ControlURL, proc.PID, pwdriver.WithActionTimeout(c.clickTimeout))
	default:
		err = fmt.Errorf("unknown backend %q", opts.Backend)
	}
	if err != nil {
		killOrphan(proc.PID)
		proc.Cleanup()
		return nil, err
	}

	s, err := NewSession(d, append(sessionOpts, OnRelease(proc.Cleanup))...)
	if err != nil {
		// The failed session already closed the driver and cleaned up.
		killOrphan(proc.PID)
		return nil, err
	}
	return s, nil
}

// killOrphan kills a Chrome that never made it into a registry.
func killOrphan(pid int) {
	if err := (registry.TreeKiller{}).Kill(pid); err != nil {
		debugLog.Warnf("kill orphaned chrome (pid %d): %v", pid, err)
	}
}

// Close kills the browser and releases the session. Safe to call twice.
func (s *Session) Close() {
	s.registry.Terminate(s)
}

// Timeout is the default budget for waits started by helpers.
func (s *Session) Timeout() time.Duration {
	return s.timeout
}

// ClickTimeout is the budget for WaitToClick helpers.
func (s *Session) ClickTimeout() time.Duration {
	return s.clickTimeout
}
