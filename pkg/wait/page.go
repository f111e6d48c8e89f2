package wait

import (
	"time"

	"github.com/gobwas/glob"

	"github.com/entrhq/uchrome/pkg/driver"
)

// URLChanged snapshots the current URL and checks it every URLCheckInterval
// until it differs or timeout elapses. It reports whether the URL changed.
// A URL that cannot be read counts as unchanged.
func (w *Waiter) URLChanged(timeout time.Duration) (changed bool) {
	defer func() {
		if r := recover(); r != nil {
			debugLog.Warnf("url-changed aborted: %v", r)
			changed = false
		}
	}()

	before, err := w.driver.CurrentURL()
	if err != nil {
		debugLog.Debugf("url-changed: cannot read initial url: %v", err)
		return false
	}

	start := w.clock.Now()
	for {
		w.clock.Sleep(URLCheckInterval)
		if now, err := w.driver.CurrentURL(); err == nil && now != before {
			return true
		}
		if w.clock.Now().Sub(start) >= timeout {
			return false
		}
	}
}

// URLMatches waits until the current URL matches the glob pattern, where
// '*' does not cross '/' and '**' does. An invalid pattern never matches.
func (w *Waiter) URLMatches(pattern string, timeout time.Duration) bool {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		debugLog.Warnf("url-matches: invalid pattern %q: %v", pattern, err)
		return false
	}
	_, ok := Until(w, "url-matches "+pattern, timeout, func(d driver.Driver) Outcome[string] {
		url, err := d.CurrentURL()
		if err != nil {
			return Failed[string](err)
		}
		if !g.Match(url) {
			return Pending[string]()
		}
		return Ready(url)
	})
	return ok
}

// ScriptTrue waits until the script body returns the boolean true.
func (w *Waiter) ScriptTrue(body string, timeout time.Duration) bool {
	_, ok := Until(w, "script-true", timeout, func(d driver.Driver) Outcome[struct{}] {
		v, err := d.ExecuteScript(body)
		if err != nil {
			return Failed[struct{}](err)
		}
		if b, isBool := v.(bool); isBool && b {
			return Ready(struct{}{})
		}
		return Pending[struct{}]()
	})
	return ok
}
