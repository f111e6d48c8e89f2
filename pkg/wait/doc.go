// Package wait synchronizes with pages that change asynchronously.
//
// A Condition checks the page once and reports an Outcome: Found with a
// value, NotReady, or Transient when the check itself failed. Poll drives a
// Condition on an Interval until it is Found or a timeout elapses. Transient
// failures are expected on a live page and are retried, never surfaced.
//
// Waiter builds the usual catalogue on top of Poll: element exists, is
// displayed, is enabled, no longer exists, no longer displayed, one of
// several selectors resolves, and URL changes. A negative result (nil, an
// empty slice, or false) means "not met within the timeout".
//
//	w := wait.New(drv)
//	if btn := w.ElementDisplayed(driver.CSS("#submit"), wait.DefaultTimeout); btn != nil {
//	    _ = btn.Click()
//	}
//
// Waits take no context: they end on success or on timeout only.
package wait
