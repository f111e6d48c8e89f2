package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/entrhq/uchrome/pkg/driver"
	"github.com/entrhq/uchrome/pkg/wait"
)

// ErrNoSuchTab is returned when a tab index is out of range.
var ErrNoSuchTab = errors.New("no such tab")

// capability returns the driver as T, or driver.ErrNotSupported.
func capability[T any](s *Session, op string) (T, error) {
	c, ok := s.drv.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: %w", op, driver.ErrNotSupported)
	}
	return c, nil
}

// WindowHandles lists the open tabs, oldest first.
func (s *Session) WindowHandles() ([]string, error) {
	tabs, err := capability[driver.Tabs](s, "window handles")
	if err != nil {
		return nil, err
	}
	return tabs.WindowHandles()
}

// CurrentWindowHandle returns the handle of the tab being driven.
func (s *Session) CurrentWindowHandle() (string, error) {
	tabs, err := capability[driver.Tabs](s, "current window handle")
	if err != nil {
		return "", err
	}
	return tabs.CurrentWindowHandle()
}

// SwitchToWindowHandle drives the tab with handle.
func (s *Session) SwitchToWindowHandle(handle string) error {
	tabs, err := capability[driver.Tabs](s, "switch to window")
	if err != nil {
		return err
	}
	return tabs.SwitchToWindow(handle)
}

// SwitchToTabIndex drives the index-th open tab, counting from 0 in the
// order the tabs were opened.
func (s *Session) SwitchToTabIndex(index int) error {
	handles, err := s.WindowHandles()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(handles) {
		return fmt.Errorf("%w: index %d of %d tabs", ErrNoSuchTab, index, len(handles))
	}
	return s.SwitchToWindowHandle(handles[index])
}

// SwitchToLastTab drives the most recently opened tab.
func (s *Session) SwitchToLastTab() error {
	handles, err := s.WindowHandles()
	if err != nil {
		return err
	}
	return s.SwitchToTabIndex(len(handles) - 1)
}

// OpenLinkInNewTab opens url in a new tab and drives it once it shows up
// in the tab list.
func (s *Session) OpenLinkInNewTab(url string) error {
	tabs, err := capability[driver.Tabs](s, "open link in new tab")
	if err != nil {
		return err
	}
	before, err := tabs.WindowHandles()
	if err != nil {
		return err
	}
	if err := s.NewTab(url); err != nil {
		return err
	}

	handle, ok := wait.Until(s.Waiter, "new-tab", s.timeout, func(driver.Driver) wait.Outcome[string] {
		handles, err := tabs.WindowHandles()
		if err != nil {
			return wait.Failed[string](err)
		}
		if h := newest(before, handles); h != "" {
			return wait.Ready(h)
		}
		return wait.Pending[string]()
	})
	if !ok {
		return fmt.Errorf("open %s: no new tab after %s", url, s.timeout)
	}
	return tabs.SwitchToWindow(handle)
}

// newest returns the last handle in after that is not in before.
func newest(before, after []string) string {
	seen := make(map[string]bool, len(before))
	for _, h := range before {
		seen[h] = true
	}
	for i := len(after) - 1; i >= 0; i-- {
		if !seen[after[i]] {
			return after[i]
		}
	}
	return ""
}

// SwitchToFrame runs later lookups and scripts inside the iframe frame.
func (s *Session) SwitchToFrame(frame driver.Element) error {
	if frame == nil {
		return fmt.Errorf("switch to frame: nil element")
	}
	frames, err := capability[driver.Frames](s, "switch to frame")
	if err != nil {
		return err
	}
	return frames.SwitchToFrame(frame)
}

// SwitchToFrameBy waits for the iframe resolved by by and switches into it.
func (s *Session) SwitchToFrameBy(by driver.By) error {
	frame := s.ElementExists(by, s.timeout)
	if frame == nil {
		return fmt.Errorf("switch to frame: %s not found after %s", by, s.timeout)
	}
	return s.SwitchToFrame(frame)
}

// SwitchToDefaultContent leaves any frame and drives the top document.
func (s *Session) SwitchToDefaultContent() error {
	frames, err := capability[driver.Frames](s, "switch to default content")
	if err != nil {
		return err
	}
	return frames.SwitchToDefaultContent()
}

// AcceptAlert accepts a JavaScript dialog, waiting up to timeout for one
// to open. A zero timeout makes a single attempt.
func (s *Session) AcceptAlert(timeout time.Duration) bool {
	dialogs, err := capability[driver.Dialogs](s, "accept alert")
	if err != nil {
		debugLog.Debugf("%v", err)
		return false
	}
	_, ok := wait.Until(s.Waiter, "accept-alert", timeout, func(driver.Driver) wait.Outcome[bool] {
		err := dialogs.AcceptDialog()
		switch {
		case err == nil:
			return wait.Ready(true)
		case errors.Is(err, driver.ErrNoDialog):
			return wait.Pending[bool]()
		default:
			return wait.Failed[bool](err)
		}
	})
	return ok
}

// WindowSize returns the outer size of the browser window.
func (s *Session) WindowSize() (driver.Size, error) {
	w, err := capability[driver.Window](s, "window size")
	if err != nil {
		return driver.Size{}, err
	}
	return w.WindowSize()
}

// SetWindowSize resizes the browser window, restoring it first if it is
// maximized or minimized.
func (s *Session) SetWindowSize(size driver.Size) error {
	w, err := capability[driver.Window](s, "set window size")
	if err != nil {
		return err
	}
	return w.SetWindowSize(size)
}
