package browser

import (
	"time"

	"github.com/entrhq/uchrome/pkg/driver"
	"github.com/entrhq/uchrome/pkg/wait"
)

// Pauses used while filling forms.
const (
	focusPause   = 200 * time.Millisecond
	clearPause   = 100 * time.Millisecond
	keystrokeMin = 10 * time.Millisecond
	keystrokeMax = 80 * time.Millisecond
)

type fillConfig struct {
	stepwise bool
	keep     bool
}

// FillOption configures FillText.
type FillOption func(*fillConfig)

// Stepwise types one character at a time with a short random pause.
func Stepwise() FillOption {
	return func(c *fillConfig) { c.stepwise = true }
}

// KeepExisting appends instead of clearing the field first.
func KeepExisting() FillOption {
	return func(c *fillConfig) { c.keep = true }
}

// FillText clicks the first element resolved by by and types text into it.
func (s *Session) FillText(by driver.By, text string, opts ...FillOption) bool {
	return s.FillElement(s.FindElement(by, nil), text, opts...)
}

// FillElement clicks e, clears it unless KeepExisting is given, and types
// text.
func (s *Session) FillElement(e driver.Element, text string, opts ...FillOption) bool {
	if e == nil {
		return false
	}
	var c fillConfig
	for _, opt := range opts {
		opt(&c)
	}

	if err := e.Click(); err != nil {
		debugLog.Debugf("fill: click failed: %v", err)
		return false
	}
	s.SleepFor(focusPause)

	if !c.keep {
		if err := e.Clear(); err != nil {
			debugLog.Debugf("fill: clear failed: %v", err)
			return false
		}
		s.SleepFor(clearPause)
	}

	if !c.stepwise {
		return e.SendKeys(text) == nil
	}
	next := wait.Jitter(keystrokeMin, keystrokeMax).Sequence()
	for _, r := range text {
		if err := e.SendKeys(string(r)); err != nil {
			return false
		}
		s.SleepFor(next())
	}
	return true
}

type clickConfig struct {
	noScroll bool
	timeout  time.Duration
}

// ClickOption configures the click helpers.
type ClickOption func(*clickConfig)

// NoScroll clicks without scrolling the element into view first.
func NoScroll() ClickOption {
	return func(c *clickConfig) { c.noScroll = true }
}

// Within replaces the click timeout for WaitToClick and
// WaitToClickMatching. Zero or less keeps the session's.
func Within(d time.Duration) ClickOption {
	return func(c *clickConfig) { c.timeout = d }
}

func clickOptions(opts []ClickOption) clickConfig {
	var c clickConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ClickElement clicks the first element resolved by by.
func (s *Session) ClickElement(by driver.By, opts ...ClickOption) bool {
	return s.Click(s.FindElement(by, nil), opts...)
}

// ClickMatching clicks the first element resolved by by that satisfies match.
func (s *Session) ClickMatching(by driver.By, match wait.Match, opts ...ClickOption) bool {
	return s.Click(s.FindElement(by, match), opts...)
}

// Click scrolls e into view and clicks it.
func (s *Session) Click(e driver.Element, opts ...ClickOption) bool {
	if e == nil {
		return false
	}
	if !clickOptions(opts).noScroll {
		s.ScrollToElement(e, false)
	}
	if err := e.Click(); err != nil {
		debugLog.Debugf("click failed: %v", err)
		return false
	}
	return true
}

func (s *Session) waitClickTimeout(opts []ClickOption) time.Duration {
	if d := clickOptions(opts).timeout; d > 0 {
		return d
	}
	return s.clickTimeout
}

// WaitToClick waits up to the click timeout for by to resolve, pauses,
// then clicks. It reports whether the element appeared; the click itself
// is best effort.
func (s *Session) WaitToClick(by driver.By, opts ...ClickOption) bool {
	e := s.ElementExists(by, s.waitClickTimeout(opts))
	if e == nil {
		return false
	}
	s.Sleep()
	s.Click(e, opts...)
	return true
}

// WaitToClickMatching is WaitToClick for the first element satisfying match.
func (s *Session) WaitToClickMatching(by driver.By, match wait.Match, opts ...ClickOption) bool {
	e := s.ElementMatching(by, match, s.waitClickTimeout(opts))
	if e == nil {
		return false
	}
	s.Sleep()
	s.Click(e, opts...)
	return true
}

// ClickJS clicks the first element resolved by by through element.click(),
// skipping it if it is not displayed.
func (s *Session) ClickJS(by driver.By, opts ...ClickOption) bool {
	e := s.FindElement(by, nil)
	if e == nil {
		return false
	}
	if ok, err := e.Displayed(); err != nil || !ok {
		return false
	}
	return s.ClickElementJS(e, opts...)
}

// ClickElementJS clicks e through element.click().
func (s *Session) ClickElementJS(e driver.Element, opts ...ClickOption) bool {
	if e == nil {
		return false
	}
	if !clickOptions(opts).noScroll {
		s.ScrollToElement(e, false)
	}
	_, err := e.Call("el => el.click()")
	return err == nil
}

// SendKeys types keys into the focused element, or the body when nothing
// has focus.
func (s *Session) SendKeys(keys string) bool {
	return s.SendKeysTo(s.ActiveElement(), keys)
}

// SendKeysTo types keys into e.
func (s *Session) SendKeysTo(e driver.Element, keys string) bool {
	if e == nil {
		return false
	}
	return e.SendKeys(keys) == nil
}

// Hover moves the mouse over the center of e.
func (s *Session) Hover(e driver.Element) bool {
	if e == nil {
		return false
	}
	p, err := capability[driver.Pointer](s, "hover")
	if err != nil {
		debugLog.Debugf("%v", err)
		return false
	}
	if err := p.Hover(e); err != nil {
		debugLog.Debugf("hover failed: %v", err)
		return false
	}
	return true
}

// SendMouseOver moves the mouse onto the first element resolved by by and
// clicks where it landed.
func (s *Session) SendMouseOver(by driver.By) bool {
	e := s.FindElement(by, nil)
	if !s.Hover(e) {
		return false
	}
	return s.Click(e, NoScroll())
}

// DragAndDrop presses the mouse on source, moves it onto target and
// releases it there.
func (s *Session) DragAndDrop(source, target driver.Element) bool {
	if source == nil || target == nil {
		return false
	}
	p, err := capability[driver.Pointer](s, "drag and drop")
	if err != nil {
		debugLog.Debugf("%v", err)
		return false
	}
	if err := p.DragAndDrop(source, target); err != nil {
		debugLog.Debugf("drag and drop failed: %v", err)
		return false
	}
	return true
}
