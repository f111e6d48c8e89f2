package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/entrhq/uchrome/pkg/browser"
	"github.com/entrhq/uchrome/pkg/driver"
	"github.com/entrhq/uchrome/pkg/logging"
)

var debugLog *logging.Logger

func init() {
	debugLog = logging.MustNew("script")
}

var (
	// ErrTimeout marks a step whose wait expired.
	ErrTimeout = errors.New("timed out")

	// ErrStepFailed marks a step whose browser action reported failure.
	ErrStepFailed = errors.New("step failed")

	// ErrUnexpected marks a result that did not match the step's expect.
	ErrUnexpected = errors.New("unexpected result")
)

// Runner executes scenarios against one session.
type Runner struct {
	session *browser.Session
}

// NewRunner creates a runner bound to s.
func NewRunner(s *browser.Session) *Runner {
	return &Runner{session: s}
}

// Run executes every step of sc in order. It stops at the first failing
// step that is not optional. The returned summary is non-nil whenever the
// scenario was valid, including when the run failed.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Summary, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	clock := r.session.Clock()
	summary := newSummary(sc.Name, clock.Now())
	debugLog.Infof("scenario %q: %d steps", sc.Name, len(sc.Steps))

	if sc.StartURL != "" {
		if err := r.session.Navigate(sc.StartURL); err != nil {
			return summary, summary.finish(clock.Now(), fmt.Errorf("open start url: %w", err))
		}
	}

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return summary, summary.finish(clock.Now(), err)
		}

		step = expand(step, summary.Captured)
		started := clock.Now()
		result, err := r.runStep(step, r.timeout(sc, step))
		if err == nil {
			result, err = check(step, result)
		}

		sr := StepResult{
			Index:    i + 1,
			Action:   step.Action,
			Status:   stepOK,
			Duration: clock.Now().Sub(started).String(),
			Result:   preview(result),
		}
		if err != nil {
			sr.Status = stepFailed
			sr.Error = err.Error()
			summary.Steps = append(summary.Steps, sr)
			if step.Optional {
				debugLog.Warnf("step %d (%s) failed, continuing: %v", i+1, step.Action, err)
				summary.optionalFailures++
				continue
			}
			debugLog.Errorf("step %d (%s) failed: %v", i+1, step.Action, err)
			return summary, summary.finish(clock.Now(), fmt.Errorf("step %d (%s): %w", i+1, step.Action, err))
		}

		if step.Save != "" {
			summary.Captured[step.Save] = result
		}
		summary.Steps = append(summary.Steps, sr)
		debugLog.Debugf("step %d (%s) ok in %s", i+1, step.Action, sr.Duration)
	}

	return summary, summary.finish(clock.Now(), nil)
}

func (r *Runner) timeout(sc *Scenario, step Step) time.Duration {
	switch {
	case step.Timeout > 0:
		return step.Timeout
	case sc.Timeout > 0:
		return sc.Timeout
	case step.Action == ActionClick:
		return r.session.ClickTimeout()
	default:
		return r.session.Timeout()
	}
}

//nolint:gocyclo
func (r *Runner) runStep(step Step, timeout time.Duration) (string, error) {
	s := r.session
	by := driver.ParseBy(step.Selector)

	switch step.Action {
	case ActionNavigate:
		return "", s.Navigate(step.URL)
	case ActionRefresh:
		return "", s.Refresh()
	case ActionNewTab:
		return "", s.NewTab(step.URL)

	case ActionWait:
		if r.displayed(by, step.Text, timeout) == nil {
			return "", timedOut(timeout, "%s to be displayed", by)
		}
		return "", nil
	case ActionWaitAny:
		bys := make([]driver.By, 0, len(step.Selectors))
		for _, sel := range step.Selectors {
			bys = append(bys, driver.ParseBy(sel))
		}
		if s.OneOfDisplayed(bys, timeout) == nil {
			return "", timedOut(timeout, "any of %d selectors to be displayed", len(bys))
		}
		return "", nil
	case ActionWaitGone:
		if !s.ElementNotDisplayed(by, timeout) {
			return "", timedOut(timeout, "%s to disappear", by)
		}
		return "", nil
	case ActionWaitEnabled:
		if s.ElementEnabled(by, timeout) == nil {
			return "", timedOut(timeout, "%s to be enabled", by)
		}
		return "", nil
	case ActionWaitURLChange:
		if !s.URLChanged(timeout) {
			return "", timedOut(timeout, "url to change")
		}
		return "", nil
	case ActionExpectURL:
		if !s.URLMatches(step.Pattern, timeout) {
			return "", timedOut(timeout, "url to match %q", step.Pattern)
		}
		return "", nil
	case ActionSwitchTab:
		index, last, err := step.tabIndex()
		if err != nil {
			return "", err
		}
		if last {
			return "", s.SwitchToLastTab()
		}
		return "", s.SwitchToTabIndex(index)
	case ActionSwitchFrame:
		if step.Selector == "" {
			return "", s.SwitchToDefaultContent()
		}
		frame := s.ElementExists(by, timeout)
		if frame == nil {
			return "", timedOut(timeout, "frame %s to exist", by)
		}
		return "", s.SwitchToFrame(frame)
	case ActionAcceptAlert:
		if !s.AcceptAlert(timeout) {
			return "", timedOut(timeout, "a dialog to accept")
		}
		return "", nil
	case ActionWaitScript:
		if !s.ScriptTrue(step.Script, timeout) {
			return "", timedOut(timeout, "script to return true")
		}
		return "", nil

	case ActionClick:
		var ok bool
		if step.Text != "" {
			ok = s.WaitToClickMatching(by, textContains(step.Text), browser.Within(timeout))
		} else {
			ok = s.WaitToClick(by, browser.Within(timeout))
		}
		if !ok {
			return "", timedOut(timeout, "%s to click", by)
		}
		return "", nil
	case ActionHover:
		e := s.ElementDisplayed(by, timeout)
		if e == nil {
			return "", timedOut(timeout, "%s to be displayed", by)
		}
		return "", failed(s.Hover(e), "hover %s", by)
	case ActionClickJS:
		e := s.ElementDisplayed(by, timeout)
		if e == nil {
			return "", timedOut(timeout, "%s to be displayed", by)
		}
		return "", failed(s.ClickElementJS(e), "click %s", by)
	case ActionFill:
		e := r.displayed(by, "", timeout)
		if e == nil {
			return "", timedOut(timeout, "%s to be displayed", by)
		}
		var opts []browser.FillOption
		if step.Stepwise {
			opts = append(opts, browser.Stepwise())
		}
		if step.Keep {
			opts = append(opts, browser.KeepExisting())
		}
		return "", failed(s.FillElement(e, step.Text, opts...), "fill %s", by)
	case ActionSelect:
		if s.ElementExists(by, timeout) == nil {
			return "", timedOut(timeout, "%s to exist", by)
		}
		return "", failed(s.SelectOptionValue(by, step.Value), "select %q in %s", step.Value, by)
	case ActionSendKeys:
		return "", failed(s.SendKeys(step.Text), "send keys")
	case ActionSetAttribute:
		e := s.ElementExists(by, timeout)
		if e == nil {
			return "", timedOut(timeout, "%s to exist", by)
		}
		return "", failed(s.SetElementAttribute(e, step.Attr, step.Value), "set %s on %s", step.Attr, by)
	case ActionRemove:
		e := s.ElementExists(by, timeout)
		if e == nil {
			return "", timedOut(timeout, "%s to exist", by)
		}
		return "", failed(s.RemoveElement(e), "remove %s", by)
	case ActionScrollEnd:
		s.ScrollToEnd()
		return "", nil
	case ActionSleep:
		if step.Duration > 0 {
			s.SleepFor(step.Duration)
		} else {
			s.Sleep()
		}
		return "", nil

	case ActionScript:
		v, err := s.ExecuteScript(step.Script)
		if err != nil {
			return "", err
		}
		return stringify(v)
	case ActionText:
		e := s.ElementExists(by, timeout)
		if e == nil {
			return "", timedOut(timeout, "%s to exist", by)
		}
		return e.Text()
	case ActionPageText:
		content, err := s.PageText(0)
		if err != nil {
			return "", err
		}
		return content.Text, nil
	case ActionHTTPGet:
		return s.HTTPGet(step.URL)
	case ActionPublicIP:
		return s.PublicIP()
	case ActionSetCookies:
		return "", s.SetCookieString(step.Value)
	case ActionClearCookies:
		return "", s.ClearCookies()
	case ActionCookies:
		return s.CookieString()
	}
	return "", fmt.Errorf("%w %q", ErrUnknownAction, step.Action)
}

func (r *Runner) displayed(by driver.By, text string, timeout time.Duration) driver.Element {
	if text == "" {
		return r.session.ElementDisplayed(by, timeout)
	}
	return r.session.ElementDisplayedMatching(by, textContains(text), timeout)
}

func textContains(want string) func(driver.Element) bool {
	return func(e driver.Element) bool {
		text, err := e.Text()
		return err == nil && strings.Contains(text, want)
	}
}

func timedOut(timeout time.Duration, format string, args ...any) error {
	return fmt.Errorf("%w after %s waiting for %s", ErrTimeout, timeout, fmt.Sprintf(format, args...))
}

func failed(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrStepFailed, fmt.Sprintf(format, args...))
}

// check applies the step's json_path and expect to result.
func check(step Step, result string) (string, error) {
	if step.JSONPath != "" {
		v := gjson.Get(result, step.JSONPath)
		if !v.Exists() {
			return "", fmt.Errorf("%w: %s not found", ErrUnexpected, step.JSONPath)
		}
		result = v.String()
	}
	if step.Expect != "" && result != step.Expect {
		return result, fmt.Errorf("%w: got %q, want %q", ErrUnexpected, result, step.Expect)
	}
	return result, nil
}

// stringify renders a script result: strings as is, everything else as JSON.
func stringify(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode script result: %w", err)
	}
	return string(data), nil
}

// expand substitutes ${name} references to saved values.
func expand(step Step, vars map[string]string) Step {
	if len(vars) == 0 {
		return step
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "${"+k+"}", v)
	}
	rep := strings.NewReplacer(pairs...)
	step.URL = rep.Replace(step.URL)
	step.Text = rep.Replace(step.Text)
	step.Value = rep.Replace(step.Value)
	step.Pattern = rep.Replace(step.Pattern)
	step.Expect = rep.Replace(step.Expect)
	return step
}
