package browser

import (
	"fmt"

	"github.com/entrhq/uchrome/pkg/driver"
	"github.com/entrhq/uchrome/pkg/wait"
)

// FindElement returns the first element resolved by by that satisfies
// match (any element when match is nil), or nil.
func (s *Session) FindElement(by driver.By, match wait.Match) (found driver.Element) {
	defer func() {
		if r := recover(); r != nil {
			debugLog.Debugf("find %s: match panicked: %v", by, r)
			found = nil
		}
	}()
	elems, err := s.drv.FindElements(by)
	if err != nil {
		return nil
	}
	for _, e := range elems {
		if match == nil || match(e) {
			return e
		}
	}
	return nil
}

// FindElements returns every element resolved by by that satisfies match
// (all of them when match is nil). It returns nil on any error.
func (s *Session) FindElements(by driver.By, match wait.Match) (found []driver.Element) {
	defer func() {
		if r := recover(); r != nil {
			debugLog.Debugf("find all %s: match panicked: %v", by, r)
			found = nil
		}
	}()
	elems, err := s.drv.FindElements(by)
	if err != nil {
		return nil
	}
	if match == nil {
		return elems
	}
	kept := make([]driver.Element, 0, len(elems))
	for _, e := range elems {
		if match(e) {
			kept = append(kept, e)
		}
	}
	return kept
}

// FindOneOf returns the first displayed element among bys, trying them in
// order and looking only at each selector's first match.
func (s *Session) FindOneOf(bys []driver.By) driver.Element {
	for _, by := range bys {
		e := driver.First(s.FindElements(by, nil))
		if e == nil {
			continue
		}
		if ok, err := e.Displayed(); err == nil && ok {
			return e
		}
	}
	return nil
}

// GetText returns the text of the first element resolved by by, or "".
func (s *Session) GetText(by driver.By) string {
	e := s.FindElement(by, nil)
	if e == nil {
		return ""
	}
	text, err := e.Text()
	if err != nil {
		return ""
	}
	return text
}

// RemoveElement detaches e from the document.
func (s *Session) RemoveElement(e driver.Element) bool {
	if e == nil {
		return false
	}
	_, err := e.Call("el => el.remove()")
	return err == nil
}

// ScrollToElement scrolls e to the top of the viewport.
func (s *Session) ScrollToElement(e driver.Element, smooth bool) {
	if e == nil {
		return
	}
	behavior := "auto"
	if smooth {
		behavior = "smooth"
	}
	if _, err := e.Call(`(el, behavior) => el.scrollIntoView({behavior: behavior, block: "start"})`, behavior); err != nil {
		debugLog.Debugf("scroll to element: %v", err)
	}
}

// SetInnerHTML replaces the markup of the first element resolved by by.
func (s *Session) SetInnerHTML(by driver.By, html string) bool {
	return s.SetElementInnerHTML(s.FindElement(by, nil), html)
}

// SetElementInnerHTML replaces the markup of e.
func (s *Session) SetElementInnerHTML(e driver.Element, html string) bool {
	if e == nil {
		return false
	}
	_, err := e.Call("(el, html) => { el.innerHTML = html; }", html)
	return err == nil
}

// SetAttribute sets attr on the first element resolved by by.
func (s *Session) SetAttribute(by driver.By, attr, value string) bool {
	return s.SetElementAttribute(s.FindElement(by, nil), attr, value)
}

// SetElementAttribute sets attr on e.
func (s *Session) SetElementAttribute(e driver.Element, attr, value string) bool {
	if e == nil {
		return false
	}
	_, err := e.Call("(el, name, value) => { el.setAttribute(name, value); }", attr, value)
	return err == nil
}

// SelectOptionValue clicks the select resolved by by, pauses, then picks
// the option with value and fires change. It reports whether an option
// with that value exists.
func (s *Session) SelectOptionValue(by driver.By, value string) bool {
	e := s.FindElement(by, nil)
	if e == nil {
		return false
	}
	if err := e.Click(); err != nil {
		return false
	}
	s.Sleep()

	v, err := e.Call(`(el, value) => {
	const opt = Array.from(el.options || []).find(o => o.value === value);
	if (!opt) return false;
	el.value = value;
	el.dispatchEvent(new Event("change", {bubbles: true}));
	return true;
}`, value)
	if err != nil {
		return false
	}
	ok, _ := v.(bool)
	return ok
}

// ActiveElement returns the element that has focus, or the body when
// nothing has. It returns nil when neither can be resolved.
func (s *Session) ActiveElement() driver.Element {
	if f, ok := s.drv.(driver.Focus); ok {
		if e, err := f.ActiveElement(); err == nil && e != nil {
			return e
		}
	}
	if e := s.FindElement(driver.CSS(":focus"), nil); e != nil {
		return e
	}
	return s.FindElement(driver.TagName("body"), nil)
}

// ShadowRoot returns a context searching inside e's open shadow root.
func (s *Session) ShadowRoot(e driver.Element) (driver.SearchContext, error) {
	if e == nil {
		return nil, fmt.Errorf("shadow root: nil element")
	}
	host, ok := e.(driver.ShadowHost)
	if !ok {
		return nil, fmt.Errorf("shadow root: %w", driver.ErrNotSupported)
	}
	return host.ShadowRoot()
}

// ShadowRootBy is ShadowRoot for the first element resolved by by.
func (s *Session) ShadowRootBy(by driver.By) (driver.SearchContext, error) {
	e := s.FindElement(by, nil)
	if e == nil {
		return nil, fmt.Errorf("shadow root: no element for %s", by)
	}
	return s.ShadowRoot(e)
}
