// Package drivertest provides an in-memory driver.Driver for tests.
package drivertest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/entrhq/uchrome/pkg/driver"
)

// ErrStale is a convenience error for simulating detached elements.
var ErrStale = errors.New("stale element reference")

// Element is a scriptable driver.Element.
type Element struct {
	mu       sync.Mutex
	text     string
	attrs    map[string]string
	visible  bool
	disabled bool
	stateErr error
	clicks   int
	cleared  int
	keys     []string
	calls    []string
	callFunc func(fn string, args []any) (any, error)
	shadow   driver.SearchContext
}

// NewElement returns a visible, enabled element with the given text.
func NewElement(text string) *Element {
	return &Element{text: text, visible: true, attrs: make(map[string]string)}
}

// Hidden returns an invisible element.
func Hidden(text string) *Element {
	e := NewElement(text)
	e.visible = false
	return e
}

// SetVisible changes the visibility state.
func (e *Element) SetVisible(v bool) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visible = v
	return e
}

// SetDisabled changes the enabled state.
func (e *Element) SetDisabled(v bool) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disabled = v
	return e
}

// SetAttr sets an attribute value.
func (e *Element) SetAttr(name, value string) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
	return e
}

// SetStateErr makes Displayed and Enabled fail with err.
func (e *Element) SetStateErr(err error) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stateErr = err
	return e
}

// SetShadowRoot attaches a shadow root searched through root.
func (e *Element) SetShadowRoot(root driver.SearchContext) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shadow = root
	return e
}

// OnCall installs a handler for Call.
func (e *Element) OnCall(fn func(fn string, args []any) (any, error)) *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callFunc = fn
	return e
}

func (e *Element) Displayed() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stateErr != nil {
		return false, e.stateErr
	}
	return e.visible, nil
}

func (e *Element) Enabled() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stateErr != nil {
		return false, e.stateErr
	}
	return !e.disabled, nil
}

func (e *Element) Text() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, nil
}

func (e *Element) Attribute(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attrs[name], nil
}

func (e *Element) Click() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clicks++
	return nil
}

func (e *Element) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cleared++
	e.keys = nil
	return nil
}

func (e *Element) SendKeys(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, text)
	return nil
}

func (e *Element) Call(fn string, args ...any) (any, error) {
	e.mu.Lock()
	e.calls = append(e.calls, fn)
	handler := e.callFunc
	e.mu.Unlock()
	if handler != nil {
		return handler(fn, args)
	}
	return nil, nil
}

func (e *Element) ShadowRoot() (driver.SearchContext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.shadow == nil {
		return nil, driver.ErrNoShadowRoot
	}
	return e.shadow, nil
}

// Clicks returns how many times Click was called.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Cleared returns how many times Clear was called.
func (e *Element) Cleared() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cleared
}

// Keys returns every SendKeys payload since the last Clear.
func (e *Element) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.keys...)
}

// Calls returns every function passed to Call.
func (e *Element) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// ResolveFunc computes the result of a FindElements call. call counts from 1.
type ResolveFunc func(call int) ([]driver.Element, error)

// Driver is a scriptable driver.Driver with an in-memory cookie jar.
type Driver struct {
	mu        sync.Mutex
	resolvers map[string]ResolveFunc
	findCalls map[string]int
	url       string
	urlFunc   func(call int) (string, error)
	urlCalls  int
	script    func(body string, args []any) (any, error)
	scripts   []string
	navigated []string
	reloads   int
	pid       int
	closed    bool
	cookies   []driver.Cookie

	tabs     []string
	current  string
	frame    driver.Element
	dialog   bool
	accepted int
	active   driver.Element
	hovered  []driver.Element
	drags    [][2]driver.Element
	size     driver.Size
}

// New returns an empty driver on about:blank.
func New() *Driver {
	return &Driver{
		resolvers: make(map[string]ResolveFunc),
		findCalls: make(map[string]int),
		url:       "about:blank",
		tabs:      []string{"tab-1"},
		current:   "tab-1",
		size:      driver.Size{Width: 1280, Height: 800},
	}
}

func key(by driver.By) string {
	return by.String()
}

// Set makes by resolve to elems on every call.
func (d *Driver) Set(by driver.By, elems ...driver.Element) *Driver {
	return d.SetFunc(by, func(int) ([]driver.Element, error) { return elems, nil })
}

// SetFunc installs a dynamic resolver for by.
func (d *Driver) SetFunc(by driver.By, fn ResolveFunc) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resolvers[key(by)] = fn
	return d
}

// SetURL sets the current URL.
func (d *Driver) SetURL(url string) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
	d.urlFunc = nil
	return d
}

// SetURLFunc installs a dynamic URL source. call counts from 1.
func (d *Driver) SetURLFunc(fn func(call int) (string, error)) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urlFunc = fn
	return d
}

// OnScript installs a handler for ExecuteScript.
func (d *Driver) OnScript(fn func(body string, args []any) (any, error)) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script = fn
	return d
}

// SetPID sets the reported process id.
func (d *Driver) SetPID(pid int) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pid = pid
	return d
}

// FindCalls returns how many times by was resolved.
func (d *Driver) FindCalls(by driver.By) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.findCalls[key(by)]
}

// Scripts returns every executed script body.
func (d *Driver) Scripts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.scripts...)
}

// Navigated returns every URL passed to Navigate.
func (d *Driver) Navigated() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigated...)
}

// Reloads returns how many times Reload was called.
func (d *Driver) Reloads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reloads
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Driver) FindElements(by driver.By) ([]driver.Element, error) {
	d.mu.Lock()
	k := key(by)
	d.findCalls[k]++
	call := d.findCalls[k]
	fn := d.resolvers[k]
	d.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(call)
}

func (d *Driver) CurrentURL() (string, error) {
	d.mu.Lock()
	d.urlCalls++
	call := d.urlCalls
	fn := d.urlFunc
	url := d.url
	d.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	return url, nil
}

func (d *Driver) ExecuteScript(body string, args ...any) (any, error) {
	d.mu.Lock()
	d.scripts = append(d.scripts, body)
	fn := d.script
	d.mu.Unlock()

	if fn != nil {
		return fn(body, args)
	}
	return nil, nil
}

func (d *Driver) Navigate(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigated = append(d.navigated, url)
	d.url = url
	return nil
}

func (d *Driver) Reload() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reloads++
	return nil
}

func (d *Driver) ProcessID() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pid
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *Driver) Cookies() ([]driver.Cookie, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]driver.Cookie(nil), d.cookies...), nil
}

func (d *Driver) SetCookie(c driver.Cookie) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.cookies {
		if d.cookies[i].Name == c.Name {
			d.cookies[i] = c
			return nil
		}
	}
	d.cookies = append(d.cookies, c)
	return nil
}

func (d *Driver) ClearCookies() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cookies = nil
	return nil
}

// OpenTab adds a tab with handle, as window.open would.
func (d *Driver) OpenTab(handle string) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tabs = append(d.tabs, handle)
	return d
}

// OpenDialog makes a JavaScript dialog pending.
func (d *Driver) OpenDialog() *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialog = true
	return d
}

// SetActive sets the element ActiveElement reports. nil means the driver
// cannot tell.
func (d *Driver) SetActive(e driver.Element) *Driver {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = e
	return d
}

// Frame returns the selected frame, or nil for the top document.
func (d *Driver) Frame() driver.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

// Accepted returns how many dialogs were accepted.
func (d *Driver) Accepted() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accepted
}

// Hovered returns every element the mouse was moved over.
func (d *Driver) Hovered() []driver.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]driver.Element(nil), d.hovered...)
}

// Drags returns every source and target pair passed to DragAndDrop.
func (d *Driver) Drags() [][2]driver.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][2]driver.Element(nil), d.drags...)
}

func (d *Driver) WindowHandles() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.tabs...), nil
}

func (d *Driver) CurrentWindowHandle() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current, nil
}

func (d *Driver) SwitchToWindow(handle string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range d.tabs {
		if h == handle {
			d.current = handle
			d.frame = nil
			return nil
		}
	}
	return fmt.Errorf("switch to window %s: no such tab", handle)
}

func (d *Driver) SwitchToFrame(frame driver.Element) error {
	if frame == nil {
		return errors.New("switch to frame: nil element")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame = frame
	return nil
}

func (d *Driver) SwitchToDefaultContent() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frame = nil
	return nil
}

func (d *Driver) AcceptDialog() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.dialog {
		return driver.ErrNoDialog
	}
	d.dialog = false
	d.accepted++
	return nil
}

func (d *Driver) ActiveElement() (driver.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return nil, errors.New("no active element")
	}
	return d.active, nil
}

func (d *Driver) Hover(el driver.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hovered = append(d.hovered, el)
	return nil
}

func (d *Driver) DragAndDrop(source, target driver.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drags = append(d.drags, [2]driver.Element{source, target})
	return nil
}

func (d *Driver) WindowSize() (driver.Size, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size, nil
}

func (d *Driver) SetWindowSize(size driver.Size) error {
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", size.Width, size.Height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.size = size
	return nil
}

var (
	_ driver.Driver     = (*Driver)(nil)
	_ driver.CookieJar  = (*Driver)(nil)
	_ driver.Tabs       = (*Driver)(nil)
	_ driver.Frames     = (*Driver)(nil)
	_ driver.Dialogs    = (*Driver)(nil)
	_ driver.Focus      = (*Driver)(nil)
	_ driver.Pointer    = (*Driver)(nil)
	_ driver.Window     = (*Driver)(nil)
	_ driver.Element    = (*Element)(nil)
	_ driver.ShadowHost = (*Element)(nil)
)
