package rod

import (
	"errors"
	"fmt"
	"time"

	gorod "github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/entrhq/uchrome/pkg/driver"
)

// DefaultActionTimeout bounds element actions that wait for the element to
// become interactable, matching Playwright's default.
const DefaultActionTimeout = 30 * time.Second

// Driver drives one rod page. Lookups and scripts run in scope, which is
// the page itself or a frame selected with SwitchToFrame.
type Driver struct {
	browser       *gorod.Browser
	page          *gorod.Page
	scope         *gorod.Page
	pid           int
	actionTimeout time.Duration
	order         driver.TabOrder
}

var (
	_ driver.Driver    = (*Driver)(nil)
	_ driver.CookieJar = (*Driver)(nil)
	_ driver.Tabs      = (*Driver)(nil)
	_ driver.Frames    = (*Driver)(nil)
	_ driver.Dialogs   = (*Driver)(nil)
	_ driver.Focus     = (*Driver)(nil)
	_ driver.Pointer   = (*Driver)(nil)
	_ driver.Window    = (*Driver)(nil)
)

// Option configures a Driver.
type Option func(*Driver)

// WithActionTimeout bounds Click, Clear, SendKeys and pointer actions.
// Zero or less leaves them unbounded.
func WithActionTimeout(d time.Duration) Option {
	return func(drv *Driver) { drv.actionTimeout = d }
}

func newDriver(browser *gorod.Browser, page *gorod.Page, pid int, opts []Option) *Driver {
	d := &Driver{
		browser:       browser,
		page:          page,
		scope:         page,
		pid:           pid,
		actionTimeout: DefaultActionTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.order.Update([]string{string(page.TargetID)})
	return d
}

// Page exposes the underlying rod page.
func (d *Driver) Page() *gorod.Page {
	return d.page
}

func (d *Driver) wrap(elems gorod.Elements) []driver.Element {
	out := make([]driver.Element, len(elems))
	for i, e := range elems {
		out[i] = &Element{el: e, timeout: d.actionTimeout}
	}
	return out
}

func (d *Driver) FindElements(by driver.By) ([]driver.Element, error) {
	var (
		elems gorod.Elements
		err   error
	)
	if by.IsXPath() {
		elems, err = d.scope.ElementsX(by.Query())
	} else {
		elems, err = d.scope.Elements(by.Query())
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", by, err)
	}
	return d.wrap(elems), nil
}

func (d *Driver) CurrentURL() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

func (d *Driver) ExecuteScript(body string, args ...any) (any, error) {
	res, err := d.scope.Evaluate(gorod.Eval("function() {\n"+body+"\n}", jsArgs(args)...))
	if err != nil {
		return nil, fmt.Errorf("execute script: %w", err)
	}
	return res.Value.Val(), nil
}

// jsArgs replaces rod elements with their remote objects so the page
// receives DOM nodes.
func jsArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if e, ok := a.(*Element); ok {
			out[i] = e.el.Object
			continue
		}
		out[i] = a
	}
	return out
}

func (d *Driver) Navigate(url string) error {
	d.scope = d.page
	if err := d.page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *Driver) Reload() error {
	d.scope = d.page
	return d.page.Reload()
}

func (d *Driver) ProcessID() int {
	return d.pid
}

// Close sends Browser.close, which also shuts Chrome down. The registry
// still kills the process tree in case it lingers.
func (d *Driver) Close() error {
	return d.browser.Close()
}

func (d *Driver) Cookies() ([]driver.Cookie, error) {
	cookies, err := d.page.Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	out := make([]driver.Cookie, len(cookies))
	for i, c := range cookies {
		out[i] = driver.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path}
	}
	return out, nil
}

func (d *Driver) SetCookie(c driver.Cookie) error {
	param := &proto.NetworkCookieParam{
		Name:   c.Name,
		Value:  c.Value,
		Domain: c.Domain,
		Path:   c.Path,
	}
	if c.Domain == "" {
		url, err := d.CurrentURL()
		if err != nil {
			return err
		}
		param.URL = url
	}
	err := d.page.SetCookies([]*proto.NetworkCookieParam{param})
	if err != nil {
		return fmt.Errorf("set cookie %s: %w", c.Name, err)
	}
	return nil
}

func (d *Driver) ClearCookies() error {
	// rod clears every cookie of the page when given nil.
	return d.page.SetCookies(nil)
}

func (d *Driver) pages() (map[string]*gorod.Page, []string, error) {
	pages, err := d.browser.Pages()
	if err != nil {
		return nil, nil, fmt.Errorf("list pages: %w", err)
	}
	byID := make(map[string]*gorod.Page, len(pages))
	ids := make([]string, 0, len(pages))
	for _, p := range pages {
		id := string(p.TargetID)
		byID[id] = p
		ids = append(ids, id)
	}
	return byID, d.order.Update(ids), nil
}

func (d *Driver) WindowHandles() ([]string, error) {
	_, handles, err := d.pages()
	return handles, err
}

func (d *Driver) CurrentWindowHandle() (string, error) {
	return string(d.page.TargetID), nil
}

func (d *Driver) SwitchToWindow(handle string) error {
	byID, _, err := d.pages()
	if err != nil {
		return err
	}
	p, ok := byID[handle]
	if !ok {
		return fmt.Errorf("switch to window %s: no such tab", handle)
	}
	if _, err := p.Activate(); err != nil {
		return fmt.Errorf("activate tab %s: %w", handle, err)
	}
	d.page, d.scope = p, p
	return nil
}

func (d *Driver) SwitchToFrame(frame driver.Element) error {
	e, ok := frame.(*Element)
	if !ok {
		return driver.ErrForeignElement
	}
	fp, err := e.el.Frame()
	if err != nil {
		return fmt.Errorf("switch to frame: %w", err)
	}
	d.scope = fp
	return nil
}

func (d *Driver) SwitchToDefaultContent() error {
	d.scope = d.page
	return nil
}

func (d *Driver) AcceptDialog() error {
	err := proto.PageHandleJavaScriptDialog{Accept: true}.Call(d.page)
	if err != nil {
		return fmt.Errorf("%w: %v", driver.ErrNoDialog, err)
	}
	return nil
}

func (d *Driver) ActiveElement() (driver.Element, error) {
	obj, err := d.scope.Evaluate(gorod.Eval("() => document.activeElement").ByObject())
	if err != nil {
		return nil, fmt.Errorf("active element: %w", err)
	}
	el, err := d.scope.ElementFromObject(obj)
	if err != nil {
		return nil, fmt.Errorf("active element: %w", err)
	}
	return &Element{el: el, timeout: d.actionTimeout}, nil
}

func (d *Driver) Hover(target driver.Element) error {
	e, ok := target.(*Element)
	if !ok {
		return driver.ErrForeignElement
	}
	el, done := e.bounded()
	defer done()
	return el.Hover()
}

func (d *Driver) DragAndDrop(source, target driver.Element) error {
	src, ok := source.(*Element)
	if !ok {
		return driver.ErrForeignElement
	}
	dst, ok := target.(*Element)
	if !ok {
		return driver.ErrForeignElement
	}

	el, done := src.bounded()
	defer done()
	if err := el.Hover(); err != nil {
		return fmt.Errorf("hover source: %w", err)
	}
	shape, err := dst.el.Shape()
	if err != nil {
		return fmt.Errorf("locate target: %w", err)
	}
	pt := shape.OnePointInside()
	if pt == nil {
		return fmt.Errorf("locate target: element has no visible area")
	}

	mouse := d.page.Mouse
	if err := mouse.Down(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	if err := mouse.MoveLinear(*pt, 5); err != nil {
		return err
	}
	return mouse.Up(proto.InputMouseButtonLeft, 1)
}

func (d *Driver) WindowSize() (driver.Size, error) {
	b, err := d.page.GetWindow()
	if err != nil {
		return driver.Size{}, fmt.Errorf("get window: %w", err)
	}
	var size driver.Size
	if b.Width != nil {
		size.Width = *b.Width
	}
	if b.Height != nil {
		size.Height = *b.Height
	}
	return size, nil
}

func (d *Driver) SetWindowSize(size driver.Size) error {
	// Bounds cannot change while the window is maximized or minimized.
	normal := &proto.BrowserBounds{WindowState: proto.BrowserWindowStateNormal}
	if err := d.page.SetWindow(normal); err != nil {
		return fmt.Errorf("restore window: %w", err)
	}
	w, h := size.Width, size.Height
	if err := d.page.SetWindow(&proto.BrowserBounds{Width: &w, Height: &h}); err != nil {
		return fmt.Errorf("resize window: %w", err)
	}
	return nil
}

// Element wraps a rod element.
type Element struct {
	el      *gorod.Element
	timeout time.Duration
}

var (
	_ driver.Element    = (*Element)(nil)
	_ driver.ShadowHost = (*Element)(nil)
)

// bounded returns a clone of the element whose waits give up after the
// action timeout. Call done once the action returns.
func (e *Element) bounded() (el *gorod.Element, done func()) {
	if e.timeout <= 0 {
		return e.el, func() {}
	}
	el = e.el.Timeout(e.timeout)
	return el, func() { el.CancelTimeout() }
}

func (e *Element) Displayed() (bool, error) {
	return e.el.Visible()
}

func (e *Element) Enabled() (bool, error) {
	disabled, err := e.el.Property("disabled")
	if err != nil {
		return false, err
	}
	return !disabled.Bool(), nil
}

func (e *Element) Text() (string, error) {
	return e.el.Text()
}

func (e *Element) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (e *Element) Click() error {
	el, done := e.bounded()
	defer done()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *Element) Clear() error {
	el, done := e.bounded()
	defer done()
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input("")
}

func (e *Element) SendKeys(text string) error {
	el, done := e.bounded()
	defer done()
	return el.Input(text)
}

func (e *Element) Call(fn string, args ...any) (any, error) {
	res, err := e.el.Eval("function(...args) { return ("+fn+")(this, ...args) }", jsArgs(args)...)
	if err != nil {
		return nil, err
	}
	return res.Value.Val(), nil
}

func (e *Element) ShadowRoot() (driver.SearchContext, error) {
	root, err := e.el.ShadowRoot()
	if err != nil {
		var none *gorod.NoShadowRootError
		if errors.As(err, &none) {
			return nil, driver.ErrNoShadowRoot
		}
		return nil, fmt.Errorf("shadow root: %w", err)
	}
	return &shadowRoot{root: root, timeout: e.timeout}, nil
}

// shadowRoot searches below a shadow root node.
type shadowRoot struct {
	root    *gorod.Element
	timeout time.Duration
}

func (s *shadowRoot) FindElements(by driver.By) ([]driver.Element, error) {
	var (
		elems gorod.Elements
		err   error
	)
	if by.IsXPath() {
		elems, err = s.root.ElementsX(by.Query())
	} else {
		elems, err = s.root.Elements(by.Query())
	}
	if err != nil {
		return nil, fmt.Errorf("find %s in shadow root: %w", by, err)
	}
	out := make([]driver.Element, len(elems))
	for i, el := range elems {
		out[i] = &Element{el: el, timeout: s.timeout}
	}
	return out, nil
}
