// Package playwright implements driver.Driver with playwright-go, attached
// over CDP to an already running Chrome.
package playwright

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	pw "github.com/playwright-community/playwright-go"

	"github.com/entrhq/uchrome/pkg/driver"
)

var (
	runOnce  sync.Once
	instance *pw.Playwright
	runErr   error
)

// start installs (if needed) and runs the Playwright driver once per process.
// Output is discarded so it does not interleave with the CLI's.
func start() (*pw.Playwright, error) {
	runOnce.Do(func() {
		opts := &pw.RunOptions{
			SkipInstallBrowsers: true,
			Verbose:             false,
			Stdout:              io.Discard,
			Stderr:              io.Discard,
		}
		if err := pw.Install(opts); err != nil {
			runErr = fmt.Errorf("failed to install playwright: %w", err)
			return
		}
		instance, runErr = pw.Run(opts)
		if runErr != nil {
			runErr = fmt.Errorf("failed to start playwright: %w", runErr)
		}
	})
	return instance, runErr
}

// Driver drives one Playwright page. Lookups and scripts run in frame,
// which is the page's main frame unless SwitchToFrame picked another.
type Driver struct {
	browser       pw.Browser
	ctx           pw.BrowserContext
	page          pw.Page
	frame         pw.Frame
	pid           int
	actionTimeout time.Duration

	mu      sync.Mutex
	handles map[pw.Page]string
	dialogs map[pw.Page]pw.Dialog
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

// WithActionTimeout sets Playwright's default timeout for element actions.
// Zero or less keeps Playwright's own default.
func WithActionTimeout(d time.Duration) Option {
	return func(drv *Driver) { drv.actionTimeout = d }
}

// Connect attaches to the Chrome listening at controlURL and drives its
// first page. pid is reported by ProcessID.
func Connect(controlURL string, pid int, opts ...Option) (*Driver, error) {
	runner, err := start()
	if err != nil {
		return nil, err
	}

	browser, err := runner.Chromium.ConnectOverCDP(controlURL)
	if err != nil {
		return nil, fmt.Errorf("connect over cdp: %w", err)
	}

	var ctx pw.BrowserContext
	if contexts := browser.Contexts(); len(contexts) > 0 {
		ctx = contexts[0]
	} else {
		ctx, err = browser.NewContext()
		if err != nil {
			_ = browser.Close()
			return nil, fmt.Errorf("failed to create context: %w", err)
		}
	}

	var page pw.Page
	if pages := ctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		page, err = ctx.NewPage()
		if err != nil {
			_ = browser.Close()
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
	}

	d := &Driver{
		browser: browser,
		ctx:     ctx,
		pid:     pid,
		handles: make(map[pw.Page]string),
		dialogs: make(map[pw.Page]pw.Dialog),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.actionTimeout > 0 {
		ctx.SetDefaultTimeout(float64(d.actionTimeout.Milliseconds()))
	}
	// Without a listener Playwright dismisses dialogs on its own.
	ctx.OnDialog(d.holdDialog)
	d.use(page)
	return d, nil
}

func (d *Driver) use(page pw.Page) {
	d.page = page
	d.frame = page.MainFrame()
}

func (d *Driver) holdDialog(dialog pw.Dialog) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialogs[dialog.Page()] = dialog
}

// Page exposes the underlying Playwright page.
func (d *Driver) Page() pw.Page {
	return d.page
}

// selector lowers by to a Playwright selector engine expression.
func selector(by driver.By) string {
	if by.IsXPath() {
		return "xpath=" + by.Query()
	}
	return "css=" + by.Query()
}

func wrap(handles []pw.ElementHandle) []driver.Element {
	out := make([]driver.Element, len(handles))
	for i, h := range handles {
		out[i] = &Element{h: h}
	}
	return out
}

func (d *Driver) FindElements(by driver.By) ([]driver.Element, error) {
	handles, err := d.frame.QuerySelectorAll(selector(by))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", by, err)
	}
	return wrap(handles), nil
}

func (d *Driver) CurrentURL() (string, error) {
	return d.page.URL(), nil
}

func (d *Driver) ExecuteScript(body string, args ...any) (any, error) {
	expr := "(args) => (function() {\n" + body + "\n}).apply(null, args)"
	v, err := d.frame.Evaluate(expr, jsArgs(args))
	if err != nil {
		return nil, fmt.Errorf("execute script: %w", err)
	}
	return v, nil
}

// jsArgs replaces wrapped elements with their handles so the page receives
// DOM nodes.
func jsArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if e, ok := a.(*Element); ok {
			out[i] = e.h
			continue
		}
		out[i] = a
	}
	return out
}

func (d *Driver) Navigate(url string) error {
	d.frame = d.page.MainFrame()
	if _, err := d.page.Goto(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (d *Driver) Reload() error {
	d.frame = d.page.MainFrame()
	_, err := d.page.Reload()
	return err
}

func (d *Driver) ProcessID() int {
	return d.pid
}

// Close drops the CDP connection; the Chrome process keeps running until
// the registry kills it.
func (d *Driver) Close() error {
	return d.browser.Close()
}

func (d *Driver) Cookies() ([]driver.Cookie, error) {
	cookies, err := d.ctx.Cookies()
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
	cookie := pw.OptionalCookie{Name: c.Name, Value: c.Value}
	if c.Domain != "" {
		cookie.Domain = pw.String(c.Domain)
		path := c.Path
		if path == "" {
			path = "/"
		}
		cookie.Path = pw.String(path)
	} else {
		cookie.URL = pw.String(d.page.URL())
	}
	if err := d.ctx.AddCookies([]pw.OptionalCookie{cookie}); err != nil {
		return fmt.Errorf("set cookie %s: %w", c.Name, err)
	}
	return nil
}

func (d *Driver) ClearCookies() error {
	return d.ctx.ClearCookies()
}

// handle names page, assigning a handle the first time it is seen.
// Callers hold d.mu.
func (d *Driver) handle(page pw.Page) string {
	h, ok := d.handles[page]
	if !ok {
		h = uuid.NewString()
		d.handles[page] = h
	}
	return h
}

// WindowHandles lists the context's pages in the order they were opened.
func (d *Driver) WindowHandles() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pages := d.ctx.Pages()
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = d.handle(p)
	}
	return out, nil
}

func (d *Driver) CurrentWindowHandle() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handle(d.page), nil
}

func (d *Driver) SwitchToWindow(handle string) error {
	d.mu.Lock()
	var target pw.Page
	for _, p := range d.ctx.Pages() {
		if d.handle(p) == handle {
			target = p
			break
		}
	}
	d.mu.Unlock()

	if target == nil {
		return fmt.Errorf("switch to window %s: no such tab", handle)
	}
	if err := target.BringToFront(); err != nil {
		return fmt.Errorf("activate tab %s: %w", handle, err)
	}
	d.use(target)
	return nil
}

func (d *Driver) SwitchToFrame(frame driver.Element) error {
	e, ok := frame.(*Element)
	if !ok {
		return driver.ErrForeignElement
	}
	f, err := e.h.ContentFrame()
	if err != nil {
		return fmt.Errorf("switch to frame: %w", err)
	}
	if f == nil {
		return fmt.Errorf("switch to frame: element is not a frame")
	}
	d.frame = f
	return nil
}

func (d *Driver) SwitchToDefaultContent() error {
	d.frame = d.page.MainFrame()
	return nil
}

func (d *Driver) AcceptDialog() error {
	d.mu.Lock()
	dialog := d.dialogs[d.page]
	delete(d.dialogs, d.page)
	d.mu.Unlock()

	if dialog == nil {
		return driver.ErrNoDialog
	}
	return dialog.Accept()
}

func (d *Driver) ActiveElement() (driver.Element, error) {
	js, err := d.frame.EvaluateHandle("() => document.activeElement")
	if err != nil {
		return nil, fmt.Errorf("active element: %w", err)
	}
	h := js.AsElement()
	if h == nil {
		_ = js.Dispose()
		return nil, fmt.Errorf("active element: document has no active element")
	}
	return &Element{h: h}, nil
}

func (d *Driver) Hover(target driver.Element) error {
	e, ok := target.(*Element)
	if !ok {
		return driver.ErrForeignElement
	}
	return e.h.Hover()
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

	if err := src.h.Hover(); err != nil {
		return fmt.Errorf("hover source: %w", err)
	}
	box, err := dst.h.BoundingBox()
	if err != nil {
		return fmt.Errorf("locate target: %w", err)
	}
	if box == nil {
		return fmt.Errorf("locate target: element is not visible")
	}

	mouse := d.page.Mouse()
	if err := mouse.Down(); err != nil {
		return err
	}
	x, y := box.X+box.Width/2, box.Y+box.Height/2
	if err := mouse.Move(x, y, pw.MouseMoveOptions{Steps: pw.Int(5)}); err != nil {
		return err
	}
	return mouse.Up()
}

// window runs fn with a CDP session on the current page. Playwright only
// resizes the viewport, so the window goes through the Browser domain.
func (d *Driver) window(fn func(cdp pw.CDPSession, windowID any) error) error {
	cdp, err := d.ctx.NewCDPSession(d.page)
	if err != nil {
		return fmt.Errorf("open cdp session: %w", err)
	}
	defer func() { _ = cdp.Detach() }()

	res, err := cdp.Send("Browser.getWindowForTarget", map[string]any{})
	if err != nil {
		return fmt.Errorf("get window: %w", err)
	}
	m, ok := res.(map[string]any)
	if !ok {
		return fmt.Errorf("get window: unexpected reply %T", res)
	}
	return fn(cdp, m["windowId"])
}

func (d *Driver) WindowSize() (driver.Size, error) {
	var size driver.Size
	err := d.window(func(cdp pw.CDPSession, id any) error {
		res, err := cdp.Send("Browser.getWindowBounds", map[string]any{"windowId": id})
		if err != nil {
			return err
		}
		m, _ := res.(map[string]any)
		bounds, _ := m["bounds"].(map[string]any)
		w, _ := bounds["width"].(float64)
		h, _ := bounds["height"].(float64)
		size = driver.Size{Width: int(w), Height: int(h)}
		return nil
	})
	return size, err
}

func (d *Driver) SetWindowSize(size driver.Size) error {
	return d.window(func(cdp pw.CDPSession, id any) error {
		// Bounds cannot change while the window is maximized or minimized.
		_, err := cdp.Send("Browser.setWindowBounds", map[string]any{
			"windowId": id,
			"bounds":   map[string]any{"windowState": "normal"},
		})
		if err != nil {
			return err
		}
		_, err = cdp.Send("Browser.setWindowBounds", map[string]any{
			"windowId": id,
			"bounds":   map[string]any{"width": size.Width, "height": size.Height},
		})
		return err
	})
}

// Element wraps a Playwright element handle.
type Element struct {
	h pw.ElementHandle
}

var (
	_ driver.Element    = (*Element)(nil)
	_ driver.ShadowHost = (*Element)(nil)
)

func (e *Element) Displayed() (bool, error) {
	return e.h.IsVisible()
}

func (e *Element) Enabled() (bool, error) {
	return e.h.IsEnabled()
}

func (e *Element) Text() (string, error) {
	return e.h.InnerText()
}

func (e *Element) Attribute(name string) (string, error) {
	return e.h.GetAttribute(name)
}

func (e *Element) Click() error {
	return e.h.Click()
}

func (e *Element) Clear() error {
	return e.h.Fill("")
}

func (e *Element) SendKeys(text string) error {
	return e.h.Type(text)
}

func (e *Element) Call(fn string, args ...any) (any, error) {
	return e.h.Evaluate("(el, args) => ("+fn+")(el, ...args)", jsArgs(args))
}

func (e *Element) ShadowRoot() (driver.SearchContext, error) {
	js, err := e.h.EvaluateHandle("el => el.shadowRoot")
	if err != nil {
		return nil, fmt.Errorf("shadow root: %w", err)
	}
	root := js.AsElement()
	if root == nil {
		_ = js.Dispose()
		return nil, driver.ErrNoShadowRoot
	}
	return shadowRoot{root: root}, nil
}

// shadowRoot searches below a shadow root node.
type shadowRoot struct {
	root pw.ElementHandle
}

func (s shadowRoot) FindElements(by driver.By) ([]driver.Element, error) {
	handles, err := s.root.QuerySelectorAll(selector(by))
	if err != nil {
		return nil, fmt.Errorf("find %s in shadow root: %w", by, err)
	}
	return wrap(handles), nil
}
