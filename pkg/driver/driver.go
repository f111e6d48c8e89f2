// Package driver defines the browser capability consumed by the wait engine,
// the process registry and the session helpers.
//
// Implementations live in the rod and playwright subpackages. Every method may
// fail transiently while the page is rendering or navigating; callers in this
// module treat such failures as "not ready yet" rather than as fatal.
package driver

import "errors"

var (
	// ErrNotSupported is returned by optional operations a backend cannot perform.
	ErrNotSupported = errors.New("operation not supported by driver")

	// ErrNoShadowRoot is returned when an element hosts no open shadow root.
	ErrNoShadowRoot = errors.New("element has no open shadow root")

	// ErrNoDialog is returned by AcceptDialog when no dialog is open.
	ErrNoDialog = errors.New("no javascript dialog is open")

	// ErrForeignElement is returned when an element from another backend is
	// passed in.
	ErrForeignElement = errors.New("element does not belong to this driver")
)

// Driver is a live connection to one browser page.
type Driver interface {
	// FindElements resolves every element currently matching by.
	// No match is an empty slice, not an error.
	FindElements(by By) ([]Element, error)

	// CurrentURL returns the address of the current page.
	CurrentURL() (string, error)

	// ExecuteScript runs body as the body of a JavaScript function.
	// args are visible through the arguments object. Elements found by the
	// same driver are passed as DOM nodes; other values are sent as JSON.
	ExecuteScript(body string, args ...any) (any, error)

	// Navigate loads url in the current page.
	Navigate(url string) error

	// Reload reloads the current page.
	Reload() error

	// ProcessID returns the OS pid of the browser process, or 0 if unknown.
	ProcessID() int

	// Close ends the connection. A backend may shut the browser down with it;
	// killing the process tree is left to the registry either way.
	Close() error
}

// Element is a handle to a DOM element.
type Element interface {
	// Displayed reports whether the element is visible.
	Displayed() (bool, error)

	// Enabled reports whether the element is interactable (not disabled).
	Enabled() (bool, error)

	// Text returns the rendered text of the element.
	Text() (string, error)

	// Attribute returns the named attribute, or "" when absent.
	Attribute(name string) (string, error)

	// Click clicks the element with the left mouse button.
	Click() error

	// Clear empties an input or textarea.
	Clear() error

	// SendKeys types text into the element.
	SendKeys(text string) error

	// Call invokes fn, a JavaScript function expression, as fn(element, ...args).
	Call(fn string, args ...any) (any, error)
}

// Cookie is a browser cookie.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// CookieJar is implemented by drivers that can read and write cookies.
type CookieJar interface {
	Cookies() ([]Cookie, error)
	SetCookie(c Cookie) error
	ClearCookies() error
}

// SearchContext finds elements under some root: a page, a frame or a
// shadow root.
type SearchContext interface {
	FindElements(by By) ([]Element, error)
}

// ShadowHost is implemented by elements that can expose their shadow root.
type ShadowHost interface {
	// ShadowRoot returns a context searching inside the element's open
	// shadow root, or ErrNoShadowRoot.
	ShadowRoot() (SearchContext, error)
}

// Tabs is implemented by drivers that can move between the browser's tabs.
// Handles are opaque and stable for the life of a tab.
type Tabs interface {
	// WindowHandles lists the open tabs, oldest first.
	WindowHandles() ([]string, error)

	// CurrentWindowHandle returns the handle of the driven tab.
	CurrentWindowHandle() (string, error)

	// SwitchToWindow drives the tab with handle and brings it to the front.
	SwitchToWindow(handle string) error
}

// Frames is implemented by drivers that can drive an iframe's document.
// Lookups and scripts run in the selected frame until the next switch.
type Frames interface {
	SwitchToFrame(frame Element) error
	SwitchToDefaultContent() error
}

// Dialogs is implemented by drivers that can answer alert, confirm and
// prompt dialogs.
type Dialogs interface {
	// AcceptDialog accepts the open dialog, or returns ErrNoDialog.
	AcceptDialog() error
}

// Focus is implemented by drivers that can report document.activeElement.
type Focus interface {
	ActiveElement() (Element, error)
}

// Pointer is implemented by drivers that can move a real mouse.
type Pointer interface {
	// Hover moves the mouse over the center of el.
	Hover(el Element) error

	// DragAndDrop presses on source, moves onto target and releases.
	DragAndDrop(source, target Element) error
}

// Size is a width and height in CSS pixels.
type Size struct {
	Width  int
	Height int
}

// Window is implemented by drivers that can read and resize the browser
// window.
type Window interface {
	WindowSize() (Size, error)
	SetWindowSize(size Size) error
}

// TabOrder remembers the order in which tab handles were first seen, for
// backends whose target list is unordered.
type TabOrder struct {
	seen []string
}

// Update merges live into the remembered order and returns the live
// handles, oldest first. Closed tabs are forgotten.
func (o *TabOrder) Update(live []string) []string {
	alive := make(map[string]bool, len(live))
	for _, h := range live {
		alive[h] = true
	}

	kept := o.seen[:0]
	known := make(map[string]bool, len(o.seen))
	for _, h := range o.seen {
		if alive[h] {
			kept = append(kept, h)
			known[h] = true
		}
	}
	for _, h := range live {
		if !known[h] {
			kept = append(kept, h)
			known[h] = true
		}
	}
	o.seen = kept
	return append([]string(nil), kept...)
}

// First returns the first element of elems, or nil.
func First(elems []Element) Element {
	if len(elems) == 0 {
		return nil
	}
	return elems[0]
}
