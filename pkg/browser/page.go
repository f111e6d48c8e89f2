package browser

import (
	"fmt"
	"strings"
)

// IPEchoURL returns the caller's public IP as plain text.
var IPEchoURL = "https://icanhazip.com"

// Navigate loads url in the current tab.
func (s *Session) Navigate(url string) error {
	return s.drv.Navigate(url)
}

// Refresh reloads the current page.
func (s *Session) Refresh() error {
	return s.drv.Reload()
}

// CancelPageLoad stops any pending navigation. Errors are ignored.
func (s *Session) CancelPageLoad() {
	if _, err := s.drv.ExecuteScript("window.stop();"); err != nil {
		debugLog.Debugf("cancel page load: %v", err)
	}
}

// NewTab opens url (or a blank page) in a new tab.
func (s *Session) NewTab(url string) error {
	_, err := s.drv.ExecuteScript("window.open(arguments[0] || '');", url)
	if err != nil {
		return fmt.Errorf("open tab: %w", err)
	}
	return nil
}

// CurrentURL returns the address of the current page.
func (s *Session) CurrentURL() (string, error) {
	return s.drv.CurrentURL()
}

// ExecuteScript runs body as a function with arguments available through
// the arguments object.
func (s *Session) ExecuteScript(body string, args ...any) (any, error) {
	return s.drv.ExecuteScript(body, args...)
}

// ScrollToEnd scrolls to the bottom of the document.
func (s *Session) ScrollToEnd() {
	if _, err := s.drv.ExecuteScript("window.scrollTo(0, document.body.scrollHeight);"); err != nil {
		debugLog.Debugf("scroll to end: %v", err)
	}
}

const xhrScript = `var xhr = new XMLHttpRequest();
xhr.open(arguments[0], arguments[1], false);
var headers = arguments[2] || {};
for (var k in headers) { xhr.setRequestHeader(k, headers[k]); }
xhr.send(arguments[3] === undefined ? null : arguments[3]);
return xhr.responseText;`

// HTTPGet fetches url from inside the page with a synchronous XHR, so the
// request carries the page's cookies and proxy.
func (s *Session) HTTPGet(url string) (string, error) {
	return s.xhr("GET", url, nil, nil)
}

// HTTPPost sends body to url from inside the page.
func (s *Session) HTTPPost(url string, headers map[string]string, body string) (string, error) {
	return s.xhr("POST", url, headers, body)
}

// HTTPPut sends body to url from inside the page.
func (s *Session) HTTPPut(url string, headers map[string]string, body string) (string, error) {
	return s.xhr("PUT", url, headers, body)
}

func (s *Session) xhr(method, url string, headers map[string]string, body any) (string, error) {
	if headers == nil {
		headers = map[string]string{}
	}
	args := []any{method, url, headers}
	if body != nil {
		args = append(args, body)
	}
	v, err := s.drv.ExecuteScript(xhrScript, args...)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, url, err)
	}
	text, _ := v.(string)
	return text, nil
}

// PublicIP returns the IP address the browser is seen from.
func (s *Session) PublicIP() (string, error) {
	text, err := s.HTTPGet(IPEchoURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
