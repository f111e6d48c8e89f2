package browser

import (
	"fmt"
	"strings"

	"github.com/entrhq/uchrome/pkg/driver"
)

func (s *Session) jar() (driver.CookieJar, error) {
	jar, ok := s.drv.(driver.CookieJar)
	if !ok {
		return nil, ErrNoCookieJar
	}
	return jar, nil
}

// Cookies returns every cookie visible to the current page.
func (s *Session) Cookies() ([]driver.Cookie, error) {
	jar, err := s.jar()
	if err != nil {
		return nil, err
	}
	return jar.Cookies()
}

// CookieString renders the cookies as "name=value;" pairs.
func (s *Session) CookieString() (string, error) {
	cookies, err := s.Cookies()
	if err != nil {
		return "", err
	}
	return FormatCookies(cookies), nil
}

// SetCookieString adds every name=value pair of a cookie header string to
// the current page.
func (s *Session) SetCookieString(cookies string) error {
	jar, err := s.jar()
	if err != nil {
		return err
	}
	for _, c := range ParseCookies(cookies) {
		if err := jar.SetCookie(c); err != nil {
			return fmt.Errorf("set cookie %s: %w", c.Name, err)
		}
	}
	return nil
}

// ClearCookies deletes every cookie.
func (s *Session) ClearCookies() error {
	jar, err := s.jar()
	if err != nil {
		return err
	}
	return jar.ClearCookies()
}

// FormatCookies joins cookies as "a=1;b=2;".
func FormatCookies(cookies []driver.Cookie) string {
	var b strings.Builder
	for _, c := range cookies {
		fmt.Fprintf(&b, "%s=%s;", c.Name, c.Value)
	}
	return b.String()
}

// ParseCookies reads "a=1; b=2" style strings. Spaces are dropped, pairs
// without a name or value are skipped, and values may contain '='.
func ParseCookies(s string) []driver.Cookie {
	s = strings.ReplaceAll(s, " ", "")
	var out []driver.Cookie
	for _, pair := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" || value == "" {
			continue
		}
		out = append(out, driver.Cookie{Name: name, Value: value})
	}
	return out
}
