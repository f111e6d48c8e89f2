// Package proxy parses and serializes proxy endpoints.
package proxy

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/tidwall/sjson"
)

// Method is the proxy protocol.
type Method string

const (
	SOCKS4 Method = "socks4"
	SOCKS5 Method = "socks5"
	HTTP   Method = "http"
	HTTPS  Method = "https"
)

// DefaultMethod is used when a descriptor names no method.
const DefaultMethod = SOCKS5

// Descriptor is a proxy endpoint with optional credentials.
type Descriptor struct {
	Host     string
	Port     int
	User     string
	Password string
	Method   Method
}

// New returns a descriptor without credentials using DefaultMethod.
func New(host string, port int) *Descriptor {
	return &Descriptor{Host: host, Port: port, Method: DefaultMethod}
}

// Parse reads host:port[:user[:password[:method]]], accepting ':' or '|'
// as the separator. It returns false for fewer than two fields or a port
// that is not a number.
func Parse(s string) (d *Descriptor, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d, ok = nil, false
		}
	}()

	parts := strings.Split(strings.ReplaceAll(strings.TrimSpace(s), "|", ":"), ":")
	if len(parts) < 2 {
		return nil, false
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, false
	}

	d = New(parts[0], port)
	if len(parts) > 2 {
		d.User = parts[2]
	}
	if len(parts) > 3 {
		d.Password = parts[3]
	}
	if len(parts) > 4 {
		d.Method = Method(strings.ToLower(parts[4]))
	}
	return d, true
}

func (d *Descriptor) method() Method {
	if d.Method == "" {
		return DefaultMethod
	}
	return d.Method
}

// HasAuth reports whether the descriptor carries a user name.
func (d *Descriptor) HasAuth() bool {
	return d.User != ""
}

// Addr returns host:port.
func (d *Descriptor) Addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// String returns host:port, or host:port:user:password:method when
// credentials are present. Parse accepts both forms.
func (d *Descriptor) String() string {
	if !d.HasAuth() {
		return fmt.Sprintf("%s:%d", d.Host, d.Port)
	}
	return fmt.Sprintf("%s:%d:%s:%s:%s", d.Host, d.Port, d.User, d.Password, d.method())
}

// ChromeFlag returns the value for Chrome's --proxy-server switch.
// Chrome ignores credentials here; authenticated proxies need the
// extension document from ExtensionConfig.
func (d *Descriptor) ChromeFlag() string {
	return fmt.Sprintf("%s://%s", d.method(), d.Addr())
}

// ExtensionConfig builds the settings document read by the proxy
// extension loaded into the browser.
func (d *Descriptor) ExtensionConfig() (string, error) {
	doc := `{}`
	set := func(path string, value any) {
		if doc == "" {
			return
		}
		var err error
		if doc, err = sjson.Set(doc, path, value); err != nil {
			doc = ""
		}
	}

	set("auth.user", d.User)
	set("auth.pass", d.Password)
	set("socks_type", string(DefaultMethod))
	set("pac_type", "file://")
	set("bypasslist", "")
	set("rules_mode", "Whitelist")
	set("proxy_rule", "singleProxy")
	set("internal", "")

	switch m := d.method(); m {
	case SOCKS4, SOCKS5:
		set("socks_type", string(m))
		set("socks_host", d.Host)
		set("socks_port", d.Port)
	case HTTP:
		set("http_host", d.Host)
		set("http_port", d.Port)
	case HTTPS:
		set("https_host", d.Host)
		set("https_port", d.Port)
	default:
		return "", fmt.Errorf("unsupported proxy method %q", m)
	}

	if doc == "" {
		return "", fmt.Errorf("failed to build proxy extension config for %s", d.Addr())
	}
	return doc, nil
}
