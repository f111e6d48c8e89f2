package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/entrhq/uchrome/pkg/config"
	"github.com/entrhq/uchrome/pkg/proxy"
)

// Backends accepted by LaunchOptions.Backend.
const (
	BackendRod        = config.BackendRod
	BackendPlaywright = config.BackendPlaywright
)

// automationArgs hide the usual automation fingerprints.
var automationArgs = []string{
	"--disable-infobars",
	"--disable-notifications",
	"--disable-popup-blocking",
	"--ignore-certificate-errors",
	"--disable-blink-features=AutomationControlled",
}

// LaunchOptions describes a browser to start.
type LaunchOptions struct {
	// Hidden runs Chrome headless.
	Hidden bool

	LoadImages  bool
	UserDataDir string
	UserAgent   string
	Proxy       *proxy.Descriptor

	// ProxyExtensionDir is an unpacked proxy extension. When set and the
	// proxy has credentials, its config.json is written from the proxy and
	// the extension is loaded.
	ProxyExtensionDir string

	// Width and Height set the window size when both are positive.
	Width  int
	Height int

	// Extensions are unpacked extension directories to load.
	Extensions []string

	// Args are extra Chrome switches appended last.
	Args []string

	// Backend selects the driver: BackendRod (default) or BackendPlaywright.
	Backend string

	// ChromeBinary overrides the Chrome executable.
	ChromeBinary string
}

// OptionsFromConfig builds launch options from stored browser settings.
func OptionsFromConfig(s config.BrowserSettings) (LaunchOptions, error) {
	opts := LaunchOptions{
		Hidden:       s.Headless,
		LoadImages:   s.LoadImages,
		UserAgent:    s.UserAgent,
		Width:        s.WindowWidth,
		Height:       s.WindowHeight,
		Backend:      s.Backend,
		ChromeBinary: s.ChromeBinary,
	}
	if s.Proxy != "" {
		p, ok := proxy.Parse(s.Proxy)
		if !ok {
			return LaunchOptions{}, fmt.Errorf("invalid proxy %q", s.Proxy)
		}
		opts.Proxy = p
	}
	return opts, nil
}

// ChromeArgs returns the switches for opts, excluding headless and the
// user data dir which the launcher sets itself.
func (o LaunchOptions) ChromeArgs() []string {
	args := append([]string(nil), automationArgs...)

	if ua := strings.TrimSpace(o.UserAgent); ua != "" {
		args = append(args, "--user-agent="+ua)
	}
	if o.Width > 0 && o.Height > 0 {
		args = append(args, fmt.Sprintf("--window-size=%d,%d", o.Width, o.Height))
	}
	if o.Proxy != nil {
		args = append(args, "--proxy-server="+o.Proxy.ChromeFlag())
	}
	if !o.LoadImages {
		args = append(args, "--blink-settings=imagesEnabled=false")
	}
	if exts := o.extensions(); len(exts) > 0 {
		args = append(args, "--load-extension="+strings.Join(exts, ","))
	}
	return append(args, o.Args...)
}

func (o LaunchOptions) extensions() []string {
	exts := append([]string(nil), o.Extensions...)
	if o.ProxyExtensionDir != "" && o.Proxy != nil && o.Proxy.HasAuth() {
		exts = append(exts, o.ProxyExtensionDir)
	}
	return exts
}

// writeProxyExtension renders the proxy settings into the extension dir.
func (o LaunchOptions) writeProxyExtension() error {
	if o.ProxyExtensionDir == "" || o.Proxy == nil || !o.Proxy.HasAuth() {
		return nil
	}
	doc, err := o.Proxy.ExtensionConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.ProxyExtensionDir, 0750); err != nil {
		return fmt.Errorf("failed to create proxy extension dir: %w", err)
	}
	path := filepath.Join(o.ProxyExtensionDir, "config.json")
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		return fmt.Errorf("failed to write proxy config: %w", err)
	}
	return nil
}
