// Package rod implements driver.Driver on top of go-rod. It also owns
// launching Chrome, since the launcher is what knows the browser PID.
package rod

import (
	"fmt"
	"strings"

	gorod "github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"github.com/entrhq/uchrome/pkg/logging"
)

var debugLog *logging.Logger

func init() {
	debugLog = logging.MustNew("rod")
}

// LaunchOptions controls how Chrome is started.
type LaunchOptions struct {
	// Bin is the Chrome binary. Empty means the launcher's lookup/download.
	Bin string

	Headless bool

	// UserDataDir is the profile directory. Empty means a temporary one.
	UserDataDir string

	// Args are raw Chrome switches such as "--window-size=1280,800".
	Args []string
}

// Process is a running Chrome instance.
type Process struct {
	ControlURL string
	PID        int

	launcher *launcher.Launcher
}

// enableAutomation is the switch rod's launcher adds by default. It shows
// the "controlled by automated test software" bar and sets
// navigator.webdriver.
const enableAutomation = flags.Flag("enable-automation")

// newLauncher builds the launcher for opts without starting Chrome.
func newLauncher(opts LaunchOptions) *launcher.Launcher {
	l := launcher.New().Headless(opts.Headless).Leakless(false)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}
	return applyArgs(l, opts.Args).Delete(enableAutomation)
}

// Launch starts Chrome and returns its websocket control URL and PID.
func Launch(opts LaunchOptions) (*Process, error) {
	l := newLauncher(opts)

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	debugLog.Infof("chrome started (pid %d) at %s", l.PID(), url)
	return &Process{ControlURL: url, PID: l.PID(), launcher: l}, nil
}

// Cleanup removes the temporary profile once the process is gone.
func (p *Process) Cleanup() {
	if p.launcher != nil {
		p.launcher.Cleanup()
	}
}

// Connect attaches to a running Chrome and drives its first tab, opening
// one if there is none. pid is reported by ProcessID and may be zero.
func Connect(controlURL string, pid int, opts ...Option) (*Driver, error) {
	browser := gorod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	pages, err := browser.Pages()
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("list pages: %w", err)
	}
	var page *gorod.Page
	if len(pages) > 0 {
		page = pages.First()
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
		if err != nil {
			_ = browser.Close()
			return nil, fmt.Errorf("open page: %w", err)
		}
	}

	return newDriver(browser, page, pid, opts), nil
}

// applyArgs copies raw "--name[=value]" switches onto l.
func applyArgs(l *launcher.Launcher, args []string) *launcher.Launcher {
	for _, raw := range args {
		name, val, hasVal := strings.Cut(strings.TrimLeft(raw, "-"), "=")
		if name == "" {
			continue
		}
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}
