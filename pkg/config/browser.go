package config

import (
	"fmt"
	"sync"

	"github.com/entrhq/uchrome/pkg/proxy"
)

const (
	// SectionIDBrowser is the identifier for the browser launch section
	SectionIDBrowser = "browser"

	// BackendRod drives Chrome through go-rod
	BackendRod = "rod"
	// BackendPlaywright drives Chrome through playwright-go over CDP
	BackendPlaywright = "playwright"

	defaultBackend      = BackendRod
	defaultWindowWidth  = 1366
	defaultWindowHeight = 768
)

// BrowserSection holds the defaults used when launching a session.
type BrowserSection struct {
	Headless     bool   `json:"headless"`
	Backend      string `json:"backend"`
	LoadImages   bool   `json:"load_images"`
	UserAgent    string `json:"user_agent"`
	WindowWidth  int    `json:"window_width"`
	WindowHeight int    `json:"window_height"`
	Proxy        string `json:"proxy"`
	ChromeBinary string `json:"chrome_binary"`
	mu           sync.RWMutex
}

// NewBrowserSection returns the section with defaults.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

func (s *BrowserSection) ID() string { return SectionIDBrowser }

func (s *BrowserSection) Title() string { return "Browser" }

func (s *BrowserSection) Description() string {
	return "Defaults for launching Chrome: backend, visibility, window size, user agent and proxy."
}

func (s *BrowserSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"headless":      s.Headless,
		"backend":       s.Backend,
		"load_images":   s.LoadImages,
		"user_agent":    s.UserAgent,
		"window_width":  s.WindowWidth,
		"window_height": s.WindowHeight,
		"proxy":         s.Proxy,
		"chrome_binary": s.ChromeBinary,
	}
}

func (s *BrowserSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "headless":
			s.Headless, err = asBool(key, value)
		case "load_images":
			s.LoadImages, err = asBool(key, value)
		case "backend":
			s.Backend, err = asString(key, value)
		case "user_agent":
			s.UserAgent, err = asString(key, value)
		case "proxy":
			s.Proxy, err = asString(key, value)
		case "chrome_binary":
			s.ChromeBinary, err = asString(key, value)
		case "window_width":
			s.WindowWidth, err = asInt(key, value)
		case "window_height":
			s.WindowHeight, err = asInt(key, value)
		default:
			// Ignore unknown keys for forward compatibility
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.Backend {
	case BackendRod, BackendPlaywright:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendRod, BackendPlaywright, s.Backend)
	}
	if s.WindowWidth <= 0 || s.WindowHeight <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", s.WindowWidth, s.WindowHeight)
	}
	if s.Proxy != "" {
		if _, ok := proxy.Parse(s.Proxy); !ok {
			return fmt.Errorf("invalid proxy %q", s.Proxy)
		}
	}
	return nil
}

func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Headless = false
	s.Backend = defaultBackend
	s.LoadImages = true
	s.UserAgent = ""
	s.WindowWidth = defaultWindowWidth
	s.WindowHeight = defaultWindowHeight
	s.Proxy = ""
	s.ChromeBinary = ""
}

// Snapshot returns a copy of the settings safe to read without locking.
func (s *BrowserSection) Snapshot() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BrowserSettings{
		Headless:     s.Headless,
		Backend:      s.Backend,
		LoadImages:   s.LoadImages,
		UserAgent:    s.UserAgent,
		WindowWidth:  s.WindowWidth,
		WindowHeight: s.WindowHeight,
		Proxy:        s.Proxy,
		ChromeBinary: s.ChromeBinary,
	}
}

// BrowserSettings is a lock-free copy of BrowserSection.
type BrowserSettings struct {
	Headless     bool
	Backend      string
	LoadImages   bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	Proxy        string
	ChromeBinary string
}
