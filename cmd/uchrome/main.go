// Package main provides uchrome, a command-line runner for scripted Chrome
// sessions. It launches a browser from the stored settings, runs a YAML
// scenario against it, and kills every browser it started on exit or
// interrupt.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/atotto/clipboard"

	"github.com/entrhq/uchrome/pkg/browser"
	"github.com/entrhq/uchrome/pkg/config"
	"github.com/entrhq/uchrome/pkg/script"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	Scenario    string
	URL         string
	Output      string
	UserDataDir string
	Timeout     time.Duration
	CopyCookies bool
	ShowVersion bool

	// Browser overrides; nil or empty means use the stored setting
	Headless  *bool
	Backend   string
	Proxy     string
	UserAgent string
	NoImages  bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("uchrome v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down, closing browsers...")
		cancel()
		browser.Shutdown()
	}()

	err := run(ctx, cli)
	cancel()
	browser.DisposeAll()
	if err != nil {
		log.Printf("Run failed: %v", err)
		os.Exit(1)
	}
}

// boolFlag records whether a boolean flag was given explicitly.
type boolFlag struct {
	target **bool
}

func (f boolFlag) String() string {
	if f.target == nil || *f.target == nil {
		return ""
	}
	return fmt.Sprint(**f.target)
}

func (f boolFlag) Set(s string) error {
	v := s == "" || s == "true" || s == "1"
	if !v && s != "false" && s != "0" {
		return fmt.Errorf("invalid boolean %q", s)
	}
	*f.target = &v
	return nil
}

func (f boolFlag) IsBoolFlag() bool { return true }

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to settings file, JSON or YAML (default $UCHROME_CONFIG or ~/.uchrome/config.json)")
	flag.StringVar(&cli.Scenario, "scenario", "", "Path to scenario file (YAML)")
	flag.StringVar(&cli.URL, "url", "", "Open this URL and print its text (used when no scenario is given)")
	flag.StringVar(&cli.Output, "output", "", "Write the run summary as JSON to this file")
	flag.StringVar(&cli.UserDataDir, "user-data-dir", "", "Chrome profile directory")
	flag.DurationVar(&cli.Timeout, "timeout", 0, "Overall run timeout (0 for none)")
	flag.BoolVar(&cli.CopyCookies, "copy-cookies", false, "Copy the session cookies to the clipboard when done")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")
	flag.Var(boolFlag{&cli.Headless}, "headless", "Run Chrome without a window (overrides settings)")
	flag.StringVar(&cli.Backend, "backend", "", "Driver backend: rod or playwright (overrides settings)")
	flag.StringVar(&cli.Proxy, "proxy", "", "Proxy as host:port[:user:password[:method]] (overrides settings)")
	flag.StringVar(&cli.UserAgent, "user-agent", "", "User agent (overrides settings)")
	flag.BoolVar(&cli.NoImages, "no-images", false, "Do not load images")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "uchrome - scripted Chrome sessions\n\n")
		fmt.Fprintf(os.Stderr, "Usage: uchrome [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Run a scenario\n")
		fmt.Fprintf(os.Stderr, "  uchrome -scenario login.yaml -output summary.json\n\n")
		fmt.Fprintf(os.Stderr, "  # Print the text of a page through a proxy\n")
		fmt.Fprintf(os.Stderr, "  uchrome -url https://example.com -proxy 10.0.0.1:1080 -headless\n\n")
	}

	flag.Parse()
	return cli
}

func run(ctx context.Context, cli *CLIConfig) error {
	if err := config.Initialize(cli.ConfigFile); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	sc, err := loadScenario(cli)
	if err != nil {
		return err
	}

	opts, err := browser.OptionsFromConfig(applyOverrides(config.GetBrowser().Snapshot(), cli))
	if err != nil {
		return fmt.Errorf("invalid browser settings: %w", err)
	}
	opts.UserDataDir = cli.UserDataDir

	if cli.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
	}

	session, err := browser.Launch(opts)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer session.Close()
	log.Printf("Browser started (pid %d, backend %s)", session.ProcessID(), backendName(opts.Backend))

	summary, runErr := script.NewRunner(session).Run(ctx, sc)
	if summary != nil {
		report(summary)
		if out := outputPath(cli, sc); out != "" {
			if err := summary.WriteJSON(out); err != nil {
				log.Printf("Failed to write summary: %v", err)
			}
		}
	}

	if cli.CopyCookies {
		if err := copyCookies(session); err != nil {
			log.Printf("Failed to copy cookies: %v", err)
		}
	}
	return runErr
}

// loadScenario reads the scenario file, or builds a one-page scenario from -url.
func loadScenario(cli *CLIConfig) (*script.Scenario, error) {
	if cli.Scenario != "" {
		return script.Load(cli.Scenario)
	}
	if cli.URL == "" {
		return nil, fmt.Errorf("either -scenario or -url is required")
	}
	return &script.Scenario{
		Name:     cli.URL,
		StartURL: cli.URL,
		Steps: []script.Step{
			{Action: script.ActionPageText, Save: "text"},
		},
	}, nil
}

// applyOverrides layers command-line browser flags over stored settings.
func applyOverrides(s config.BrowserSettings, cli *CLIConfig) config.BrowserSettings {
	if cli.Headless != nil {
		s.Headless = *cli.Headless
	}
	if cli.Backend != "" {
		s.Backend = cli.Backend
	}
	if cli.Proxy != "" {
		s.Proxy = cli.Proxy
	}
	if cli.UserAgent != "" {
		s.UserAgent = cli.UserAgent
	}
	if cli.NoImages {
		s.LoadImages = false
	}
	return s
}

func outputPath(cli *CLIConfig, sc *script.Scenario) string {
	if cli.Output != "" {
		return cli.Output
	}
	return sc.Output
}

func backendName(b string) string {
	if b == "" {
		return browser.BackendRod
	}
	return b
}

func report(summary *script.Summary) {
	log.Printf("Scenario %q: %s in %s", summary.Scenario, summary.Status, summary.Duration)
	for _, step := range summary.Steps {
		if step.Error != "" {
			log.Printf("  %d. %s: %s (%s)", step.Index, step.Action, step.Status, step.Error)
			continue
		}
		log.Printf("  %d. %s: %s", step.Index, step.Action, step.Status)
	}

	names := make([]string, 0, len(summary.Captured))
	for name := range summary.Captured {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s:\n%s\n", name, summary.Captured[name])
	}
}

func copyCookies(session *browser.Session) error {
	cookies, err := session.CookieString()
	if err != nil {
		return err
	}
	if err := clipboard.WriteAll(cookies); err != nil {
		return err
	}
	log.Printf("Copied %d bytes of cookies to the clipboard", len(cookies))
	return nil
}
