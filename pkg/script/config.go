package script

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Action names a step type.
type Action string

const (
	ActionNavigate      Action = "navigate"
	ActionRefresh       Action = "refresh"
	ActionNewTab        Action = "new_tab"
	ActionSwitchTab     Action = "switch_tab"
	ActionSwitchFrame   Action = "switch_frame"
	ActionAcceptAlert   Action = "accept_alert"
	ActionWait          Action = "wait"
	ActionWaitAny       Action = "wait_any"
	ActionWaitGone      Action = "wait_gone"
	ActionWaitEnabled   Action = "wait_enabled"
	ActionWaitURLChange Action = "wait_url_change"
	ActionExpectURL     Action = "expect_url"
	ActionWaitScript    Action = "wait_script"
	ActionClick         Action = "click"
	ActionClickJS       Action = "click_js"
	ActionHover         Action = "hover"
	ActionFill          Action = "fill"
	ActionSelect        Action = "select"
	ActionSendKeys      Action = "send_keys"
	ActionSetAttribute  Action = "set_attribute"
	ActionRemove        Action = "remove"
	ActionScrollEnd     Action = "scroll_end"
	ActionSleep         Action = "sleep"
	ActionScript        Action = "script"
	ActionText          Action = "text"
	ActionPageText      Action = "page_text"
	ActionHTTPGet       Action = "http_get"
	ActionPublicIP      Action = "public_ip"
	ActionSetCookies    Action = "set_cookies"
	ActionClearCookies  Action = "clear_cookies"
	ActionCookies       Action = "cookies"
)

// ErrUnknownAction is returned by Validate for steps with an unrecognised action.
var ErrUnknownAction = errors.New("unknown action")

// Scenario is a scripted browser run loaded from YAML.
type Scenario struct {
	Name string `yaml:"name" json:"name"`

	// StartURL is opened before the first step when set
	StartURL string `yaml:"start_url" json:"start_url"`

	// Timeout is the default wait budget for steps (default: the session timeout)
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	Steps []Step `yaml:"steps" json:"steps"`

	// Output is where the run summary is written, if anywhere
	Output string `yaml:"output" json:"output"`
}

// Step is one scenario action. Which fields are read depends on Action.
type Step struct {
	Action    Action   `yaml:"action" json:"action"`
	Selector  string   `yaml:"selector,omitempty" json:"selector,omitempty"`
	Selectors []string `yaml:"selectors,omitempty" json:"selectors,omitempty"`

	// Text is typed by fill and send_keys, and narrows wait and click to
	// elements whose text contains it
	Text string `yaml:"text,omitempty" json:"text,omitempty"`

	URL     string `yaml:"url,omitempty" json:"url,omitempty"`
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Script  string `yaml:"script,omitempty" json:"script,omitempty"`
	Attr    string `yaml:"attr,omitempty" json:"attr,omitempty"`
	Value   string `yaml:"value,omitempty" json:"value,omitempty"`

	// Save stores the step's result under this name
	Save string `yaml:"save,omitempty" json:"save,omitempty"`

	// JSONPath selects a field of a JSON result (gjson syntax); Expect, if
	// set, must equal it
	JSONPath string `yaml:"json_path,omitempty" json:"json_path,omitempty"`
	Expect   string `yaml:"expect,omitempty" json:"expect,omitempty"`

	Stepwise bool `yaml:"stepwise,omitempty" json:"stepwise,omitempty"`
	Keep     bool `yaml:"keep,omitempty" json:"keep,omitempty"`
	Smooth   bool `yaml:"smooth,omitempty" json:"smooth,omitempty"`

	Timeout  time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty" json:"duration,omitempty"`

	// Optional steps log their failure and let the run continue
	Optional bool `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// requirements lists, per action, the fields that must be non-empty.
var requirements = map[Action][]string{
	ActionNavigate:      {"url"},
	ActionRefresh:       nil,
	ActionNewTab:        nil,
	ActionSwitchTab:     nil,
	ActionSwitchFrame:   nil,
	ActionAcceptAlert:   nil,
	ActionWait:          {"selector"},
	ActionWaitAny:       {"selectors"},
	ActionWaitGone:      {"selector"},
	ActionWaitEnabled:   {"selector"},
	ActionWaitURLChange: nil,
	ActionExpectURL:     {"pattern"},
	ActionWaitScript:    {"script"},
	ActionClick:         {"selector"},
	ActionClickJS:       {"selector"},
	ActionHover:         {"selector"},
	ActionFill:          {"selector"},
	ActionSelect:        {"selector", "value"},
	ActionSendKeys:      {"text"},
	ActionSetAttribute:  {"selector", "attr"},
	ActionRemove:        {"selector"},
	ActionScrollEnd:     nil,
	ActionSleep:         nil,
	ActionScript:        {"script"},
	ActionText:          {"selector"},
	ActionPageText:      nil,
	ActionHTTPGet:       {"url"},
	ActionPublicIP:      nil,
	ActionSetCookies:    {"value"},
	ActionClearCookies:  nil,
	ActionCookies:       nil,
}

// producesResult marks actions whose result can be saved or checked.
var producesResult = map[Action]bool{
	ActionScript:   true,
	ActionText:     true,
	ActionPageText: true,
	ActionHTTPGet:  true,
	ActionPublicIP: true,
	ActionCookies:  true,
}

func (s Step) field(name string) bool {
	switch name {
	case "url":
		return s.URL != ""
	case "selector":
		return s.Selector != ""
	case "selectors":
		return len(s.Selectors) > 0
	case "pattern":
		return s.Pattern != ""
	case "script":
		return s.Script != ""
	case "value":
		return s.Value != ""
	case "text":
		return s.Text != ""
	case "attr":
		return s.Attr != ""
	}
	return false
}

// Validate checks the scenario and every step.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario has no steps")
	}
	if sc.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	for i, step := range sc.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (s Step) validate() error {
	fields, ok := requirements[s.Action]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownAction, s.Action)
	}
	for _, f := range fields {
		if !s.field(f) {
			return fmt.Errorf("%s requires %s", s.Action, f)
		}
	}
	if (s.Save != "" || s.JSONPath != "" || s.Expect != "") && !producesResult[s.Action] {
		return fmt.Errorf("%s has no result to save or check", s.Action)
	}
	if s.Timeout < 0 || s.Duration < 0 {
		return fmt.Errorf("%s: durations cannot be negative", s.Action)
	}
	if s.Action == ActionSwitchTab {
		if _, _, err := s.tabIndex(); err != nil {
			return err
		}
	}
	return nil
}

// tabIndex reads a switch_tab value: a 0-based index, or "last" (also the
// default).
func (s Step) tabIndex() (index int, last bool, err error) {
	if s.Value == "" || s.Value == "last" {
		return 0, true, nil
	}
	index, err = strconv.Atoi(s.Value)
	if err != nil || index < 0 {
		return 0, false, fmt.Errorf("switch_tab value must be a tab index or \"last\", got %q", s.Value)
	}
	return index, false, nil
}

// Parse decodes a YAML scenario and validates it.
func Parse(data []byte) (*Scenario, error) {
	sc := &Scenario{}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return sc, nil
}

// Load reads and validates the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}
