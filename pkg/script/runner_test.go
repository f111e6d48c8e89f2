package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/entrhq/uchrome/pkg/browser"
	"github.com/entrhq/uchrome/pkg/driver"
	"github.com/entrhq/uchrome/pkg/driver/drivertest"
	"github.com/entrhq/uchrome/pkg/registry"
	"github.com/entrhq/uchrome/pkg/wait/waittest"
)

func newRunner(t *testing.T, d *drivertest.Driver) (*Runner, *waittest.Clock) {
	t.Helper()
	clock := waittest.NewClock()
	reg := registry.New(registry.WithKiller(registry.KillerFunc(func(int) error { return nil })))
	s, err := browser.NewSession(d, browser.WithRegistry(reg), browser.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return NewRunner(s), clock
}

func TestRunner_Login(t *testing.T) {
	d := drivertest.New()
	user := drivertest.NewElement("")
	password := drivertest.NewElement("")
	cancel := drivertest.NewElement("Cancel")
	signIn := drivertest.NewElement("Sign in")
	d.Set(driver.ID("user"), user).
		Set(driver.ID("password"), password).
		Set(driver.CSS("button"), cancel, signIn).
		Set(driver.CSS(".balance"), drivertest.NewElement("42")).
		OnScript(func(string, []any) (any, error) {
			return map[string]any{"ok": true, "n": 3}, nil
		})

	sc, err := Parse([]byte(`
name: login
start_url: https://example.com/login
steps:
  - action: fill
    selector: id=user
    text: alice
  - action: fill
    selector: id=password
    text: pw
    stepwise: true
  - action: click
    selector: button
    text: Sign
  - action: expect_url
    pattern: https://example.com/**
  - action: text
    selector: css=.balance
    save: balance
  - action: navigate
    url: https://example.com/pay?amount=${balance}
  - action: script
    script: return window.state;
    json_path: n
    expect: "3"
`))
	require.NoError(t, err)

	r, _ := newRunner(t, d)
	summary, err := r.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, statusSuccess, summary.Status)
	assert.True(t, summary.Succeeded())
	assert.Len(t, summary.Steps, 7)
	assert.Equal(t, "42", summary.Captured["balance"])

	assert.Equal(t, []string{"alice"}, user.Keys())
	assert.Equal(t, []string{"p", "w"}, password.Keys())
	assert.Equal(t, 0, cancel.Clicks())
	assert.Equal(t, 1, signIn.Clicks())
	assert.Equal(t, []string{
		"https://example.com/login",
		"https://example.com/pay?amount=42",
	}, d.Navigated())
	assert.Equal(t, "3", summary.Steps[6].Result)
}

func TestRunner_StopsAtFailure(t *testing.T) {
	d := drivertest.New()
	sc := &Scenario{Steps: []Step{
		{Action: ActionNavigate, URL: "https://example.com"},
		{Action: ActionWait, Selector: "#never", Timeout: time.Second},
		{Action: ActionNavigate, URL: "https://example.com/next"},
	}}

	r, clock := newRunner(t, d)
	summary, err := r.Run(context.Background(), sc)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "step 2 (wait)")
	assert.Equal(t, statusFailed, summary.Status)
	assert.False(t, summary.Succeeded())
	require.Len(t, summary.Steps, 2)
	assert.Equal(t, stepFailed, summary.Steps[1].Status)
	assert.Equal(t, []string{"https://example.com"}, d.Navigated())
	assert.GreaterOrEqual(t, clock.Elapsed(), time.Second)
}

func TestRunner_ClickTimeouts(t *testing.T) {
	tests := []struct {
		name     string
		scenario time.Duration
		step     time.Duration
		want     time.Duration
	}{
		{name: "session click timeout", want: 30 * time.Second},
		{name: "scenario timeout", scenario: 5 * time.Second, want: 5 * time.Second},
		{name: "step timeout", scenario: 5 * time.Second, step: 2 * time.Second, want: 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &Scenario{Timeout: tt.scenario, Steps: []Step{
				{Action: ActionClick, Selector: "#missing", Timeout: tt.step},
			}}

			r, clock := newRunner(t, drivertest.New())
			_, err := r.Run(context.Background(), sc)

			require.ErrorIs(t, err, ErrTimeout)
			assert.GreaterOrEqual(t, clock.Elapsed(), tt.want)
			assert.Less(t, clock.Elapsed(), tt.want+time.Second)
		})
	}
}

func TestRunner_OptionalFailureContinues(t *testing.T) {
	d := drivertest.New()
	sc := &Scenario{Timeout: 100 * time.Millisecond, Steps: []Step{
		{Action: ActionWait, Selector: "#cookie-banner", Optional: true},
		{Action: ActionNavigate, URL: "https://example.com"},
	}}

	r, _ := newRunner(t, d)
	summary, err := r.Run(context.Background(), sc)

	require.NoError(t, err)
	assert.Equal(t, statusPartialSuccess, summary.Status)
	assert.True(t, summary.Succeeded())
	assert.Equal(t, []string{"https://example.com"}, d.Navigated())
}

func TestRunner_ExpectMismatch(t *testing.T) {
	d := drivertest.New().OnScript(func(string, []any) (any, error) {
		return `{"ip":"203.0.113.9"}`, nil
	})
	sc := &Scenario{Steps: []Step{
		{Action: ActionHTTPGet, URL: "https://example.com/ip", JSONPath: "ip", Expect: "198.51.100.1"},
	}}

	r, _ := newRunner(t, d)
	_, err := r.Run(context.Background(), sc)
	assert.ErrorIs(t, err, ErrUnexpected)

	sc.Steps[0] = Step{Action: ActionHTTPGet, URL: "https://example.com/ip", JSONPath: "missing"}
	_, err = r.Run(context.Background(), sc)
	assert.ErrorIs(t, err, ErrUnexpected)
}

func TestRunner_SavesJSONField(t *testing.T) {
	d := drivertest.New().OnScript(func(string, []any) (any, error) {
		return `{"ip":"203.0.113.9"}`, nil
	})
	sc := &Scenario{Steps: []Step{
		{Action: ActionHTTPGet, URL: "https://example.com/ip", JSONPath: "ip", Save: "ip"},
	}}

	r, _ := newRunner(t, d)
	summary, err := r.Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", summary.Captured["ip"])
}

func TestRunner_Cancelled(t *testing.T) {
	d := drivertest.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := newRunner(t, d)
	summary, err := r.Run(ctx, &Scenario{Steps: []Step{{Action: ActionNavigate, URL: "https://example.com"}}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, statusFailed, summary.Status)
	assert.Empty(t, summary.Steps)
	assert.Empty(t, d.Navigated())
}

func TestRunner_InvalidScenario(t *testing.T) {
	r, _ := newRunner(t, drivertest.New())
	summary, err := r.Run(context.Background(), &Scenario{})
	assert.Error(t, err)
	assert.Nil(t, summary)
}

func TestRunner_SleepAndCookies(t *testing.T) {
	d := drivertest.New()
	sc := &Scenario{Steps: []Step{
		{Action: ActionSleep, Duration: 2 * time.Second},
		{Action: ActionSetCookies, Value: "sid=abc; theme=dark"},
		{Action: ActionCookies, Save: "jar"},
		{Action: ActionClearCookies},
		{Action: ActionCookies, Save: "empty"},
	}}

	r, clock := newRunner(t, d)
	summary, err := r.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Contains(t, clock.Sleeps(), 2*time.Second)
	assert.Equal(t, "sid=abc;theme=dark;", summary.Captured["jar"])
	assert.Equal(t, "", summary.Captured["empty"])
}

func TestRunner_ElementActions(t *testing.T) {
	d := drivertest.New()
	banner := drivertest.NewElement("ad")
	field := drivertest.NewElement("")
	hidden := drivertest.Hidden("spinner")
	d.Set(driver.ID("banner"), banner).
		Set(driver.ID("field"), field).
		Set(driver.ID("spinner"), hidden)

	sc := &Scenario{Timeout: time.Second, Steps: []Step{
		{Action: ActionRemove, Selector: "id=banner"},
		{Action: ActionSetAttribute, Selector: "id=field", Attr: "maxlength", Value: "5"},
		{Action: ActionClickJS, Selector: "id=field"},
		{Action: ActionWaitGone, Selector: "id=spinner"},
		{Action: ActionWaitEnabled, Selector: "id=field"},
		{Action: ActionScrollEnd},
	}}

	r, _ := newRunner(t, d)
	_, err := r.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, []string{"el => el.remove()"}, banner.Calls())
	calls := field.Calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[0], "setAttribute")
	assert.Contains(t, calls[1], "scrollIntoView")
	assert.Equal(t, "el => el.click()", calls[2])
}

func TestRunner_TabsFramesAndDialogs(t *testing.T) {
	d := drivertest.New().OpenTab("tab-2").OpenTab("tab-3").OpenDialog()
	frame := drivertest.NewElement("")
	menu := drivertest.NewElement("Menu")
	d.Set(driver.CSS("iframe"), frame).Set(driver.ID("menu"), menu)

	sc := &Scenario{Timeout: time.Second, Steps: []Step{
		{Action: ActionSwitchTab, Value: "1"},
		{Action: ActionSwitchFrame, Selector: "iframe"},
		{Action: ActionHover, Selector: "id=menu"},
		{Action: ActionAcceptAlert},
		{Action: ActionSwitchFrame},
		{Action: ActionSwitchTab},
	}}

	r, _ := newRunner(t, d)
	_, err := r.Run(context.Background(), sc)
	require.NoError(t, err)

	current, err := d.CurrentWindowHandle()
	require.NoError(t, err)
	assert.Equal(t, "tab-3", current)
	assert.Nil(t, d.Frame())
	assert.Equal(t, []driver.Element{menu}, d.Hovered())
	assert.Equal(t, 1, d.Accepted())
}

func TestRunner_AcceptAlertTimesOut(t *testing.T) {
	sc := &Scenario{Steps: []Step{
		{Action: ActionAcceptAlert, Timeout: 3 * time.Second},
	}}

	r, clock := newRunner(t, drivertest.New())
	_, err := r.Run(context.Background(), sc)

	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, clock.Elapsed(), 3*time.Second)
}

func TestSummary_WriteJSON(t *testing.T) {
	r, _ := newRunner(t, drivertest.New())
	summary, err := r.Run(context.Background(), &Scenario{
		Name:  "smoke",
		Steps: []Step{{Action: ActionRefresh}, {Action: ActionScrollEnd}},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "reports", "summary.json")
	require.NoError(t, summary.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "smoke", gjson.GetBytes(data, "scenario").String())
	assert.Equal(t, statusSuccess, gjson.GetBytes(data, "status").String())
	assert.Equal(t, int64(2), gjson.GetBytes(data, "steps.#").Int())
	assert.Equal(t, "refresh", gjson.GetBytes(data, "steps.0.action").String())
}

func TestPreview(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, preview(short))

	long := make([]rune, previewLength+10)
	for i := range long {
		long[i] = 'é'
	}
	got := []rune(preview(string(long)))
	assert.Len(t, got, previewLength+3)
}
