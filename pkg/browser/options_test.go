package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/entrhq/uchrome/pkg/config"
	"github.com/entrhq/uchrome/pkg/proxy"
)

func TestLaunchOptions_ChromeArgs(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		args := LaunchOptions{LoadImages: true}.ChromeArgs()
		assert.Equal(t, automationArgs, args)
	})

	t.Run("everything", func(t *testing.T) {
		p, _ := proxy.Parse("1.2.3.4:8080:u:p:http")
		args := LaunchOptions{
			UserAgent:         " Mozilla/5.0 test ",
			Width:             1280,
			Height:            800,
			Proxy:             p,
			ProxyExtensionDir: "/ext/proxy",
			Extensions:        []string{"/ext/a"},
			Args:              []string{"--lang=de"},
		}.ChromeArgs()

		assert.Contains(t, args, "--disable-blink-features=AutomationControlled")
		assert.Contains(t, args, "--user-agent=Mozilla/5.0 test")
		assert.Contains(t, args, "--window-size=1280,800")
		assert.Contains(t, args, "--proxy-server=http://1.2.3.4:8080")
		assert.Contains(t, args, "--blink-settings=imagesEnabled=false")
		assert.Contains(t, args, "--load-extension=/ext/a,/ext/proxy")
		assert.Equal(t, "--lang=de", args[len(args)-1])
	})

	t.Run("window size needs both", func(t *testing.T) {
		for _, a := range (LaunchOptions{Width: 800, LoadImages: true}).ChromeArgs() {
			assert.NotContains(t, a, "--window-size")
		}
	})

	t.Run("proxy extension only with credentials", func(t *testing.T) {
		args := LaunchOptions{
			Proxy:             proxy.New("1.2.3.4", 1080),
			ProxyExtensionDir: "/ext/proxy",
			LoadImages:        true,
		}.ChromeArgs()
		for _, a := range args {
			assert.NotContains(t, a, "--load-extension")
		}
	})
}

func TestLaunchOptions_WriteProxyExtension(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proxy-ext")
	p, _ := proxy.Parse("1.2.3.4:1080:alice:secret:socks5")

	require.NoError(t, LaunchOptions{Proxy: p, ProxyExtensionDir: dir}.writeProxyExtension())

	raw, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "alice", gjson.GetBytes(raw, "auth.user").String())
	assert.Equal(t, "1.2.3.4", gjson.GetBytes(raw, "socks_host").String())

	assert.NoError(t, LaunchOptions{ProxyExtensionDir: dir}.writeProxyExtension())
}

func TestOptionsFromConfig(t *testing.T) {
	section := config.NewBrowserSection()
	require.NoError(t, section.SetData(map[string]any{
		"headless":   true,
		"proxy":      "1.2.3.4:1080",
		"user_agent": "ua",
		"backend":    BackendPlaywright,
	}))

	opts, err := OptionsFromConfig(section.Snapshot())
	require.NoError(t, err)
	assert.True(t, opts.Hidden)
	assert.True(t, opts.LoadImages)
	assert.Equal(t, "ua", opts.UserAgent)
	assert.Equal(t, BackendPlaywright, opts.Backend)
	require.NotNil(t, opts.Proxy)
	assert.Equal(t, "1.2.3.4:1080", opts.Proxy.String())
	assert.Equal(t, 1366, opts.Width)

	_, err = OptionsFromConfig(config.BrowserSettings{Proxy: "bad"})
	assert.Error(t, err)
}
