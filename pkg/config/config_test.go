package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	globalMu.Lock()
	globalManager = nil
	globalMu.Unlock()
	t.Cleanup(func() {
		globalMu.Lock()
		globalManager = nil
		globalMu.Unlock()
	})
}

func TestInitialize(t *testing.T) {
	resetGlobal(t)
	assert.False(t, IsInitialized())
	assert.Nil(t, GetBrowser())
	assert.Nil(t, GetWait())
	assert.Panics(t, func() { Global() })

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, Initialize(path))
	assert.True(t, IsInitialized())

	browser := GetBrowser()
	require.NotNil(t, browser)
	assert.Equal(t, BackendRod, browser.Backend)

	wait := GetWait()
	require.NotNil(t, wait)
	timeout, click := wait.Timeouts()
	assert.Equal(t, 60*time.Second, timeout)
	assert.Equal(t, 30*time.Second, click)
}

func TestInitialize_RoundTrip(t *testing.T) {
	resetGlobal(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Initialize(path))

	browser := GetBrowser()
	require.NoError(t, browser.SetData(map[string]any{
		"headless": true,
		"backend":  BackendPlaywright,
		"proxy":    "1.2.3.4:1080:u:p:http",
	}))
	require.NoError(t, GetWait().SetData(map[string]any{"timeout": "5s"}))
	require.NoError(t, Global().SaveAll())

	resetGlobal(t)
	require.NoError(t, Initialize(path))

	settings := GetBrowser().Snapshot()
	assert.True(t, settings.Headless)
	assert.Equal(t, BackendPlaywright, settings.Backend)
	assert.Equal(t, "1.2.3.4:1080:u:p:http", settings.Proxy)
	assert.Equal(t, 1366, settings.WindowWidth)

	timeout, _ := GetWait().Timeouts()
	assert.Equal(t, 5*time.Second, timeout)
}

func TestBrowserSection(t *testing.T) {
	s := NewBrowserSection()
	require.NoError(t, s.Validate())
	assert.True(t, s.LoadImages)

	t.Run("set data", func(t *testing.T) {
		require.NoError(t, s.SetData(map[string]any{
			"window_width":  float64(800),
			"window_height": 600,
			"user_agent":    "test-agent",
			"unknown":       "ignored",
		}))
		assert.Equal(t, 800, s.WindowWidth)
		assert.Equal(t, 600, s.WindowHeight)
		assert.Equal(t, "test-agent", s.UserAgent)
		assert.Equal(t, 800, s.Data()["window_width"])
	})

	t.Run("type errors", func(t *testing.T) {
		assert.Error(t, s.SetData(map[string]any{"headless": "yes"}))
		assert.Error(t, s.SetData(map[string]any{"backend": 1}))
		assert.Error(t, s.SetData(map[string]any{"window_width": "wide"}))
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			data map[string]any
		}{
			{"backend", map[string]any{"backend": "webkit"}},
			{"window", map[string]any{"window_width": 0}},
			{"proxy", map[string]any{"proxy": "bad"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := NewBrowserSection()
				require.NoError(t, s.SetData(tt.data))
				assert.Error(t, s.Validate())
			})
		}
	})

	t.Run("reset", func(t *testing.T) {
		s.Reset()
		assert.Equal(t, defaultWindowWidth, s.WindowWidth)
		assert.Empty(t, s.UserAgent)
	})
}

func TestWaitSection(t *testing.T) {
	s := NewWaitSection()
	require.NoError(t, s.Validate())
	lo, hi := s.Jitter()
	assert.Equal(t, 321*time.Millisecond, lo)
	assert.Equal(t, 1234*time.Millisecond, hi)
	assert.Equal(t, 10*time.Millisecond, s.Interval())
	assert.Equal(t, "1m0s", s.Data()["timeout"])

	require.NoError(t, s.SetData(map[string]any{
		"click_timeout": "45s",
		"poll_interval": float64(20 * time.Millisecond),
	}))
	_, click := s.Timeouts()
	assert.Equal(t, 45*time.Second, click)
	assert.Equal(t, 20*time.Millisecond, s.Interval())

	assert.Error(t, s.SetData(map[string]any{"timeout": "soon"}))
	assert.Error(t, s.SetData(map[string]any{"timeout": true}))

	require.NoError(t, s.SetData(map[string]any{"jitter_min": "2s", "jitter_max": "1s"}))
	assert.Error(t, s.Validate())

	s.Reset()
	require.NoError(t, s.SetData(map[string]any{"timeout": "0s"}))
	assert.Error(t, s.Validate())
}
