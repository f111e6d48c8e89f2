package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStore(t *testing.T) {
	t.Run("custom path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		store, err := NewFileStore(path)
		require.NoError(t, err)
		assert.Equal(t, path, store.Path())
		assert.False(t, store.IsModified())
	})

	t.Run("env override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "env.json")
		t.Setenv(EnvConfigPath, path)

		store, err := NewFileStore("")
		require.NoError(t, err)
		assert.Equal(t, path, store.Path())
	})

	t.Run("default path", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv(EnvConfigPath, "")

		path, err := DefaultPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".uchrome", "config.json"), path)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		_, err := NewFileStore(path)
		assert.Error(t, err)
	})
}

func TestFileStore_SaveAndReload(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			store, err := NewFileStore(path)
			require.NoError(t, err)

			require.NoError(t, store.SetSection("browser", map[string]any{
				"headless":     true,
				"window_width": 1280,
				"proxy":        "1.2.3.4:1080",
			}))
			assert.True(t, store.IsModified())
			require.NoError(t, store.Save())
			assert.False(t, store.IsModified())

			_, err = os.Stat(path + ".tmp")
			assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

			reloaded, err := NewFileStore(path)
			require.NoError(t, err)
			section, err := reloaded.GetSection("browser")
			require.NoError(t, err)

			assert.Equal(t, true, section["headless"])
			assert.Equal(t, "1.2.3.4:1080", section["proxy"])
			width, err := asInt("window_width", section["window_width"])
			require.NoError(t, err)
			assert.Equal(t, 1280, width)
		})
	}
}

func TestFileStore_Copies(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	in := map[string]any{"key": "value"}
	require.NoError(t, store.SetSection("s", in))
	in["key"] = "mutated"

	out, err := store.GetSection("s")
	require.NoError(t, err)
	assert.Equal(t, "value", out["key"])

	out["key"] = "mutated again"
	again, _ := store.GetSection("s")
	assert.Equal(t, "value", again["key"])

	missing, err := store.GetSection("missing")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestFileStore_SetAllGetAll(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	require.NoError(t, store.SetAll(map[string]map[string]any{
		"a": {"x": 1.0},
		"b": {"y": "z"},
	}))
	all, err := store.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "z", all["b"]["y"])
}
