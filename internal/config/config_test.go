package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "http://localhost:8000", cfg.KhojURL)
	assert.True(t, cfg.Notify)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.OpenAIAPIKey)
}

func TestLoadFile_MissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultKhojURL, cfg.KhojURL)
	assert.True(t, cfg.Notify)
	assert.Equal(t, path, cfg.Path())
}

func TestConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := &Config{
		KhojURL:        "http://khoj.local:42110",
		OpenAIAPIKey:   "sk-test",
		VaultDir:       "/path/to/vault",
		Notify:         false,
		UpdateSchedule: "@every 1h",
		LogLevel:       "debug",
		RequestTimeout: 5 * time.Second,
	}
	require.NoError(t, cfg.SaveTo(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"request_timeout": "5s"`)

	loaded, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.KhojURL, loaded.KhojURL)
	assert.Equal(t, cfg.OpenAIAPIKey, loaded.OpenAIAPIKey)
	assert.Equal(t, cfg.VaultDir, loaded.VaultDir)
	assert.False(t, loaded.Notify)
	assert.Equal(t, "@every 1h", loaded.UpdateSchedule)
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, 5*time.Second, loaded.RequestTimeout)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, (&Config{KhojURL: "http://file:8000", VaultDir: "/file/vault", Notify: true}).SaveTo(path))

	t.Setenv("KHOJLINK_KHOJ_URL", "http://env:9000/")
	t.Setenv("KHOJLINK_OPENAI_API_KEY", "sk-env")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env:9000", cfg.KhojURL)
	assert.Equal(t, "sk-env", cfg.OpenAIAPIKey)
	assert.Equal(t, "/file/vault", cfg.VaultDir)
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestConfigDefaultsApplied(t *testing.T) {
	cfg := &Config{
		KhojURL:  "  http://khoj:8000//  ",
		VaultDir: "/vault",
	}

	cfg.ApplyDefaults()

	assert.Equal(t, "http://khoj:8000", cfg.KhojURL)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)

	empty := &Config{}
	empty.ApplyDefaults()
	assert.Equal(t, DefaultKhojURL, empty.KhojURL)
}
