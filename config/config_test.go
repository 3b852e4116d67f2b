package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".", cfg.Destination)
	assert.Equal(t, 5*time.Minute, cfg.RateLimitBackoff)
	assert.Equal(t, 2*time.Second, cfg.ChapterDelay)
	assert.Equal(t, "chrome", cfg.Browser.Engine)
	assert.Equal(t, os.DevNull, cfg.Browser.LogDest)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
destination: /srv/books
rate_limit_backoff: 30s
browser:
  engine: remote
  remote_url: ws://127.0.0.1:9222
`)

	cfg, used, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "/srv/books", cfg.Destination)
	assert.Equal(t, 30*time.Second, cfg.RateLimitBackoff)
	assert.Equal(t, "remote", cfg.Browser.Engine)
	assert.Equal(t, "ws://127.0.0.1:9222", cfg.Browser.RemoteURL)
	assert.Equal(t, 2*time.Second, cfg.ChapterDelay, "unset keys keep their default")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "destination: /srv/books\n")
	t.Setenv("FTE_DESTINATION", "/tmp/books")
	t.Setenv("WEB_DRIVER", "remote")
	t.Setenv("LOG_DEST", "/tmp/browser.log")
	t.Setenv("FTE_CHAPTER_DELAY", "500ms")

	cfg, _, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/books", cfg.Destination)
	assert.Equal(t, "remote", cfg.Browser.Engine)
	assert.Equal(t, "/tmp/browser.log", cfg.Browser.LogDest)
	assert.Equal(t, 500*time.Millisecond, cfg.ChapterDelay)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("FTE_HTTP_TIMEOUT", "soon")

	_, _, err := Load(writeConfig(t, ""))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "FTE_HTTP_TIMEOUT")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, used, err := Load("")

	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, Default().Listen, cfg.Listen)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.LibraryDir = "/srv/library"
	cfg.Browser.RevealWait = 45 * time.Second

	require.NoError(t, Save(cfg, path))
	loaded, _, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
