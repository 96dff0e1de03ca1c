// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TASSIST_HOME", dir)
	for _, k := range []string{"TASSIST_BASE_URL", "TASSIST_LOG_LEVEL", "TASSIST_LOG_PATH", "TASSIST_PAGE_SIZE", "TASSIST_PROFILE_DB"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestDefault_IsValid(t *testing.T) {
	isolateHome(t)
	cfg := Default()
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.Chat.PageSize)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, DefaultErrorMessage, cfg.Chat.ErrorMessage)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	dir := isolateHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tassist.log"), cfg.Log.Path)
	assert.Equal(t, filepath.Join(dir, "profile.db"), cfg.Storage.ProfileDB)
}

func TestLoad_TOMLKeepsMissingDefaults(t *testing.T) {
	dir := isolateHome(t)
	data := "[backend]\nbase_url = \"https://chat.example.com/\"\n\n[chat]\npage_size = 50\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(data), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 50, cfg.Chat.PageSize)
	assert.Equal(t, "30s", cfg.Backend.Timeout)
	assert.True(t, cfg.UI.Markdown)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolateHome(t)
	data := `{"log":{"level":"DEBUG"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidFileReportsErrorWithDefaults(t *testing.T) {
	dir := isolateHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[chat\npage_size = "), 0600))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 20, cfg.Chat.PageSize)
}

func TestApplyEnvOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv("TASSIST_BASE_URL", "http://10.0.0.5:9000")
	t.Setenv("TASSIST_PAGE_SIZE", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 5, cfg.Chat.PageSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad scheme", func(c *Config) { c.Backend.BaseURL = "ftp://x" }, "backend.base_url"},
		{"no host", func(c *Config) { c.Backend.BaseURL = "http://" }, "backend.base_url"},
		{"bad timeout", func(c *Config) { c.Backend.Timeout = "soon" }, "backend.timeout"},
		{"page size zero", func(c *Config) { c.Chat.PageSize = 0 }, "chat.page_size"},
		{"page size huge", func(c *Config) { c.Chat.PageSize = 1000 }, "chat.page_size"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"negative rate", func(c *Config) { c.Backend.RequestsPerSecond = -1 }, "backend.requests_per_second"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolateHome(t)
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := Default()
	cfg.Chat.PageSize = 33
	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 33, loaded.Chat.PageSize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 600", info.Mode().Perm())
	}
}

func TestTimeoutDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, BackendConfig{Timeout: "5s"}.TimeoutDuration())
	assert.Equal(t, 30*time.Second, BackendConfig{Timeout: "nope"}.TimeoutDuration())
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := isolateHome(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { reloaded <- c }, nil)
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(path, []byte("[ui]\nword_wrap = 120\n"), 0600))

	select {
	case c := <-reloaded:
		assert.Equal(t, 120, c.UI.WordWrap)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
}

// Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolateHome(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
