package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://localhost:8787", cfg.ServerURL)
	assert.Equal(t, "daybook.db", cfg.CacheDSN)
	assert.Equal(t, 2*time.Second, cfg.IdleThreshold)
	assert.Equal(t, time.Second, cfg.PushDebounce)
}

func TestParseFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"client", "-a", "https://sync.example.com", "-i", "5000"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "https://sync.example.com", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.IdleThreshold)
	assert.Equal(t, time.Second, cfg.PushDebounce)
}

func TestParseJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"server_url":"http://10.0.0.1:8787","idle_threshold":"3s"}`), 0o600))

	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"client", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "http://10.0.0.1:8787", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.IdleThreshold)
	assert.Equal(t, "daybook.db", cfg.CacheDSN)
}
