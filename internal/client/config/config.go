package config

import "time"

// Config holds runtime settings for the client.
//
// Fields:
//   - ServerURL: base http(s) URL of the backend.
//   - CacheDSN: path of the local sqlite cache database.
//   - IdleThreshold: how long the user must be idle before a remote update
//     may replace the local copy of an open entry.
//   - PushDebounce: quiet period after the last keystroke before a local
//     edit is pushed.
type Config struct {
	ServerURL     string
	CacheDSN      string
	IdleThreshold time.Duration
	PushDebounce  time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8787"
	c.CacheDSN = "daybook.db"
	c.IdleThreshold = 2 * time.Second
	c.PushDebounce = time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
