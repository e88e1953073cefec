package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/daybook/internal/flagx"
	"github.com/dmitrijs2005/daybook/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "2s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerURL     string         `json:"server_url"`
	CacheDSN      string         `json:"cache_dsn"`
	IdleThreshold timex.Duration `json:"idle_threshold"`
	PushDebounce  timex.Duration `json:"push_debounce"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path is taken from the -c or -config command-line flags; if neither is
// set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.CacheDSN != "" {
		cfg.CacheDSN = jc.CacheDSN
	}
	if jc.IdleThreshold.Duration != 0 {
		cfg.IdleThreshold = time.Duration(jc.IdleThreshold.Duration)
	}
	if jc.PushDebounce.Duration != 0 {
		cfg.PushDebounce = time.Duration(jc.PushDebounce.Duration)
	}
}
