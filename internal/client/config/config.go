package config

import "time"

// Config holds runtime settings for the mediaqr CLI.
//
// Fields:
//   - APIURL: base URL of the media API (upload, media, storage, health).
//   - PublicURL: base URL used to build share links when the API returns none.
//   - AgentURL: base URL of the offline cache agent control channel.
//   - DatabasePath: SQLite file holding the local upload history.
//   - ExportDir: directory receiving exported QR images.
//   - OnlineCheckInterval: how often the client probes API reachability.
type Config struct {
	APIURL              string
	PublicURL           string
	AgentURL            string
	DatabasePath        string
	ExportDir           string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "http://localhost:8000"
	c.PublicURL = "http://localhost:5173"
	c.AgentURL = "http://127.0.0.1:8080"
	c.DatabasePath = "mediaqr.db"
	c.ExportDir = "."
	c.OnlineCheckInterval = 3 * time.Second
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
