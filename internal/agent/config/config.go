// Package config handles configuration for the offline cache agent,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

const (
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds runtime settings for the offline cache agent.
//
// Fields:
//   - ListenAddr: bind address of the agent HTTP surface.
//   - OriginURL: web origin whose static assets are proxied and cached.
//   - CachePrefix / CacheVersion: partition names are "<prefix>-<version>"
//     and "<prefix>-offline-<version>".
//   - APIPrefix: request paths starting with it are never cached.
//   - Precache: asset paths fetched during install.
//   - SkipWaiting: activate a newly installed version without waiting for
//     an explicit SKIP_WAITING message.
//   - Backend / BoltPath / RedisAddr: partition storage selection.
//   - InstallRetry: delay between install attempts while the origin is down.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
type Config struct {
	ListenAddr      string
	OriginURL       string
	CachePrefix     string
	CacheVersion    string
	APIPrefix       string
	Precache        []string
	SkipWaiting     bool
	Backend         string
	BoltPath        string
	RedisAddr       string
	InstallRetry    time.Duration
	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.OriginURL = "http://localhost:5173"
	c.CachePrefix = "media-to-qr"
	c.CacheVersion = "v1"
	c.APIPrefix = "/api/"
	c.Precache = []string{"/", "/index.html", "/manifest.json"}
	c.SkipWaiting = true
	c.Backend = BackendBolt
	c.BoltPath = "agent-cache.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.InstallRetry = 30 * time.Second
	c.ShutdownTimeout = 5 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
