package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mediaqr/internal/flagx"
	"github.com/dmitrijs2005/mediaqr/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// Durations use timex.Duration ("30s" or integer nanoseconds). SkipWaiting is
// a pointer so that an explicit false can be told apart from an absent key.
type JsonConfig struct {
	ListenAddr      string         `json:"listen_addr"`
	OriginURL       string         `json:"origin_url"`
	CachePrefix     string         `json:"cache_prefix"`
	CacheVersion    string         `json:"cache_version"`
	APIPrefix       string         `json:"api_prefix"`
	Precache        []string       `json:"precache"`
	SkipWaiting     *bool          `json:"skip_waiting"`
	Backend         string         `json:"backend"`
	BoltPath        string         `json:"bolt_path"`
	RedisAddr       string         `json:"redis_addr"`
	InstallRetry    timex.Duration `json:"install_retry"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config into config. Keys absent from the file keep their current value.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	for dst, v := range map[*string]string{
		&config.ListenAddr:   c.ListenAddr,
		&config.OriginURL:    c.OriginURL,
		&config.CachePrefix:  c.CachePrefix,
		&config.CacheVersion: c.CacheVersion,
		&config.APIPrefix:    c.APIPrefix,
		&config.Backend:      c.Backend,
		&config.BoltPath:     c.BoltPath,
		&config.RedisAddr:    c.RedisAddr,
	} {
		if v != "" {
			*dst = v
		}
	}

	if c.Precache != nil {
		config.Precache = c.Precache
	}
	if c.SkipWaiting != nil {
		config.SkipWaiting = *c.SkipWaiting
	}
	if c.InstallRetry.Duration > 0 {
		config.InstallRetry = c.InstallRetry.Duration
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}
