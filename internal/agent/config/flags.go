package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/mediaqr/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-l string   listen address
//	-u string   origin URL
//	-v string   cache version
//	-x string   API path prefix excluded from caching
//	-b string   storage backend: bolt, redis or memory
//	-f string   bolt database file
//	-r string   redis address
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-l", "-u", "-v", "-x", "-b", "-f", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ListenAddr, "l", cfg.ListenAddr, "listen address")
	fs.StringVar(&cfg.OriginURL, "u", cfg.OriginURL, "origin URL")
	fs.StringVar(&cfg.CacheVersion, "v", cfg.CacheVersion, "cache version")
	fs.StringVar(&cfg.APIPrefix, "x", cfg.APIPrefix, "API path prefix")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "storage backend (bolt|redis|memory)")
	fs.StringVar(&cfg.BoltPath, "f", cfg.BoltPath, "bolt database file")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
