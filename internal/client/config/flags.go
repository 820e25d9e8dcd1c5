package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/mediaqr/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   media API base URL
//	-p string   public base URL for share links
//	-g string   offline cache agent base URL
//	-d string   SQLite database path
//	-o string   QR export directory
//	-i int      online check interval in seconds
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-p", "-g", "-d", "-o", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "media API base URL")
	fs.StringVar(&cfg.PublicURL, "p", cfg.PublicURL, "public base URL for share links")
	fs.StringVar(&cfg.AgentURL, "g", cfg.AgentURL, "offline cache agent base URL")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local history database")
	fs.StringVar(&cfg.ExportDir, "o", cfg.ExportDir, "directory for exported QR images")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
