// Package config loads runtime configuration for the mediaqr CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c or -config, or the
//     MEDIAQR_CONFIG environment variable.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   media API base URL
//	-p string   public base URL for share links
//	-g string   offline cache agent base URL
//	-d string   SQLite database path
//	-o string   QR export directory
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
//	{
//	  "api_url": "http://localhost:8000",
//	  "public_url": "https://qr.example",
//	  "agent_url": "http://127.0.0.1:8080",
//	  "database_path": "mediaqr.db",
//	  "export_dir": "exports",
//	  "online_check_interval": "3s"
//	}
package config
