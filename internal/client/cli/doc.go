// Package cli provides the interactive mediaqr command-line client.
//
// It wires configuration, the local history database, the media API client
// and an interactive REPL. A background watcher pings the API and refreshes
// view counts when connectivity comes back.
//
// Key features:
//   - Upload a media file and show its share link as a terminal QR code
//   - List, show and delete remembered uploads
//   - Export QR images (small, medium, large PNG or SVG)
//   - Storage quota bar, link checker, offline agent control
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
