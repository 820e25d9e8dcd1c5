package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Upload(ctx context.Context, args []string) error
	Reset(ctx context.Context) error
	Status(ctx context.Context) error
	History(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Storage(ctx context.Context) error
	Refresh(ctx context.Context) error
	Check(ctx context.Context, args []string) error
	Snapshot(ctx context.Context) error
	Update(ctx context.Context) error
}

const helpText = `Available commands:
  upload <path>                          upload a media file and show its QR code
  reset                                  clear the current upload result
  status                                 show the current upload state
  (l)ist | history                       list remembered uploads with view counts
  show <id>                              show the QR code of a remembered upload
  export <id> <small|medium|large|svg>   save a QR image (omit <id> for the last upload)
  delete <id>                            delete an upload remotely and forget it
  storage                                show the storage quota
  refresh                                refetch the storage quota
  check [<link>]                         check whether a shared link still works
  snapshot                               send the history to the offline agent
  update                                 activate a waiting offline agent version
  exit | quit                            leave the program`

// usage maps commands that need arguments to their usage line.
var usage = map[string]string{
	"upload": "Usage: upload <path>",
	"show":   "Usage: show <id>",
	"export": "Usage: export [<id>] <small|medium|large|svg>",
	"delete": "Usage: delete <id>",
}

// runREPL starts a simple read–eval–print loop for the mediaqr CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("mq %s > ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if u, ok := usage[cmd]; ok && len(args) == 0 {
			printlnFn(u)
			continue
		}

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "upload":
			_ = a.Upload(ctx, args)

		case "reset":
			_ = a.Reset(ctx)

		case "status":
			_ = a.Status(ctx)

		case "l", "list", "history":
			_ = a.History(ctx)

		case "show":
			_ = a.Show(ctx, args)

		case "export":
			_ = a.Export(ctx, args)

		case "delete":
			_ = a.Delete(ctx, args)

		case "storage":
			_ = a.Storage(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "check":
			_ = a.Check(ctx, args)

		case "snapshot":
			_ = a.Snapshot(ctx)

		case "update":
			_ = a.Update(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
