package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediaqr/internal/client/client"
	"github.com/dmitrijs2005/mediaqr/internal/client/config"
	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/dmitrijs2005/mediaqr/internal/client/repositories/kv"
	"github.com/dmitrijs2005/mediaqr/internal/client/services"
	"github.com/dmitrijs2005/mediaqr/internal/client/uploadstate"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
	"github.com/dmitrijs2005/mediaqr/internal/qr"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type uploader interface {
	HandleFileSelect(ctx context.Context, f models.FileSource) uploadstate.State
	Reset() uploadstate.State
	State() uploadstate.State
	Subscribe(fn func(uploadstate.State))
}

type storageIndicator interface {
	Refresh(ctx context.Context) bool
	Snapshot() (models.StorageSnapshot, bool)
	Subscribe(fn func(models.StorageSnapshot)) func()
}

type linkChecker interface {
	CheckLink(ctx context.Context, link string) services.LinkReport
}

type agentChannel interface {
	CacheHistory(ctx context.Context, data any) error
	SkipWaiting(ctx context.Context) error
}

type App struct {
	config  *config.Config
	log     logging.Logger
	db      *sql.DB
	api     client.Client
	agent   agentChannel
	history services.HistoryService
	storage storageIndicator
	upload  uploader
	links   linkChecker

	reader *bufio.Reader
	out    io.Writer
	// stdoutFd is probed for terminal width before drawing QR codes.
	stdoutFd int

	modeMu sync.Mutex
	mode   Mode

	levelMu     sync.Mutex
	level       models.StorageLevel
	stopStorage func()
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	httpClient := &http.Client{}
	api := client.NewHTTPClient(c.APIURL, httpClient)

	history := services.NewHistoryService(api, kv.NewSQLiteRepository(db), log)
	storage := services.NewStorageIndicator(api, log)

	a := &App{
		config:   c,
		log:      log,
		db:       db,
		api:      api,
		history:  history,
		storage:  storage,
		upload:   services.NewUploader(api, history, storage, c.PublicURL, log),
		links:    services.NewLinkChecker(api, log),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		stdoutFd: int(os.Stdout.Fd()),
	}
	if c.AgentURL != "" {
		a.agent = client.NewAgentClient(c.AgentURL, httpClient)
	}
	a.subscribe()
	return a, nil
}

// subscribe hooks the REPL into the upload and storage observers.
func (a *App) subscribe() {
	a.upload.Subscribe(a.onUploadState)
	a.stopStorage = a.storage.Subscribe(a.onStorageSnapshot)
}

// onUploadState keeps the agent's offline history current after every
// successful upload. Failures are only logged.
func (a *App) onUploadState(s uploadstate.State) {
	if s.Status != uploadstate.Success || a.agent == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	entries, err := a.history.List(ctx)
	if err != nil {
		a.log.Warn(ctx, "history read failed", "error", err)
		return
	}
	if err := a.agent.CacheHistory(ctx, entries); err != nil {
		a.log.Warn(ctx, "history snapshot failed", "error", err)
	}
}

// onStorageSnapshot warns when the quota drops into the critical level.
func (a *App) onStorageSnapshot(s models.StorageSnapshot) {
	level := services.Level(s.AvailableMB)

	a.levelMu.Lock()
	prev := a.level
	a.level = level
	a.levelMu.Unlock()

	if level == models.StorageCritical && prev != models.StorageCritical {
		a.printf("Warning: storage almost full, %s free.\n", megabytes(s.AvailableMB))
	}
}

func (a *App) Close() error {
	if a.stopStorage != nil {
		a.stopStorage()
		a.stopStorage = nil
	}
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) Mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

// setMode records the new mode and returns the previous one.
func (a *App) setMode(ctx context.Context, mode Mode) Mode {
	a.modeMu.Lock()
	prev := a.mode
	a.mode = mode
	a.modeMu.Unlock()

	if prev != mode {
		a.log.Info(ctx, "connectivity changed", "mode", mode)
	}
	return prev
}

// checkOnline pings the API once and updates the mode. Coming back online
// from offline refreshes the access counts.
func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.api.Ping(pingCtx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}

	if prev := a.setMode(ctx, ModeOnline); prev == ModeOffline {
		if _, err := a.history.RefreshAccessCounts(ctx); err != nil {
			a.log.Warn(ctx, "access count refresh failed", "error", err)
		}
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) getStatus() string {
	s := string(a.upload.State().Status)
	if m := a.Mode(); m != "" {
		s = s + " " + string(m)
	}
	return "(" + s + ")"
}

// Run greets the user, starts the connectivity watcher and blocks in the
// REPL until exit or EOF.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printlnFn("Welcome to mediaqr (type 'help' for commands)")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.config.OnlineCheckInterval > 0 {
		go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

// renderQR prints v to the app output, inverted so it scans on dark
// terminals.
func (a *App) renderQR(v *qr.Vector) {
	if err := qr.FitsTerminal(v, a.stdoutFd); err != nil {
		a.printf("(terminal too narrow for the QR code, use export)\n")
		return
	}
	a.printf("%s", qr.Terminal(v, true))
}
