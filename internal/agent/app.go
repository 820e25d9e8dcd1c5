package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/mediaqr/internal/agent/cachestore"
	"github.com/dmitrijs2005/mediaqr/internal/agent/config"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// App wires the configured partition storage, the version registration and
// the HTTP server.
type App struct {
	config *config.Config
	logger logging.Logger
	origin *url.URL
	store  cachestore.Storage
	reg    *Registration
	server *Server
	// load re-reads the configuration on SIGHUP.
	load func() *config.Config

	// Only one install loop runs at a time; a newer request cancels the
	// older loop and starts once it has exited.
	installMu     sync.Mutex
	target        *config.Config
	cancelInstall context.CancelFunc
	installDone   chan struct{}
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, logging.FormatJSON, slog.LevelInfo)

	origin, err := url.Parse(c.OriginURL)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid origin url %q", c.OriginURL)
	}

	store, err := openStorage(context.Background(), c)
	if err != nil {
		return nil, fmt.Errorf("cache storage init error: %w", err)
	}

	reg := NewRegistration(origin, nil, logger)

	return &App{
		config: c,
		logger: logger,
		origin: origin,
		store:  store,
		reg:    reg,
		server: NewServer(c.ListenAddr, reg, logger, c.ShutdownTimeout),
		load:   config.LoadConfig,
	}, nil
}

func openStorage(ctx context.Context, c *config.Config) (cachestore.Storage, error) {
	switch c.Backend {
	case config.BackendBolt:
		return cachestore.OpenBoltStorage(c.BoltPath)
	case config.BackendRedis:
		return cachestore.DialRedisStorage(ctx, c.RedisAddr, c.CachePrefix)
	case config.BackendMemory:
		return cachestore.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}

func optionsFrom(c *config.Config) Options {
	return Options{
		Prefix:      c.CachePrefix,
		Version:     c.CacheVersion,
		APIPrefix:   c.APIPrefix,
		Precache:    c.Precache,
		SkipWaiting: c.SkipWaiting,
	}
}

// install registers a new agent built from c, retrying while the origin
// cannot serve the precache manifest.
func (app *App) install(ctx context.Context, c *config.Config) {
	for {
		a := New(optionsFrom(c), app.origin, nil, app.store, app.logger)
		err := app.reg.Register(ctx, a)
		if err == nil {
			return
		}

		app.logger.Warn(ctx, "install attempt failed", "version", c.CacheVersion, "retry_in", c.InstallRetry.String(), "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.InstallRetry):
		}
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// startInstall cancels any running install loop and queues a new one for c.
func (app *App) startInstall(ctx context.Context, wg *sync.WaitGroup, c *config.Config) {
	app.installMu.Lock()
	if app.cancelInstall != nil {
		app.cancelInstall()
	}
	prev := app.installDone
	ictx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	app.target, app.cancelInstall, app.installDone = c, cancel, done
	app.installMu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		defer cancel()

		if prev != nil {
			<-prev
		}
		if ictx.Err() != nil {
			return
		}
		app.install(ictx, c)
	}()
}

func (app *App) targetConfig() *config.Config {
	app.installMu.Lock()
	defer app.installMu.Unlock()
	return app.target
}

// watchReload handles SIGHUP until ctx is done.
func (app *App) watchReload(ctx context.Context, wg *sync.WaitGroup) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			app.handleReload(ctx, wg)
		}
	}
}

// handleReload re-reads the configuration and installs it when it names a
// cache version other than the latest requested one. Option changes under an
// unchanged version are logged and ignored.
func (app *App) handleReload(ctx context.Context, wg *sync.WaitGroup) {
	c, err := app.reload()
	if err != nil {
		app.logger.Error(ctx, "reload failed", "error", err)
		return
	}

	cur := app.targetConfig()
	if cur != nil && c.CacheVersion == cur.CacheVersion {
		if !cmp.Equal(optionsFrom(c), optionsFrom(cur), cmpopts.EquateEmpty()) {
			app.logger.Warn(ctx, "reload: options changed without a new cache_version, ignored", "version", c.CacheVersion)
			return
		}
		app.logger.Info(ctx, "reload: version unchanged", "version", c.CacheVersion)
		return
	}

	app.logger.Info(ctx, "reload: installing", "version", c.CacheVersion)
	app.startInstall(ctx, wg, c)
}

func (app *App) reload() (c *config.Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return app.load(), nil
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting agent...", "origin", app.origin.String(), "backend", app.config.Backend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.watchReload(ctx, &wg)
	}()

	app.startInstall(ctx, &wg, app.config)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(context.Background(), "close storage", "error", err)
	}
}
