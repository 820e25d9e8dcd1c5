// Package agent implements the offline cache agent: a local HTTP proxy in
// front of the web origin that serves static assets network-first, falls
// back to named cache partitions when the origin is unreachable and accepts
// control messages from the client.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediaqr/internal/agent/cachestore"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
)

type State string

const (
	StateNew        State = "new"
	StateInstalling State = "installing"
	StateWaiting    State = "waiting"
	StateActive     State = "active"
	StateSuperseded State = "superseded"
	StateFailed     State = "failed"
)

var (
	ErrInvalidState  = errors.New("agent: invalid lifecycle state")
	ErrInstallFailed = errors.New("agent: install failed")
	ErrNoAgent       = errors.New("agent: no installed version")
)

// OfflineHistoryKey is the sentinel key of the offline-history snapshot.
var OfflineHistoryKey = cachestore.Key(http.MethodGet, "/offline-history")

// DefaultMaxCacheBody bounds the size of a response body kept in the cache.
// Larger responses are streamed through without being stored.
const DefaultMaxCacheBody = 32 << 20

type Options struct {
	Prefix      string
	Version     string
	APIPrefix   string
	Precache    []string
	SkipWaiting bool
	// MaxCacheBody defaults to DefaultMaxCacheBody when zero.
	MaxCacheBody int64
}

type Agent struct {
	opts      Options
	origin    *url.URL
	transport http.RoundTripper
	store     cachestore.Storage
	log       logging.Logger
	sync      *SyncRegistry
	now       func() time.Time

	network     http.Handler
	passthrough http.Handler

	mu     sync.RWMutex
	state  State
	static cachestore.Partition
	// onActivate is called after the agent became active so that the owner
	// can route traffic to it.
	onActivate func(*Agent)
}

func New(opts Options, origin *url.URL, transport http.RoundTripper, store cachestore.Storage, log logging.Logger) *Agent {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.MaxCacheBody <= 0 {
		opts.MaxCacheBody = DefaultMaxCacheBody
	}

	a := &Agent{
		opts:      opts,
		origin:    origin,
		transport: transport,
		store:     store,
		log:       log.With("module", "agent", "version", opts.Version),
		sync:      NewSyncRegistry(),
		now:       time.Now,
		state:     StateNew,
	}
	a.network = newNetworkFirstProxy(a)
	a.passthrough = newPassthroughProxy(origin, transport, a.log)
	return a
}

func (a *Agent) Version() string { return a.opts.Version }

// StaticName is the partition holding static assets.
func (a *Agent) StaticName() string {
	return a.opts.Prefix + "-" + a.opts.Version
}

// OfflineName is the partition holding the offline-history snapshot.
func (a *Agent) OfflineName() string {
	return a.opts.Prefix + "-offline-" + a.opts.Version
}

func (a *Agent) Sync() *SyncRegistry { return a.sync }

func (a *Agent) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Agent) setState(ctx context.Context, s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
	LifecycleTransitions.WithLabelValues(string(s)).Inc()
	a.log.Info(ctx, "lifecycle", "state", s)
}

// transition moves from one of from to to, failing when the current state is
// not listed.
func (a *Agent) transition(ctx context.Context, to State, from ...State) error {
	a.mu.Lock()
	cur := a.state
	ok := false
	for _, f := range from {
		if cur == f {
			ok = true
			break
		}
	}
	if !ok {
		a.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, cur, to)
	}
	a.state = to
	a.mu.Unlock()

	LifecycleTransitions.WithLabelValues(string(to)).Inc()
	a.log.Info(ctx, "lifecycle", "state", to)
	return nil
}

func (a *Agent) staticPartition() cachestore.Partition {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.static
}

// fetchAsset GETs path from the origin. Only a 200 answer is accepted.
func (a *Agent) fetchAsset(ctx context.Context, path string) (*cachestore.Response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	target := a.origin.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	removeHopHeaders(resp.Header)

	return &cachestore.Response{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: a.now(),
	}, nil
}

// Install opens the static partition and precaches every manifest asset.
// Nothing is stored unless every asset was fetched. With SkipWaiting the
// agent activates right away; otherwise it waits for SKIP_WAITING or for
// its owner to activate it.
func (a *Agent) Install(ctx context.Context) error {
	if err := a.transition(ctx, StateInstalling, StateNew); err != nil {
		return err
	}

	if err := a.precache(ctx); err != nil {
		a.setState(ctx, StateFailed)
		a.log.Error(ctx, "install failed", "error", err)
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}

	if err := a.transition(ctx, StateWaiting, StateInstalling); err != nil {
		return err
	}

	if a.opts.SkipWaiting {
		return a.Activate(ctx)
	}
	return nil
}

func (a *Agent) precache(ctx context.Context) error {
	static, err := a.store.Open(ctx, a.StaticName())
	if err != nil {
		return err
	}

	fetched := make(map[string]*cachestore.Response, len(a.opts.Precache))
	for _, path := range a.opts.Precache {
		resp, err := a.fetchAsset(ctx, path)
		if err != nil {
			return err
		}
		fetched[path] = resp
	}

	for path, resp := range fetched {
		if err := static.Put(ctx, cachestore.Key(http.MethodGet, path), resp); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.static = static
	a.mu.Unlock()
	return nil
}

// Activate deletes every partition other than the current static and
// offline-history ones and takes control. Enumeration or deletion failures
// are logged and do not prevent activation.
func (a *Agent) Activate(ctx context.Context) error {
	if err := a.transition(ctx, StateActive, StateWaiting); err != nil {
		return err
	}

	a.deleteStalePartitions(ctx)

	a.mu.RLock()
	claim := a.onActivate
	a.mu.RUnlock()
	if claim != nil {
		claim(a)
	}
	return nil
}

func (a *Agent) deleteStalePartitions(ctx context.Context) {
	names, err := a.store.Names(ctx)
	if err != nil {
		a.log.Warn(ctx, "list partitions failed", "error", err)
		return
	}

	keep := map[string]bool{a.StaticName(): true, a.OfflineName(): true}
	for _, name := range names {
		if keep[name] {
			continue
		}
		deleted, err := a.store.Delete(ctx, name)
		if err != nil {
			a.log.Warn(ctx, "delete partition failed", "name", name, "error", err)
			continue
		}
		if deleted {
			PartitionsDeleted.Inc()
			a.log.Info(ctx, "partition deleted", "name", name)
		}
	}
}

// supersede marks an active agent as replaced by a newer one.
func (a *Agent) supersede(ctx context.Context) {
	_ = a.transition(ctx, StateSuperseded, StateActive, StateWaiting)
}

// OfflineHistory returns the stored offline-history snapshot.
func (a *Agent) OfflineHistory(ctx context.Context) (*cachestore.Response, error) {
	p, err := a.store.Open(ctx, a.OfflineName())
	if err != nil {
		return nil, err
	}
	return p.Match(ctx, OfflineHistoryKey)
}
