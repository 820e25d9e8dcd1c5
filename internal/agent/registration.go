package agent

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/dmitrijs2005/mediaqr/internal/common"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
)

// Registration tracks the installed agent versions. Traffic is routed to the
// active agent; a newly installed version either takes over right away or
// waits for SKIP_WAITING.
type Registration struct {
	log         logging.Logger
	passthrough http.Handler

	mu      sync.RWMutex
	active  *Agent
	waiting *Agent
}

func NewRegistration(origin *url.URL, transport http.RoundTripper, log logging.Logger) *Registration {
	if transport == nil {
		transport = http.DefaultTransport
	}
	log = log.With("module", "registration")
	return &Registration{
		log:         log,
		passthrough: newPassthroughProxy(origin, transport, log),
	}
}

// Register installs a. The first version ever installed activates
// immediately; later ones replace the waiting version until activated.
func (r *Registration) Register(ctx context.Context, a *Agent) error {
	a.mu.Lock()
	a.onActivate = r.claim
	a.mu.Unlock()

	if err := a.Install(ctx); err != nil {
		return err
	}

	if a.State() != StateWaiting {
		return nil
	}

	r.mu.Lock()
	if r.active == nil {
		r.mu.Unlock()
		return a.Activate(ctx)
	}
	prev := r.waiting
	r.waiting = a
	r.mu.Unlock()

	if prev != nil && prev != a {
		prev.supersede(ctx)
	}
	r.log.Info(ctx, "version waiting", "version", a.Version())
	return nil
}

func (r *Registration) claim(a *Agent) {
	ctx := context.Background()

	r.mu.Lock()
	prev := r.active
	r.active = a
	if r.waiting == a {
		r.waiting = nil
	}
	r.mu.Unlock()

	if prev != nil && prev != a {
		prev.supersede(ctx)
	}
	r.log.Info(ctx, "version active", "version", a.Version())
}

func (r *Registration) Active() *Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Registration) Waiting() *Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.waiting
}

// HandleMessage routes SKIP_WAITING to the waiting version and every other
// message to the active one. It fails with ErrNoAgent when no version can
// receive the message.
func (r *Registration) HandleMessage(ctx context.Context, msg common.AgentMessage) error {
	r.mu.RLock()
	active, waiting := r.active, r.waiting
	r.mu.RUnlock()

	target := active
	if msg.Type == common.MessageSkipWaiting && waiting != nil {
		target = waiting
	}
	if target == nil {
		target = waiting
	}
	if target == nil {
		return ErrNoAgent
	}
	return target.HandleMessage(ctx, msg)
}

// Sync fires tag on the active version.
func (r *Registration) Sync(ctx context.Context, tag string) (bool, error) {
	a := r.Active()
	if a == nil {
		return false, ErrNoAgent
	}
	return a.Sync().Fire(ctx, tag)
}

// ServeHTTP forwards to the active version, or straight to the origin when
// none is active yet.
func (r *Registration) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if a := r.Active(); a != nil {
		a.ServeHTTP(w, req)
		return
	}
	Requests.WithLabelValues(OutcomePassthrough).Inc()
	r.passthrough.ServeHTTP(w, req)
}

type VersionStatus struct {
	Version string `json:"version"`
	State   State  `json:"state"`
	Static  string `json:"static_partition"`
	Offline string `json:"offline_partition"`
}

type Status struct {
	Active  *VersionStatus `json:"active,omitempty"`
	Waiting *VersionStatus `json:"waiting,omitempty"`
}

func versionStatus(a *Agent) *VersionStatus {
	if a == nil {
		return nil
	}
	return &VersionStatus{
		Version: a.Version(),
		State:   a.State(),
		Static:  a.StaticName(),
		Offline: a.OfflineName(),
	}
}

func (r *Registration) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Status{Active: versionStatus(r.active), Waiting: versionStatus(r.waiting)}
}
