package agent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/mediaqr/internal/agent/cachestore"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
)

// ShellPaths are tried in order when a navigation request falls back to the
// application shell.
var ShellPaths = []string{"/index.html", "/"}

const unavailableBody = "offline: resource unavailable\n"

type cacheKeyCtx struct{}

// ServeHTTP intercepts one request. API requests are forwarded untouched.
// Everything else goes to the origin first; a 200 GET answer is copied into
// the static partition. When the origin cannot be reached the response is
// looked up in the partitions, then navigation requests get the cached
// application shell and anything left gets a 503.
func (a *Agent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.opts.APIPrefix != "" && strings.HasPrefix(r.URL.Path, a.opts.APIPrefix) {
		Requests.WithLabelValues(OutcomePassthrough).Inc()
		a.passthrough.ServeHTTP(w, r)
		return
	}

	key := cachestore.Key(r.Method, r.URL.RequestURI())
	ctx := context.WithValue(r.Context(), cacheKeyCtx{}, key)
	a.network.ServeHTTP(w, r.WithContext(ctx))
}

func newNetworkFirstProxy(a *Agent) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(a.origin)
			pr.SetXForwarded()
		},
		Transport:      a.transport,
		ModifyResponse: a.storeResponse,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			a.log.Warn(r.Context(), "origin unreachable", "uri", r.URL.RequestURI(), "error", err)
			a.fallback(w, r)
		},
	}
}

func newPassthroughProxy(origin *url.URL, transport http.RoundTripper, log logging.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(origin)
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn(r.Context(), "passthrough failed", "uri", r.URL.RequestURI(), "error", err)
			http.Error(w, "bad gateway: origin unreachable", http.StatusBadGateway)
		},
	}
}

// storeResponse copies successful GET answers into the static partition.
// Write failures are logged and never affect the response.
func (a *Agent) storeResponse(resp *http.Response) error {
	Requests.WithLabelValues(OutcomeNetwork).Inc()

	if resp.StatusCode != http.StatusOK || resp.Request.Method != http.MethodGet {
		return nil
	}
	ctx := resp.Request.Context()
	key, _ := ctx.Value(cacheKeyCtx{}).(string)
	if key == "" {
		return nil
	}

	if resp.ContentLength > a.opts.MaxCacheBody {
		return nil
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, a.opts.MaxCacheBody+1))
	if err != nil {
		return err
	}
	if n > a.opts.MaxCacheBody {
		resp.Body = readCloser{io.MultiReader(&buf, resp.Body), resp.Body}
		return nil
	}
	resp.Body.Close()
	body := buf.Bytes()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	static := a.staticPartition()
	if static == nil {
		return nil
	}

	stored := &cachestore.Response{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: a.now(),
	}
	if err := static.Put(ctx, key, stored); err != nil {
		CacheWriteFailures.Inc()
		a.log.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
	return nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

func (a *Agent) fallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// r may be the outgoing request, whose URL points at the origin.
	key, _ := ctx.Value(cacheKeyCtx{}).(string)
	if key == "" {
		key = cachestore.Key(r.Method, r.URL.RequestURI())
	}

	if resp := a.match(ctx, key); resp != nil {
		Requests.WithLabelValues(OutcomeCache).Inc()
		writeCached(w, resp)
		return
	}

	if isNavigation(r) {
		for _, path := range ShellPaths {
			if resp := a.match(ctx, cachestore.Key(http.MethodGet, path)); resp != nil {
				Requests.WithLabelValues(OutcomeShell).Inc()
				writeCached(w, resp)
				return
			}
		}
	}

	Requests.WithLabelValues(OutcomeUnavailable).Inc()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusServiceUnavailable)
	io.WriteString(w, unavailableBody)
}

// match searches the static partition and then the offline-history one.
func (a *Agent) match(ctx context.Context, key string) *cachestore.Response {
	partitions := []cachestore.Partition{a.staticPartition()}
	if offline, err := a.store.Open(ctx, a.OfflineName()); err == nil {
		partitions = append(partitions, offline)
	} else {
		a.log.Warn(ctx, "open offline partition failed", "error", err)
	}

	for _, p := range partitions {
		if p == nil {
			continue
		}
		resp, err := p.Match(ctx, key)
		if err == nil {
			return resp
		}
		if !errors.Is(err, cachestore.ErrNotFound) {
			a.log.Warn(ctx, "cache lookup failed", "partition", p.Name(), "key", key, "error", err)
		}
	}
	return nil
}

func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeCached(w http.ResponseWriter, resp *cachestore.Response) {
	h := w.Header()
	for k, v := range resp.Header {
		h[k] = append([]string(nil), v...)
	}
	h.Set("X-Mediaqr-Cache", "hit")
	w.WriteHeader(resp.Status)
	w.Write(resp.Body)
}

var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func removeHopHeaders(h http.Header) {
	for _, k := range hopHeaders {
		h.Del(k)
	}
}
