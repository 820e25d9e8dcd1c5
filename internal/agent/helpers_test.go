package agent

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/mediaqr/internal/agent/cachestore"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
	"github.com/stretchr/testify/require"
)

// testOrigin is a web origin whose asset bodies can be changed by tests.
type testOrigin struct {
	*httptest.Server
	mu     sync.Mutex
	assets map[string]string
	hits   atomic.Int64
}

func newTestOrigin(t *testing.T) *testOrigin {
	t.Helper()
	o := &testOrigin{assets: map[string]string{
		"/":                 "<html>root</html>",
		"/index.html":       "<html>shell</html>",
		"/manifest.json":    `{"name":"media-to-qr"}`,
		"/app.js":           "console.log(1)",
		"/api/v1/media/abc": `{"id":"abc"}`,
	}}
	o.Server = httptest.NewServer(http.HandlerFunc(o.serve))
	t.Cleanup(o.Close)
	return o
}

func (o *testOrigin) serve(w http.ResponseWriter, r *http.Request) {
	o.hits.Add(1)
	o.mu.Lock()
	body, ok := o.assets[r.URL.Path]
	o.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method == http.MethodPost {
		w.WriteHeader(http.StatusCreated)
	}
	io.WriteString(w, body)
}

func (o *testOrigin) set(path, body string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.assets[path] = body
}

func (o *testOrigin) remove(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.assets, path)
}

func (o *testOrigin) url(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(o.URL)
	require.NoError(t, err)
	return u
}

var errOffline = errors.New("network down")

// switchTransport fails every round trip while down is set.
type switchTransport struct {
	down atomic.Bool
}

func (s *switchTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if s.down.Load() {
		return nil, errOffline
	}
	return http.DefaultTransport.RoundTrip(r)
}

// failingStorage wraps a storage whose partition writes can be made to fail.
type failingStorage struct {
	cachestore.Storage
	failPut atomic.Bool
}

func (f *failingStorage) Open(ctx context.Context, name string) (cachestore.Partition, error) {
	p, err := f.Storage.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &failingPartition{Partition: p, s: f}, nil
}

type failingPartition struct {
	cachestore.Partition
	s *failingStorage
}

func (p *failingPartition) Put(ctx context.Context, key string, resp *cachestore.Response) error {
	if p.s.failPut.Load() {
		return errors.New("disk full")
	}
	return p.Partition.Put(ctx, key, resp)
}

func testOptions(version string) Options {
	return Options{
		Prefix:      "media-to-qr",
		Version:     version,
		APIPrefix:   "/api/",
		Precache:    []string{"/", "/index.html", "/manifest.json"},
		SkipWaiting: true,
	}
}

func newTestAgent(t *testing.T, o *testOrigin, tr http.RoundTripper, store cachestore.Storage, opts Options) *Agent {
	t.Helper()
	return New(opts, o.url(t), tr, store, logging.NewNop())
}

func get(t *testing.T, h http.Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func partitionKeys(t *testing.T, store cachestore.Storage, name string) []string {
	t.Helper()
	p, err := store.Open(context.Background(), name)
	require.NoError(t, err)
	keys, err := p.Keys(context.Background())
	require.NoError(t, err)
	return keys
}

func nopLogger() logging.Logger { return logging.NewNop() }
