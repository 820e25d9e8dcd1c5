package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", srv.Client()), srv
}

func TestHTTPClient_Upload_Success(t *testing.T) {
	var gotName, gotType, gotBody string

	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/upload", r.URL.Path)

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName = hdr.Filename
		gotType = hdr.Header.Get("Content-Type")
		gotBody = string(b)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"3f2b","short_id":"abc123","filename":"cat.png","content_type":"image/png","size":2048}`))
	})

	resp, err := c.Upload(context.Background(), "cat.png", "image/png", strings.NewReader("pixels"))
	require.NoError(t, err)

	assert.Equal(t, "cat.png", gotName)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "pixels", gotBody)
	assert.Equal(t, &models.UploadResponse{
		ID: "3f2b", ShortID: "abc123", Filename: "cat.png", ContentType: "image/png", Size: 2048,
	}, resp)
	assert.Equal(t, "abc123", resp.Identifier())
}

func TestHTTPClient_Upload_DetailError(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`{"detail":"File too large"}`))
	})

	_, err := c.Upload(context.Background(), "big.mp4", "video/mp4", strings.NewReader("x"))
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apiErr.Status)
	assert.Equal(t, "File too large", Detail(err))
}

func TestHTTPClient_Upload_NonStringDetailIsDropped(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","file"],"msg":"field required"}]}`))
	})

	_, err := c.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, "", Detail(err))
}

func TestHTTPClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := NewHTTPClient(srv.URL, srv.Client())
	srv.Close()

	_, err := c.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
	assert.ErrorIs(t, c.Probe(context.Background(), "abc"), ErrUnavailable)
}

func TestHTTPClient_Probe(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/media/alive":
			_, _ = w.Write([]byte("data"))
		case "/api/v1/media/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	assert.NoError(t, c.Probe(ctx, "alive"))
	assert.ErrorIs(t, c.Probe(ctx, "gone"), ErrNotFound)

	err := c.Probe(ctx, "broken")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestHTTPClient_InfoAndDelete(t *testing.T) {
	var deleted string
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/media/abc/info":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "abc", "access_count": 7})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/media/abc":
			deleted = "abc"
			_, _ = w.Write([]byte(`{"message":"deleted"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"File not found"}`))
		}
	})

	ctx := context.Background()
	info, err := c.Info(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 7, info.AccessCount)

	require.NoError(t, c.Delete(ctx, "abc"))
	assert.Equal(t, "abc", deleted)

	err = c.Delete(ctx, "zzz")
	require.Error(t, err)
	assert.Equal(t, "File not found", Detail(err))
}

func TestHTTPClient_StorageAndPing(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/storage":
			_, _ = w.Write([]byte(`{"used_mb":12.5,"total_mb":500,"available_mb":487.5,"percentage":2.5}`))
		case "/health":
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		}
	})

	ctx := context.Background()
	snap, err := c.Storage(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StorageSnapshot{UsedMB: 12.5, TotalMB: 500, AvailableMB: 487.5, Percentage: 2.5}, *snap)

	assert.NoError(t, c.Ping(ctx))
}
