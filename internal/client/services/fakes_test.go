package services

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/mediaqr/internal/client/client"
	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/dmitrijs2005/mediaqr/internal/client/repositories/kv"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	client.Client

	UploadResp *models.UploadResponse
	UploadErr  error
	Uploaded   []byte
	uploads    atomic.Int32

	DeleteErr error
	Deleted   []string

	mu      sync.Mutex
	Infos   map[string]int
	InfoErr map[string]error

	ProbeErr error
	Probed   []string

	StorageResp *models.StorageSnapshot
	StorageErr  error
	storageHits atomic.Int32
}

func (f *fakeClient) Upload(_ context.Context, _, _ string, r io.Reader) (*models.UploadResponse, error) {
	f.uploads.Add(1)
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.Uploaded = b
	return f.UploadResp, f.UploadErr
}

func (f *fakeClient) Delete(_ context.Context, id string) error {
	f.Deleted = append(f.Deleted, id)
	return f.DeleteErr
}

func (f *fakeClient) Info(_ context.Context, id string) (*models.MediaInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.InfoErr[id]; err != nil {
		return nil, err
	}
	return &models.MediaInfo{ID: id, AccessCount: f.Infos[id]}, nil
}

func (f *fakeClient) Probe(_ context.Context, id string) error {
	f.Probed = append(f.Probed, id)
	return f.ProbeErr
}

func (f *fakeClient) Storage(context.Context) (*models.StorageSnapshot, error) {
	f.storageHits.Add(1)
	return f.StorageResp, f.StorageErr
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func sqliteRepo(t *testing.T) *kv.SQLiteRepository {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return kv.NewSQLiteRepository(db)
}
