package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediaqr/internal/client/client"
	"github.com/dmitrijs2005/mediaqr/internal/client/config"
	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/dmitrijs2005/mediaqr/internal/client/repositories/kv"
	"github.com/dmitrijs2005/mediaqr/internal/client/services"
	"github.com/dmitrijs2005/mediaqr/internal/client/uploadstate"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	client.Client

	mu sync.Mutex

	UploadResp *models.UploadResponse
	UploadErr  error
	DeleteErr  error
	Deleted    []string
	Counts     map[string]int
	InfoCalls  int
	StorageRes *models.StorageSnapshot
	StorageErr error
	ProbeErr   error
	PingErr    error
}

func (f *fakeClient) Upload(_ context.Context, _, _ string, r io.Reader) (*models.UploadResponse, error) {
	_, _ = io.Copy(io.Discard, r)
	return f.UploadResp, f.UploadErr
}

func (f *fakeClient) Delete(_ context.Context, id string) error {
	f.Deleted = append(f.Deleted, id)
	return f.DeleteErr
}

func (f *fakeClient) Info(_ context.Context, id string) (*models.MediaInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InfoCalls++
	return &models.MediaInfo{AccessCount: f.Counts[id]}, nil
}

func (f *fakeClient) Probe(context.Context, string) error { return f.ProbeErr }

func (f *fakeClient) Storage(context.Context) (*models.StorageSnapshot, error) {
	return f.StorageRes, f.StorageErr
}

func (f *fakeClient) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PingErr
}

func (f *fakeClient) setPingErr(err error) {
	f.mu.Lock()
	f.PingErr = err
	f.mu.Unlock()
}

func (f *fakeClient) infoCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.InfoCalls
}

type fakeAgent struct {
	history any
	skipped bool
	err     error
}

func (f *fakeAgent) CacheHistory(_ context.Context, data any) error {
	f.history = data
	return f.err
}

func (f *fakeAgent) SkipWaiting(context.Context) error {
	f.skipped = true
	return f.err
}

func readerFromLines(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func newTestApp(t *testing.T, fc *fakeClient, input *bufio.Reader) (*App, *bytes.Buffer) {
	t.Helper()
	log := logging.NewNop()
	history := services.NewHistoryService(fc, kv.NewMemoryRepository(), log)
	storage := services.NewStorageIndicator(fc, log)
	var out bytes.Buffer

	app := &App{
		config:   &config.Config{PublicURL: "https://qr.example", ExportDir: t.TempDir()},
		log:      log,
		api:      fc,
		history:  history,
		storage:  storage,
		upload:   services.NewUploader(fc, history, storage, "https://qr.example", log),
		links:    services.NewLinkChecker(fc, log),
		reader:   input,
		out:      &out,
		stdoutFd: -1,
	}
	app.subscribe()
	t.Cleanup(func() { _ = app.Close() })
	return app, &out
}

func seed(t *testing.T, a *App, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, a.history.RecordUpload(context.Background(), models.HistoryEntry{
			ID: id, Filename: id + ".png", Size: "1.00", ContentType: "image/png",
			URL: "https://qr.example/q/" + id, UploadedAt: models.FormatUploadedAt(time.Now().Add(-time.Hour)),
		}))
	}
}

func stubOpenFile(t *testing.T, f models.FileSource, err error) {
	t.Helper()
	orig := openFile
	openFile = func(string) (models.FileSource, error) { return f, err }
	t.Cleanup(func() { openFile = orig })
}

func pngSource(size int64) models.FileSource {
	return models.FileSource{
		Name: "cat.png", Size: size, ContentType: "image/png",
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("png")), nil },
	}
}

func TestUpload_SuccessShowsLinkAndQR(t *testing.T) {
	fc := &fakeClient{
		UploadResp: &models.UploadResponse{ShortID: "abc", Filename: "cat.png", ContentType: "image/png", Size: 2 * 1024 * 1024},
		StorageRes: &models.StorageSnapshot{AvailableMB: 400},
	}
	app, out := newTestApp(t, fc, readerFromLines())
	stubOpenFile(t, pngSource(2*1024*1024), nil)

	require.NoError(t, app.Upload(context.Background(), []string{"cat.png"}))

	text := out.String()
	assert.Contains(t, text, "Uploading cat.png (2.0 MiB, image/png)")
	assert.Contains(t, text, "https://qr.example/q/abc")
	assert.Contains(t, text, "cat.png  2.00 MB • image")
	assert.Contains(t, text, "█")
	assert.Equal(t, uploadstate.Success, app.upload.State().Status)

	_, ok := app.storage.Snapshot()
	assert.True(t, ok, "storage indicator refreshed after upload")
	assert.Equal(t, "(success)", app.getStatus())
}

func TestUpload_ValidationError(t *testing.T) {
	fc := &fakeClient{}
	app, out := newTestApp(t, fc, readerFromLines())
	stubOpenFile(t, models.FileSource{Name: "a.txt", Size: 3, ContentType: "text/plain"}, nil)

	err := app.Upload(context.Background(), []string{"a.txt"})
	require.Error(t, err)
	assert.Contains(t, out.String(), "only audio, video or image files are allowed")

	require.NoError(t, app.Reset(context.Background()))
	assert.Equal(t, uploadstate.Idle, app.upload.State().Status)
}

func TestUpload_OpenError(t *testing.T) {
	app, out := newTestApp(t, &fakeClient{}, readerFromLines())
	stubOpenFile(t, models.FileSource{}, os.ErrNotExist)

	assert.ErrorIs(t, app.Upload(context.Background(), []string{"missing"}), os.ErrNotExist)
	assert.Contains(t, out.String(), "Error:")
}

func TestHistory_ListsWithCounts(t *testing.T) {
	fc := &fakeClient{Counts: map[string]int{"one": 1234}}
	app, out := newTestApp(t, fc, readerFromLines())
	seed(t, app, "one", "two")

	require.NoError(t, app.History(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "two"))
	assert.Contains(t, lines[1], "1,234 views")
	assert.Contains(t, lines[1], "1 hour ago")
	assert.Equal(t, "2 of 50 entries", lines[2])
}

func TestHistory_Empty(t *testing.T) {
	app, out := newTestApp(t, &fakeClient{}, readerFromLines())
	require.NoError(t, app.History(context.Background()))
	assert.Equal(t, "No uploads yet.\n", out.String())
}

func TestShow(t *testing.T) {
	app, out := newTestApp(t, &fakeClient{}, readerFromLines())
	seed(t, app, "one")

	require.NoError(t, app.Show(context.Background(), []string{"one"}))
	assert.Contains(t, out.String(), "https://qr.example/q/one")

	assert.Error(t, app.Show(context.Background(), []string{"nope"}))
	assert.Contains(t, out.String(), "No upload with id nope in history.")
}

func TestDelete_Confirmed(t *testing.T) {
	fc := &fakeClient{StorageRes: &models.StorageSnapshot{AvailableMB: 10}}
	app, out := newTestApp(t, fc, readerFromLines("y"))
	seed(t, app, "one", "two")

	require.NoError(t, app.Delete(context.Background(), []string{"one"}))
	assert.Equal(t, []string{"one"}, fc.Deleted)
	assert.Contains(t, out.String(), "Deleted one.")

	entries, err := app.history.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "two", entries[0].ID)
}

func TestDelete_Cancelled(t *testing.T) {
	fc := &fakeClient{}
	app, out := newTestApp(t, fc, readerFromLines("n"))
	seed(t, app, "one")

	require.NoError(t, app.Delete(context.Background(), []string{"one"}))
	assert.Empty(t, fc.Deleted)
	assert.Contains(t, out.String(), "Cancelled.")
}

func TestDelete_RemoteFailure(t *testing.T) {
	fc := &fakeClient{DeleteErr: &client.APIError{Status: 500}}
	app, out := newTestApp(t, fc, readerFromLines("yes"))
	seed(t, app, "one")

	assert.ErrorIs(t, app.Delete(context.Background(), []string{"one"}), errDeleteFailed)
	assert.Contains(t, out.String(), "could not delete one")

	entries, err := app.history.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExport(t *testing.T) {
	app, out := newTestApp(t, &fakeClient{}, readerFromLines())
	seed(t, app, "one")

	require.NoError(t, app.Export(context.Background(), []string{"one", "small"}))
	want := filepath.Join(app.config.ExportDir, "one-qr-small.png")
	assert.FileExists(t, want)
	assert.Contains(t, out.String(), "Saved "+want)

	assert.Error(t, app.Export(context.Background(), []string{"one", "huge"}))
	assert.ErrorIs(t, app.Export(context.Background(), []string{"svg"}), errNothingToExport)
}

func TestStorageAndRefresh(t *testing.T) {
	fc := &fakeClient{StorageErr: errors.New("down")}
	app, out := newTestApp(t, fc, readerFromLines())

	assert.ErrorIs(t, app.Storage(context.Background()), errNoSnapshot)
	assert.Contains(t, out.String(), "Storage information unavailable.")

	fc.StorageErr = nil
	fc.StorageRes = &models.StorageSnapshot{UsedMB: 450, TotalMB: 500, AvailableMB: 50, Percentage: 90}
	out.Reset()
	require.NoError(t, app.Refresh(context.Background()))
	assert.Contains(t, out.String(), "(90.0%)")
	assert.Contains(t, out.String(), "[caution]")

	fc.StorageErr = errors.New("down again")
	out.Reset()
	require.NoError(t, app.Refresh(context.Background()))
	assert.Contains(t, out.String(), "[caution]")
}

func TestStorageBar(t *testing.T) {
	bar := storageBar(models.StorageSnapshot{UsedMB: 250, TotalMB: 500, AvailableMB: 250, Percentage: 50})
	assert.True(t, strings.HasPrefix(bar, "["+strings.Repeat("#", 15)+strings.Repeat("-", 15)+"]"))
	assert.Contains(t, bar, "250 MiB of 500 MiB used (50.0%), 250 MiB free [ample]")

	bar = storageBar(models.StorageSnapshot{Percentage: 140, AvailableMB: 1})
	assert.True(t, strings.HasPrefix(bar, "["+strings.Repeat("#", 30)+"]"))
	assert.Contains(t, bar, "[critical]")
}

func TestCheck(t *testing.T) {
	fc := &fakeClient{ProbeErr: client.ErrNotFound}
	app, out := newTestApp(t, fc, readerFromLines())

	require.NoError(t, app.Check(context.Background(), []string{"https://qr.example/q/abc"}))
	assert.Contains(t, out.String(), "deleted by its owner")

	out.Reset()
	require.NoError(t, app.Check(context.Background(), []string{"https://qr.example/q/"}))
	assert.Contains(t, out.String(), "Invalid or malformed")
}

func TestCheck_PromptsForLink(t *testing.T) {
	fc := &fakeClient{}
	app, out := newTestApp(t, fc, readerFromLines("https://qr.example/q/abc"))

	require.NoError(t, app.Check(context.Background(), nil))
	assert.Contains(t, out.String(), "Link or file id to check\n> ")
	assert.Contains(t, out.String(), "This QR code is available.")

	app, _ = newTestApp(t, fc, bufio.NewReader(strings.NewReader("")))
	assert.ErrorIs(t, app.Check(context.Background(), nil), io.EOF)
}

func TestStorage_WarnsOnceWhenCritical(t *testing.T) {
	fc := &fakeClient{StorageRes: &models.StorageSnapshot{UsedMB: 480, TotalMB: 500, AvailableMB: 20, Percentage: 96}}
	app, out := newTestApp(t, fc, readerFromLines())

	require.NoError(t, app.Refresh(context.Background()))
	require.NoError(t, app.Refresh(context.Background()))
	assert.Equal(t, 1, strings.Count(out.String(), "Warning: storage almost full, 20 MiB free."))

	fc.StorageRes = &models.StorageSnapshot{UsedMB: 100, TotalMB: 500, AvailableMB: 400, Percentage: 20}
	require.NoError(t, app.Refresh(context.Background()))
	fc.StorageRes = &models.StorageSnapshot{UsedMB: 490, TotalMB: 500, AvailableMB: 10, Percentage: 98}
	require.NoError(t, app.Refresh(context.Background()))
	assert.Equal(t, 2, strings.Count(out.String(), "Warning: storage almost full"))
}

func TestUpload_PushesHistoryToAgent(t *testing.T) {
	fc := &fakeClient{
		UploadResp: &models.UploadResponse{ShortID: "abc", Filename: "cat.png", ContentType: "image/png", Size: 1024},
		StorageRes: &models.StorageSnapshot{AvailableMB: 400},
	}
	app, _ := newTestApp(t, fc, readerFromLines())
	agent := &fakeAgent{}
	app.agent = agent
	stubOpenFile(t, pngSource(1024), nil)

	require.NoError(t, app.Upload(context.Background(), []string{"cat.png"}))

	entries, ok := agent.history.([]models.HistoryEntry)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].ID)
}

func TestSnapshotAndUpdate(t *testing.T) {
	app, out := newTestApp(t, &fakeClient{}, readerFromLines())

	assert.ErrorIs(t, app.Snapshot(context.Background()), errNoAgent)
	assert.ErrorIs(t, app.Update(context.Background()), errNoAgent)

	agent := &fakeAgent{}
	app.agent = agent
	seed(t, app, "one", "two")

	require.NoError(t, app.Snapshot(context.Background()))
	entries, ok := agent.history.([]models.HistoryEntry)
	require.True(t, ok)
	assert.Len(t, entries, 2)
	assert.Contains(t, out.String(), "Sent 2 entries")

	require.NoError(t, app.Update(context.Background()))
	assert.True(t, agent.skipped)
}

func TestCheckOnline_RefreshesCountsWhenBackOnline(t *testing.T) {
	ctx := context.Background()
	fc := &fakeClient{Counts: map[string]int{"one": 3}}
	app, _ := newTestApp(t, fc, readerFromLines())
	seed(t, app, "one")

	app.checkOnline(ctx)
	assert.Equal(t, ModeOnline, app.Mode())
	assert.Zero(t, fc.infoCalls(), "first contact is not a reconnect")

	fc.setPingErr(errors.New("down"))
	app.checkOnline(ctx)
	assert.Equal(t, ModeOffline, app.Mode())

	fc.setPingErr(nil)
	app.checkOnline(ctx)
	assert.Equal(t, ModeOnline, app.Mode())
	assert.Equal(t, 1, fc.infoCalls())
	assert.Equal(t, models.AccessCounts{"one": 3}, app.history.AccessCounts())

	app.checkOnline(ctx)
	assert.Equal(t, 1, fc.infoCalls(), "staying online does not refresh")
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	app, _ := newTestApp(t, &fakeClient{}, readerFromLines())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		app.StartOnlineStatusWatcher(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return app.Mode() == ModeOnline }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
