package services

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediaqr/internal/client/client"
	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/dmitrijs2005/mediaqr/internal/client/uploadstate"
	"github.com/dmitrijs2005/mediaqr/internal/common"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
)

// GenericUploadError is shown when the server gives no usable detail.
const GenericUploadError = "error uploading the file"

// ValidateFile applies the client-side upload constraints.
func ValidateFile(f models.FileSource) error {
	allowed := false
	for _, prefix := range common.AllowedMediaPrefixes {
		if strings.HasPrefix(f.ContentType, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		return common.ErrUnsupportedMediaType
	}
	if f.Size > common.MaxUploadSize {
		return common.ErrFileTooLarge
	}
	return nil
}

// ShareURL builds the public short link for id.
func ShareURL(publicURL, id string) string {
	return strings.TrimRight(publicURL, "/") + common.ShortLinkPath + url.PathEscape(id)
}

type storageRefresher interface {
	Refresh(ctx context.Context) bool
}

// Uploader drives the upload flow and publishes every state change.
type Uploader struct {
	client    client.Client
	history   HistoryService
	storage   storageRefresher
	publicURL string
	log       logging.Logger
	now       func() time.Time

	mu    sync.Mutex
	state uploadstate.State
	subs  []func(uploadstate.State)
}

func NewUploader(c client.Client, history HistoryService, storage storageRefresher, publicURL string, log logging.Logger) *Uploader {
	return &Uploader{
		client:    c,
		history:   history,
		storage:   storage,
		publicURL: publicURL,
		log:       log,
		now:       time.Now,
		state:     uploadstate.Initial(),
	}
}

func (u *Uploader) State() uploadstate.State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Subscribe registers fn to observe every transition.
func (u *Uploader) Subscribe(fn func(uploadstate.State)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.subs = append(u.subs, fn)
}

func (u *Uploader) apply(ev uploadstate.Event) uploadstate.State {
	u.mu.Lock()
	next := uploadstate.Next(u.state, ev)
	u.state = next
	subs := slices.Clone(u.subs)
	u.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

func (u *Uploader) Reset() uploadstate.State {
	return u.apply(uploadstate.ResetEvent())
}

// HandleFileSelect validates f, uploads it and records the result.
// Validation failures never reach the network.
func (u *Uploader) HandleFileSelect(ctx context.Context, f models.FileSource) uploadstate.State {
	if u.State().Busy() {
		return u.State()
	}

	if err := ValidateFile(f); err != nil {
		return u.apply(uploadstate.FailEvent(err.Error()))
	}

	u.apply(uploadstate.StartEvent())

	entry, err := u.upload(ctx, f)
	if err != nil {
		u.log.Warn(ctx, "upload failed", "file", f.Name, "error", err)
		return u.apply(uploadstate.FailEvent(uploadMessage(err)))
	}

	if err := u.history.RecordUpload(ctx, entry); err != nil {
		u.log.Error(ctx, "record upload failed", "id", entry.ID, "error", err)
		return u.apply(uploadstate.FailEvent(err.Error()))
	}

	if u.storage != nil {
		u.storage.Refresh(ctx)
	}

	return u.apply(uploadstate.SucceedEvent(entry))
}

func (u *Uploader) upload(ctx context.Context, f models.FileSource) (models.HistoryEntry, error) {
	r, err := f.Open()
	if err != nil {
		return models.HistoryEntry{}, err
	}
	defer r.Close()

	resp, err := u.client.Upload(ctx, f.Name, f.ContentType, r)
	if err != nil {
		return models.HistoryEntry{}, err
	}

	id := resp.Identifier()
	if id == "" {
		return models.HistoryEntry{}, client.ErrMissingIdentifier
	}

	link := resp.URL
	if link == "" {
		link = ShareURL(u.publicURL, id)
	}

	filename := resp.Filename
	if filename == "" {
		filename = f.Name
	}
	contentType := resp.ContentType
	if contentType == "" {
		contentType = f.ContentType
	}

	return models.HistoryEntry{
		ID:          id,
		Filename:    filename,
		Size:        models.FormatSizeMB(resp.Size),
		ContentType: contentType,
		URL:         link,
		UploadedAt:  models.FormatUploadedAt(u.now()),
	}, nil
}

func uploadMessage(err error) string {
	if d := client.Detail(err); d != "" {
		return d
	}
	if errors.Is(err, client.ErrMissingIdentifier) || errors.Is(err, client.ErrUnavailable) {
		return err.Error()
	}
	return GenericUploadError
}
