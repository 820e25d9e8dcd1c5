package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/mediaqr/internal/client/models"
)

// Client is the contract of the remote media API.
type Client interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (*models.UploadResponse, error)
	Delete(ctx context.Context, id string) error
	Info(ctx context.Context, id string) (*models.MediaInfo, error)
	Probe(ctx context.Context, id string) error
	Storage(ctx context.Context) (*models.StorageSnapshot, error)
	Ping(ctx context.Context) error
}
