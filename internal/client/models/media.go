package models

import (
	"io"
	"strings"
)

// UploadResponse is the success body of the upload endpoint.
type UploadResponse struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	ShortID     string `json:"short_id"`
	ID          string `json:"id"`
}

// Identifier returns short_id when present, id otherwise. An empty result
// means the response cannot be admitted into the history.
func (r UploadResponse) Identifier() string {
	if s := strings.TrimSpace(r.ShortID); s != "" {
		return s
	}
	return strings.TrimSpace(r.ID)
}

// MediaInfo is the body of the per-file info endpoint.
type MediaInfo struct {
	ID          string `json:"id,omitempty"`
	ShortID     string `json:"short_id,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	FileSize    int64  `json:"file_size,omitempty"`
	AccessCount int    `json:"access_count"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// FileSource describes a file selected for upload.
type FileSource struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}
