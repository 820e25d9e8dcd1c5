// Package models defines the client-side data types of mediaqr.
package models

import (
	"fmt"
	"time"
)

// UploadedAtLayout matches the ISO-8601 form browsers produce with
// Date.toISOString: UTC with millisecond precision.
const UploadedAtLayout = "2006-01-02T15:04:05.000Z"

// HistoryEntry is one locally remembered upload. Entries are never mutated
// once created; they are only removed.
type HistoryEntry struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	Size        string `json:"size"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
	UploadedAt  string `json:"uploadedAt"`
}

// FormatSizeMB renders a byte count as decimal megabytes with two decimals.
func FormatSizeMB(bytes int64) string {
	return fmt.Sprintf("%.2f", float64(bytes)/1024/1024)
}

// FormatUploadedAt renders t in UploadedAtLayout.
func FormatUploadedAt(t time.Time) string {
	return t.UTC().Format(UploadedAtLayout)
}

// UploadedTime parses UploadedAt. Values written by other clients in plain
// RFC 3339 are accepted too.
func (e HistoryEntry) UploadedTime() (time.Time, error) {
	t, err := time.Parse(UploadedAtLayout, e.UploadedAt)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, e.UploadedAt)
}

// AccessCounts maps HistoryEntry.ID to the remote view count.
type AccessCounts map[string]int
