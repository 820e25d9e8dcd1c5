// Package netx holds small net/http helpers shared by the API client and the
// agent control client.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of an error body is kept for messages.
const maxErrorBody = 4096

// IsSuccess reports whether status is in the 2xx class.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// DecodeJSON decodes resp.Body into v.
func DecodeJSON(resp *http.Response, v any) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", resp.Request.URL.Path, err)
	}
	return nil
}

// ReadErrorBody returns up to maxErrorBody bytes of resp.Body.
func ReadErrorBody(resp *http.Response) []byte {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return b
}

// Drain discards the rest of body and closes it so the connection can be reused.
func Drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// PostJSON marshals v and POSTs it to url. Any non-2xx status is an error.
func PostJSON(ctx context.Context, client *http.Client, url string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer Drain(resp.Body)

	if !IsSuccess(resp.StatusCode) {
		return fmt.Errorf("post failed: %s; body: %s", resp.Status, string(ReadErrorBody(resp)))
	}
	return nil
}
