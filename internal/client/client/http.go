package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/mediaqr/internal/client/models"
	"github.com/dmitrijs2005/mediaqr/internal/common"
	"github.com/dmitrijs2005/mediaqr/internal/netx"
)

// HTTPClient talks to the media API over HTTP. No client-side timeout is set
// unless the caller supplies an *http.Client that has one.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *HTTPClient) url(path string) string {
	return c.baseURL + path
}

func mediaPath(id string, suffix string) string {
	return common.MediaPath + url.PathEscape(id) + suffix
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func filePartHeader(filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}

func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func (c *HTTPClient) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// Upload streams r as the multipart field "file".
func (c *HTTPClient) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*models.UploadResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreatePart(filePartHeader(filename, contentType))
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(common.UploadPath), pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer netx.Drain(resp.Body)

	if !netx.IsSuccess(resp.StatusCode) {
		return nil, newAPIError(resp.StatusCode, netx.ReadErrorBody(resp))
	}

	var out models.UploadResponse
	if err := netx.DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url(mediaPath(id, "")), nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer netx.Drain(resp.Body)

	if !netx.IsSuccess(resp.StatusCode) {
		return newAPIError(resp.StatusCode, netx.ReadErrorBody(resp))
	}
	return nil
}

func (c *HTTPClient) Info(ctx context.Context, id string) (*models.MediaInfo, error) {
	resp, err := c.get(ctx, mediaPath(id, "/info"))
	if err != nil {
		return nil, err
	}
	defer netx.Drain(resp.Body)

	if !netx.IsSuccess(resp.StatusCode) {
		return nil, newAPIError(resp.StatusCode, netx.ReadErrorBody(resp))
	}

	var out models.MediaInfo
	if err := netx.DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Probe checks that the media behind id can still be fetched. The body is
// not read.
func (c *HTTPClient) Probe(ctx context.Context, id string) error {
	resp, err := c.get(ctx, mediaPath(id, ""))
	if err != nil {
		return err
	}
	_ = resp.Body.Close()

	switch {
	case netx.IsSuccess(resp.StatusCode):
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		return &APIError{Status: resp.StatusCode}
	}
}

func (c *HTTPClient) Storage(ctx context.Context) (*models.StorageSnapshot, error) {
	resp, err := c.get(ctx, common.StoragePath)
	if err != nil {
		return nil, err
	}
	defer netx.Drain(resp.Body)

	if !netx.IsSuccess(resp.StatusCode) {
		return nil, newAPIError(resp.StatusCode, netx.ReadErrorBody(resp))
	}

	var out models.StorageSnapshot
	if err := netx.DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	resp, err := c.get(ctx, common.HealthPath)
	if err != nil {
		return err
	}
	defer netx.Drain(resp.Body)

	if !netx.IsSuccess(resp.StatusCode) {
		return &APIError{Status: resp.StatusCode}
	}
	return nil
}
