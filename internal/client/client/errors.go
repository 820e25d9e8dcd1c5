package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnavailable       = errors.New("server unavailable")
	ErrNotFound          = errors.New("media not found")
	ErrMissingIdentifier = errors.New("upload response carries no identifier")
)

// APIError is a non-2xx answer from the media API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// newAPIError extracts the "detail" field from a JSON error body. Details
// that are not plain strings (validation error lists) are dropped.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	e := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return e
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		e.Detail = s
	}
	return e
}

// Detail returns the server-provided message of err, or "" when err is not
// an *APIError or carries none.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}
