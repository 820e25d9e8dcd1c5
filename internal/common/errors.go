package common

import "errors"

var (
	ErrorNotFound = errors.New("not found")

	// Validation errors raised before any network call.
	ErrUnsupportedMediaType = errors.New("only audio, video or image files are allowed")
	ErrFileTooLarge         = errors.New("file is too large (max 50MB)")

	ErrUnknownMessage = errors.New("unknown message type")
)
