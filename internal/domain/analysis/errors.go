package analysis

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// InvalidModeError is returned for a mode outside Modes.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid mode specified: %q", e.Mode)
}

// MissingPhotoError is returned when the mode requires a photo and none was sent.
type MissingPhotoError struct {
	Mode Mode
}

func (e *MissingPhotoError) Error() string {
	return "no photo uploaded"
}

// InvalidPhotoError is returned when the upload is not an image.
type InvalidPhotoError struct {
	MimeType string
}

func (e *InvalidPhotoError) Error() string {
	return fmt.Sprintf("uploaded file is not an image (%s)", e.MimeType)
}

// ProviderError wraps transport, status and parse failures of the AI call.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("failed to get analysis from AI: %v", e.Err)
	}
	return fmt.Sprintf("failed to get analysis from AI (%s): %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// EmptyResultError means the provider answered but analysisText was empty.
type EmptyResultError struct{}

func (e *EmptyResultError) Error() string {
	return "no analysis text received from AI"
}
