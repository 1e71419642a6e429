package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// Wire codes carried in the "code" field of error responses.
const (
	CodeInvalidMode   = "invalid_mode"
	CodeMissingPhoto  = "missing_photo"
	CodeInvalidPhoto  = "invalid_photo"
	CodeBadRequest    = "bad_request"
	CodeQuotaExceeded = "quota_exceeded"
	CodeRateLimited   = "rate_limited"
	CodeProviderError = "provider_error"
	CodeEmptyResult   = "empty_result"
	CodeInternal      = "internal"
)

// CodeOf classifies err. Quota wins over the ProviderError that wraps it.
func CodeOf(err error) string {
	var (
		invalidMode  *InvalidModeError
		missingPhoto *MissingPhotoError
		invalidPhoto *InvalidPhotoError
		provider     *ProviderError
		empty        *EmptyResultError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &invalidMode):
		return CodeInvalidMode
	case errors.As(err, &missingPhoto):
		return CodeMissingPhoto
	case errors.As(err, &invalidPhoto):
		return CodeInvalidPhoto
	case errors.Is(err, ErrQuotaExceeded):
		return CodeQuotaExceeded
	case errors.As(err, &provider):
		return CodeProviderError
	case errors.As(err, &empty):
		return CodeEmptyResult
	default:
		return CodeInternal
	}
}

// RemoteError is an error response received over the wire that has no local type.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// ErrorFromCode rebuilds a typed error from a wire code and message.
func ErrorFromCode(code, msg string) error {
	switch code {
	case CodeInvalidMode:
		mode := msg
		if i := strings.Index(msg, `"`); i >= 0 {
			mode = strings.Trim(msg[i:], `"`)
		}
		return &InvalidModeError{Mode: mode}
	case CodeMissingPhoto:
		return &MissingPhotoError{}
	case CodeInvalidPhoto:
		return &InvalidPhotoError{MimeType: "unknown"}
	case CodeQuotaExceeded:
		provider, cause := splitProviderMessage(msg)
		return &ProviderError{Provider: provider, Err: &remoteCause{msg: cause, is: ErrQuotaExceeded}}
	case CodeProviderError:
		provider, cause := splitProviderMessage(msg)
		return &ProviderError{Provider: provider, Err: errors.New(cause)}
	case CodeEmptyResult:
		return &EmptyResultError{}
	default:
		return &RemoteError{Code: code, Message: msg}
	}
}

const providerPrefix = "failed to get analysis from AI"

// splitProviderMessage undoes ProviderError.Error so a relayed error prints once.
func splitProviderMessage(msg string) (provider, cause string) {
	rest, ok := strings.CutPrefix(msg, providerPrefix)
	if !ok {
		return "", msg
	}
	if strings.HasPrefix(rest, " (") {
		if end := strings.Index(rest, "):"); end > 0 {
			return rest[2:end], strings.TrimSpace(rest[end+2:])
		}
	}
	return "", strings.TrimSpace(strings.TrimPrefix(rest, ":"))
}

type remoteCause struct {
	msg string
	is  error
}

func (e *remoteCause) Error() string { return e.msg }

func (e *remoteCause) Unwrap() error { return e.is }
