package mattermost

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNotFound indicates the server reported 404 for a looked-up entity.
// Required lookups (users, channels, threads) treat it as fatal; file
// lookups recover from it locally.
var ErrNotFound = errors.New("entity not found")

// RequestError is a non-2xx response outside the retryable set, or a
// retryable response after the retry budget was exhausted.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// DecodeError is an unexpected JSON shape from the server. Not retried.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// WrapError annotates an error with the failing operation and logs HTTP
// failures with their status code and body. Called once at the top of the
// pipeline so lower layers stay quiet.
func WrapError(logger *zap.Logger, operation string, err error) error {
	if err == nil {
		return nil
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		logger.Error("HTTP request failed",
			zap.String("operation", operation),
			zap.Int("status_code", reqErr.StatusCode),
			zap.String("body", reqErr.Body))
	}

	return fmt.Errorf("%s: %w", operation, err)
}
