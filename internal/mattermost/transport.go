package mattermost

import (
	"crypto/tls"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	maxAttempts    = 5
	baseRetryDelay = 1 * time.Second
)

// retryableStatuses are the HTTP statuses worth retrying: rate limiting and
// transient server-side failures. Everything else fails immediately.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// retryTransport wraps an http.RoundTripper to add bearer authentication and
// automatic retries with exponential backoff. Connection-level errors are not
// retried; only the statuses in retryableStatuses are.
type retryTransport struct {
	base      http.RoundTripper
	token     string
	baseDelay time.Duration
	logger    *zap.Logger
}

// newRetryTransport builds the transport for one export run. When verifySSL
// is false, certificate errors are ignored but connection errors still fail.
func newRetryTransport(token string, verifySSL bool, logger *zap.Logger) *retryTransport {
	base := http.DefaultTransport
	if !verifySSL {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		base = t
	}
	return &retryTransport{
		base:      base,
		token:     token,
		baseDelay: baseRetryDelay,
		logger:    logger,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	delay := t.baseDelay

	for attempt := 1; ; attempt++ {
		r := req.Clone(req.Context())
		r.Header.Set("Authorization", "Bearer "+t.token)

		resp, err := t.base.RoundTrip(r)
		if err != nil {
			return nil, err
		}

		if !retryableStatuses[resp.StatusCode] || attempt == maxAttempts {
			return resp, nil
		}

		wait := delay
		if ra := retryAfter(resp); ra > 0 {
			wait = ra
		}

		// Drain so the connection can be reused across attempts.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		t.logger.Warn("Retrying request",
			zap.String("url", req.URL.Path),
			zap.Int("status_code", resp.StatusCode),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait))

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
		delay *= 2
	}
}

// retryAfter reads the Retry-After header (seconds form only).
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
