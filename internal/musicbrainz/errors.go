package musicbrainz

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
)

// ErrNotFound marks a 404 from the upstream: the entity simply does not
// exist and retrying cannot help.
var ErrNotFound = errors.New("not found")

// StatusError reports a non-success HTTP status from the upstream.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d", e.Op, e.StatusCode)
}

// IsTransient classifies err as a retryable network condition. Connection
// resets/refusals, timeouts, and 429/5xx statuses are transient; everything
// else (4xx, malformed payloads, cancellation) is terminal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return true
		default:
			return false
		}
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// url.Error wraps most transport-level failures; treat the remainder as
	// generic network trouble worth one more attempt.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	return false
}
