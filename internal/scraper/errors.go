package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"

	"golang.org/x/net/http2"
)

// TransientFetchError is a failure that is worth retrying: throttling,
// temporary unavailability, a dropped connection or a timeout.
type TransientFetchError struct {
	StatusCode int
	Err        error
}

func (e *TransientFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient fetch failure: status %d", e.StatusCode)
	}
	return fmt.Sprintf("transient fetch failure: %v", e.Err)
}

func (e *TransientFetchError) Unwrap() error {
	return e.Err
}

// PermanentFetchError ends a fetch. Attempts counts the requests that were
// actually sent.
type PermanentFetchError struct {
	Attempts   int
	StatusCode int
	Err        error
}

func (e *PermanentFetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch failed after %d attempt(s): status %d", e.Attempts, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch failed after %d attempt(s): %v", e.Attempts, e.Err)
	default:
		return fmt.Sprintf("fetch failed after %d attempt(s)", e.Attempts)
	}
}

func (e *PermanentFetchError) Unwrap() error {
	return e.Err
}

var (
	ErrEmptyKeyword     = errors.New("keyword is required")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrRetriesExhausted = errors.New("retry budget exhausted")
)

// classify maps the result of one attempt onto the retry taxonomy. A nil
// return means the attempt succeeded. ctx is the caller's context: once it is
// done nothing is retried.
func classify(ctx context.Context, status int, err error) error {
	if err == nil {
		switch {
		case status >= 200 && status < 300:
			return nil
		case status == http.StatusServiceUnavailable, status == http.StatusTooManyRequests:
			return &TransientFetchError{StatusCode: status}
		default:
			return &PermanentFetchError{StatusCode: status, Err: fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)}
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return &PermanentFetchError{Err: ctxErr}
	}

	if errors.Is(err, ErrTooManyRedirects) {
		return &PermanentFetchError{Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return &PermanentFetchError{Err: err}
	}

	if isConnectionReset(err) || isTimeout(err) {
		return &TransientFetchError{Err: err}
	}

	return &PermanentFetchError{Err: err}
}

func isConnectionReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		isHTTP2Reset(err)
}

// isHTTP2Reset reports a stream reset, a GOAWAY or a connection-level error
// from an HTTP/2 transport passed in through WithTransport.
func isHTTP2Reset(err error) bool {
	var streamErr http2.StreamError
	if errors.As(err, &streamErr) {
		return true
	}
	var goAway http2.GoAwayError
	if errors.As(err, &goAway) {
		return true
	}
	var connErr http2.ConnectionError
	return errors.As(err, &connErr)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// errorTypeLabel is the metrics label for a failed attempt.
func errorTypeLabel(err error) string {
	var transient *TransientFetchError
	if errors.As(err, &transient) {
		switch {
		case transient.StatusCode == http.StatusTooManyRequests:
			return "rate_limited"
		case transient.StatusCode != 0:
			return "unavailable"
		case isTimeout(transient.Err):
			return "timeout"
		default:
			return "connection"
		}
	}

	var permanent *PermanentFetchError
	if errors.As(err, &permanent) {
		switch {
		case permanent.StatusCode == http.StatusNotFound:
			return "not_found"
		case permanent.StatusCode == http.StatusForbidden:
			return "forbidden"
		case permanent.StatusCode != 0:
			return "http_status"
		case errors.Is(permanent.Err, context.Canceled):
			return "canceled"
		case errors.Is(permanent.Err, ErrTooManyRedirects):
			return "redirects"
		}
		var dnsErr *net.DNSError
		if errors.As(permanent.Err, &dnsErr) {
			return "dns"
		}
	}

	return "other"
}
