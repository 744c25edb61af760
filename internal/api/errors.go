package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors
var (
	// ErrSessionExpired is returned when the server rejects the token as
	// expired or invalid. The call is never retried.
	ErrSessionExpired = errors.New("session expired")
)

// BusinessError is a request that reached the server and was understood,
// but failed for domain reasons. The message is the server's own wording
// and is surfaced to the user verbatim.
type BusinessError struct {
	Code    int
	Message string
}

func (e *BusinessError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed (code %d)", e.Code)
}

// NetworkError is a transport-level failure: no response, a timeout, or an
// HTTP status outside the handled set. Message is the fixed user-facing
// text; the underlying error is kept for logging.
type NetworkError struct {
	Status  int // 0 when no response was received
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a timeout.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// statusMessage maps the handled HTTP status codes to fixed user-facing
// messages. Anything else gets a generic failure line with the status.
func statusMessage(status int) string {
	switch status {
	case 400:
		return "bad request, check the request parameters"
	case 403:
		return "permission denied for this resource"
	case 404:
		return "the requested resource does not exist"
	case 500:
		return "server error, contact the administrator"
	default:
		return fmt.Sprintf("request failed (%d)", status)
	}
}

// transportError wraps a failure to obtain any response at all.
func transportError(err error) *NetworkError {
	ne := &NetworkError{Err: err}
	if ne.Timeout() {
		ne.Message = "request timed out, check your network connection"
	} else {
		ne.Message = "network error, try again later"
	}
	return ne
}
