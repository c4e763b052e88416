// Package delivery sends generated codes to users over an out-of-band
// channel. Failures here are transport problems, never credential problems,
// and surface as *Error so callers can keep the two apart.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds the synchronous delivery call. The challenge
// response blocks on delivery, so an unbounded transport would hang the
// whole authentication attempt.
const DefaultTimeout = 5 * time.Second

// Gateway delivers a message to an opaque channel address.
type Gateway interface {
	// Send blocks until the message is accepted or the attempt fails.
	Send(ctx context.Context, address, text string) error
}

// Error wraps a failed delivery attempt. It is a distinct type so validation
// failures and delivery failures can never be conflated in the orchestrator.
type Error struct {
	Gateway string // "telegram" or "relay"
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("delivery via %s failed: %v", e.Gateway, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err is (or wraps) a delivery failure.
func IsError(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// newClient builds the shared HTTP client. A zero timeout falls back to
// DefaultTimeout; delivery must never run without one.
func newClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
