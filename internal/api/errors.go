package api

import (
	"context"
	"errors"
	"fmt"
)

// ErrMalformedResponse reports a body that does not fit the endpoint's
// response contract.
var ErrMalformedResponse = errors.New("malformed response")

// TransportError wraps failures below the response contract: DNS, refused
// connections, timeouts, cancelled contexts and truncated bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e == nil || e.Err == nil {
		return "transport error"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the exchange ran out of time.
func (e *TransportError) Timeout() bool {
	if e == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

func malformed(path, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedResponse, path, reason)
}
