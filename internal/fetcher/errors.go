package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Reason classifies why a fetch failed.
type Reason string

const (
	ReasonRequest  Reason = "request"
	ReasonTimeout  Reason = "timeout"
	ReasonCanceled Reason = "canceled"
	ReasonNetwork  Reason = "network"
	ReasonStatus   Reason = "status"
	ReasonBlocked  Reason = "blocked"
	ReasonRead     Reason = "read"

	// ReasonCircuitOpen marks a URL skipped because its host kept failing.
	ReasonCircuitOpen Reason = "circuit_open"
)

// FetchError describes a failed fetch. It is recovered locally by callers:
// the URL simply contributes nothing.
type FetchError struct {
	URL        string
	Reason     Reason
	StatusCode int
	Detail     string
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ReasonOf returns the failure reason carried by err, or "" when err is not
// a *FetchError.
func ReasonOf(err error) Reason {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}

// classifyTransportError maps a client.Do error to a reason. parent is the
// caller's context; a deadline hit on the per-request context is a timeout,
// while a cancelled parent means the whole run is stopping.
func classifyTransportError(parent context.Context, err error) Reason {
	if parent.Err() != nil {
		return ReasonCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonNetwork
}
