package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Reason classifies why a fetch failed.
type Reason string

const (
	ReasonBlocked      Reason = "BLOCKED"
	ReasonTimeout      Reason = "TIMEOUT"
	ReasonParseFailure Reason = "PARSE_FAILURE"
	ReasonNetwork      Reason = "NETWORK"
)

// FetchError describes a failed source fetch.
type FetchError struct {
	URL    string
	Reason Reason
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// classifyErr maps a transport error onto a Reason.
func classifyErr(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonNetwork
}
