// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/pdiddy/trendsift/pkg/types"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	// ErrAuth means the API key was missing or rejected.
	ErrAuth ErrorKind = "auth"

	// ErrRateLimited means the provider returned HTTP 429.
	ErrRateLimited ErrorKind = "rate_limited"

	// ErrTimeout means the request exceeded its deadline.
	ErrTimeout ErrorKind = "timeout"

	// ErrTransport means the request failed below HTTP (DNS, connection).
	ErrTransport ErrorKind = "transport"

	// ErrMalformed means the response decoded but lacked the expected schema.
	ErrMalformed ErrorKind = "malformed_response"

	// ErrEmpty means a valid response contained zero hits. A distinct
	// outcome, not a failure: the orchestrator records it as zero items.
	ErrEmpty ErrorKind = "empty_result"
)

// AdapterError is a classified failure at the provider boundary.
type AdapterError struct {
	Provider types.ProviderKind
	Kind     ErrorKind
	Err      error
}

func (e *AdapterError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// KindOf returns the ErrorKind of err when it is an AdapterError, or
// ErrTransport otherwise.
func KindOf(err error) ErrorKind {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ErrTransport
}

// IsEmpty reports whether err is the zero-hits outcome.
func IsEmpty(err error) bool {
	return KindOf(err) == ErrEmpty
}

// adapterErr wraps err with a provider and kind.
func adapterErr(kind types.ProviderKind, k ErrorKind, err error) *AdapterError {
	return &AdapterError{Provider: kind, Kind: k, Err: err}
}

// classifyTransport maps a client.Do failure to timeout or transport.
func classifyTransport(kind types.ProviderKind, err error) *AdapterError {
	if errors.Is(err, context.DeadlineExceeded) {
		return adapterErr(kind, ErrTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return adapterErr(kind, ErrTimeout, err)
	}
	return adapterErr(kind, ErrTransport, err)
}

// classifyStatus maps a non-200 HTTP status to an error kind.
func classifyStatus(kind types.ProviderKind, status int) *AdapterError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return adapterErr(kind, ErrAuth, fmt.Errorf("HTTP %d", status))
	case status == http.StatusTooManyRequests:
		return adapterErr(kind, ErrRateLimited, fmt.Errorf("HTTP %d", status))
	case status >= 500:
		return adapterErr(kind, ErrTransport, fmt.Errorf("HTTP %d", status))
	default:
		return adapterErr(kind, ErrMalformed, fmt.Errorf("unexpected HTTP %d", status))
	}
}
