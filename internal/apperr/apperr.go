// Package apperr defines the error taxonomy shared by services and handlers:
// validation and config errors map to 4xx and are shown verbatim, upstream
// and transport errors map to 5xx with coarse, stack-trace-free messages.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
)

// Validation marks bad or missing caller input. Always user-actionable.
type Validation struct {
	Msg string
}

func (e *Validation) Error() string { return e.Msg }

// Validationf builds a Validation error.
func Validationf(format string, args ...any) *Validation {
	return &Validation{Msg: fmt.Sprintf(format, args...)}
}

// Config marks a missing or unusable operator-side setting.
type Config struct {
	Msg string
}

func (e *Config) Error() string { return e.Msg }

// Configf builds a Config error.
func Configf(format string, args ...any) *Config {
	return &Config{Msg: fmt.Sprintf(format, args...)}
}

// Upstream marks an error payload returned by a third-party API. Never
// retried automatically.
type Upstream struct {
	Op  string
	Err error
}

func (e *Upstream) Error() string {
	if e.Err == nil {
		return e.Op + ": upstream error"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Upstream) Unwrap() error { return e.Err }

// Upstreamf wraps an upstream failure under an operation tag.
func Upstreamf(op string, err error) *Upstream {
	return &Upstream{Op: op, Err: err}
}

// TransportKind is the coarse classification shown to callers instead of raw
// network errors.
type TransportKind string

const (
	KindNotFound TransportKind = "not-found"
	KindTimeout  TransportKind = "timed-out"
	KindRefused  TransportKind = "connection-refused"
	KindUnknown  TransportKind = "unknown"
)

// Transport marks a fetch-level failure (network, timeout, DNS).
type Transport struct {
	Kind TransportKind
	Err  error
}

func (e *Transport) Error() string {
	if e.Err == nil {
		return "request " + string(e.Kind)
	}
	return fmt.Sprintf("request %s: %v", e.Kind, e.Err)
}

func (e *Transport) Unwrap() error { return e.Err }

// ClassifyTransport buckets a network-level error into a TransportKind.
func ClassifyTransport(err error) *Transport {
	kind := KindUnknown

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		kind = KindRefused
	case errors.As(err, &dnsErr):
		kind = KindNotFound
	case err != nil && strings.Contains(err.Error(), "connection refused"):
		kind = KindRefused
	}

	return &Transport{Kind: kind, Err: err}
}

// Status maps an error to the HTTP status a handler should return.
func Status(err error) int {
	var v *Validation
	var c *Config
	if errors.As(err, &v) || errors.As(err, &c) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
