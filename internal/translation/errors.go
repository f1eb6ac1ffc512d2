package translation

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies translation failures for retry/fallback decisions and for
// the API layer's status mapping.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindEngineNotFound    Kind = "engine_not_found"
	KindEngineUnavailable Kind = "engine_unavailable"
	KindConfigInvalid     Kind = "config_invalid"
	KindNetwork           Kind = "network"
	KindProvider          Kind = "provider"
	KindTimeout           Kind = "timeout"
	KindEmptyResult       Kind = "empty_result"
	KindQueueFull         Kind = "queue_full"
)

// Error is the uniform error shape adapters and the Manager produce.
type Error struct {
	Kind     Kind
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, provider, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: provider, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, provider string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: provider, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the failure kind, defaulting to KindProvider for errors
// produced outside the taxonomy.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindProvider
}

// Retryable reports whether the failure class is eligible for retry and
// provider fallback.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindProvider, KindTimeout, KindEmptyResult:
		return true
	default:
		return false
	}
}

// classifyTransportError maps an http.Client error onto the taxonomy.
func classifyTransportError(provider string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return wrapError(KindTimeout, provider, err, "request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return wrapError(KindTimeout, provider, err, "request timed out")
	}
	return wrapError(KindNetwork, provider, err, "request failed")
}
