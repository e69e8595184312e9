// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package provider

import "fmt"

// ErrorKind is one of the closed set of provider failure categories (§4.3). The runner relies on
// this taxonomy, not on HTTP status codes directly, to decide whether a failure is retryable.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrAuthentication
	ErrInvalidRequest
	ErrModelNotAvailable
	ErrRateLimitExceeded
	ErrContextLengthExceeded
	ErrNetwork
	ErrAPI
	ErrInvalidResponse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrAuthentication:
		return "authentication_error"
	case ErrInvalidRequest:
		return "invalid_request"
	case ErrModelNotAvailable:
		return "model_not_available"
	case ErrRateLimitExceeded:
		return "rate_limit_exceeded"
	case ErrContextLengthExceeded:
		return "context_length_exceeded"
	case ErrNetwork:
		return "network_error"
	case ErrAPI:
		return "api_error"
	case ErrInvalidResponse:
		return "invalid_response"
	default:
		return "unknown_error"
	}
}

// Error is the concrete error type returned by every Provider method. Its Kind determines whether
// BenchmarkRunner retries the call (§4.3): RateLimitExceeded, NetworkError and ApiError (transient
// 5xx) are retryable, everything else is terminal for that test case.
type Error struct {
	Kind ErrorKind
	// Provider names the backend that produced the error, e.g. "openai".
	Provider string
	// StatusCode is the originating HTTP status, 0 if not HTTP-derived.
	StatusCode int
	// RetryAfter is a provider-suggested backoff delay in seconds, 0 if absent.
	RetryAfter float64
	Msg        string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Provider, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the runner should reattempt the request that produced e.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case ErrRateLimitExceeded, ErrNetwork, ErrAPI:
		return true
	default:
		return false
	}
}

// Retryable reports whether err should be retried by BenchmarkRunner. A non-*Error is treated as
// a network-class failure and is retryable, since it typically originates from context
// cancellation, DNS failure, or a transport-level error below the provider's own classification.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *Error
	if ok := asError(err, &pe); ok {
		return pe.Retryable()
	}
	return true
}

func asError(err error, target **Error) bool {
	for err != nil {
		if pe, ok := err.(*Error); ok {
			*target = pe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
