// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/llmbench/llmbench/internal"
)

// retrier adapts the §4.3 per-request backoff policy (1s doubling per attempt, capped at
// internal.MaxBackoff) to backoff.BackOff, so CompleteWithRetry can drive it through
// cenkalti/backoff/v4, with Retryable deciding which errors are retried. It overrides the
// computed delay whenever the most recent error is a *Error carrying a provider-supplied
// Retry-After.
type retrier struct {
	attempt    int
	maxRetries int
	lastErr    error
}

func (r *retrier) NextBackOff() time.Duration {
	if r.attempt >= r.maxRetries {
		return backoff.Stop
	}
	delay := internal.Backoff(r.attempt)
	if pe, ok := r.lastErr.(*Error); ok && pe.RetryAfter > 0 {
		if d := time.Duration(pe.RetryAfter * float64(time.Second)); d < internal.MaxBackoff {
			delay = d
		} else {
			delay = internal.MaxBackoff
		}
	}
	r.attempt++
	return delay
}

func (r *retrier) Reset() {
	r.attempt = 0
}

// CompleteWithRetry wraps p.Complete with the per-request retry policy of §4.3: maxRetries
// additional attempts beyond the first are made for retryable errors, with an exponential
// backoff starting at 1s and capped at internal.MaxBackoff, or the provider's Retry-After when it
// supplied one. A non-retryable error or context cancellation returns immediately.
func CompleteWithRetry(ctx context.Context, p Provider, req CompletionRequest, maxRetries int) (CompletionResponse, error) {
	var resp CompletionResponse
	r := &retrier{maxRetries: maxRetries}

	op := func() error {
		out, err := p.Complete(ctx, req)
		if err == nil {
			resp = out
			return nil
		}
		r.lastErr = err
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(r, ctx)); err != nil {
		if r.lastErr != nil {
			return CompletionResponse{}, r.lastErr
		}
		return CompletionResponse{}, err
	}
	return resp, nil
}
