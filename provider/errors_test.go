// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Retryable(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want bool
	}{
		{ErrRateLimitExceeded, true},
		{ErrNetwork, true},
		{ErrAPI, true},
		{ErrAuthentication, false},
		{ErrInvalidRequest, false},
		{ErrModelNotAvailable, false},
		{ErrContextLengthExceeded, false},
		{ErrInvalidResponse, false},
	}
	for _, c := range cases {
		e := &Error{Kind: c.kind}
		assert.Equal(t, c.want, e.Retryable(), c.kind.String())
	}
}

func TestRetryable_WrappedError(t *testing.T) {
	base := &Error{Kind: ErrRateLimitExceeded}
	wrapped := fmt.Errorf("dispatch: %w", base)
	assert.True(t, Retryable(wrapped))

	base2 := &Error{Kind: ErrAuthentication}
	assert.False(t, Retryable(fmt.Errorf("dispatch: %w", base2)))
}

func TestRetryable_NonProviderError(t *testing.T) {
	assert.True(t, Retryable(errors.New("some transport error")))
	assert.False(t, Retryable(nil))
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "rate_limit_exceeded", ErrRateLimitExceeded.String())
	assert.Equal(t, "unknown_error", ErrorKind(99).String())
}
