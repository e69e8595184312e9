// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maruel/httpjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeErrorResponse struct {
	Message string `json:"message"`
}

func (e *fakeErrorResponse) String() string {
	return e.Message
}

type fakeResult struct {
	Value string `json:"value"`
}

func newBase(url string) *Base[*fakeErrorResponse] {
	return &Base[*fakeErrorResponse]{
		ProviderName: "fake",
		ClientJSON:   httpjson.Client{Client: http.DefaultClient},
	}
}

func TestBase_DoRequest_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(fakeResult{Value: "hi"})
	}))
	defer srv.Close()

	b := newBase(srv.URL)
	var out fakeResult
	err := b.DoRequest(t.Context(), "GET", srv.URL, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Value)
}

func TestBase_DoRequest_ClassifiesAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(fakeErrorResponse{Message: "bad key"})
	}))
	defer srv.Close()

	b := newBase(srv.URL)
	b.APIKeyURL = "https://example.com/keys"
	var out fakeResult
	err := b.DoRequest(t.Context(), "GET", srv.URL, nil, &out)
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrAuthentication, pe.Kind)
	assert.Contains(t, pe.Msg, "example.com/keys")
}

func TestBase_DoRequest_ClassifiesRateLimitWithRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(fakeErrorResponse{Message: "slow down"})
	}))
	defer srv.Close()

	b := newBase(srv.URL)
	var out fakeResult
	err := b.DoRequest(t.Context(), "GET", srv.URL, nil, &out)
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrRateLimitExceeded, pe.Kind)
	assert.Equal(t, float64(3), pe.RetryAfter)
}

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		msg    string
		want   ErrorKind
	}{
		{http.StatusUnauthorized, "", ErrAuthentication},
		{http.StatusForbidden, "", ErrAuthentication},
		{http.StatusTooManyRequests, "", ErrRateLimitExceeded},
		{http.StatusNotFound, "", ErrModelNotAvailable},
		{http.StatusBadRequest, "generic", ErrInvalidRequest},
		{http.StatusBadRequest, fmt.Sprintf("this exceeds the maximum context length"), ErrContextLengthExceeded},
		{http.StatusRequestEntityTooLarge, "", ErrContextLengthExceeded},
		{http.StatusBadGateway, "", ErrNetwork},
		{http.StatusInternalServerError, "", ErrAPI},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, classifyStatus(c.status, c.msg), c.msg)
	}
}
