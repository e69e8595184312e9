// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/llmbench/llmbench/internal"
	"github.com/maruel/httpjson"
)

// Base implements the shared HTTP client plumbing used by every HTTP-backed Provider: request
// dispatch, JSON decoding of the response body, and classification of error responses into the
// closed §4.3 error taxonomy.
type Base[PErrorResponse fmt.Stringer] struct {
	// ClientJSON is exported for testing replay purposes.
	ClientJSON httpjson.Client
	// APIKeyURL is the URL to present to the user upon authentication error.
	APIKeyURL    string
	ProviderName string

	mu            sync.Mutex
	errorResponse reflect.Type
}

func (c *Base[PErrorResponse]) Name() string {
	return c.ProviderName
}

// DoRequest performs an HTTP request and decodes the JSON response into out, or classifies a
// non-200 response into a *Error.
func (c *Base[PErrorResponse]) DoRequest(ctx context.Context, method, url string, in, out any) error {
	c.lateInit()
	resp, err := c.ClientJSON.Request(ctx, method, url, nil, in)
	if err != nil {
		return &Error{Kind: ErrNetwork, Provider: c.ProviderName, Msg: "request failed", Err: err}
	}
	if resp.StatusCode != 200 {
		return c.DecodeError(ctx, url, resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err2 := resp.Body.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return &Error{Kind: ErrNetwork, Provider: c.ProviderName, Msg: "reading response body", Err: err}
	}
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	if err := d.Decode(out); err != nil {
		return &Error{Kind: ErrInvalidResponse, Provider: c.ProviderName, Msg: "decoding response", Err: err}
	}
	return nil
}

// DecodeError reads and classifies an HTTP error response.
func (c *Base[PErrorResponse]) DecodeError(ctx context.Context, url string, resp *http.Response) error {
	c.lateInit()
	er := reflect.New(c.errorResponse).Interface().(PErrorResponse)
	b, err := io.ReadAll(resp.Body)
	if err2 := resp.Body.Close(); err == nil {
		err = err2
	}
	msg := http.StatusText(resp.StatusCode)
	if err == nil && len(b) > 0 {
		d := json.NewDecoder(bytes.NewReader(b))
		d.UseNumber()
		if derr := d.Decode(er); derr == nil {
			if s := er.String(); s != "" {
				msg = s
			}
		}
	}
	kind := classifyStatus(resp.StatusCode, msg)
	pe := &Error{Kind: kind, Provider: c.ProviderName, StatusCode: resp.StatusCode, Msg: msg}
	if kind == ErrAuthentication && c.APIKeyURL != "" && !strings.Contains(msg, c.APIKeyURL) {
		pe.Msg = fmt.Sprintf("%s. You can get a new API key at %s", msg, c.APIKeyURL)
	}
	if kind == ErrRateLimitExceeded {
		if d, ok := internal.ParseRetryAfter(resp.Header.Get("Retry-After")); ok {
			pe.RetryAfter = d.Seconds()
		}
	}
	return pe
}

// classifyStatus maps an HTTP status code, with a best-effort look at the error message, to the
// closed §4.3 error taxonomy. Providers whose error bodies carry a finer-grained machine-readable
// code should override this via their own response types rather than relying on this heuristic
// alone.
func classifyStatus(status int, msg string) ErrorKind {
	lower := strings.ToLower(msg)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthentication
	case http.StatusTooManyRequests:
		return ErrRateLimitExceeded
	case http.StatusNotFound:
		return ErrModelNotAvailable
	case http.StatusBadRequest:
		if strings.Contains(lower, "context length") || strings.Contains(lower, "context_length") || strings.Contains(lower, "maximum context") || strings.Contains(lower, "too many tokens") {
			return ErrContextLengthExceeded
		}
		return ErrInvalidRequest
	case http.StatusRequestEntityTooLarge:
		return ErrContextLengthExceeded
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrNetwork
	default:
		return ErrAPI
	}
}

func (c *Base[PErrorResponse]) lateInit() {
	c.mu.Lock()
	if c.errorResponse == nil {
		var in PErrorResponse
		c.errorResponse = reflect.TypeOf(in).Elem()
	}
	c.mu.Unlock()
}
