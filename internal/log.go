// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package internal is awesome sauce shared across the core packages.
package internal

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type loggerKey struct{}

// WithLogger returns a context carrying l, retrievable with Logger.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// Logger returns the logger stored in ctx by WithLogger, or slog.Default() if none was set.
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// LogTransport wraps t to log method, URL, status and duration of every HTTP round trip at
// slog.LevelInfo, and errors at slog.LevelError. It never logs headers or bodies, which may carry
// provider credentials.
func LogTransport(t http.RoundTripper) http.RoundTripper {
	return &logTransport{r: t}
}

type logTransport struct {
	r http.RoundTripper
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()
	ll := Logger(ctx)
	resp, err := t.r.RoundTrip(req)
	dur := time.Since(start)
	if err != nil {
		ll.ErrorContext(ctx, "http", "method", req.Method, "url", req.URL.String(), "duration", dur, "err", err)
		return resp, err
	}
	ll.InfoContext(ctx, "http", "method", req.Method, "url", req.URL.String(), "duration", dur, "status", resp.StatusCode)
	return resp, nil
}
