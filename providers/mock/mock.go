// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mock implements an in-process provider.Provider with no network dependency, for tests
// and for exercising the runner and fleet packages in CI without a live LLM backend.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/llmbench/llmbench/provider"
)

// Behavior configures how Client responds to a completion request. The zero value echoes the
// prompt back verbatim and never fails; fields are set by tests that need to exercise retry,
// timeout or failure handling in the runner without a real network call.
type Behavior struct {
	// FailuresBeforeSuccess makes the first N calls to Complete return Err, then succeed.
	FailuresBeforeSuccess int
	// Err is returned while FailuresBeforeSuccess has not been exhausted. Defaults to a
	// retryable provider.Error of kind provider.ErrNetwork.
	Err error
	// Latency is slept before responding, to exercise duration_ms measurement and timeouts.
	Latency time.Duration
	// Prefix is prepended to the echoed prompt, e.g. to simulate a system persona.
	Prefix string
}

// Client is a Provider that echoes its prompt, optionally simulating latency and a run of
// transient failures. It assigns its own response IDs since it has no upstream API to assign one.
type Client struct {
	name     string
	models   []provider.ModelInfo
	behavior Behavior
	calls    atomic.Int64
}

var _ provider.Provider = (*Client)(nil)

// New creates a mock provider named name exposing models. behavior is copied, not referenced: the
// same Behavior value may be reused to configure multiple Clients.
func New(name string, models []provider.ModelInfo, behavior Behavior) *Client {
	return &Client{name: name, models: models, behavior: behavior}
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) SupportedModels() []provider.ModelInfo {
	return c.models
}

func (c *Client) MaxContextLength(model string) (int64, bool) {
	for _, m := range c.models {
		if m.ID == model {
			return m.MaxContextLength, true
		}
	}
	return 0, false
}

func (c *Client) ValidateConfig(ctx context.Context) error {
	return nil
}

// EstimateTokens splits text on whitespace; the mock provider has no tokenizer to approximate.
func (c *Client) EstimateTokens(text string, model string) int64 {
	return int64(len(strings.Fields(text)))
}

func (c *Client) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	n := c.calls.Add(1)
	if c.behavior.Latency > 0 {
		timer := time.NewTimer(c.behavior.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return provider.CompletionResponse{}, ctx.Err()
		case <-timer.C:
		}
	}
	if int(n) <= c.behavior.FailuresBeforeSuccess {
		if c.behavior.Err != nil {
			return provider.CompletionResponse{}, c.behavior.Err
		}
		return provider.CompletionResponse{}, &provider.Error{Kind: provider.ErrNetwork, Provider: c.name, Msg: fmt.Sprintf("simulated failure %d", n)}
	}
	content := req.Prompt
	if c.behavior.Prefix != "" {
		content = c.behavior.Prefix + content
	}
	promptTokens := c.EstimateTokens(req.Prompt, req.Model)
	completionTokens := c.EstimateTokens(content, req.Model)
	return provider.CompletionResponse{
		ID:      uuid.New().String(),
		Content: content,
		Model:   req.Model,
		Usage: provider.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		FinishReason: provider.FinishStop,
		CreatedAt:    time.Now(),
	}, nil
}

type mockStream struct {
	words []string
	i     int
}

func (s *mockStream) Next() (string, bool, error) {
	if s.i >= len(s.words) {
		return "", false, nil
	}
	w := s.words[s.i]
	s.i++
	if s.i < len(s.words) {
		w += " "
	}
	return w, true, nil
}

func (s *mockStream) Close() error {
	return nil
}

func (c *Client) Stream(ctx context.Context, req provider.CompletionRequest) (provider.Stream, error) {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return &mockStream{words: strings.Fields(resp.Content)}, nil
}

// Calls returns how many times Complete has been invoked, for test assertions.
func (c *Client) Calls() int64 {
	return c.calls.Load()
}
