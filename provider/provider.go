// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package provider defines the polymorphic capability surface over heterogeneous LLM backends
// (§4.3): a single closed interface that every concrete backend implements, with message-format
// adaptation and response normalization kept internal to each implementation.
package provider

import (
	"context"
	"time"
)

// ModelInfo describes one model exposed by a provider.
type ModelInfo struct {
	ID                string
	Name              string
	MaxContextLength  int64
	SupportsStreaming bool
}

// CompletionRequest is the runner's internal, provider-agnostic request shape (§3).
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	// MaxTokens is optional; zero means "use the provider's default".
	MaxTokens int64
	// TopP is optional; zero means "use the provider's default".
	TopP float64
	Stop []string
	// Stream requests incremental delivery via Provider.Stream instead of Provider.Complete.
	Stream bool
	// Extra carries provider-specific knobs that have no generic equivalent.
	Extra map[string]any
}

// FinishReason is why generation stopped.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
	FinishToolCall      FinishReason = "tool_call"
	FinishError         FinishReason = "error"
)

// Usage reports token accounting for one completion.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Add accumulates o into u.
func (u *Usage) Add(o Usage) {
	u.PromptTokens += o.PromptTokens
	u.CompletionTokens += o.CompletionTokens
	u.TotalTokens += o.TotalTokens
}

// CompletionResponse is the unified outcome of a completion request (§3).
type CompletionResponse struct {
	ID           string
	Content      string
	Model        string
	Usage        Usage
	FinishReason FinishReason
	CreatedAt    time.Time
	Metadata     map[string]any
}

// Provider is the capability surface every LLM backend implementation provides. Implementations
// are a flat set of adapters behind this interface, never an inheritance hierarchy (§9).
type Provider interface {
	// Name returns the provider's identifier, e.g. "openai", "anthropic", "ollama".
	Name() string
	// SupportedModels lists the models known to this provider instance.
	SupportedModels() []ModelInfo
	// MaxContextLength returns the context window of model, if known.
	MaxContextLength(model string) (int64, bool)
	// ValidateConfig checks credential presence and endpoint reachability without issuing a
	// completion.
	ValidateConfig(ctx context.Context) error
	// EstimateTokens approximates the token count of text for model. A character/4 heuristic is
	// an acceptable fallback when no tokenizer is available.
	EstimateTokens(text string, model string) int64
	// Complete issues a unary completion request.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	// Stream issues a streaming completion request. The returned sequence is lazy, finite and
	// non-restartable: callers must either fully drain it or cancel ctx, or they leak the
	// underlying network resource (§9).
	Stream(ctx context.Context, req CompletionRequest) (Stream, error)
}

// Stream is a finite, non-restartable sequence of generated-text fragments.
type Stream interface {
	// Next blocks until the next fragment is available, returns false at end-of-stream, and
	// returns (false, err) on error.
	Next() (string, bool, error)
	// Close releases the underlying network resource. Safe to call more than once.
	Close() error
}
