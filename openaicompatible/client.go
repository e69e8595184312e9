// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package openaicompatible implements a provider.Provider for any backend exposing an
// OpenAI-compatible "/chat/completions" endpoint.
//
// It's a good starting point to wire up a new HTTP-backed provider: translate
// provider.CompletionRequest into the wire format, issue the request through provider.Base, and
// translate the wire response back.
package openaicompatible

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/llmbench/llmbench/internal"
	"github.com/llmbench/llmbench/provider"
	"github.com/maruel/httpjson"
	"github.com/maruel/roundtrippers"
)

// ChatRequest is the wire request body of the OpenAI-compatible chat completions endpoint.
type ChatRequest struct {
	Model       string    `json:"model,omitzero"`
	Messages    []Message `json:"messages"`
	MaxTokens   int64     `json:"max_tokens,omitzero"`
	Stop        []string  `json:"stop,omitzero"`
	Stream      bool      `json:"stream,omitzero"`
	Temperature float64   `json:"temperature,omitzero"`
	TopP        float64   `json:"top_p,omitzero"`
}

// Message is one chat turn. This module only ever sends a single user message, since
// provider.CompletionRequest carries one flat prompt rather than a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the wire response body of a non-streaming chat completion.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      Message      `json:"message"`
		FinishReason FinishReason `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// FinishReason is the wire-level finish reason string.
type FinishReason string

const (
	finishStop          FinishReason = "stop"
	finishLength        FinishReason = "length"
	finishContentFilter FinishReason = "content_filter"
	finishToolCalls     FinishReason = "tool_calls"
)

func (f FinishReason) toProvider() provider.FinishReason {
	switch f {
	case finishStop:
		return provider.FinishStop
	case finishLength:
		return provider.FinishLength
	case finishContentFilter:
		return provider.FinishContentFilter
	case finishToolCalls:
		return provider.FinishToolCall
	default:
		return provider.FinishStop
	}
}

// Usage is the wire-level token accounting block.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

func (u Usage) toProvider() provider.Usage {
	return provider.Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens, TotalTokens: u.TotalTokens}
}

// ChatStreamChunk is one server-sent-event data payload of a streaming chat completion.
type ChatStreamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason FinishReason `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// ErrorResponse is kept as loose as possible since error bodies are highly non-standard across
// OpenAI-compatible backends.
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (er *ErrorResponse) String() string {
	if er.Error.Message != "" {
		return er.Error.Message
	}
	return fmt.Sprintf("%#v", er)
}

// Client is a provider.Provider backed by an OpenAI-compatible HTTP endpoint. It only supports
// plain-text completions: no tool calls, no multi-modal content.
type Client struct {
	provider.Base[*ErrorResponse]
	chatURL string
	models  []provider.ModelInfo
}

var _ provider.Provider = (*Client)(nil)

// New creates a client talking to an OpenAI-compatible "/chat/completions" endpoint.
//
// h carries static headers, typically Authorization. r is the base transport and defaults to
// http.DefaultTransport; it is wrapped with request-ID tagging, transport-level retry and
// structured logging, matching the teacher's layering of roundtrippers.
func New(chatURL string, h http.Header, models []provider.ModelInfo, r http.RoundTripper) *Client {
	if r == nil {
		r = http.DefaultTransport
	}
	transport := internal.LogTransport(&roundtrippers.Header{
		Header: h,
		Transport: &internal.Retryable{
			RetryCount: 3,
			Transport:  &roundtrippers.RequestID{Transport: r},
		},
	})
	return &Client{
		Base: provider.Base[*ErrorResponse]{
			ProviderName: "openaicompatible",
			ClientJSON:   httpjson.Client{Client: &http.Client{Transport: transport}, Lenient: true},
		},
		chatURL: chatURL,
		models:  models,
	}
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
	if c.chatURL == "" {
		return &provider.Error{Kind: provider.ErrInvalidRequest, Provider: c.Name(), Msg: "chat URL must not be empty"}
	}
	return nil
}

// EstimateTokens uses the character/4 heuristic, a reasonable approximation absent a real
// tokenizer for an arbitrary OpenAI-compatible backend.
func (c *Client) EstimateTokens(text string, model string) int64 {
	return int64(len(text)+3) / 4
}

func toWireRequest(req provider.CompletionRequest, stream bool) *ChatRequest {
	return &ChatRequest{
		Model:       req.Model,
		Messages:    []Message{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
		Stream:      stream,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
}

func (c *Client) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	in := toWireRequest(req, false)
	var out ChatResponse
	if err := c.DoRequest(ctx, "POST", c.chatURL, in, &out); err != nil {
		return provider.CompletionResponse{}, err
	}
	if len(out.Choices) == 0 {
		return provider.CompletionResponse{}, &provider.Error{Kind: provider.ErrInvalidResponse, Provider: c.Name(), Msg: "response had no choices"}
	}
	ch := out.Choices[0]
	return provider.CompletionResponse{
		ID:           out.ID,
		Content:      ch.Message.Content,
		Model:        out.Model,
		Usage:        out.Usage.toProvider(),
		FinishReason: ch.FinishReason.toProvider(),
	}, nil
}

// sseStream adapts the server-sent-event "data: {json}" framing used by OpenAI-compatible
// streaming endpoints into a provider.Stream of text fragments.
type sseStream struct {
	body    interface{ Close() error }
	scanner *bufio.Scanner
	result  provider.CompletionResponse
}

func (s *sseStream) Next() (string, bool, error) {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return "", false, nil
		}
		var chunk ChatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", false, fmt.Errorf("openaicompatible: decoding stream chunk: %w", err)
		}
		if chunk.Usage.TotalTokens != 0 {
			s.result.Usage = chunk.Usage.toProvider()
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if fr := chunk.Choices[0].FinishReason; fr != "" {
			s.result.FinishReason = fr.toProvider()
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			return text, true, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", false, fmt.Errorf("openaicompatible: reading stream: %w", err)
	}
	return "", false, nil
}

func (s *sseStream) Close() error {
	return s.body.Close()
}

func (c *Client) Stream(ctx context.Context, req provider.CompletionRequest) (provider.Stream, error) {
	in := toWireRequest(req, true)
	resp, err := c.ClientJSON.Request(ctx, "POST", c.chatURL, nil, in)
	if err != nil {
		return nil, &provider.Error{Kind: provider.ErrNetwork, Provider: c.Name(), Msg: "stream request failed", Err: err}
	}
	if resp.StatusCode != 200 {
		return nil, c.DecodeError(ctx, c.chatURL, resp)
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &sseStream{body: resp.Body, scanner: scanner}, nil
}
