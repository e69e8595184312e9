// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ollama implements a provider.Provider for a local Ollama server.
//
// It is described at https://github.com/ollama/ollama/blob/main/docs/api.md
// and https://pkg.go.dev/github.com/ollama/ollama/api. Ollama streams newline-delimited JSON
// objects rather than server-sent events, which is why its Stream implementation differs from
// openaicompatible's.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/llmbench/llmbench/internal"
	"github.com/llmbench/llmbench/provider"
	"github.com/maruel/httpjson"
)

// CompletionRequest is the wire request body of Ollama's "/api/generate" endpoint.
//
// https://github.com/ollama/ollama/blob/main/docs/api.md#generate-a-completion
type CompletionRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	// https://github.com/ollama/ollama/blob/main/docs/modelfile.md#valid-parameters-and-values
	Options struct {
		Temperature float64  `json:"temperature,omitzero"`
		TopP        float64  `json:"top_p,omitzero"`
		NumPredict  int64    `json:"num_predict,omitzero"` // max tokens
		Stop        []string `json:"stop,omitzero"`
	} `json:"options,omitzero"`
	KeepAlive string `json:"keep_alive,omitzero"`
}

// CompletionResponse is the wire response body of a non-streaming "/api/generate" call.
//
// https://github.com/ollama/ollama/blob/main/docs/api.md#response
type CompletionResponse struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Response  string    `json:"response"`
	Done      bool      `json:"done"`
	// https://pkg.go.dev/github.com/ollama/ollama/api#Metrics
	PromptEvalCount int64 `json:"prompt_eval_count"`
	EvalCount       int64 `json:"eval_count"`
}

func (c *CompletionResponse) toProvider(model string) provider.CompletionResponse {
	return provider.CompletionResponse{
		Content: c.Response,
		Model:   model,
		Usage: provider.Usage{
			PromptTokens:     c.PromptEvalCount,
			CompletionTokens: c.EvalCount,
			TotalTokens:      c.PromptEvalCount + c.EvalCount,
		},
		FinishReason: provider.FinishStop,
		CreatedAt:    c.CreatedAt,
	}
}

// StreamChunk is one newline-delimited JSON object of a streaming "/api/generate" call. It shares
// the CompletionResponse shape; only Done and the token counters differ in meaning mid-stream.
type StreamChunk CompletionResponse

type errorResponse struct {
	Error string `json:"error"`
}

// Model is one entry of Ollama's "/api/tags" listing.
//
// https://pkg.go.dev/github.com/ollama/ollama/api#ListModelResponse
type Model struct {
	Name       string    `json:"name"`
	Model      string    `json:"model"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Details    struct {
		ParameterSize     string `json:"parameter_size"`
		QuantizationLevel string `json:"quantization_level"`
	} `json:"details"`
}

// Client is a provider.Provider backed by a local Ollama server. It carries no pricing: cost for
// its models comes from whatever provider.PricingTable the runner is given, which applies its
// default rate unless a zero Rate is registered for the model.
type Client struct {
	// ClientJSON is exported for testing replay purposes.
	ClientJSON httpjson.Client

	model   string
	baseURL string
	context int64
}

var (
	_ provider.Provider           = (*Client)(nil)
	_ provider.CapabilityProvider = (*Client)(nil)
)

// New creates a client talking to a local Ollama server at baseURL for the given model. contextLen
// is the model's context window if known; pass 0 if unknown.
//
// To use multiple models concurrently, create multiple clients.
func New(baseURL, model string, contextLen int64) *Client {
	return &Client{
		ClientJSON: httpjson.Client{Client: &http.Client{Transport: internal.LogTransport(http.DefaultTransport)}},
		baseURL:    baseURL,
		model:      model,
		context:    contextLen,
	}
}

func (c *Client) Name() string {
	return "ollama"
}

func (c *Client) SupportedModels() []provider.ModelInfo {
	return []provider.ModelInfo{{ID: c.model, Name: c.model, MaxContextLength: c.context, SupportsStreaming: true}}
}

func (c *Client) MaxContextLength(model string) (int64, bool) {
	if model != c.model || c.context == 0 {
		return 0, false
	}
	return c.context, true
}

func (c *Client) Capabilities(model string) (provider.Capabilities, bool) {
	if model != c.model {
		return provider.Capabilities{}, false
	}
	return provider.Capabilities{Model: model, MaxContextLength: c.context, SupportsStreaming: true}, true
}

func (c *Client) ValidateConfig(ctx context.Context) error {
	if c.model == "" {
		return &provider.Error{Kind: provider.ErrInvalidRequest, Provider: c.Name(), Msg: "a model is required"}
	}
	if _, err := c.ListModels(ctx); err != nil {
		return err
	}
	return nil
}

// EstimateTokens uses the character/4 heuristic, since Ollama does not expose a tokenizer over
// the network API.
func (c *Client) EstimateTokens(text string, model string) int64 {
	return int64(len(text)+3) / 4
}

func toWireRequest(model string, req provider.CompletionRequest, stream bool) *CompletionRequest {
	out := &CompletionRequest{Model: model, Prompt: req.Prompt, Stream: stream}
	out.Options.Temperature = req.Temperature
	out.Options.TopP = req.TopP
	out.Options.NumPredict = req.MaxTokens
	out.Options.Stop = req.Stop
	return out
}

func (c *Client) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	in := toWireRequest(model, req, false)
	var out CompletionResponse
	if err := c.post(ctx, c.baseURL+"/api/generate", in, &out); err != nil {
		if isModelMissing(err) {
			if perr := c.PullModel(ctx, model); perr != nil {
				return provider.CompletionResponse{}, fmt.Errorf("pulling model %q: %w", model, perr)
			}
			if err = c.post(ctx, c.baseURL+"/api/generate", in, &out); err != nil {
				return provider.CompletionResponse{}, err
			}
		} else {
			return provider.CompletionResponse{}, err
		}
	}
	return out.toProvider(model), nil
}

type ollamaStream struct {
	body   interface{ Close() error }
	reader *bufio.Reader
	model  string
	result provider.CompletionResponse
}

func (s *ollamaStream) Next() (string, bool, error) {
	for {
		line, err := s.reader.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err != nil {
				return "", false, nil
			}
			continue
		}
		var chunk StreamChunk
		d := json.NewDecoder(bytes.NewReader(line))
		if derr := d.Decode(&chunk); derr != nil {
			return "", false, fmt.Errorf("ollama: decoding stream line %q: %w", line, derr)
		}
		if chunk.Done {
			s.result = (*CompletionResponse)(&chunk).toProvider(s.model)
			if chunk.Response != "" {
				return chunk.Response, true, nil
			}
			return "", false, nil
		}
		if chunk.Response != "" {
			return chunk.Response, true, nil
		}
		if err != nil {
			return "", false, nil
		}
	}
}

func (s *ollamaStream) Close() error {
	return s.body.Close()
}

func (c *Client) Stream(ctx context.Context, req provider.CompletionRequest) (provider.Stream, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	in := toWireRequest(model, req, true)
	resp, err := c.ClientJSON.Request(ctx, "POST", c.baseURL+"/api/generate", nil, in)
	if err != nil {
		return nil, &provider.Error{Kind: provider.ErrNetwork, Provider: c.Name(), Msg: "stream request failed", Err: err}
	}
	if resp.StatusCode != 200 {
		return nil, c.decodeError(ctx, resp)
	}
	return &ollamaStream{body: resp.Body, reader: bufio.NewReader(resp.Body), model: model}, nil
}

// ListModels returns the models currently pulled on the Ollama server.
//
// https://github.com/ollama/ollama/blob/main/docs/api.md#list-local-models
func (c *Client) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	var out struct {
		Models []Model `json:"models"`
	}
	if err := c.ClientJSON.Get(ctx, c.baseURL+"/api/tags", nil, &out); err != nil {
		return nil, &provider.Error{Kind: provider.ErrNetwork, Provider: c.Name(), Msg: "listing models", Err: err}
	}
	models := make([]provider.ModelInfo, len(out.Models))
	for i := range out.Models {
		models[i] = provider.ModelInfo{ID: out.Models[i].Name, Name: out.Models[i].Name}
	}
	return models, nil
}

type pullModelRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type pullModelResponse struct {
	Status string `json:"status"`
}

// PullModel is the equivalent of "ollama pull".
func (c *Client) PullModel(ctx context.Context, model string) error {
	in := pullModelRequest{Model: model}
	var out pullModelResponse
	if err := c.post(ctx, c.baseURL+"/api/pull", &in, &out); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	} else if out.Status != "success" {
		return fmt.Errorf("pull failed: %s", out.Status)
	}
	return nil
}

func isModelMissing(err error) bool {
	return strings.Contains(err.Error(), "not found, try pulling it first")
}

func (c *Client) post(ctx context.Context, url string, in, out any) error {
	resp, err := c.ClientJSON.PostRequest(ctx, url, nil, in)
	if err != nil {
		return &provider.Error{Kind: provider.ErrNetwork, Provider: c.Name(), Msg: "request failed", Err: err}
	}
	er := errorResponse{}
	switch i, err := httpjson.DecodeResponse(resp, out, &er); i {
	case 0:
		return nil
	case 1:
		return &provider.Error{Kind: classifyOllamaError(er.Error), Provider: c.Name(), Msg: er.Error}
	default:
		return &provider.Error{Kind: provider.ErrInvalidResponse, Provider: c.Name(), Msg: "decoding response", Err: err}
	}
}

func (c *Client) decodeError(ctx context.Context, resp *http.Response) error {
	er := errorResponse{}
	_, err := httpjson.DecodeResponse(resp, &struct{}{}, &er)
	if err != nil && er.Error == "" {
		return &provider.Error{Kind: provider.ErrAPI, Provider: c.Name(), StatusCode: resp.StatusCode, Msg: "request failed", Err: err}
	}
	return &provider.Error{Kind: classifyOllamaError(er.Error), Provider: c.Name(), StatusCode: resp.StatusCode, Msg: er.Error}
}

func classifyOllamaError(msg string) provider.ErrorKind {
	if isModelMissing(errors.New(msg)) {
		return provider.ErrModelNotAvailable
	}
	return provider.ErrAPI
}
