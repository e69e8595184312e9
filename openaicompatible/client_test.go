// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package openaicompatible

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/llmbench/llmbench/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Len(t, in.Messages, 1)
		assert.Equal(t, "user", in.Messages[0].Role)
		assert.Equal(t, "say hi", in.Messages[0].Content)
		_ = json.NewEncoder(w).Encode(ChatResponse{
			ID:    "resp-1",
			Model: "demo",
			Choices: []struct {
				Message      Message      `json:"message"`
				FinishReason FinishReason `json:"finish_reason"`
			}{{Message: Message{Role: "assistant", Content: "hi there"}, FinishReason: finishStop}},
			Usage: Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, []provider.ModelInfo{{ID: "demo", MaxContextLength: 4096}}, nil)
	resp, err := c.Complete(t.Context(), provider.CompletionRequest{Model: "demo", Prompt: "say hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, provider.FinishStop, resp.FinishReason)
	assert.Equal(t, int64(5), resp.Usage.TotalTokens)
}

func TestClient_Complete_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "rate limited"}})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil, nil)
	_, err := c.Complete(t.Context(), provider.CompletionRequest{Model: "demo", Prompt: "hi"})
	require.Error(t, err)
	var pe *provider.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, provider.ErrRateLimitExceeded, pe.Kind)
}

func TestClient_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []ChatStreamChunk{
			{Choices: []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason FinishReason `json:"finish_reason"`
			}{{Delta: struct {
				Content string `json:"content"`
			}{Content: "hel"}}}},
			{Choices: []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason FinishReason `json:"finish_reason"`
			}{{Delta: struct {
				Content string `json:"content"`
			}{Content: "lo"}, FinishReason: finishStop}}},
		}
		for _, c := range chunks {
			b, _ := json.Marshal(c)
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil, nil)
	s, err := c.Stream(t.Context(), provider.CompletionRequest{Model: "demo", Prompt: "hi", Stream: true})
	require.NoError(t, err)
	defer s.Close()

	var got string
	for {
		frag, ok, err := s.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got += frag
	}
	assert.Equal(t, "hello", got)
}
