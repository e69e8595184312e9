// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	name   string
	models []ModelInfo
	caps   map[string]Capabilities
}

func (s *staticProvider) Name() string                        { return s.name }
func (s *staticProvider) SupportedModels() []ModelInfo         { return s.models }
func (s *staticProvider) ValidateConfig(context.Context) error { return nil }
func (s *staticProvider) EstimateTokens(string, string) int64  { return 0 }
func (s *staticProvider) Stream(context.Context, CompletionRequest) (Stream, error) {
	return nil, nil
}
func (s *staticProvider) Complete(context.Context, CompletionRequest) (CompletionResponse, error) {
	return CompletionResponse{}, nil
}
func (s *staticProvider) MaxContextLength(model string) (int64, bool) {
	for _, m := range s.models {
		if m.ID == model {
			return m.MaxContextLength, true
		}
	}
	return 0, false
}
func (s *staticProvider) Capabilities(model string) (Capabilities, bool) {
	c, ok := s.caps[model]
	return c, ok
}

func TestScoreboard_UsesCapabilityProviderWhenAvailable(t *testing.T) {
	p := &staticProvider{
		name:   "acme",
		models: []ModelInfo{{ID: "small", MaxContextLength: 4096}},
		caps:   map[string]Capabilities{"small": {Model: "small", MaxContextLength: 4096, SupportsTools: true}},
	}
	sb := NewScoreboard([]Provider{p})
	c, ok := sb.Lookup("acme", "small")
	require.True(t, ok)
	assert.True(t, c.SupportsTools)
	assert.Equal(t, 1, sb.Len())
}

func TestScoreboard_FallsBackToModelInfo(t *testing.T) {
	p := &staticProvider{
		name:   "acme",
		models: []ModelInfo{{ID: "big", MaxContextLength: 128000, SupportsStreaming: true}},
	}
	sb := NewScoreboard([]Provider{p})
	c, ok := sb.Lookup("acme", "big")
	require.True(t, ok)
	assert.Equal(t, int64(128000), c.MaxContextLength)
	assert.True(t, c.SupportsStreaming)

	_, ok = sb.Lookup("acme", "missing")
	assert.False(t, ok)
}
