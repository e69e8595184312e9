// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/llmbench/llmbench/ollama"
	"github.com/llmbench/llmbench/openaicompatible"
	"github.com/llmbench/llmbench/provider"
	"github.com/llmbench/llmbench/providers/mock"
)

// buildProvider constructs a provider.Provider for a manifest-style "provider:model" name.
// "mock" never touches the network. Every other name is treated as an OpenAI-compatible REST
// backend, configured from "{PROVIDER}_API_KEY" and "{PROVIDER}_BASE_URL" environment variables,
// except "ollama", which speaks Ollama's own /api/generate protocol against OLLAMA_BASE_URL.
func buildProvider(name, model string) (provider.Provider, error) {
	switch name {
	case "mock":
		return mock.New(name, []provider.ModelInfo{{ID: model, SupportsStreaming: true}}, mock.Behavior{}), nil
	case "ollama":
		base := os.Getenv("OLLAMA_BASE_URL")
		if base == "" {
			base = "http://localhost:11434"
		}
		return ollama.New(base, model, 0), nil
	default:
		return buildOpenAICompatible(name, model)
	}
}

func buildOpenAICompatible(name, model string) (provider.Provider, error) {
	envPrefix := strings.ToUpper(name)
	base := os.Getenv(envPrefix + "_BASE_URL")
	if base == "" {
		return nil, fmt.Errorf("provider %q: %s_BASE_URL is not set", name, envPrefix)
	}
	key := os.Getenv(envPrefix + "_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("provider %q: %s_API_KEY is not set", name, envPrefix)
	}
	h := http.Header{"Authorization": []string{"Bearer " + key}}
	return openaicompatible.New(base, h, []provider.ModelInfo{{ID: model, SupportsStreaming: true}}, http.DefaultTransport), nil
}
