// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package provider

// Capabilities is a static snapshot of what a provider/model pairing supports, analogous to a
// single row of a capability scoreboard. Modalities are always text-only in this module; the
// fields that matter here are context length, streaming and tool-call support.
type Capabilities struct {
	Model             string
	MaxContextLength  int64
	SupportsStreaming bool
	SupportsTools     bool
}

// CapabilityProvider is implemented by providers that can report a capability snapshot per model.
// It is optional: the fleet orchestrator type-asserts for it and, when absent, falls back to
// SupportedModels/MaxContextLength alone.
type CapabilityProvider interface {
	Capabilities(model string) (Capabilities, bool)
}

// Scoreboard collects Capabilities across every model a set of providers expose, keyed by
// "provider/model", for reporting or for a fleet manifest validation pass.
type Scoreboard struct {
	entries map[string]Capabilities
}

// NewScoreboard builds a Scoreboard from the given providers, calling Capabilities for each model
// a provider that implements CapabilityProvider reports, and a minimal snapshot derived from
// SupportedModels/MaxContextLength otherwise.
func NewScoreboard(providers []Provider) *Scoreboard {
	sb := &Scoreboard{entries: map[string]Capabilities{}}
	for _, p := range providers {
		cp, _ := p.(CapabilityProvider)
		for _, m := range p.SupportedModels() {
			key := p.Name() + "/" + m.ID
			if cp != nil {
				if c, ok := cp.Capabilities(m.ID); ok {
					sb.entries[key] = c
					continue
				}
			}
			sb.entries[key] = Capabilities{
				Model:             m.ID,
				MaxContextLength:  m.MaxContextLength,
				SupportsStreaming: m.SupportsStreaming,
			}
		}
	}
	return sb
}

// Lookup returns the capability snapshot for "provider/model", if known.
func (s *Scoreboard) Lookup(providerName, model string) (Capabilities, bool) {
	c, ok := s.entries[providerName+"/"+model]
	return c, ok
}

// Len returns the number of provider/model pairs tracked.
func (s *Scoreboard) Len() int {
	return len(s.entries)
}
