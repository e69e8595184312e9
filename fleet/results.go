// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package fleet

import (
	"time"

	"github.com/llmbench/llmbench/store"
)

// TripleResult is the outcome of running one (repository, scenario, provider:model) triple.
// Exactly one of BenchmarkResults or Err is meaningful: Err records a triple-level fatal failure
// (adapter load failure, provider misconfiguration) that never reached the runner.
type TripleResult struct {
	RepoID       string `json:"repo_id"`
	Scenario     string `json:"scenario"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`

	BenchmarkResults *store.BenchmarkResults `json:"benchmark_results,omitempty"`
	Err              string                  `json:"error,omitempty"`
}

// Results is the complete record of one fleet run: every triple plus provider- and
// category-level rollups over all of them.
type Results struct {
	RunID     string    `json:"run_id"`
	FleetID   string    `json:"fleet_id"`
	StartedAt time.Time `json:"started_at"`

	Triples []TripleResult `json:"triples"`

	ByProvider map[string]store.ResultSummary `json:"by_provider"`
	ByCategory map[string]store.ResultSummary `json:"by_category"`
}

// rollups accumulates TestResult slices keyed by a rollup dimension (provider name or category)
// across every triple, so the final summary is computed once over the whole group rather than by
// averaging per-triple summaries.
type rollups struct {
	byKey map[string][]store.TestResult
}

func newRollups() *rollups {
	return &rollups{byKey: make(map[string][]store.TestResult)}
}

func (r *rollups) add(key string, results []store.TestResult) {
	r.byKey[key] = append(r.byKey[key], results...)
}

func (r *rollups) summarize() map[string]store.ResultSummary {
	out := make(map[string]store.ResultSummary, len(r.byKey))
	for key, results := range r.byKey {
		out[key] = store.Summarize(results)
	}
	return out
}
