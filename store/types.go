// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package store is the result persistence layer: an append-only incremental log that survives
// mid-run failures, complete-record export in JSON/YAML, a CSV projection, and the percentile and
// cost aggregation used to build a ResultSummary.
package store

import (
	"time"

	"github.com/llmbench/llmbench/provider"
)

// Status is the terminal state of one TestResult.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailure Status = "Failure"
	StatusTimeout Status = "Timeout"
	StatusSkipped Status = "Skipped"
)

// TestResult is one completed (or abandoned) benchmark attempt. Exactly one of Response or Error
// is populated; Skipped has neither.
type TestResult struct {
	TestID     string                        `json:"test_id"`
	Status     Status                        `json:"status"`
	DurationMs int64                         `json:"duration_ms"`
	Response   *provider.CompletionResponse  `json:"response,omitempty"`
	Error      string                        `json:"error,omitempty"`
	StartedAt  time.Time                     `json:"started_at"`
	CostUSD    *float64                      `json:"cost_usd,omitempty"`
}

// ResultSummary is the per-(dataset, provider) aggregate over a sequence of TestResult.
type ResultSummary struct {
	Total       int     `json:"total"`
	Success     int     `json:"success"`
	Failure     int     `json:"failure"`
	Timeout     int     `json:"timeout"`
	Skipped     int     `json:"skipped"`
	SuccessRate float64 `json:"success_rate"`

	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`

	TotalPromptTokens     int64   `json:"total_prompt_tokens"`
	TotalCompletionTokens int64   `json:"total_completion_tokens"`
	TotalCostUSD          float64 `json:"total_cost_usd"`
}

// Summarize computes a ResultSummary over results, per §4.4's percentile and cost aggregation
// rules. Only Success results contribute latency samples, tokens and cost; every result
// contributes to the counts.
func Summarize(results []TestResult) ResultSummary {
	var s ResultSummary
	s.Total = len(results)
	latencies := make([]float64, 0, len(results))
	var durSum float64
	for i := range results {
		r := &results[i]
		switch r.Status {
		case StatusSuccess:
			s.Success++
			latencies = append(latencies, float64(r.DurationMs))
			durSum += float64(r.DurationMs)
			if r.Response != nil {
				s.TotalPromptTokens += r.Response.Usage.PromptTokens
				s.TotalCompletionTokens += r.Response.Usage.CompletionTokens
			}
			if r.CostUSD != nil {
				s.TotalCostUSD += *r.CostUSD
			}
		case StatusFailure:
			s.Failure++
		case StatusTimeout:
			s.Timeout++
		case StatusSkipped:
			s.Skipped++
		}
	}
	if s.Total > 0 {
		s.SuccessRate = float64(s.Success) / float64(s.Total)
	}
	if len(latencies) > 0 {
		s.AvgMs = durSum / float64(len(latencies))
	}
	sortFloats(latencies)
	s.P50Ms = Percentile(latencies, 50)
	s.P95Ms = Percentile(latencies, 95)
	s.P99Ms = Percentile(latencies, 99)
	return s
}

// RunMetadata captures the provenance of one BenchmarkResults record.
type RunMetadata struct {
	DatasetName    string         `json:"dataset_name"`
	ProviderName   string         `json:"provider_name"`
	Model          string         `json:"model"`
	RunTimestamp   time.Time      `json:"run_timestamp"`
	ConfigSnapshot map[string]any `json:"config_snapshot,omitempty"`
	// Partial is true when the triple was aborted early by continue_on_failure=false.
	Partial bool `json:"partial,omitempty"`
}

// BenchmarkResults is the complete record for one (dataset, provider, model) triple.
type BenchmarkResults struct {
	Metadata RunMetadata    `json:"metadata"`
	Results  []TestResult   `json:"results"`
	Summary  ResultSummary  `json:"summary"`
}
