// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package runner implements the bounded-concurrency benchmark dispatcher: it fans a dataset's
// test cases out against a provider under a concurrency gate, retries transient failures,
// persists every outcome to the incremental log as it completes, and emits a ResultSummary.
package runner

import "github.com/llmbench/llmbench/provider"

// Config is the Benchmark Runner's configuration, with the defaults of §4.5 as Go zero-value
// semantics: a zero Concurrency means "use DefaultConcurrency", not "run nothing".
type Config struct {
	// Concurrency is the maximum number of in-flight requests. Zero means DefaultConcurrency.
	Concurrency int
	// ContinueOnFailure, when false, transitions the runner to a draining state on the first
	// Failure: no new tasks are started, in-flight tasks complete, and the log is finalized.
	ContinueOnFailure bool
	// SaveResponses controls whether the full CompletionResponse is retained in the TestResult
	// written to the incremental log, as opposed to only the outcome metadata.
	SaveResponses bool
	// RequestDelayMs is the minimum pacing delay between request initiations, enforced via a
	// rate.Limiter. Zero disables pacing.
	RequestDelayMs int64
	// TestTimeoutMs bounds a single request's wall-clock duration. Zero means no cap.
	TestTimeoutMs int64
	// MaxRetries is the number of additional attempts after the first, per §4.3. Zero means
	// DefaultMaxRetries.
	MaxRetries int
	// RandomSeed is carried through configuration but neither checked nor consumed: the runner's
	// dataset-order initiation is already deterministic, and no shuffling is implemented, per
	// §4.5's own description of this field as reserved for future use.
	RandomSeed int64
}

const (
	// DefaultConcurrency is the concurrency bound applied when Config.Concurrency is zero.
	DefaultConcurrency = 5
	// DefaultMaxRetries is the retry count applied when Config.MaxRetries is zero.
	DefaultMaxRetries = 3
)

// WithDefaults returns a copy of c with a zero Concurrency and a zero MaxRetries replaced by
// DefaultConcurrency and DefaultMaxRetries. ContinueOnFailure and SaveResponses are left as set:
// their zero value is false, so a caller that wants either enabled sets it to true explicitly.
func (c Config) WithDefaults() Config {
	out := c
	if out.Concurrency == 0 {
		out.Concurrency = DefaultConcurrency
	}
	if out.MaxRetries == 0 {
		out.MaxRetries = DefaultMaxRetries
	}
	return out
}

// ProviderConfig names the provider/model pairing a BenchmarkRunner drives and the pricing used
// to estimate cost. It is a thin config surface, not a provider factory: callers construct the
// provider.Provider themselves and pass it to New.
type ProviderConfig struct {
	Name    string
	Model   string
	Pricing *provider.PricingTable
}
