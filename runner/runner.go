// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/llmbench/llmbench/dataset"
	"github.com/llmbench/llmbench/internal"
	"github.com/llmbench/llmbench/provider"
	"github.com/llmbench/llmbench/store"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// BenchmarkRunner dispatches a Dataset's test cases against a single Provider/model pairing under
// a bounded-concurrency gate, persisting every outcome to an incremental JSONL log as it
// completes so a killed run can resume where it left off.
type BenchmarkRunner struct {
	Provider     provider.Provider
	ProviderName string
	Model        string
	Dataset      *dataset.Dataset
	Config       Config
	OutputDir    string
	Pricing      *provider.PricingTable
	Sink         ProgressSink
}

// New builds a BenchmarkRunner with a NopProgressSink; set Sink afterward to observe progress.
func New(p provider.Provider, providerName, model string, ds *dataset.Dataset, cfg Config, outputDir string) *BenchmarkRunner {
	return &BenchmarkRunner{
		Provider:     p,
		ProviderName: providerName,
		Model:        model,
		Dataset:      ds,
		Config:       cfg,
		OutputDir:    outputDir,
		Sink:         NopProgressSink{},
	}
}

// logPath returns the incremental log path of §4.5: "{output_dir}/{provider}_{model}.jsonl".
func (r *BenchmarkRunner) logPath() string {
	return filepath.Join(r.OutputDir, fmt.Sprintf("%s_%s.jsonl", r.ProviderName, sanitizeForPath(r.Model)))
}

func sanitizeForPath(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			out = append(out, c)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}

// Run executes the six-step algorithm of §4.5: validate the dataset, open the incremental log and
// resume from it, dispatch every not-yet-completed test case under Config.Concurrency permits,
// retry transient failures through provider.CompleteWithRetry, append each outcome as it lands,
// and return the merged BenchmarkResults once every worker has returned.
//
// Run never returns an error for individual test case failures; those are recorded as
// store.StatusFailure results. It returns an error only for invariant violations: an invalid
// dataset or an unreadable/unwritable log path.
func (r *BenchmarkRunner) Run(ctx context.Context) (*store.BenchmarkResults, error) {
	if err := r.Dataset.Validate(); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	cfg := r.Config.WithDefaults()
	sink := r.Sink
	if sink == nil {
		sink = NopProgressSink{}
	}
	logPath := r.logPath()

	completed, err := store.CompletedTestIDs(logPath)
	if err != nil {
		return nil, fmt.Errorf("runner: resuming from log: %w", err)
	}

	sem := semaphore.NewWeighted(int64(cfg.Concurrency))
	var limiter *rate.Limiter
	if cfg.RequestDelayMs > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(cfg.RequestDelayMs)*time.Millisecond), 1)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	var logMu sync.Mutex
	var draining atomic.Bool

	for i := range r.Dataset.TestCases {
		tc := &r.Dataset.TestCases[i]
		if _, ok := completed[tc.ID]; ok {
			continue
		}
		if draining.Load() {
			break
		}
		if err := sem.Acquire(egCtx, 1); err != nil {
			break
		}
		eg.Go(func() error {
			defer sem.Release(1)
			if draining.Load() {
				return nil
			}
			sink.Started(tc.ID)

			workerCtx := internal.WithLogger(egCtx, internal.Logger(egCtx).With("test_id", tc.ID))
			if limiter != nil {
				if err := limiter.Wait(workerCtx); err != nil {
					return nil
				}
			}

			result := r.runOne(workerCtx, tc, cfg)

			logMu.Lock()
			appendErr := store.AppendLog(result, logPath)
			logMu.Unlock()
			if appendErr != nil {
				internal.Logger(workerCtx).Error("runner: appending result", "err", appendErr)
				return fmt.Errorf("appending result for %q: %w", tc.ID, appendErr)
			}

			sink.Completed(tc.ID, result.Status, result.DurationMs)
			if result.Status == store.StatusFailure && !cfg.ContinueOnFailure {
				draining.Store(true)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	all, err := store.LoadLog(logPath)
	if err != nil {
		return nil, fmt.Errorf("runner: loading final log: %w", err)
	}
	summary := store.Summarize(all)
	sink.Finished(summary)

	return &store.BenchmarkResults{
		Metadata: store.RunMetadata{
			DatasetName:  r.Dataset.Name,
			ProviderName: r.ProviderName,
			Model:        r.Model,
			RunTimestamp: time.Now().UTC(),
			Partial:      draining.Load() || len(all) < len(r.Dataset.TestCases),
		},
		Results: r.inDatasetOrder(all),
		Summary: summary,
	}, nil
}

// inDatasetOrder reorders log, keyed by test_id, to match r.Dataset's declared case order: the
// incremental log reflects completion order, but the complete record must preserve dataset order
// per §4.5. A test_id with no matching result (never attempted) is simply absent.
func (r *BenchmarkRunner) inDatasetOrder(log []store.TestResult) []store.TestResult {
	byID := make(map[string]store.TestResult, len(log))
	for _, res := range log {
		byID[res.TestID] = res
	}
	out := make([]store.TestResult, 0, len(r.Dataset.TestCases))
	for _, tc := range r.Dataset.TestCases {
		if res, ok := byID[tc.ID]; ok {
			out = append(out, res)
		}
	}
	return out
}

// runOne renders and dispatches a single test case, and never returns an error: every failure
// mode becomes a store.TestResult with a Failure or Timeout status, matching §4.5's edge-case
// requirement that a single test case's failure never aborts the run.
func (r *BenchmarkRunner) runOne(ctx context.Context, tc *dataset.TestCase, cfg Config) store.TestResult {
	startedAt := time.Now().UTC()
	start := time.Now()

	result := store.TestResult{TestID: tc.ID, StartedAt: startedAt}

	req, err := buildRequest(r.Dataset, tc, r.Model)
	if err != nil {
		result.Status = store.StatusFailure
		result.Error = err.Error()
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}

	reqCtx := ctx
	if cfg.TestTimeoutMs > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TestTimeoutMs)*time.Millisecond)
		defer cancel()
	}

	resp, err := provider.CompleteWithRetry(reqCtx, r.Provider, req, cfg.MaxRetries)
	result.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			result.Status = store.StatusTimeout
		} else {
			result.Status = store.StatusFailure
		}
		result.Error = err.Error()
		return result
	}

	result.Status = store.StatusSuccess
	if cfg.SaveResponses {
		result.Response = &resp
	} else {
		result.Response = &provider.CompletionResponse{Model: resp.Model, Usage: resp.Usage, FinishReason: resp.FinishReason}
	}
	if r.Pricing != nil {
		cost := r.Pricing.EstimateCost(r.ProviderName, r.Model, resp.Usage)
		result.CostUSD = &cost
	}
	return result
}
