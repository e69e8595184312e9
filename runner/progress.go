// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package runner

import "github.com/llmbench/llmbench/store"

// ProgressSink receives the three lifecycle events a BenchmarkRunner emits per §4.5: a test
// starting, a test completing, and the run finishing. Implementations must be safe for concurrent
// use: Started and Completed are called from every worker goroutine.
type ProgressSink interface {
	// Started is called once a permit has been acquired for testID, immediately before pacing
	// and prompt rendering.
	Started(testID string)
	// Completed is called once testID's TestResult has been appended to the incremental log.
	Completed(testID string, status store.Status, durationMs int64)
	// Finished is called exactly once, after every worker has returned and the final summary has
	// been computed.
	Finished(summary store.ResultSummary)
}

// NopProgressSink discards every event. It is the default when a BenchmarkRunner is built without
// an explicit sink.
type NopProgressSink struct{}

func (NopProgressSink) Started(string)                             {}
func (NopProgressSink) Completed(string, store.Status, int64)      {}
func (NopProgressSink) Finished(store.ResultSummary)                {}
