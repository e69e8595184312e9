// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package runner

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/llmbench/llmbench/dataset"
	"github.com/llmbench/llmbench/provider"
	"github.com/llmbench/llmbench/providers/mock"
	"github.com/llmbench/llmbench/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smokeDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Name:    "smoke",
		Version: "1.0.0",
		TestCases: []dataset.TestCase{
			{ID: "t1", Prompt: "Hello {{name}}", Variables: map[string]string{"name": "world"}},
			{ID: "t2", Prompt: "Second case"},
			{ID: "t3", Prompt: "Third case"},
		},
	}
}

type recordingSink struct {
	mu        sync.Mutex
	started   []string
	completed []string
	finished  *store.ResultSummary
}

func (s *recordingSink) Started(testID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, testID)
}

func (s *recordingSink) Completed(testID string, status store.Status, durationMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, testID)
}

func (s *recordingSink) Finished(summary store.ResultSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = &summary
}

func TestRunner_Run_AllSucceed(t *testing.T) {
	p := mock.New("mock", []provider.ModelInfo{{ID: "echo-1"}}, mock.Behavior{})
	ds := smokeDataset()
	sink := &recordingSink{}
	r := New(p, "mock", "echo-1", ds, Config{Concurrency: 2}, t.TempDir())
	r.Sink = sink

	br, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, br.Summary.Total)
	assert.Equal(t, 3, br.Summary.Success)
	assert.False(t, br.Metadata.Partial)
	assert.Len(t, sink.started, 3)
	assert.Len(t, sink.completed, 3)
	require.NotNil(t, sink.finished)
	assert.Equal(t, 3, sink.finished.Success)

	var rendered string
	for _, res := range br.Results {
		if res.TestID == "t1" {
			rendered = res.Response.Content
		}
	}
	assert.Equal(t, "Hello world", rendered)
}

func TestRunner_Run_StopsOnFailureWhenNotContinuing(t *testing.T) {
	p := mock.New("mock", []provider.ModelInfo{{ID: "echo-1"}}, mock.Behavior{
		FailuresBeforeSuccess: 100,
		Err:                   &provider.Error{Kind: provider.ErrInvalidRequest, Provider: "mock", Msg: "bad request"},
	})
	ds := smokeDataset()
	r := New(p, "mock", "echo-1", ds, Config{Concurrency: 1, ContinueOnFailure: false}, t.TempDir())

	br, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, br.Summary.Failure)
	assert.True(t, br.Metadata.Partial)
	assert.Less(t, br.Summary.Total, 3)
}

func TestRunner_Run_ContinuesOnFailureWhenEnabled(t *testing.T) {
	p := mock.New("mock", []provider.ModelInfo{{ID: "echo-1"}}, mock.Behavior{
		FailuresBeforeSuccess: 100,
		Err:                   &provider.Error{Kind: provider.ErrInvalidRequest, Provider: "mock", Msg: "bad request"},
	})
	ds := smokeDataset()
	r := New(p, "mock", "echo-1", ds, Config{Concurrency: 2, ContinueOnFailure: true}, t.TempDir())

	br, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, br.Summary.Total)
	assert.Equal(t, 3, br.Summary.Failure)
}

func TestRunner_Run_ResumesFromExistingLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "mock_echo-1.jsonl")
	require.NoError(t, store.AppendLog(store.TestResult{TestID: "t1", Status: store.StatusSuccess, StartedAt: time.Now()}, logPath))

	p := mock.New("mock", []provider.ModelInfo{{ID: "echo-1"}}, mock.Behavior{})
	ds := smokeDataset()
	r := New(p, "mock", "echo-1", ds, Config{Concurrency: 2}, dir)

	br, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, br.Summary.Total)
	assert.Equal(t, int64(2), p.Calls())
}

func TestRunner_Run_RetriesThenSucceeds(t *testing.T) {
	p := mock.New("mock", []provider.ModelInfo{{ID: "echo-1"}}, mock.Behavior{FailuresBeforeSuccess: 2})
	ds := &dataset.Dataset{Name: "d", Version: "1.0.0", TestCases: []dataset.TestCase{{ID: "t1", Prompt: "hi"}}}
	r := New(p, "mock", "echo-1", ds, Config{Concurrency: 1, MaxRetries: 3}, t.TempDir())

	br, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, br.Summary.Success)
	assert.Equal(t, int64(3), p.Calls())
}

func TestRunner_Run_TemplateErrorIsFailureNotPanic(t *testing.T) {
	p := mock.New("mock", []provider.ModelInfo{{ID: "echo-1"}}, mock.Behavior{})
	ds := &dataset.Dataset{Name: "d", Version: "1.0.0", TestCases: []dataset.TestCase{{ID: "t1", Prompt: "{{missing}}", Variables: map[string]string{"other": "x"}}}}
	r := New(p, "mock", "echo-1", ds, Config{}, t.TempDir())

	br, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, br.Results, 1)
	assert.Equal(t, store.StatusFailure, br.Results[0].Status)
	assert.Contains(t, br.Results[0].Error, "missing")
}

func TestRunner_Run_TimesOutLongRunningCase(t *testing.T) {
	p := mock.New("mock", []provider.ModelInfo{{ID: "echo-1"}}, mock.Behavior{Latency: 50 * time.Millisecond})
	ds := &dataset.Dataset{Name: "d", Version: "1.0.0", TestCases: []dataset.TestCase{{ID: "t1", Prompt: "hi"}}}
	r := New(p, "mock", "echo-1", ds, Config{TestTimeoutMs: 5}, t.TempDir())

	br, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, br.Results, 1)
	assert.Equal(t, store.StatusTimeout, br.Results[0].Status)
}

func TestRunner_Run_EstimatesCostWhenPricingSet(t *testing.T) {
	p := mock.New("mock", []provider.ModelInfo{{ID: "echo-1"}}, mock.Behavior{})
	ds := &dataset.Dataset{Name: "d", Version: "1.0.0", TestCases: []dataset.TestCase{{ID: "t1", Prompt: "hi there"}}}
	pricing := provider.NewPricingTable(nil)
	pricing.Set("mock", "echo-1", provider.Rate{PerKPrompt: 1, PerKCompletion: 1})
	r := New(p, "mock", "echo-1", ds, Config{}, t.TempDir())
	r.Pricing = pricing

	br, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, br.Results[0].CostUSD)
	assert.Greater(t, *br.Results[0].CostUSD, 0.0)
}
