// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package fleet

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/llmbench/llmbench/store"
	"gopkg.in/yaml.v3"
)

// WriteArtifacts writes the fleet-results.json (always), fleet-results.yaml (if m.Output requests
// it), and the three CSV breakdowns under "{outBase}/csv/", per §4.6's artifact layout. Per-triple
// incremental and complete-record files are written by each triple's own runner.Run; this only
// writes the fleet-level rollup artifacts.
func WriteArtifacts(m *Manifest, res *Results, outBase string) error {
	if err := os.MkdirAll(filepath.Join(outBase, "csv"), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling fleet-results.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outBase, "fleet-results.json"), b, 0o644); err != nil {
		return fmt.Errorf("writing fleet-results.json: %w", err)
	}

	if m.Output.HasFormat("yaml") {
		b, err := yaml.Marshal(res)
		if err != nil {
			return fmt.Errorf("marshaling fleet-results.yaml: %w", err)
		}
		if err := os.WriteFile(filepath.Join(outBase, "fleet-results.yaml"), b, 0o644); err != nil {
			return fmt.Errorf("writing fleet-results.yaml: %w", err)
		}
	}

	if err := writeFleetSummaryCSV(res, filepath.Join(outBase, "csv", "fleet-summary.csv")); err != nil {
		return err
	}
	if err := writeBreakdownCSV(res.ByProvider, "provider", filepath.Join(outBase, "csv", "provider-breakdown.csv")); err != nil {
		return err
	}
	if err := writeBreakdownCSV(res.ByCategory, "category", filepath.Join(outBase, "csv", "category-breakdown.csv")); err != nil {
		return err
	}
	return nil
}

var summaryColumns = []string{
	"total", "success", "failure", "timeout", "skipped", "success_rate",
	"avg_ms", "p50_ms", "p95_ms", "p99_ms",
	"total_prompt_tokens", "total_completion_tokens", "total_cost_usd",
}

func summaryCells(s store.ResultSummary) []string {
	return []string{
		strconv.Itoa(s.Total), strconv.Itoa(s.Success), strconv.Itoa(s.Failure), strconv.Itoa(s.Timeout), strconv.Itoa(s.Skipped),
		strconv.FormatFloat(s.SuccessRate, 'f', -1, 64),
		strconv.FormatFloat(s.AvgMs, 'f', -1, 64), strconv.FormatFloat(s.P50Ms, 'f', -1, 64),
		strconv.FormatFloat(s.P95Ms, 'f', -1, 64), strconv.FormatFloat(s.P99Ms, 'f', -1, 64),
		strconv.FormatInt(s.TotalPromptTokens, 10), strconv.FormatInt(s.TotalCompletionTokens, 10),
		strconv.FormatFloat(s.TotalCostUSD, 'f', -1, 64),
	}
}

func writeFleetSummaryCSV(res *Results, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"repo_id", "scenario", "provider", "model", "error"}, summaryColumns...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range res.Triples {
		row := []string{t.RepoID, t.Scenario, t.ProviderName, t.Model, t.Err}
		if t.BenchmarkResults != nil {
			row = append(row, summaryCells(t.BenchmarkResults.Summary)...)
		} else {
			row = append(row, make([]string, len(summaryColumns))...)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeBreakdownCSV(byKey map[string]store.ResultSummary, keyColumn, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{keyColumn}, summaryColumns...)); err != nil {
		return err
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.Write(append([]string{k}, summaryCells(byKey[k])...)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
