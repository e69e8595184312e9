// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package store

import (
	"encoding/csv"
	"io"
	"strconv"
)

// csvColumns is the fixed column order of §4.4's CSV export. It is never reordered or made
// configurable: column order is part of the contract consumers depend on.
var csvColumns = []string{
	"test_id", "category", "status", "duration_ms", "tokens", "cost_usd", "model",
	"prompt_length", "response_length", "prompt_tokens", "completion_tokens",
	"finish_reason", "error", "timestamp",
}

// CSVMeta supplies the per-test_id fields that are not carried on TestResult itself (category and
// the rendered prompt's length come from the dataset, not the result).
type CSVMeta struct {
	Category     string
	PromptLength int
}

// CSVOptions configures the CSV writer. The zero value is comma-delimited with a header row.
type CSVOptions struct {
	Delimiter rune
	NoHeader  bool
}

// WriteCSV writes results as the fixed-column tabular projection of §4.4 to w. meta supplies
// category and prompt_length for each test_id; a missing entry serializes both as empty. Quoting
// follows RFC 4180 via the standard library's encoding/csv, which already implements the exact
// quoting rule the contract calls for.
func WriteCSV(w io.Writer, results []TestResult, meta map[string]CSVMeta) error {
	return WriteCSVWithOptions(w, results, meta, CSVOptions{})
}

// WriteCSVWithOptions is WriteCSV with an explicit delimiter and header toggle.
func WriteCSVWithOptions(w io.Writer, results []TestResult, meta map[string]CSVMeta, opts CSVOptions) error {
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}
	if !opts.NoHeader {
		if err := cw.Write(csvColumns); err != nil {
			return err
		}
	}
	for i := range results {
		if err := cw.Write(csvRow(&results[i], meta)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r *TestResult, meta map[string]CSVMeta) []string {
	m := meta[r.TestID]
	row := make([]string, len(csvColumns))
	row[0] = r.TestID
	row[1] = m.Category
	row[2] = string(r.Status)
	row[3] = strconv.FormatInt(r.DurationMs, 10)
	if m.PromptLength > 0 {
		row[7] = strconv.Itoa(m.PromptLength)
	}
	if r.Response != nil {
		row[4] = strconv.FormatInt(r.Response.Usage.TotalTokens, 10)
		row[6] = r.Response.Model
		row[8] = strconv.Itoa(len(r.Response.Content))
		row[9] = strconv.FormatInt(r.Response.Usage.PromptTokens, 10)
		row[10] = strconv.FormatInt(r.Response.Usage.CompletionTokens, 10)
		row[11] = string(r.Response.FinishReason)
	}
	if r.CostUSD != nil {
		row[5] = strconv.FormatFloat(*r.CostUSD, 'f', -1, 64)
	}
	row[12] = r.Error
	if !r.StartedAt.IsZero() {
		row[13] = r.StartedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return row
}
