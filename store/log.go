// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// AppendLog appends one serialized TestResult as a line-delimited JSON line to path, creating
// parent directories as needed and flushing the write before returning, per §4.4's
// append-after-each-record durability guarantee.
func AppendLog(result TestResult, path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: creating directory for %q: %w", path, err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: opening %q: %w", path, err)
	}
	defer f.Close()
	b, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("store: marshaling result %q: %w", result.TestID, err)
	}
	b = append(b, '\n')
	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("store: writing %q: %w", path, err)
	}
	return f.Sync()
}

// LoadLog reads path as a line-delimited sequence of TestResult. Blank lines are skipped
// silently; lines that fail to parse are skipped with a logged warning, not a fatal error, per
// §4.4's tolerant-reader contract. A nonexistent file returns an empty slice, not an error, since
// a fresh triple has no prior log to resume from.
func LoadLog(path string) ([]TestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: opening %q: %w", path, err)
	}
	defer f.Close()
	var out []TestResult
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var r TestResult
		if err := json.Unmarshal(line, &r); err != nil {
			slog.Warn("store: skipping unparseable log line", "path", path, "line", lineNo, "err", err)
			continue
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("store: reading %q: %w", path, err)
	}
	return out, nil
}

// MergeLogs loads each path in order and concatenates the results, per §4.4's merge contract: a
// simple ordered concatenation, with no deduplication of test_id across sources.
func MergeLogs(paths []string) ([]TestResult, error) {
	var out []TestResult
	for _, p := range paths {
		rs, err := LoadLog(p)
		if err != nil {
			return out, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

// CompletedTestIDs returns the set of test_id already present in the log at path, for the
// runner's resume-on-restart logic.
func CompletedTestIDs(path string) (map[string]struct{}, error) {
	results, err := LoadLog(path)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(results))
	for _, r := range results {
		ids[r.TestID] = struct{}{}
	}
	return ids, nil
}
