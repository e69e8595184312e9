// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RecordFormat is a complete-record serialization format.
type RecordFormat int

const (
	RecordJSON RecordFormat = iota
	RecordYAML
)

// SaveRecord writes the complete BenchmarkResults record to path in the given format, creating
// parent directories as needed. This is the "complete record" artifact of §4.4, written once a
// triple finishes, distinct from the incremental per-line log.
func SaveRecord(br *BenchmarkResults, path string, format RecordFormat) error {
	var b []byte
	var err error
	switch format {
	case RecordJSON:
		b, err = json.MarshalIndent(br, "", "  ")
	case RecordYAML:
		b, err = yaml.Marshal(br)
	default:
		return fmt.Errorf("store: unrecognized record format %d", format)
	}
	if err != nil {
		return fmt.Errorf("store: serializing record %q: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: creating directory for %q: %w", path, err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("store: writing %q: %w", path, err)
	}
	return nil
}

// LoadRecord reads a complete BenchmarkResults record, inferring format from the path suffix
// (.json, .yaml, .yml).
func LoadRecord(path string) (*BenchmarkResults, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: reading %q: %w", path, err)
	}
	var br BenchmarkResults
	switch ext := filepath.Ext(path); ext {
	case ".json":
		err = json.Unmarshal(b, &br)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &br)
	default:
		return nil, fmt.Errorf("store: unrecognized record file suffix %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("store: parsing %q: %w", path, err)
	}
	return &br, nil
}
