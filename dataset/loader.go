// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a dataset serialization format.
type Format int

const (
	// FormatUnknown is an unrecognized format; used internally by inferFormat.
	FormatUnknown Format = iota
	FormatJSON
	FormatYAML
)

// LoadError wraps a failure to load a dataset file, naming the offending path.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("dataset: failed to load %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func inferFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// Load reads a Dataset from path, inferring the format (JSON or YAML) from the file suffix,
// parses it, and validates it.
func Load(path string) (*Dataset, error) {
	format := inferFormat(path)
	if format == FormatUnknown {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("unrecognized dataset file suffix %q", filepath.Ext(path))}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	var d Dataset
	switch format {
	case FormatJSON:
		err = json.Unmarshal(b, &d)
	case FormatYAML:
		err = yaml.Unmarshal(b, &d)
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}
	if err := d.Validate(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return &d, nil
}

// LoadFromDirectory recursively discovers dataset files with recognized suffixes (.json, .yaml,
// .yml) under dir. Files that fail to parse or validate are skipped with a logged warning rather
// than aborting the whole walk.
func LoadFromDirectory(dir string) ([]*Dataset, error) {
	var out []*Dataset
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if inferFormat(path) == FormatUnknown {
			return nil
		}
		ds, err := Load(path)
		if err != nil {
			slog.Warn("dataset: skipping unparseable file", "path", path, "err", err)
			return nil
		}
		out = append(out, ds)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: walking %q: %w", dir, err)
	}
	return out, nil
}

// Save serializes d to path in the given format. Both formats round-trip every field of Dataset.
func Save(d *Dataset, path string, format Format) error {
	if format == FormatUnknown {
		format = inferFormat(path)
	}
	var b []byte
	var err error
	switch format {
	case FormatJSON:
		b, err = json.MarshalIndent(d, "", "  ")
	case FormatYAML:
		b, err = yaml.Marshal(d)
	default:
		return errors.New("dataset: unrecognized format for save")
	}
	if err != nil {
		return fmt.Errorf("dataset: serializing %q: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataset: creating directory for %q: %w", path, err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("dataset: writing %q: %w", path, err)
	}
	return nil
}
