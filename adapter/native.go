// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/llmbench/llmbench/dataset"
)

var recognizedSuffixes = []string{".json", ".yaml", ".yml"}

func isRecognized(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range recognizedSuffixes {
		if ext == s {
			return true
		}
	}
	return false
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Native is the adapter of §4.7 for repositories that lay out datasets the way this module's own
// fixtures do: flat files directly under "{base}/datasets/", one dataset per file, the filename
// stem as the dataset id.
type Native struct {
	base string
}

var _ RepositoryAdapter = (*Native)(nil)

// NewNative builds a Native adapter rooted at base. base need not exist yet; DiscoverDatasets
// reports an empty list rather than an error if "{base}/datasets/" is absent.
func NewNative(base string) *Native {
	return &Native{base: base}
}

func (a *Native) AdapterType() string {
	return "native"
}

func (a *Native) BasePath() string {
	return a.base
}

func (a *Native) datasetsDir() string {
	return filepath.Join(a.base, "datasets")
}

func (a *Native) DiscoverDatasets(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(a.datasetsDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &AdapterError{AdapterType: a.AdapterType(), BasePath: a.base, Err: err}
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isRecognized(e.Name()) {
			continue
		}
		out = append(out, stem(e.Name()))
	}
	return out, nil
}

func (a *Native) LoadDataset(ctx context.Context, id string) (*dataset.Dataset, error) {
	dir := a.datasetsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &AdapterError{AdapterType: a.AdapterType(), BasePath: a.base, DatasetID: id, Err: err}
	}
	for _, e := range entries {
		if e.IsDir() || !isRecognized(e.Name()) || stem(e.Name()) != id {
			continue
		}
		ds, err := dataset.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, &AdapterError{AdapterType: a.AdapterType(), BasePath: a.base, DatasetID: id, Err: err}
		}
		return ds, nil
	}
	return nil, &AdapterError{AdapterType: a.AdapterType(), BasePath: a.base, DatasetID: id, Err: fmt.Errorf("no dataset file matches id %q under %q", id, dir)}
}
