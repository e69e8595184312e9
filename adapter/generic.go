// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/llmbench/llmbench/dataset"
)

// genericSearchDirs are tried, in order, relative to the adapter's base path.
var genericSearchDirs = []string{"", "data", "datasets", "benchmarks"}

// Generic is the adapter of §4.7 for repositories with no fixed convention: it searches a short
// list of candidate directories and auto-validates every candidate file before reporting it as
// available, so a directory full of unrelated JSON never surfaces as a false-positive dataset.
type Generic struct {
	base string
}

var _ RepositoryAdapter = (*Generic)(nil)

// NewGeneric builds a Generic adapter rooted at base.
func NewGeneric(base string) *Generic {
	return &Generic{base: base}
}

func (a *Generic) AdapterType() string {
	return "generic"
}

func (a *Generic) BasePath() string {
	return a.base
}

// candidates returns id -> absolute file path for every recognized, validatable file found across
// the search directories. Later directories never shadow an id already found in an earlier one.
func (a *Generic) candidates() map[string]string {
	found := make(map[string]string)
	for _, sub := range genericSearchDirs {
		dir := a.base
		if sub != "" {
			dir = filepath.Join(a.base, sub)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !isRecognized(e.Name()) {
				continue
			}
			id := stem(e.Name())
			if _, ok := found[id]; ok {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if _, err := dataset.Load(path); err != nil {
				continue
			}
			found[id] = path
		}
	}
	return found
}

func (a *Generic) DiscoverDatasets(ctx context.Context) ([]string, error) {
	c := a.candidates()
	out := make([]string, 0, len(c))
	for id := range c {
		out = append(out, id)
	}
	return out, nil
}

func (a *Generic) LoadDataset(ctx context.Context, id string) (*dataset.Dataset, error) {
	path, ok := a.candidates()[id]
	if !ok {
		return nil, &AdapterError{AdapterType: a.AdapterType(), BasePath: a.base, DatasetID: id, Err: fmt.Errorf("no validated dataset matches id %q", id)}
	}
	ds, err := dataset.Load(path)
	if err != nil {
		return nil, &AdapterError{AdapterType: a.AdapterType(), BasePath: a.base, DatasetID: id, Err: err}
	}
	return ds, nil
}
