// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package adapter locates and loads datasets from a repository checkout, per §4.7. Adapters
// contain no business logic beyond discovery and path resolution; loading and validation are
// delegated to the dataset package.
package adapter

import (
	"context"
	"fmt"

	"github.com/llmbench/llmbench/dataset"
)

// RepositoryAdapter discovers and loads datasets rooted at a single path.
type RepositoryAdapter interface {
	// AdapterType names the adapter implementation, e.g. "native" or "generic".
	AdapterType() string
	// DiscoverDatasets returns the IDs of every dataset this adapter can locate.
	DiscoverDatasets(ctx context.Context) ([]string, error)
	// LoadDataset resolves id to a file and loads it, or returns an *AdapterError.
	LoadDataset(ctx context.Context, id string) (*dataset.Dataset, error)
	// BasePath returns the repository root this adapter was constructed against.
	BasePath() string
}

// AdapterError reports a repository-adapter-scoped failure: the dataset id and base path are
// attached so a fleet-level failure log can point at the offending repository.
type AdapterError struct {
	AdapterType string
	BasePath    string
	DatasetID   string
	Err         error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter(%s, %s): dataset %q: %v", e.AdapterType, e.BasePath, e.DatasetID, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
