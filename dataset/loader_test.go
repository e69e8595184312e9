// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip_JSON(t *testing.T) {
	d := validDataset()
	d.Description = "a smoke suite"
	d.Defaults = &Defaults{Temperature: 0.5, MaxTokens: 128, Stop: []string{"\n"}}
	path := filepath.Join(t.TempDir(), "ds.json")
	require.NoError(t, Save(&d, path, FormatJSON))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, d, *got)
}

func TestSaveLoadRoundTrip_YAML(t *testing.T) {
	d := validDataset()
	d.TestCases[0].Variables = map[string]string{"lang": "Go"}
	d.TestCases[0].References = []string{"func", "package"}
	path := filepath.Join(t.TempDir(), "ds.yaml")
	require.NoError(t, Save(&d, path, FormatYAML))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, d, *got)
}

func TestLoad_UnrecognizedSuffix(t *testing.T) {
	_, err := Load("dataset.txt")
	assert.Error(t, err)
}

func TestLoadFromDirectory_SkipsUnparseable(t *testing.T) {
	dir := t.TempDir()
	d := validDataset()
	require.NoError(t, Save(&d, filepath.Join(dir, "good.json"), FormatJSON))
	require.NoError(t, writeFile(filepath.Join(dir, "bad.json"), []byte("not json")))
	require.NoError(t, writeFile(filepath.Join(dir, "ignored.txt"), []byte("ignored")))

	got, err := LoadFromDirectory(dir)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "smoke", got[0].Name)
}
