// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package fleet composes the Benchmark Runner across many (repository × scenario × provider)
// triples declared in a manifest, per §4.6. The orchestrator owns run identity, artifact layout,
// and the per-provider/per-category rollups; each triple's actual execution is delegated to
// package runner.
package fleet

import (
	"errors"
	"fmt"
	"strings"
)

// ManifestVersion is the only schema version this package understands.
const ManifestVersion = "1.0"

// Repository declares one codebase a fleet run benchmarks against.
type Repository struct {
	RepoID    string            `json:"repo_id" yaml:"repo_id"`
	Path      string            `json:"path" yaml:"path"`
	Adapter   string            `json:"adapter" yaml:"adapter"`
	Scenarios []string          `json:"scenarios" yaml:"scenarios"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ScenarioProfile names a dataset and the runner settings a scenario dispatches with.
type ScenarioProfile struct {
	Dataset        string         `json:"dataset" yaml:"dataset"`
	Concurrency    int            `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	NumExamples    int            `json:"num_examples,omitempty" yaml:"num_examples,omitempty"`
	RequestDelayMs int64          `json:"request_delay_ms,omitempty" yaml:"request_delay_ms,omitempty"`
	Settings       map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Output declares where a fleet run's artifacts are written.
type Output struct {
	BaseDir string   `json:"base_dir" yaml:"base_dir"`
	Formats []string `json:"formats,omitempty" yaml:"formats,omitempty"`
}

// HasFormat reports whether name ("json" or "yaml") is in Formats. An empty Formats list means
// "json" only, the always-written artifact.
func (o Output) HasFormat(name string) bool {
	if name == "json" && len(o.Formats) == 0 {
		return true
	}
	for _, f := range o.Formats {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// GlobalSettings are manifest-level defaults applied to every triple's runner.Config, overridable
// per scenario profile where the profile declares the same concern.
type GlobalSettings struct {
	ContinueOnFailure bool  `json:"continue_on_failure,omitempty" yaml:"continue_on_failure,omitempty"`
	RandomSeed        int64 `json:"random_seed,omitempty" yaml:"random_seed,omitempty"`
	TestTimeoutMs     int64 `json:"test_timeout_ms,omitempty" yaml:"test_timeout_ms,omitempty"`
	MaxRetries        int   `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
}

// Manifest is the fleet schema of §4.6.
type Manifest struct {
	FleetID          string                     `json:"fleet_id" yaml:"fleet_id"`
	Version          string                     `json:"version" yaml:"version"`
	Description      string                     `json:"description,omitempty" yaml:"description,omitempty"`
	Repositories     []Repository               `json:"repositories" yaml:"repositories"`
	Providers        []string                   `json:"providers" yaml:"providers"`
	ScenarioProfiles map[string]ScenarioProfile `json:"scenario_profiles" yaml:"scenario_profiles"`
	Output           Output                     `json:"output" yaml:"output"`
	GlobalSettings   *GlobalSettings            `json:"global_settings,omitempty" yaml:"global_settings,omitempty"`
}

// Validate checks the structural invariants of §4.6: every repository's scenarios resolve in
// scenario_profiles, every provider string parses as exactly one "provider:model" pair, every ID
// is non-empty, and the version is exactly "1.0".
func (m *Manifest) Validate() error {
	if m.FleetID == "" {
		return errors.New("fleet manifest: fleet_id must not be empty")
	}
	if m.Version != ManifestVersion {
		return fmt.Errorf("fleet manifest %q: version %q must equal %q", m.FleetID, m.Version, ManifestVersion)
	}
	if len(m.Repositories) == 0 {
		return fmt.Errorf("fleet manifest %q: must declare at least one repository", m.FleetID)
	}
	if len(m.Providers) == 0 {
		return fmt.Errorf("fleet manifest %q: must declare at least one provider", m.FleetID)
	}
	for _, p := range m.Providers {
		if _, _, err := ParseProviderModel(p); err != nil {
			return fmt.Errorf("fleet manifest %q: %w", m.FleetID, err)
		}
	}
	if m.Output.BaseDir == "" {
		return fmt.Errorf("fleet manifest %q: output.base_dir must not be empty", m.FleetID)
	}
	seenRepos := make(map[string]struct{}, len(m.Repositories))
	for _, repo := range m.Repositories {
		if repo.RepoID == "" {
			return fmt.Errorf("fleet manifest %q: repository path %q has an empty repo_id", m.FleetID, repo.Path)
		}
		if _, ok := seenRepos[repo.RepoID]; ok {
			return fmt.Errorf("fleet manifest %q: duplicate repo_id %q", m.FleetID, repo.RepoID)
		}
		seenRepos[repo.RepoID] = struct{}{}
		if repo.Path == "" {
			return fmt.Errorf("fleet manifest %q: repository %q has an empty path", m.FleetID, repo.RepoID)
		}
		if len(repo.Scenarios) == 0 {
			return fmt.Errorf("fleet manifest %q: repository %q declares no scenarios", m.FleetID, repo.RepoID)
		}
		for _, s := range repo.Scenarios {
			if s == "" {
				return fmt.Errorf("fleet manifest %q: repository %q has an empty scenario name", m.FleetID, repo.RepoID)
			}
			if _, ok := m.ScenarioProfiles[s]; !ok {
				return fmt.Errorf("fleet manifest %q: repository %q references undeclared scenario_profile %q", m.FleetID, repo.RepoID, s)
			}
		}
	}
	for name, prof := range m.ScenarioProfiles {
		if prof.Dataset == "" {
			return fmt.Errorf("fleet manifest %q: scenario_profile %q has an empty dataset", m.FleetID, name)
		}
	}
	return nil
}

// ParseProviderModel splits a manifest "provider:model" string into its two parts.
func ParseProviderModel(s string) (providerName, model string, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("provider entry %q must be exactly one colon-separated \"provider:model\" pair", s)
	}
	return parts[0], parts[1], nil
}
