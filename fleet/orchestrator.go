// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package fleet

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/llmbench/llmbench/adapter"
	"github.com/llmbench/llmbench/dataset"
	"github.com/llmbench/llmbench/provider"
	"github.com/llmbench/llmbench/runner"
	"github.com/llmbench/llmbench/store"
)

// ProviderFactory constructs a provider.Provider for a "provider:model" pair resolved from the
// manifest. Credentials are read from the environment or an injected configuration object by the
// factory's own closure; the manifest never carries them, per §6.
type ProviderFactory func(providerName, model string) (provider.Provider, error)

// AdapterFactory constructs a RepositoryAdapter for a repository's declared adapter type and path.
type AdapterFactory func(adapterType, path string) (adapter.RepositoryAdapter, error)

// Orchestrator runs a Manifest's declared triples sequentially in declaration order, per §5's
// "across triples: sequential in manifest declaration order" guarantee.
type Orchestrator struct {
	// NewProvider is required; it resolves every "provider:model" manifest entry.
	NewProvider ProviderFactory
	// NewAdapter resolves a repository's adapter. Nil uses BuiltinAdapter.
	NewAdapter AdapterFactory
	// Sink receives every triple's runner progress events, if set.
	Sink runner.ProgressSink
}

// BuiltinAdapter resolves the two adapter types §4.7 ships: "native" and "generic".
func BuiltinAdapter(adapterType, path string) (adapter.RepositoryAdapter, error) {
	switch adapterType {
	case "native":
		return adapter.NewNative(path), nil
	case "generic":
		return adapter.NewGeneric(path), nil
	default:
		return nil, fmt.Errorf("fleet: unsupported adapter type %q", adapterType)
	}
}

func (o *Orchestrator) buildAdapter(repo Repository) (adapter.RepositoryAdapter, error) {
	factory := o.NewAdapter
	if factory == nil {
		factory = BuiltinAdapter
	}
	return factory(repo.Adapter, repo.Path)
}

// Execute runs every (repository × scenario × provider) triple declared in m, in declaration
// order, and returns the merged Results. now fixes the run's timestamp and is used to derive
// RunID; callers pass time.Now().UTC() in production and a fixed value in tests.
//
// Execute never returns an error for an individual triple's runtime failure; those are recorded
// on the corresponding TripleResult.Err. It returns an error only when the manifest itself is
// invalid, or when GlobalSettings.ContinueOnFailure is false and a triple-level fatal error (an
// adapter failing to load its dataset, a provider factory failing to construct a client) occurs.
func (o *Orchestrator) Execute(ctx context.Context, m *Manifest, now time.Time) (*Results, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	runID := RunID(m.FleetID, now)
	outBase := filepath.Join(m.Output.BaseDir, runID)

	var global GlobalSettings
	if m.GlobalSettings != nil {
		global = *m.GlobalSettings
	}

	res := &Results{RunID: runID, FleetID: m.FleetID, StartedAt: now}
	byProvider := newRollups()
	byCategory := newRollups()

	recordFatal := func(repo Repository, scenario string, err error) {
		for _, provStr := range m.Providers {
			pname, model, _ := ParseProviderModel(provStr)
			res.Triples = append(res.Triples, TripleResult{RepoID: repo.RepoID, Scenario: scenario, ProviderName: pname, Model: model, Err: err.Error()})
		}
	}

	var fatalErr error
repoLoop:
	for _, repo := range m.Repositories {
		ad, err := o.buildAdapter(repo)
		if err != nil {
			fatalErr = fmt.Errorf("fleet: repository %q: %w", repo.RepoID, err)
			recordFatal(repo, "", fatalErr)
			if !global.ContinueOnFailure {
				break repoLoop
			}
			continue
		}

		for _, scenarioName := range repo.Scenarios {
			profile := m.ScenarioProfiles[scenarioName]
			ds, err := ad.LoadDataset(ctx, profile.Dataset)
			if err != nil {
				fatalErr = fmt.Errorf("fleet: repository %q scenario %q: %w", repo.RepoID, scenarioName, err)
				recordFatal(repo, scenarioName, fatalErr)
				if !global.ContinueOnFailure {
					break repoLoop
				}
				continue
			}
			ds = truncate(ds, profile.NumExamples)
			categoryOf := make(map[string]string, len(ds.TestCases))
			for _, tc := range ds.TestCases {
				categoryOf[tc.ID] = tc.Category
			}

			for _, provStr := range m.Providers {
				pname, model, _ := ParseProviderModel(provStr)
				p, err := o.NewProvider(pname, model)
				if err != nil {
					res.Triples = append(res.Triples, TripleResult{RepoID: repo.RepoID, Scenario: scenarioName, ProviderName: pname, Model: model, Err: err.Error()})
					fatalErr = fmt.Errorf("fleet: provider %q: %w", provStr, err)
					if !global.ContinueOnFailure {
						break repoLoop
					}
					continue
				}
				if sb := provider.NewScoreboard([]provider.Provider{p}); sb.Len() > 0 {
					if _, ok := sb.Lookup(p.Name(), model); !ok {
						err := fmt.Errorf("fleet: provider %q does not list model %q", p.Name(), model)
						res.Triples = append(res.Triples, TripleResult{RepoID: repo.RepoID, Scenario: scenarioName, ProviderName: pname, Model: model, Err: err.Error()})
						fatalErr = err
						if !global.ContinueOnFailure {
							break repoLoop
						}
						continue
					}
				}

				cfg := runner.Config{
					Concurrency:       profile.Concurrency,
					ContinueOnFailure: global.ContinueOnFailure,
					SaveResponses:     true,
					RequestDelayMs:    profile.RequestDelayMs,
					TestTimeoutMs:     global.TestTimeoutMs,
					MaxRetries:        global.MaxRetries,
					RandomSeed:        global.RandomSeed,
				}
				outputDir := filepath.Join(outBase, repo.RepoID, fmt.Sprintf("%s_%s", pname, model), scenarioName)
				rn := runner.New(p, pname, model, ds, cfg, outputDir)
				if o.Sink != nil {
					rn.Sink = o.Sink
				}

				br, err := rn.Run(ctx)
				if err != nil {
					res.Triples = append(res.Triples, TripleResult{RepoID: repo.RepoID, Scenario: scenarioName, ProviderName: pname, Model: model, Err: err.Error()})
					fatalErr = fmt.Errorf("fleet: running %s/%s/%s: %w", repo.RepoID, scenarioName, provStr, err)
					if !global.ContinueOnFailure {
						break repoLoop
					}
					continue
				}

				res.Triples = append(res.Triples, TripleResult{RepoID: repo.RepoID, Scenario: scenarioName, ProviderName: pname, Model: model, BenchmarkResults: br})
				byProvider.add(pname, br.Results)
				for _, r := range br.Results {
					byCategory.add(categoryOf[r.TestID], []store.TestResult{r})
				}
			}
		}
	}

	res.ByProvider = byProvider.summarize()
	res.ByCategory = byCategory.summarize()

	if err := WriteArtifacts(m, res, outBase); err != nil {
		return res, fmt.Errorf("fleet: writing artifacts: %w", err)
	}
	if !global.ContinueOnFailure && fatalErr != nil {
		return res, fatalErr
	}
	return res, nil
}

func truncate(ds *dataset.Dataset, numExamples int) *dataset.Dataset {
	if numExamples <= 0 || numExamples >= len(ds.TestCases) {
		return ds
	}
	out := *ds
	out.TestCases = append([]dataset.TestCase(nil), ds.TestCases[:numExamples]...)
	return &out
}
