// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Command llmbench is a thin demonstration CLI wiring the core runner API to flags, per §6. It is
// not the CLI contract itself, only a working example of one: dataset path, provider:model list,
// concurrency, output directory, export formats, continue-on-failure, request delay and
// save-responses are all exposed directly as flags.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/llmbench/llmbench/dataset"
	"github.com/llmbench/llmbench/fleet"
	"github.com/llmbench/llmbench/runner"
	"github.com/llmbench/llmbench/store"
	"github.com/spf13/cobra"
)

type cliFlags struct {
	dataset           string
	providers         string
	concurrency       int
	outputDir         string
	formats           string
	continueOnFailure bool
	requestDelayMs    int64
	saveResponses     bool
	maxRetries        int
	testTimeoutMs     int64
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run builds and executes the cobra command, translating outcomes into the exit codes of §6:
// 0 (all succeeded), 1 (some failed but completed), 2 (aborted), 3+ (configuration/input errors).
func run(args []string) int {
	var f cliFlags
	exitCode := 0

	cmd := &cobra.Command{
		Use:          "llmbench",
		Short:        "Benchmark LLM providers against a dataset of prompts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := execute(cmd.Context(), f)
			exitCode = code
			return err
		},
	}
	cmd.Flags().StringVar(&f.dataset, "dataset", "", "path to a dataset JSON or YAML file")
	cmd.Flags().StringVar(&f.providers, "providers", "", "comma-separated provider:model pairs, e.g. \"ollama:llama3,mock:echo-1\"")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", runner.DefaultConcurrency, "maximum concurrent in-flight requests")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "./results", "directory for the incremental log and complete record")
	cmd.Flags().StringVar(&f.formats, "formats", "json", "comma-separated complete-record formats: json, yaml")
	cmd.Flags().BoolVar(&f.continueOnFailure, "continue-on-failure", true, "keep running after a test case fails")
	cmd.Flags().Int64Var(&f.requestDelayMs, "request-delay-ms", 0, "minimum pacing delay between request initiations")
	cmd.Flags().BoolVar(&f.saveResponses, "save-responses", true, "retain full provider responses in the incremental log")
	cmd.Flags().IntVar(&f.maxRetries, "max-retries", runner.DefaultMaxRetries, "retry attempts per test case beyond the first")
	cmd.Flags().Int64Var(&f.testTimeoutMs, "test-timeout-ms", 0, "per-test-case timeout in milliseconds; 0 means no cap")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("providers")
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		if exitCode == 0 {
			exitCode = 3
		}
		fmt.Fprintln(os.Stderr, "llmbench:", err)
	}
	return exitCode
}

func execute(ctx context.Context, f cliFlags) (int, error) {
	ds, err := dataset.Load(f.dataset)
	if err != nil {
		return 3, fmt.Errorf("loading dataset: %w", err)
	}

	exitCode := 0
	for _, pair := range strings.Split(f.providers, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		pname, model, err := fleet.ParseProviderModel(pair)
		if err != nil {
			return 3, err
		}
		p, err := buildProvider(pname, model)
		if err != nil {
			return 3, fmt.Errorf("constructing provider %q: %w", pair, err)
		}

		cfg := runner.Config{
			Concurrency:       f.concurrency,
			ContinueOnFailure: f.continueOnFailure,
			SaveResponses:     f.saveResponses,
			RequestDelayMs:    f.requestDelayMs,
			TestTimeoutMs:     f.testTimeoutMs,
			MaxRetries:        f.maxRetries,
		}
		rn := runner.New(p, pname, model, ds, cfg, f.outputDir)

		br, err := rn.Run(ctx)
		if err != nil {
			return 3, fmt.Errorf("running %s: %w", pair, err)
		}
		if err := saveRecords(br, f, pname, model); err != nil {
			return 3, err
		}

		switch {
		case br.Metadata.Partial:
			exitCode = max(exitCode, 2)
		case br.Summary.Failure > 0 || br.Summary.Timeout > 0:
			exitCode = max(exitCode, 1)
		}
	}
	return exitCode, nil
}

func saveRecords(br *store.BenchmarkResults, f cliFlags, providerName, model string) error {
	for _, format := range strings.Split(f.formats, ",") {
		format = strings.TrimSpace(format)
		recordFormat, ext := store.RecordJSON, ".json"
		switch format {
		case "json":
		case "yaml":
			recordFormat, ext = store.RecordYAML, ".yaml"
		default:
			continue
		}
		path := filepath.Join(f.outputDir, fmt.Sprintf("%s_%s%s", providerName, model, ext))
		if err := store.SaveRecord(br, path, recordFormat); err != nil {
			return fmt.Errorf("saving complete record for %s:%s: %w", providerName, model, err)
		}
	}
	return nil
}
