// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dataset is the validated schema for benchmark test suites: cases, shared defaults and
// reference answers.
package dataset

import (
	"errors"
	"fmt"

	"github.com/blang/semver"
)

// Defaults holds per-dataset generation defaults, overridable per TestCase.
type Defaults struct {
	Temperature float64  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int64    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TopP        float64  `json:"top_p,omitempty" yaml:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty" yaml:"stop,omitempty"`
}

// TestCase is one benchmark input: a prompt plus the metadata needed to render, dispatch and
// evaluate it.
type TestCase struct {
	ID        string            `json:"id" yaml:"id"`
	Category  string            `json:"category,omitempty" yaml:"category,omitempty"`
	Prompt    string            `json:"prompt" yaml:"prompt"`
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Expected  string            `json:"expected,omitempty" yaml:"expected,omitempty"`
	// References is an ordered list of substrings expected to appear in the response.
	References []string  `json:"references,omitempty" yaml:"references,omitempty"`
	Config     *Defaults `json:"config,omitempty" yaml:"config,omitempty"`
}

func (c *TestCase) validate() error {
	if c.ID == "" {
		return errors.New("test case: id must not be empty")
	}
	if c.Prompt == "" {
		return fmt.Errorf("test case %q: prompt must not be empty", c.ID)
	}
	if c.Config != nil {
		if err := validateDefaults(c.Config); err != nil {
			return fmt.Errorf("test case %q: %w", c.ID, err)
		}
	}
	return nil
}

// Dataset is an ordered suite of TestCase sharing a name, version and defaults.
type Dataset struct {
	Name        string     `json:"name" yaml:"name"`
	Version     string     `json:"version" yaml:"version"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Defaults    *Defaults  `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	TestCases   []TestCase `json:"test_cases" yaml:"test_cases"`
}

// Validate checks the structural invariants of §4.2: non-empty name, non-empty case list, unique
// case IDs, semver version, and in-range numeric fields. Validation is strictly syntactic; it does
// not judge whether prompts are semantically coherent.
func (d *Dataset) Validate() error {
	if d.Name == "" {
		return errors.New("dataset: name must not be empty")
	}
	if len(d.TestCases) == 0 {
		return fmt.Errorf("dataset %q: must have at least one test case", d.Name)
	}
	if _, err := semver.Parse(d.Version); err != nil {
		return fmt.Errorf("dataset %q: version %q is not valid semver: %w", d.Name, d.Version, err)
	}
	if d.Defaults != nil {
		if err := validateDefaults(d.Defaults); err != nil {
			return fmt.Errorf("dataset %q: %w", d.Name, err)
		}
	}
	seen := make(map[string]struct{}, len(d.TestCases))
	for i := range d.TestCases {
		c := &d.TestCases[i]
		if err := c.validate(); err != nil {
			return fmt.Errorf("dataset %q: %w", d.Name, err)
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("dataset %q: duplicate test case id %q", d.Name, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

func validateDefaults(d *Defaults) error {
	if d.Temperature < 0 || d.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", d.Temperature)
	}
	if d.MaxTokens < 0 {
		return fmt.Errorf("max_tokens %d must be positive when set", d.MaxTokens)
	}
	if d.TopP < 0 || d.TopP > 1 {
		return fmt.Errorf("top_p %v out of range [0, 1]", d.TopP)
	}
	return nil
}

// CaseByID returns the test case with the given id, and whether it was found.
func (d *Dataset) CaseByID(id string) (*TestCase, bool) {
	for i := range d.TestCases {
		if d.TestCases[i].ID == id {
			return &d.TestCases[i], true
		}
	}
	return nil, false
}
