// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package runner

import (
	"github.com/llmbench/llmbench/dataset"
	"github.com/llmbench/llmbench/provider"
	"github.com/llmbench/llmbench/template"
)

// defaultTemperature is applied when neither the test case nor the dataset sets one.
const defaultTemperature = 0.7

// buildRequest renders tc's prompt against its variables and merges its generation parameters
// over the dataset's defaults over the system defaults, per §4.5: test case config takes
// precedence, then dataset defaults, then the system default temperature.
//
// Rendering is strict only when tc declares a variables map at all (§4.1): a case with no
// variables field is sent verbatim, placeholders and all, rather than failing on them.
func buildRequest(ds *dataset.Dataset, tc *dataset.TestCase, model string) (provider.CompletionRequest, error) {
	prompt := tc.Prompt
	if tc.Variables != nil {
		rendered, err := template.Render(tc.Prompt, tc.Variables)
		if err != nil {
			return provider.CompletionRequest{}, err
		}
		prompt = rendered
	}
	req := provider.CompletionRequest{
		Model:       model,
		Prompt:      prompt,
		Temperature: defaultTemperature,
	}
	apply := func(d *dataset.Defaults) {
		if d == nil {
			return
		}
		if d.Temperature != 0 {
			req.Temperature = d.Temperature
		}
		if d.MaxTokens != 0 {
			req.MaxTokens = d.MaxTokens
		}
		if d.TopP != 0 {
			req.TopP = d.TopP
		}
		if len(d.Stop) != 0 {
			req.Stop = d.Stop
		}
	}
	apply(ds.Defaults)
	apply(tc.Config)
	return req, nil
}
