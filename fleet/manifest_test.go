// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validManifest() Manifest {
	return Manifest{
		FleetID: "agentics-fleet",
		Version: "1.0",
		Repositories: []Repository{
			{RepoID: "repo-a", Path: "/repos/a", Adapter: "native", Scenarios: []string{"smoke"}},
		},
		Providers: []string{"mock:echo-1"},
		ScenarioProfiles: map[string]ScenarioProfile{
			"smoke": {Dataset: "smoke"},
		},
		Output: Output{BaseDir: "/tmp/out"},
	}
}

func TestManifest_Validate_OK(t *testing.T) {
	m := validManifest()
	require.NoError(t, m.Validate())
}

func TestManifest_Validate_WrongVersion(t *testing.T) {
	m := validManifest()
	m.Version = "2.0"
	assert.Error(t, m.Validate())
}

func TestManifest_Validate_UndeclaredScenario(t *testing.T) {
	m := validManifest()
	m.Repositories[0].Scenarios = []string{"missing"}
	assert.Error(t, m.Validate())
}

func TestManifest_Validate_MalformedProvider(t *testing.T) {
	m := validManifest()
	m.Providers = []string{"mock-echo-1"}
	assert.Error(t, m.Validate())
}

func TestManifest_Validate_DuplicateRepoID(t *testing.T) {
	m := validManifest()
	m.Repositories = append(m.Repositories, m.Repositories[0])
	assert.Error(t, m.Validate())
}

func TestManifest_Validate_EmptyFleetID(t *testing.T) {
	m := validManifest()
	m.FleetID = ""
	assert.Error(t, m.Validate())
}

func TestParseProviderModel(t *testing.T) {
	p, model, err := ParseProviderModel("openai:gpt-4")
	require.NoError(t, err)
	assert.Equal(t, "openai", p)
	assert.Equal(t, "gpt-4", model)

	_, _, err = ParseProviderModel("nocolon")
	assert.Error(t, err)

	_, _, err = ParseProviderModel("too:many:colons")
	assert.Error(t, err)
}

func TestOutput_HasFormat(t *testing.T) {
	o := Output{}
	assert.True(t, o.HasFormat("json"))
	assert.False(t, o.HasFormat("yaml"))

	o = Output{Formats: []string{"json", "yaml"}}
	assert.True(t, o.HasFormat("yaml"))
}
