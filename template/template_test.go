// Copyright 2025 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	got, err := Render("Write {{lang}} code", map[string]string{"lang": "Rust"})
	require.NoError(t, err)
	assert.Equal(t, "Write Rust code", got)
}

func TestRender_MissingVariable(t *testing.T) {
	_, err := Render("{{undefined}}", map[string]string{"other": "x"})
	require.Error(t, err)
	var missing *MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "undefined", missing.Name)
}

func TestRender_NoPlaceholdersIsIdentity(t *testing.T) {
	const tmpl = "Hello, world!"
	got, err := Render(tmpl, nil)
	require.NoError(t, err)
	assert.Equal(t, tmpl, got)
}

func TestRender_NoUnsubstitutedPlaceholdersRemain(t *testing.T) {
	tmpl := "{{a}} and {{b}}"
	bindings := map[string]string{"a": "1", "b": "2"}
	got, err := Render(tmpl, bindings)
	require.NoError(t, err)
	for _, v := range ExtractVariables(tmpl) {
		assert.NotContains(t, got, "{{"+v+"}}")
	}
}

func TestRender_OrderIndependentOverSameBindings(t *testing.T) {
	tmpl := "{{a}}-{{b}}-{{a}}"
	b1 := map[string]string{}
	b2 := map[string]string{}
	for k, v := range map[string]string{"a": "1", "b": "2"} {
		b1[k] = v
	}
	for _, k := range []string{"b", "a"} {
		b2[k] = map[string]string{"a": "1", "b": "2"}[k]
	}
	got1, err := Render(tmpl, b1)
	require.NoError(t, err)
	got2, err := Render(tmpl, b2)
	require.NoError(t, err)
	assert.Equal(t, got1, got2)
}

func TestRender_SinglePassDoesNotRescanInsertedText(t *testing.T) {
	got, err := Render("{{a}}", map[string]string{"a": "{{b}}"})
	require.NoError(t, err)
	assert.Equal(t, "{{b}}", got)
}

func TestRender_WhitespaceInsideBracesNotTolerated(t *testing.T) {
	got, err := Render("{{ a }}", map[string]string{"a": "x"})
	require.NoError(t, err)
	assert.Equal(t, "{{ a }}", got, "whitespace inside braces must not be treated as a placeholder")
}

func TestRenderOptional(t *testing.T) {
	got := RenderOptional("{{a}} {{missing}}", map[string]string{"a": "1"})
	assert.Equal(t, "1 {{missing}}", got)
}

func TestExtractVariables(t *testing.T) {
	got := ExtractVariables("{{a}} {{b}} {{a}}")
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Nil(t, ExtractVariables("no placeholders here"))
}

func TestHasPlaceholders(t *testing.T) {
	assert.True(t, HasPlaceholders("{{x}}"))
	assert.False(t, HasPlaceholders("no braces"))
	assert.False(t, HasPlaceholders("{{ not a valid id }}"))
}
