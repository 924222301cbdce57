package router

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilities_ZeroValueAdvertisesNothing(t *testing.T) {
	var c Capabilities
	for _, cat := range Categories {
		assert.False(t, c.Enabled(cat), cat.String())
	}

	b, err := json.Marshal(c.ServerCapabilities())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}

func TestCapabilities_IndependentToggles(t *testing.T) {
	c := NewCapabilities(
		WithToolsEnabled(true),
		WithResourcesEnabled(false, false),
		WithPromptsEnabled(false),
	)
	assert.True(t, c.Tools())
	assert.False(t, c.Prompts())
	opts, ok := c.Resources()
	assert.True(t, ok)
	assert.Equal(t, ResourceOptions{}, opts)

	b, err := json.Marshal(c.ServerCapabilities())
	require.NoError(t, err)
	assert.JSONEq(t, `{"tools":{"listChanged":false},"resources":{"subscribe":false,"listChanged":false}}`, string(b))
}

func TestCapabilities_ResourceSubOptions(t *testing.T) {
	c := NewCapabilities(WithResourcesEnabled(true, true))
	opts, ok := c.Resources()
	require.True(t, ok)
	assert.True(t, opts.Subscribe)
	assert.True(t, opts.ListChanged)

	sc := c.ServerCapabilities()
	require.NotNil(t, sc.Resources)
	assert.True(t, sc.Resources.Subscribe)
	assert.True(t, sc.Resources.ListChanged)
	assert.Nil(t, sc.Tools)
	assert.Nil(t, sc.Prompts)
}

func TestCapabilities_LaterOptionsOverride(t *testing.T) {
	c := NewCapabilities(
		WithResourcesEnabled(true, false),
		WithResourcesDisabled(),
		WithToolsEnabled(true),
		WithToolsEnabled(false),
		nil,
	)
	_, ok := c.Resources()
	assert.False(t, ok)
	assert.False(t, c.Tools())
}

func TestCategory_Names(t *testing.T) {
	assert.Equal(t, "tool", CategoryTool.String())
	assert.Equal(t, "resource", CategoryResource.String())
	assert.Equal(t, "prompt", CategoryPrompt.String())
	assert.Equal(t, "unknown", Category(0).String())
	assert.False(t, Category(42).Valid())
	assert.False(t, NewCapabilities(WithToolsEnabled(true)).Enabled(Category(0)))
}
