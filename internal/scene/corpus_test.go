package scene

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEgyptCorpusSizes(t *testing.T) {
	c, err := EgyptCorpus()
	require.NoError(t, err)

	sizes := map[string]int{}
	for _, p := range c.Sizes() {
		sizes[p.Name] = p.Count
	}
	assert.Equal(t, map[string]int{
		"locations":                95,
		"activities.shared":        49,
		"activities.male":          10,
		"activities.female":        10,
		"activities.child":         12,
		"clothing.male":            12,
		"clothing.female_unveiled": 8,
		"clothing.female_veiled":   7,
		"clothing.child":           7,
		"lighting":                 14,
		"photo_effects":            21,
	}, sizes)
}

func TestEgyptCorpusEffectsAreSentences(t *testing.T) {
	c, err := EgyptCorpus()
	require.NoError(t, err)

	for _, e := range c.PhotoEffects {
		assert.True(t, strings.HasSuffix(e, "."), e)
	}
}

func TestValidateJoinsEveryProblem(t *testing.T) {
	c, err := EgyptCorpus()
	require.NoError(t, err)

	c.Lighting = nil
	c.Activities.Female = []string{}
	c.Clothing.Male[3] = "   "

	err = c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyPool)
	assert.ErrorIs(t, err, ErrBlankFragment)
	assert.Contains(t, err.Error(), "lighting")
	assert.Contains(t, err.Error(), "activities.female")
	assert.Contains(t, err.Error(), "clothing.male[3]")
}

func TestLoadCorpusRejectsUnknownFields(t *testing.T) {
	_, err := LoadCorpus(strings.NewReader(`{"locations":["x"],"weather":["rain"]}`))
	assert.ErrorContains(t, err, "weather")
}

func TestLoadCorpusRejectsMissingPools(t *testing.T) {
	_, err := LoadCorpus(strings.NewReader(`{"locations":["on a rooftop"]}`))
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestLoadCorpusFile(t *testing.T) {
	c, err := EgyptCorpus()
	require.NoError(t, err)
	c.Locations = []string{"on a felucca drifting down the Nile at dusk"}

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	loaded, err := LoadCorpusFile(path)
	require.NoError(t, err)
	assert.Equal(t, c.Locations, loaded.Locations)

	_, err = LoadCorpusFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCorpusSchema(t *testing.T) {
	s := CorpusSchema()

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var doc struct {
		Type                 string                     `json:"type"`
		Required             []string                   `json:"required"`
		AdditionalProperties *bool                      `json:"additionalProperties"`
		Properties           map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "object", doc.Type)
	assert.ElementsMatch(t, []string{"locations", "activities", "clothing", "lighting", "photo_effects"}, doc.Required)
	require.NotNil(t, doc.AdditionalProperties)
	assert.False(t, *doc.AdditionalProperties)
	assert.Contains(t, string(doc.Properties["locations"]), `"minItems":1`)
	assert.Contains(t, string(doc.Properties["clothing"]), "female_veiled")
}
