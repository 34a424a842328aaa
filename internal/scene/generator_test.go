package scene

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource returns the same index, modulo n, for every draw.
type fixedSource int

func (f fixedSource) IntN(n int) int { return int(f) % n }

// scriptedSource replays indices in order and fails the test if it runs out.
type scriptedSource struct {
	t    *testing.T
	vals []int
}

func (s *scriptedSource) IntN(n int) int {
	s.t.Helper()
	require.NotEmpty(s.t, s.vals, "source exhausted")
	v := s.vals[0]
	s.vals = s.vals[1:]
	require.Less(s.t, v, n)
	return v
}

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := Default()
	require.NoError(t, err)
	return g
}

func TestGenerateGolden(t *testing.T) {
	g := newTestGenerator(t)

	got := g.GenerateFromTokens(fixedSource(0), "man", "close-up")

	want := "A man adjusting his glasses while reading a worn-out paperback book, " +
		"in a crowded Khan el-Khalili market at night, surrounded by glowing lanterns and the buzz of haggling. " +
		"A candid close-up shot focusing on their facial expression. " +
		"The scene is lit by the warm, golden hour sun casting long, dramatic shadows and a nostalgic glow. " +
		"He is wearing a simple, well-worn black t-shirt and dark, slightly faded jeans. " +
		"The focus is slightly soft, as if taken in a hurry."
	assert.Equal(t, want, got)
}

func TestDrawOrder(t *testing.T) {
	g := newTestGenerator(t)
	c := g.Corpus()

	// persona, shot, location, lighting, effect, activity, clothing
	src := &scriptedSource{t: t, vals: []int{3, 1, 2, 3, 4, 5, 6}}
	s := g.Draw(src, PersonaRandom, ShotRandom)

	assert.Equal(t, PersonaChildBoy, s.Persona)
	assert.Equal(t, ShotMedium, s.Shot)
	assert.Equal(t, c.Locations[2], s.Location)
	assert.Equal(t, c.Lighting[3], s.Lighting)
	assert.Equal(t, c.PhotoEffects[4], s.Effect)
	assert.Equal(t, c.Activities.Child[5], s.Activity)
	assert.Equal(t, c.Clothing.Child[6], s.Clothing)
	assert.Empty(t, src.vals)
}

func TestDrawConcreteSelectorsSkipDraws(t *testing.T) {
	g := newTestGenerator(t)

	src := &scriptedSource{t: t, vals: []int{0, 0, 0, 0, 0}}
	s := g.Draw(src, PersonaWoman, ShotFullBody)

	assert.Equal(t, PersonaWoman, s.Persona)
	assert.Equal(t, ShotFullBody, s.Shot)
	assert.Empty(t, src.vals)
}

func TestActivityUnionIndexesSharedAfterGenderPool(t *testing.T) {
	g := newTestGenerator(t)
	c := g.Corpus()

	n := len(c.Activities.Male)
	src := &scriptedSource{t: t, vals: []int{0, 0, 0, n, 0}}
	s := g.Draw(src, PersonaMan, ShotCloseUp)

	assert.Equal(t, c.Activities.Shared[0], s.Activity)
}

func TestPersonaPoolConsistency(t *testing.T) {
	g := newTestGenerator(t)
	c := g.Corpus()

	femaleActivities := append(append([]string{}, c.Activities.Female...), c.Activities.Shared...)
	maleActivities := append(append([]string{}, c.Activities.Male...), c.Activities.Shared...)

	cases := []struct {
		persona    Persona
		activities []string
		clothing   []string
		pronoun    string
	}{
		{PersonaMan, maleActivities, c.Clothing.Male, "He"},
		{PersonaWoman, femaleActivities, c.Clothing.FemaleUnveiled, "She"},
		{PersonaWomanHijabi, femaleActivities, c.Clothing.FemaleVeiled, "She"},
		{PersonaChildBoy, c.Activities.Child, c.Clothing.Child, "He"},
		{PersonaChildGirl, c.Activities.Child, c.Clothing.Child, "She"},
	}

	src := NewSource(42)
	for _, tc := range cases {
		t.Run(tc.persona.String(), func(t *testing.T) {
			for range 500 {
				s := g.Draw(src, tc.persona, ShotRandom)
				assert.Equal(t, tc.persona, s.Persona)
				assert.Contains(t, tc.activities, s.Activity)
				assert.Contains(t, tc.clothing, s.Clothing)
				assert.True(t, strings.HasPrefix(s.String(), tc.persona.Description()+" "))
				assert.Contains(t, s.String(), ". "+tc.pronoun+" is wearing ")
			}
		})
	}
}

func TestHijabiNeverDrawsUnveiledClothing(t *testing.T) {
	g := newTestGenerator(t)
	c := g.Corpus()

	src := NewSource(7)
	for range 1000 {
		s := g.Draw(src, PersonaWomanHijabi, ShotRandom)
		assert.NotContains(t, c.Clothing.FemaleUnveiled, s.Clothing)
		assert.NotContains(t, c.Activities.Male, s.Activity)
		assert.NotContains(t, c.Activities.Child, s.Activity)
	}
}

func TestTotalCoverage(t *testing.T) {
	g := newTestGenerator(t)
	c := g.Corpus()

	largest := 0
	for _, p := range c.Sizes() {
		largest = max(largest, p.Count)
	}
	largest = max(largest, len(c.Activities.Male)+len(c.Activities.Shared))

	for _, persona := range Personas {
		t.Run(persona.String(), func(t *testing.T) {
			seen := map[string]map[string]bool{
				"location": {}, "lighting": {}, "effect": {}, "activity": {}, "clothing": {},
			}
			for i := range largest {
				s := g.Draw(fixedSource(i), persona, ShotCloseUp)
				seen["location"][s.Location] = true
				seen["lighting"][s.Lighting] = true
				seen["effect"][s.Effect] = true
				seen["activity"][s.Activity] = true
				seen["clothing"][s.Clothing] = true
			}

			activities, clothing := g.Eligible(persona.Class())
			var wantActivities []string
			for _, p := range activities {
				wantActivities = append(wantActivities, p...)
			}

			assert.ElementsMatch(t, c.Locations, keys(seen["location"]))
			assert.ElementsMatch(t, c.Lighting, keys(seen["lighting"]))
			assert.ElementsMatch(t, c.PhotoEffects, keys(seen["effect"]))
			assert.ElementsMatch(t, wantActivities, keys(seen["activity"]))
			assert.ElementsMatch(t, clothing, keys(seen["clothing"]))
		})
	}
}

func TestRandomSelectorsCoverEveryPersonaAndShot(t *testing.T) {
	g := newTestGenerator(t)

	personas := map[Persona]bool{}
	shots := map[ShotType]bool{}
	for i := range 20 {
		s := g.Draw(fixedSource(i), PersonaRandom, ShotRandom)
		personas[s.Persona] = true
		shots[s.Shot] = true
	}
	assert.Len(t, personas, len(Personas))
	assert.Len(t, shots, len(ShotTypes))
}

func TestTemplateWellFormed(t *testing.T) {
	g := newTestGenerator(t)

	src := NewSource(2024)
	for range 2000 {
		s := g.Draw(src, PersonaRandom, ShotRandom)
		out := s.String()

		require.NotEmpty(t, out)
		assert.NotContains(t, out, "\n")
		assert.NotContains(t, out, "  ")
		assert.NotContains(t, out, "..")
		assert.True(t, strings.HasSuffix(out, "."), out)
		assert.True(t, strings.HasSuffix(out, s.Effect))

		skeleton := out
		for _, frag := range []struct{ value, slot string }{
			{s.Persona.Description(), "{persona}"},
			{s.Activity, "{activity}"},
			{s.Location, "{location}"},
			{s.Shot.Template(), "{shot}"},
			{s.Lighting, "{lighting}"},
			{s.Persona.Pronoun() + " is", "{pronoun} is"},
			{s.Clothing, "{clothing}"},
			{s.Effect, "{effect}"},
		} {
			i := strings.Index(skeleton, frag.value)
			require.GreaterOrEqual(t, i, 0, "%q not found in %q", frag.value, skeleton)
			skeleton = skeleton[:i] + frag.slot + skeleton[i+len(frag.value):]
		}
		assert.Equal(t,
			"{persona} {activity}, {location}. {shot} The scene is lit by {lighting}. {pronoun} is wearing {clothing}. {effect}",
			skeleton)
	}
}

func TestUnknownSelectorsFallBackToRandom(t *testing.T) {
	g := newTestGenerator(t)

	// consistent reports whether out reads as a scene of p: its subject,
	// an activity p may draw, and p's pronoun wearing p's clothing.
	consistent := func(p Persona, out string) bool {
		activities, clothing := g.Eligible(p.Class())
		activityOK := false
		for _, pool := range activities {
			for _, a := range pool {
				if strings.HasPrefix(out, p.Description()+" "+a+", ") {
					activityOK = true
				}
			}
		}
		clothingOK := false
		for _, c := range clothing {
			if strings.Contains(out, ". "+p.Pronoun()+" is wearing "+c+". ") {
				clothingOK = true
			}
		}
		return activityOK && clothingOK
	}

	src := NewSource(1)
	for range 200 {
		sc := g.Draw(src, ParsePersona("bogus"), ParseShotType("panorama"))
		require.False(t, sc.Persona.IsRandom())
		require.NotEqual(t, ShotRandom, sc.Shot)

		out := sc.String()
		var matched []Persona
		for _, p := range Personas {
			if consistent(p, out) {
				matched = append(matched, p)
			}
		}
		assert.Equal(t, []Persona{sc.Persona}, matched, out)
	}
}

func TestSeededSourceIsDeterministic(t *testing.T) {
	g := newTestGenerator(t)

	a := g.Generate(NewSource(99), PersonaRandom, ShotRandom)
	b := g.Generate(NewSource(99), PersonaRandom, ShotRandom)
	assert.Equal(t, a, b)
}

func TestGenerateConcurrent(t *testing.T) {
	g := newTestGenerator(t)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			src := NewSource(seed)
			for range 200 {
				if g.Generate(src, PersonaRandom, ShotRandom) == "" {
					t.Error("empty scene")
				}
			}
		}(uint64(i))
	}
	wg.Wait()
}

func TestNewRejectsInvalidCorpus(t *testing.T) {
	g := newTestGenerator(t)
	c := g.Corpus()
	c.Clothing.Child = nil

	_, err := New(c)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestGeneratorCopiesCorpus(t *testing.T) {
	c, err := EgyptCorpus()
	require.NoError(t, err)
	first := c.Locations[0]

	g, err := New(c)
	require.NoError(t, err)
	c.Locations[0] = "mutated"

	assert.Equal(t, first, g.Corpus().Locations[0])
}

func TestCombinations(t *testing.T) {
	g := newTestGenerator(t)
	c := g.Corpus()

	want := uint64(len(c.Activities.Child)) *
		uint64(len(c.Clothing.Child)) *
		uint64(len(c.Locations)) *
		uint64(len(c.Lighting)) *
		uint64(len(c.PhotoEffects)) *
		uint64(len(ShotTypes))
	assert.Equal(t, want, g.Combinations(PersonaChildGirl))
	assert.Zero(t, g.Combinations(PersonaRandom))
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
