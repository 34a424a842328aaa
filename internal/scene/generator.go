package scene

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
)

// Source is the uniform randomness the generator draws with.
// IntN returns a value in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// NewSource returns a deterministic source for the given seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RuntimeSource returns a source seeded from the runtime's entropy.
func RuntimeSource() Source {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Generator composes scene descriptions from a validated corpus.
// It holds no mutable state and is safe for concurrent use as long as
// each goroutine passes its own Source.
type Generator struct {
	corpus Corpus
}

// New validates the corpus and returns a generator over a private copy of it.
func New(c Corpus) (*Generator, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("scene generator: %w", err)
	}
	return &Generator{corpus: cloneCorpus(c)}, nil
}

// Default returns a generator over the embedded corpus.
func Default() (*Generator, error) {
	c, err := EgyptCorpus()
	if err != nil {
		return nil, err
	}
	return New(c)
}

// Corpus returns a copy of the pools the generator samples from.
func (g *Generator) Corpus() Corpus {
	return cloneCorpus(g.corpus)
}

// Scene is a single drawn combination. String renders it as a prompt paragraph.
type Scene struct {
	Persona  Persona
	Shot     ShotType
	Activity string
	Location string
	Lighting string
	Clothing string
	Effect   string
}

func (s Scene) String() string {
	var b strings.Builder
	b.WriteString(s.Persona.Description())
	b.WriteByte(' ')
	b.WriteString(s.Activity)
	b.WriteString(", ")
	b.WriteString(s.Location)
	b.WriteString(". ")
	b.WriteString(s.Shot.Template())
	b.WriteString(" The scene is lit by ")
	b.WriteString(s.Lighting)
	b.WriteString(". ")
	b.WriteString(s.Persona.Pronoun())
	b.WriteString(" is wearing ")
	b.WriteString(s.Clothing)
	b.WriteString(". ")
	b.WriteString(s.Effect)
	return b.String()
}

// Draw resolves random selectors and samples one fragment per axis.
// Draw order is persona, shot, location, lighting, effect, activity, clothing.
func (g *Generator) Draw(src Source, persona Persona, shot ShotType) Scene {
	if persona.IsRandom() {
		persona = Personas[src.IntN(len(Personas))]
	}
	if shot.IsRandom() {
		shot = ShotTypes[src.IntN(len(ShotTypes))]
	}

	s := Scene{
		Persona:  persona,
		Shot:     shot,
		Location: pick(src, g.corpus.Locations),
		Lighting: pick(src, g.corpus.Lighting),
		Effect:   pick(src, g.corpus.PhotoEffects),
	}

	activities, clothing := g.eligible(persona.Class())
	s.Activity = pickUnion(src, activities...)
	s.Clothing = pick(src, clothing)
	return s
}

// Generate returns the rendered scene paragraph.
func (g *Generator) Generate(src Source, persona Persona, shot ShotType) string {
	return g.Draw(src, persona, shot).String()
}

// GenerateFromTokens accepts raw selector tokens. Unrecognized tokens are
// treated as "random".
func (g *Generator) GenerateFromTokens(src Source, personaToken, shotToken string) string {
	return g.Generate(src, ParsePersona(personaToken), ParseShotType(shotToken))
}

// Eligible returns the activity pools (in union order) and the clothing pool
// a persona class may draw from.
func (g *Generator) Eligible(class Class) (activities [][]string, clothing []string) {
	return g.eligible(class)
}

func (g *Generator) eligible(class Class) ([][]string, []string) {
	a, c := g.corpus.Activities, g.corpus.Clothing
	switch class {
	case ClassAdultMale:
		return [][]string{a.Male, a.Shared}, c.Male
	case ClassAdultFemaleUnveiled:
		return [][]string{a.Female, a.Shared}, c.FemaleUnveiled
	case ClassAdultFemaleVeiled:
		return [][]string{a.Female, a.Shared}, c.FemaleVeiled
	case ClassChild:
		return [][]string{a.Child}, c.Child
	default:
		panic(fmt.Sprintf("scene: unhandled persona class %d", class))
	}
}

// Combinations counts the distinct scenes a concrete persona can yield
// across all shot types.
func (g *Generator) Combinations(persona Persona) uint64 {
	if persona.IsRandom() {
		return 0
	}
	activities, clothing := g.eligible(persona.Class())
	var nActivities uint64
	for _, p := range activities {
		nActivities += uint64(len(p))
	}
	return nActivities *
		uint64(len(clothing)) *
		uint64(len(g.corpus.Locations)) *
		uint64(len(g.corpus.Lighting)) *
		uint64(len(g.corpus.PhotoEffects)) *
		uint64(len(ShotTypes))
}

func pick(src Source, pool []string) string {
	return pool[src.IntN(len(pool))]
}

// pickUnion draws uniformly across the concatenation of pools without
// materializing it.
func pickUnion(src Source, pools ...[]string) string {
	n := 0
	for _, p := range pools {
		n += len(p)
	}
	i := src.IntN(n)
	for _, p := range pools {
		if i < len(p) {
			return p[i]
		}
		i -= len(p)
	}
	panic("scene: union index out of range")
}

func cloneCorpus(c Corpus) Corpus {
	return Corpus{
		Locations: slices.Clone(c.Locations),
		Activities: Activities{
			Shared: slices.Clone(c.Activities.Shared),
			Male:   slices.Clone(c.Activities.Male),
			Female: slices.Clone(c.Activities.Female),
			Child:  slices.Clone(c.Activities.Child),
		},
		Clothing: Clothing{
			Male:           slices.Clone(c.Clothing.Male),
			FemaleUnveiled: slices.Clone(c.Clothing.FemaleUnveiled),
			FemaleVeiled:   slices.Clone(c.Clothing.FemaleVeiled),
			Child:          slices.Clone(c.Clothing.Child),
		},
		Lighting:     slices.Clone(c.Lighting),
		PhotoEffects: slices.Clone(c.PhotoEffects),
	}
}
