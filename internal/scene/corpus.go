package scene

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed data/egypt.json
var egyptCorpus []byte

var (
	ErrEmptyPool     = errors.New("corpus pool is empty")
	ErrBlankFragment = errors.New("corpus pool contains a blank fragment")
)

// Corpus holds the five narrative pools the generator samples from.
// Pool order is significant: draws are by index.
type Corpus struct {
	Locations    []string   `json:"locations" jsonschema:"minItems=1" jsonschema_description:"Scene setting clauses, persona independent"`
	Activities   Activities `json:"activities" jsonschema_description:"Activity clauses partitioned by eligibility"`
	Clothing     Clothing   `json:"clothing" jsonschema_description:"Clothing phrases, exactly one pool per persona class"`
	Lighting     []string   `json:"lighting" jsonschema:"minItems=1" jsonschema_description:"Illumination and time-of-day clauses"`
	PhotoEffects []string   `json:"photo_effects" jsonschema:"minItems=1" jsonschema_description:"Camera or phone imperfection sentences, each a full sentence"`
}

type Activities struct {
	Shared []string `json:"shared" jsonschema:"minItems=1" jsonschema_description:"Usable by every adult persona"`
	Male   []string `json:"male" jsonschema:"minItems=1"`
	Female []string `json:"female" jsonschema:"minItems=1"`
	Child  []string `json:"child" jsonschema:"minItems=1" jsonschema_description:"The only pool children draw from"`
}

type Clothing struct {
	Male           []string `json:"male" jsonschema:"minItems=1"`
	FemaleUnveiled []string `json:"female_unveiled" jsonschema:"minItems=1"`
	FemaleVeiled   []string `json:"female_veiled" jsonschema:"minItems=1"`
	Child          []string `json:"child" jsonschema:"minItems=1"`
}

type namedPool struct {
	Name  string
	Items []string
}

func (c Corpus) pools() []namedPool {
	return []namedPool{
		{Name: "locations", Items: c.Locations},
		{Name: "activities.shared", Items: c.Activities.Shared},
		{Name: "activities.male", Items: c.Activities.Male},
		{Name: "activities.female", Items: c.Activities.Female},
		{Name: "activities.child", Items: c.Activities.Child},
		{Name: "clothing.male", Items: c.Clothing.Male},
		{Name: "clothing.female_unveiled", Items: c.Clothing.FemaleUnveiled},
		{Name: "clothing.female_veiled", Items: c.Clothing.FemaleVeiled},
		{Name: "clothing.child", Items: c.Clothing.Child},
		{Name: "lighting", Items: c.Lighting},
		{Name: "photo_effects", Items: c.PhotoEffects},
	}
}

// Validate reports every empty pool and blank fragment at once.
func (c Corpus) Validate() error {
	var errs []error
	for _, p := range c.pools() {
		if len(p.Items) == 0 {
			errs = append(errs, fmt.Errorf("%w: %s", ErrEmptyPool, p.Name))
			continue
		}
		for i, item := range p.Items {
			if strings.TrimSpace(item) == "" {
				errs = append(errs, fmt.Errorf("%w: %s[%d]", ErrBlankFragment, p.Name, i))
			}
		}
	}
	return errors.Join(errs...)
}

// PoolSize is the fragment count of one named pool.
type PoolSize struct {
	Name  string
	Count int
}

func (c Corpus) Sizes() []PoolSize {
	pools := c.pools()
	out := make([]PoolSize, 0, len(pools))
	for _, p := range pools {
		out = append(out, PoolSize{Name: p.Name, Count: len(p.Items)})
	}
	return out
}

// LoadCorpus decodes and validates a corpus document.
func LoadCorpus(r io.Reader) (Corpus, error) {
	var c Corpus
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Corpus{}, fmt.Errorf("decode corpus: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Corpus{}, fmt.Errorf("invalid corpus: %w", err)
	}
	return c, nil
}

func LoadCorpusFile(path string) (Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return Corpus{}, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	c, err := LoadCorpus(f)
	if err != nil {
		return Corpus{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// EgyptCorpus returns a fresh copy of the embedded Egyptian lifestyle corpus.
func EgyptCorpus() (Corpus, error) {
	return LoadCorpus(bytes.NewReader(egyptCorpus))
}
