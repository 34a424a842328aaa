package scene

import (
	"github.com/invopop/jsonschema"
)

// CorpusSchema describes the corpus document accepted by LoadCorpus.
func CorpusSchema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := r.Reflect(&Corpus{})
	s.Title = "Scene corpus"
	s.Description = "Fragment pools sampled by the scene prompt generator. Every pool must be non-empty."
	return s
}
