package manifest

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/gridmerge/internal/grid"
)

//go:embed schema.cue
var schemaCUE string

// decodeYAML parses a YAML manifest, rejecting unknown fields.
func decodeYAML(data []byte) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// decodeTOML parses a TOML manifest, rejecting unknown fields.
func decodeTOML(data []byte) (*Manifest, error) {
	var m Manifest
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// decodeCUE unifies a CUE manifest with the #Manifest schema and decodes
// the concrete result.
func decodeCUE(path string, data []byte) (*Manifest, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, err
	}

	unified := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, err
	}

	var m Manifest
	if err := unified.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func sortSources(sources []*grid.FileSource) {
	slices.SortStableFunc(sources, func(a, b *grid.FileSource) int {
		return a.Period().Compare(b.Period())
	})
}
