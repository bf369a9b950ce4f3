// Package jsonschema knows just enough about JSON Schema to drive the rewrite
// engine: dialect and vocabulary identifiers, resolution of metaschemas, the
// keywords that hold sub-schemas and local reference inlining.
package jsonschema

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Official dialect URIs.
const (
	Draft4       = "http://json-schema.org/draft-04/schema#"
	Draft6       = "http://json-schema.org/draft-06/schema#"
	Draft7       = "http://json-schema.org/draft-07/schema#"
	Draft2019_09 = "https://json-schema.org/draft/2019-09/schema"
	Draft2020_12 = "https://json-schema.org/draft/2020-12/schema"
)

// EncodingDialect identifies encoding descriptors produced by the mapper.
const EncodingDialect = "tag:sourcemeta.com,2024:jsonbinpack/encoding/v1"

// 2020-12 vocabularies.
const (
	Vocab2020Core             = "https://json-schema.org/draft/2020-12/vocab/core"
	Vocab2020Applicator       = "https://json-schema.org/draft/2020-12/vocab/applicator"
	Vocab2020Unevaluated      = "https://json-schema.org/draft/2020-12/vocab/unevaluated"
	Vocab2020Validation       = "https://json-schema.org/draft/2020-12/vocab/validation"
	Vocab2020MetaData         = "https://json-schema.org/draft/2020-12/vocab/meta-data"
	Vocab2020FormatAnnotation = "https://json-schema.org/draft/2020-12/vocab/format-annotation"
	Vocab2020FormatAssertion  = "https://json-schema.org/draft/2020-12/vocab/format-assertion"
	Vocab2020Content          = "https://json-schema.org/draft/2020-12/vocab/content"
)

// 2019-09 vocabularies.
const (
	Vocab2019Core       = "https://json-schema.org/draft/2019-09/vocab/core"
	Vocab2019Applicator = "https://json-schema.org/draft/2019-09/vocab/applicator"
	Vocab2019Validation = "https://json-schema.org/draft/2019-09/vocab/validation"
	Vocab2019MetaData   = "https://json-schema.org/draft/2019-09/vocab/meta-data"
	Vocab2019Format     = "https://json-schema.org/draft/2019-09/vocab/format"
	Vocab2019Content    = "https://json-schema.org/draft/2019-09/vocab/content"
)

// ErrUnknownDialect is returned when no dialect can be determined for a schema.
var ErrUnknownDialect = errors.New("jsonschema: could not determine dialect")

// ErrUnresolved is returned when a metaschema URI cannot be resolved.
var ErrUnresolved = errors.New("jsonschema: could not resolve schema")

// Vocabularies maps the vocabulary URIs in use by a dialect to whether the
// dialect requires them. Drafts that predate vocabularies contribute their own
// dialect URI as a single entry.
type Vocabularies map[string]bool

// Has reports whether uri is in use, required or not.
func (v Vocabularies) Has(uri string) bool {
	_, ok := v[uri]
	return ok
}

// HasAny reports whether any of uris is in use.
func (v Vocabularies) HasAny(uris ...string) bool {
	for _, u := range uris {
		if v.Has(u) {
			return true
		}
	}
	return false
}

var officialVocabularies = map[string]Vocabularies{
	Draft2020_12: {
		Vocab2020Core: true, Vocab2020Applicator: true, Vocab2020Unevaluated: true,
		Vocab2020Validation: true, Vocab2020MetaData: true, Vocab2020FormatAnnotation: true,
		Vocab2020Content: true,
	},
	Draft2019_09: {
		Vocab2019Core: true, Vocab2019Applicator: true, Vocab2019Validation: true,
		Vocab2019MetaData: true, Vocab2019Format: false, Vocab2019Content: true,
	},
	Draft7:          {Draft7: true},
	Draft6:          {Draft6: true},
	Draft4:          {Draft4: true},
	EncodingDialect: {EncodingDialect: true},
}

// Normalize maps the accepted spellings of an official dialect (with or
// without an empty fragment) to its canonical URI. Other URIs are returned
// unchanged.
func Normalize(uri string) string {
	trimmed := strings.TrimSuffix(uri, "#")
	for official := range officialVocabularies {
		if strings.TrimSuffix(official, "#") == trimmed {
			return official
		}
	}
	return uri
}

// IsOfficial reports whether uri names a dialect whose vocabularies are known
// without resolution.
func IsOfficial(uri string) bool {
	_, ok := officialVocabularies[Normalize(uri)]
	return ok
}

// IsSchemaDialect reports whether the dialect describes JSON Schemas rather
// than encoding descriptors.
func IsSchemaDialect(uri string) bool {
	return uri != "" && Normalize(uri) != EncodingDialect
}

// Dialect returns the $schema declared directly on a schema node.
func Dialect(schema any) (string, bool) {
	m, ok := schema.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := m["$schema"].(string)
	if !ok || s == "" {
		return "", false
	}
	return Normalize(s), true
}

// ResolveDialect picks the dialect for a node: its own $schema, then the
// inherited dialect, then the root's $schema, then fallback.
func ResolveDialect(node any, inherited string, root any, fallback string) (string, error) {
	if d, ok := Dialect(node); ok {
		return d, nil
	}
	if inherited != "" {
		return inherited, nil
	}
	if d, ok := Dialect(root); ok {
		return d, nil
	}
	if fallback != "" {
		return Normalize(fallback), nil
	}
	return "", ErrUnknownDialect
}

// ResolveVocabularies returns the vocabularies of a dialect. Official dialects
// are answered from a static table; any other dialect is resolved as a
// metaschema and its $vocabulary keyword read, following $schema chains of
// metaschemas that declare none.
func ResolveVocabularies(ctx context.Context, resolver Resolver, dialect string) (Vocabularies, error) {
	seen := map[string]bool{}
	current := Normalize(dialect)
	for {
		if vocabs, ok := officialVocabularies[current]; ok {
			return copyVocabularies(vocabs), nil
		}
		if seen[current] {
			return nil, fmt.Errorf("%w: metaschema cycle at %q", ErrUnknownDialect, current)
		}
		seen[current] = true
		if resolver == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnresolved, current)
		}
		meta, err := resolver.Resolve(ctx, current)
		if err != nil {
			return nil, err
		}
		m, ok := meta.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: metaschema %q is not an object", ErrUnknownDialect, current)
		}
		if raw, ok := m["$vocabulary"].(map[string]any); ok {
			out := Vocabularies{}
			for uri, required := range raw {
				b, _ := required.(bool)
				out[uri] = b
			}
			return out, nil
		}
		next, ok := Dialect(m)
		if !ok || next == current {
			return nil, fmt.Errorf("%w: metaschema %q declares no vocabularies", ErrUnknownDialect, current)
		}
		current = next
	}
}

func copyVocabularies(v Vocabularies) Vocabularies {
	out := make(Vocabularies, len(v))
	for k, b := range v {
		out[k] = b
	}
	return out
}
