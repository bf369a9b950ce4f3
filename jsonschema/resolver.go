package jsonschema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
)

// Resolver turns a schema URI into a schema document. A miss is reported as
// an error wrapping ErrUnresolved.
type Resolver interface {
	Resolve(ctx context.Context, uri string) (any, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, uri string) (any, error)

func (f ResolverFunc) Resolve(ctx context.Context, uri string) (any, error) { return f(ctx, uri) }

// MapResolver serves schemas from memory, keyed by URI.
type MapResolver map[string]any

func (m MapResolver) Resolve(_ context.Context, uri string) (any, error) {
	if s, ok := m[Normalize(uri)]; ok {
		return s, nil
	}
	if s, ok := m[strings.TrimSuffix(uri, "#")]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnresolved, uri)
}

// Add registers a schema under its $id (or id for draft-04).
func (m MapResolver) Add(schema any) error {
	obj, ok := schema.(map[string]any)
	if !ok {
		return errors.New("jsonschema: only object schemas can be registered")
	}
	id, _ := obj["$id"].(string)
	if id == "" {
		id, _ = obj["id"].(string)
	}
	if id == "" {
		return errors.New("jsonschema: schema has no identifier")
	}
	m[Normalize(strings.TrimSuffix(id, "#"))] = schema
	return nil
}

// ChainResolver asks each resolver in turn and returns the first hit.
type ChainResolver []Resolver

func (c ChainResolver) Resolve(ctx context.Context, uri string) (any, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		s, err := r.Resolve(ctx, uri)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrUnresolved) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnresolved, uri)
}

// Official resolves the metaschemas of the official dialects to minimal
// documents carrying their $schema and, where defined, $vocabulary.
func Official() Resolver {
	return ResolverFunc(func(_ context.Context, uri string) (any, error) {
		d := Normalize(uri)
		vocabs, ok := officialVocabularies[d]
		if !ok || d == EncodingDialect {
			return nil, fmt.Errorf("%w: %q", ErrUnresolved, uri)
		}
		meta := map[string]any{"$schema": d}
		if d == Draft2020_12 || d == Draft2019_09 {
			meta["$id"] = d
			raw := map[string]any{}
			for k, v := range vocabs {
				raw[k] = v
			}
			meta["$vocabulary"] = raw
		} else {
			meta["id"] = d
		}
		return meta, nil
	})
}

// LoadFiles reads schema files and indexes them by identifier. Files are
// parsed according to their extension.
func LoadFiles(paths ...string) (MapResolver, error) {
	m := MapResolver{}
	for _, p := range paths {
		s, err := document.ReadFile(p)
		if err != nil {
			return nil, err
		}
		if err := m.Add(s); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return m, nil
}
