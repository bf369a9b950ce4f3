// Package mapper turns a canonical JSON Schema into an encoding plan. Each
// rule recognises one schema shape and replaces it with the descriptor of the
// cheapest encoding for it; nested schemas that the encoding still needs are
// kept under the descriptor options and mapped in turn.
package mapper

import (
	"context"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// BundleName names the mapper bundle in errors and logs.
const BundleName = "mapper"

// Bundle returns a fresh bundle of mapping rules. The conditions are mutually
// exclusive except for the fallback, which comes last.
func Bundle() *rules.Bundle {
	b := rules.NewBundle(BundleName)
	for _, group := range [][]rules.Rule{
		enumRules(),
		integerRules(),
		numberRules(),
		stringRules(),
		arrayRules(),
		objectRules(),
		{anyFallback()},
	} {
		for _, r := range group {
			b.Add(r)
		}
	}
	return b
}

// Map rewrites a canonical schema in place into an encoding descriptor tree.
func Map(ctx context.Context, schema *any, opts rules.ApplyOptions) error {
	return Bundle().Apply(ctx, schema, opts)
}

func object(schema any) map[string]any {
	m, _ := schema.(map[string]any)
	return m
}

// describe builds a descriptor node.
func describe(name encoding.Name, options map[string]any) map[string]any {
	if options == nil {
		options = map[string]any{}
	}
	return map[string]any{
		"$schema": jsonschema.EncodingDialect,
		"name":    string(name),
		"options": options,
	}
}

// typed holds for JSON Schema nodes pinned to one type and not enumerated.
func typed(name string) rules.Condition {
	return rules.All(
		rules.SchemaDialect(),
		rules.LacksKeyword("enum"),
		func(schema any, _ rules.Context) bool {
			t, ok := object(schema)["type"].(string)
			return ok && t == name
		},
	)
}

// embed prepares a sub-schema for mapping after it moves under a
// descriptor, where it no longer inherits its dialect.
func embed(schema any, dialect string) any {
	switch s := schema.(type) {
	case bool:
		if s {
			return map[string]any{"$schema": dialect}
		}
		return map[string]any{"$schema": dialect, "not": map[string]any{}}
	case map[string]any:
		out := document.Clone(s).(map[string]any)
		out["$schema"] = dialect
		return out
	default:
		return map[string]any{"$schema": dialect}
	}
}

// natural reads a non-negative integer keyword.
func natural(m map[string]any, name string) (uint64, bool) {
	n, ok := document.Integral(m[name])
	if !ok || n < 0 {
		return 0, false
	}
	return uint64(n), true
}
