package canonicalizer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcemeta/jsonbinpack-sub005/canonicalizer"
	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

func parse(t *testing.T, s string) any {
	t.Helper()
	v, err := document.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func canonicalize(t *testing.T, s string) any {
	t.Helper()
	schema := parse(t, s)
	require.NoError(t, canonicalizer.Canonicalize(context.Background(), &schema, rules.ApplyOptions{}))
	return schema
}

func assertCanonical(t *testing.T, input, want string) {
	t.Helper()
	got := canonicalize(t, input)
	expected := parse(t, want)
	if !document.Equal(expected, got) {
		g, _ := document.Marshal(got)
		t.Fatalf("canonicalize(%s)\n got: %s\nwant: %s", input, g, want)
	}
}

const d2020 = `"$schema": "https://json-schema.org/draft/2020-12/schema"`

func TestCanonicalizeSugar(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"boolean", `{` + d2020 + `, "type": "boolean"}`, `{` + d2020 + `, "enum": [false, true]}`},
		{"null", `{` + d2020 + `, "type": "null"}`, `{` + d2020 + `, "enum": [null]}`},
		{"boolean with enum", `{` + d2020 + `, "type": "boolean", "enum": [true, 1]}`, `{` + d2020 + `, "enum": [true]}`},
		{"const", `{` + d2020 + `, "const": {"a": 1}}`, `{` + d2020 + `, "enum": [{"a": 1}]}`},
		{"single type array", `{` + d2020 + `, "type": ["boolean"]}`, `{` + d2020 + `, "enum": [false, true]}`},
		{"type union", `{` + d2020 + `, "type": ["string", "null"], "maxLength": 3}`,
			`{` + d2020 + `, "anyOf": [
				{"type": "string", "minLength": 0, "maxLength": 3},
				{"enum": [null]}
			]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) { assertCanonical(t, tc.in, tc.want) })
	}
}

func TestTypeUnionKeepsIdentifiedSchemas(t *testing.T) {
	assertCanonical(t,
		`{`+d2020+`, "$id": "https://example.com/x", "type": ["string", "integer"]}`,
		`{`+d2020+`, "$id": "https://example.com/x", "type": ["string", "integer"]}`)
}

func TestCanonicalizeRedundancy(t *testing.T) {
	assertCanonical(t,
		`{`+d2020+`, "enum": ["b", "a", "b"]}`,
		`{`+d2020+`, "enum": ["a", "b"]}`)
	assertCanonical(t,
		`{`+d2020+`, "type": "array", "uniqueItems": true, "maxItems": 1}`,
		`{`+d2020+`, "type": "array", "maxItems": 1, "minItems": 0}`)
	assertCanonical(t,
		`{`+d2020+`, "uniqueItems": true, "enum": [[], [1]]}`,
		`{`+d2020+`, "enum": [[], [1]]}`)
	assertCanonical(t,
		`{`+d2020+`, "anyOf": [{"type": "boolean"}, {"enum": [false, true]}]}`,
		`{`+d2020+`, "anyOf": [{"enum": [false, true]}]}`)
}

func TestCanonicalizeBounds(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"exclusive integer maximum", `{"type": "integer", "exclusiveMaximum": 10}`,
			`{"type": "integer", "maximum": 9, "multipleOf": 1}`},
		{"exclusive real maximum", `{"type": "integer", "exclusiveMaximum": 9.5}`,
			`{"type": "integer", "maximum": 9, "multipleOf": 1}`},
		{"exclusive integer minimum", `{"type": "integer", "exclusiveMinimum": -3}`,
			`{"type": "integer", "minimum": -2, "multipleOf": 1}`},
		{"exclusive real minimum", `{"type": "integer", "exclusiveMinimum": -3.5}`,
			`{"type": "integer", "minimum": -3, "multipleOf": 1}`},
		{"stricter inclusive wins", `{"type": "number", "maximum": 5, "exclusiveMaximum": 6}`,
			`{"type": "number", "maximum": 5}`},
		{"stricter exclusive wins", `{"type": "number", "minimum": 5, "exclusiveMinimum": 5}`,
			`{"type": "number", "exclusiveMinimum": 5}`},
		{"real bounds on integers", `{"type": "integer", "minimum": 1.2, "maximum": 7.8, "multipleOf": 2.0}`,
			`{"type": "integer", "minimum": 2, "maximum": 7, "multipleOf": 2}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := `{` + d2020 + `, ` + tc.in[1:]
			want := `{` + d2020 + `, ` + tc.want[1:]
			assertCanonical(t, in, want)
		})
	}
}

func TestCanonicalizeDraft4ExclusiveFlags(t *testing.T) {
	const d4 = `"$schema": "http://json-schema.org/draft-04/schema#"`
	cases := []struct {
		name, in, want string
	}{
		{"real minimum", `{"type": "integer", "minimum": 5.5, "exclusiveMinimum": true}`,
			`{"type": "integer", "minimum": 6, "multipleOf": 1}`},
		{"integral real minimum", `{"type": "integer", "minimum": 5.0, "exclusiveMinimum": true}`,
			`{"type": "integer", "minimum": 6, "multipleOf": 1}`},
		{"integer minimum", `{"type": "integer", "minimum": 5, "exclusiveMinimum": true}`,
			`{"type": "integer", "minimum": 6, "multipleOf": 1}`},
		{"real maximum", `{"type": "integer", "maximum": 9.5, "exclusiveMaximum": true}`,
			`{"type": "integer", "maximum": 9, "multipleOf": 1}`},
		{"integer maximum", `{"type": "integer", "maximum": 10, "exclusiveMaximum": true}`,
			`{"type": "integer", "maximum": 9, "multipleOf": 1}`},
		{"inclusive flag", `{"type": "integer", "minimum": 5.5, "exclusiveMinimum": false}`,
			`{"type": "integer", "minimum": 6, "exclusiveMinimum": false, "multipleOf": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := `{` + d4 + `, ` + tc.in[1:]
			want := `{` + d4 + `, ` + tc.want[1:]
			assertCanonical(t, in, want)
		})
	}
}

func TestCanonicalizeImplicitDefaults(t *testing.T) {
	assertCanonical(t,
		`{`+d2020+`, "type": "object"}`,
		`{`+d2020+`, "type": "object", "properties": {}, "required": [], "minProperties": 0}`)
	assertCanonical(t,
		`{`+d2020+`, "type": "array", "items": {"type": "string"}}`,
		`{`+d2020+`, "type": "array", "minItems": 0, "items": {"type": "string", "minLength": 0}}`)
	assertCanonical(t,
		`{"$schema": "http://json-schema.org/draft-04/schema#", "type": "object"}`,
		`{"$schema": "http://json-schema.org/draft-04/schema#", "type": "object", "properties": {}, "minProperties": 0}`)
}

func TestCanonicalizeSuperfluous(t *testing.T) {
	assertCanonical(t,
		`{`+d2020+`, "maxContains": 2, "minContains": 1, "then": true, "else": false, "contentSchema": {}}`,
		`{`+d2020+`}`)
	assertCanonical(t,
		`{`+d2020+`, "if": {"type": "string"}}`,
		`{`+d2020+`}`)
	assertCanonical(t,
		`{`+d2020+`, "type": "array", "contains": {}, "maxContains": 3, "maxItems": 2}`,
		`{`+d2020+`, "type": "array", "contains": {}, "maxItems": 2, "minItems": 0}`)
	assertCanonical(t,
		`{`+d2020+`, "type": "object", "required": ["a"], "dependentRequired": {"a": ["b"], "b": ["c"], "x": ["y"]}}`,
		`{`+d2020+`, "type": "object", "properties": {}, "required": ["a", "b", "c"],
			"dependentRequired": {"x": ["y"]}, "minProperties": 3}`)
	assertCanonical(t,
		`{`+d2020+`, "type": "string", "enum": ["a", "b"]}`,
		`{`+d2020+`, "enum": ["a", "b"], "minLength": 0}`)
}

func TestCanonicalizeVacuous(t *testing.T) {
	assertCanonical(t,
		`{`+d2020+`, "type": "string", "maxLength": 0}`,
		`{`+d2020+`, "enum": [""], "minLength": 0}`)
	assertCanonical(t,
		`{`+d2020+`, "type": "array", "maxItems": 0}`,
		`{`+d2020+`, "enum": [[]], "minItems": 0}`)
	assertCanonical(t,
		`{`+d2020+`, "type": "object", "maxProperties": 0}`,
		`{`+d2020+`, "enum": [{}], "properties": {}, "required": [], "minProperties": 0}`)
	assertCanonical(t,
		`{`+d2020+`, "type": "integer", "minimum": 4, "maximum": 4.0}`,
		`{`+d2020+`, "enum": [4], "multipleOf": 1}`)
	assertCanonical(t,
		`{`+d2020+`, "type": "integer", "const": 4, "minimum": 4, "maximum": 4}`,
		`{`+d2020+`, "enum": [4], "multipleOf": 1}`)
	assertCanonical(t,
		`{"$schema": "http://json-schema.org/draft-04/schema#", "type": "string", "maxLength": 0}`,
		`{"$schema": "http://json-schema.org/draft-04/schema#", "enum": [""], "minLength": 0}`)
}

func TestCanonicalizeVacuousWithEnumeratedType(t *testing.T) {
	assertCanonical(t,
		`{`+d2020+`, "type": "number", "minimum": 1, "maximum": 1, "enum": [1, 2]}`,
		`{`+d2020+`, "enum": [1]}`)
	assertCanonical(t,
		`{`+d2020+`, "minimum": 1, "maximum": 1, "enum": [1.5, 2]}`,
		`{`+d2020+`, "enum": []}`)
	assertCanonical(t,
		`{`+d2020+`, "type": "string", "maxLength": 0, "enum": ["", "a"]}`,
		`{`+d2020+`, "enum": [""], "minLength": 0}`)
}

func TestCanonicalizeTypeNarrowing(t *testing.T) {
	assertCanonical(t,
		`{`+d2020+`, "type": "string", "minimum": 3, "items": {}, "required": ["a"], "pattern": "^a"}`,
		`{`+d2020+`, "type": "string", "pattern": "^a", "minLength": 0}`)
	assertCanonical(t,
		`{`+d2020+`, "enum": [1, 2.5], "minLength": 3, "properties": {}}`,
		`{`+d2020+`, "enum": [1, 2.5]}`)
	assertCanonical(t,
		`{`+d2020+`, "type": "null", "minLength": 1}`,
		`{`+d2020+`, "enum": [null]}`)
}

func TestCanonicalizeNestedSchemas(t *testing.T) {
	assertCanonical(t,
		`{`+d2020+`, "properties": {"a": {"type": "boolean"}}, "$defs": {"b": {"const": 1}}}`,
		`{`+d2020+`, "properties": {"a": {"enum": [false, true]}}, "$defs": {"b": {"enum": [1]}}}`)
}

func TestCanonicalizeInjectsDefaultDialect(t *testing.T) {
	schema := parse(t, `{"type": "boolean"}`)
	require.NoError(t, canonicalizer.Canonicalize(context.Background(), &schema, rules.ApplyOptions{
		DefaultDialect: jsonschema.Draft2020_12,
	}))
	assert.True(t, document.Equal(parse(t, `{`+d2020+`, "enum": [false, true]}`), schema))

	schema = parse(t, `{"type": "boolean"}`)
	err := canonicalizer.Canonicalize(context.Background(), &schema, rules.ApplyOptions{})
	assert.ErrorIs(t, err, jsonschema.ErrUnknownDialect)
}

func TestCanonicalizeBooleanSchemas(t *testing.T) {
	schema := parse(t, `true`)
	require.NoError(t, canonicalizer.Canonicalize(context.Background(), &schema, rules.ApplyOptions{
		DefaultDialect: jsonschema.Draft2020_12,
	}))
	assert.Equal(t, true, schema)
}

var corpus = []string{
	`{"type": "boolean"}`,
	`{"type": "null", "enum": [null, 1]}`,
	`{"type": ["string", "integer", "string"], "minimum": 1.5, "maxLength": 2}`,
	`{"type": ["object"], "maxProperties": 0, "required": ["a", "a"]}`,
	`{"const": "x", "enum": ["x", "y"]}`,
	`{"type": "integer", "exclusiveMaximum": 10.5, "exclusiveMinimum": 1, "minimum": 0, "maximum": 20}`,
	`{"type": "number", "minimum": 2, "maximum": 2, "multipleOf": 0.5}`,
	`{"type": "array", "maxItems": 1, "uniqueItems": true, "items": {"type": "string", "maxLength": 0}}`,
	`{"type": "array", "contains": {"type": "integer"}, "minContains": 1, "maxContains": 9, "maxItems": 4}`,
	`{"type": "object", "required": ["a"], "minProperties": 0, "dependentRequired": {"a": ["b"]}}`,
	`{"if": true, "then": false, "contentSchema": {}, "contentMediaType": "application/json"}`,
	`{"anyOf": [{"const": 1}, {"enum": [1]}], "allOf": [true, true], "oneOf": [{}, {}]}`,
	`{"type": "string", "enum": ["a"], "minimum": 1, "format": "date"}`,
	`{"properties": {"a": {"type": ["null", "boolean"]}}, "items": [{"type": "integer", "exclusiveMaximum": 0}]}`,
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	for _, src := range corpus {
		once := canonicalize(t, `{`+d2020+`, `+src[1:])
		twice := document.Clone(once)
		require.NoError(t, canonicalizer.Canonicalize(context.Background(), &twice, rules.ApplyOptions{}))
		assert.True(t, document.Equal(once, twice), "not idempotent for %s", src)

		rule, at, err := canonicalizer.Bundle().Check(context.Background(), once, rules.ApplyOptions{})
		require.NoError(t, err)
		assert.Empty(t, rule, "%s still matches at %q for %s", rule, at, src)
	}
}

func TestNoRuleRefiresAfterItsTransform(t *testing.T) {
	vocabs, err := jsonschema.ResolveVocabularies(context.Background(), nil, jsonschema.Draft2020_12)
	require.NoError(t, err)
	ctx := rules.Context{Dialect: jsonschema.Draft2020_12, Vocabularies: vocabs}

	fired := map[string]bool{}
	for _, r := range canonicalizer.Bundle().Rules() {
		for _, src := range corpus {
			schema := parse(t, src)
			ctx.Root = schema
			if !r.Condition(schema, ctx) {
				continue
			}
			fired[r.Name] = true
			r.Transform(&schema, ctx)
			assert.False(t, r.Condition(schema, ctx), "%s re-fires on %s", r.Name, src)
		}
	}
	assert.NotEmpty(t, fired)
}
