package canonicalizer

import (
	"math"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// Vocabulary groups shared by the rule families.
var validation = []string{
	jsonschema.Vocab2020Validation, jsonschema.Vocab2019Validation,
	jsonschema.Draft7, jsonschema.Draft6, jsonschema.Draft4,
}

// Validation vocabularies that know const and numeric exclusive bounds.
var validationSince6 = []string{
	jsonschema.Vocab2020Validation, jsonschema.Vocab2019Validation,
	jsonschema.Draft7, jsonschema.Draft6,
}

var applicator = []string{
	jsonschema.Vocab2020Applicator, jsonschema.Vocab2019Applicator,
	jsonschema.Draft7, jsonschema.Draft6, jsonschema.Draft4,
}

var (
	validationSince2019 = []string{jsonschema.Vocab2020Validation, jsonschema.Vocab2019Validation}
	conditionals        = []string{jsonschema.Vocab2020Applicator, jsonschema.Vocab2019Applicator, jsonschema.Draft7}
	unevaluated         = []string{jsonschema.Vocab2020Unevaluated, jsonschema.Vocab2019Applicator}
	content             = []string{jsonschema.Vocab2020Content, jsonschema.Vocab2019Content, jsonschema.Draft7}
	contentSince2019    = []string{jsonschema.Vocab2020Content, jsonschema.Vocab2019Content}
)

func object(schema any) map[string]any {
	m, _ := schema.(map[string]any)
	return m
}

// typeIs holds when type is exactly one of names, written as a string.
func typeIs(names ...string) rules.Condition {
	return func(schema any, _ rules.Context) bool {
		t, ok := object(schema)["type"].(string)
		if !ok {
			return false
		}
		for _, n := range names {
			if t == n {
				return true
			}
		}
		return false
	}
}

// typedOrEnumerated holds like typeIs, and also for untyped schemas whose
// enum values all are of one of names. The type of such a schema is implied by
// its enum once enum_with_type has removed it.
func typedOrEnumerated(names ...string) rules.Condition {
	return rules.Any(typeIs(names...), func(schema any, _ rules.Context) bool {
		m := object(schema)
		if _, ok := m["type"]; ok {
			return false
		}
		enum, ok := arrayKeyword(m, "enum")
		if !ok || len(enum) == 0 {
			return false
		}
		for _, v := range enum {
			if !matchesAnyType(v, names) {
				return false
			}
		}
		return true
	})
}

func matchesAnyType(v any, names []string) bool {
	for _, n := range names {
		if matchesType(v, n) {
			return true
		}
	}
	return false
}

func integerKeyword(m map[string]any, name string) (int64, bool) {
	return document.Integral(m[name])
}

func numberKeyword(m map[string]any, name string) (float64, bool) {
	f, ok := document.Number(m[name])
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func arrayKeyword(m map[string]any, name string) ([]any, bool) {
	a, ok := m[name].([]any)
	return a, ok
}

// matchesType reports whether a value is an instance of a JSON Schema type
// name.
func matchesType(v any, name string) bool {
	switch name {
	case "null":
		return v == nil
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "integer":
		_, ok := document.Integral(v)
		return ok
	case "number":
		return document.IsNumber(v)
	case "string":
		_, ok := v.(string)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	}
	return false
}

// setConst pins a schema to a single value. An existing enum is narrowed
// instead, and dialects that predate const get an enum.
func setConst(m map[string]any, v any, ctx rules.Context) {
	if enum, ok := arrayKeyword(m, "enum"); ok {
		if document.Index(enum, v) < 0 {
			m["enum"] = []any{}
		} else {
			m["enum"] = []any{v}
		}
		return
	}
	if ctx.Vocabularies.HasAny(validationSince6...) {
		m["const"] = v
		return
	}
	m["enum"] = []any{v}
}

// fitsInt64 reports whether f can be rounded into an int64 with a margin of
// one for the bound adjustments.
func fitsInt64(f float64) bool {
	return f > math.MinInt64+1024 && f < math.MaxInt64-1024
}
