package canonicalizer

import (
	"sort"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

type family int

const (
	familyObject family = iota
	familyArray
	familyString
	familyNumeric
)

type typedKeyword struct {
	family family
	vocab  []string
}

// Keywords that only constrain instances of one type family.
var typedKeywords = map[string]typedKeyword{
	"properties":            {familyObject, applicator},
	"patternProperties":     {familyObject, applicator},
	"additionalProperties":  {familyObject, applicator},
	"propertyNames":         {familyObject, applicator},
	"dependentSchemas":      {familyObject, applicator},
	"dependencies":          {familyObject, validation},
	"unevaluatedProperties": {familyObject, unevaluated},
	"minProperties":         {familyObject, validation},
	"maxProperties":         {familyObject, validation},
	"required":              {familyObject, validation},
	"dependentRequired":     {familyObject, validationSince2019},

	"prefixItems":      {familyArray, applicator},
	"items":            {familyArray, applicator},
	"additionalItems":  {familyArray, applicator},
	"contains":         {familyArray, applicator},
	"unevaluatedItems": {familyArray, unevaluated},
	"minItems":         {familyArray, validation},
	"maxItems":         {familyArray, validation},
	"uniqueItems":      {familyArray, validation},
	"minContains":      {familyArray, validationSince2019},
	"maxContains":      {familyArray, validationSince2019},

	"minLength":        {familyString, validation},
	"maxLength":        {familyString, validation},
	"pattern":          {familyString, validation},
	"contentEncoding":  {familyString, content},
	"contentMediaType": {familyString, content},
	"contentSchema":    {familyString, contentSince2019},

	"minimum":          {familyNumeric, validation},
	"maximum":          {familyNumeric, validation},
	"exclusiveMinimum": {familyNumeric, validation},
	"exclusiveMaximum": {familyNumeric, validation},
	"multipleOf":       {familyNumeric, validation},
}

// kindTypeName maps a value to the type name used for narrowing. Integers and
// reals share "number".
func kindTypeName(v any) string {
	switch document.KindOf(v) {
	case document.KindInteger, document.KindReal:
		return "number"
	default:
		return document.KindOf(v).String()
	}
}

// effectiveType is the single JSON type a schema admits: its type keyword, or
// the common type of its enumerated values.
func effectiveType(m map[string]any) (string, bool) {
	if raw, present := m["type"]; present {
		t, ok := raw.(string)
		if t == "integer" {
			t = "number"
		}
		return t, ok
	}
	enum, ok := arrayKeyword(m, "enum")
	if !ok || len(enum) == 0 {
		return "", false
	}
	t := kindTypeName(enum[0])
	for _, v := range enum[1:] {
		if kindTypeName(v) != t {
			return "", false
		}
	}
	return t, true
}

// inapplicable lists the keywords of in-use vocabularies that cannot constrain
// an instance of the given families.
func inapplicable(m map[string]any, ctx rules.Context, keep map[family]bool) []string {
	var out []string
	for k := range m {
		tk, ok := typedKeywords[k]
		if !ok || keep[tk.family] || !ctx.Vocabularies.HasAny(tk.vocab...) {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func dropNonType(name, typeName string, keep ...family) rules.Rule {
	keepSet := map[family]bool{}
	for _, f := range keep {
		keepSet[f] = true
	}
	return rules.Rule{
		Name:    name,
		Message: "Keywords that cannot apply to " + typeName + " instances are redundant",
		Condition: func(schema any, ctx rules.Context) bool {
			m := object(schema)
			if m == nil {
				return false
			}
			t, ok := effectiveType(m)
			return ok && t == typeName && len(inapplicable(m, ctx, keepSet)) > 0
		},
		Transform: func(schema *any, ctx rules.Context) {
			m := object(*schema)
			for _, k := range inapplicable(m, ctx, keepSet) {
				delete(m, k)
			}
		},
	}
}

func narrowingRules() []rules.Rule {
	return []rules.Rule{
		dropNonType("drop_non_null_keywords", "null"),
		dropNonType("drop_non_boolean_keywords", "boolean"),
		dropNonType("drop_non_numeric_keywords", "number", familyNumeric),
		dropNonType("drop_non_string_keywords", "string", familyString),
		dropNonType("drop_non_object_keywords", "object", familyObject),
		dropNonType("drop_non_array_keywords", "array", familyArray),
	}
}
