package canonicalizer

import (
	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// Keywords that give a schema an identity; duplicating them would break
// references.
var identifiers = []string{"$id", "id", "$anchor", "$dynamicAnchor", "$recursiveAnchor"}

func defaultMetaschema() rules.Rule {
	return rules.Rule{
		Name:    "default_metaschema",
		Message: "The root schema declares its dialect",
		Condition: rules.All(
			rules.AtRoot(),
			rules.LacksKeyword("$schema"),
			func(_ any, ctx rules.Context) bool { return ctx.Dialect != "" },
		),
		Transform: func(schema *any, ctx rules.Context) {
			object(*schema)["$schema"] = ctx.Dialect
		},
	}
}

// keepOfType keeps the enum entries that are instances of a type, or returns
// fallback when there is no enum.
func keepOfType(m map[string]any, name string, fallback []any) []any {
	enum, ok := arrayKeyword(m, "enum")
	if !ok {
		return fallback
	}
	out := []any{}
	for _, v := range enum {
		if matchesType(v, name) {
			out = append(out, v)
		}
	}
	return out
}

func typeNullAsEnum() rules.Rule {
	return rules.Rule{
		Name:      "type_null_as_enum",
		Message:   "Setting type to null is the same as an enum of null",
		Condition: rules.All(rules.Vocabulary(validation...), typeIs("null")),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			m["enum"] = keepOfType(m, "null", []any{nil})
			delete(m, "type")
		},
	}
}

func typeBooleanAsEnum() rules.Rule {
	return rules.Rule{
		Name:      "type_boolean_as_enum",
		Message:   "Setting type to boolean is the same as an enum of false and true",
		Condition: rules.All(rules.Vocabulary(validation...), typeIs("boolean")),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			m["enum"] = keepOfType(m, "boolean", []any{false, true})
			delete(m, "type")
		},
	}
}

func constAsEnum() rules.Rule {
	return rules.Rule{
		Name:      "const_as_enum",
		Message:   "A const is an enum of one value",
		Condition: rules.All(rules.Vocabulary(validationSince6...), rules.HasKeyword("const")),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			value := m["const"]
			if enum, ok := arrayKeyword(m, "enum"); ok {
				if document.Index(enum, value) < 0 {
					m["enum"] = []any{}
				} else {
					m["enum"] = []any{value}
				}
			} else {
				m["enum"] = []any{value}
			}
			delete(m, "const")
		},
	}
}

// typeNames returns the distinct entries of a type array, in order, when every
// entry is a string.
func typeNames(m map[string]any) ([]string, bool) {
	arr, ok := arrayKeyword(m, "type")
	if !ok || len(arr) == 0 {
		return nil, false
	}
	seen := map[string]bool{}
	var out []string
	for _, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, true
}

func singleTypeArray() rules.Rule {
	return rules.Rule{
		Name:    "single_type_array",
		Message: "A type array with one entry is the same as that type",
		Condition: rules.All(rules.Vocabulary(validation...), func(schema any, _ rules.Context) bool {
			names, ok := typeNames(object(schema))
			return ok && len(names) == 1
		}),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			names, _ := typeNames(m)
			m["type"] = names[0]
		},
	}
}

func typeUnionAsAnyOf() rules.Rule {
	return rules.Rule{
		Name:    "type_union_as_anyof",
		Message: "A type union is an anyOf of one branch per type",
		Condition: rules.All(
			rules.Vocabulary(validation...),
			rules.Vocabulary(applicator...),
			rules.LacksKeyword(identifiers...),
			func(schema any, _ rules.Context) bool {
				names, ok := typeNames(object(schema))
				return ok && len(names) > 1
			},
		),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			names, _ := typeNames(m)
			top := map[string]any{}
			for _, k := range []string{"$schema", "$defs", "definitions"} {
				if v, ok := m[k]; ok {
					top[k] = v
				}
			}
			branches := make([]any, 0, len(names))
			for _, name := range names {
				branch := map[string]any{}
				for k, v := range m {
					if _, kept := top[k]; kept {
						continue
					}
					branch[k] = document.Clone(v)
				}
				branch["type"] = name
				branches = append(branches, branch)
			}
			top["anyOf"] = branches
			*schema = top
		},
	}
}
