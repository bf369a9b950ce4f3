package canonicalizer

import (
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// dropKeyword removes keyword whenever cond holds.
func dropKeyword(name, message, keyword string, cond rules.Condition) rules.Rule {
	return rules.Rule{
		Name:      name,
		Message:   message,
		Condition: rules.All(rules.HasKeyword(keyword), cond),
		Transform: func(schema *any, _ rules.Context) {
			delete(object(*schema), keyword)
		},
	}
}

func superfluousRules() []rules.Rule {
	return []rules.Rule{
		dropKeyword("max_contains_without_contains", "maxContains does nothing without contains", "maxContains",
			rules.All(rules.Vocabulary(validationSince2019...), rules.LacksKeyword("contains"))),
		dropKeyword("min_contains_without_contains", "minContains does nothing without contains", "minContains",
			rules.All(rules.Vocabulary(validationSince2019...), rules.LacksKeyword("contains"))),
		dropKeyword("max_contains_covered_by_max_items", "maxContains cannot be exceeded within maxItems", "maxContains",
			rules.All(rules.Vocabulary(validationSince2019...), func(schema any, _ rules.Context) bool {
				m := object(schema)
				maxContains, ok := integerKeyword(m, "maxContains")
				if !ok {
					return false
				}
				maxItems, ok := integerKeyword(m, "maxItems")
				return ok && maxContains >= maxItems
			})),
		dropKeyword("if_without_then_else", "if does nothing without then or else", "if",
			rules.All(rules.Vocabulary(conditionals...), rules.LacksKeyword("then", "else"))),
		dropKeyword("then_without_if", "then does nothing without if", "then",
			rules.All(rules.Vocabulary(conditionals...), rules.LacksKeyword("if"))),
		dropKeyword("else_without_if", "else does nothing without if", "else",
			rules.All(rules.Vocabulary(conditionals...), rules.LacksKeyword("if"))),
		dropKeyword("content_schema_without_content_media_type", "contentSchema does nothing without contentMediaType", "contentSchema",
			rules.All(rules.Vocabulary(contentSince2019...), rules.LacksKeyword("contentMediaType"))),
		dependentRequiredTautology(),
		minPropertiesCoveredByRequired(),
		enumWithType(),
	}
}

func requiredNames(m map[string]any) []string {
	arr, _ := arrayKeyword(m, "required")
	seen := map[string]bool{}
	var out []string
	for _, v := range arr {
		if s, ok := v.(string); ok && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func dependentRequiredTautology() rules.Rule {
	triggered := func(m map[string]any) (string, bool) {
		deps, ok := m["dependentRequired"].(map[string]any)
		if !ok {
			return "", false
		}
		for _, name := range requiredNames(m) {
			if _, ok := deps[name]; ok {
				return name, true
			}
		}
		return "", false
	}
	return rules.Rule{
		Name:    "dependent_required_tautology",
		Message: "Dependencies of required properties are required too",
		Condition: rules.All(rules.Vocabulary(validationSince2019...), rules.HasKeyword("required"), func(schema any, _ rules.Context) bool {
			_, ok := triggered(object(schema))
			return ok
		}),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			deps := m["dependentRequired"].(map[string]any)
			required, _ := arrayKeyword(m, "required")
			for {
				name, ok := triggered(m)
				if !ok {
					break
				}
				extra, _ := deps[name].([]any)
				delete(deps, name)
				for _, e := range extra {
					if s, ok := e.(string); ok && !containsString(requiredNames(m), s) {
						required = append(required, s)
						m["required"] = required
					}
				}
			}
			if len(deps) == 0 {
				delete(m, "dependentRequired")
			}
		},
	}
}

func containsString(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func minPropertiesCoveredByRequired() rules.Rule {
	return rules.Rule{
		Name:    "min_properties_covered_by_required",
		Message: "An object has at least as many properties as it requires",
		Condition: rules.All(rules.Vocabulary(validation...), func(schema any, _ rules.Context) bool {
			m := object(schema)
			min, ok := integerKeyword(m, "minProperties")
			return ok && min < int64(len(requiredNames(m)))
		}),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			m["minProperties"] = int64(len(requiredNames(m)))
		},
	}
}

func enumWithType() rules.Rule {
	return rules.Rule{
		Name:    "enum_with_type",
		Message: "The type is redundant when every enumerated value has it",
		Condition: rules.All(rules.Vocabulary(validation...), func(schema any, _ rules.Context) bool {
			m := object(schema)
			name, ok := m["type"].(string)
			if !ok {
				return false
			}
			enum, ok := arrayKeyword(m, "enum")
			if !ok {
				return false
			}
			for _, v := range enum {
				if !matchesType(v, name) {
					return false
				}
			}
			return true
		}),
		Transform: func(schema *any, _ rules.Context) {
			delete(object(*schema), "type")
		},
	}
}
