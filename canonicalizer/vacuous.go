package canonicalizer

import (
	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// emptyAsConst pins a schema whose upper bound keyword is zero to the empty
// value of its type, written or implied by its enum. Other keywords stay, so
// an unsatisfiable schema stays unsatisfiable.
func emptyAsConst(name, message, typeName, bound string, empty func() any) rules.Rule {
	return rules.Rule{
		Name:    name,
		Message: message,
		Condition: rules.All(rules.Vocabulary(validation...), typedOrEnumerated(typeName), rules.LacksKeyword("const"),
			func(schema any, _ rules.Context) bool {
				n, ok := integerKeyword(object(schema), bound)
				return ok && n == 0
			}),
		Transform: func(schema *any, ctx rules.Context) {
			m := object(*schema)
			delete(m, bound)
			setConst(m, empty(), ctx)
		},
	}
}

func vacuousRules() []rules.Rule {
	return []rules.Rule{
		emptyAsConst("empty_object_as_const", "An object without properties is the empty object",
			"object", "maxProperties", func() any { return map[string]any{} }),
		emptyAsConst("empty_array_as_const", "An array without items is the empty array",
			"array", "maxItems", func() any { return []any{} }),
		emptyAsConst("empty_string_as_const", "A string without characters is the empty string",
			"string", "maxLength", func() any { return "" }),
		equalNumericBoundsAsConst(),
	}
}

func equalNumericBoundsAsConst() rules.Rule {
	return rules.Rule{
		Name:    "equal_numeric_bounds_as_const",
		Message: "A number between equal bounds is that number",
		Condition: rules.All(rules.Vocabulary(validation...), typedOrEnumerated("integer", "number"), rules.LacksKeyword("const"),
			func(schema any, _ rules.Context) bool {
				m := object(schema)
				// draft-04 boolean exclusive flags modify the bounds.
				if m["exclusiveMinimum"] == true || m["exclusiveMaximum"] == true {
					return false
				}
				if _, ok := numberKeyword(m, "minimum"); !ok {
					return false
				}
				if _, ok := numberKeyword(m, "maximum"); !ok {
					return false
				}
				return document.Equal(m["minimum"], m["maximum"])
			}),
		Transform: func(schema *any, ctx rules.Context) {
			m := object(*schema)
			value := m["minimum"]
			delete(m, "minimum")
			delete(m, "maximum")
			setConst(m, value, ctx)
		},
	}
}
