package mapper

import (
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// arbitraryObject holds for objects whose every value shares one schema.
func arbitraryObject(schema any, _ rules.Context) bool {
	m := object(schema)
	if _, ok := m["patternProperties"]; ok {
		return false
	}
	props, ok := m["properties"]
	if !ok {
		return true
	}
	p, ok := props.(map[string]any)
	return ok && len(p) == 0
}

func fixedSize(m map[string]any) (uint64, bool) {
	lo, ok := natural(m, "minProperties")
	if !ok {
		return 0, false
	}
	hi, ok := natural(m, "maxProperties")
	return hi, ok && lo == hi
}

// keySchema is the schema for property names. Keys are always strings.
func keySchema(m map[string]any, dialect string) any {
	names, ok := m["propertyNames"]
	if !ok {
		names = true
	}
	key := embed(names, dialect).(map[string]any)
	if _, ok := key["type"]; !ok {
		if _, ok := key["enum"]; !ok {
			key["type"] = "string"
		}
	}
	return key
}

func objectRule(name, message string, fixed bool) rules.Rule {
	return rules.Rule{
		Name:    name,
		Message: message,
		Condition: rules.All(typed("object"), arbitraryObject, func(schema any, _ rules.Context) bool {
			_, ok := fixedSize(object(schema))
			return ok == fixed
		}),
		Transform: func(schema *any, ctx rules.Context) {
			m := object(*schema)
			values, ok := m["additionalProperties"]
			if !ok {
				values = true
			}
			opts := map[string]any{
				"keyEncoding": keySchema(m, ctx.Dialect),
				"encoding":    embed(values, ctx.Dialect),
			}
			enc := encoding.VarintTypedArbitraryObject
			if size, ok := fixedSize(m); ok {
				enc = encoding.FixedTypedArbitraryObject
				opts["size"] = int64(size)
			}
			*schema = describe(enc, opts)
		},
	}
}

func objectRules() []rules.Rule {
	return []rules.Rule{
		objectRule("object_fixed_size", "An object of known size needs no size", true),
		objectRule("object_arbitrary", "An object stores its size as a varint", false),
	}
}
