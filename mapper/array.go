package mapper

import (
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

type arrayShape struct {
	minimum    uint64
	maximum    uint64
	hasMaximum bool
}

func readArray(m map[string]any) arrayShape {
	var s arrayShape
	s.minimum, _ = natural(m, "minItems")
	s.maximum, s.hasMaximum = natural(m, "maxItems")
	return s
}

func (s arrayShape) fixed() bool { return s.hasMaximum && s.minimum == s.maximum }

func (s arrayShape) byteRange() bool {
	return s.hasMaximum && s.minimum < s.maximum && s.maximum-s.minimum <= 255
}

// itemSchemas splits the item schemas of an array schema into the positional
// prefix and the schema for every other item.
func itemSchemas(m map[string]any, ctx rules.Context) (prefix []any, tail any) {
	tail = true
	if ctx.Vocabularies.Has(jsonschema.Vocab2020Applicator) {
		prefix, _ = m["prefixItems"].([]any)
		if items, ok := m["items"]; ok {
			tail = items
		}
		return prefix, tail
	}
	switch items := m["items"].(type) {
	case []any:
		prefix = items
		if additional, ok := m["additionalItems"]; ok {
			tail = additional
		}
	case nil:
	default:
		tail = items
	}
	return prefix, tail
}

func arrayRule(name, message string, pred func(arrayShape) bool, options func(arrayShape) (encoding.Name, map[string]any)) rules.Rule {
	return rules.Rule{
		Name:    name,
		Message: message,
		Condition: rules.All(typed("array"), func(schema any, _ rules.Context) bool {
			return pred(readArray(object(schema)))
		}),
		Transform: func(schema *any, ctx rules.Context) {
			m := object(*schema)
			name, opts := options(readArray(m))
			prefix, tail := itemSchemas(m, ctx)
			encodings := make([]any, 0, len(prefix))
			for _, p := range prefix {
				encodings = append(encodings, embed(p, ctx.Dialect))
			}
			opts["prefixEncodings"] = encodings
			opts["encoding"] = embed(tail, ctx.Dialect)
			*schema = describe(name, opts)
		},
	}
}

func arrayRules() []rules.Rule {
	return []rules.Rule{
		arrayRule("array_fixed_length", "An array of known length needs no length",
			arrayShape.fixed,
			func(s arrayShape) (encoding.Name, map[string]any) {
				return encoding.FixedTypedArray, map[string]any{"size": int64(s.maximum)}
			}),
		arrayRule("array_bounded_8_bit", "A narrow length range fits a one byte length",
			arrayShape.byteRange,
			func(s arrayShape) (encoding.Name, map[string]any) {
				return encoding.Bounded8BitsTypedArray, map[string]any{
					"minimum": int64(s.minimum), "maximum": int64(s.maximum),
				}
			}),
		arrayRule("array_upper_bound", "An array with a maximum length stores its distance below it",
			func(s arrayShape) bool { return s.hasMaximum && !s.fixed() && !s.byteRange() },
			func(s arrayShape) (encoding.Name, map[string]any) {
				return encoding.RoofTypedArray, map[string]any{"maximum": int64(s.maximum)}
			}),
		arrayRule("array_lower_bound", "An array without a maximum length stores its distance above the minimum",
			func(s arrayShape) bool { return !s.hasMaximum },
			func(s arrayShape) (encoding.Name, map[string]any) {
				return encoding.FloorTypedArray, map[string]any{"minimum": int64(s.minimum)}
			}),
	}
}
