package mapper

import (
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

var formatVocabularies = []string{
	jsonschema.Vocab2020FormatAnnotation, jsonschema.Vocab2020FormatAssertion,
	jsonschema.Vocab2019Format,
	jsonschema.Draft7, jsonschema.Draft6, jsonschema.Draft4,
}

// stringShape holds string length bounds in code points.
type stringShape struct {
	minimum    uint64
	maximum    uint64
	hasMaximum bool
	date       bool
}

func readString(m map[string]any, ctx rules.Context) stringShape {
	var s stringShape
	s.minimum, _ = natural(m, "minLength")
	s.maximum, s.hasMaximum = natural(m, "maxLength")
	s.date = m["format"] == "date" && ctx.Vocabularies.HasAny(formatVocabularies...)
	return s
}

func (s stringShape) exact() bool { return !s.date && s.hasMaximum && s.minimum == s.maximum }

func (s stringShape) byteRange() bool {
	return !s.date && s.hasMaximum && s.minimum < s.maximum && s.maximum-s.minimum < 255
}

func stringRule(name, message string, pred func(stringShape) bool, transform func(stringShape) map[string]any) rules.Rule {
	return rules.Rule{
		Name:    name,
		Message: message,
		Condition: rules.All(typed("string"), func(schema any, ctx rules.Context) bool {
			return pred(readString(object(schema), ctx))
		}),
		Transform: func(schema *any, ctx rules.Context) {
			*schema = transform(readString(object(*schema), ctx))
		},
	}
}

func stringRules() []rules.Rule {
	return []rules.Rule{
		stringRule("string_date", "A full-date is stored as year, month and day",
			func(s stringShape) bool { return s.date },
			func(stringShape) map[string]any { return describe(encoding.RFC3339DateIntegerTriplet, nil) }),
		stringRule("string_exact_length", "A string of known length needs no length prefix",
			stringShape.exact,
			func(s stringShape) map[string]any {
				return describe(encoding.UTF8StringNoLength, map[string]any{"size": int64(s.maximum)})
			}),
		stringRule("string_bounded_8_bit", "A narrow length range fits a one byte prefix",
			stringShape.byteRange,
			func(s stringShape) map[string]any {
				return describe(encoding.Bounded8BitPrefixUTF8StringShared, map[string]any{
					"minimum": int64(s.minimum), "maximum": int64(s.maximum),
				})
			}),
		stringRule("string_upper_bound", "A string with a maximum length stores its distance below it",
			func(s stringShape) bool { return !s.date && s.hasMaximum && !s.exact() && !s.byteRange() },
			func(s stringShape) map[string]any {
				return describe(encoding.RoofVarintPrefixUTF8StringShared, map[string]any{"maximum": int64(s.maximum)})
			}),
		stringRule("string_lower_bound", "A string with a minimum length stores its distance above it",
			func(s stringShape) bool { return !s.date && !s.hasMaximum && s.minimum > 0 },
			func(s stringShape) map[string]any {
				return describe(encoding.FloorVarintPrefixUTF8StringShared, map[string]any{"minimum": int64(s.minimum)})
			}),
		stringRule("string_unbound", "An unconstrained string is stored with its byte length",
			func(s stringShape) bool { return !s.date && !s.hasMaximum && s.minimum == 0 },
			func(stringShape) map[string]any { return describe(encoding.PrefixVarintLengthStringShared, nil) }),
	}
}
