package mapper

import (
	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// integerShape is what the integer encodings need to know about a schema.
type integerShape struct {
	minimum, maximum       int64
	hasMinimum, hasMaximum bool
	multiplier             uint64
}

// readInteger extracts the bounds and multiplier of an integer schema. Bounds
// that are not integral and multipliers that are not positive integers are
// left for the fallback.
func readInteger(m map[string]any) (integerShape, bool) {
	s := integerShape{multiplier: 1}
	var ok bool
	if _, present := m["minimum"]; present {
		if s.minimum, ok = document.Integral(m["minimum"]); !ok {
			return s, false
		}
		s.hasMinimum = true
	}
	if _, present := m["maximum"]; present {
		if s.maximum, ok = document.Integral(m["maximum"]); !ok {
			return s, false
		}
		s.hasMaximum = true
	}
	if raw, present := m["multipleOf"]; present {
		n, ok := document.Integral(raw)
		if !ok || n <= 0 {
			return s, false
		}
		s.multiplier = uint64(n)
	}
	return s, true
}

func (s integerShape) bounded() bool { return s.hasMinimum && s.hasMaximum }

// byteUnit holds for bounded unit ranges of at most 256 values.
func (s integerShape) byteUnit() bool {
	return s.bounded() && s.multiplier == 1 && s.minimum <= s.maximum &&
		uint64(s.maximum)-uint64(s.minimum) <= 255
}

// byteMultiple holds for bounded ranges whose multiples fit a byte index.
func (s integerShape) byteMultiple() bool {
	if !s.bounded() || s.multiplier == 1 {
		return false
	}
	states, complete := EnumerateStates(s.minimum, s.maximum, s.multiplier, maxByteChoices)
	return complete && len(states) > 0
}

func integerRule(name, message string, pred func(integerShape) bool, transform func(integerShape) map[string]any) rules.Rule {
	return rules.Rule{
		Name:    name,
		Message: message,
		Condition: rules.All(typed("integer"), func(schema any, _ rules.Context) bool {
			s, ok := readInteger(object(schema))
			return ok && pred(s)
		}),
		Transform: func(schema *any, _ rules.Context) {
			s, _ := readInteger(object(*schema))
			*schema = transform(s)
		},
	}
}

func floorMultiple(s integerShape) map[string]any {
	return describe(encoding.FloorMultipleEnumVarint, map[string]any{
		"minimum": s.minimum, "multiplier": int64(s.multiplier),
	})
}

func bounded8Bits(s integerShape) map[string]any {
	return describe(encoding.BoundedMultiple8BitsEnumFixed, map[string]any{
		"minimum": s.minimum, "maximum": s.maximum, "multiplier": int64(s.multiplier),
	})
}

func integerRules() []rules.Rule {
	return []rules.Rule{
		integerRule("integer_bounded_8_bit", "A small integer range fits a byte",
			integerShape.byteUnit, bounded8Bits),
		integerRule("integer_bounded_multiplier_8_bit", "The multiples of a bounded range fit a byte",
			integerShape.byteMultiple, bounded8Bits),
		integerRule("integer_bounded_greater_than_8_bit", "A wide integer range is stored as a varint offset from its minimum",
			func(s integerShape) bool { return s.bounded() && !s.byteUnit() && !s.byteMultiple() },
			floorMultiple),
		integerRule("integer_upper_bound", "An integer with a maximum is stored as its distance below it",
			func(s integerShape) bool { return s.hasMaximum && !s.hasMinimum },
			func(s integerShape) map[string]any {
				return describe(encoding.RoofMultipleMirrorEnumVarint, map[string]any{
					"maximum": s.maximum, "multiplier": int64(s.multiplier),
				})
			}),
		integerRule("integer_lower_bound", "An integer with a minimum is stored as its distance above it",
			func(s integerShape) bool { return s.hasMinimum && !s.hasMaximum },
			floorMultiple),
		integerRule("integer_unbound", "An unbounded integer is stored as a zigzag varint",
			func(s integerShape) bool { return !s.hasMinimum && !s.hasMaximum },
			func(s integerShape) map[string]any {
				return describe(encoding.ArbitraryMultipleZigzagVarint, map[string]any{
					"multiplier": int64(s.multiplier),
				})
			}),
	}
}
