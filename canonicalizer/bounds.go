package canonicalizer

import (
	"math"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// exclusiveAsInclusive converts an exclusive bound of an integer schema into
// the nearest inclusive one: ceil(x)-1 for maxima, floor(x)+1 for minima.
func exclusiveAsInclusive(v any, upper bool) (int64, bool) {
	if i, ok := document.Integer(v); ok {
		if upper && i > math.MinInt64 {
			return i - 1, true
		}
		if !upper && i < math.MaxInt64 {
			return i + 1, true
		}
		return 0, false
	}
	f, ok := document.Number(v)
	if !ok || !fitsInt64(f) {
		return 0, false
	}
	if upper {
		return int64(math.Ceil(f)) - 1, true
	}
	return int64(math.Floor(f)) + 1, true
}

func exclusiveMaximumIntegerToMaximum() rules.Rule {
	return rules.Rule{
		Name:    "exclusive_maximum_integer_to_maximum",
		Message: "An exclusive maximum on integers is an inclusive maximum one below",
		Condition: rules.All(rules.Vocabulary(validationSince6...), typeIs("integer"), func(schema any, _ rules.Context) bool {
			_, ok := exclusiveAsInclusive(object(schema)["exclusiveMaximum"], true)
			return ok
		}),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			bound, _ := exclusiveAsInclusive(m["exclusiveMaximum"], true)
			if current, ok := m["maximum"]; !ok || !document.IsNumber(current) || document.Compare(int64(bound), current) < 0 {
				m["maximum"] = bound
			}
			delete(m, "exclusiveMaximum")
		},
	}
}

func exclusiveMinimumIntegerToMinimum() rules.Rule {
	return rules.Rule{
		Name:    "exclusive_minimum_integer_to_minimum",
		Message: "An exclusive minimum on integers is an inclusive minimum one above",
		Condition: rules.All(rules.Vocabulary(validationSince6...), typeIs("integer"), func(schema any, _ rules.Context) bool {
			_, ok := exclusiveAsInclusive(object(schema)["exclusiveMinimum"], false)
			return ok
		}),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			bound, _ := exclusiveAsInclusive(m["exclusiveMinimum"], false)
			if current, ok := m["minimum"]; !ok || !document.IsNumber(current) || document.Compare(int64(bound), current) > 0 {
				m["minimum"] = bound
			}
			delete(m, "exclusiveMinimum")
		},
	}
}

func exclusiveMaximumAndMaximum() rules.Rule {
	return rules.Rule{
		Name:    "exclusive_maximum_and_maximum",
		Message: "Only the more restrictive of maximum and exclusiveMaximum matters",
		Condition: rules.All(rules.Vocabulary(validationSince6...), func(schema any, _ rules.Context) bool {
			m := object(schema)
			return document.IsNumber(m["maximum"]) && document.IsNumber(m["exclusiveMaximum"])
		}),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			if document.Compare(m["maximum"], m["exclusiveMaximum"]) < 0 {
				delete(m, "exclusiveMaximum")
			} else {
				delete(m, "maximum")
			}
		},
	}
}

func exclusiveMinimumAndMinimum() rules.Rule {
	return rules.Rule{
		Name:    "exclusive_minimum_and_minimum",
		Message: "Only the more restrictive of minimum and exclusiveMinimum matters",
		Condition: rules.All(rules.Vocabulary(validationSince6...), func(schema any, _ rules.Context) bool {
			m := object(schema)
			return document.IsNumber(m["minimum"]) && document.IsNumber(m["exclusiveMinimum"])
		}),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			if document.Compare(m["minimum"], m["exclusiveMinimum"]) > 0 {
				delete(m, "exclusiveMinimum")
			} else {
				delete(m, "minimum")
			}
		},
	}
}

// exclusiveFlagIntegerToInclusive folds a draft-04 boolean exclusive flag
// into the bound it modifies.
func exclusiveFlagIntegerToInclusive(name, flag, bound string, upper bool) rules.Rule {
	return rules.Rule{
		Name:    name,
		Message: "An exclusive " + bound + " on integers is an inclusive one a step inwards",
		Condition: rules.All(rules.Vocabulary(jsonschema.Draft4), typeIs("integer"), func(schema any, _ rules.Context) bool {
			m := object(schema)
			if m[flag] != true {
				return false
			}
			_, ok := exclusiveAsInclusive(m[bound], upper)
			return ok
		}),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			inclusive, _ := exclusiveAsInclusive(m[bound], upper)
			m[bound] = inclusive
			delete(m, flag)
		},
	}
}

// realBound holds when keyword is a number of real kind that can be rounded
// into an integer. Bounds still modified by a boolean exclusive flag are left
// alone.
func realBound(keyword, flag string) rules.Condition {
	return func(schema any, _ rules.Context) bool {
		if object(schema)[flag] == true {
			return false
		}
		v := object(schema)[keyword]
		if document.KindOf(v) != document.KindReal {
			return false
		}
		f, ok := document.Number(v)
		return ok && fitsInt64(f)
	}
}

func integerRealMinimum() rules.Rule {
	return rules.Rule{
		Name:      "integer_real_minimum",
		Message:   "A real minimum on integers rounds up",
		Condition: rules.All(rules.Vocabulary(validation...), typeIs("integer"), realBound("minimum", "exclusiveMinimum")),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			f, _ := document.Number(m["minimum"])
			m["minimum"] = int64(math.Ceil(f))
		},
	}
}

func integerRealMaximum() rules.Rule {
	return rules.Rule{
		Name:      "integer_real_maximum",
		Message:   "A real maximum on integers rounds down",
		Condition: rules.All(rules.Vocabulary(validation...), typeIs("integer"), realBound("maximum", "exclusiveMaximum")),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			f, _ := document.Number(m["maximum"])
			m["maximum"] = int64(math.Floor(f))
		},
	}
}

func integerRealMultipleOf() rules.Rule {
	return rules.Rule{
		Name:    "integer_real_multiple_of",
		Message: "An integral real multipleOf is an integer",
		Condition: rules.All(rules.Vocabulary(validation...), typeIs("integer"), func(schema any, _ rules.Context) bool {
			v := object(schema)["multipleOf"]
			if document.KindOf(v) != document.KindReal {
				return false
			}
			_, ok := document.Integral(v)
			return ok
		}),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			i, _ := document.Integral(m["multipleOf"])
			m["multipleOf"] = i
		},
	}
}
