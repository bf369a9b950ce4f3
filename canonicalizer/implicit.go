package canonicalizer

import (
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// implicitDefault spells out a keyword whose absence already means value.
func implicitDefault(name, message, typeName, keyword string, vocab []string, value func() any) rules.Rule {
	return rules.Rule{
		Name:      name,
		Message:   message,
		Condition: rules.All(rules.Vocabulary(vocab...), typeIs(typeName), rules.LacksKeyword(keyword)),
		Transform: func(schema *any, _ rules.Context) {
			object(*schema)[keyword] = value()
		},
	}
}

// draft-04 requires at least one entry in required.
var requiredAllowsEmpty = []string{
	jsonschema.Vocab2020Validation, jsonschema.Vocab2019Validation,
	jsonschema.Draft7, jsonschema.Draft6,
}

func implicitRules() []rules.Rule {
	return []rules.Rule{
		implicitDefault("implicit_object_properties", "Objects have no declared properties by default",
			"object", "properties", applicator, func() any { return map[string]any{} }),
		implicitDefault("implicit_object_required", "Objects have no required properties by default",
			"object", "required", requiredAllowsEmpty, func() any { return []any{} }),
		implicitDefault("implicit_object_lower_bound", "Objects have at least zero properties",
			"object", "minProperties", validation, func() any { return int64(0) }),
		implicitDefault("implicit_array_lower_bound", "Arrays have at least zero items",
			"array", "minItems", validation, func() any { return int64(0) }),
		implicitDefault("implicit_string_lower_bound", "Strings have at least zero characters",
			"string", "minLength", validation, func() any { return int64(0) }),
		implicitDefault("implicit_unit_multiple_of", "Every integer is a multiple of one",
			"integer", "multipleOf", validation, func() any { return int64(1) }),
	}
}
