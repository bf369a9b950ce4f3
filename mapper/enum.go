package mapper

import (
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// maxByteChoices is the largest enumeration whose index fits a byte.
const maxByteChoices = 256

func enumSize(pred func(n int) bool) rules.Condition {
	return rules.All(rules.SchemaDialect(), func(schema any, _ rules.Context) bool {
		enum, ok := object(schema)["enum"].([]any)
		return ok && pred(len(enum))
	})
}

func enumRule(name, message string, enc encoding.Name, cond rules.Condition, option string) rules.Rule {
	return rules.Rule{
		Name:      name,
		Message:   message,
		Condition: cond,
		Transform: func(schema *any, _ rules.Context) {
			enum := object(*schema)["enum"].([]any)
			var value any = enum
			if option == "value" {
				value = enum[0]
			}
			*schema = describe(enc, map[string]any{option: value})
		},
	}
}

func enumRules() []rules.Rule {
	small := func(n int) bool { return n > 1 && n <= maxByteChoices }
	return []rules.Rule{
		enumRule("enum_singleton", "A single possible value needs no bytes",
			encoding.ConstNone,
			enumSize(func(n int) bool { return n == 1 }), "value"),
		enumRule("top_level_enum_8_bit", "A small enumeration at the top of the document takes at most one byte",
			encoding.TopLevelByteChoiceIndex,
			rules.All(rules.AtRoot(), enumSize(small)), "choices"),
		enumRule("enum_8_bit", "A small enumeration takes one byte",
			encoding.ByteChoiceIndex,
			rules.All(rules.Not(rules.AtRoot()), enumSize(small)), "choices"),
		enumRule("enum_arbitrary", "A large enumeration is stored by varint index",
			encoding.LargeChoiceIndex,
			enumSize(func(n int) bool { return n > maxByteChoices }), "choices"),
	}
}
