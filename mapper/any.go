package mapper

import (
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// anyFallback must stay last: it matches every schema node the other rules
// leave behind, boolean schemas included.
func anyFallback() rules.Rule {
	return rules.Rule{
		Name:      "any_packed",
		Message:   "A schema without exploitable constraints is stored with a type tag",
		Condition: rules.SchemaDialect(),
		Transform: func(schema *any, _ rules.Context) {
			*schema = describe(encoding.AnyPackedTypeTagBytePrefix, nil)
		},
	}
}
