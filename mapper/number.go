package mapper

import (
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

func numberRules() []rules.Rule {
	return []rules.Rule{{
		Name:      "number_arbitrary",
		Message:   "A real number is stored as its digits and decimal point position",
		Condition: typed("number"),
		Transform: func(schema *any, _ rules.Context) {
			*schema = describe(encoding.DoubleVarintTuple, nil)
		},
	}}
}
