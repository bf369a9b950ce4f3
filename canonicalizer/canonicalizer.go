// Package canonicalizer rewrites JSON Schemas into a normal form: syntax
// sugar is expanded, implicit defaults are made explicit and redundant or
// inapplicable keywords are removed, so that the mapper only has to recognise
// a few shapes.
package canonicalizer

import (
	"context"
	"fmt"

	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// BundleName names the canonicalizer bundle in errors and logs.
const BundleName = "canonicalizer"

// Bundle returns a fresh bundle holding every canonicalization rule in firing
// order.
func Bundle() *rules.Bundle {
	b := rules.NewBundle(BundleName,
		defaultMetaschema(),

		typeNullAsEnum(),
		typeBooleanAsEnum(),
		constAsEnum(),
		singleTypeArray(),
		typeUnionAsAnyOf(),

		duplicateEntries("duplicate_enum_values", "enum", validation),
		duplicateEntries("duplicate_required_values", "required", validation),
		duplicateEntries("duplicate_allof_branches", "allOf", applicator),
		duplicateEntries("duplicate_anyof_branches", "anyOf", applicator),
		duplicateEntries("duplicate_oneof_branches", "oneOf", applicator),
		uniqueItemsImpliedByMaxItems(),
		uniqueItemsImpliedByEnum(),

		exclusiveMaximumIntegerToMaximum(),
		exclusiveMinimumIntegerToMinimum(),
		exclusiveMaximumAndMaximum(),
		exclusiveMinimumAndMinimum(),
		exclusiveFlagIntegerToInclusive("exclusive_maximum_flag_integer_to_maximum", "exclusiveMaximum", "maximum", true),
		exclusiveFlagIntegerToInclusive("exclusive_minimum_flag_integer_to_minimum", "exclusiveMinimum", "minimum", false),
		integerRealMinimum(),
		integerRealMaximum(),
		integerRealMultipleOf(),
	)
	for _, group := range [][]rules.Rule{implicitRules(), superfluousRules(), vacuousRules(), narrowingRules()} {
		for _, r := range group {
			b.Add(r)
		}
	}
	return b
}

// maxRounds bounds the number of whole-document passes.
const maxRounds = 32

// Canonicalize rewrites schema in place into canonical form. Passes repeat
// until no rule matches anywhere, since rewriting a sub-schema can make a rule
// on its parent applicable again (two anyOf branches becoming equal).
func Canonicalize(ctx context.Context, schema *any, opts rules.ApplyOptions) error {
	b := Bundle()
	for round := 0; round < maxRounds; round++ {
		if err := b.Apply(ctx, schema, opts); err != nil {
			return err
		}
		rule, _, err := b.Check(ctx, *schema, opts)
		if err != nil {
			return err
		}
		if rule == "" {
			return nil
		}
	}
	return fmt.Errorf("canonicalizer: no fixed point after %d rounds", maxRounds)
}
