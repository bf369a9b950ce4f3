package canonicalizer

import (
	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

func duplicateEntries(name, keyword string, vocab []string) rules.Rule {
	return rules.Rule{
		Name:    name,
		Message: "Duplicate entries of " + keyword + " are redundant",
		Condition: rules.All(rules.Vocabulary(vocab...), func(schema any, _ rules.Context) bool {
			arr, ok := arrayKeyword(object(schema), keyword)
			return ok && document.HasDuplicates(arr)
		}),
		Transform: func(schema *any, _ rules.Context) {
			m := object(*schema)
			arr, _ := arrayKeyword(m, keyword)
			m[keyword] = document.SortUnique(arr)
		},
	}
}

func uniqueItemsImpliedByMaxItems() rules.Rule {
	return rules.Rule{
		Name:    "unique_items_implied_by_max_items",
		Message: "An array of at most one item has unique items",
		Condition: rules.All(rules.Vocabulary(validation...), rules.HasKeyword("uniqueItems"), func(schema any, _ rules.Context) bool {
			max, ok := integerKeyword(object(schema), "maxItems")
			return ok && max <= 1
		}),
		Transform: func(schema *any, _ rules.Context) {
			delete(object(*schema), "uniqueItems")
		},
	}
}

func uniqueItemsImpliedByEnum() rules.Rule {
	return rules.Rule{
		Name:    "unique_items_implied_by_enum",
		Message: "Every enumerated array already has unique items",
		Condition: rules.All(rules.Vocabulary(validation...), rules.HasKeyword("uniqueItems"), func(schema any, _ rules.Context) bool {
			enum, ok := arrayKeyword(object(schema), "enum")
			if !ok {
				return false
			}
			for _, v := range enum {
				arr, ok := v.([]any)
				if !ok || len(arr) > 1 {
					return false
				}
			}
			return true
		}),
		Transform: func(schema *any, _ rules.Context) {
			delete(object(*schema), "uniqueItems")
		},
	}
}
