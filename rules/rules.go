// Package rules is a fixed-point rewrite engine over JSON Schema documents.
// A Bundle holds named rules; applying it walks every sub-schema and, at each
// node, fires rules until none matches.
package rules

import (
	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
)

// Context describes the node a rule is looking at.
type Context struct {
	// Dialect is the resolved $schema of the node.
	Dialect string
	// Vocabularies in use by Dialect.
	Vocabularies jsonschema.Vocabularies
	// Location of the node from the document root.
	Location document.Pointer
	// Root is the whole document. Rules must not modify it.
	Root any
}

// IsRoot reports whether the node is the document root.
func (c Context) IsRoot() bool { return c.Location.IsRoot() }

// Condition reports whether a rule applies to a node. It must not modify the
// node.
type Condition func(schema any, ctx Context) bool

// Transform rewrites a node in place or replaces it through the pointer.
type Transform func(schema *any, ctx Context)

// Rule is one semantics-preserving rewrite. Once Transform has run, Condition
// must no longer hold for the same node.
type Rule struct {
	Name      string
	Message   string
	Condition Condition
	Transform Transform
}

// All holds when every condition holds.
func All(conds ...Condition) Condition {
	return func(schema any, ctx Context) bool {
		for _, c := range conds {
			if !c(schema, ctx) {
				return false
			}
		}
		return true
	}
}

// Any holds when at least one condition holds.
func Any(conds ...Condition) Condition {
	return func(schema any, ctx Context) bool {
		for _, c := range conds {
			if c(schema, ctx) {
				return true
			}
		}
		return false
	}
}

// Not negates a condition.
func Not(cond Condition) Condition {
	return func(schema any, ctx Context) bool { return !cond(schema, ctx) }
}

// Vocabulary holds when any of uris is in use.
func Vocabulary(uris ...string) Condition {
	return func(_ any, ctx Context) bool { return ctx.Vocabularies.HasAny(uris...) }
}

// HasKeyword holds for object schemas defining every one of names.
func HasKeyword(names ...string) Condition {
	return func(schema any, _ Context) bool {
		m, ok := schema.(map[string]any)
		if !ok {
			return false
		}
		for _, n := range names {
			if _, ok := m[n]; !ok {
				return false
			}
		}
		return true
	}
}

// LacksKeyword holds for object schemas defining none of names.
func LacksKeyword(names ...string) Condition {
	return func(schema any, _ Context) bool {
		m, ok := schema.(map[string]any)
		if !ok {
			return false
		}
		for _, n := range names {
			if _, ok := m[n]; ok {
				return false
			}
		}
		return true
	}
}

// SchemaDialect holds for nodes written in a JSON Schema dialect rather than
// the encoding dialect.
func SchemaDialect() Condition {
	return func(_ any, ctx Context) bool { return jsonschema.IsSchemaDialect(ctx.Dialect) }
}

// AtRoot holds for the document root only.
func AtRoot() Condition {
	return func(_ any, ctx Context) bool { return ctx.IsRoot() }
}
