package jsonschema

import (
	"fmt"
	"strings"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
)

// RefWarning describes a $ref left in place by InlineLocalRefs.
type RefWarning struct {
	Pointer string
	Ref     string
	Reason  string
}

func (w RefWarning) String() string {
	return fmt.Sprintf("%s: $ref %q %s", w.Pointer, w.Ref, w.Reason)
}

// InlineLocalRefs replaces document-local $refs ("#", "#/$defs/...", any JSON
// Pointer fragment) with copies of their targets. Nodes without a dialect in
// scope are read as fallback. Up to draft 7 a $ref replaces the whole node and
// its sibling keywords are dropped; later dialects keep the siblings and the
// target becomes an allOf branch next to them. Remote and cyclic references
// are kept as they are and reported.
func InlineLocalRefs(root *any, fallback string) []RefWarning {
	dialect, ok := Dialect(*root)
	if !ok {
		dialect = Normalize(fallback)
	}
	r := &refInliner{root: document.Clone(*root), active: map[string]bool{}}
	*root = r.inline(*root, document.Pointer{}, dialect)
	return r.warnings
}

// refOverridesSiblings reports whether a dialect ignores the keywords next to
// a $ref.
func refOverridesSiblings(dialect string) bool {
	switch Normalize(dialect) {
	case Draft4, Draft6, Draft7:
		return true
	}
	return false
}

type refInliner struct {
	// root is a snapshot of the document before any expansion, so targets are
	// looked up in their original form.
	root     any
	active   map[string]bool
	warnings []RefWarning
}

func (r *refInliner) inline(node any, at document.Pointer, dialect string) any {
	m, ok := node.(map[string]any)
	if !ok {
		return node
	}
	if d, ok := Dialect(m); ok {
		dialect = d
	}
	if ref, ok := m["$ref"].(string); ok {
		if expanded, ok := r.expand(m, ref, at, dialect); ok {
			return expanded
		}
	}
	for _, sub := range Subschemas(m, nil) {
		sub.Set(r.inline(sub.Value, at.Join(sub.Path), dialect))
	}
	return m
}

func (r *refInliner) expand(m map[string]any, ref string, at document.Pointer, dialect string) (any, bool) {
	if !strings.HasPrefix(ref, "#") {
		r.warn(at, ref, "is not document-local")
		return nil, false
	}
	target, err := document.ParsePointer(strings.TrimPrefix(ref, "#"))
	if err != nil {
		r.warn(at, ref, "is not a JSON Pointer fragment")
		return nil, false
	}
	key := target.String()
	if r.active[key] {
		r.warn(at, ref, "is recursive")
		return nil, false
	}
	resolved, ok := document.Get(r.root, target)
	if !ok {
		r.warn(at, ref, "does not resolve")
		return nil, false
	}
	r.active[key] = true
	expanded := r.inline(document.Clone(resolved), target, dialect)
	delete(r.active, key)

	delete(m, "$ref")
	if refOverridesSiblings(dialect) {
		return withDialect(expanded, m["$schema"]), true
	}
	if len(m) == 0 {
		return expanded, true
	}
	allOf, _ := m["allOf"].([]any)
	m["allOf"] = append(allOf, expanded)
	for _, sub := range Subschemas(m, nil) {
		if sub.Keyword == "allOf" && sub.Path.Len() == 2 && sub.Path.Tokens()[1] == fmt.Sprint(len(allOf)) {
			continue
		}
		sub.Set(r.inline(sub.Value, at.Join(sub.Path), dialect))
	}
	return m, true
}

// withDialect carries the $schema of a replaced node over to the schema that
// replaces it.
func withDialect(schema any, dialect any) any {
	if dialect == nil {
		return schema
	}
	switch s := schema.(type) {
	case map[string]any:
		if _, ok := s["$schema"]; !ok {
			s["$schema"] = dialect
		}
		return s
	case bool:
		if s {
			return map[string]any{"$schema": dialect}
		}
		return map[string]any{"$schema": dialect, "not": map[string]any{}}
	}
	return schema
}

func (r *refInliner) warn(at document.Pointer, ref, reason string) {
	r.warnings = append(r.warnings, RefWarning{Pointer: at.String(), Ref: ref, Reason: reason})
}
