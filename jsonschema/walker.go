package jsonschema

import (
	"github.com/sourcemeta/jsonbinpack-sub005/document"
)

type keywordShape int

const (
	shapeSchema keywordShape = iota
	shapeSchemaMap
	shapeSchemaArray
	// items holds either one schema or, before 2020-12, an array of them.
	shapeSchemaOrArray
	// dependencies values are schemas or property-name arrays.
	shapeDependencies
)

type keyword struct {
	name  string
	shape keywordShape
	vocab []string
}

var draftsAll = []string{Draft7, Draft6, Draft4}

// Keywords that hold sub-schemas, in walk order.
var applicators = []keyword{
	{"$defs", shapeSchemaMap, []string{Vocab2020Core, Vocab2019Core}},
	{"definitions", shapeSchemaMap, draftsAll},
	{"allOf", shapeSchemaArray, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7, Draft6, Draft4}},
	{"anyOf", shapeSchemaArray, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7, Draft6, Draft4}},
	{"oneOf", shapeSchemaArray, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7, Draft6, Draft4}},
	{"not", shapeSchema, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7, Draft6, Draft4}},
	{"if", shapeSchema, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7}},
	{"then", shapeSchema, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7}},
	{"else", shapeSchema, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7}},
	{"properties", shapeSchemaMap, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7, Draft6, Draft4}},
	{"patternProperties", shapeSchemaMap, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7, Draft6, Draft4}},
	{"additionalProperties", shapeSchema, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7, Draft6, Draft4}},
	{"propertyNames", shapeSchema, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7, Draft6}},
	{"dependentSchemas", shapeSchemaMap, []string{Vocab2020Applicator, Vocab2019Applicator}},
	{"dependencies", shapeDependencies, draftsAll},
	{"prefixItems", shapeSchemaArray, []string{Vocab2020Applicator}},
	{"items", shapeSchemaOrArray, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7, Draft6, Draft4}},
	{"additionalItems", shapeSchema, []string{Vocab2019Applicator, Draft7, Draft6, Draft4}},
	{"contains", shapeSchema, []string{Vocab2020Applicator, Vocab2019Applicator, Draft7, Draft6}},
	{"unevaluatedItems", shapeSchema, []string{Vocab2020Unevaluated, Vocab2019Applicator}},
	{"unevaluatedProperties", shapeSchema, []string{Vocab2020Unevaluated, Vocab2019Applicator}},
	{"contentSchema", shapeSchema, []string{Vocab2020Content, Vocab2019Content}},
}

// Subschema is one sub-schema slot of a schema node.
type Subschema struct {
	// Keyword is the keyword holding the sub-schema.
	Keyword string
	// Path locates the sub-schema relative to its parent node.
	Path document.Pointer
	// Value is the sub-schema itself.
	Value any

	set func(any)
}

// Set replaces the sub-schema inside its parent container.
func (s Subschema) Set(v any) { s.set(v) }

// Subschemas enumerates the direct sub-schemas of a node under the given
// vocabularies. A nil vocabulary set walks every known keyword. Encoding
// descriptors expose the schemas nested under their options.
func Subschemas(schema any, vocabs Vocabularies) []Subschema {
	node, ok := schema.(map[string]any)
	if !ok {
		return nil
	}
	var out []Subschema
	if vocabs != nil && vocabs.Has(EncodingDialect) {
		options, ok := node["options"].(map[string]any)
		if !ok {
			return nil
		}
		base := document.NewPointer("options")
		for _, name := range []string{"encoding", "keyEncoding"} {
			out = appendSchema(out, options, name, base.Field(name), name)
		}
		if arr, ok := options["prefixEncodings"].([]any); ok {
			out = appendArray(out, arr, base.Field("prefixEncodings"), "prefixEncodings")
		}
		return out
	}

	for _, kw := range applicators {
		if vocabs != nil && !vocabs.HasAny(kw.vocab...) {
			continue
		}
		value, present := node[kw.name]
		if !present {
			continue
		}
		at := document.NewPointer(kw.name)
		switch kw.shape {
		case shapeSchema:
			out = appendSchema(out, node, kw.name, at, kw.name)
		case shapeSchemaArray:
			if arr, ok := value.([]any); ok {
				out = appendArray(out, arr, at, kw.name)
			}
		case shapeSchemaOrArray:
			if arr, ok := value.([]any); ok {
				out = appendArray(out, arr, at, kw.name)
			} else {
				out = appendSchema(out, node, kw.name, at, kw.name)
			}
		case shapeSchemaMap, shapeDependencies:
			m, ok := value.(map[string]any)
			if !ok {
				continue
			}
			for _, k := range document.SortedKeys(m) {
				out = appendSchema(out, m, k, at.Field(k), kw.name)
			}
		}
	}
	return out
}

func appendSchema(out []Subschema, parent map[string]any, key string, at document.Pointer, keyword string) []Subschema {
	v, ok := parent[key]
	if !ok || !isSchema(v) {
		return out
	}
	return append(out, Subschema{
		Keyword: keyword,
		Path:    at,
		Value:   v,
		set:     func(nv any) { parent[key] = nv },
	})
}

func appendArray(out []Subschema, arr []any, at document.Pointer, keyword string) []Subschema {
	for i := range arr {
		i := i
		if !isSchema(arr[i]) {
			continue
		}
		out = append(out, Subschema{
			Keyword: keyword,
			Path:    at.Index(i),
			Value:   arr[i],
			set:     func(nv any) { arr[i] = nv },
		})
	}
	return out
}

func isSchema(v any) bool {
	switch v.(type) {
	case map[string]any, bool:
		return true
	}
	return false
}
