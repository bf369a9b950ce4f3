// Package jsonbinpack compiles JSON Schemas into binary encoding plans and
// uses them to serialize JSON documents compactly.
//
// - Canonicalize rewrites a schema into a normal form with a fixed-point rule engine
// - Compile maps the canonical schema to a tree of encodings (a Plan)
// - Marshal/Unmarshal and the session helpers write and read documents with a Plan
//
// Layout:
// - The rule engine lives in rules/, the rule catalogues in canonicalizer/ and mapper/.
// - The encoding catalogue is in encoding/, the byte-level runtime in codec/.
// - The CLI is under cmd/jsonbinpack.
//
// Typical usage:
//
//	plan, err := jsonbinpack.Compile(ctx, schema, jsonbinpack.Options{})
//	data, err := jsonbinpack.Marshal(plan, doc)
//	back, err := jsonbinpack.Unmarshal(plan, data)
//
// Documents are the values produced by document.Parse: map[string]any,
// []any, string, json.Number or Go numbers, bool and nil.
package jsonbinpack
