package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
)

// describe prints an encoding and its children, one per line, indented by
// depth. Nested encodings are left out of the printed options.
func describe(w io.Writer, enc encoding.Encoding, label string, depth int) error {
	options, _ := encoding.Descriptor(enc)["options"].(map[string]any)
	for _, nested := range []string{"encoding", "keyEncoding", "prefixEncodings"} {
		delete(options, nested)
	}
	line := strings.Repeat("  ", depth) + label + string(enc.Name())
	if len(options) > 0 {
		raw, err := document.Marshal(options)
		if err != nil {
			return err
		}
		line += " " + string(raw)
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}

	switch e := enc.(type) {
	case encoding.FixedArray:
		return describeItems(w, e.PrefixEncodings, e.Encoding, depth+1)
	case encoding.Bounded8BitsArray:
		return describeItems(w, e.PrefixEncodings, e.Encoding, depth+1)
	case encoding.FloorArray:
		return describeItems(w, e.PrefixEncodings, e.Encoding, depth+1)
	case encoding.RoofArray:
		return describeItems(w, e.PrefixEncodings, e.Encoding, depth+1)
	case encoding.FixedObject:
		if err := describe(w, e.KeyEncoding, "keys: ", depth+1); err != nil {
			return err
		}
		return describe(w, e.Encoding, "values: ", depth+1)
	case encoding.VarintObject:
		if err := describe(w, e.KeyEncoding, "keys: ", depth+1); err != nil {
			return err
		}
		return describe(w, e.Encoding, "values: ", depth+1)
	}
	return nil
}

func describeItems(w io.Writer, prefix []encoding.Encoding, tail encoding.Encoding, depth int) error {
	for i, p := range prefix {
		if err := describe(w, p, fmt.Sprintf("%d: ", i), depth); err != nil {
			return err
		}
	}
	return describe(w, tail, "items: ", depth)
}
