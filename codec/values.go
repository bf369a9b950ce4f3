package codec

import (
	"github.com/sourcemeta/jsonbinpack-sub005/document"
)

// plain converts a document value into the representation the decoder
// produces: int64 for integers and float64 for reals.
func plain(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	}
	switch document.KindOf(v) {
	case document.KindInteger:
		n, _ := document.Integer(v)
		return n
	case document.KindReal:
		f, _ := document.Number(v)
		return f
	}
	return v
}
