package encoding_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
)

func descriptor(t *testing.T, src string) any {
	t.Helper()
	v, err := document.Parse([]byte(src))
	require.NoError(t, err)
	return v
}

func TestParseEveryEncoding(t *testing.T) {
	str := encoding.PrefixVarintLengthString{}
	cases := []struct {
		src  string
		want encoding.Encoding
	}{
		{`{"name":"BOUNDED_MULTIPLE_8BITS_ENUM_FIXED","options":{"minimum":-5,"maximum":100,"multiplier":5}}`,
			encoding.BoundedMultiple8Bits{Minimum: -5, Maximum: 100, Multiplier: 5}},
		{`{"name":"FLOOR_MULTIPLE_ENUM_VARINT","options":{"minimum":3,"multiplier":1}}`,
			encoding.FloorMultiple{Minimum: 3, Multiplier: 1}},
		{`{"name":"ROOF_MULTIPLE_MIRROR_ENUM_VARINT","options":{"maximum":-3,"multiplier":2}}`,
			encoding.RoofMultipleMirror{Maximum: -3, Multiplier: 2}},
		{`{"name":"ARBITRARY_MULTIPLE_ZIGZAG_VARINT","options":{"multiplier":7}}`,
			encoding.ArbitraryMultipleZigzag{Multiplier: 7}},
		{`{"name":"DOUBLE_VARINT_TUPLE","options":{}}`, encoding.DoubleVarint{}},
		{`{"name":"BYTE_CHOICE_INDEX","options":{"choices":["a","b"]}}`,
			encoding.ByteChoice{Choices: []any{"a", "b"}}},
		{`{"name":"LARGE_CHOICE_INDEX","options":{"choices":[true]}}`,
			encoding.LargeChoice{Choices: []any{true}}},
		{`{"name":"TOP_LEVEL_BYTE_CHOICE_INDEX","options":{"choices":[null,"x"]}}`,
			encoding.TopLevelByteChoice{Choices: []any{nil, "x"}}},
		{`{"name":"CONST_NONE","options":{"value":null}}`, encoding.Const{Value: nil}},
		{`{"name":"UTF8_STRING_NO_LENGTH","options":{"size":4}}`, encoding.UTF8NoLength{Size: 4}},
		{`{"name":"FLOOR_VARINT_PREFIX_UTF8_STRING_SHARED","options":{"minimum":1}}`,
			encoding.FloorVarintPrefixString{Minimum: 1}},
		{`{"name":"ROOF_VARINT_PREFIX_UTF8_STRING_SHARED","options":{"maximum":1000}}`,
			encoding.RoofVarintPrefixString{Maximum: 1000}},
		{`{"name":"BOUNDED_8BIT_PREFIX_UTF8_STRING_SHARED","options":{"minimum":2,"maximum":20}}`,
			encoding.Bounded8BitPrefixString{Minimum: 2, Maximum: 20}},
		{`{"name":"RFC3339_DATE_INTEGER_TRIPLET"}`, encoding.RFC3339Date{}},
		{`{"name":"PREFIX_VARINT_LENGTH_STRING_SHARED","options":{}}`, str},
		{`{"name":"FIXED_TYPED_ARRAY","options":{"size":2,"encoding":{"name":"PREFIX_VARINT_LENGTH_STRING_SHARED"},"prefixEncodings":[{"name":"DOUBLE_VARINT_TUPLE"}]}}`,
			encoding.FixedArray{Size: 2, Encoding: str, PrefixEncodings: []encoding.Encoding{encoding.DoubleVarint{}}}},
		{`{"name":"BOUNDED_8BITS_TYPED_ARRAY","options":{"minimum":0,"maximum":255,"encoding":{"name":"PREFIX_VARINT_LENGTH_STRING_SHARED"}}}`,
			encoding.Bounded8BitsArray{Maximum: 255, Encoding: str}},
		{`{"name":"FLOOR_TYPED_ARRAY","options":{"minimum":1,"encoding":{"name":"PREFIX_VARINT_LENGTH_STRING_SHARED"},"prefixEncodings":[]}}`,
			encoding.FloorArray{Minimum: 1, Encoding: str, PrefixEncodings: []encoding.Encoding{}}},
		{`{"name":"ROOF_TYPED_ARRAY","options":{"maximum":9,"encoding":{"name":"PREFIX_VARINT_LENGTH_STRING_SHARED"}}}`,
			encoding.RoofArray{Maximum: 9, Encoding: str}},
		{`{"name":"FIXED_TYPED_ARBITRARY_OBJECT","options":{"size":1,"keyEncoding":{"name":"PREFIX_VARINT_LENGTH_STRING_SHARED"},"encoding":{"name":"ANY_PACKED_TYPE_TAG_BYTE_PREFIX"}}}`,
			encoding.FixedObject{Size: 1, KeyEncoding: str, Encoding: encoding.AnyPacked{}}},
		{`{"name":"VARINT_TYPED_ARBITRARY_OBJECT","options":{"keyEncoding":{"name":"PREFIX_VARINT_LENGTH_STRING_SHARED"},"encoding":{"name":"ANY_PACKED_TYPE_TAG_BYTE_PREFIX"}}}`,
			encoding.VarintObject{KeyEncoding: str, Encoding: encoding.AnyPacked{}}},
		{`{"name":"ANY_PACKED_TYPE_TAG_BYTE_PREFIX","options":{}}`, encoding.AnyPacked{}},
	}
	seen := map[encoding.Name]bool{}
	for _, tc := range cases {
		got, err := encoding.Parse(descriptor(t, tc.src))
		require.NoError(t, err, tc.src)
		assert.Equal(t, tc.want.Name(), got.Name())
		seen[got.Name()] = true
		// Compare through descriptors so decoded JSON numbers match int64s.
		assert.True(t, document.Equal(encoding.Descriptor(tc.want), encoding.Descriptor(got)), tc.src)
	}
	for _, n := range encoding.Names {
		assert.True(t, seen[n], "no case for %s", n)
	}
}

func TestDescriptorRoundTrip(t *testing.T) {
	plan := encoding.FixedArray{
		Size:     3,
		Encoding: encoding.BoundedMultiple8Bits{Minimum: 0, Maximum: 10, Multiplier: 1},
		PrefixEncodings: []encoding.Encoding{
			encoding.Const{Value: "x"},
			encoding.VarintObject{KeyEncoding: encoding.UTF8NoLength{Size: 2}, Encoding: encoding.DoubleVarint{}},
		},
	}
	d := encoding.Descriptor(plan)
	assert.Equal(t, "tag:sourcemeta.com,2024:jsonbinpack/encoding/v1", d["$schema"])
	assert.Equal(t, "FIXED_TYPED_ARRAY", d["name"])

	back, err := encoding.Parse(d)
	require.NoError(t, err)
	assert.Equal(t, plan, back)

	// And through JSON text.
	raw, err := document.Marshal(d)
	require.NoError(t, err)
	again, err := encoding.Parse(descriptor(t, string(raw)))
	require.NoError(t, err)
	assert.True(t, document.Equal(d, encoding.Descriptor(again)))
}

func TestParseUnknownEncoding(t *testing.T) {
	_, err := encoding.Parse(map[string]any{"name": "ZSTD_EVERYTHING"})
	var unknown *encoding.UnknownEncodingError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "unrecognized encoding: ZSTD_EVERYTHING", err.Error())

	// Nested unknown names surface through the parent.
	_, err = encoding.Parse(descriptor(t, `{"name":"ROOF_TYPED_ARRAY","options":{"maximum":1,"encoding":{"name":"NOPE"}}}`))
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "NOPE", unknown.Name)
}

func TestParseInvalidOptions(t *testing.T) {
	cases := map[string]string{
		"missing":          `{"name":"FLOOR_MULTIPLE_ENUM_VARINT","options":{"minimum":1}}`,
		"not integer":      `{"name":"FLOOR_MULTIPLE_ENUM_VARINT","options":{"minimum":1.5,"multiplier":1}}`,
		"zero multiplier":  `{"name":"ARBITRARY_MULTIPLE_ZIGZAG_VARINT","options":{"multiplier":0}}`,
		"negative size":    `{"name":"UTF8_STRING_NO_LENGTH","options":{"size":-1}}`,
		"inverted bounds":  `{"name":"BOUNDED_MULTIPLE_8BITS_ENUM_FIXED","options":{"minimum":5,"maximum":1,"multiplier":1}}`,
		"wide string":      `{"name":"BOUNDED_8BIT_PREFIX_UTF8_STRING_SHARED","options":{"minimum":0,"maximum":255}}`,
		"empty choices":    `{"name":"BYTE_CHOICE_INDEX","options":{"choices":[]}}`,
		"choices type":     `{"name":"LARGE_CHOICE_INDEX","options":{"choices":{}}}`,
		"const value":      `{"name":"CONST_NONE","options":{}}`,
		"nested":           `{"name":"FLOOR_TYPED_ARRAY","options":{"minimum":0,"encoding":{"name":"UTF8_STRING_NO_LENGTH","options":{}}}}`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := encoding.Parse(descriptor(t, src))
			var opt *encoding.OptionError
			require.True(t, errors.As(err, &opt), "%v", err)
		})
	}

	_, err := encoding.Parse([]any{})
	assert.ErrorIs(t, err, encoding.ErrNotDescriptor)
	_, err = encoding.Parse(map[string]any{"options": map[string]any{}})
	assert.ErrorIs(t, err, encoding.ErrNotDescriptor)
}
