package codec_test

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcemeta/jsonbinpack-sub005/codec"
	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
)

func encode(t *testing.T, plan encoding.Encoding, docs ...any) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf)
	for _, doc := range docs {
		require.NoError(t, enc.Encode(doc, plan))
	}
	require.Equal(t, uint64(buf.Len()), enc.Position())
	return append([]byte{}, buf.Bytes()...)
}

func decode(t *testing.T, data []byte, plan encoding.Encoding, n int) []any {
	t.Helper()
	dec := codec.NewDecoder(bytes.NewReader(data))
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := dec.Decode(plan)
		require.NoError(t, err)
		out = append(out, v)
	}
	require.Equal(t, uint64(len(data)), dec.Position(), "trailing bytes")
	return out
}

func decodeErr(t *testing.T, data []byte, plan encoding.Encoding) error {
	t.Helper()
	_, err := codec.NewDecoder(bytes.NewReader(data)).Decode(plan)
	require.Error(t, err)
	return err
}

func parse(t *testing.T, src string) any {
	t.Helper()
	v, err := document.Parse([]byte(src))
	require.NoError(t, err)
	return v
}

var (
	byteRange  = encoding.BoundedMultiple8Bits{Minimum: 0, Maximum: 255, Multiplier: 1}
	anything   = encoding.AnyPacked{}
	prefixed   = encoding.PrefixVarintLengthString{}
	arbitrary1 = encoding.ArbitraryMultipleZigzag{Multiplier: 1}
)

func TestEncodeBytes(t *testing.T) {
	cases := []struct {
		name string
		plan encoding.Encoding
		doc  string
		want []byte
	}{
		{"bounded", encoding.BoundedMultiple8Bits{Minimum: 0, Maximum: 100, Multiplier: 1}, `50`, []byte{50}},
		{"bounded multiple", encoding.BoundedMultiple8Bits{Minimum: -10, Maximum: 10, Multiplier: 5}, `5`, []byte{3}},
		{"bounded integral real", encoding.BoundedMultiple8Bits{Minimum: 0, Maximum: 100, Multiplier: 1}, `2.0`, []byte{2}},
		{"floor", encoding.FloorMultiple{Minimum: -3, Multiplier: 1}, `5`, []byte{8}},
		{"floor multiple", encoding.FloorMultiple{Minimum: 1, Multiplier: 4}, `8`, []byte{1}},
		{"roof", encoding.RoofMultipleMirror{Maximum: 10, Multiplier: 1}, `7`, []byte{3}},
		{"roof wide", encoding.RoofMultipleMirror{Maximum: 10, Multiplier: 1}, `-300`, []byte{0xb6, 0x02}},
		{"zigzag negative", arbitrary1, `-1`, []byte{1}},
		{"zigzag positive", arbitrary1, `1`, []byte{2}},
		{"zigzag multiple", encoding.ArbitraryMultipleZigzag{Multiplier: 3}, `-6`, []byte{3}},
		{"double", encoding.DoubleVarint{}, `3.14`, []byte{0xf4, 0x04, 0x02}},
		{"double integral", encoding.DoubleVarint{}, `5`, []byte{0x0a, 0x00}},
		{"byte choice", encoding.ByteChoice{Choices: []any{"a", "b", "c"}}, `"c"`, []byte{2}},
		{"top level first", encoding.TopLevelByteChoice{Choices: []any{int64(1), int64(2), int64(3)}}, `1`, []byte{}},
		{"top level", encoding.TopLevelByteChoice{Choices: []any{int64(1), int64(2), int64(3)}}, `3`, []byte{1}},
		{"const", encoding.Const{Value: map[string]any{"a": int64(1)}}, `{"a":1.0}`, []byte{}},
		{"no length", encoding.UTF8NoLength{Size: 3}, `"día"`, []byte{'d', 0xc3, 0xad, 'a'}},
		{"floor string", encoding.FloorVarintPrefixString{Minimum: 1}, `"ab"`, []byte{2, 'a', 'b'}},
		{"roof string", encoding.RoofVarintPrefixString{Maximum: 5}, `"ab"`, []byte{4, 'a', 'b'}},
		{"bounded string", encoding.Bounded8BitPrefixString{Minimum: 1, Maximum: 4}, `"abc"`, []byte{3, 'a', 'b', 'c'}},
		{"date", encoding.RFC3339Date{}, `"2014-10-01"`, []byte{0xde, 0x07, 10, 1}},
		{"prefixed", prefixed, `"hi"`, []byte{3, 'h', 'i'}},
		{"prefixed empty", prefixed, `""`, []byte{1}},
		{
			"fixed array",
			encoding.FixedArray{Size: 2, Encoding: arbitrary1, PrefixEncodings: []encoding.Encoding{encoding.Const{Value: "x"}}},
			`["x", -1]`,
			[]byte{1},
		},
		{
			"bounded array",
			encoding.Bounded8BitsArray{Minimum: 1, Maximum: 3, Encoding: byteRange},
			`[1, 2]`,
			[]byte{1, 1, 2},
		},
		{"floor array", encoding.FloorArray{Minimum: 1, Encoding: anything}, `[true]`, []byte{0, 0xe1}},
		{"roof array", encoding.RoofArray{Maximum: 3, Encoding: byteRange}, `[]`, []byte{3}},
		{
			"fixed object",
			encoding.FixedObject{Size: 1, KeyEncoding: prefixed, Encoding: byteRange},
			`{"a": 7}`,
			[]byte{2, 'a', 7},
		},
		{
			"varint object sorts keys",
			encoding.VarintObject{KeyEncoding: prefixed, Encoding: anything},
			`{"b": null, "a": 1}`,
			[]byte{2, 2, 'a', 0xa2, 2, 'b', 0xe2},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc := parse(t, c.doc)
			got := encode(t, c.plan, doc)
			assert.Equal(t, c.want, got)
			back := decode(t, got, c.plan, 1)[0]
			assert.True(t, document.Equal(doc, back), "decoded %#v", back)
		})
	}
}

func TestLargeChoice(t *testing.T) {
	choices := make([]any, 400)
	for i := range choices {
		choices[i] = int64(i * 2)
	}
	plan := encoding.LargeChoice{Choices: choices}
	data := encode(t, plan, int64(600))
	assert.Equal(t, []byte{0xac, 0x02}, data)
	assert.Equal(t, []any{int64(600)}, decode(t, data, plan, 1))
}

func TestDecodedValueTypes(t *testing.T) {
	plan := encoding.VarintObject{KeyEncoding: prefixed, Encoding: anything}
	doc := parse(t, `{"int": 3, "real": 2.5, "list": [1, "x"], "flag": false}`)
	got := decode(t, encode(t, plan, doc), plan, 1)[0]
	assert.Equal(t, map[string]any{
		"int":  int64(3),
		"real": 2.5,
		"list": []any{int64(1), "x"},
		"flag": false,
	}, got)

	choices := encoding.ByteChoice{Choices: []any{parse(t, `[1.5, 2]`)}}
	got = decode(t, encode(t, choices, parse(t, `[1.5, 2]`)), choices, 1)[0]
	assert.Equal(t, []any{1.5, int64(2)}, got)
}

func TestIntegerRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		plan   encoding.Encoding
		values []int64
	}{
		{"bounded", encoding.BoundedMultiple8Bits{Minimum: -100, Maximum: 155, Multiplier: 1}, []int64{-100, 0, 155}},
		{"bounded multiple", encoding.BoundedMultiple8Bits{Minimum: -7, Maximum: 1000, Multiplier: 7}, []int64{-7, 0, 994}},
		{"floor", encoding.FloorMultiple{Minimum: math.MinInt64, Multiplier: 1}, []int64{math.MinInt64, 0, math.MaxInt64}},
		{"floor multiple", encoding.FloorMultiple{Minimum: -9, Multiplier: 3}, []int64{-9, 0, 3 * (math.MaxInt64 / 3)}},
		{"roof", encoding.RoofMultipleMirror{Maximum: math.MaxInt64, Multiplier: 1}, []int64{math.MinInt64, -1, math.MaxInt64}},
		{"roof multiple", encoding.RoofMultipleMirror{Maximum: 10, Multiplier: 2}, []int64{10, 0, -(math.MaxInt64 - 1)}},
		{"zigzag", arbitrary1, []int64{math.MinInt64, -1, 0, 1, math.MaxInt64}},
		{"zigzag huge multiplier", encoding.ArbitraryMultipleZigzag{Multiplier: 1 << 63}, []int64{math.MinInt64, 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			docs := make([]any, len(c.values))
			for i, v := range c.values {
				docs[i] = v
			}
			got := decode(t, encode(t, c.plan, docs...), c.plan, len(docs))
			assert.Equal(t, docs, got)
		})
	}
}

func TestRealRoundTrip(t *testing.T) {
	plan := encoding.DoubleVarint{}
	values := []any{0.0, 3.14, -3.14, 123.456, 0.0001, 1e15, -2.5e-7}
	got := decode(t, encode(t, plan, values...), plan, len(values))
	for i, v := range values {
		assert.InDelta(t, v.(float64), got[i].(float64), 1e-9, "value %v", v)
	}
}

func TestStringSharing(t *testing.T) {
	plan := encoding.FloorVarintPrefixString{Minimum: 3}
	data := encode(t, plan, "foo", "foo")
	assert.Equal(t, []byte{0x01, 'f', 'o', 'o', 0x00, 0x01, 0x05}, data)
	assert.Equal(t, []any{"foo", "foo"}, decode(t, data, plan, 2))
}

func TestStringSharingAcrossEncodings(t *testing.T) {
	plan := encoding.FixedArray{
		Size: 3,
		PrefixEncodings: []encoding.Encoding{
			encoding.RoofVarintPrefixString{Maximum: 10},
			encoding.Bounded8BitPrefixString{Minimum: 2, Maximum: 8},
		},
		Encoding: anything,
	}
	doc := []any{"día!", "día!", "día!"}
	data := encode(t, plan, doc)
	assert.Equal(t, []byte{
		7, 'd', 0xc3, 0xad, 'a', '!',
		0, 3, 7,
		0x06, 9,
	}, data)
	assert.Equal(t, []any{doc}, decode(t, data, plan, 1))
}

func TestPrefixedStringSharing(t *testing.T) {
	data := encode(t, prefixed, "hello", "hello", "hello")
	assert.Equal(t, []byte{6, 'h', 'e', 'l', 'l', 'o', 0, 7, 0, 3}, data)
	assert.Equal(t, []any{"hello", "hello", "hello"}, decode(t, data, prefixed, 3))
}

func TestSharedStringsStayInLockstep(t *testing.T) {
	plan := encoding.VarintObject{KeyEncoding: prefixed, Encoding: anything}
	docs := []any{
		parse(t, `{"name": "alpha", "tags": ["alpha", "beta", "gamma"]}`),
		parse(t, `{"name": "beta", "tags": ["gamma", "alpha"], "more": {"name": "delta"}}`),
		parse(t, `{"name": "gamma", "nested": [{"name": "alpha"}, {"name": "beta"}]}`),
	}
	data := encode(t, plan, docs...)
	got := decode(t, data, plan, len(docs))
	for i := range docs {
		assert.True(t, document.Equal(docs[i], got[i]), "document %d: %#v", i, got[i])
	}
}

func TestCacheSizeMustMatch(t *testing.T) {
	plan := encoding.FloorVarintPrefixString{Minimum: 3}
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, codec.WithCacheSize(0))
	require.NoError(t, enc.Encode("foo", plan))
	require.NoError(t, enc.Encode("foo", plan))
	assert.Equal(t, []byte{1, 'f', 'o', 'o', 1, 'f', 'o', 'o'}, buf.Bytes())

	dec := codec.NewDecoder(bytes.NewReader(buf.Bytes()), codec.WithCacheSize(0))
	for i := 0; i < 2; i++ {
		v, err := dec.Decode(plan)
		require.NoError(t, err)
		assert.Equal(t, "foo", v)
	}
}

func TestDecoderStartsAtCurrentOffset(t *testing.T) {
	payload := encode(t, prefixed, "hello", "hello")
	r := bytes.NewReader(append([]byte{0xff, 0xff}, payload...))
	_, err := r.Seek(2, io.SeekStart)
	require.NoError(t, err)

	dec := codec.NewDecoder(r)
	for i := 0; i < 2; i++ {
		v, err := dec.Decode(prefixed)
		require.NoError(t, err)
		assert.Equal(t, "hello", v)
	}
}

type noSeeker struct{ io.Reader }

func (noSeeker) Seek(int64, int) (int64, error) { return 0, errors.New("not seekable") }

func TestDecoderRequiresSeeking(t *testing.T) {
	dec := codec.NewDecoder(noSeeker{bytes.NewReader([]byte{1})})
	_, err := dec.Decode(byteRange)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not seekable")
}

func TestEncodePreconditions(t *testing.T) {
	cases := []struct {
		name    string
		plan    encoding.Encoding
		doc     any
		pointer string
	}{
		{"above maximum", encoding.BoundedMultiple8Bits{Minimum: 0, Maximum: 100, Multiplier: 1}, int64(101), ""},
		{"not an integer", byteRange, "x", ""},
		{"fractional", byteRange, 1.5, ""},
		{"not a multiple", encoding.FloorMultiple{Minimum: 0, Multiplier: 2}, int64(3), ""},
		{"below minimum", encoding.FloorMultiple{Minimum: 0, Multiplier: 1}, int64(-1), ""},
		{"above roof", encoding.RoofMultipleMirror{Maximum: 0, Multiplier: 1}, int64(1), ""},
		{"not a choice", encoding.ByteChoice{Choices: []any{"a"}}, "b", ""},
		{"not the constant", encoding.Const{Value: int64(1)}, int64(2), ""},
		{"nan", encoding.DoubleVarint{}, math.NaN(), ""},
		{"too large real", encoding.DoubleVarint{}, 1e300, ""},
		{"wrong length", encoding.UTF8NoLength{Size: 2}, "abc", ""},
		{"short string", encoding.FloorVarintPrefixString{Minimum: 4}, "abc", ""},
		{"long string", encoding.RoofVarintPrefixString{Maximum: 2}, "abc", ""},
		{"invalid utf-8", encoding.FloorVarintPrefixString{}, "\xff", ""},
		{"impossible date", encoding.RFC3339Date{}, "2014-02-30", ""},
		{"prefixed number", prefixed, int64(1), ""},
		{"array size", encoding.FixedArray{Size: 2, Encoding: anything}, []any{}, ""},
		{"object size", encoding.FixedObject{Size: 1, KeyEncoding: prefixed, Encoding: anything}, map[string]any{}, ""},
		{
			"nested item",
			encoding.FixedArray{Size: 2, Encoding: encoding.BoundedMultiple8Bits{Minimum: 0, Maximum: 1, Multiplier: 1}},
			[]any{int64(0), int64(5)},
			"/1",
		},
		{
			"nested top level choice",
			encoding.FixedArray{Size: 1, Encoding: encoding.TopLevelByteChoice{Choices: []any{"a", "b"}}},
			[]any{"b"},
			"/0",
		},
		{
			"object value",
			encoding.VarintObject{KeyEncoding: prefixed, Encoding: byteRange},
			map[string]any{"a/b": int64(300)},
			"/a~1b",
		},
		{"unsupported value", anything, struct{}{}, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := codec.NewEncoder(io.Discard).Encode(c.doc, c.plan)
			var pe *codec.PreconditionError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, c.pointer, pe.Pointer)
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		plan encoding.Encoding
		data []byte
	}{
		{"empty", byteRange, nil},
		{"bounded out of range", encoding.BoundedMultiple8Bits{Minimum: 0, Maximum: 100, Multiplier: 1}, []byte{101}},
		{"choice out of range", encoding.ByteChoice{Choices: []any{"a", "b", "c"}}, []byte{5}},
		{"large choice out of range", encoding.LargeChoice{Choices: []any{"a"}}, []byte{1}},
		{"top level choice out of range", encoding.TopLevelByteChoice{Choices: []any{"a", "b"}}, []byte{1}},
		{"varint overflow", arbitrary1, bytes.Repeat([]byte{0xff}, 11)},
		{"truncated varint", arbitrary1, []byte{0x80}},
		{"floor overflow", encoding.FloorMultiple{Minimum: math.MaxInt64 - 1, Multiplier: 1}, []byte{2}},
		{"roof underflow", encoding.RoofMultipleMirror{Maximum: math.MinInt64 + 1, Multiplier: 1}, []byte{2}},
		{"truncated string", prefixed, []byte{5, 'a'}},
		{"invalid utf-8", prefixed, []byte{2, 0xff}},
		{"invalid utf-8 runes", encoding.UTF8NoLength{Size: 1}, []byte{0xff}},
		{"zero prefix", encoding.FloorVarintPrefixString{}, []byte{0, 0}},
		{"self reference", encoding.FloorVarintPrefixString{}, []byte{0, 1, 0}},
		{"reference past start", prefixed, []byte{0, 9}},
		{"string above roof", encoding.RoofVarintPrefixString{Maximum: 2}, []byte{4}},
		{"bounded string range", encoding.Bounded8BitPrefixString{Minimum: 1, Maximum: 2}, []byte{3, 'a', 'b', 'c'}},
		{"impossible date", encoding.RFC3339Date{}, []byte{0xde, 0x07, 2, 30}},
		{"bounded array range", encoding.Bounded8BitsArray{Minimum: 0, Maximum: 1, Encoding: anything}, []byte{2}},
		{"roof array range", encoding.RoofArray{Maximum: 1, Encoding: anything}, []byte{2}},
		{"truncated array", encoding.FloorArray{Minimum: 0, Encoding: byteRange}, []byte{3, 1}},
		{
			"duplicate key",
			encoding.FixedObject{Size: 2, KeyEncoding: prefixed, Encoding: encoding.Const{Value: nil}},
			[]byte{2, 'a', 2, 'a'},
		},
		{
			"non-string key",
			encoding.VarintObject{KeyEncoding: byteRange, Encoding: anything},
			[]byte{1, 7, 0xe2},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := decodeErr(t, c.data, c.plan)
			assert.ErrorIs(t, err, codec.ErrMalformed)
			var me *codec.MalformedError
			assert.ErrorAs(t, err, &me)
		})
	}
}

func TestTruncationWrapsUnexpectedEOF(t *testing.T) {
	err := decodeErr(t, []byte{0xde, 0x07}, encoding.RFC3339Date{})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, codec.ErrMalformed)
}

func TestEncodeLogsDocuments(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, codec.WithLogger(logger))
	require.NoError(t, enc.Encode(int64(50), byteRange))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, encoding.BoundedMultiple8BitsEnumFixed, entry.Data["encoding"])
	assert.Equal(t, uint64(1), entry.Data["bytes"])

	dec := codec.NewDecoder(bytes.NewReader(buf.Bytes()), codec.WithLogger(logger))
	_, err := dec.Decode(byteRange)
	require.NoError(t, err)
	assert.Equal(t, "decoded document", hook.LastEntry().Message)
}
