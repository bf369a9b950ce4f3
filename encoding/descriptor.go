package encoding

import (
	"errors"
	"fmt"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
)

// ErrNotDescriptor is returned when a value is not a descriptor object.
var ErrNotDescriptor = errors.New("encoding: descriptor is not an object with a name")

// options reads the options of one descriptor and remembers the first
// failure, so constructors can read every field before checking.
type options struct {
	name Name
	m    map[string]any
	err  error
}

func (o *options) fail(option, reason string) {
	if o.err == nil {
		o.err = &OptionError{Encoding: o.name, Option: option, Reason: reason}
	}
}

func (o *options) raw(key string) (any, bool) {
	v, ok := o.m[key]
	if !ok {
		o.fail(key, "is missing")
	}
	return v, ok
}

func (o *options) integer(key string) int64 {
	v, ok := o.raw(key)
	if !ok {
		return 0
	}
	n, ok := document.Integral(v)
	if !ok {
		o.fail(key, "is not an integer")
	}
	return n
}

func (o *options) unsigned(key string) uint64 {
	n := o.integer(key)
	if n < 0 {
		o.fail(key, "is negative")
		return 0
	}
	return uint64(n)
}

func (o *options) positive(key string) uint64 {
	n := o.unsigned(key)
	if n == 0 && o.err == nil {
		o.fail(key, "must be positive")
	}
	return n
}

func (o *options) array(key string) []any {
	v, ok := o.raw(key)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		o.fail(key, "is not an array")
	}
	return arr
}

func (o *options) nested(key string) Encoding {
	v, ok := o.raw(key)
	if !ok {
		return nil
	}
	enc, err := Parse(v)
	if err != nil && o.err == nil {
		o.err = fmt.Errorf("%s: option %q: %w", o.name, key, err)
	}
	return enc
}

// prefix reads the optional prefixEncodings list.
func (o *options) prefix() []Encoding {
	if _, ok := o.m["prefixEncodings"]; !ok {
		return nil
	}
	arr := o.array("prefixEncodings")
	out := make([]Encoding, 0, len(arr))
	for i, v := range arr {
		enc, err := Parse(v)
		if err != nil {
			if o.err == nil {
				o.err = fmt.Errorf("%s: option \"prefixEncodings\" at %d: %w", o.name, i, err)
			}
			return nil
		}
		out = append(out, enc)
	}
	return out
}

// Parse converts a descriptor of the form {"$schema", "name", "options"} into
// its typed plan, recursing into nested encodings.
func Parse(descriptor any) (Encoding, error) {
	m, ok := descriptor.(map[string]any)
	if !ok {
		return nil, ErrNotDescriptor
	}
	raw, ok := m["name"].(string)
	if !ok {
		return nil, ErrNotDescriptor
	}
	o := &options{name: Name(raw)}
	o.m, _ = m["options"].(map[string]any)
	if o.m == nil {
		o.m = map[string]any{}
	}

	var enc Encoding
	switch o.name {
	case BoundedMultiple8BitsEnumFixed:
		e := BoundedMultiple8Bits{Minimum: o.integer("minimum"), Maximum: o.integer("maximum"), Multiplier: o.positive("multiplier")}
		if o.err == nil && e.Minimum > e.Maximum {
			o.fail("", "minimum is greater than maximum")
		}
		enc = e
	case FloorMultipleEnumVarint:
		enc = FloorMultiple{Minimum: o.integer("minimum"), Multiplier: o.positive("multiplier")}
	case RoofMultipleMirrorEnumVarint:
		enc = RoofMultipleMirror{Maximum: o.integer("maximum"), Multiplier: o.positive("multiplier")}
	case ArbitraryMultipleZigzagVarint:
		enc = ArbitraryMultipleZigzag{Multiplier: o.positive("multiplier")}
	case DoubleVarintTuple:
		enc = DoubleVarint{}
	case ByteChoiceIndex:
		choices := o.array("choices")
		if o.err == nil && (len(choices) == 0 || len(choices) > 256) {
			o.fail("choices", "must hold between 1 and 256 values")
		}
		enc = ByteChoice{Choices: choices}
	case LargeChoiceIndex:
		choices := o.array("choices")
		if o.err == nil && len(choices) == 0 {
			o.fail("choices", "is empty")
		}
		enc = LargeChoice{Choices: choices}
	case TopLevelByteChoiceIndex:
		choices := o.array("choices")
		if o.err == nil && (len(choices) == 0 || len(choices) > 256) {
			o.fail("choices", "must hold between 1 and 256 values")
		}
		enc = TopLevelByteChoice{Choices: choices}
	case ConstNone:
		v, _ := o.raw("value")
		enc = Const{Value: v}
	case UTF8StringNoLength:
		enc = UTF8NoLength{Size: o.unsigned("size")}
	case FloorVarintPrefixUTF8StringShared:
		enc = FloorVarintPrefixString{Minimum: o.unsigned("minimum")}
	case RoofVarintPrefixUTF8StringShared:
		enc = RoofVarintPrefixString{Maximum: o.unsigned("maximum")}
	case Bounded8BitPrefixUTF8StringShared:
		e := Bounded8BitPrefixString{Minimum: o.unsigned("minimum"), Maximum: o.unsigned("maximum")}
		if o.err == nil && (e.Minimum > e.Maximum || e.Maximum-e.Minimum >= 255) {
			o.fail("", "length range does not fit a byte")
		}
		enc = e
	case RFC3339DateIntegerTriplet:
		enc = RFC3339Date{}
	case PrefixVarintLengthStringShared:
		enc = PrefixVarintLengthString{}
	case FixedTypedArray:
		enc = FixedArray{Size: o.unsigned("size"), Encoding: o.nested("encoding"), PrefixEncodings: o.prefix()}
	case Bounded8BitsTypedArray:
		e := Bounded8BitsArray{Minimum: o.unsigned("minimum"), Maximum: o.unsigned("maximum"),
			Encoding: o.nested("encoding"), PrefixEncodings: o.prefix()}
		if o.err == nil && (e.Minimum > e.Maximum || e.Maximum-e.Minimum > 255) {
			o.fail("", "length range does not fit a byte")
		}
		enc = e
	case FloorTypedArray:
		enc = FloorArray{Minimum: o.unsigned("minimum"), Encoding: o.nested("encoding"), PrefixEncodings: o.prefix()}
	case RoofTypedArray:
		enc = RoofArray{Maximum: o.unsigned("maximum"), Encoding: o.nested("encoding"), PrefixEncodings: o.prefix()}
	case FixedTypedArbitraryObject:
		enc = FixedObject{Size: o.unsigned("size"), KeyEncoding: o.nested("keyEncoding"), Encoding: o.nested("encoding")}
	case VarintTypedArbitraryObject:
		enc = VarintObject{KeyEncoding: o.nested("keyEncoding"), Encoding: o.nested("encoding")}
	case AnyPackedTypeTagBytePrefix:
		enc = AnyPacked{}
	default:
		return nil, &UnknownEncodingError{Name: raw}
	}
	if o.err != nil {
		return nil, o.err
	}
	return enc, nil
}

// Descriptor is the inverse of Parse.
func Descriptor(enc Encoding) map[string]any {
	opts := map[string]any{}
	switch e := enc.(type) {
	case BoundedMultiple8Bits:
		opts["minimum"], opts["maximum"], opts["multiplier"] = e.Minimum, e.Maximum, int64(e.Multiplier)
	case FloorMultiple:
		opts["minimum"], opts["multiplier"] = e.Minimum, int64(e.Multiplier)
	case RoofMultipleMirror:
		opts["maximum"], opts["multiplier"] = e.Maximum, int64(e.Multiplier)
	case ArbitraryMultipleZigzag:
		opts["multiplier"] = int64(e.Multiplier)
	case DoubleVarint, RFC3339Date, PrefixVarintLengthString, AnyPacked:
	case ByteChoice:
		opts["choices"] = e.Choices
	case LargeChoice:
		opts["choices"] = e.Choices
	case TopLevelByteChoice:
		opts["choices"] = e.Choices
	case Const:
		opts["value"] = e.Value
	case UTF8NoLength:
		opts["size"] = int64(e.Size)
	case FloorVarintPrefixString:
		opts["minimum"] = int64(e.Minimum)
	case RoofVarintPrefixString:
		opts["maximum"] = int64(e.Maximum)
	case Bounded8BitPrefixString:
		opts["minimum"], opts["maximum"] = int64(e.Minimum), int64(e.Maximum)
	case FixedArray:
		opts["size"] = int64(e.Size)
		arrayOptions(opts, e.Encoding, e.PrefixEncodings)
	case Bounded8BitsArray:
		opts["minimum"], opts["maximum"] = int64(e.Minimum), int64(e.Maximum)
		arrayOptions(opts, e.Encoding, e.PrefixEncodings)
	case FloorArray:
		opts["minimum"] = int64(e.Minimum)
		arrayOptions(opts, e.Encoding, e.PrefixEncodings)
	case RoofArray:
		opts["maximum"] = int64(e.Maximum)
		arrayOptions(opts, e.Encoding, e.PrefixEncodings)
	case FixedObject:
		opts["size"] = int64(e.Size)
		opts["keyEncoding"], opts["encoding"] = Descriptor(e.KeyEncoding), Descriptor(e.Encoding)
	case VarintObject:
		opts["keyEncoding"], opts["encoding"] = Descriptor(e.KeyEncoding), Descriptor(e.Encoding)
	default:
		panic(fmt.Sprintf("encoding: unhandled encoding %T", enc))
	}
	return map[string]any{
		"$schema": jsonschema.EncodingDialect,
		"name":    string(enc.Name()),
		"options": opts,
	}
}

func arrayOptions(opts map[string]any, tail Encoding, prefix []Encoding) {
	opts["encoding"] = Descriptor(tail)
	list := make([]any, 0, len(prefix))
	for _, p := range prefix {
		list = append(list, Descriptor(p))
	}
	opts["prefixEncodings"] = list
}
