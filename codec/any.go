package codec

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/numeric"
)

var anyPacked = encoding.AnyPacked{}

// longStringThreshold is the smallest byte size written with an exponent
// subtype instead of a length prefix.
const longStringThreshold = 1 << subtypeLongStringBaseExponent7

func (e *Encoder) any(doc any, at document.Pointer) error {
	switch document.KindOf(doc) {
	case document.KindNull:
		return e.putByte(tag(tagOther, subtypeNull))

	case document.KindBoolean:
		if doc.(bool) {
			return e.putByte(tag(tagOther, subtypeTrue))
		}
		return e.putByte(tag(tagOther, subtypeFalse))

	case document.KindInteger:
		v, _ := document.Integer(doc)
		if v >= 0 {
			return e.anyInteger(tagPositiveIntegerByte, subtypePositiveInteger, uint64(v))
		}
		return e.anyInteger(tagNegativeIntegerByte, subtypeNegativeInteger, uint64(-(v + 1)))

	case document.KindReal:
		if f, ok := document.Number(doc); ok && !math.IsInf(f, 0) && math.Abs(f) >= math.MaxInt64 {
			return e.anyLargeReal(f, at)
		}
		if err := e.putByte(tag(tagOther, subtypeNumber)); err != nil {
			return err
		}
		return e.real(doc, anyPacked, at)

	case document.KindString:
		s := doc.(string)
		if !utf8.ValidString(s) {
			return violated(anyPacked, at, "not valid UTF-8")
		}
		return e.anyString(s)

	case document.KindArray:
		arr := doc.([]any)
		if err := e.anySize(tagArray, uint64(len(arr))); err != nil {
			return err
		}
		for i, item := range arr {
			if err := e.any(item, at.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case document.KindObject:
		obj := doc.(map[string]any)
		if err := e.anySize(tagObject, uint64(len(obj))); err != nil {
			return err
		}
		for _, k := range document.SortedKeys(obj) {
			if err := e.prefixedString(k); err != nil {
				return err
			}
			if err := e.any(obj[k], at.Field(k)); err != nil {
				return err
			}
		}
		return nil

	default:
		return violated(anyPacked, at, "%T is not a JSON value", doc)
	}
}

// anyInteger writes a magnitude inline, in a trailing byte, or as a varint
// under the given subtype.
func (e *Encoder) anyInteger(kind, subtype byte, v uint64) error {
	switch {
	case v < payloadLimit:
		return e.putByte(tag(kind, byte(v+1)))
	case numeric.IsByte(v):
		if err := e.putByte(tag(kind, 0)); err != nil {
			return err
		}
		return e.putByte(byte(v))
	default:
		if err := e.putByte(tag(tagOther, subtype)); err != nil {
			return err
		}
		return e.putVarint(v)
	}
}

// anyLargeReal writes a real past the int64 range as digits and a power of
// ten, since digits over a decimal point cannot hold it.
func (e *Encoder) anyLargeReal(f float64, at document.Pointer) error {
	digits, exponent, ok := numeric.ScaledDigits(f)
	if !ok {
		return violated(anyPacked, at, "%v cannot be written as digits and a power of ten", f)
	}
	if err := e.putByte(tag(tagOther, subtypeLargeNumber)); err != nil {
		return err
	}
	if err := e.putVarint(numeric.ZigzagEncode(digits)); err != nil {
		return err
	}
	return e.putVarint(exponent)
}

func (e *Encoder) anySize(kind byte, n uint64) error {
	if n < payloadLimit {
		return e.putByte(tag(kind, byte(n+1)))
	}
	if err := e.putByte(tag(kind, 0)); err != nil {
		return err
	}
	return e.putVarint(n)
}

func (e *Encoder) anyString(s string) error {
	size := uint64(len(s))
	offset, cached := e.cache.Find(s, CacheStandalone)
	switch {
	case size < payloadLimit && cached:
		if err := e.putByte(tag(tagSharedString, byte(size+1))); err != nil {
			return err
		}
		return e.putVarint(e.pos - offset)

	case size < payloadLimit:
		if err := e.putByte(tag(tagString, byte(size+1))); err != nil {
			return err
		}
		offset := e.pos
		if err := e.putString(s); err != nil {
			return err
		}
		e.cache.Record(s, offset, CacheStandalone)
		return nil

	case size < 2*payloadLimit && !cached:
		if err := e.putByte(tag(tagLongString, byte(size-payloadLimit))); err != nil {
			return err
		}
		return e.putString(s)

	case size >= longStringThreshold && !cached:
		exponent := numeric.ClosestSmallestExponent(size, 2,
			subtypeLongStringBaseExponent7, subtypeLongStringBaseExponent10)
		if err := e.putByte(tag(tagOther, exponent)); err != nil {
			return err
		}
		if err := e.putVarint(size - 1<<exponent); err != nil {
			return err
		}
		return e.putString(s)

	default:
		if err := e.putByte(tag(tagString, 0)); err != nil {
			return err
		}
		return e.shared(s, uint64(utf8.RuneCountInString(s))+1, e.putVarint)
	}
}

func (d *Decoder) any() (any, error) {
	marker := d.pos
	b, err := d.getByte()
	if err != nil {
		return nil, err
	}
	kind, payload := splitTag(b)
	switch kind {
	case tagSharedString:
		if payload == 0 {
			return nil, d.malformed("shared string without a size", nil)
		}
		return d.backReference(marker, func() (string, error) { return d.getText(uint64(payload - 1)) })

	case tagString:
		if payload == 0 {
			return d.shared(d.getVarint, func(prefix uint64) (uint64, bool) { return prefix - 1, true })
		}
		offset := d.pos
		s, err := d.getText(uint64(payload - 1))
		if err != nil {
			return nil, err
		}
		d.cache.Record(s, offset, CacheStandalone)
		return s, nil

	case tagLongString:
		return d.getText(uint64(payload) + payloadLimit)

	case tagObject:
		n, err := d.anySize(payload)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, min(n, maxPreallocated))
		for i := uint64(0); i < n; i++ {
			key, err := d.prefixedString()
			if err != nil {
				return nil, err
			}
			if _, dup := out[key]; dup {
				return nil, d.malformed(fmt.Sprintf("duplicate object key %q", key), nil)
			}
			if out[key], err = d.any(); err != nil {
				return nil, err
			}
		}
		return out, nil

	case tagArray:
		n, err := d.anySize(payload)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, min(n, maxPreallocated))
		for i := uint64(0); i < n; i++ {
			v, err := d.any()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case tagPositiveIntegerByte:
		v, err := d.anyByte(payload)
		if err != nil {
			return nil, err
		}
		return int64(v), nil

	case tagNegativeIntegerByte:
		v, err := d.anyByte(payload)
		if err != nil {
			return nil, err
		}
		return -1 - int64(v), nil
	}

	switch payload {
	case subtypeFalse:
		return false, nil
	case subtypeTrue:
		return true, nil
	case subtypeNull:
		return nil, nil
	case subtypePositiveInteger, subtypeNegativeInteger:
		u, err := d.getVarint()
		if err != nil {
			return nil, err
		}
		if u > math.MaxInt64 {
			return nil, d.malformed("integer out of range", nil)
		}
		if payload == subtypeNegativeInteger {
			return -1 - int64(u), nil
		}
		return int64(u), nil
	case subtypeNumber:
		return d.real()
	case subtypeLargeNumber:
		digits, err := d.getVarint()
		if err != nil {
			return nil, err
		}
		exponent, err := d.getVarint()
		if err != nil {
			return nil, err
		}
		f, err := numeric.ScaledFromDigits(numeric.ZigzagDecode(digits), exponent)
		if err != nil {
			return nil, d.malformed("number out of range", err)
		}
		return f, nil
	case subtypeLongStringBaseExponent7, subtypeLongStringBaseExponent8,
		subtypeLongStringBaseExponent9, subtypeLongStringBaseExponent10:
		u, err := d.getVarint()
		if err != nil {
			return nil, err
		}
		base := uint64(1) << payload
		if u > math.MaxUint64-base {
			return nil, d.malformed("string size out of range", nil)
		}
		return d.getText(u + base)
	default:
		return nil, d.malformed(fmt.Sprintf("unknown subtype %d", payload), nil)
	}
}

// anyByte reads an inline magnitude or the byte after the tag.
func (d *Decoder) anyByte(payload byte) (uint64, error) {
	if payload != 0 {
		return uint64(payload - 1), nil
	}
	b, err := d.getByte()
	return uint64(b), err
}

func (d *Decoder) anySize(payload byte) (uint64, error) {
	if payload != 0 {
		return uint64(payload - 1), nil
	}
	return d.getVarint()
}
