package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/numeric"
)

// maxPreallocated caps the capacity reserved from a decoded length before
// the items have actually been read.
const maxPreallocated = 1024

// Decoder reads documents from one stream. Back-references are resolved by
// seeking, so the stream must support it. A Decoder is not safe for
// concurrent use and must not be copied.
type Decoder struct {
	noCopy noCopy

	src    io.ReadSeeker
	r      *bufio.Reader
	base   int64
	pos    uint64
	cache  *Cache
	logger logrus.FieldLogger
	err    error
}

// NewDecoder returns a decoder reading from the current offset of r.
func NewDecoder(r io.ReadSeeker, opts ...Option) *Decoder {
	c := newConfig(opts)
	d := &Decoder{
		src:    r,
		r:      bufio.NewReader(r),
		cache:  NewCache(c.cacheSize),
		logger: c.logger,
	}
	d.base, d.err = r.Seek(0, io.SeekCurrent)
	if d.err != nil {
		d.err = fmt.Errorf("codec: stream is not seekable: %w", d.err)
	}
	return d
}

// Position is the number of bytes consumed in this session.
func (d *Decoder) Position() uint64 { return d.pos }

// More reports whether Decode has something to return: unread bytes or a
// pending stream error.
func (d *Decoder) More() bool {
	if d.err != nil {
		return true
	}
	_, err := d.r.Peek(1)
	return err == nil
}

// Decode reads one document following plan. Integers decode as int64, reals
// as float64, arrays as []any and objects as map[string]any.
//
// TOP_LEVEL_BYTE_CHOICE_INDEX writes nothing for its first choice, so a
// document using it must be the last one in the stream.
func (d *Decoder) Decode(plan encoding.Encoding) (any, error) {
	if d.err != nil {
		return nil, d.err
	}
	start := d.pos
	v, err := d.read(plan, true)
	if err != nil {
		return nil, err
	}
	d.logger.WithFields(logrus.Fields{
		"encoding": plan.Name(),
		"bytes":    d.pos - start,
		"cached":   d.cache.Len(),
	}).Debug("decoded document")
	return v, nil
}

func (d *Decoder) malformed(reason string, err error) error {
	return &MalformedError{Offset: d.pos, Reason: reason, Err: err}
}

func (d *Decoder) truncated(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return d.malformed("truncated input", err)
}

// byteFunc adapts a read function to io.ByteReader.
type byteFunc func() (byte, error)

func (f byteFunc) ReadByte() (byte, error) { return f() }

func (d *Decoder) next() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}
	d.pos++
	return b, nil
}

func (d *Decoder) getByte() (byte, error) {
	b, err := d.next()
	if err != nil {
		return 0, d.truncated(err)
	}
	return b, nil
}

func (d *Decoder) getVarint() (uint64, error) {
	v, err := numeric.ReadVarint(byteFunc(d.next))
	if errors.Is(err, numeric.ErrVarintOverflow) {
		return 0, d.malformed("varint overflows 64 bits", err)
	}
	if err != nil {
		return 0, d.truncated(err)
	}
	return v, nil
}

// getBytes reads n bytes without trusting n for the allocation.
func (d *Decoder) getBytes(n uint64) ([]byte, error) {
	var buf bytes.Buffer
	if n <= maxPreallocated {
		buf.Grow(int(n))
	}
	read, err := io.CopyN(&buf, d.r, int64(min(n, math.MaxInt64)))
	d.pos += uint64(read)
	if err != nil {
		return nil, d.truncated(err)
	}
	return buf.Bytes(), nil
}

// getText reads n bytes of UTF-8.
func (d *Decoder) getText(n uint64) (string, error) {
	b, err := d.getBytes(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", d.malformed("invalid UTF-8", nil)
	}
	return string(b), nil
}

// getRunes reads n code points.
func (d *Decoder) getRunes(n uint64) (string, error) {
	var sb strings.Builder
	for i := uint64(0); i < n; i++ {
		r, size, err := d.r.ReadRune()
		if err != nil {
			return "", d.truncated(err)
		}
		d.pos += uint64(size)
		if r == utf8.RuneError && size == 1 {
			return "", d.malformed("invalid UTF-8", nil)
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

func (d *Decoder) seek(pos uint64) error {
	if _, err := d.src.Seek(d.base+int64(pos), io.SeekStart); err != nil {
		return fmt.Errorf("codec: seek: %w", err)
	}
	d.r.Reset(d.src)
	d.pos = pos
	return nil
}

// backReference reads a distance and evaluates fn at the offset it points
// to, which must precede marker. The stream position is restored afterwards.
func (d *Decoder) backReference(marker uint64, fn func() (string, error)) (string, error) {
	origin := d.pos
	delta, err := d.getVarint()
	if err != nil {
		return "", err
	}
	if delta > origin || origin-delta >= marker {
		return "", d.malformed("back-reference does not point backwards", nil)
	}
	resume := d.pos
	if err := d.seek(origin - delta); err != nil {
		return "", err
	}
	s, err := fn()
	if err != nil {
		return "", err
	}
	return s, d.seek(resume)
}

// shared reads a string written by Encoder.shared. length maps a non-zero
// prefix to a length in code points.
func (d *Decoder) shared(getPrefix func() (uint64, error), length func(uint64) (uint64, bool)) (string, error) {
	marker := d.pos
	prefix, err := getPrefix()
	if err != nil {
		return "", err
	}
	backReference := prefix == 0
	if backReference {
		if prefix, err = getPrefix(); err != nil {
			return "", err
		}
	}
	n, ok := uint64(0), prefix != 0
	if ok {
		n, ok = length(prefix)
	}
	if !ok {
		return "", d.malformed("invalid length prefix", nil)
	}
	if backReference {
		return d.backReference(marker, func() (string, error) { return d.getRunes(n) })
	}
	offset := d.pos
	s, err := d.getRunes(n)
	if err != nil {
		return "", err
	}
	d.cache.Record(s, offset, CacheStandalone)
	return s, nil
}

func (d *Decoder) prefixedString() (string, error) {
	marker := d.pos
	prefix, err := d.getVarint()
	if err != nil {
		return "", err
	}
	var s string
	if prefix == 0 {
		s, err = d.backReference(marker, d.prefixedString)
	} else {
		s, err = d.getText(prefix - 1)
	}
	if err != nil {
		return "", err
	}
	d.cache.Record(s, marker, CachePrefixLengthVarintPlusOne)
	return s, nil
}

func (d *Decoder) choice(choices []any, index uint64) (any, error) {
	if index >= uint64(len(choices)) {
		return nil, d.malformed(fmt.Sprintf("choice %d out of %d", index, len(choices)), nil)
	}
	return plain(choices[index]), nil
}

// multiple maps a quotient back to its multiple, which must lie in
// [first, last].
func (d *Decoder) multiple(q, first, last int64, m uint64) (any, error) {
	if q < first || q > last {
		return nil, d.malformed("integer out of range", nil)
	}
	// Wraps correctly for a multiplier of 2^63.
	return q * int64(m), nil
}

func (d *Decoder) read(plan encoding.Encoding, top bool) (any, error) {
	switch p := plan.(type) {
	case encoding.BoundedMultiple8Bits:
		b, err := d.getByte()
		if err != nil {
			return nil, err
		}
		first := numeric.DivideCeil(p.Minimum, p.Multiplier)
		return d.multiple(first+int64(b), first, numeric.DivideFloor(p.Maximum, p.Multiplier), p.Multiplier)

	case encoding.FloorMultiple:
		u, err := d.getVarint()
		if err != nil {
			return nil, err
		}
		first := numeric.DivideCeil(p.Minimum, p.Multiplier)
		last := numeric.DivideFloor(math.MaxInt64, p.Multiplier)
		if u > uint64(last)-uint64(first) {
			return nil, d.malformed("integer out of range", nil)
		}
		return d.multiple(int64(uint64(first)+u), first, last, p.Multiplier)

	case encoding.RoofMultipleMirror:
		u, err := d.getVarint()
		if err != nil {
			return nil, err
		}
		first := numeric.DivideCeil(math.MinInt64, p.Multiplier)
		last := numeric.DivideFloor(p.Maximum, p.Multiplier)
		if u > uint64(last)-uint64(first) {
			return nil, d.malformed("integer out of range", nil)
		}
		return d.multiple(int64(uint64(last)-u), first, last, p.Multiplier)

	case encoding.ArbitraryMultipleZigzag:
		u, err := d.getVarint()
		if err != nil {
			return nil, err
		}
		first := numeric.DivideCeil(math.MinInt64, p.Multiplier)
		last := numeric.DivideFloor(math.MaxInt64, p.Multiplier)
		return d.multiple(numeric.ZigzagDecode(u), first, last, p.Multiplier)

	case encoding.DoubleVarint:
		return d.real()

	case encoding.ByteChoice:
		b, err := d.getByte()
		if err != nil {
			return nil, err
		}
		return d.choice(p.Choices, uint64(b))

	case encoding.LargeChoice:
		u, err := d.getVarint()
		if err != nil {
			return nil, err
		}
		return d.choice(p.Choices, u)

	case encoding.TopLevelByteChoice:
		if !top {
			return nil, fmt.Errorf("codec: %s is only valid for a whole document", p.Name())
		}
		if _, err := d.r.Peek(1); errors.Is(err, io.EOF) {
			return d.choice(p.Choices, 0)
		}
		b, err := d.getByte()
		if err != nil {
			return nil, err
		}
		return d.choice(p.Choices, uint64(b)+1)

	case encoding.Const:
		return plain(p.Value), nil

	case encoding.UTF8NoLength:
		return d.getRunes(p.Size)

	case encoding.FloorVarintPrefixString:
		return d.shared(d.getVarint, func(prefix uint64) (uint64, bool) {
			n := prefix - 1 + p.Minimum
			return n, n >= p.Minimum
		})

	case encoding.RoofVarintPrefixString:
		return d.shared(d.getVarint, func(prefix uint64) (uint64, bool) {
			return p.Maximum - (prefix - 1), prefix-1 <= p.Maximum
		})

	case encoding.Bounded8BitPrefixString:
		getPrefix := func() (uint64, error) {
			b, err := d.getByte()
			return uint64(b), err
		}
		return d.shared(getPrefix, func(prefix uint64) (uint64, bool) {
			n := prefix - 1 + p.Minimum
			return n, n <= p.Maximum
		})

	case encoding.RFC3339Date:
		raw, err := d.getBytes(4)
		if err != nil {
			return nil, err
		}
		s, err := formatFullDate(uint16(raw[0])|uint16(raw[1])<<8, raw[2], raw[3])
		if err != nil {
			return nil, d.malformed("invalid date", err)
		}
		return s, nil

	case encoding.PrefixVarintLengthString:
		return d.prefixedString()

	case encoding.FixedArray:
		return d.items(p.Size, p.Encoding, p.PrefixEncodings)

	case encoding.Bounded8BitsArray:
		b, err := d.getByte()
		if err != nil {
			return nil, err
		}
		n := uint64(b) + p.Minimum
		if n > p.Maximum {
			return nil, d.malformed("array length out of range", nil)
		}
		return d.items(n, p.Encoding, p.PrefixEncodings)

	case encoding.FloorArray:
		u, err := d.getVarint()
		if err != nil {
			return nil, err
		}
		if u > math.MaxUint64-p.Minimum {
			return nil, d.malformed("array length out of range", nil)
		}
		return d.items(u+p.Minimum, p.Encoding, p.PrefixEncodings)

	case encoding.RoofArray:
		u, err := d.getVarint()
		if err != nil {
			return nil, err
		}
		if u > p.Maximum {
			return nil, d.malformed("array length out of range", nil)
		}
		return d.items(p.Maximum-u, p.Encoding, p.PrefixEncodings)

	case encoding.FixedObject:
		return d.entries(p.Size, p.KeyEncoding, p.Encoding)

	case encoding.VarintObject:
		n, err := d.getVarint()
		if err != nil {
			return nil, err
		}
		return d.entries(n, p.KeyEncoding, p.Encoding)

	case encoding.AnyPacked:
		return d.any()

	default:
		return nil, fmt.Errorf("codec: unsupported encoding %T", plan)
	}
}

func (d *Decoder) real() (any, error) {
	digits, err := d.getVarint()
	if err != nil {
		return nil, err
	}
	point, err := d.getVarint()
	if err != nil {
		return nil, err
	}
	return numeric.RealFromDigits(numeric.ZigzagDecode(digits), point), nil
}

func (d *Decoder) items(n uint64, tail encoding.Encoding, prefix []encoding.Encoding) (any, error) {
	out := make([]any, 0, min(n, maxPreallocated))
	for i := uint64(0); i < n; i++ {
		plan := tail
		if i < uint64(len(prefix)) {
			plan = prefix[i]
		}
		v, err := d.read(plan, false)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *Decoder) entries(n uint64, keyPlan, valuePlan encoding.Encoding) (any, error) {
	out := make(map[string]any, min(n, maxPreallocated))
	for i := uint64(0); i < n; i++ {
		raw, err := d.read(keyPlan, false)
		if err != nil {
			return nil, err
		}
		key, ok := raw.(string)
		if !ok {
			return nil, d.malformed(fmt.Sprintf("object key of kind %s", document.KindOf(raw)), nil)
		}
		if _, dup := out[key]; dup {
			return nil, d.malformed(fmt.Sprintf("duplicate object key %q", key), nil)
		}
		v, err := d.read(valuePlan, false)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}
