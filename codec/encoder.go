package codec

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/numeric"
)

// Encoder writes documents to one stream. It is not safe for concurrent use
// and must not be copied.
type Encoder struct {
	noCopy noCopy

	w      *bufio.Writer
	pos    uint64
	cache  *Cache
	logger logrus.FieldLogger
	buf    []byte
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	c := newConfig(opts)
	return &Encoder{
		w:      bufio.NewWriter(w),
		cache:  NewCache(c.cacheSize),
		logger: c.logger,
		buf:    make([]byte, 0, numeric.MaxVarintLen),
	}
}

// Position is the number of bytes written in this session.
func (e *Encoder) Position() uint64 { return e.pos }

// Encode writes doc following plan and flushes the stream. On error the
// stream holds a partial document.
func (e *Encoder) Encode(doc any, plan encoding.Encoding) error {
	start := e.pos
	if err := e.write(doc, plan, document.Pointer{}, true); err != nil {
		return err
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("codec: flush: %w", err)
	}
	e.logger.WithFields(logrus.Fields{
		"encoding": plan.Name(),
		"bytes":    e.pos - start,
		"cached":   e.cache.Len(),
	}).Debug("encoded document")
	return nil
}

func (e *Encoder) putByte(b byte) error {
	if err := e.w.WriteByte(b); err != nil {
		return err
	}
	e.pos++
	return nil
}

func (e *Encoder) putBytes(p []byte) error {
	n, err := e.w.Write(p)
	e.pos += uint64(n)
	return err
}

func (e *Encoder) putString(s string) error {
	n, err := e.w.WriteString(s)
	e.pos += uint64(n)
	return err
}

func (e *Encoder) putVarint(v uint64) error {
	e.buf = numeric.AppendVarint(e.buf[:0], v)
	return e.putBytes(e.buf)
}

func violated(plan encoding.Encoding, at document.Pointer, format string, args ...any) error {
	return &PreconditionError{Encoding: plan.Name(), Pointer: at.String(), Reason: fmt.Sprintf(format, args...)}
}

// isMultiple reports whether v is a multiple of m, for any m.
func isMultiple(v int64, m uint64) bool {
	if m <= math.MaxInt64 {
		return v%int64(m) == 0
	}
	return numeric.Abs(v)%m == 0
}

func (e *Encoder) integer(doc any, plan encoding.Encoding, at document.Pointer, multiplier uint64) (int64, error) {
	v, ok := document.Integral(doc)
	if !ok {
		return 0, violated(plan, at, "%v is not an integer", doc)
	}
	if !isMultiple(v, multiplier) {
		return 0, violated(plan, at, "%d is not a multiple of %d", v, multiplier)
	}
	return numeric.DivideFloor(v, multiplier), nil
}

func (e *Encoder) write(doc any, plan encoding.Encoding, at document.Pointer, top bool) error {
	switch p := plan.(type) {
	case encoding.BoundedMultiple8Bits:
		v, err := e.integer(doc, plan, at, p.Multiplier)
		if err != nil {
			return err
		}
		if n, _ := document.Integral(doc); n < p.Minimum || n > p.Maximum {
			return violated(plan, at, "%d is outside [%d, %d]", n, p.Minimum, p.Maximum)
		}
		index := uint64(v) - uint64(numeric.DivideCeil(p.Minimum, p.Multiplier))
		if !numeric.IsByte(index) {
			return violated(plan, at, "index %d does not fit a byte", index)
		}
		return e.putByte(byte(index))

	case encoding.FloorMultiple:
		v, err := e.integer(doc, plan, at, p.Multiplier)
		if err != nil {
			return err
		}
		if n, _ := document.Integral(doc); n < p.Minimum {
			return violated(plan, at, "%d is below %d", n, p.Minimum)
		}
		return e.putVarint(uint64(v) - uint64(numeric.DivideCeil(p.Minimum, p.Multiplier)))

	case encoding.RoofMultipleMirror:
		v, err := e.integer(doc, plan, at, p.Multiplier)
		if err != nil {
			return err
		}
		if n, _ := document.Integral(doc); n > p.Maximum {
			return violated(plan, at, "%d is above %d", n, p.Maximum)
		}
		return e.putVarint(uint64(numeric.DivideFloor(p.Maximum, p.Multiplier)) - uint64(v))

	case encoding.ArbitraryMultipleZigzag:
		v, err := e.integer(doc, plan, at, p.Multiplier)
		if err != nil {
			return err
		}
		return e.putVarint(numeric.ZigzagEncode(v))

	case encoding.DoubleVarint:
		return e.real(doc, plan, at)

	case encoding.ByteChoice:
		i := document.Index(p.Choices, doc)
		if i < 0 || i > math.MaxUint8 {
			return violated(plan, at, "value is not one of the choices")
		}
		return e.putByte(byte(i))

	case encoding.LargeChoice:
		i := document.Index(p.Choices, doc)
		if i < 0 {
			return violated(plan, at, "value is not one of the choices")
		}
		return e.putVarint(uint64(i))

	case encoding.TopLevelByteChoice:
		if !top {
			return violated(plan, at, "only valid for a whole document")
		}
		i := document.Index(p.Choices, doc)
		if i < 0 || i > math.MaxUint8+1 {
			return violated(plan, at, "value is not one of the choices")
		}
		if i == 0 {
			return nil
		}
		return e.putByte(byte(i - 1))

	case encoding.Const:
		if !document.Equal(doc, p.Value) {
			return violated(plan, at, "value is not the constant")
		}
		return nil

	case encoding.UTF8NoLength:
		s, n, err := e.text(doc, plan, at)
		if err != nil {
			return err
		}
		if n != p.Size {
			return violated(plan, at, "length %d is not %d", n, p.Size)
		}
		return e.putString(s)

	case encoding.FloorVarintPrefixString:
		s, n, err := e.text(doc, plan, at)
		if err != nil {
			return err
		}
		if n < p.Minimum {
			return violated(plan, at, "length %d is below %d", n, p.Minimum)
		}
		return e.shared(s, n-p.Minimum+1, e.putVarint)

	case encoding.RoofVarintPrefixString:
		s, n, err := e.text(doc, plan, at)
		if err != nil {
			return err
		}
		if n > p.Maximum {
			return violated(plan, at, "length %d is above %d", n, p.Maximum)
		}
		return e.shared(s, p.Maximum-n+1, e.putVarint)

	case encoding.Bounded8BitPrefixString:
		s, n, err := e.text(doc, plan, at)
		if err != nil {
			return err
		}
		if n < p.Minimum || n > p.Maximum || !numeric.IsByte(n-p.Minimum+1) {
			return violated(plan, at, "length %d is outside [%d, %d]", n, p.Minimum, p.Maximum)
		}
		return e.shared(s, n-p.Minimum+1, func(v uint64) error { return e.putByte(byte(v)) })

	case encoding.RFC3339Date:
		s, ok := doc.(string)
		if !ok {
			return violated(plan, at, "not a string")
		}
		year, month, day, err := parseFullDate(s)
		if err != nil {
			return violated(plan, at, "%v", err)
		}
		if err := e.putByte(byte(year)); err != nil {
			return err
		}
		if err := e.putByte(byte(year >> 8)); err != nil {
			return err
		}
		if err := e.putByte(month); err != nil {
			return err
		}
		return e.putByte(day)

	case encoding.PrefixVarintLengthString:
		s, ok := doc.(string)
		if !ok {
			return violated(plan, at, "not a string")
		}
		return e.prefixedString(s)

	case encoding.FixedArray:
		arr, ok := doc.([]any)
		if !ok || uint64(len(arr)) != p.Size {
			return violated(plan, at, "not an array of %d items", p.Size)
		}
		return e.items(arr, p.Encoding, p.PrefixEncodings, at)

	case encoding.Bounded8BitsArray:
		arr, ok := doc.([]any)
		if !ok {
			return violated(plan, at, "not an array")
		}
		n := uint64(len(arr))
		if n < p.Minimum || n > p.Maximum || !numeric.IsByte(n-p.Minimum) {
			return violated(plan, at, "%d items is outside [%d, %d]", n, p.Minimum, p.Maximum)
		}
		if err := e.putByte(byte(n - p.Minimum)); err != nil {
			return err
		}
		return e.items(arr, p.Encoding, p.PrefixEncodings, at)

	case encoding.FloorArray:
		arr, ok := doc.([]any)
		if !ok || uint64(len(arr)) < p.Minimum {
			return violated(plan, at, "not an array of at least %d items", p.Minimum)
		}
		if err := e.putVarint(uint64(len(arr)) - p.Minimum); err != nil {
			return err
		}
		return e.items(arr, p.Encoding, p.PrefixEncodings, at)

	case encoding.RoofArray:
		arr, ok := doc.([]any)
		if !ok || uint64(len(arr)) > p.Maximum {
			return violated(plan, at, "not an array of at most %d items", p.Maximum)
		}
		if err := e.putVarint(p.Maximum - uint64(len(arr))); err != nil {
			return err
		}
		return e.items(arr, p.Encoding, p.PrefixEncodings, at)

	case encoding.FixedObject:
		obj, ok := doc.(map[string]any)
		if !ok || uint64(len(obj)) != p.Size {
			return violated(plan, at, "not an object of %d properties", p.Size)
		}
		return e.entries(obj, p.KeyEncoding, p.Encoding, at)

	case encoding.VarintObject:
		obj, ok := doc.(map[string]any)
		if !ok {
			return violated(plan, at, "not an object")
		}
		if err := e.putVarint(uint64(len(obj))); err != nil {
			return err
		}
		return e.entries(obj, p.KeyEncoding, p.Encoding, at)

	case encoding.AnyPacked:
		return e.any(doc, at)

	default:
		return fmt.Errorf("codec: unsupported encoding %T", plan)
	}
}

func (e *Encoder) real(doc any, plan encoding.Encoding, at document.Pointer) error {
	f, ok := document.Number(doc)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return violated(plan, at, "%v is not a finite number", doc)
	}
	if math.Abs(f) >= math.MaxInt64 {
		return violated(plan, at, "%v has too many integer digits", doc)
	}
	digits, point := numeric.RealDigits(f)
	if err := e.putVarint(numeric.ZigzagEncode(digits)); err != nil {
		return err
	}
	return e.putVarint(point)
}

// text returns a string and its length in code points.
func (e *Encoder) text(doc any, plan encoding.Encoding, at document.Pointer) (string, uint64, error) {
	s, ok := doc.(string)
	if !ok {
		return "", 0, violated(plan, at, "not a string")
	}
	if !utf8.ValidString(s) {
		return "", 0, violated(plan, at, "not valid UTF-8")
	}
	return s, uint64(utf8.RuneCountInString(s)), nil
}

// shared writes a string with a length prefix, or a zero marker, the prefix
// and the distance back to an earlier copy.
func (e *Encoder) shared(s string, prefix uint64, putPrefix func(uint64) error) error {
	if offset, ok := e.cache.Find(s, CacheStandalone); ok {
		if err := e.putByte(0); err != nil {
			return err
		}
		if err := putPrefix(prefix); err != nil {
			return err
		}
		return e.putVarint(e.pos - offset)
	}
	if err := putPrefix(prefix); err != nil {
		return err
	}
	offset := e.pos
	if err := e.putString(s); err != nil {
		return err
	}
	e.cache.Record(s, offset, CacheStandalone)
	return nil
}

// prefixedString writes byte length+1 and the bytes, or a zero and the
// distance back to an earlier prefixed copy. A repeat moves the cache entry
// to the new copy.
func (e *Encoder) prefixedString(s string) error {
	offset := e.pos
	if previous, ok := e.cache.Find(s, CachePrefixLengthVarintPlusOne); ok {
		if err := e.putByte(0); err != nil {
			return err
		}
		if err := e.putVarint(e.pos - previous); err != nil {
			return err
		}
	} else {
		if err := e.putVarint(uint64(len(s)) + 1); err != nil {
			return err
		}
		if err := e.putString(s); err != nil {
			return err
		}
	}
	e.cache.Record(s, offset, CachePrefixLengthVarintPlusOne)
	return nil
}

func (e *Encoder) items(arr []any, tail encoding.Encoding, prefix []encoding.Encoding, at document.Pointer) error {
	for i, item := range arr {
		plan := tail
		if i < len(prefix) {
			plan = prefix[i]
		}
		if err := e.write(item, plan, at.Index(i), false); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) entries(obj map[string]any, keyPlan, valuePlan encoding.Encoding, at document.Pointer) error {
	for _, k := range document.SortedKeys(obj) {
		if err := e.write(k, keyPlan, at.Field(k), false); err != nil {
			return err
		}
		if err := e.write(obj[k], valuePlan, at.Field(k), false); err != nil {
			return err
		}
	}
	return nil
}
