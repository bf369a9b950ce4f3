package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// DefaultMaxDepth bounds container nesting when ParseOptions.MaxDepth is zero.
const DefaultMaxDepth = 1000

// ErrMaxDepth is returned when a document nests deeper than allowed.
var ErrMaxDepth = errors.New("document: max depth exceeded")

// ErrTrailingData is returned when input continues after the first value.
var ErrTrailingData = errors.New("document: trailing data after value")

// DuplicateKeyError reports an object key that appears twice.
type DuplicateKeyError struct {
	Key     string
	Pointer string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("document: key %q duplicated at %q", e.Key, e.Pointer)
}

// ParseOptions controls document parsing.
type ParseOptions struct {
	// MaxDepth limits nesting; zero means DefaultMaxDepth, negative disables.
	MaxDepth int
	// AllowDuplicateKeys keeps the last value of a repeated key instead of
	// failing.
	AllowDuplicateKeys bool
}

// Parse decodes exactly one JSON value from data.
func Parse(data []byte) (any, error) {
	return ParseWithOptions(data, ParseOptions{})
}

// ParseReader decodes exactly one JSON value from r.
func ParseReader(r io.Reader, opts ParseOptions) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	p := &parser{dec: dec, opts: opts}
	if p.opts.MaxDepth == 0 {
		p.opts.MaxDepth = DefaultMaxDepth
	}
	tok, err := p.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	v, err := p.value(tok, Pointer{}, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, ErrTrailingData
	}
	return v, nil
}

// ParseWithOptions decodes exactly one JSON value from data.
func ParseWithOptions(data []byte, opts ParseOptions) (any, error) {
	return ParseReader(bytes.NewReader(data), opts)
}

type parser struct {
	dec  *json.Decoder
	opts ParseOptions
}

func (p *parser) next() (json.Token, error) {
	return p.dec.Token()
}

func (p *parser) value(tok json.Token, at Pointer, depth int) (any, error) {
	switch v := tok.(type) {
	case json.Delim:
		if p.opts.MaxDepth > 0 && depth+1 > p.opts.MaxDepth {
			return nil, fmt.Errorf("%w at %q", ErrMaxDepth, at.String())
		}
		switch v {
		case '{':
			return p.object(at, depth+1)
		case '[':
			return p.array(at, depth+1)
		}
		return nil, fmt.Errorf("document: unexpected delimiter %q at %q", rune(v), at.String())
	case string, bool, nil, json.Number:
		return v, nil
	case float64:
		return v, nil
	}
	return nil, fmt.Errorf("document: unexpected token %T at %q", tok, at.String())
}

func (p *parser) object(at Pointer, depth int) (any, error) {
	out := map[string]any{}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, unexpected(err)
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return out, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("document: expected object key at %q", at.String())
		}
		if _, dup := out[key]; dup && !p.opts.AllowDuplicateKeys {
			return nil, &DuplicateKeyError{Key: key, Pointer: at.String()}
		}
		tok, err = p.next()
		if err != nil {
			return nil, unexpected(err)
		}
		v, err := p.value(tok, at.Field(key), depth)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
}

func (p *parser) array(at Pointer, depth int) (any, error) {
	out := []any{}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, unexpected(err)
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return out, nil
		}
		v, err := p.value(tok, at.Index(len(out)), depth)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Marshal encodes a document value as compact JSON with sorted object keys.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent encodes a document value as indented JSON with sorted object
// keys.
func MarshalIndent(v any, indent string) ([]byte, error) {
	return json.MarshalIndent(v, "", indent)
}
