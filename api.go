package jsonbinpack

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sourcemeta/jsonbinpack-sub005/canonicalizer"
	"github.com/sourcemeta/jsonbinpack-sub005/codec"
	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
	"github.com/sourcemeta/jsonbinpack-sub005/mapper"
)

// Plan is a compiled schema: the encoding tree used to write and read
// documents. A Plan is immutable and safe to share.
type Plan struct {
	enc encoding.Encoding
}

// NewPlan wraps an encoding tree.
func NewPlan(enc encoding.Encoding) *Plan { return &Plan{enc: enc} }

// ParsePlan builds a Plan from an encoding descriptor.
func ParsePlan(descriptor any) (*Plan, error) {
	enc, err := encoding.Parse(descriptor)
	if err != nil {
		return nil, fmt.Errorf("jsonbinpack: %w", err)
	}
	return &Plan{enc: enc}, nil
}

// LoadPlan reads a descriptor from a JSON, JSONC or YAML file.
func LoadPlan(path string) (*Plan, error) {
	v, err := document.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePlan(v)
}

// Encoding returns the root of the encoding tree.
func (p *Plan) Encoding() encoding.Encoding { return p.enc }

// Descriptor returns the plan as an encoding descriptor.
func (p *Plan) Descriptor() map[string]any { return encoding.Descriptor(p.enc) }

func (p *Plan) MarshalJSON() ([]byte, error) {
	if p == nil || p.enc == nil {
		return nil, ErrNilPlan
	}
	return document.Marshal(p.Descriptor())
}

func (p *Plan) UnmarshalJSON(data []byte) error {
	v, err := document.Parse(data)
	if err != nil {
		return err
	}
	parsed, err := ParsePlan(v)
	if err != nil {
		return err
	}
	p.enc = parsed.enc
	return nil
}

// Canonicalize returns the canonical form of schema. The input is not
// modified. Local $refs are inlined first unless opts.KeepRefs is set; the
// ones that cannot be inlined are logged as warnings.
func Canonicalize(ctx context.Context, schema any, opts Options) (any, error) {
	return canonicalize(ctx, schema, opts.withDefaults())
}

func canonicalize(ctx context.Context, schema any, o Options) (any, error) {
	s := document.Clone(schema)
	if !o.KeepRefs {
		for _, w := range jsonschema.InlineLocalRefs(&s, o.DefaultDialect) {
			o.Logger.WithFields(logrus.Fields{
				"pointer": w.Pointer,
				"ref":     w.Ref,
			}).Warn("$ref " + w.Reason)
		}
	}
	if err := canonicalizer.Canonicalize(ctx, &s, o.ruleOptions()); err != nil {
		return nil, fmt.Errorf("jsonbinpack: canonicalize: %w", err)
	}
	o.Logger.Debug("canonicalized schema")
	return s, nil
}

// Compile canonicalizes schema and maps it to a Plan.
func Compile(ctx context.Context, schema any, opts Options) (*Plan, error) {
	o := opts.withDefaults()
	s, err := canonicalize(ctx, schema, o)
	if err != nil {
		return nil, err
	}
	if err := mapper.Map(ctx, &s, o.ruleOptions()); err != nil {
		return nil, fmt.Errorf("jsonbinpack: map: %w", err)
	}
	enc, err := encoding.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("jsonbinpack: compile: %w", err)
	}
	o.Logger.WithField("encoding", enc.Name()).Debug("compiled schema")
	return &Plan{enc: enc}, nil
}

// CompileFile compiles the schema stored at path. Schemas given to the
// resolver by identifier can be loaded with jsonschema.LoadFiles.
func CompileFile(ctx context.Context, path string, opts Options) (*Plan, error) {
	schema, err := document.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(ctx, schema, opts)
}

// Marshal encodes one document.
func Marshal(plan *Plan, doc any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, plan, Options{}).Write(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes one document that spans all of data.
func Unmarshal(plan *Plan, data []byte) (any, error) {
	r := NewReader(bytes.NewReader(data), plan, Options{})
	v, err := r.decode()
	if err != nil {
		return nil, err
	}
	if r.dec.More() {
		return nil, ErrTrailingData
	}
	return v, nil
}

// Writer encodes a sequence of documents into one stream, sharing strings
// across them. It is not safe for concurrent use.
type Writer struct {
	plan *Plan
	enc  *codec.Encoder
}

// NewWriter starts an encoding session on w.
func NewWriter(w io.Writer, plan *Plan, opts Options) *Writer {
	return &Writer{plan: plan, enc: codec.NewEncoder(w, opts.withDefaults().codecOptions()...)}
}

// Write encodes doc and flushes it to the stream.
func (w *Writer) Write(doc any) error {
	if w.plan == nil || w.plan.enc == nil {
		return ErrNilPlan
	}
	return w.enc.Encode(doc, w.plan.enc)
}

// Position is the number of bytes written so far.
func (w *Writer) Position() uint64 { return w.enc.Position() }

// Reader decodes the documents written by a Writer with the same plan and
// options. It is not safe for concurrent use.
type Reader struct {
	plan *Plan
	dec  *codec.Decoder
}

// NewReader starts a decoding session at the current offset of r.
func NewReader(r io.ReadSeeker, plan *Plan, opts Options) *Reader {
	return &Reader{plan: plan, dec: codec.NewDecoder(r, opts.withDefaults().codecOptions()...)}
}

// Read decodes the next document, or returns io.EOF at the end of the
// stream. Documents that encode to zero bytes cannot be told apart from the
// end of a stream; use Unmarshal for them.
func (r *Reader) Read() (any, error) {
	if !r.dec.More() {
		return nil, io.EOF
	}
	return r.decode()
}

func (r *Reader) decode() (any, error) {
	if r.plan == nil || r.plan.enc == nil {
		return nil, ErrNilPlan
	}
	return r.dec.Decode(r.plan.enc)
}

// Position is the number of bytes consumed so far.
func (r *Reader) Position() uint64 { return r.dec.Position() }
