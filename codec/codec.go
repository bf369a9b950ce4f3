// Package codec writes JSON documents as bytes following an encoding plan and
// reads them back. An Encoder and a Decoder each own one stream and one
// string cache for their whole session; documents encoded in one session must
// be decoded in one session, in the same order.
package codec

import (
	"io"

	"github.com/sirupsen/logrus"
)

type config struct {
	cacheSize uint64
	logger    logrus.FieldLogger
}

// Option configures an Encoder or a Decoder. Both sides of a session must use
// the same cache size.
type Option func(*config)

// WithCacheSize sets the string cache budget in bytes.
func WithCacheSize(n uint64) Option {
	return func(c *config) { c.cacheSize = n }
}

// WithLogger sets the logger receiving per-document debug entries.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) { c.logger = l }
}

func newConfig(opts []Option) config {
	c := config{cacheSize: DefaultCacheSize}
	for _, o := range opts {
		o(&c)
	}
	if c.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.logger = l
	}
	return c
}

// noCopy may be embedded into structs which must not be copied after first
// use. See go vet's copylocks checker.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Tag byte layout of ANY_PACKED_TYPE_TAG_BYTE_PREFIX: the top three bits hold
// the type, the low five bits a payload.
const (
	tagSharedString byte = iota
	tagString
	tagLongString
	tagObject
	tagArray
	tagPositiveIntegerByte
	tagNegativeIntegerByte
	tagOther
)

const (
	subtypeFalse byte = iota
	subtypeTrue
	subtypeNull
	subtypePositiveInteger
	subtypeNegativeInteger
	subtypeNumber
	subtypeLargeNumber
	subtypeLongStringBaseExponent7
	subtypeLongStringBaseExponent8
	subtypeLongStringBaseExponent9
	subtypeLongStringBaseExponent10
)

// payloadLimit is the exclusive upper bound of inline payloads, which are
// stored plus one.
const payloadLimit = 1<<5 - 1

func tag(kind, payload byte) byte { return kind<<5 | payload }

func splitTag(b byte) (kind, payload byte) { return b >> 5, b & 0x1f }
