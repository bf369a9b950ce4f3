package jsonbinpack

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sourcemeta/jsonbinpack-sub005/codec"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
	"github.com/sourcemeta/jsonbinpack-sub005/rules"
)

// Options configures compilation and the codec sessions created from a Plan.
// The zero value treats schemas without $schema as 2020-12.
type Options struct {
	// DefaultDialect applies to schemas that do not declare $schema.
	DefaultDialect string
	// Resolver answers metaschemas of custom dialects. Official dialects are
	// always known.
	Resolver jsonschema.Resolver
	// KeepRefs disables inlining of document-local $refs.
	KeepRefs bool
	// CacheSize is the string cache budget of each session. Zero means
	// codec.DefaultCacheSize. Encoder and decoder must agree on it.
	CacheSize uint64
	Logger    logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.DefaultDialect == "" {
		o.DefaultDialect = jsonschema.Draft2020_12
	}
	if o.Resolver == nil {
		o.Resolver = jsonschema.Official()
	} else {
		o.Resolver = jsonschema.ChainResolver{o.Resolver, jsonschema.Official()}
	}
	if o.CacheSize == 0 {
		o.CacheSize = codec.DefaultCacheSize
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
	return o
}

func (o Options) ruleOptions() rules.ApplyOptions {
	return rules.ApplyOptions{
		DefaultDialect: o.DefaultDialect,
		Resolver:       o.Resolver,
		Logger:         o.Logger,
	}
}

func (o Options) codecOptions() []codec.Option {
	return []codec.Option{codec.WithCacheSize(o.CacheSize), codec.WithLogger(o.Logger)}
}
