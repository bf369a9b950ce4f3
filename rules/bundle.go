package rules

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sourcemeta/jsonbinpack-sub005/document"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
)

// ApplyOptions configures Bundle.Apply.
type ApplyOptions struct {
	// DefaultDialect is used when neither a node nor the root declares
	// $schema.
	DefaultDialect string
	// Resolver looks up metaschemas of non-official dialects.
	Resolver jsonschema.Resolver
	// Logger receives one debug entry per rule firing.
	Logger logrus.FieldLogger
}

// Bundle is an ordered set of uniquely named rules.
type Bundle struct {
	name  string
	rules []Rule
	index map[string]int
}

// NewBundle creates a bundle. Duplicate or incomplete rules are programming
// errors and panic.
func NewBundle(name string, rules ...Rule) *Bundle {
	b := &Bundle{name: name, index: map[string]int{}}
	for _, r := range rules {
		b.Add(r)
	}
	return b
}

// Add appends a rule. Rules fire in the order they were added.
func (b *Bundle) Add(r Rule) {
	if r.Name == "" || r.Condition == nil || r.Transform == nil {
		panic(fmt.Sprintf("rules: incomplete rule %q in bundle %s", r.Name, b.name))
	}
	if _, dup := b.index[r.Name]; dup {
		panic(fmt.Sprintf("rules: duplicate rule %q in bundle %s", r.Name, b.name))
	}
	b.index[r.Name] = len(b.rules)
	b.rules = append(b.rules, r)
}

// Name returns the bundle name.
func (b *Bundle) Name() string { return b.name }

// Rules returns the rules in firing order.
func (b *Bundle) Rules() []Rule { return append([]Rule(nil), b.rules...) }

// Rule returns a rule by name.
func (b *Bundle) Rule(name string) (Rule, bool) {
	i, ok := b.index[name]
	if !ok {
		return Rule{}, false
	}
	return b.rules[i], true
}

// slot is one pending node: how to read and replace it, where it lives and
// the dialect it inherits.
type slot struct {
	get       func() any
	set       func(any)
	location  document.Pointer
	inherited string
}

// Apply rewrites doc in place until no rule matches any node. Nodes are
// visited parent first; each node reaches its own fixed point before its
// sub-schemas are enumerated.
func (b *Bundle) Apply(ctx context.Context, doc *any, opts ApplyOptions) error {
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	vocabCache := map[string]jsonschema.Vocabularies{}
	resolve := func(node any, inherited string) (string, jsonschema.Vocabularies, error) {
		dialect, err := jsonschema.ResolveDialect(node, inherited, *doc, opts.DefaultDialect)
		if err != nil {
			return "", nil, err
		}
		if v, ok := vocabCache[dialect]; ok {
			return dialect, v, nil
		}
		v, err := jsonschema.ResolveVocabularies(ctx, opts.Resolver, dialect)
		if err != nil {
			return "", nil, err
		}
		vocabCache[dialect] = v
		return dialect, v, nil
	}

	stack := []slot{{
		get: func() any { return *doc },
		set: func(v any) { *doc = v },
	}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		value := current.get()
		dialect, vocabs, err := resolve(value, current.inherited)
		if err != nil {
			return fmt.Errorf("%s at %q: %w", b.name, current.location.String(), err)
		}

		fired := map[string]bool{}
		for progress := true; progress; {
			progress = false
			for _, r := range b.rules {
				rc := Context{Dialect: dialect, Vocabularies: vocabs, Location: current.location, Root: *doc}
				if !r.Condition(value, rc) {
					continue
				}
				if fired[r.Name] {
					return &InvariantError{Bundle: b.name, Rule: r.Name, Pointer: current.location.String(), Kind: FiredTwice}
				}
				r.Transform(&value, rc)
				current.set(value)
				fired[r.Name] = true
				progress = true
				logger.WithFields(logrus.Fields{
					"bundle":  b.name,
					"rule":    r.Name,
					"pointer": current.location.String(),
					"dialect": dialect,
				}).Debug(r.Message)

				dialect, vocabs, err = resolve(value, current.inherited)
				if err != nil {
					return fmt.Errorf("%s at %q: %w", b.name, current.location.String(), err)
				}
				rc = Context{Dialect: dialect, Vocabularies: vocabs, Location: current.location, Root: *doc}
				if r.Condition(value, rc) {
					return &InvariantError{Bundle: b.name, Rule: r.Name, Pointer: current.location.String(), Kind: Refired}
				}
			}
		}

		subs := jsonschema.Subschemas(value, vocabs)
		for i := len(subs) - 1; i >= 0; i-- {
			sub := subs[i]
			parent := current.location
			stack = append(stack, slot{
				get:       func() any { return sub.Value },
				set:       sub.Set,
				location:  parent.Join(sub.Path),
				inherited: dialect,
			})
		}
	}
	return nil
}

// Check reports the first rule that would fire anywhere in doc, without
// modifying it. It returns an empty name when doc is already at a fixed
// point.
func (b *Bundle) Check(ctx context.Context, doc any, opts ApplyOptions) (rule string, at string, err error) {
	trial := document.Clone(doc)
	found := &firstMatch{}
	wrapped := NewBundle(b.name)
	for _, r := range b.rules {
		r := r
		wrapped.Add(Rule{
			Name:    r.Name,
			Message: r.Message,
			Condition: func(schema any, c Context) bool {
				if found.rule == "" && r.Condition(schema, c) {
					found.rule, found.at = r.Name, c.Location.String()
				}
				return false
			},
			Transform: r.Transform,
		})
	}
	if err := wrapped.Apply(ctx, &trial, opts); err != nil {
		return "", "", err
	}
	return found.rule, found.at, nil
}

type firstMatch struct {
	rule string
	at   string
}
