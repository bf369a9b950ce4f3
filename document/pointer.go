package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Pointer is an RFC 6901 JSON Pointer held as unescaped reference tokens.
// Pointers are immutable; Field and Index return extended copies.
type Pointer struct {
	tokens []string
}

// NewPointer builds a pointer from unescaped tokens.
func NewPointer(tokens ...string) Pointer {
	return Pointer{tokens: append([]string(nil), tokens...)}
}

// ParsePointer parses the string form of a JSON Pointer. "" is the root and
// "/" addresses the empty key.
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Pointer{}, nil
	}
	if s[0] != '/' {
		return Pointer{}, fmt.Errorf("document: invalid JSON pointer %q", s)
	}
	parts := strings.Split(s[1:], "/")
	tokens := make([]string, len(parts))
	for i, p := range parts {
		tokens[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
	}
	return Pointer{tokens: tokens}, nil
}

// Field returns the pointer extended by an object key.
func (p Pointer) Field(name string) Pointer {
	return Pointer{tokens: append(append(make([]string, 0, len(p.tokens)+1), p.tokens...), name)}
}

// Index returns the pointer extended by an array index.
func (p Pointer) Index(i int) Pointer {
	return p.Field(strconv.Itoa(i))
}

// Join returns the pointer extended by every token of other.
func (p Pointer) Join(other Pointer) Pointer {
	out := make([]string, 0, len(p.tokens)+len(other.tokens))
	return Pointer{tokens: append(append(out, p.tokens...), other.tokens...)}
}

// Tokens returns a copy of the unescaped reference tokens.
func (p Pointer) Tokens() []string { return append([]string(nil), p.tokens...) }

// Len returns the number of reference tokens.
func (p Pointer) Len() int { return len(p.tokens) }

// IsRoot reports whether the pointer addresses the whole document.
func (p Pointer) IsRoot() bool { return len(p.tokens) == 0 }

// String renders the pointer with '~' and '/' escaped.
func (p Pointer) String() string {
	if len(p.tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range p.tokens {
		b.WriteByte('/')
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(t, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// Get resolves the pointer against a document.
func Get(doc any, p Pointer) (any, bool) {
	current := doc
	for _, t := range p.tokens {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[t]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			i, err := strconv.Atoi(t)
			if err != nil || i < 0 || i >= len(node) || (len(t) > 1 && t[0] == '0') {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}
	return current, true
}
