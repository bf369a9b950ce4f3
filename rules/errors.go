package rules

import "fmt"

// InvariantKind names the broken rule contract.
type InvariantKind int

const (
	// Refired means the rule's condition still held right after its transform.
	Refired InvariantKind = iota + 1
	// FiredTwice means the rule matched the same node twice in one fixed
	// point.
	FiredTwice
)

func (k InvariantKind) String() string {
	switch k {
	case Refired:
		return "rule re-fires after its own transform"
	case FiredTwice:
		return "rule fired twice on the same node"
	}
	return "unknown invariant"
}

// InvariantError reports a rule that broke its contract. It always signals a
// bug in the rule, never in the input schema.
type InvariantError struct {
	Bundle  string
	Rule    string
	Pointer string
	Kind    InvariantKind
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("rules: %s: %s: %s at %q", e.Bundle, e.Rule, e.Kind, e.Pointer)
}
