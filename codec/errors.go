package codec

import (
	"errors"
	"fmt"

	"github.com/sourcemeta/jsonbinpack-sub005/encoding"
)

// ErrMalformed matches every *MalformedError.
var ErrMalformed = errors.New("codec: malformed input")

// PreconditionError reports a value the plan cannot represent, which means it
// does not satisfy the schema the plan was compiled from.
type PreconditionError struct {
	Encoding encoding.Name
	Pointer  string
	Reason   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("codec: %s at %q: %s", e.Encoding, e.Pointer, e.Reason)
}

// MalformedError reports bytes that do not decode under the plan.
type MalformedError struct {
	Offset uint64
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("codec: malformed input at byte %d: %s: %v", e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("codec: malformed input at byte %d: %s", e.Offset, e.Reason)
}

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

func (e *MalformedError) Unwrap() error { return e.Err }
