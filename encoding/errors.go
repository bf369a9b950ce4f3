package encoding

import "fmt"

// UnknownEncodingError reports a descriptor naming no known encoding.
type UnknownEncodingError struct {
	Name string
}

func (e *UnknownEncodingError) Error() string {
	return "unrecognized encoding: " + e.Name
}

// OptionError reports a missing or ill-typed descriptor option.
type OptionError struct {
	Encoding Name
	Option   string
	Reason   string
}

func (e *OptionError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("%s: %s", e.Encoding, e.Reason)
	}
	return fmt.Sprintf("%s: option %q %s", e.Encoding, e.Option, e.Reason)
}
