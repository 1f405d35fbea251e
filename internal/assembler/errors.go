package assembler

import "fmt"

// Error reports why a video could not be assembled. Every failure of
// Assemble is an *Error.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "assembly failed: " + e.Reason
	}
	return fmt.Sprintf("assembly failed: %s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(reason string, err error) error {
	return &Error{Reason: reason, Err: err}
}
