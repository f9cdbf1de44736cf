package plumbing

import "fmt"

// PermanentError is an error retrying the same request cannot fix, such as
// a malformed url or a repository that does not exist.
type PermanentError struct {
	Err error
}

// NewPermanentError wraps err, returning nil for a nil err.
func NewPermanentError(err error) *PermanentError {
	if err == nil {
		return nil
	}

	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent client error: %s", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// UnexpectedError is an error answered by the server outside the protocol,
// like an HTTP status the client does not handle.
type UnexpectedError struct {
	Err error
}

// NewUnexpectedError wraps err, returning nil for a nil err.
func NewUnexpectedError(err error) *UnexpectedError {
	if err == nil {
		return nil
	}

	return &UnexpectedError{Err: err}
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected client error: %s", e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }
