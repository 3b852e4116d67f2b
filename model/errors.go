package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL         = errors.New("invalid url")
	ErrInvalidDestination = errors.New("invalid destination directory")
	ErrSourceUnreachable  = errors.New("source unreachable")
	ErrChapterUnreachable = errors.New("chapter unreachable")
	ErrStructureMismatch  = errors.New("structure mismatch")
	ErrWriteFailed        = errors.New("write failed")
)

// Error carries a user facing message and one of the sentinel kinds above,
// so callers can both print it verbatim and match it with errors.Is.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func Errorf(kind error, format string, args ...any) error {
	e := &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			e.Err = err
			break
		}
	}
	return e
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
