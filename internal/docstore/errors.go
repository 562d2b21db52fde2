package docstore

import (
	"errors"
	"fmt"
)

// Code classifies a store failure the way the presentation layer needs to
// render it.
type Code string

const (
	CodeNotFound         Code = "not-found"
	CodePermissionDenied Code = "permission-denied"
	CodeInvalidArgument  Code = "invalid-argument"
	CodeInternal         Code = "internal"
)

// Error is returned by every Client method.  Op and Path identify the call,
// Err is the underlying cause when there is one.
type Error struct {
	Code Code
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := "docstore"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + string(e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so callers can write
// errors.Is(err, docstore.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound         = &Error{Code: CodeNotFound}
	ErrPermissionDenied = &Error{Code: CodePermissionDenied}
)

// CodeOf extracts the store code from err, or "" if err did not come from
// the store.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code Code, op string, p Path, cause error) *Error {
	e := &Error{Code: code, Op: op, Err: cause}
	if p.Collection != "" {
		e.Path = p.String()
	}
	return e
}

func notFound(op string, p Path) error {
	return newError(CodeNotFound, op, p, errors.New("document does not exist"))
}

func denied(op string, p Path) error {
	return newError(CodePermissionDenied, op, p, fmt.Errorf("rules reject %s access", op))
}

func internal(op string, p Path, err error) error {
	return newError(CodeInternal, op, p, err)
}
