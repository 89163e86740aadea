package accessor

import (
	"errors"
	"fmt"
)

// Kind categorizes accessor failures so callers can branch without parsing
// messages.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindAlreadyExists  Kind = "already_exists"
	KindPartialFailure Kind = "partial_failure"
	KindInvalidInput   Kind = "invalid_input"
	KindIOFailure      Kind = "io_failure"
	// KindCorrupt marks persisted data that could not be decoded.
	KindCorrupt Kind = "corrupt"
)

var (
	ErrDatastoreNotFound = errors.New("datastore not found")
	ErrDatastoreExists   = errors.New("datastore already exists")
	// ErrNotOwner is returned when the owner mirror of a datastore is missing
	// for the requesting user.
	ErrNotOwner    = errors.New("datastore not owned by user")
	ErrInvalidName = errors.New("invalid name")
	ErrCorrupt     = errors.New("corrupt data")
)

// Error is the structured error returned by every DataAccessor mutation.
type Error struct {
	Op   string // e.g. "AddDatastore"
	Kind Kind
	Name string // datastore the operation targeted, if any
	Err  error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %q (%s): %v", e.Op, e.Name, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind (and Op, when the target sets one).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind == e.Kind {
		return t.Op == "" || t.Op == e.Op
	}
	return false
}

// NewError builds an *Error. It exists so backends read as one-liners.
func NewError(op string, kind Kind, name string, err error) *Error {
	return &Error{Op: op, Kind: kind, Name: name, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when err
// is nil or carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
