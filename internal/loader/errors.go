package loader

import (
	"errors"
	"fmt"
)

// Kind classifies fatal load failures.
type Kind string

const (
	KindNotFound            Kind = "NotFound"
	KindEmptyInput          Kind = "EmptyInput"
	KindTooLarge            Kind = "TooLarge"
	KindAmbiguousSelection  Kind = "AmbiguousSelection"
	KindUnreadableContainer Kind = "UnreadableContainer"
	KindUnsupported         Kind = "Unsupported"
)

// Error is a fatal loader failure carrying its Kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loader: %s: %v", e.Msg, e.Err)
	}
	return "loader: " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// wrap attaches cause to a new *Error.
func wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when
// err is not a loader error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
