// Package errors defines the failure kinds raised by the construction engine.
//
// Every failure is an *Error whose Kind is one of the sentinels below, so
// callers classify with errors.Is:
//
//	if errors.Is(err, afberrors.ErrKeyConflict) { ... }
//
// Conditions that can be checked as a batch (merge collisions, missing
// arguments) list every offending name in Items instead of failing on the
// first one.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds.
var (
	ErrKeyConflict   = errors.New("key conflict")
	ErrSignature     = errors.New("signature error")
	ErrArgument      = errors.New("argument error")
	ErrInvalidFormat = errors.New("invalid format")
	ErrGraph         = errors.New("graph error")
	ErrTypeMismatch  = errors.New("type mismatch")
	ErrNotFound      = errors.New("not found")
)

// Error is a classified failure with optional operation context.
type Error struct {
	Kind  error
	Op    string
	Class string
	Key   string
	Msg   string
	Items []string
	Err   error
}

// New creates an error of the given kind.
func New(kind error, msg string, items ...string) *Error {
	return &Error{Kind: kind, Msg: msg, Items: items}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies a foreign error under kind.
func Wrap(kind error, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
	}
	if e.Class != "" {
		fmt.Fprintf(&b, "[%s]", e.Class)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, "(%q)", e.Key)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.kind().Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Items) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Items, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.kind(), e.Err}
	}
	return []error{e.kind()}
}

func (e *Error) kind() error {
	if e.Kind == nil {
		return ErrGraph
	}
	return e.Kind
}

// With fills in the operation context of err. Fields already set are kept,
// so the innermost failure keeps naming the unit that actually failed.
// Errors that are not an *Error are wrapped with the context in the message.
func With(err error, op, class, key string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		if key != "" {
			return fmt.Errorf("%s[%s](%q): %w", op, class, key, err)
		}
		return fmt.Errorf("%s[%s]: %w", op, class, err)
	}
	out := *e
	if out.Op == "" {
		out.Op = op
	}
	if out.Class == "" {
		out.Class = class
	}
	if out.Key == "" {
		out.Key = key
	}
	return &out
}

// KindOf returns the kind sentinel of err, or nil when err was not raised by
// the engine.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.kind()
	}
	return nil
}
