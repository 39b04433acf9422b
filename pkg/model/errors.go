package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared by every record store implementation. Match them with
// errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrTransport    = errors.New("transport failure")
)

// Error is a classified record store failure.
type Error struct {
	Op       string   // operation, e.g. "tree" or "delete horse"
	ID       int64    // horse or owner id involved, 0 if none
	Kind     error    // one of the Err* kinds above
	Messages []string // user-facing details, e.g. validation messages
	Err      error    // underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ID != 0 {
		fmt.Fprintf(&b, " %d", e.ID)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Newf builds an Error whose single message is formatted from args.
func Newf(op string, kind error, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Messages: []string{fmt.Sprintf(format, args...)}}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(op string, id int64, kind error, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, ID: id, Kind: kind, Err: err}
}

// KindOf returns the kind sentinel carried by err, or nil when err is nil
// or unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidInput, ErrNotFound, ErrConflict, ErrTransport} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// MessagesOf returns the user-facing messages of a classified error, or the
// error text itself.
func MessagesOf(err error) []string {
	var e *Error
	if errors.As(err, &e) && len(e.Messages) > 0 {
		return e.Messages
	}
	if err == nil {
		return nil
	}
	return []string{err.Error()}
}
