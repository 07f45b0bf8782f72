package decode

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissing      = errors.New("missing field")
	ErrInvalid      = errors.New("invalid value")
	ErrUnknownToken = errors.New("unknown token")
	ErrOverflow     = errors.New("date out of range")
)

// Error describes a field that could not be decoded. Err is one of the
// package sentinels.
type Error struct {
	Field    string
	Raw      string
	Accepted []string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Field)
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Raw != "" {
		fmt.Fprintf(&b, " %q", e.Raw)
	}
	if len(e.Accepted) > 0 {
		b.WriteString(" (expected one of ")
		b.WriteString(strings.Join(e.Accepted, ", "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fieldError(field, raw string, err error, accepted ...string) *Error {
	return &Error{Field: field, Raw: raw, Accepted: accepted, Err: err}
}
