package scheduling

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every error returned by the scheduling core matches exactly one
// of these with errors.Is.
var (
	ErrScheduleConflict       = errors.New("schedule conflict")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation error")
	ErrDuplicateWaitlistEntry = errors.New("duplicate waitlist entry")
)

// Error carries a kind, a caller-facing message, structured arguments and an
// optional cause.
type Error struct {
	kind    error
	message string
	args    map[string]interface{}
	wrapped error
}

func NewError(kind error, message string) *Error {
	return &Error{kind: kind, message: message, args: make(map[string]interface{})}
}

func Conflict(format string, a ...interface{}) *Error {
	return NewError(ErrScheduleConflict, fmt.Sprintf(format, a...))
}

func InvalidTransition(format string, a ...interface{}) *Error {
	return NewError(ErrInvalidStateTransition, fmt.Sprintf(format, a...))
}

func NotFound(format string, a ...interface{}) *Error {
	return NewError(ErrNotFound, fmt.Sprintf(format, a...))
}

func Invalid(format string, a ...interface{}) *Error {
	return NewError(ErrValidation, fmt.Sprintf(format, a...))
}

func (e *Error) Arg(key string, value interface{}) *Error {
	e.args[key] = value
	return e
}

func (e *Error) Wrap(err error) *Error {
	if err != nil {
		e.wrapped = err
	}
	return e
}

// Message is the text safe to show to API callers.
func (e *Error) Message() string { return e.message }

func (e *Error) Kind() error { return e.kind }

func (e *Error) Args() map[string]interface{} { return e.args }

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.message)
	if len(e.args) > 0 {
		keys := make([]string, 0, len(e.args))
		for k := range e.args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.args[k])
		}
		b.WriteString("]")
	}
	if e.wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.wrapped.Error())
	}
	return b.String()
}

func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.wrapped
}
