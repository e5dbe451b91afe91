package ops

import (
	"fmt"

	"ilo/internal/diag"
)

// Constructors for the tagged failures primitives return. Every primitive
// either fully applies or returns one of these, leaving the document
// untouched.

func errNotFound(format string, args ...any) error {
	return &diag.OpError{Code: diag.OpNotFound, Msg: fmt.Sprintf(format, args...)}
}

func errNotUnique(format string, args ...any) error {
	return &diag.OpError{Code: diag.OpNotUnique, Msg: fmt.Sprintf(format, args...)}
}

func errAlreadyExists(format string, args ...any) error {
	return &diag.OpError{Code: diag.OpAlreadyExists, Msg: fmt.Sprintf(format, args...)}
}

func errInvalidRef(format string, args ...any) error {
	return &diag.OpError{Code: diag.OpInvalidRef, Msg: fmt.Sprintf(format, args...)}
}

func errMalformedRelation(format string, args ...any) error {
	return &diag.OpError{Code: diag.RelMissingEndpoint, Msg: fmt.Sprintf(format, args...)}
}

func errIndexRange(format string, args ...any) error {
	return &diag.OpError{Code: diag.OpIndexRange, Msg: fmt.Sprintf(format, args...)}
}

func errNoMatch(format string, args ...any) error {
	return &diag.OpError{Code: diag.OpNoMatch, Msg: fmt.Sprintf(format, args...)}
}

func errTemplate(format string, args ...any) error {
	return &diag.OpError{Code: diag.OpTemplate, Msg: fmt.Sprintf(format, args...)}
}

func errSchema(format string, args ...any) error {
	return &diag.OpError{Code: diag.OpSchema, Msg: fmt.Sprintf(format, args...)}
}
