// Package diag defines the error taxonomy shared by the document store, the
// reference classifier and the bundler, plus the Report that accumulates soft
// failures during one bundling run.
package diag

import (
	"fmt"
	"strings"
)

// Code identifies a class of failure.
type Code string

// Failure codes.
const (
	CodeDocumentNotFound   Code = "document_not_found"
	CodeDocumentParse      Code = "document_parse_error"
	CodeMalformedReference Code = "malformed_reference"
	CodePathNotFound       Code = "path_not_found"
	CodeCycleGuardTripped  Code = "cycle_guard_tripped"
)

// Sentinels for errors.Is matching. Only the Code is compared.
var (
	ErrDocumentNotFound   = &Error{Code: CodeDocumentNotFound}
	ErrDocumentParse      = &Error{Code: CodeDocumentParse}
	ErrMalformedReference = &Error{Code: CodeMalformedReference}
	ErrPathNotFound       = &Error{Code: CodePathNotFound}
	ErrCycleGuardTripped  = &Error{Code: CodeCycleGuardTripped}
)

// Error is a located failure. Zero-valued fields are omitted from the message.
type Error struct {
	Code    Code
	Doc     string // document the failure was observed in
	Line    int    // 1-based, 0 when unknown
	Col     int    // 1-based, 0 when unknown
	Type    string // type name being processed, if any
	Ref     string // raw reference string, if any
	Message string
	Err     error
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString(string(e.Code))
	if e.Doc != "" {
		b.WriteString(": ")
		b.WriteString(e.Doc)
		if e.Line > 0 {
			fmt.Fprintf(b, ":%d", e.Line)
			if e.Col > 0 {
				fmt.Fprintf(b, ":%d", e.Col)
			}
		}
	}
	if e.Type != "" {
		fmt.Fprintf(b, " (type %s)", e.Type)
	}
	if e.Ref != "" {
		fmt.Fprintf(b, " ref %q", e.Ref)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Hard reports whether the failure aborts the run regardless of strictness.
func (e *Error) Hard() bool {
	return e.Code == CodeDocumentParse || e.Code == CodeCycleGuardTripped
}

// IsHard reports whether err is, or wraps, a hard *Error.
func IsHard(err error) bool {
	var de *Error
	if !asError(err, &de) {
		return false
	}
	return de.Hard()
}

// Errors is a collection of failures that implements error.
type Errors []*Error

// Error summarizes the first few failures.
func (es Errors) Error() string {
	if len(es) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(es), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(es[i].Error())
	}
	if len(es) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(es))
	}
	return b.String()
}

// Unwrap exposes every member to errors.Is / errors.As.
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}
