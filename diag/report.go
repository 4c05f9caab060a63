package diag

import (
	"errors"
	"fmt"
)

// Report carries the non-fatal outcome of a bundling run: warnings for
// references that could not be resolved and informational notes.
// A Report is not safe for concurrent use; each run owns its own.
type Report struct {
	warnings Errors
	notes    []string
}

// Warn records a soft failure.
func (r *Report) Warn(e *Error) { r.warnings = append(r.warnings, e) }

// Notef records an informational note.
func (r *Report) Notef(format string, a ...any) {
	r.notes = append(r.notes, fmt.Sprintf(format, a...))
}

func (r *Report) HasWarnings() bool { return len(r.warnings) > 0 }

// Warnings returns a copy of the recorded warnings.
func (r *Report) Warnings() Errors { return append(Errors(nil), r.warnings...) }

// Notes returns a copy of the recorded notes.
func (r *Report) Notes() []string { return append([]string(nil), r.notes...) }

// Err returns the warnings as a single error, or nil when there are none.
func (r *Report) Err() error {
	if len(r.warnings) == 0 {
		return nil
	}
	return r.Warnings()
}

// Merge appends everything recorded in other.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.warnings = append(r.warnings, other.warnings...)
	r.notes = append(r.notes, other.notes...)
}

func asError(err error, target **Error) bool {
	if err == nil {
		return false
	}
	return errors.As(err, target)
}
