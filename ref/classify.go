// Package ref parses reference strings into structured References, walks
// document trees for reference sites and navigates pointers.
package ref

import (
	"strings"

	"github.com/reoring/refbundle/diag"
	"github.com/reoring/refbundle/document"
)

// Reference is a classified pointer. An empty Doc means "the document the
// reference was found in".
type Reference struct {
	Doc     document.DocID
	Pointer Pointer
}

// IsLocal reports whether the reference targets its own document.
func (r Reference) IsLocal() bool { return r.Doc == "" }

// In returns the absolute document the reference targets when found in
// current.
func (r Reference) In(current document.DocID) document.DocID {
	if r.Doc == "" {
		return current
	}
	return r.Doc
}

// String renders the reference with the store-relative document path.
func (r Reference) String() string { return string(r.Doc) + r.Pointer.String() }

// Classify parses raw as found in the document current. Recognized forms:
//
//	#/a/b          local
//	./#/a/b        self-qualified local
//	x.yaml#/a/b    cross-document, relative to current's directory,
//	               optionally prefixed with ./ or any number of ../
//
// A cross-document reference that resolves back to current is local.
// One layer of surrounding quotes is tolerated.
func Classify(raw string, current document.DocID) (Reference, error) {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	hash := strings.IndexByte(s, '#')
	if hash < 0 {
		return Reference{}, malformed(raw, current, "missing '#' fragment")
	}
	prefix, fragment := s[:hash], s[hash+1:]
	ptr, err := ParsePointer(fragment)
	if err != nil {
		return Reference{}, &diag.Error{Code: diag.CodeMalformedReference, Doc: string(current), Ref: raw, Err: err}
	}
	switch prefix {
	case "", ".", "./":
		return Reference{Pointer: ptr}, nil
	}
	switch {
	case hasScheme(prefix):
		return Reference{}, malformed(raw, current, "absolute URIs are not supported")
	case strings.HasPrefix(prefix, "/"):
		return Reference{}, malformed(raw, current, "absolute paths are not supported")
	case strings.HasSuffix(prefix, "/"):
		return Reference{}, malformed(raw, current, "document path names a directory")
	}
	target, ok := current.Join(prefix)
	if !ok {
		return Reference{}, malformed(raw, current, "document path escapes the schema root")
	}
	if target == current {
		return Reference{Pointer: ptr}, nil
	}
	return Reference{Doc: target, Pointer: ptr}, nil
}

// hasScheme reports whether s starts with "scheme:" before any '/'.
func hasScheme(s string) bool {
	colon := strings.IndexByte(s, ':')
	if colon <= 0 {
		return false
	}
	slash := strings.IndexByte(s, '/')
	return slash < 0 || colon < slash
}

func malformed(raw string, current document.DocID, msg string) *diag.Error {
	return &diag.Error{Code: diag.CodeMalformedReference, Doc: string(current), Ref: raw, Message: msg}
}
