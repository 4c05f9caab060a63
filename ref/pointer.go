package ref

import (
	"fmt"
	"strconv"
	"strings"
)

// Pointer is a parsed JSON Pointer: a sequence of unescaped segments.
// The empty Pointer addresses the document root.
type Pointer []string

// ParsePointer parses the fragment part of a reference (the text after '#').
// It accepts "" and "/seg/seg..." and decodes RFC 6901 escapes.
func ParsePointer(fragment string) (Pointer, error) {
	if fragment == "" {
		return Pointer{}, nil
	}
	if !strings.HasPrefix(fragment, "/") {
		return nil, fmt.Errorf("pointer %q must start with '/'", fragment)
	}
	raw := strings.Split(fragment[1:], "/")
	p := make(Pointer, 0, len(raw))
	for _, seg := range raw {
		s, err := unescape(seg)
		if err != nil {
			return nil, err
		}
		p = append(p, s)
	}
	return p, nil
}

// MustPointer is ParsePointer("/"+path) for trusted slash paths such as
// "components/schemas". It panics on malformed input.
func MustPointer(path string) Pointer {
	if path == "" {
		return Pointer{}
	}
	p, err := ParsePointer("/" + strings.TrimPrefix(path, "/"))
	if err != nil {
		panic(err)
	}
	return p
}

// Field returns a new Pointer with name appended.
func (p Pointer) Field(name string) Pointer {
	return append(append(Pointer{}, p...), name)
}

// Index returns a new Pointer with the array index appended.
func (p Pointer) Index(i int) Pointer {
	return append(append(Pointer{}, p...), strconv.Itoa(i))
}

// Join returns p followed by q.
func (p Pointer) Join(q Pointer) Pointer {
	return append(append(Pointer{}, p...), q...)
}

// HasPrefix reports whether q is a prefix of p.
func (p Pointer) HasPrefix(q Pointer) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Equal reports segment-wise equality.
func (p Pointer) Equal(q Pointer) bool {
	return len(p) == len(q) && p.HasPrefix(q)
}

// Path renders the pointer as an escaped "/a/b" path ("" for the root).
func (p Pointer) Path() string {
	if len(p) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, seg := range p {
		b.WriteByte('/')
		b.WriteString(escape(seg))
	}
	return b.String()
}

// String renders the pointer as a local reference, "#/a/b".
func (p Pointer) String() string { return "#" + p.Path() }

// escape '~' -> '~0', '/' -> '~1' per RFC6901
func escape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, "~") {
		return s, nil
	}
	b := &strings.Builder{}
	for i := 0; i < len(s); i++ {
		if s[i] != '~' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("dangling '~' in segment %q", s)
		}
		switch s[i+1] {
		case '0':
			b.WriteByte('~')
		case '1':
			b.WriteByte('/')
		default:
			return "", fmt.Errorf("invalid escape '~%c' in segment %q", s[i+1], s)
		}
		i++
	}
	return b.String(), nil
}
