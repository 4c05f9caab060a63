package ref

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/reoring/refbundle/diag"
	"github.com/reoring/refbundle/document"
)

// Navigate walks p from root through mapping keys and sequence indices and
// returns the addressed node. It fails with diag.ErrPathNotFound naming the
// first segment that cannot be followed. Aliases are followed. Navigate does
// no I/O and never modifies the tree.
func Navigate(root *yaml.Node, p Pointer) (*yaml.Node, error) {
	cur := document.Resolve(root)
	for i, seg := range p {
		if cur == nil {
			return nil, notFound(p, i, nil, "empty node")
		}
		switch cur.Kind {
		case yaml.MappingNode:
			next := document.MappingValue(cur, seg)
			if next == nil {
				return nil, notFound(p, i, cur, fmt.Sprintf("key %q not found", seg))
			}
			cur = document.Resolve(next)
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.Content) {
				return nil, notFound(p, i, cur, fmt.Sprintf("index %q out of range", seg))
			}
			cur = document.Resolve(cur.Content[idx])
		default:
			return nil, notFound(p, i, cur, fmt.Sprintf("cannot descend into scalar at %q", seg))
		}
	}
	if cur == nil {
		return nil, notFound(p, len(p), nil, "empty node")
	}
	return cur, nil
}

func notFound(p Pointer, at int, n *yaml.Node, msg string) *diag.Error {
	e := &diag.Error{Code: diag.CodePathNotFound, Ref: p.String(), Message: fmt.Sprintf("%s (at %s)", msg, Pointer(p[:at]).String())}
	if n != nil {
		e.Line, e.Col = n.Line, n.Column
	}
	return e
}
