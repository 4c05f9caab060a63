package ref

import (
	"gopkg.in/yaml.v3"
)

// Key is the mapping key that carries a reference.
const Key = "$ref"

// Site is a reference encountered while walking a tree.
type Site struct {
	// Holder is the mapping that contains the "$ref" key.
	Holder *yaml.Node
	// Value is the scalar holding the reference string.
	Value *yaml.Node
	// Path locates Holder relative to the walked root.
	Path Pointer
	// InAllOf is set when Holder is a direct member of an "allOf" sequence.
	InAllOf bool
}

// Raw returns the reference string.
func (s Site) Raw() string { return s.Value.Value }

// Walk calls fn for every reference site under root, in document order.
// Alias nodes are not followed; their anchors are visited where defined.
// Walk stops at the first error returned by fn.
func Walk(root *yaml.Node, fn func(Site) error) error {
	return walk(root, Pointer{}, false, fn)
}

// Sites collects every reference site under root.
func Sites(root *yaml.Node) []Site {
	var out []Site
	_ = Walk(root, func(s Site) error {
		out = append(out, s)
		return nil
	})
	return out
}

// HasRefs reports whether any reference occurs under root.
func HasRefs(root *yaml.Node) bool {
	found := false
	_ = Walk(root, func(Site) error {
		found = true
		return errStop
	})
	return found
}

type stopError struct{}

func (stopError) Error() string { return "stop" }

var errStop error = stopError{}

func walk(n *yaml.Node, at Pointer, inAllOf bool, fn func(Site) error) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		for _, c := range n.Content {
			if err := walk(c, at, false, fn); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Value == Key && v.Kind == yaml.ScalarNode {
				if err := fn(Site{Holder: n, Value: v, Path: at, InAllOf: inAllOf}); err != nil {
					return err
				}
				continue
			}
			if k.Value == "allOf" && v.Kind == yaml.SequenceNode {
				for idx, member := range v.Content {
					if err := walk(member, at.Field(k.Value).Index(idx), true, fn); err != nil {
						return err
					}
				}
				continue
			}
			if err := walk(v, at.Field(k.Value), false, fn); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for idx, c := range n.Content {
			if err := walk(c, at.Index(idx), false, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
