package document

import "gopkg.in/yaml.v3"

// Resolve follows document wrappers and aliases to the content node.
func Resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

// MappingValue returns the value stored under key in mapping m, or nil.
func MappingValue(m *yaml.Node, key string) *yaml.Node {
	m = Resolve(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// SetMappingValue replaces the value under key, appending the pair when the
// key is absent. m must be a mapping node.
func SetMappingValue(m *yaml.Node, key string, v *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = v
			return
		}
	}
	m.Content = append(m.Content, NewString(key), v)
}

// DeleteMappingKey removes key from mapping m and reports whether it existed.
func DeleteMappingKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}

// MappingKeys lists the keys of mapping m in document order.
func MappingKeys(m *yaml.Node) []string {
	m = Resolve(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

// EnsureMapping walks path from m, creating empty mappings for missing keys,
// and returns the mapping at the end. It returns nil when an existing node on
// the path is not a mapping.
func EnsureMapping(m *yaml.Node, path []string) *yaml.Node {
	cur := Resolve(m)
	for _, key := range path {
		if cur == nil || cur.Kind != yaml.MappingNode {
			return nil
		}
		next := Resolve(MappingValue(cur, key))
		if next == nil {
			next = NewMapping()
			SetMappingValue(cur, key, next)
		}
		cur = next
	}
	if cur == nil || cur.Kind != yaml.MappingNode {
		return nil
	}
	return cur
}

// NewMapping returns an empty block mapping.
func NewMapping() *yaml.Node { return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"} }

// NewSequence returns an empty block sequence.
func NewSequence() *yaml.Node { return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"} }

// NewString returns a string scalar.
func NewString(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// NewBool returns a boolean scalar.
func NewBool(v bool) *yaml.Node {
	s := "false"
	if v {
		s = "true"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: s}
}
