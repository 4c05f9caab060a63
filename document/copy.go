package document

import "gopkg.in/yaml.v3"

// Copy returns a deep copy of n. Anchors and aliases inside the copied tree
// are preserved and re-pointed at the copies; aliases whose anchor lies
// outside the tree are expanded.
func Copy(n *yaml.Node) *yaml.Node {
	c := copier{seen: map[*yaml.Node]*yaml.Node{}}
	return c.copy(n, 0)
}

// CopyDetached returns a deep copy of n with every alias expanded and every
// anchor dropped, so the result can be moved into another document without
// clashing with anchors already there.
func CopyDetached(n *yaml.Node) *yaml.Node {
	c := copier{detach: true, seen: map[*yaml.Node]*yaml.Node{}}
	return c.copy(n, 0)
}

// maxAliasDepth bounds alias expansion; yaml.v3 itself refuses recursive
// aliases, so this only guards hand-built trees.
const maxAliasDepth = 64

type copier struct {
	detach bool
	seen   map[*yaml.Node]*yaml.Node
}

func (c *copier) copy(n *yaml.Node, aliasDepth int) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.AliasNode {
		if !c.detach {
			if target, ok := c.seen[n.Alias]; ok {
				out := *n
				out.Alias = target
				return &out
			}
		}
		if aliasDepth >= maxAliasDepth || n.Alias == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		expanded := c.copy(n.Alias, aliasDepth+1)
		expanded.Anchor = ""
		return expanded
	}
	out := *n
	if c.detach {
		out.Anchor = ""
	}
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
	}
	if n.Anchor != "" && !c.detach {
		c.seen[n] = &out
	}
	for i, child := range n.Content {
		out.Content[i] = c.copy(child, aliasDepth)
	}
	return &out
}
