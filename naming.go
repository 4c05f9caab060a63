package refbundle

import (
	"fmt"
	"sort"
	"strings"
)

// assignNames gives every closure member a unique key inside the output
// container. Root types come first, then documents and names in
// lexicographic order, so the first claimant keeps the bare name and later
// ones become Name_<docstem>. reserved holds keys already taken in the
// output container.
func assignNames(c *Closure, rootDoc string, reserved map[string]bool) (names map[TypeIdentity]string, renamed []string) {
	ids := c.IDs()
	sort.Slice(ids, func(i, k int) bool {
		ri, rk := string(ids[i].Doc) == rootDoc, string(ids[k].Doc) == rootDoc
		if ri != rk {
			return ri
		}
		if ids[i].Doc != ids[k].Doc {
			return ids[i].Doc < ids[k].Doc
		}
		return ids[i].Name < ids[k].Name
	})

	taken := make(map[string]bool, len(reserved)+len(ids))
	for k := range reserved {
		taken[k] = true
	}
	names = make(map[TypeIdentity]string, len(ids))
	for _, id := range ids {
		name := id.Name
		if taken[name] {
			base := id.Name + "_" + sanitize(id.Doc.Stem())
			name = base
			for n := 2; taken[name]; n++ {
				name = fmt.Sprintf("%s_%d", base, n)
			}
			renamed = append(renamed, fmt.Sprintf("%s inlined as %s", id, name))
		}
		taken[name] = true
		names[id] = name
	}
	return names, renamed
}

// sanitize keeps letters, digits and underscores.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}
