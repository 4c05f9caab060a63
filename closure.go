package refbundle

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/reoring/refbundle/diag"
	"github.com/reoring/refbundle/document"
	"github.com/reoring/refbundle/ref"
)

// member is one closure entry: a deep copy of a definition plus where it
// came from.
type member struct {
	id    TypeIdentity
	home  ref.Pointer
	def   *yaml.Node
	depth int
}

// Closure is the set of types reachable from the roots of one run, each
// present once, in discovery order.
type Closure struct {
	order   []TypeIdentity
	members map[TypeIdentity]*member
}

func newClosure() *Closure { return &Closure{members: map[TypeIdentity]*member{}} }

func (c *Closure) add(m *member) {
	if _, dup := c.members[m.id]; dup {
		return
	}
	c.members[m.id] = m
	c.order = append(c.order, m.id)
}

// Has reports whether id is part of the closure.
func (c *Closure) Has(id TypeIdentity) bool {
	_, ok := c.members[id]
	return ok
}

// Len returns the number of types.
func (c *Closure) Len() int { return len(c.order) }

// IDs returns the identities in discovery order.
func (c *Closure) IDs() []TypeIdentity { return append([]TypeIdentity(nil), c.order...) }

// Sorted returns the identities ordered by document then name.
func (c *Closure) Sorted() []TypeIdentity {
	ids := c.IDs()
	sort.Slice(ids, func(i, k int) bool {
		if ids[i].Doc != ids[k].Doc {
			return ids[i].Doc < ids[k].Doc
		}
		return ids[i].Name < ids[k].Name
	})
	return ids
}

func (c *Closure) get(id TypeIdentity) *member { return c.members[id] }

type frontierEntry struct {
	id    TypeIdentity
	home  ref.Pointer
	node  *yaml.Node
	depth int
}

// builder computes a Closure. The visited set is shared by the whole pass
// and never copied: revisiting an identity ends the branch.
type builder struct {
	res      *resolver
	set      *settings
	root     *document.Document
	typeMode bool
	report   *diag.Report
	log      *slog.Logger

	closure *Closure
	visited map[TypeIdentity]struct{}
	queue   []frontierEntry
}

func newBuilder(res *resolver, set *settings, root *document.Document, report *diag.Report) *builder {
	return &builder{
		res:      res,
		set:      set,
		root:     root,
		typeMode: len(set.Types) > 0,
		report:   report,
		log:      set.Logger.With("root", string(root.ID)),
		closure:  newClosure(),
		visited:  map[TypeIdentity]struct{}{},
	}
}

// build seeds the frontier from the root and drains it.
func (b *builder) build() (*Closure, error) {
	if b.typeMode {
		for _, name := range b.set.Types {
			home, node, ok := b.res.findType(b.root, name)
			if !ok {
				b.warn(&diag.Error{
					Code:    diag.CodePathNotFound,
					Doc:     string(b.root.ID),
					Type:    name,
					Message: "root type not defined in any definitions container",
				})
				continue
			}
			b.push(frontierEntry{id: TypeIdentity{Doc: b.root.ID, Name: name}, home: home, node: node})
		}
	} else {
		for _, s := range ref.Sites(b.root.Root) {
			if err := b.visit(s, b.root.ID, "", 1); err != nil {
				return nil, err
			}
		}
	}

	for len(b.queue) > 0 {
		e := b.queue[0]
		b.queue = b.queue[1:]
		if err := b.expand(e); err != nil {
			return nil, err
		}
	}
	return b.closure, nil
}

func (b *builder) push(e frontierEntry) {
	if _, seen := b.visited[e.id]; seen {
		return
	}
	b.queue = append(b.queue, e)
}

func (b *builder) expand(e frontierEntry) error {
	if _, seen := b.visited[e.id]; seen {
		return nil
	}
	b.visited[e.id] = struct{}{}
	if e.depth > b.set.MaxDepth {
		return &diag.Error{
			Code:    diag.CodeCycleGuardTripped,
			Doc:     string(e.id.Doc),
			Type:    e.id.Name,
			Message: fmt.Sprintf("more than %d reference hops from %s", b.set.MaxDepth, b.root.ID),
		}
	}
	b.log.Debug("inline type", "type", e.id.String(), "depth", e.depth)

	m := &member{id: e.id, home: e.home, def: document.CopyDetached(e.node), depth: e.depth}
	b.closure.add(m)
	for _, s := range ref.Sites(m.def) {
		if err := b.visit(s, e.id.Doc, e.id.Name, e.depth+1); err != nil {
			return err
		}
	}
	return nil
}

// visit classifies and resolves one reference site found in from. Soft
// failures become warnings; type references that should be inlined are
// queued at depth.
func (b *builder) visit(s ref.Site, from document.DocID, typeName string, depth int) error {
	t, err := b.res.resolve(s.Raw(), from)
	if err != nil {
		return b.fail(err, s, from, typeName)
	}
	if !t.isType || !b.follow(s, from, t) {
		return nil
	}
	b.push(frontierEntry{id: t.id, home: t.home, node: b.typeNode(t), depth: depth})
	return nil
}

// typeNode returns the definition node for t, which may point below it.
func (b *builder) typeNode(t target) *yaml.Node {
	if len(t.suffix) == 0 {
		return t.node
	}
	n, err := b.res.definition(t.id, t.home)
	if err != nil {
		// t.node exists below home/Name, so the definition does too.
		return t.node
	}
	return n
}

// follow decides whether the type t referenced from from joins the closure.
func (b *builder) follow(s ref.Site, from document.DocID, t target) bool {
	rootOwn := t.id.Doc == b.root.ID
	if rootOwn {
		// In document mode the root's own types are already in the output,
		// except that a namespace gathers them too.
		return b.typeMode || b.set.Policy.Kind == PolicyNamespaced
	}
	if b.set.Policy.Kind == PolicyPathAdjusted {
		return false
	}
	if from != b.root.ID {
		return true
	}
	switch b.set.Select {
	case SelectAllOf:
		return s.InAllOf
	case SelectComplex:
		return ref.HasRefs(b.typeNode(t))
	default:
		return true
	}
}

func (b *builder) fail(err error, s ref.Site, from document.DocID, typeName string) error {
	var de *diag.Error
	if !errors.As(err, &de) {
		return err
	}
	e := &diag.Error{
		Code: de.Code,
		Doc:  string(from),
		Line: s.Value.Line,
		Col:  s.Value.Column,
		Type: typeName,
		Ref:  s.Raw(),
		Err:  err,
	}
	if de.Hard() {
		return e
	}
	b.warn(e)
	return nil
}

func (b *builder) warn(e *diag.Error) {
	b.report.Warn(e)
	b.log.Warn("unresolved reference", "doc", e.Doc, "type", e.Type, "ref", e.Ref, "code", string(e.Code), "err", e.Error())
}
