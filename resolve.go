package refbundle

import (
	"errors"

	"gopkg.in/yaml.v3"

	"github.com/reoring/refbundle/diag"
	"github.com/reoring/refbundle/document"
	"github.com/reoring/refbundle/ref"
)

// TypeIdentity names a reusable definition. The same name in two documents
// is two identities.
type TypeIdentity struct {
	Doc  document.DocID
	Name string
}

func (t TypeIdentity) String() string { return string(t.Doc) + "#" + t.Name }

// target is a fully resolved reference.
type target struct {
	doc  document.DocID
	ptr  ref.Pointer
	node *yaml.Node

	// Set for type references: ptr = home/Name/suffix...
	isType bool
	id     TypeIdentity
	home   ref.Pointer
	suffix ref.Pointer
}

// resolver combines the classifier, the store and the navigator. It holds
// no per-run state and may be shared.
type resolver struct {
	store      *document.Store
	cls        *ref.Classifier
	containers []ref.Pointer
}

// resolve classifies raw as written in from, loads the target document and
// navigates to the node. Errors are *diag.Error.
func (r *resolver) resolve(raw string, from document.DocID) (target, error) {
	rf, err := r.cls.Classify(raw, from)
	if err != nil {
		return target{}, err
	}
	doc, err := r.store.Load(string(rf.In(from)))
	if err != nil {
		return target{}, err
	}
	node, err := ref.Navigate(doc.Root, rf.Pointer)
	if err != nil {
		var de *diag.Error
		if errors.As(err, &de) {
			e := *de
			e.Doc = string(doc.ID)
			return target{}, &e
		}
		return target{}, err
	}
	t := target{doc: doc.ID, ptr: rf.Pointer, node: node}
	if home, name, suffix, ok := r.typeOf(rf.Pointer); ok {
		t.isType = true
		t.id = TypeIdentity{Doc: doc.ID, Name: name}
		t.home = home
		t.suffix = suffix
	}
	return t, nil
}

// typeOf splits p into container, type name and trailing suffix when p
// points at or into a named definition. The longest matching container wins.
func (r *resolver) typeOf(p ref.Pointer) (home ref.Pointer, name string, suffix ref.Pointer, ok bool) {
	for _, c := range r.containers {
		if len(p) <= len(c) || !p.HasPrefix(c) {
			continue
		}
		if ok && len(c) <= len(home) {
			continue
		}
		home, name, suffix, ok = c, p[len(c)], p[len(c)+1:], true
	}
	return home, name, suffix, ok
}

// definition loads the node for a type already known to exist.
func (r *resolver) definition(id TypeIdentity, home ref.Pointer) (*yaml.Node, error) {
	doc, err := r.store.Load(string(id.Doc))
	if err != nil {
		return nil, err
	}
	return ref.Navigate(doc.Root, home.Field(id.Name))
}

// findType locates name in the first container of doc that defines it.
func (r *resolver) findType(doc *document.Document, name string) (ref.Pointer, *yaml.Node, bool) {
	for _, c := range r.containers {
		if n, err := ref.Navigate(doc.Root, c.Field(name)); err == nil {
			return c, n, true
		}
	}
	return nil, nil, false
}
