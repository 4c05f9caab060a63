package refbundle

import (
	"gopkg.in/yaml.v3"

	"github.com/reoring/refbundle/document"
	"github.com/reoring/refbundle/ref"
)

// rewriter re-serializes references once the closure is final. It
// re-resolves every site through the shared resolver, which is a cache hit
// for everything the builder already saw; it never records warnings.
type rewriter struct {
	res      *resolver
	set      *settings
	root     document.DocID
	out      document.DocID
	typeMode bool

	closure   *Closure
	names     map[TypeIdentity]string
	container ref.Pointer
}

// rewrite updates every reference under n, which was copied out of the
// document source. Scalars are updated in place so their style survives.
func (w *rewriter) rewrite(n *yaml.Node, source document.DocID) {
	for _, s := range ref.Sites(n) {
		t, err := w.res.resolve(s.Raw(), source)
		if err == nil {
			s.Value.Value = w.address(t)
			continue
		}
		if w.set.Unresolved == UnresolvedOpaque {
			opaque(s.Holder)
			continue
		}
		// Malformed references stay as written.
		if rf, err := w.res.cls.Classify(s.Raw(), source); err == nil {
			s.Value.Value = w.dangling(rf.In(source), rf.Pointer)
		}
	}
}

// dangling addresses an unresolved reference at the document it was meant
// for, so that no definition of the output can capture it.
func (w *rewriter) dangling(doc document.DocID, p ref.Pointer) string {
	if doc == w.out {
		return p.String()
	}
	return doc.RelFrom(w.out.Dir()) + p.String()
}

// address renders the reference to t as seen from the output document.
func (w *rewriter) address(t target) string {
	if t.isType && w.closure.Has(t.id) {
		return w.container.Field(w.names[t.id]).Join(t.suffix).String()
	}
	if t.doc == w.root && !w.typeMode {
		// Still present at its original location in the output.
		return t.ptr.String()
	}
	return t.doc.RelFrom(w.out.Dir()) + t.ptr.String()
}

// opaque turns a reference holder into an open object schema.
func opaque(holder *yaml.Node) {
	document.DeleteMappingKey(holder, ref.Key)
	if document.MappingValue(holder, "type") == nil {
		document.SetMappingValue(holder, "type", document.NewString("object"))
	}
	if document.MappingValue(holder, "additionalProperties") == nil {
		document.SetMappingValue(holder, "additionalProperties", document.NewBool(true))
	}
}
