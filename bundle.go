package refbundle

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/reoring/refbundle/diag"
	"github.com/reoring/refbundle/document"
	"github.com/reoring/refbundle/ref"
)

// Result is one bundled document.
type Result struct {
	Root   document.DocID
	Output document.DocID
	Format document.Format
	Tree   *yaml.Node
	// Types lists the closure, ordered by document then name.
	Types []TypeIdentity
	// Inlined lists the output names of types copied in from other
	// documents, sorted.
	Inlined []string
	Report  *diag.Report
}

// Encode serializes the bundle in the format of its output path.
func (r *Result) Encode() ([]byte, error) { return document.Encode(r.Tree, r.Format) }

// Bundle resolves the document root from store and returns the bundled
// tree. Documents that fail to parse and runaway reference chains abort with
// a *diag.Error. Unresolvable references are collected in Result.Report, or
// returned as a diag.Errors when opts.Strict is set, in which case no Result
// is produced.
func Bundle(store *document.Store, root string, opts Options) (*Result, error) {
	set, err := opts.settle()
	if err != nil {
		return nil, err
	}
	rootDoc, err := store.Load(root)
	if err != nil {
		return nil, err
	}
	out := rootDoc.ID
	if set.Output != "" {
		out = document.Normalize(set.Output)
		if out.Escapes() || out == "." {
			return nil, fmt.Errorf("output %q is outside the store root", set.Output)
		}
	}
	log := set.Logger.With("root", string(rootDoc.ID))

	res := &resolver{store: store, cls: set.Classifier, containers: set.containers}
	report := &diag.Report{}
	closure, err := newBuilder(res, set, rootDoc, report).build()
	if err != nil {
		return nil, err
	}
	if set.Strict && report.HasWarnings() {
		return nil, report.Err()
	}

	typeMode := len(set.Types) > 0
	container := outputContainer(set, rootDoc)
	var tree *yaml.Node
	reserved := map[string]bool{}
	if typeMode {
		tree = document.NewMapping()
	} else {
		tree = document.Copy(rootDoc.Root)
		if existing, err := ref.Navigate(rootDoc.Root, container); err == nil {
			for _, k := range document.MappingKeys(existing) {
				reserved[k] = true
			}
		}
		for _, id := range closure.IDs() {
			// A root type being rewritten in place keeps its own key.
			if id.Doc == rootDoc.ID && closure.get(id).home.Equal(container) {
				delete(reserved, id.Name)
			}
		}
	}

	names, renamed := assignNames(closure, string(rootDoc.ID), reserved)
	for _, r := range renamed {
		report.Notef("name collision: %s", r)
		log.Warn("name collision", "detail", r)
	}

	w := &rewriter{
		res:       res,
		set:       set,
		root:      rootDoc.ID,
		out:       out,
		typeMode:  typeMode,
		closure:   closure,
		names:     names,
		container: container,
	}
	if !typeMode {
		w.rewrite(tree, rootDoc.ID)
	}
	for _, id := range closure.IDs() {
		w.rewrite(closure.get(id).def, id.Doc)
	}

	var inlined []string
	if closure.Len() > 0 {
		defs := document.EnsureMapping(tree, container)
		if defs == nil {
			return nil, &diag.Error{
				Code:    diag.CodeDocumentParse,
				Doc:     string(rootDoc.ID),
				Message: fmt.Sprintf("cannot insert definitions: %s is not a mapping", container.String()),
			}
		}
		ids := closure.IDs()
		sort.Slice(ids, func(i, k int) bool { return names[ids[i]] < names[ids[k]] })
		for _, id := range ids {
			document.SetMappingValue(defs, names[id], closure.get(id).def)
			if id.Doc != rootDoc.ID {
				inlined = append(inlined, names[id])
			}
		}
	}
	if set.InlinedKey != "" && len(inlined) > 0 {
		list := document.NewSequence()
		for _, n := range inlined {
			list.Content = append(list.Content, document.NewString(n))
		}
		document.SetMappingValue(tree, set.InlinedKey, list)
	}

	log.Info("bundled", "output", string(out), "types", closure.Len(), "inlined", len(inlined), "warnings", len(report.Warnings()))
	return &Result{
		Root:    rootDoc.ID,
		Output:  out,
		Format:  document.FormatFor(string(out)),
		Tree:    tree,
		Types:   closure.Sorted(),
		Inlined: inlined,
		Report:  report,
	}, nil
}

// outputContainer picks where inlined types go: the namespace, or else the
// first configured container the root already has.
func outputContainer(set *settings, root *document.Document) ref.Pointer {
	if set.Policy.Kind == PolicyNamespaced {
		return set.namespace
	}
	for _, c := range set.containers {
		if n, err := ref.Navigate(root.Root, c); err == nil && n.Kind == yaml.MappingNode {
			return c
		}
	}
	return set.containers[0]
}
