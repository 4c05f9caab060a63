// Package document loads and caches the interface-definition documents a
// bundling run works on. Documents are ordered yaml.Node trees regardless of
// whether they were written as YAML or JSON, so key order and source
// positions survive into the bundled output and diagnostics.
package document

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/reoring/refbundle/diag"
)

// Document is a parsed, immutable document tree.
type Document struct {
	ID     DocID
	Format Format
	// Root is the content node (never a DocumentNode). Callers must not
	// mutate it; take a Copy first.
	Root *yaml.Node
}

// Store loads documents through a billy filesystem and caches them by
// normalized path. It is safe for concurrent use; after a document has been
// loaded every later Load is a lookup returning the identical *Document.
type Store struct {
	fs billy.Filesystem

	mu      sync.Mutex
	entries map[DocID]*entry
}

type entry struct {
	once sync.Once
	doc  *Document
	err  error
}

// NewStore returns a Store reading from fsys.
func NewStore(fsys billy.Filesystem) *Store {
	return &Store{fs: fsys, entries: make(map[DocID]*entry)}
}

// NewOSStore returns a Store rooted at dir on the local disk.
func NewOSStore(dir string) *Store { return NewStore(osfs.New(dir)) }

// NewMemStore returns a Store over an empty in-memory filesystem.
func NewMemStore() *Store { return NewStore(memfs.New()) }

// Filesystem exposes the underlying filesystem, e.g. for writing outputs.
func (s *Store) Filesystem() billy.Filesystem { return s.fs }

// Load returns the document at p, reading and parsing it on first access.
// It fails with diag.ErrDocumentNotFound when the file is absent and
// diag.ErrDocumentParse when it is malformed. Failures are cached too.
func (s *Store) Load(p string) (*Document, error) {
	id := Normalize(p)
	if id.Escapes() || id == "." {
		return nil, &diag.Error{Code: diag.CodeDocumentNotFound, Doc: string(id), Message: "path outside store root"}
	}
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	s.mu.Unlock()

	e.once.Do(func() { e.doc, e.err = s.read(id) })
	return e.doc, e.err
}

func (s *Store) read(id DocID) (*Document, error) {
	data, err := util.ReadFile(s.fs, string(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, &diag.Error{Code: diag.CodeDocumentNotFound, Doc: string(id), Err: err}
		}
		return nil, &diag.Error{Code: diag.CodeDocumentParse, Doc: string(id), Message: "unreadable", Err: err}
	}
	return Parse(id, data)
}

// Parse decodes data as the document id, choosing the format from its
// extension.
func Parse(id DocID, data []byte) (*Document, error) {
	f := FormatFor(string(id))
	var (
		root *yaml.Node
		err  error
	)
	if f == FormatJSON {
		root, err = parseJSON(id, data)
	} else {
		root, err = parseYAML(id, data)
	}
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Format: f, Root: root}, nil
}

// Loaded lists the IDs of every document accessed so far, sorted.
func (s *Store) Loaded() []DocID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]DocID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, k int) bool { return ids[i] < ids[k] })
	return ids
}
