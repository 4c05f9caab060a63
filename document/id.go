package document

import (
	"path"
	"path/filepath"
	"strings"
)

// DocID is the logical path of a document: slash separated, cleaned and
// relative to the root of the Store's filesystem.
type DocID string

// Normalize converts a user or filesystem path into a DocID.
func Normalize(p string) DocID {
	p = filepath.ToSlash(p)
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return DocID(p)
}

// Dir returns the directory part of the ID ("." for top-level documents).
func (id DocID) Dir() string { return path.Dir(string(id)) }

// Base returns the file name.
func (id DocID) Base() string { return path.Base(string(id)) }

// Ext returns the file extension including the dot.
func (id DocID) Ext() string { return path.Ext(string(id)) }

// Stem returns the file name without extension.
func (id DocID) Stem() string { return strings.TrimSuffix(id.Base(), id.Ext()) }

// Escapes reports whether the ID points above the store root.
func (id DocID) Escapes() bool {
	return id == ".." || strings.HasPrefix(string(id), "../")
}

// Join resolves rel against the directory of id. The second result is false
// when the resolved path escapes the store root.
func (id DocID) Join(rel string) (DocID, bool) {
	joined := Normalize(path.Join(id.Dir(), filepath.ToSlash(rel)))
	if joined.Escapes() || joined == "." {
		return joined, false
	}
	return joined, true
}

// RelFrom expresses id relative to the directory dir, using "../" hops where
// needed. Siblings are returned without a "./" prefix.
func (id DocID) RelFrom(dir string) string {
	from := splitDir(dir)
	to := strings.Split(string(id), "/")
	i := 0
	for i < len(from) && i < len(to)-1 && from[i] == to[i] {
		i++
	}
	parts := make([]string, 0, len(from)-i+len(to)-i)
	for range from[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)
	return strings.Join(parts, "/")
}

func splitDir(dir string) []string {
	dir = path.Clean(filepath.ToSlash(dir))
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(dir, "/"), "/")
}
