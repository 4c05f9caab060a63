package ref

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/reoring/refbundle/document"
)

// DefaultCacheSize bounds the Classifier memo.
const DefaultCacheSize = 4096

type cacheKey struct {
	current document.DocID
	raw     string
}

type cached struct {
	ref Reference
	err error
}

// Classifier memoizes Classify. The same reference strings recur across
// every definition of a document set, so a run classifies each
// (document, string) pair once. Safe for concurrent use.
type Classifier struct {
	cache *lru.Cache[cacheKey, cached]
}

// NewClassifier returns a Classifier holding up to size results
// (DefaultCacheSize when size <= 0).
func NewClassifier(size int) *Classifier {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[cacheKey, cached](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &Classifier{cache: c}
}

// Classify is Classify with memoization. The returned Pointer is a fresh
// copy the caller may keep.
func (c *Classifier) Classify(raw string, current document.DocID) (Reference, error) {
	k := cacheKey{current: current, raw: raw}
	v, ok := c.cache.Get(k)
	if !ok {
		r, err := Classify(raw, current)
		v = cached{ref: r, err: err}
		c.cache.Add(k, v)
	}
	if v.err != nil {
		return Reference{}, v.err
	}
	return Reference{Doc: v.ref.Doc, Pointer: append(Pointer{}, v.ref.Pointer...)}, nil
}

// Len reports how many results are cached.
func (c *Classifier) Len() int { return c.cache.Len() }
