package document_test

import (
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/refbundle/diag"
	"github.com/reoring/refbundle/document"
)

func newStore(t *testing.T, files map[string]string) *document.Store {
	t.Helper()
	fs := memfs.New()
	for name, body := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(body), 0o644))
	}
	return document.NewStore(fs)
}

func TestStore_LoadCachesIdenticalTree(t *testing.T) {
	s := newStore(t, map[string]string{"schemas/a.yaml": "defs:\n  A: {type: string}\n"})

	d1, err := s.Load("schemas/a.yaml")
	require.NoError(t, err)
	d2, err := s.Load("./schemas/../schemas/a.yaml")
	require.NoError(t, err)

	assert.Same(t, d1, d2)
	assert.Same(t, d1.Root, d2.Root)
	assert.Equal(t, document.DocID("schemas/a.yaml"), d1.ID)
	assert.Equal(t, document.FormatYAML, d1.Format)
	assert.Equal(t, []document.DocID{"schemas/a.yaml"}, s.Loaded())
}

func TestStore_NotFound(t *testing.T) {
	s := newStore(t, nil)
	_, err := s.Load("missing.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrDocumentNotFound)
	assert.False(t, diag.IsHard(err))
}

func TestStore_OutsideRoot(t *testing.T) {
	s := newStore(t, nil)
	_, err := s.Load("../up.yaml")
	assert.ErrorIs(t, err, diag.ErrDocumentNotFound)
}

func TestStore_ParseErrorIsHardAndCached(t *testing.T) {
	s := newStore(t, map[string]string{"bad.yaml": "a: [\n"})
	_, err := s.Load("bad.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrDocumentParse)
	assert.True(t, diag.IsHard(err))

	_, err2 := s.Load("bad.yaml")
	assert.Same(t, err, err2)
}

func TestStore_JSONByExtension(t *testing.T) {
	s := newStore(t, map[string]string{"a.json": `{"defs":{"A":{"type":"string"}}}`})
	d, err := s.Load("a.json")
	require.NoError(t, err)
	assert.Equal(t, document.FormatJSON, d.Format)
	assert.NotNil(t, document.MappingValue(document.MappingValue(d.Root, "defs"), "A"))
}

func TestStore_ConcurrentLoadsShareOneDocument(t *testing.T) {
	s := newStore(t, map[string]string{"a.yaml": "x: 1\n"})
	const n = 16
	docs := make([]*document.Document, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := s.Load("a.yaml")
			assert.NoError(t, err)
			docs[i] = d
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		assert.Same(t, docs[0], docs[i])
	}
}
