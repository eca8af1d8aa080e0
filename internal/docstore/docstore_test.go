package docstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "documents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSaveAndGetDocument(t *testing.T) {
	store := newTestStore(t)

	doc := &Document{
		DocID:       "DOC001",
		Title:       "Office Order 42",
		DocType:     "order",
		Content:     "All staff shall submit monthly reports.",
		ContentHash: "abcd1234",
		UploadedBy:  "clerk1",
		CreatedAt:   time.Now().UTC(),
	}

	require.NoError(t, store.SaveDocument(doc))

	got, err := store.GetDocument("DOC001")
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.ContentHash, got.ContentHash)
	assert.Equal(t, doc.UploadedBy, got.UploadedBy)
}

func TestGetDocumentNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDocument("MISSING")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListDocuments(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"DOC002", "DOC001", "DOC003"} {
		require.NoError(t, store.SaveDocument(&Document{
			DocID:     id,
			Title:     "Document " + id,
			CreatedAt: time.Now().UTC(),
		}))
	}

	docs, err := store.ListDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// bbolt cursors iterate in key order.
	assert.Equal(t, "DOC001", docs[0].DocID)
	assert.Equal(t, "DOC003", docs[2].DocID)
}

func TestMetadata(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetMetadata("initialized_at", "2026-08-26T00:00:00Z"))

	value, err := store.GetMetadata("initialized_at")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-26T00:00:00Z", value)

	_, err = store.GetMetadata("missing_key")
	assert.Error(t, err)
}
