package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestStore(t *testing.T, handler http.Handler) (*Store, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	store := NewStore(newTestClient(server.URL), arbor.NewLogger())
	return store, server.Close
}

func TestStore_ResolveCollection_Existing(t *testing.T) {
	creates := 0
	store, cleanup := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			creates++
			t.Fatalf("create must not be called when the vector store exists")
		}
		json.NewEncoder(w).Encode(&VectorStoreList{
			Data: []*VectorStore{{ID: "vs_1", Name: "help-center-articles"}},
		})
	}))
	defer cleanup()

	id, err := store.ResolveCollection(context.Background(), "help-center-articles")
	require.NoError(t, err)
	assert.Equal(t, "vs_1", id)
	assert.Equal(t, 0, creates)
}

func TestStore_ResolveCollection_CreatesWhenAbsent(t *testing.T) {
	store, cleanup := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(&VectorStoreList{})
			return
		}
		require.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(&VectorStore{ID: "vs_created", Name: "help-center-articles"})
	}))
	defer cleanup()

	id, err := store.ResolveCollection(context.Background(), "help-center-articles")
	require.NoError(t, err)
	assert.Equal(t, "vs_created", id)
}

func TestStore_ResolveCollection_NameMustMatchExactly(t *testing.T) {
	store, cleanup := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Near-miss names must not resolve
			json.NewEncoder(w).Encode(&VectorStoreList{
				Data: []*VectorStore{
					{ID: "vs_1", Name: "Help-Center-Articles"},
					{ID: "vs_2", Name: "help-center-articles-v2"},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(&VectorStore{ID: "vs_exact", Name: "help-center-articles"})
	}))
	defer cleanup()

	id, err := store.ResolveCollection(context.Background(), "help-center-articles")
	require.NoError(t, err)
	assert.Equal(t, "vs_exact", id)
}

func TestStore_DocumentLifecycle(t *testing.T) {
	var uploads, attaches, detaches, deletes int

	store, cleanup := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/files":
			uploads++
			json.NewEncoder(w).Encode(&File{ID: "file_1"})
		case r.Method == http.MethodPost && r.URL.Path == "/vector_stores/vs_1/files":
			attaches++
			json.NewEncoder(w).Encode(&VectorStoreFile{ID: "file_1", VectorStoreID: "vs_1"})
		case r.Method == http.MethodDelete && r.URL.Path == "/vector_stores/vs_1/files/file_1":
			detaches++
			json.NewEncoder(w).Encode(&Deleted{ID: "file_1", Deleted: true})
		case r.Method == http.MethodDelete && r.URL.Path == "/files/file_1":
			deletes++
			json.NewEncoder(w).Encode(&Deleted{ID: "file_1", Deleted: true})
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer cleanup()

	ctx := context.Background()

	fileID, err := store.UploadDocument(ctx, "doc-1.md", []byte("# Doc\n"))
	require.NoError(t, err)
	assert.Equal(t, "file_1", fileID)

	require.NoError(t, store.AttachDocument(ctx, "vs_1", fileID))
	require.NoError(t, store.DetachDocument(ctx, "vs_1", fileID))
	require.NoError(t, store.DeleteDocument(ctx, fileID))

	assert.Equal(t, 1, uploads)
	assert.Equal(t, 1, attaches)
	assert.Equal(t, 1, detaches)
	assert.Equal(t, 1, deletes)
}

func TestStore_UploadDocument_Error(t *testing.T) {
	store, cleanup := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "payload too large"}}`, http.StatusRequestEntityTooLarge)
	}))
	defer cleanup()

	_, err := store.UploadDocument(context.Background(), "doc.md", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload document")
}
