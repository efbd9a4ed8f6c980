package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/interfaces"
	"github.com/ternarybob/helpsync/internal/models"
)

func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

// callLog records operations across mocks so tests can assert ordering
// between index and storage calls.
type callLog struct {
	calls []string
}

func (l *callLog) add(name string) {
	l.calls = append(l.calls, name)
}

type mockIndexStore struct {
	log *callLog

	uploadID  string
	uploadErr error
	attachErr error
	detachErr error
	deleteErr error

	uploadedName    string
	uploadedContent []byte
	attachedFileID  string
	detachedFileID  string
	deletedFileID   string
}

func newMockIndexStore(log *callLog) *mockIndexStore {
	return &mockIndexStore{log: log, uploadID: "file-new"}
}

func (m *mockIndexStore) ResolveCollection(ctx context.Context, name string) (string, error) {
	m.log.add("resolve")
	return "vs-test", nil
}

func (m *mockIndexStore) UploadDocument(ctx context.Context, filename string, content []byte) (string, error) {
	m.log.add("upload")
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.uploadedName = filename
	m.uploadedContent = content
	return m.uploadID, nil
}

func (m *mockIndexStore) AttachDocument(ctx context.Context, collectionID, fileID string) error {
	m.log.add("attach")
	if m.attachErr != nil {
		return m.attachErr
	}
	m.attachedFileID = fileID
	return nil
}

func (m *mockIndexStore) DetachDocument(ctx context.Context, collectionID, fileID string) error {
	m.log.add("detach")
	if m.detachErr != nil {
		return m.detachErr
	}
	m.detachedFileID = fileID
	return nil
}

func (m *mockIndexStore) DeleteDocument(ctx context.Context, fileID string) error {
	m.log.add("delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedFileID = fileID
	return nil
}

type mockArticleStorage struct {
	log *callLog

	records   map[int64]*models.ArticleRecord
	upsertErr error
}

func newMockArticleStorage(log *callLog) *mockArticleStorage {
	return &mockArticleStorage{log: log, records: make(map[int64]*models.ArticleRecord)}
}

func (m *mockArticleStorage) Get(ctx context.Context, articleID int64) (*models.ArticleRecord, error) {
	if r, ok := m.records[articleID]; ok {
		return r, nil
	}
	return nil, interfaces.ErrRecordNotFound
}

func (m *mockArticleStorage) GetAll(ctx context.Context) (map[int64]*models.ArticleRecord, error) {
	return m.records, nil
}

func (m *mockArticleStorage) Upsert(ctx context.Context, record *models.ArticleRecord) error {
	m.log.add("upsert")
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.records[record.ArticleID] = record
	return nil
}

func (m *mockArticleStorage) Count(ctx context.Context) (int, error) {
	return len(m.records), nil
}

func testDocument() *models.ArticleDocument {
	return &models.ArticleDocument{
		ArticleID:       42,
		Title:           "Getting Started",
		Slug:            "getting-started",
		URL:             "https://help.example.com/articles/42",
		SourceUpdatedAt: time.Date(2025, 11, 10, 8, 30, 0, 0, time.UTC),
		Markdown:        "# Getting Started\n**Source:** https://help.example.com/articles/42\n\nWelcome aboard",
		Fingerprint:     "fp-new",
	}
}

func priorRecord() *models.ArticleRecord {
	return &models.ArticleRecord{
		ArticleID:       42,
		Title:           "Getting Started",
		Slug:            "getting-started",
		SourceUpdatedAt: time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
		CreatedAt:       time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2025, 10, 1, 9, 5, 0, 0, time.UTC),
		Fingerprint:     "fp-old",
		RemoteFileID:    "file-old",
	}
}

func TestReconcile_Unchanged_NoCalls(t *testing.T) {
	log := &callLog{}
	index := newMockIndexStore(log)
	storage := newMockArticleStorage(log)
	r := NewReconciler(index, storage, createTestLogger())

	err := r.Reconcile(context.Background(), "vs-test", testDocument(), models.ClassificationUnchanged, priorRecord())

	require.NoError(t, err)
	assert.Empty(t, log.calls, "unchanged article should touch neither index nor storage")
}

func TestReconcile_Unseen_UploadAttachPersist(t *testing.T) {
	log := &callLog{}
	index := newMockIndexStore(log)
	storage := newMockArticleStorage(log)
	r := NewReconciler(index, storage, createTestLogger())
	doc := testDocument()

	err := r.Reconcile(context.Background(), "vs-test", doc, models.ClassificationUnseen, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"upload", "attach", "upsert"}, log.calls)
	assert.Equal(t, "getting-started-42.md", index.uploadedName)
	assert.Equal(t, doc.Markdown, string(index.uploadedContent))
	assert.Equal(t, "file-new", index.attachedFileID)

	record := storage.records[42]
	require.NotNil(t, record)
	assert.Equal(t, "fp-new", record.Fingerprint)
	assert.Equal(t, "file-new", record.RemoteFileID)
	assert.Equal(t, doc.SourceUpdatedAt, record.SourceUpdatedAt)
	assert.False(t, record.CreatedAt.IsZero())
	assert.False(t, record.UpdatedAt.IsZero())
}

func TestReconcile_Changed_RemovesOldFileFirst(t *testing.T) {
	log := &callLog{}
	index := newMockIndexStore(log)
	storage := newMockArticleStorage(log)
	r := NewReconciler(index, storage, createTestLogger())
	prior := priorRecord()

	err := r.Reconcile(context.Background(), "vs-test", testDocument(), models.ClassificationChanged, prior)

	require.NoError(t, err)
	assert.Equal(t, []string{"detach", "delete", "upload", "attach", "upsert"}, log.calls)
	assert.Equal(t, "file-old", index.detachedFileID)
	assert.Equal(t, "file-old", index.deletedFileID)

	record := storage.records[42]
	require.NotNil(t, record)
	assert.Equal(t, "file-new", record.RemoteFileID)
	assert.Equal(t, "fp-new", record.Fingerprint)
	assert.Equal(t, prior.CreatedAt, record.CreatedAt, "original creation time should survive updates")
	assert.True(t, record.UpdatedAt.After(prior.UpdatedAt))
}

func TestReconcile_Changed_NoPriorRemoteFile(t *testing.T) {
	log := &callLog{}
	index := newMockIndexStore(log)
	storage := newMockArticleStorage(log)
	r := NewReconciler(index, storage, createTestLogger())
	prior := priorRecord()
	prior.RemoteFileID = ""
	prior.Fingerprint = ""

	err := r.Reconcile(context.Background(), "vs-test", testDocument(), models.ClassificationChanged, prior)

	require.NoError(t, err)
	assert.Equal(t, []string{"upload", "attach", "upsert"}, log.calls, "nothing to remove without a recorded remote file")
}

func TestReconcile_CleanupFailuresDoNotBlockUpload(t *testing.T) {
	log := &callLog{}
	index := newMockIndexStore(log)
	index.detachErr = errors.New("detach exploded")
	index.deleteErr = errors.New("delete exploded")
	storage := newMockArticleStorage(log)
	r := NewReconciler(index, storage, createTestLogger())

	err := r.Reconcile(context.Background(), "vs-test", testDocument(), models.ClassificationChanged, priorRecord())

	require.NoError(t, err)
	assert.Equal(t, []string{"detach", "delete", "upload", "attach", "upsert"}, log.calls,
		"delete should still be attempted after detach fails, then the upload proceeds")
	require.NotNil(t, storage.records[42])
	assert.Equal(t, "file-new", storage.records[42].RemoteFileID)
}

func TestReconcile_UploadFailure(t *testing.T) {
	log := &callLog{}
	index := newMockIndexStore(log)
	index.uploadErr = errors.New("upload rejected")
	storage := newMockArticleStorage(log)
	r := NewReconciler(index, storage, createTestLogger())

	err := r.Reconcile(context.Background(), "vs-test", testDocument(), models.ClassificationUnseen, nil)

	require.Error(t, err)
	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, int64(42), itemErr.ArticleID)
	assert.Equal(t, "upload", itemErr.Stage)
	assert.Equal(t, []string{"upload"}, log.calls)
	assert.Empty(t, storage.records, "no record should be written for a failed upload")
}

func TestReconcile_AttachFailureLeavesRecordUnwritten(t *testing.T) {
	log := &callLog{}
	index := newMockIndexStore(log)
	index.attachErr = errors.New("attach rejected")
	storage := newMockArticleStorage(log)
	r := NewReconciler(index, storage, createTestLogger())

	err := r.Reconcile(context.Background(), "vs-test", testDocument(), models.ClassificationChanged, priorRecord())

	require.Error(t, err)
	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, "attach", itemErr.Stage)
	assert.NotContains(t, log.calls, "upsert",
		"record must stay on the old fingerprint so the next run retries the upload")
}

func TestReconcile_PersistFailure(t *testing.T) {
	log := &callLog{}
	index := newMockIndexStore(log)
	storage := newMockArticleStorage(log)
	storage.upsertErr = errors.New("disk full")
	r := NewReconciler(index, storage, createTestLogger())

	err := r.Reconcile(context.Background(), "vs-test", testDocument(), models.ClassificationUnseen, nil)

	require.Error(t, err)
	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, "persist", itemErr.Stage)
	assert.Equal(t, []string{"upload", "attach", "upsert"}, log.calls)
}

func TestItemError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &ItemError{ArticleID: 7, Stage: "upload", Err: cause}

	assert.Contains(t, err.Error(), "article 7")
	assert.Contains(t, err.Error(), "upload")
	assert.ErrorIs(t, err, cause)
}

var _ interfaces.IndexStore = (*mockIndexStore)(nil)
var _ interfaces.ArticleStorage = (*mockArticleStorage)(nil)
