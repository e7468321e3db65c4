// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dossier/internal/knowledge/document"
	"github.com/taibuivan/dossier/internal/knowledge/index"
	"github.com/taibuivan/dossier/internal/platform/apperr"
	"github.com/taibuivan/dossier/internal/platform/blob"
	"github.com/taibuivan/dossier/internal/platform/metrics"
)

// recordingStore tracks deletes on top of a real local store.
type recordingStore struct {
	blob.Store
	mu      sync.Mutex
	deleted []string
}

func (store *recordingStore) Delete(ctx context.Context, key string) error {
	store.mu.Lock()
	store.deleted = append(store.deleted, key)
	store.mu.Unlock()
	return store.Store.Delete(ctx, key)
}

type fixture struct {
	registry *document.MemoryRegistry
	blobs    *recordingStore
	manager  *index.Manager
	service  *document.Service
}

func newFixture(t *testing.T, maxBytes int64) *fixture {
	t.Helper()

	local, err := blob.NewLocal(t.TempDir())
	require.NoError(t, err)

	registry := document.NewMemoryRegistry()
	blobs := &recordingStore{Store: local}
	recorder := metrics.New()

	manager, err := index.NewManager(document.NewCorpus(registry), blobs, index.Options{
		Root:        t.TempDir(),
		MinScore:    0.1,
		Embedder:    index.NewHashEmbedder(index.DefaultHashDimensions),
		Synthesizer: index.NoSynthesizer{},
		Metrics:     recorder,
	})
	require.NoError(t, err)

	return &fixture{
		registry: registry,
		blobs:    blobs,
		manager:  manager,
		service:  document.NewService(registry, blobs, manager, maxBytes, recorder),
	}
}

func (f *fixture) upload(t *testing.T, ownerID int64, name, content string) *document.Document {
	t.Helper()
	result, err := f.service.Upload(context.Background(), ownerID, document.UploadInput{
		Filename:    name,
		ContentType: "text/plain",
		Body:        strings.NewReader(content),
	})
	require.NoError(t, err)
	return result.Document
}

/*
TestService_Lifecycle uploads, lists, searches and deletes one document.
*/
func TestService_Lifecycle(t *testing.T) {
	f := newFixture(t, 1<<20)
	ctx := context.Background()

	stored := f.upload(t, 1, "Field Notes.TXT", "The okapi is a forest giraffe from the Congo.")
	assert.Equal(t, "Field Notes.TXT", stored.OriginalName)
	assert.True(t, strings.HasPrefix(stored.StoragePath, "1/"))
	assert.True(t, strings.HasSuffix(stored.StorageName, ".txt"))
	assert.NotEqual(t, stored.OriginalName, stored.StorageName)
	assert.Equal(t, int64(45), stored.SizeBytes)
	assert.Equal(t, blob.Checksum([]byte("The okapi is a forest giraffe from the Congo.")), stored.Checksum)
	assert.True(t, stored.IsIndexed)

	documents, err := f.service.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.True(t, documents[0].IsIndexed)

	hits, err := f.manager.Search(ctx, 1, "okapi forest", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, stored.ID, hits[0].DocumentID)

	require.NoError(t, f.service.Delete(ctx, 1, stored.ID))
	assert.Contains(t, f.blobs.deleted, stored.StoragePath)

	_, err = f.blobs.Open(ctx, stored.StoragePath)
	assert.ErrorIs(t, err, blob.ErrNotFound)

	hits, err = f.manager.Search(ctx, 1, "okapi forest", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	count, err := f.service.CountForOwner(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

/*
TestService_Ownership makes a foreign document indistinguishable from a missing one.
*/
func TestService_Ownership(t *testing.T) {
	f := newFixture(t, 1<<20)
	ctx := context.Background()

	alices := f.upload(t, 1, "notes.txt", "alice's private notes")

	err := f.service.Delete(ctx, 2, alices.ID)
	assert.ErrorIs(t, err, document.ErrDocumentNotFound)

	err = f.service.Delete(ctx, 2, 9999)
	assert.ErrorIs(t, err, document.ErrDocumentNotFound)

	bobs, err := f.service.List(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, bobs)

	remaining, err := f.service.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, alices.ID, remaining[0].ID)
	assert.Empty(t, f.blobs.deleted)
}

/*
TestService_DefaultContentType fills in a missing content type.
*/
func TestService_DefaultContentType(t *testing.T) {
	f := newFixture(t, 1<<20)

	result, err := f.service.Upload(context.Background(), 1, document.UploadInput{
		Filename: "blob",
		Body:     strings.NewReader("raw"),
	})
	require.NoError(t, err)
	assert.Equal(t, document.DefaultContentType, result.Document.ContentType)
	assert.False(t, strings.Contains(result.Document.StorageName, "."))
}

/*
TestService_UploadTooLarge rejects oversized bytes and registers nothing.
*/
func TestService_UploadTooLarge(t *testing.T) {
	f := newFixture(t, 8)

	_, err := f.service.Upload(context.Background(), 1, document.UploadInput{
		Filename: "big.txt",
		Body:     strings.NewReader(strings.Repeat("x", 64)),
	})
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, appErr.HTTPStatus)

	count, err := f.service.CountForOwner(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

/*
TestService_UploadExactLimit accepts a file of exactly the limit.
*/
func TestService_UploadExactLimit(t *testing.T) {
	f := newFixture(t, 8)

	result, err := f.service.Upload(context.Background(), 1, document.UploadInput{
		Filename: "fits.txt",
		Body:     strings.NewReader("12345678"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), result.Document.SizeBytes)
}

/*
TestService_RegistryFailure removes the stored bytes when the record cannot be created.
*/
func TestService_RegistryFailure(t *testing.T) {
	f := newFixture(t, 1<<20)
	f.registry.FailNextWrite(errors.New("registry down"))

	_, err := f.service.Upload(context.Background(), 1, document.UploadInput{
		Filename: "notes.txt",
		Body:     strings.NewReader("content"),
	})
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "STORAGE_FAILURE", appErr.Code)

	require.Len(t, f.blobs.deleted, 1)
	_, err = f.blobs.Open(context.Background(), f.blobs.deleted[0])
	assert.ErrorIs(t, err, blob.ErrNotFound)

	count, err := f.service.CountForOwner(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

/*
TestService_BlobFailure creates no record when the bytes cannot be stored.
*/
func TestService_BlobFailure(t *testing.T) {
	f := newFixture(t, 1<<20)

	_, err := f.service.Upload(context.Background(), 1, document.UploadInput{
		Filename: "notes.txt",
		Body:     io.MultiReader(strings.NewReader("partial"), failingReader{}),
	})
	require.Error(t, err)
	assert.Equal(t, "STORAGE_FAILURE", apperr.As(err).Code)

	count, err := f.service.CountForOwner(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
