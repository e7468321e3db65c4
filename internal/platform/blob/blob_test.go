// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dossier/internal/platform/blob"
)

/*
TestLocal_PutOpenDelete walks one object through its lifecycle.
*/
func TestLocal_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, err := blob.NewLocal(t.TempDir())
	require.NoError(t, err)

	key := blob.Key("7", "0191.txt")
	object, err := store.Put(ctx, key, strings.NewReader("hello dossier"))
	require.NoError(t, err)

	assert.Equal(t, key, object.Key)
	assert.Equal(t, int64(len("hello dossier")), object.Size)
	assert.Equal(t, blob.Checksum([]byte("hello dossier")), object.Checksum)
	assert.Len(t, object.Checksum, 64)

	reader, err := store.Open(ctx, key)
	require.NoError(t, err)
	content, err := io.ReadAll(reader)
	require.NoError(t, reader.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello dossier", string(content))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, blob.ErrNotFound)

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, key))
}

/*
TestLocal_FailedWriteLeavesNothing verifies that a broken reader does not
leave a partial file behind.
*/
func TestLocal_FailedWriteLeavesNothing(t *testing.T) {
	root := t.TempDir()
	store, err := blob.NewLocal(root)
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "1/broken.bin", io.MultiReader(
		strings.NewReader("partial"),
		failingReader{},
	))
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

/*
TestLocal_CancelledContext verifies that a cancelled upload is not committed.
*/
func TestLocal_CancelledContext(t *testing.T) {
	store, err := blob.NewLocal(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Put(ctx, "1/late.txt", strings.NewReader("too late"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Open(context.Background(), "1/late.txt")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

/*
TestLocal_RejectsUnsafeKeys ensures keys cannot escape the root.
*/
func TestLocal_RejectsUnsafeKeys(t *testing.T) {
	store, err := blob.NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../outside", "1/../../x", "1/./x", "1//x"} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"))
		assert.ErrorIs(t, err, blob.ErrInvalidKey, key)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }
