// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores blobs as files below a root directory.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed and returns a [Local] store.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("blob: failed to create root %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

/*
Put streams reader into a temporary file next to the target, syncs it, and
renames it into place.

Returns:
  - Object: Key, size and BLAKE3 checksum of the written bytes
  - error: ErrInvalidKey or filesystem failures (the temp file is removed)
*/
func (store *Local) Put(ctx context.Context, key string, reader io.Reader) (Object, error) {
	if err := validateKey(key); err != nil {
		return Object{}, err
	}

	target := store.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return Object{}, fmt.Errorf("blob_local_mkdir_failed: %w", err)
	}

	temp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("blob_local_create_failed: %w", err)
	}
	tempName := temp.Name()

	// Any early return below leaves no partial file behind.
	committed := false
	defer func() {
		if !committed {
			_ = temp.Close()
			_ = os.Remove(tempName)
		}
	}()

	digest := newDigestingReader(contextReader{ctx: ctx, reader: reader})
	if _, err := io.Copy(temp, digest); err != nil {
		return Object{}, fmt.Errorf("blob_local_write_failed: %w", err)
	}
	if err := temp.Sync(); err != nil {
		return Object{}, fmt.Errorf("blob_local_sync_failed: %w", err)
	}
	if err := temp.Close(); err != nil {
		return Object{}, fmt.Errorf("blob_local_close_failed: %w", err)
	}
	if err := os.Rename(tempName, target); err != nil {
		return Object{}, fmt.Errorf("blob_local_rename_failed: %w", err)
	}
	committed = true

	return Object{Key: key, Size: digest.size, Checksum: digest.checksum()}, nil
}

// Open returns the file under key.
func (store *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	file, err := os.Open(store.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob_local_open_failed: %w", err)
	}
	return file, nil
}

// Delete removes the file under key, if present.
func (store *Local) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := os.Remove(store.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob_local_delete_failed: %w", err)
	}
	return nil
}

func (store *Local) path(key string) string {
	return filepath.Join(store.root, filepath.FromSlash(key))
}

// contextReader stops a copy once ctx is cancelled.
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.reader.Read(p)
}
