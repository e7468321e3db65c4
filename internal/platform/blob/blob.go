// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob stores raw document bytes.

Two backends implement [Store]: [Local] writes under a root directory with an
atomic temp-file rename, and [S3] targets any S3-compatible bucket. Keys are
slash-separated relative paths; every backend rejects keys that could escape
their namespace.

Every successful Put reports the byte size and a BLAKE3 content digest, which
the document registry keeps alongside the record.
*/
package blob

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"path"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("blob: object not found")

// ErrInvalidKey is returned for empty, absolute, or traversing keys.
var ErrInvalidKey = errors.New("blob: invalid key")

// Object describes bytes that were durably written.
type Object struct {
	Key      string
	Size     int64
	Checksum string
}

// Store is the contract every blob backend satisfies.
type Store interface {
	// Put writes all of reader under key. Nothing is visible under key
	// unless Put returns a nil error.
	Put(ctx context.Context, key string, reader io.Reader) (Object, error)

	// Open returns a reader for the bytes under key, or ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key joins segments into a blob key.
func Key(segments ...string) string {
	return path.Join(segments...)
}

// validateKey rejects keys that are not clean relative paths.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." || segment == "." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// digestingReader counts and hashes bytes as they are read.
type digestingReader struct {
	reader io.Reader
	hasher hash.Hash
	size   int64
}

func newDigestingReader(reader io.Reader) *digestingReader {
	return &digestingReader{reader: reader, hasher: blake3.New()}
}

func (d *digestingReader) Read(p []byte) (int, error) {
	n, err := d.reader.Read(p)
	if n > 0 {
		d.size += int64(n)
		_, _ = d.hasher.Write(p[:n])
	}
	return n, err
}

func (d *digestingReader) checksum() string {
	return hex.EncodeToString(d.hasher.Sum(nil))
}

// Checksum returns the hex BLAKE3 digest of data.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
