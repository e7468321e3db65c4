// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/taibuivan/dossier/internal/platform/apperr"
	"github.com/taibuivan/dossier/internal/platform/blob"
	"github.com/taibuivan/dossier/internal/platform/ctxutil"
	"github.com/taibuivan/dossier/internal/platform/metrics"
	"github.com/taibuivan/dossier/pkg/slug"
	"github.com/taibuivan/dossier/pkg/uuid"
)

// Indexer runs registry mutations inside an owner's index scope.
//
// [index.Manager] satisfies it: apply runs under the owner's write lock and a
// true result triggers a full rebuild before the lock is released.
type Indexer interface {
	Mutate(ctx context.Context, ownerID int64, apply func(context.Context) (bool, error)) (bool, error)
}

// errTooLarge marks an upload stream that crossed the size limit.
var errTooLarge = errors.New("document: upload exceeds limit")

// # Service Layer

// Service orchestrates uploads, listings and deletions.
type Service struct {
	registry Registry
	blobs    blob.Store
	indexer  Indexer
	maxBytes int64
	metrics  *metrics.Metrics
}

// NewService constructs a new [Service]. maxBytes bounds a single upload.
func NewService(registry Registry, blobs blob.Store, indexer Indexer, maxBytes int64, recorder *metrics.Metrics) *Service {
	return &Service{
		registry: registry,
		blobs:    blobs,
		indexer:  indexer,
		maxBytes: maxBytes,
		metrics:  recorder,
	}
}

// UploadInput is one file as received from the client.
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// UploadResult reports the stored document and whether the index caught up.
type UploadResult struct {
	Document *Document
	Indexed  bool
}

/*
Upload stores the bytes and registers the document for ownerID.

Description: The bytes go to the blob store first, outside the owner's lock.
The registry record is created inside [Indexer.Mutate], which rebuilds the
owner's index before returning. If the record cannot be created the blob is
removed again, so storage and registry never diverge.

Parameters:
  - ctx: context.Context
  - ownerID: int64 (Acting principal)
  - input: UploadInput

Returns:
  - *UploadResult: The registered document and index state
  - error: apperr.PayloadTooLarge or apperr.StorageFailure
*/
func (service *Service) Upload(ctx context.Context, ownerID int64, input UploadInput) (*UploadResult, error) {
	logger := ctxutil.GetLogger(ctx)

	storageName := uuid.New() + slug.Extension(input.Filename)
	key := blob.Key(strconv.FormatInt(ownerID, 10), storageName)

	object, err := service.blobs.Put(ctx, key, &limitedReader{reader: input.Body, remaining: service.maxBytes})
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.Is(err, errTooLarge) || errors.As(err, &maxBytesErr) {
			return nil, apperr.PayloadTooLarge(service.maxBytes)
		}
		return nil, apperr.StorageFailure(fmt.Errorf("document_service_put_failed: %w", err))
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	document := &Document{
		OwnerID:      ownerID,
		StorageName:  storageName,
		OriginalName: input.Filename,
		StoragePath:  key,
		SizeBytes:    object.Size,
		ContentType:  contentType,
		Checksum:     object.Checksum,
	}

	indexed, err := service.indexer.Mutate(ctx, ownerID, func(scoped context.Context) (bool, error) {
		if err := service.registry.Create(scoped, document); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		service.discard(ctx, key)
		return nil, apperr.StorageFailure(fmt.Errorf("document_service_register_failed: %w", err))
	}
	document.IsIndexed = indexed

	service.metrics.Uploaded(document.SizeBytes)
	logger.InfoContext(ctx, "document_uploaded",
		slog.Int64("principal_id", ownerID),
		slog.Int64("document_id", document.ID),
		slog.Int64("size", document.SizeBytes),
		slog.Bool("indexed", indexed),
	)

	return &UploadResult{Document: document, Indexed: indexed}, nil
}

/*
List returns ownerID's documents.

Returns:
  - []*Document: Owner-matched records only
  - error: Registry failures
*/
func (service *Service) List(context context.Context, ownerID int64) ([]*Document, error) {
	documents, err := service.registry.ListForOwner(context, ownerID)
	if err != nil {
		return nil, fmt.Errorf("document_service_list_failed: %w", err)
	}
	return documents, nil
}

/*
Delete removes documentID if ownerID owns it.

Description: The registry delete and the index rebuild happen under the
owner's lock. The blob is removed afterwards; a failure there leaves orphan
bytes which are logged but never reported to the caller.

Returns:
  - error: ErrDocumentNotFound when absent or foreign, or registry failures
*/
func (service *Service) Delete(ctx context.Context, ownerID, documentID int64) error {
	var removed *Document

	_, err := service.indexer.Mutate(ctx, ownerID, func(scoped context.Context) (bool, error) {
		document, ok, err := service.registry.Delete(scoped, documentID, ownerID)
		if err != nil {
			return false, err
		}
		removed = document
		return ok, nil
	})
	if err != nil {
		return fmt.Errorf("document_service_delete_failed: %w", err)
	}
	if removed == nil {
		return ErrDocumentNotFound
	}

	service.discard(ctx, removed.StoragePath)

	ctxutil.GetLogger(ctx).InfoContext(ctx, "document_deleted",
		slog.Int64("principal_id", ownerID),
		slog.Int64("document_id", documentID),
	)
	return nil
}

// CountForOwner returns how many documents ownerID has.
func (service *Service) CountForOwner(context context.Context, ownerID int64) (int, error) {
	return service.registry.CountForOwner(context, ownerID)
}

// discard removes a blob that no record points to.
func (service *Service) discard(ctx context.Context, key string) {
	if err := service.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "document_blob_orphaned",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}

// limitedReader fails once more than remaining bytes have been read.
type limitedReader struct {
	reader    io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, errTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}

	n, err := l.reader.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errTooLarge
	}
	return n, err
}
