// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package document implements the document registry and the upload, listing and
deletion flows around it.

# Architecture

Bytes are written to the blob store first, outside any lock. Only then is the
registry record created, inside the owner's index mutation scope, so a failed
write never leaves a record behind and every successful mutation is followed
by a full rebuild of the owner's index.

Every operation takes the acting owner's ID. A document that exists but
belongs to someone else is reported exactly like one that does not exist.
*/
package document

import (
	"time"

	"github.com/taibuivan/dossier/internal/platform/apperr"
)

// # Domain Entities

// Document is one uploaded file owned by a principal.
//
// StorageName is generated and collision-resistant. OriginalName comes from
// the client and is only ever displayed.
type Document struct {
	ID           int64
	OwnerID      int64
	StorageName  string
	OriginalName string
	StoragePath  string
	SizeBytes    int64
	ContentType  string
	Checksum     string
	UploadedAt   time.Time
	IsIndexed    bool
}

// Summary is the client-facing listing entry.
type Summary struct {
	ID               int64     `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	ContentType      string    `json:"content_type"`
	Checksum         string    `json:"checksum"`
	UploadTime       time.Time `json:"upload_time"`
	Indexed          bool      `json:"indexed"`
}

// Summary projects the document onto its listing entry.
func (document *Document) Summary() Summary {
	return Summary{
		ID:               document.ID,
		Filename:         document.OriginalName,
		OriginalFilename: document.OriginalName,
		FileSize:         document.SizeBytes,
		ContentType:      document.ContentType,
		Checksum:         document.Checksum,
		UploadTime:       document.UploadedAt,
		Indexed:          document.IsIndexed,
	}
}

// # Input Constraints

const (
	// FilenameMaxLength bounds the client-supplied name kept for display.
	FilenameMaxLength = 255

	// DefaultContentType is recorded when the client declares none.
	DefaultContentType = "application/octet-stream"

	// FieldFile is the multipart field carrying the upload.
	FieldFile = "file"
)

// # Domain Errors

var (
	// ErrDocumentNotFound covers both absent and foreign documents.
	ErrDocumentNotFound = apperr.NotFound("Document")

	// ErrDuplicateStorageName means a generated storage name collided.
	ErrDuplicateStorageName = apperr.Conflict("Storage name already in use")
)
