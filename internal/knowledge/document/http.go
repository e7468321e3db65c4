// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dossier/internal/platform/apperr"
	"github.com/taibuivan/dossier/internal/platform/middleware"
	requestutil "github.com/taibuivan/dossier/internal/platform/request"
	"github.com/taibuivan/dossier/internal/platform/respond"
	"github.com/taibuivan/dossier/internal/platform/validate"
	"github.com/taibuivan/dossier/pkg/slice"
)

// multipartOverhead is the body allowance on top of the file limit for
// boundaries and part headers.
const multipartOverhead = 1 << 20

// Handler implements the HTTP layer for the caller's documents.
//
// # Security
//
// Every route requires an authenticated identity and only ever touches the
// caller's own documents.
type Handler struct {
	documentService *Service
	maxBytes        int64
}

// NewHandler constructs a new document [Handler].
func NewHandler(service *Service, maxBytes int64) *Handler {
	return &Handler{documentService: service, maxBytes: maxBytes}
}

// Routes returns a [chi.Router] configured with the document endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/", handler.upload)
	router.Get("/", handler.list)
	router.Delete("/{id}", handler.delete)

	return router
}

// # Endpoints

// uploadResponse is returned after a successful upload.
type uploadResponse struct {
	DocumentID int64  `json:"document_id"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	Indexed    bool   `json:"indexed"`
	Message    string `json:"message"`
}

/*
POST /api/v1/documents.

Description: Streams the multipart field "file" straight into blob storage.
Nothing is buffered in memory beyond the current read.

Response:
  - 201: uploadResponse
  - 400: Missing file or filename
  - 413: File over the size limit
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	principalID, err := requestutil.RequiredPrincipalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	request.Body = http.MaxBytesReader(writer, request.Body, handler.maxBytes+multipartOverhead)

	part, err := handler.filePart(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer part.Close()

	filename := strings.TrimSpace(part.FileName())

	validator := &validate.Validator{}
	validator.Required(FieldFile, filename).MaxLen(FieldFile, filename, FilenameMaxLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.documentService.Upload(request.Context(), principalID, UploadInput{
		Filename:    filename,
		ContentType: part.Header.Get("Content-Type"),
		Body:        part,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	message := fmt.Sprintf("Document %s uploaded successfully", filename)
	if !result.Indexed {
		message = fmt.Sprintf("Document %s uploaded; indexing will complete on the next search", filename)
	}

	respond.Created(writer, uploadResponse{
		DocumentID: result.Document.ID,
		Filename:   result.Document.OriginalName,
		Size:       result.Document.SizeBytes,
		Indexed:    result.Indexed,
		Message:    message,
	})
}

/*
GET /api/v1/documents.

Response:
  - 200: []Summary (the caller's documents only)
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	principalID, err := requestutil.RequiredPrincipalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	documents, err := handler.documentService.List(request.Context(), principalID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, slice.Map(documents, (*Document).Summary))
}

/*
DELETE /api/v1/documents/{id}.

Response:
  - 200: Confirmation message
  - 404: Absent or owned by someone else
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	principalID, err := requestutil.RequiredPrincipalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	documentID, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.documentService.Delete(request.Context(), principalID, documentID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"message": "Document deleted successfully"})
}

// filePart advances the multipart stream to the "file" field.
func (handler *Handler) filePart(request *http.Request) (*multipart.Part, error) {
	reader, err := request.MultipartReader()
	if err != nil {
		return nil, apperr.ValidationError("Expected a multipart/form-data body",
			apperr.FieldError{Field: FieldFile, Message: "This field is required"})
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, validate.RequiredError(FieldFile, "This field is required")
		}
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return nil, apperr.PayloadTooLarge(handler.maxBytes)
			}
			return nil, apperr.ValidationError("Malformed multipart body")
		}

		if part.FormName() == FieldFile {
			return part, nil
		}
		_ = part.Close()
	}
}
