// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dossier/internal/knowledge/document"
	"github.com/taibuivan/dossier/internal/platform/apperr"
	"github.com/taibuivan/dossier/internal/platform/middleware"
	"github.com/taibuivan/dossier/internal/platform/sec"
)

// tokenTable resolves fixed tokens to identities.
type tokenTable map[string]*sec.Identity

func (table tokenTable) Resolve(_ context.Context, token string) (*sec.Identity, error) {
	if identity, ok := table[token]; ok {
		return identity, nil
	}
	return nil, apperr.Unauthorized("Could not validate credentials")
}

func newRouter(t *testing.T, maxBytes int64) http.Handler {
	t.Helper()
	f := newFixture(t, maxBytes)

	tokens := tokenTable{
		"alice-token": {PrincipalID: 1, Username: "alice", TokenID: "a", ExpiresAt: time.Now().Add(time.Hour)},
		"bob-token":   {PrincipalID: 2, Username: "bob", TokenID: "b", ExpiresAt: time.Now().Add(time.Hour)},
	}

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokens))
	router.Mount("/documents", document.NewHandler(f.service, maxBytes).Routes())
	return router
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", "text/plain")

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func call(t *testing.T, router http.Handler, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}

	request := httptest.NewRequest(method, path, body)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func decodeData(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

/*
TestHandler_Documents drives upload, listing and deletion over HTTP.
*/
func TestHandler_Documents(t *testing.T) {
	router := newRouter(t, 1<<20)

	body, contentType := multipartBody(t, "file", "notes.txt", "meeting notes about the okapi enclosure")
	recorder := call(t, router, http.MethodPost, "/documents", "alice-token", body, contentType)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var uploaded struct {
		DocumentID int64  `json:"document_id"`
		Filename   string `json:"filename"`
		Size       int64  `json:"size"`
		Indexed    bool   `json:"indexed"`
		Message    string `json:"message"`
	}
	decodeData(t, recorder, &uploaded)
	assert.Equal(t, "notes.txt", uploaded.Filename)
	assert.Equal(t, int64(39), uploaded.Size)
	assert.True(t, uploaded.Indexed)
	assert.Equal(t, "Document notes.txt uploaded successfully", uploaded.Message)

	recorder = call(t, router, http.MethodGet, "/documents", "alice-token", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var listed []map[string]any
	decodeData(t, recorder, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "notes.txt", listed[0]["filename"])
	assert.Equal(t, "notes.txt", listed[0]["original_filename"])
	assert.Equal(t, "text/plain", listed[0]["content_type"])
	assert.Equal(t, true, listed[0]["indexed"])

	recorder = call(t, router, http.MethodGet, "/documents", "bob-token", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":[]}`, recorder.Body.String())

	path := fmt.Sprintf("/documents/%d", uploaded.DocumentID)

	recorder = call(t, router, http.MethodDelete, path, "bob-token", nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	foreign := recorder.Body.String()

	recorder = call(t, router, http.MethodDelete, "/documents/424242", "bob-token", nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.JSONEq(t, foreign, recorder.Body.String())

	recorder = call(t, router, http.MethodDelete, path, "alice-token", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"message":"Document deleted successfully"}}`, recorder.Body.String())

	recorder = call(t, router, http.MethodDelete, path, "alice-token", nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

/*
TestHandler_Rejections covers requests that never reach the service.
*/
func TestHandler_Rejections(t *testing.T) {
	router := newRouter(t, 16)

	tests := []struct {
		name       string
		token      string
		method     string
		path       string
		body       func() (*bytes.Buffer, string)
		wantStatus int
	}{
		{
			name:       "anonymous upload",
			method:     http.MethodPost,
			path:       "/documents",
			body:       func() (*bytes.Buffer, string) { return multipartBody(t, "file", "a.txt", "x") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "anonymous list",
			method:     http.MethodGet,
			path:       "/documents",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong field",
			token:      "alice-token",
			method:     http.MethodPost,
			path:       "/documents",
			body:       func() (*bytes.Buffer, string) { return multipartBody(t, "upload", "a.txt", "x") },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not multipart",
			token:      "alice-token",
			method:     http.MethodPost,
			path:       "/documents",
			body:       func() (*bytes.Buffer, string) { return bytes.NewBufferString(`{}`), "application/json" },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too large",
			token:      "alice-token",
			method:     http.MethodPost,
			path:       "/documents",
			body:       func() (*bytes.Buffer, string) { return multipartBody(t, "file", "a.txt", "0123456789abcdefXYZ") },
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "bad id",
			token:      "alice-token",
			method:     http.MethodDelete,
			path:       "/documents/abc",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *bytes.Buffer
			var contentType string
			if tt.body != nil {
				body, contentType = tt.body()
			}

			recorder := call(t, router, tt.method, tt.path, tt.token, body, contentType)
			assert.Equal(t, tt.wantStatus, recorder.Code, recorder.Body.String())
		})
	}
}
