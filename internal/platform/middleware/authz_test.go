// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dossier/internal/platform/apperr"
	"github.com/taibuivan/dossier/internal/platform/ctxutil"
	"github.com/taibuivan/dossier/internal/platform/middleware"
	"github.com/taibuivan/dossier/internal/platform/sec"
)

type stubResolver map[string]error

func (stub stubResolver) Resolve(_ context.Context, token string) (*sec.Identity, error) {
	if err, ok := stub[token]; ok {
		return nil, err
	}
	return &sec.Identity{PrincipalID: 7, Username: "alice", TokenID: token}, nil
}

/*
TestAuthenticate checks anonymous pass-through, rejection and identity injection.
*/
func TestAuthenticate(t *testing.T) {
	resolver := stubResolver{
		"expired": apperr.Unauthorized("token expired"),
		"broken":  apperr.ServiceUnavailable("down"),
		"raw":     errors.New("boom"),
	}

	var seen *sec.Identity
	protected := middleware.Authenticate(resolver)(middleware.RequireAuth(
		http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			seen = ctxutil.GetIdentity(request.Context())
			writer.WriteHeader(http.StatusOK)
		}),
	))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"wrong_scheme", "Basic abc", http.StatusUnauthorized},
		{"empty_token", "Bearer ", http.StatusUnauthorized},
		{"rejected", "Bearer expired", http.StatusUnauthorized},
		{"resolver_unavailable", "Bearer broken", http.StatusServiceUnavailable},
		{"resolver_failure", "Bearer raw", http.StatusInternalServerError},
		{"accepted", "Bearer good", http.StatusOK},
		{"scheme_case_insensitive", "bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()
			protected.ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", recorder.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"error":"Could not validate credentials","code":"UNAUTHORIZED"}`, recorder.Body.String())
			}
			if tt.status == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, int64(7), seen.PrincipalID)
			}
		})
	}
}
