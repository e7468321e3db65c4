// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dossier/internal/platform/middleware"
	"github.com/taibuivan/dossier/internal/users/auth"
)

type sessionEnvelope struct {
	Data struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
		User        struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newAuthRouter(t *testing.T) http.Handler {
	t.Helper()
	f := newFixture(t)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(f.service))
	router.Mount("/auth", auth.NewHandler(f.service).Routes())
	return router
}

func do(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

/*
TestHandler_RegisterLoginLogout drives the full session lifecycle over HTTP.
*/
func TestHandler_RegisterLoginLogout(t *testing.T) {
	router := newAuthRouter(t)

	recorder := do(router, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"correct horse battery"}`, "")
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var registered sessionEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &registered))
	assert.Equal(t, "bearer", registered.Data.TokenType)
	assert.EqualValues(t, 1800, registered.Data.ExpiresIn)
	assert.Equal(t, "alice", registered.Data.User.Username)
	assert.NotContains(t, recorder.Body.String(), "password")

	recorder = do(router, http.MethodPost, "/auth/login", `{"username":"alice","password":"correct horse battery"}`, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var loggedIn sessionEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &loggedIn))
	assert.NotEmpty(t, loggedIn.Data.AccessToken)

	recorder = do(router, http.MethodPost, "/auth/logout", "", loggedIn.Data.AccessToken)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = do(router, http.MethodPost, "/auth/logout", "", loggedIn.Data.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "Bearer", recorder.Header().Get("WWW-Authenticate"))
}

/*
TestHandler_Register_Errors maps domain errors onto status codes.
*/
func TestHandler_Register_Errors(t *testing.T) {
	router := newAuthRouter(t)
	do(router, http.MethodPost, "/auth/register", `{"username":"alice","email":"alice@example.com","password":"correct horse battery"}`, "")

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"duplicate_username", `{"username":"alice","email":"new@example.com","password":"correct horse battery"}`, http.StatusConflict, "DUPLICATE_USERNAME"},
		{"duplicate_email", `{"username":"alice2","email":"alice@example.com","password":"correct horse battery"}`, http.StatusConflict, "DUPLICATE_EMAIL"},
		{"short_password", `{"username":"bob","email":"bob@example.com","password":"short"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad_username", `{"username":"b o b","email":"bob@example.com","password":"correct horse battery"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown_field", `{"username":"bob","email":"bob@example.com","password":"correct horse battery","role":"admin"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := do(router, http.MethodPost, "/auth/register", tt.body, "")
			assert.Equal(t, tt.status, recorder.Code)

			var body errorEnvelope
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

/*
TestHandler_Login_Uniform checks unknown users and bad passwords look identical.
*/
func TestHandler_Login_Uniform(t *testing.T) {
	router := newAuthRouter(t)
	do(router, http.MethodPost, "/auth/register", `{"username":"alice","email":"alice@example.com","password":"correct horse battery"}`, "")

	unknown := do(router, http.MethodPost, "/auth/login", `{"username":"mallory","password":"correct horse battery"}`, "")
	wrong := do(router, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong password"}`, "")

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, unknown.Code, wrong.Code)
	assert.JSONEq(t, unknown.Body.String(), wrong.Body.String())
}
