// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package middleware provides the HTTP middleware chain for the Dossier API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, Authentication, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/dossier/internal/platform/apperr"
	"github.com/taibuivan/dossier/internal/platform/constants"
	"github.com/taibuivan/dossier/internal/platform/ctxutil"
	"github.com/taibuivan/dossier/internal/platform/respond"
	"github.com/taibuivan/dossier/internal/platform/sec"
)

// ErrCredentials is the single response for every rejected bearer token.
var ErrCredentials = apperr.Unauthorized("Could not validate credentials")

// IdentityResolver turns a raw bearer token into a live caller.
//
// # Why an interface?
//
// Defining IdentityResolver here decouples the middleware from the `auth`
// service implementation, allowing tests to inject a stub.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*sec.Identity, error)
}

// Authenticate extracts and resolves the bearer token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, resolve it via [IdentityResolver].
//  4. Inject [*sec.Identity] into the request context for downstream use.
//
// Every rejected token is answered with the same 401 body. Failures of the
// resolver itself (revocation store down, database errors) keep their own status.
func Authenticate(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				reject(writer, request)
				return
			}

			// ── 3. Token Resolution ───────────────────────────────────────────
			identity, err := resolver.Resolve(request.Context(), strings.TrimSpace(token))
			if err != nil {
				switch appErr := apperr.As(err); {
				case appErr == nil:
					respond.Error(writer, request, apperr.Internal(err))
				case appErr.HTTPStatus == http.StatusUnauthorized:
					reject(writer, request)
				default:
					respond.Error(writer, request, err)
				}
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			logger := ctxutil.GetLogger(ctx).With(slog.Int64("principal_id", identity.PrincipalID))
			ctx = ctxutil.WithLogger(ctx, logger)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetIdentity(request.Context()) == nil {
			reject(writer, request)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

func reject(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("WWW-Authenticate", "Bearer")
	respond.Error(writer, request, ErrCredentials)
}
