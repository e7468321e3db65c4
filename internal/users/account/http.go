// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dossier/internal/platform/middleware"
	requestutil "github.com/taibuivan/dossier/internal/platform/request"
	"github.com/taibuivan/dossier/internal/platform/respond"
	"github.com/taibuivan/dossier/internal/platform/validate"
	"github.com/taibuivan/dossier/internal/users/auth"
)

// Handler implements the HTTP layer for the caller's own account.
//
// # Security
//
// Every route requires an authenticated identity.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.getMe)
	router.Patch("/", handler.updateMe)
	router.Delete("/", handler.deleteMe)
	router.Get("/status", handler.getStatus)

	return router
}

// # Profile Endpoints

/*
GET /api/v1/me.

Description: Returns the summary of the authenticated principal (WhoAmI).

Response:
  - 200: Principal summary
  - 401: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	principalID, err := requestutil.RequiredPrincipalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal, err := handler.accountService.GetProfile(request.Context(), principalID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal.Summary())
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	DisplayName *string `json:"display_name"`
}

/*
PATCH /api/v1/me.

Request:
  - body: updateMeRequest (Partial JSON)

Response:
  - 200: The updated summary
  - 400: Validation failure
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	principalID, err := requestutil.RequiredPrincipalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.DisplayName != nil {
		trimmed := strings.TrimSpace(*input.DisplayName)
		input.DisplayName = &trimmed

		validator := &validate.Validator{}
		validator.MaxLen(auth.FieldDisplayName, trimmed, auth.DisplayNameMaxLen)
		if err := validator.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	principal, err := handler.accountService.UpdateProfile(request.Context(), principalID, UpdateProfileInput{
		DisplayName: input.DisplayName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, principal.Summary())
}

/*
DELETE /api/v1/me.

Description: Soft-disables the account and revokes the presenting token.

Response:
  - 204: Account deactivated
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Deactivate(request.Context(), identity); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /api/v1/me/status.

Response:
  - 200: Status (document count, index readiness)
*/
func (handler *Handler) getStatus(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	status, err := handler.accountService.Status(request.Context(), identity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, status)
}
