// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package query

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dossier/internal/platform/middleware"
	requestutil "github.com/taibuivan/dossier/internal/platform/request"
	"github.com/taibuivan/dossier/internal/platform/respond"
	"github.com/taibuivan/dossier/internal/platform/validate"
)

// Handler implements the HTTP layer for knowledge queries.
type Handler struct {
	queryService *Service
}

// NewHandler constructs a new query [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{queryService: service}
}

// Routes returns a [chi.Router] configured with the query endpoint.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/", handler.ask)

	return router
}

// askRequest defines the expected JSON payload for a query.
type askRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

/*
POST /api/v1/query.

Request:
  - body: askRequest (top_k defaults to 5)

Response:
  - 200: Result
  - 400: Validation failure
  - 503: Index could not be rebuilt
*/
func (handler *Handler) ask(writer http.ResponseWriter, request *http.Request) {
	principalID, err := requestutil.RequiredPrincipalID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input askRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	input.Query = strings.TrimSpace(input.Query)
	topK := DefaultTopK
	if input.TopK != nil {
		topK = *input.TopK
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldQuery, input.Query).
		MaxLen(FieldQuery, input.Query, QueryMaxLength).
		Range(FieldTopK, topK, 1, MaxTopK)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.queryService.Ask(request.Context(), principalID, Input{Query: input.Query, TopK: topK})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}
