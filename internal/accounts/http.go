// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package accounts provides the HTTP delivery layer for blog-account
management.

# Security

All endpoints require authentication. Row visibility and per-resource
authorization are enforced by the service via the shared policy, not by
route-level role checks, because moderators and users share these routes.
*/
package accounts

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platform/middleware"
	requestutil "github.com/blognest/blognest/internal/platform/request"
	"github.com/blognest/blognest/internal/platform/respond"
	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/internal/platform/validate"
	"github.com/blognest/blognest/pkg/pagination"
)

// Handler implements the HTTP layer for the accounts domain.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new accounts [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)
	router.Post("/{id}/sync", handler.sync)

	return router
}

// actorFromRequest builds the service-level [Actor] from the verified claims.
func actorFromRequest(request *http.Request) (Actor, error) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return Actor{}, err
	}
	return Actor{ID: claims.UserID, Role: sec.Role(claims.Role)}, nil
}

// accountID extracts and validates the {id} path parameter. Rejecting
// malformed ids here keeps them out of the store, where Postgres would
// fail the uuid cast.
func accountID(request *http.Request) (string, error) {
	id := requestutil.ID(request, "id")
	if (&validate.Validator{}).UUID("id", id).HasErrors() {
		return "", apperr.ValidationError("Invalid account id")
	}
	return id, nil
}

// # Account Endpoints

/*
GET /api/v1/accounts.

Description: Lists the accounts visible to the caller with optional
platform filter, sort key, and pagination.

Request:
  - platform: query, optional, one of naver|tistory|velog|brunch
  - sort: query, optional, one of revenue|posts|name|updated
  - page, limit: query, optional

Response:
  - 200: []Account + pagination
  - 400: Validation: Unknown platform or sort key
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	platform := request.URL.Query().Get("platform")
	sort := request.URL.Query().Get("sort")

	v := &validate.Validator{}
	if platform != "" {
		v.OneOf("platform", platform, validPlatforms...)
	}
	if sort != "" {
		v.OneOf("sort", sort, validSorts...)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	accounts, meta, err := handler.accountService.List(request.Context(), actor, ListQuery{
		Platform: platform,
		Sort:     sort,
		Page:     pagination.FromRequest(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, accounts, meta)
}

/*
GET /api/v1/accounts/{id}.

Description: Retrieves a single account. The owner also receives their
stored login credentials, decrypted.

Request:
  - id: string (UUID)

Response:
  - 200: Account
  - 400: Validation: Malformed account id
  - 403: Forbidden: Caller may not access this account
  - 404: NotFound: Unknown account
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := accountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.Get(request.Context(), actor, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

// createAccountRequest defines the payload for connecting a new account.
type createAccountRequest struct {
	Name        string  `json:"name"`
	Platform    string  `json:"platform"`
	URL         string  `json:"url"`
	APIKey      *string `json:"api_key"`
	Credentials *string `json:"credentials"`
}

/*
POST /api/v1/accounts.

Description: Connects a new blog account for the caller. The blog URL must
be unique across all users.

Request:
  - body: createAccountRequest

Response:
  - 201: Account: The created account
  - 400: Validation: Invalid input or duplicate URL
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createAccountRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.URL = strings.TrimSpace(input.URL)

	v := &validate.Validator{}
	v.Required("name", input.Name).
		MaxLen("name", input.Name, 100).
		OneOf("platform", input.Platform, validPlatforms...).
		Required("url", input.URL).
		URL("url", input.URL).
		MaxLen("url", input.URL, 255)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.Create(request.Context(), actor.ID, CreateInput{
		Name:        input.Name,
		Platform:    input.Platform,
		URL:         input.URL,
		APIKey:      input.APIKey,
		Credentials: input.Credentials,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.CreatedMessage(writer, "Account created successfully", account)
}

// updateAccountRequest defines the mutable account fields.
type updateAccountRequest struct {
	Name        *string `json:"name"`
	URL         *string `json:"url"`
	APIKey      *string `json:"api_key"`
	Credentials *string `json:"credentials"`
	IsActive    *bool   `json:"is_active"`
}

/*
PUT /api/v1/accounts/{id}.

Description: Applies partial updates to an account.

Request:
  - id: string (UUID)
  - body: updateAccountRequest (Partial JSON)

Response:
  - 200: Account: The updated account
  - 400: Validation: Invalid input or malformed account id
  - 403: Forbidden: Caller may not update this account
  - 404: NotFound: Unknown account
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := accountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateAccountRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	if input.Name != nil {
		v.Required("name", *input.Name).MaxLen("name", *input.Name, 100)
	}
	if input.URL != nil {
		v.URL("url", *input.URL).MaxLen("url", *input.URL, 255)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.Update(request.Context(), actor, id, UpdateInput{
		Name:        input.Name,
		URL:         input.URL,
		APIKey:      input.APIKey,
		Credentials: input.Credentials,
		IsActive:    input.IsActive,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Account updated successfully", account)
}

/*
DELETE /api/v1/accounts/{id}.

Description: Permanently disconnects an account.

Request:
  - id: string (UUID)

Response:
  - 200: Message: Account deleted successfully
  - 400: Validation: Malformed account id
  - 403: Forbidden: Caller may not delete this account
  - 404: NotFound: Unknown account
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := accountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Delete(request.Context(), actor, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Account deleted successfully", nil)
}

/*
POST /api/v1/accounts/{id}/sync.

Description: Triggers a platform data refresh for the account. Currently a
stub that stamps last_synced.

Request:
  - id: string (UUID)

Response:
  - 200: Account: The account with the refreshed timestamp
  - 400: Validation: Malformed account id
  - 403: Forbidden: Caller may not sync this account
  - 404: NotFound: Unknown account
*/
func (handler *Handler) sync(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := accountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.accountService.Sync(request.Context(), actor, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Account synced successfully", account)
}
