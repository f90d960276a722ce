// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package blogaccounts provides the HTTP delivery layer for catalog-backed
blog accounts.

# Security

All endpoints require authentication. The listing is always scoped to the
caller; detail and mutation access is enforced by the service via the
shared policy, so moderators can reach their referrals' accounts without
route-level role checks.
*/
package blogaccounts

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platform/middleware"
	requestutil "github.com/blognest/blognest/internal/platform/request"
	"github.com/blognest/blognest/internal/platform/respond"
	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/internal/platform/validate"
)

// Handler implements the HTTP layer for the blog accounts domain.
type Handler struct {
	blogAccountService *Service
}

// NewHandler constructs a new blogaccounts [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{blogAccountService: service}
}

// Routes returns a [chi.Router] configured with the blog-account endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listMine)
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

// blogAccountID parses the integer account identifier from the URL.
func blogAccountID(request *http.Request) (int64, error) {
	id, err := strconv.ParseInt(requestutil.Param(request, "id"), 10, 64)
	if err != nil {
		return 0, apperr.ValidationError("Invalid blog account id")
	}
	return id, nil
}

// # Blog Account Endpoints

/*
GET /api/v1/blog-accounts.

Description: Lists the caller's connected accounts, newest first, with
platforms, schemas, and decrypted field values.

Response:
  - 200: []BlogAccount
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) listMine(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	accounts, err := handler.blogAccountService.ListMine(request.Context(), actor.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, accounts)
}

/*
GET /api/v1/blog-accounts/{id}.

Description: Retrieves one connected account. The owner receives
encrypted values decrypted; other authorized readers see them withheld.

Request:
  - id: int

Response:
  - 200: BlogAccount
  - 403: Forbidden: Caller may not access this account
  - 404: NotFound: Unknown account
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := blogAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.blogAccountService.Get(request.Context(), actor, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

// createBlogAccountRequest defines the payload for connecting an account.
// Fields maps the platform's schema field names to submitted values.
type createBlogAccountRequest struct {
	PlatformID  int64             `json:"platform_id"`
	AccountName *string           `json:"account_name"`
	Fields      map[string]string `json:"fields"`
}

/*
POST /api/v1/blog-accounts.

Description: Connects a blog account through an active catalog platform.
Submitted field values are stored per the platform's schema; encrypted
fields are encrypted before they reach storage.

Request:
  - body: createBlogAccountRequest

Response:
  - 201: BlogAccount: The created connection
  - 400: Validation: Invalid input or inactive platform
  - 404: NotFound: Unknown platform
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createBlogAccountRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Custom("platform_id", input.PlatformID <= 0, "A platform is required")
	if input.AccountName != nil {
		trimmed := strings.TrimSpace(*input.AccountName)
		input.AccountName = &trimmed
		v.MaxLen("account_name", trimmed, 200)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.blogAccountService.Create(request.Context(), actor.ID, CreateInput{
		PlatformID:  input.PlatformID,
		AccountName: input.AccountName,
		Fields:      input.Fields,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.CreatedMessage(writer, "Blog account created successfully", account)
}

// updateBlogAccountRequest defines the mutable connection fields.
type updateBlogAccountRequest struct {
	AccountName *string           `json:"account_name"`
	IsActive    *bool             `json:"is_active"`
	Fields      map[string]string `json:"fields"`
}

/*
PUT /api/v1/blog-accounts/{id}.

Description: Applies partial updates; submitted field values replace the
stored value for the same schema field and leave the rest alone.

Request:
  - id: int
  - body: updateBlogAccountRequest (Partial JSON)

Response:
  - 200: BlogAccount: The updated connection
  - 400: Validation: Invalid input
  - 403: Forbidden: Caller may not update this account
  - 404: NotFound: Unknown account
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := blogAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateBlogAccountRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	if input.AccountName != nil {
		v.MaxLen("account_name", *input.AccountName, 200)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.blogAccountService.Update(request.Context(), actor, id, UpdateInput{
		AccountName: input.AccountName,
		IsActive:    input.IsActive,
		Fields:      input.Fields,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Blog account updated successfully", account)
}

/*
DELETE /api/v1/blog-accounts/{id}.

Description: Disconnects an account; stored field values go with it.

Request:
  - id: int

Response:
  - 200: Message: Blog account deleted successfully
  - 403: Forbidden: Caller may not delete this account
  - 404: NotFound: Unknown account
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := blogAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.blogAccountService.Delete(request.Context(), actor, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Blog account deleted successfully", nil)
}

/*
POST /api/v1/blog-accounts/{id}/sync.

Description: Triggers a platform data refresh. Currently a stub that
marks the sync successful and stamps last_synced_at.

Request:
  - id: int

Response:
  - 200: BlogAccount: The account with its refreshed sync state
  - 403: Forbidden: Caller may not sync this account
  - 404: NotFound: Unknown account
*/
func (handler *Handler) sync(writer http.ResponseWriter, request *http.Request) {
	actor, err := actorFromRequest(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id, err := blogAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.blogAccountService.Sync(request.Context(), actor, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Blog account synced successfully", account)
}
