// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package platforms provides the HTTP delivery layer for the catalog.

# Security

The catalog listing and detail endpoints are public: clients render the
signup-adjacent "connect your blog" form from them. Every mutation lives
under /admin and requires the admin role.
*/
package platforms

import (
	"encoding/json"
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
	"github.com/blognest/blognest/pkg/pointer"
)

// Handler implements the HTTP layer for the platform catalog.
type Handler struct {
	platformService *Service
}

// NewHandler constructs a new platforms [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{platformService: service}
}

// Routes returns a [chi.Router] configured with the catalog endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listActive)
	router.Get("/{id}", handler.get)

	router.Route("/admin", func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Get("/all", handler.listAll)
		admin.Post("/", handler.create)
		admin.Put("/{id}", handler.update)
		admin.Delete("/{id}", handler.delete)
		admin.Patch("/{id}/status", handler.toggleStatus)
	})

	return router
}

// platformID parses the integer platform identifier from the URL.
func platformID(request *http.Request) (int64, error) {
	id, err := strconv.ParseInt(requestutil.Param(request, "id"), 10, 64)
	if err != nil {
		return 0, apperr.ValidationError("Invalid platform id")
	}
	return id, nil
}

// # Public Endpoints

/*
GET /api/v1/platforms.

Description: Lists active platforms with their connection form schemas,
served from the catalog cache when warm.

Response:
  - 200: []Platform
*/
func (handler *Handler) listActive(writer http.ResponseWriter, request *http.Request) {
	platforms, err := handler.platformService.ListActive(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, platforms)
}

/*
GET /api/v1/platforms/{id}.

Description: Retrieves one platform with its field schema.

Request:
  - id: int

Response:
  - 200: Platform
  - 404: NotFound: Unknown platform
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id, err := platformID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	platform, err := handler.platformService.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, platform)
}

// # Admin Endpoints

/*
GET /api/v1/platforms/admin/all.

Description: Lists every platform, active or not, with linked blog
account counts.

Response:
  - 200: []Platform
  - 403: Forbidden: Caller is not an admin
*/
func (handler *Handler) listAll(writer http.ResponseWriter, request *http.Request) {
	platforms, err := handler.platformService.ListAll(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, platforms)
}

// fieldRequest defines one submitted field schema row.
//
// IsRequired defaults to true when omitted: most connection fields are
// mandatory and admins only mark the exceptions.
type fieldRequest struct {
	FieldName    string          `json:"field_name"`
	FieldLabel   string          `json:"field_label"`
	FieldType    string          `json:"field_type"`
	Placeholder  *string         `json:"placeholder"`
	HelpText     *string         `json:"help_text"`
	IsRequired   *bool           `json:"is_required"`
	IsEncrypted  bool            `json:"is_encrypted"`
	DisplayOrder int             `json:"display_order"`
	Validation   json.RawMessage `json:"validation"`
	Options      json.RawMessage `json:"options"`
}

// createPlatformRequest defines the payload for registering a platform.
type createPlatformRequest struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	Description *string        `json:"description"`
	Icon        *string        `json:"icon"`
	APIEndpoint *string        `json:"api_endpoint"`
	LoginURL    *string        `json:"login_url"`
	IsActive    *bool          `json:"is_active"`
	Fields      []fieldRequest `json:"fields"`
}

// validateFields checks the submitted field schema rows.
func validateFields(v *validate.Validator, fields []fieldRequest) {
	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		v.Required("field_name", field.FieldName).
			MaxLen("field_name", field.FieldName, 100).
			Required("field_label", field.FieldLabel).
			MaxLen("field_label", field.FieldLabel, 100)

		if field.FieldType != "" {
			v.OneOf("field_type", field.FieldType, validFieldTypes...)
		}

		v.Custom("field_name", seen[field.FieldName], "Duplicate field name: "+field.FieldName)
		seen[field.FieldName] = true
	}
}

// buildFieldInputs converts request rows into service inputs, applying
// the field-type and is-required defaults.
func buildFieldInputs(fields []fieldRequest) []FieldInput {
	inputs := make([]FieldInput, len(fields))
	for i, field := range fields {
		fieldType := field.FieldType
		if fieldType == "" {
			fieldType = "text"
		}
		isRequired := pointer.Fallback(field.IsRequired, true)
		inputs[i] = FieldInput{
			FieldName:    field.FieldName,
			FieldLabel:   field.FieldLabel,
			FieldType:    fieldType,
			Placeholder:  field.Placeholder,
			HelpText:     field.HelpText,
			IsRequired:   isRequired,
			IsEncrypted:  field.IsEncrypted,
			DisplayOrder: field.DisplayOrder,
			Validation:   field.Validation,
			Options:      field.Options,
		}
	}
	return inputs
}

/*
POST /api/v1/platforms/admin.

Description: Registers a new platform with its connection field schema.
The machine name defaults to a slug of the display name.

Request:
  - body: createPlatformRequest

Response:
  - 201: Platform: The created platform
  - 400: Validation: Invalid input
  - 409: Conflict: Platform name already taken
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createPlatformRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.DisplayName = strings.TrimSpace(input.DisplayName)

	v := &validate.Validator{}
	v.Required("display_name", input.DisplayName).
		MaxLen("display_name", input.DisplayName, 100).
		MaxLen("name", input.Name, 100)
	if input.APIEndpoint != nil && *input.APIEndpoint != "" {
		v.URL("api_endpoint", *input.APIEndpoint)
	}
	if input.LoginURL != nil && *input.LoginURL != "" {
		v.URL("login_url", *input.LoginURL)
	}
	validateFields(v, input.Fields)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	platform, err := handler.platformService.Create(request.Context(), CreateInput{
		Name:        input.Name,
		DisplayName: input.DisplayName,
		Description: input.Description,
		Icon:        input.Icon,
		APIEndpoint: input.APIEndpoint,
		LoginURL:    input.LoginURL,
		IsActive:    input.IsActive,
		Fields:      buildFieldInputs(input.Fields),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.CreatedMessage(writer, "Platform created successfully", platform)
}

// updatePlatformRequest defines the mutable platform fields. A non-nil
// fields array replaces the entire schema.
type updatePlatformRequest struct {
	Name        *string        `json:"name"`
	DisplayName *string        `json:"display_name"`
	Description *string        `json:"description"`
	Icon        *string        `json:"icon"`
	APIEndpoint *string        `json:"api_endpoint"`
	LoginURL    *string        `json:"login_url"`
	IsActive    *bool          `json:"is_active"`
	Fields      []fieldRequest `json:"fields"`
}

/*
PUT /api/v1/platforms/admin/{id}.

Description: Applies partial updates to a platform. When the payload
includes a fields array the whole schema is replaced with it.

Request:
  - id: int
  - body: updatePlatformRequest (Partial JSON)

Response:
  - 200: Platform: The updated platform
  - 400: Validation: Invalid input
  - 404: NotFound: Unknown platform
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	id, err := platformID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePlatformRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	if input.DisplayName != nil {
		v.Required("display_name", *input.DisplayName).MaxLen("display_name", *input.DisplayName, 100)
	}
	if input.Name != nil {
		v.Required("name", *input.Name).MaxLen("name", *input.Name, 100)
	}
	if input.Fields != nil {
		validateFields(v, input.Fields)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	serviceInput := UpdateInput{
		Name:        input.Name,
		DisplayName: input.DisplayName,
		Description: input.Description,
		Icon:        input.Icon,
		APIEndpoint: input.APIEndpoint,
		LoginURL:    input.LoginURL,
		IsActive:    input.IsActive,
	}
	if input.Fields != nil {
		serviceInput.Fields = buildFieldInputs(input.Fields)
	}

	platform, err := handler.platformService.Update(request.Context(), id, serviceInput)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Platform updated successfully", platform)
}

/*
DELETE /api/v1/platforms/admin/{id}.

Description: Removes a platform and its field schema. Refused while any
blog account is still connected through it.

Request:
  - id: int

Response:
  - 200: Message: Platform deleted successfully
  - 400: Validation: Blog accounts are still connected
  - 404: NotFound: Unknown platform
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id, err := platformID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.platformService.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Platform deleted successfully", nil)
}

/*
PATCH /api/v1/platforms/admin/{id}/status.

Description: Toggles the platform's activation flag.

Request:
  - id: int

Response:
  - 200: Platform: The platform in its new state
  - 404: NotFound: Unknown platform
*/
func (handler *Handler) toggleStatus(writer http.ResponseWriter, request *http.Request) {
	id, err := platformID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	platform, err := handler.platformService.ToggleStatus(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	message := "Platform deactivated successfully"
	if platform.IsActive {
		message = "Platform activated successfully"
	}

	respond.OKMessage(writer, message, platform)
}
