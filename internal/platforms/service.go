// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/pkg/slug"
)

// # Service Layer

// Service orchestrates catalog business logic: the cached public listing,
// admin curation, and the linked-account deletion guard.
type Service struct {
	platformRepository PlatformRepository
	cache              CatalogCache
	logger             *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(platformRepo PlatformRepository, cache CatalogCache, logger *slog.Logger) *Service {
	return &Service{
		platformRepository: platformRepo,
		cache:              cache,
		logger:             logger,
	}
}

// # Public Catalog

/*
ListActive returns the active platforms with their connection forms.

Description: Served from the Redis cache when warm. On a miss the listing
is loaded from Postgres and written back with the catalog TTL. Cache
write failures are logged but never surface: the database answer is
already in hand.

Parameters:
  - context: context.Context

Returns:
  - []Platform: Active platforms, fields ordered for rendering
  - error: Retrieval failures
*/
func (service *Service) ListActive(context context.Context) ([]Platform, error) {
	cached, err := service.cache.GetActive(context)
	if err == nil {
		return cached, nil
	}
	if !apperr.IsNotFound(err) {
		// Redis being down must not take the catalog with it.
		service.logger.Warn("platform_cache_read_failed", slog.Any("error", err))
	}

	platforms, err := service.platformRepository.ListActive(context)
	if err != nil {
		return nil, fmt.Errorf("platform_service_list_active_failed: %w", err)
	}

	if err := service.cache.SetActive(context, platforms); err != nil {
		service.logger.Warn("platform_cache_write_failed", slog.Any("error", err))
	}

	return platforms, nil
}

/*
Get retrieves one platform with its field schema.

Parameters:
  - context: context.Context
  - platformID: int64

Returns:
  - *Platform: The platform
  - error: apperr.NotFound or storage failures
*/
func (service *Service) Get(context context.Context, platformID int64) (*Platform, error) {
	platform, err := service.platformRepository.FindByID(context, platformID)
	if err != nil {
		return nil, fmt.Errorf("platform_service_get_failed: %w", err)
	}

	return platform, nil
}

// # Admin Curation

/*
ListAll returns every platform with linked-account counts.

Parameters:
  - context: context.Context

Returns:
  - []Platform: All platforms, including inactive ones
  - error: Retrieval failures
*/
func (service *Service) ListAll(context context.Context) ([]Platform, error) {
	platforms, err := service.platformRepository.ListAll(context)
	if err != nil {
		return nil, fmt.Errorf("platform_service_list_all_failed: %w", err)
	}

	return platforms, nil
}

// FieldInput defines one field schema row as submitted by an admin.
type FieldInput struct {
	FieldName    string
	FieldLabel   string
	FieldType    string
	Placeholder  *string
	HelpText     *string
	IsRequired   bool
	IsEncrypted  bool
	DisplayOrder int
	Validation   json.RawMessage
	Options      json.RawMessage
}

// CreateInput defines the fields accepted when registering a platform.
type CreateInput struct {
	// Name is the unique machine name. Derived from DisplayName when empty.
	Name        string
	DisplayName string
	Description *string
	Icon        *string
	APIEndpoint *string
	LoginURL    *string
	IsActive    *bool
	Fields      []FieldInput
}

/*
Create registers a new platform together with its field schema.

Description: The machine name defaults to a slug of the display name.
New platforms are active unless the input says otherwise. The public
catalog cache is invalidated.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *Platform: The created platform with generated IDs
  - error: apperr.Conflict on a duplicate name, or storage failures
*/
func (service *Service) Create(context context.Context, input CreateInput) (*Platform, error) {
	name := input.Name
	if name == "" {
		name = slug.From(input.DisplayName)
	}

	platform := &Platform{
		Name:        name,
		DisplayName: input.DisplayName,
		Description: input.Description,
		Icon:        input.Icon,
		APIEndpoint: input.APIEndpoint,
		LoginURL:    input.LoginURL,
		IsActive:    true,
		Fields:      buildFields(input.Fields),
	}
	if input.IsActive != nil {
		platform.IsActive = *input.IsActive
	}

	if err := service.platformRepository.Create(context, platform); err != nil {
		return nil, fmt.Errorf("platform_service_create_failed: %w", err)
	}

	service.invalidateCatalog(context)

	service.logger.Info("platform_created",
		slog.Int64("platform_id", platform.ID),
		slog.String("name", platform.Name),
		slog.Int("field_count", len(platform.Fields)),
	)

	return platform, nil
}

// UpdateInput defines the mutable platform fields. A non-nil Fields slice
// replaces the entire field schema.
type UpdateInput struct {
	Name        *string
	DisplayName *string
	Description *string
	Icon        *string
	APIEndpoint *string
	LoginURL    *string
	IsActive    *bool
	Fields      []FieldInput
}

/*
Update applies partial changes to a platform and optionally replaces its
field schema.

Description: When Fields is non-nil the existing schema rows are dropped
and the submitted set is written in their place, atomically. The public
catalog cache is invalidated.

Parameters:
  - context: context.Context
  - platformID: int64
  - input: UpdateInput

Returns:
  - *Platform: The updated platform with its current schema
  - error: apperr.NotFound, apperr.Conflict, or storage failures
*/
func (service *Service) Update(context context.Context, platformID int64, input UpdateInput) (*Platform, error) {
	platform, err := service.platformRepository.FindByID(context, platformID)
	if err != nil {
		return nil, fmt.Errorf("platform_service_update_lookup_failed: %w", err)
	}

	// Apply delta updates
	if input.Name != nil {
		platform.Name = *input.Name
	}
	if input.DisplayName != nil {
		platform.DisplayName = *input.DisplayName
	}
	if input.Description != nil {
		platform.Description = input.Description
	}
	if input.Icon != nil {
		platform.Icon = input.Icon
	}
	if input.APIEndpoint != nil {
		platform.APIEndpoint = input.APIEndpoint
	}
	if input.LoginURL != nil {
		platform.LoginURL = input.LoginURL
	}
	if input.IsActive != nil {
		platform.IsActive = *input.IsActive
	}

	replaceFields := input.Fields != nil
	if replaceFields {
		platform.Fields = buildFields(input.Fields)
	}

	if err := service.platformRepository.Update(context, platform, replaceFields); err != nil {
		return nil, fmt.Errorf("platform_service_update_failed: %w", err)
	}

	service.invalidateCatalog(context)

	service.logger.Info("platform_updated",
		slog.Int64("platform_id", platformID),
		slog.Bool("fields_replaced", replaceFields),
	)

	return platform, nil
}

/*
ToggleStatus flips a platform's activation flag.

Parameters:
  - context: context.Context
  - platformID: int64

Returns:
  - *Platform: The platform in its new state
  - error: apperr.NotFound or storage failures
*/
func (service *Service) ToggleStatus(context context.Context, platformID int64) (*Platform, error) {
	platform, err := service.platformRepository.FindByID(context, platformID)
	if err != nil {
		return nil, fmt.Errorf("platform_service_status_lookup_failed: %w", err)
	}

	toggled, err := service.platformRepository.SetActive(context, platformID, !platform.IsActive)
	if err != nil {
		return nil, fmt.Errorf("platform_service_status_failed: %w", err)
	}

	service.invalidateCatalog(context)

	service.logger.Info("platform_status_toggled",
		slog.Int64("platform_id", platformID),
		slog.Bool("is_active", toggled.IsActive),
	)

	return toggled, nil
}

/*
Delete removes a platform unless blog accounts still reference it.

Description: Deletion is refused with a validation failure naming the
number of linked accounts; the admin must migrate or remove them first.
The field schema cascades with the platform.

Parameters:
  - context: context.Context
  - platformID: int64

Returns:
  - error: apperr.ValidationError when accounts are linked,
    apperr.NotFound, or storage failures
*/
func (service *Service) Delete(context context.Context, platformID int64) error {
	linked, err := service.platformRepository.CountLinkedAccounts(context, platformID)
	if err != nil {
		return fmt.Errorf("platform_service_delete_count_failed: %w", err)
	}
	if linked > 0 {
		return apperr.ValidationError(fmt.Sprintf("Cannot delete platform: %d blog account(s) are connected to it", linked))
	}

	if err := service.platformRepository.Delete(context, platformID); err != nil {
		return fmt.Errorf("platform_service_delete_failed: %w", err)
	}

	service.invalidateCatalog(context)

	service.logger.Info("platform_deleted", slog.Int64("platform_id", platformID))

	return nil
}

// # Internal Helpers

// buildFields converts admin field inputs into schema entities, preserving
// submission order as the default display order.
func buildFields(inputs []FieldInput) []PlatformField {
	fields := make([]PlatformField, len(inputs))
	for i, input := range inputs {
		order := input.DisplayOrder
		if order == 0 {
			order = i
		}
		fields[i] = PlatformField{
			FieldName:    input.FieldName,
			FieldLabel:   input.FieldLabel,
			FieldType:    input.FieldType,
			Placeholder:  input.Placeholder,
			HelpText:     input.HelpText,
			IsRequired:   input.IsRequired,
			IsEncrypted:  input.IsEncrypted,
			DisplayOrder: order,
			Validation:   input.Validation,
			Options:      input.Options,
		}
	}
	return fields
}

// invalidateCatalog drops the cached public listing. A failed invalidation
// is logged only: the TTL bounds how stale the cache can get.
func (service *Service) invalidateCatalog(context context.Context) {
	if err := service.cache.Invalidate(context); err != nil {
		service.logger.Warn("platform_cache_invalidate_failed", slog.Any("error", err))
	}
}
