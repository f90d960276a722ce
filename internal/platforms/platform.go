// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package platforms manages the blog-platform catalog and its credential
field schemas.

A Platform describes one supported blogging service; its PlatformFields
describe the connection form a user must fill in to link a blog account
(which inputs exist, their rendering hints, and whether the stored value
is encrypted at rest). The catalog is admin-curated and read-heavy, so
the public listing is served from a Redis cache.

# Architecture

  - Entities: Platform (catalog entry), PlatformField (form schema row).
  - Identity: catalog rows use sequential integer IDs, unlike the UUID
    identities elsewhere, because platforms are a small admin-managed
    reference table.
  - Caching: the active-platform listing is cached under a single key and
    invalidated on every admin mutation.
*/
package platforms

import (
	"context"
	"encoding/json"
	"time"
)

// # Domain Entities

// validFieldTypes is the closed set of renderable field input types.
var validFieldTypes = []string{"text", "password", "email", "url", "number", "textarea", "select"}

// Platform is one supported blogging service in the catalog.
type Platform struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	IsActive    bool    `json:"is_active"`
	APIEndpoint *string `json:"api_endpoint"`
	LoginURL    *string `json:"login_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Fields is the connection form schema, ordered by DisplayOrder.
	Fields []PlatformField `json:"fields,omitempty"`

	// AccountCount is the number of linked blog accounts. Populated only
	// for the admin listing.
	AccountCount *int `json:"account_count,omitempty"`
}

// PlatformField is one input in a platform's connection form.
//
// IsEncrypted marks fields whose submitted values must be encrypted at
// rest (passwords, API secrets). Validation and Options carry free-form
// JSON consumed by clients: validation rules and select choices.
type PlatformField struct {
	ID         int64  `json:"id"`
	PlatformID int64  `json:"platform_id"`
	FieldName  string `json:"field_name"`
	FieldLabel string `json:"field_label"`
	FieldType  string `json:"field_type"`

	Placeholder *string `json:"placeholder"`
	HelpText    *string `json:"help_text"`

	IsRequired   bool `json:"is_required"`
	IsEncrypted  bool `json:"is_encrypted"`
	DisplayOrder int  `json:"display_order"`

	Validation json.RawMessage `json:"validation,omitempty"`
	Options    json.RawMessage `json:"options,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Repository Contracts

// PlatformRepository defines the persistence contract for the catalog.
type PlatformRepository interface {
	/*
		ListActive returns active platforms with their field schemas.

		Description: Platforms are ordered by display name, fields by
		display order. This is the cacheable public view.

		Returns:
		  - []Platform: Active platforms with Fields populated
		  - error: storage failures
	*/
	ListActive(context context.Context) ([]Platform, error)

	/*
		FindByID retrieves one platform with its field schema.

		Returns:
		  - *Platform: The platform with Fields populated
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*Platform, error)

	/*
		ListAll returns every platform (active or not) with fields and
		linked-account counts for the admin console.
	*/
	ListAll(context context.Context) ([]Platform, error)

	/*
		Create inserts a platform and its fields in one transaction.

		Description: Assigns the generated IDs back onto the entity and
		its fields.

		Returns:
		  - error: apperr.Conflict on a duplicate name, or storage failures
	*/
	Create(context context.Context, platform *Platform) error

	/*
		Update persists the platform row and, when replaceFields is set,
		replaces the entire field set with platform.Fields in the same
		transaction.
	*/
	Update(context context.Context, platform *Platform, replaceFields bool) error

	/*
		SetActive flips the activation flag and returns the new state.

		Returns:
		  - *Platform: The toggled platform (without Fields)
		  - error: apperr.NotFound or storage failures
	*/
	SetActive(context context.Context, id int64, active bool) (*Platform, error)

	/*
		CountLinkedAccounts reports how many blog accounts reference the
		platform. Deletion is refused while this is non-zero.
	*/
	CountLinkedAccounts(context context.Context, id int64) (int, error)

	/*
		Delete removes a platform. Field rows cascade.
	*/
	Delete(context context.Context, id int64) error
}

// CatalogCache defines the cache contract for the public active listing.
type CatalogCache interface {
	/*
		GetActive returns the cached active-platform listing.

		Returns:
		  - []Platform: The cached catalog
		  - error: apperr.NotFound on a cache miss, or connectivity errors
	*/
	GetActive(context context.Context) ([]Platform, error)

	/*
		SetActive stores the active-platform listing with the catalog TTL.
	*/
	SetActive(context context.Context, platforms []Platform) error

	/*
		Invalidate drops the cached listing after an admin mutation.
	*/
	Invalidate(context context.Context) error
}
