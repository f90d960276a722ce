// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package blogaccounts manages blog accounts connected through the platform
catalog.

Unlike the legacy accounts package, which hard-codes its platform set and
a fixed credential blob, a BlogAccount is linked to a catalog Platform and
stores one value per PlatformField of that platform's connection form.
Values for fields the schema marks as encrypted are ciphertext at rest.

# Architecture

  - Entities: BlogAccount (the connection), FieldValue (one submitted
    form value, unique per account and schema field).
  - Encryption: per-field, driven by the schema's is_encrypted flag;
    plaintext only ever exists inside the service layer, and only for
    the owner.
  - Consistency: an account and its field values are written inside one
    transaction; a connection without its credentials is never visible.
*/
package blogaccounts

import (
	"context"
	"time"

	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/internal/platforms"
)

// # Domain Entities

// Sync lifecycle states for a connected account.
const (
	SyncStatusPending = "pending"
	SyncStatusSyncing = "syncing"
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// BlogAccount is a user's connection to a catalog platform.
type BlogAccount struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"user_id"`
	PlatformID  int64   `json:"platform_id"`
	AccountName *string `json:"account_name"`
	IsActive    bool    `json:"is_active"`

	SyncStatus       string     `json:"sync_status"`
	SyncErrorMessage *string    `json:"sync_error_message"`
	LastSyncedAt     *time.Time `json:"last_synced_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Platform is the catalog entry this account connects through.
	Platform *platforms.Platform `json:"platform,omitempty"`

	// FieldData holds the submitted connection form values.
	FieldData []FieldValue `json:"field_data,omitempty"`

	// ownerReferredBy carries the owner's referrer for policy checks.
	// Populated by the store's join, never serialized.
	ownerReferredBy *string
}

// ResourceOwner builds the ownership facts the authorization policy needs.
func (a *BlogAccount) ResourceOwner() sec.ResourceOwner {
	owner := sec.ResourceOwner{OwnerID: a.UserID}
	if a.ownerReferredBy != nil {
		owner.OwnerReferredBy = *a.ownerReferredBy
	}
	return owner
}

// FieldValue is one submitted value for a platform schema field.
//
// When IsEncrypted is set the stored Value is ciphertext; the service
// decrypts it for the owner and withholds it from everyone else.
type FieldValue struct {
	ID              int64   `json:"id"`
	BlogAccountID   int64   `json:"blog_account_id"`
	PlatformFieldID int64   `json:"platform_field_id"`
	Value           *string `json:"field_value"`
	IsEncrypted     bool    `json:"is_encrypted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Field is the schema row this value answers.
	Field *platforms.PlatformField `json:"field,omitempty"`
}

// # Repository Contracts

// BlogAccountRepository defines the persistence contract for connected
// blog accounts and their field values.
type BlogAccountRepository interface {
	/*
		Create persists an account and its field values in one transaction.

		Description: Assigns the generated IDs back onto the entity and
		the value rows.

		Parameters:
		  - context: context.Context
		  - account: *BlogAccount
		  - values: []FieldValue

		Returns:
		  - error: apperr.ValidationError on a broken schema reference, or
		    storage failures
	*/
	Create(context context.Context, account *BlogAccount, values []FieldValue) error

	/*
		FindByID retrieves an account with its platform, schema, field
		values, and the owner facts the policy needs.

		Returns:
		  - *BlogAccount: The hydrated account
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*BlogAccount, error)

	/*
		ListByUser returns the user's accounts, newest first, hydrated
		with platforms, schemas, and field values.
	*/
	ListByUser(context context.Context, userID string) ([]BlogAccount, error)

	/*
		Update persists the account row and upserts the given field
		values in the same transaction.
	*/
	Update(context context.Context, account *BlogAccount, upserts []FieldValue) error

	/*
		Delete removes an account. Field values cascade.
	*/
	Delete(context context.Context, id int64) error
}
