// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package blogaccounts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/internal/platforms"
)

// # Service Dependencies

// PlatformCatalog is the slice of the catalog the service needs: schema
// lookups when accounts are created or their values updated.
type PlatformCatalog interface {
	FindByID(context context.Context, id int64) (*platforms.Platform, error)
}

// FieldCipher defines the at-rest encryption contract for field values
// whose schema marks them encrypted.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

// # Service Layer

// Service orchestrates business logic for connected blog accounts:
// schema-driven field handling, per-field encryption, ownership policy,
// and the sync stub.
type Service struct {
	blogAccountRepository BlogAccountRepository
	catalog               PlatformCatalog
	cipher                FieldCipher
	logger                *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(blogAccountRepo BlogAccountRepository, catalog PlatformCatalog, cipher FieldCipher, logger *slog.Logger) *Service {
	return &Service{
		blogAccountRepository: blogAccountRepo,
		catalog:               catalog,
		cipher:                cipher,
		logger:                logger,
	}
}

// Actor identifies the caller for authorization decisions.
type Actor struct {
	ID   string
	Role sec.Role
}

// # Listing & Retrieval

/*
ListMine returns the caller's connected accounts, newest first.

Description: Accounts come back hydrated with their platform, schema, and
stored values; encrypted values are decrypted because the caller owns
every row.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []BlogAccount: The caller's connections
  - error: Retrieval failures
*/
func (service *Service) ListMine(context context.Context, userID string) ([]BlogAccount, error) {
	accounts, err := service.blogAccountRepository.ListByUser(context, userID)
	if err != nil {
		return nil, fmt.Errorf("blog_account_service_list_failed: %w", err)
	}

	for i := range accounts {
		service.revealValues(&accounts[i], true)
	}

	return accounts, nil
}

/*
Get retrieves a single connected account after an authorization check.

Description: Encrypted values are decrypted for the owner only; other
authorized readers (moderators over their referrals, admins) see those
values withheld.

Parameters:
  - context: context.Context
  - actor: Actor
  - accountID: int64

Returns:
  - *BlogAccount: The hydrated account
  - error: apperr.Forbidden, apperr.NotFound, or storage failures
*/
func (service *Service) Get(context context.Context, actor Actor, accountID int64) (*BlogAccount, error) {
	account, err := service.blogAccountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, fmt.Errorf("blog_account_service_get_failed: %w", err)
	}

	if !sec.CanAccess(actor.ID, actor.Role, account.ResourceOwner()) {
		return nil, apperr.Forbidden("Not authorized to access this blog account")
	}

	service.revealValues(account, account.UserID == actor.ID)

	return account, nil
}

// # Mutations

// CreateInput defines the fields accepted when connecting an account.
// Fields maps schema field names to submitted values.
type CreateInput struct {
	PlatformID  int64
	AccountName *string
	Fields      map[string]string
}

/*
Create connects a new blog account through a catalog platform.

Description: The platform must exist and be active. Submitted values are
matched against the platform's field schema; values for unknown field
names are dropped, and values for encrypted fields are encrypted before
the transactional write of the account plus its field data.

Parameters:
  - context: context.Context
  - actorID: string
  - input: CreateInput

Returns:
  - *BlogAccount: The created account, hydrated and decrypted
  - error: apperr.NotFound for an unknown platform, apperr.ValidationError
    for an inactive one, or storage failures
*/
func (service *Service) Create(context context.Context, actorID string, input CreateInput) (*BlogAccount, error) {
	platform, err := service.catalog.FindByID(context, input.PlatformID)
	if err != nil {
		return nil, fmt.Errorf("blog_account_service_platform_lookup_failed: %w", err)
	}
	if !platform.IsActive {
		return nil, apperr.ValidationError("Platform is not active")
	}

	values, err := service.buildValues(platform.Fields, input.Fields)
	if err != nil {
		return nil, err
	}

	account := &BlogAccount{
		UserID:      actorID,
		PlatformID:  platform.ID,
		AccountName: input.AccountName,
		IsActive:    true,
		SyncStatus:  SyncStatusPending,
	}

	if err := service.blogAccountRepository.Create(context, account, values); err != nil {
		return nil, fmt.Errorf("blog_account_service_create_failed: %w", err)
	}

	service.logger.Info("blog_account_created",
		slog.Int64("blog_account_id", account.ID),
		slog.String("user_id", actorID),
		slog.String("platform", platform.Name),
		slog.Int("field_count", len(values)),
	)

	// Reread for the response: the insert path carries no schema rows.
	created, err := service.blogAccountRepository.FindByID(context, account.ID)
	if err != nil {
		return nil, fmt.Errorf("blog_account_service_reload_failed: %w", err)
	}
	service.revealValues(created, true)

	return created, nil
}

// UpdateInput defines the mutable connection fields. Fields maps schema
// field names to replacement values.
type UpdateInput struct {
	AccountName *string
	IsActive    *bool
	Fields      map[string]string
}

/*
Update applies partial changes and upserts submitted field values.

Description: Values are matched against the schema the same way Create
does; existing rows for the same schema field are overwritten, others are
left alone. Account row and value rows change in one transaction.

Parameters:
  - context: context.Context
  - actor: Actor
  - accountID: int64
  - input: UpdateInput

Returns:
  - *BlogAccount: The updated account, hydrated
  - error: apperr.Forbidden, apperr.NotFound, or storage failures
*/
func (service *Service) Update(context context.Context, actor Actor, accountID int64, input UpdateInput) (*BlogAccount, error) {
	account, err := service.blogAccountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, fmt.Errorf("blog_account_service_update_lookup_failed: %w", err)
	}

	if !sec.CanAccess(actor.ID, actor.Role, account.ResourceOwner()) {
		return nil, apperr.Forbidden("Not authorized to update this blog account")
	}

	// Apply delta updates
	if input.AccountName != nil {
		account.AccountName = input.AccountName
	}
	if input.IsActive != nil {
		account.IsActive = *input.IsActive
	}

	var schema []platforms.PlatformField
	if account.Platform != nil {
		schema = account.Platform.Fields
	}
	upserts, err := service.buildValues(schema, input.Fields)
	if err != nil {
		return nil, err
	}

	if err := service.blogAccountRepository.Update(context, account, upserts); err != nil {
		return nil, fmt.Errorf("blog_account_service_update_failed: %w", err)
	}

	service.logger.Info("blog_account_updated",
		slog.Int64("blog_account_id", accountID),
		slog.Int("field_count", len(upserts)),
	)

	updated, err := service.blogAccountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, fmt.Errorf("blog_account_service_reload_failed: %w", err)
	}
	service.revealValues(updated, updated.UserID == actor.ID)

	return updated, nil
}

/*
Delete disconnects an account after an authorization check. Stored field
values cascade with it.

Parameters:
  - context: context.Context
  - actor: Actor
  - accountID: int64

Returns:
  - error: apperr.Forbidden, apperr.NotFound, or storage failures
*/
func (service *Service) Delete(context context.Context, actor Actor, accountID int64) error {
	account, err := service.blogAccountRepository.FindByID(context, accountID)
	if err != nil {
		return fmt.Errorf("blog_account_service_delete_lookup_failed: %w", err)
	}

	if !sec.CanAccess(actor.ID, actor.Role, account.ResourceOwner()) {
		return apperr.Forbidden("Not authorized to delete this blog account")
	}

	if err := service.blogAccountRepository.Delete(context, accountID); err != nil {
		return fmt.Errorf("blog_account_service_delete_failed: %w", err)
	}

	service.logger.Info("blog_account_deleted", slog.Int64("blog_account_id", accountID))

	return nil
}

/*
Sync refreshes an account's platform data.

Description: Real platform API integrations are not connected yet, so
this only marks the sync successful and stamps last_synced_at. The route
exists so clients can already build against the final contract.

Parameters:
  - context: context.Context
  - actor: Actor
  - accountID: int64

Returns:
  - *BlogAccount: The account with the refreshed sync state
  - error: apperr.Forbidden, apperr.NotFound, or storage failures
*/
func (service *Service) Sync(context context.Context, actor Actor, accountID int64) (*BlogAccount, error) {
	account, err := service.blogAccountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, fmt.Errorf("blog_account_service_sync_lookup_failed: %w", err)
	}

	if !sec.CanAccess(actor.ID, actor.Role, account.ResourceOwner()) {
		return nil, apperr.Forbidden("Not authorized to sync this blog account")
	}

	now := time.Now()
	account.SyncStatus = SyncStatusSuccess
	account.SyncErrorMessage = nil
	account.LastSyncedAt = &now

	if err := service.blogAccountRepository.Update(context, account, nil); err != nil {
		return nil, fmt.Errorf("blog_account_service_sync_failed: %w", err)
	}

	service.logger.Info("blog_account_synced", slog.Int64("blog_account_id", accountID))

	service.revealValues(account, account.UserID == actor.ID)

	return account, nil
}

// # Internal Helpers

// buildValues matches submitted values against the platform schema and
// encrypts the ones the schema marks encrypted. Unknown field names are
// dropped, mirroring how the connection form treats stray inputs.
func (service *Service) buildValues(schema []platforms.PlatformField, submitted map[string]string) ([]FieldValue, error) {
	if len(submitted) == 0 {
		return nil, nil
	}

	values := make([]FieldValue, 0, len(submitted))
	// Iterate the schema, not the map, for deterministic value order.
	for i := range schema {
		field := &schema[i]
		raw, ok := submitted[field.FieldName]
		if !ok {
			continue
		}

		stored := raw
		if field.IsEncrypted && raw != "" {
			ciphertext, err := service.cipher.Encrypt(raw)
			if err != nil {
				return nil, fmt.Errorf("blog_account_service_encrypt_failed: %w", err)
			}
			stored = ciphertext
		}

		values = append(values, FieldValue{
			PlatformFieldID: field.ID,
			Value:           &stored,
			IsEncrypted:     field.IsEncrypted,
		})
	}

	return values, nil
}

// revealValues decrypts encrypted field values for the owner and
// withholds them from everyone else. Ciphertext never leaves the service.
func (service *Service) revealValues(account *BlogAccount, isOwner bool) {
	for i := range account.FieldData {
		data := &account.FieldData[i]
		if !data.IsEncrypted || data.Value == nil {
			continue
		}

		if !isOwner {
			data.Value = nil
			continue
		}

		plaintext, err := service.cipher.Decrypt(*data.Value)
		if err != nil {
			service.logger.Warn("blog_account_decrypt_failed",
				slog.Int64("blog_account_id", account.ID),
				slog.Int64("platform_field_id", data.PlatformFieldID),
				slog.Any("error", err),
			)
			data.Value = nil
			continue
		}
		data.Value = &plaintext
	}
}
