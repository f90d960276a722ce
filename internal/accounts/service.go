// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package accounts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/pkg/pagination"
	"github.com/blognest/blognest/pkg/uuidv7"
)

// # Service Dependencies

// CredentialCipher defines the at-rest encryption contract for stored
// login credentials.
type CredentialCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

// # Service Layer

// Service orchestrates business logic for blog accounts: role-scoped
// visibility, URL uniqueness, credential encryption, and the sync stub.
type Service struct {
	accountRepository AccountRepository
	cipher            CredentialCipher
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(accountRepo AccountRepository, cipher CredentialCipher, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: accountRepo,
		cipher:            cipher,
		logger:            logger,
	}
}

// Actor identifies the caller for authorization decisions.
type Actor struct {
	ID   string
	Role sec.Role
}

// # Listing & Retrieval

// ListQuery carries the caller-controlled listing options.
type ListQuery struct {
	Platform string
	Sort     string
	Page     pagination.Params
}

/*
List returns the accounts visible to the actor, filtered and sorted.

Description: Admins see every account, moderators see their own plus those
of users they referred, users see only their own. Owner summaries are
stripped for plain users, who only ever see their own rows.

Parameters:
  - context: context.Context
  - actor: Actor
  - query: ListQuery

Returns:
  - []Account: The visible page
  - pagination.Meta: Page metadata
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context, actor Actor, query ListQuery) ([]Account, pagination.Meta, error) {
	accounts, total, err := service.accountRepository.List(context, ListFilter{
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Platform:  query.Platform,
		Sort:      query.Sort,
		Page:      query.Page,
	})
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_list_failed: %w", err)
	}

	// Plain users get no owner block: every row is their own.
	if actor.Role == sec.RoleUser {
		for i := range accounts {
			accounts[i].Owner = nil
		}
	}

	return accounts, pagination.NewMeta(query.Page.Page, query.Page.Limit, total), nil
}

/*
Get retrieves a single account after an authorization check.

Description: The owner additionally receives their stored login credentials
decrypted into the transient Credentials field.

Parameters:
  - context: context.Context
  - actor: Actor
  - accountID: string

Returns:
  - *Account: The account
  - error: apperr.Forbidden, apperr.NotFound, or storage failures
*/
func (service *Service) Get(context context.Context, actor Actor, accountID string) (*Account, error) {
	account, err := service.accountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_failed: %w", err)
	}

	if !sec.CanAccess(actor.ID, actor.Role, account.ResourceOwner()) {
		return nil, apperr.Forbidden("Not authorized to access this account")
	}

	if actor.Role == sec.RoleUser {
		account.Owner = nil
	}

	// Decrypt stored credentials for the owner only.
	if account.UserID == actor.ID && account.CredentialsEncrypted != nil {
		plaintext, err := service.cipher.Decrypt(*account.CredentialsEncrypted)
		if err != nil {
			return nil, fmt.Errorf("account_service_decrypt_failed: %w", err)
		}
		account.Credentials = &plaintext
	}

	return account, nil
}

// # Mutations

// CreateInput defines the fields accepted when connecting an account.
type CreateInput struct {
	Name        string
	Platform    string
	URL         string
	APIKey      *string
	Credentials *string
}

/*
Create connects a new blog account for the actor.

Description: The blog URL must be globally unique: a duplicate is rejected
as a validation failure regardless of who owns the clashing account.
Optional login credentials are encrypted before they reach storage.

Parameters:
  - context: context.Context
  - actorID: string
  - input: CreateInput

Returns:
  - *Account: The created account
  - error: Validation, conflict, or storage failures
*/
func (service *Service) Create(context context.Context, actorID string, input CreateInput) (*Account, error) {
	taken, err := service.accountRepository.ExistsByURL(context, input.URL)
	if err != nil {
		return nil, fmt.Errorf("account_service_url_check_failed: %w", err)
	}
	if taken {
		return nil, apperr.ValidationError("An account with this URL already exists")
	}

	account := &Account{
		ID:       uuidv7.New(),
		UserID:   actorID,
		Name:     input.Name,
		Platform: input.Platform,
		URL:      input.URL,
		APIKey:   input.APIKey,
		IsActive: true,
	}

	if input.Credentials != nil && *input.Credentials != "" {
		ciphertext, err := service.cipher.Encrypt(*input.Credentials)
		if err != nil {
			return nil, fmt.Errorf("account_service_encrypt_failed: %w", err)
		}
		account.CredentialsEncrypted = &ciphertext
	}

	if err := service.accountRepository.Create(context, account); err != nil {
		return nil, fmt.Errorf("account_service_create_failed: %w", err)
	}

	service.logger.Info("account_created",
		slog.String("account_id", account.ID),
		slog.String("user_id", actorID),
		slog.String("platform", account.Platform),
	)

	return account, nil
}

// UpdateInput defines the mutable account fields.
type UpdateInput struct {
	Name        *string
	URL         *string
	APIKey      *string
	Credentials *string
	IsActive    *bool
}

/*
Update applies partial changes to an account after an authorization check.

Parameters:
  - context: context.Context
  - actor: Actor
  - accountID: string
  - input: UpdateInput

Returns:
  - *Account: The updated account
  - error: apperr.Forbidden, conflict on a taken URL, or storage failures
*/
func (service *Service) Update(context context.Context, actor Actor, accountID string, input UpdateInput) (*Account, error) {
	account, err := service.accountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	if !sec.CanAccess(actor.ID, actor.Role, account.ResourceOwner()) {
		return nil, apperr.Forbidden("Not authorized to update this account")
	}

	// Apply delta updates
	if input.Name != nil {
		account.Name = *input.Name
	}
	if input.URL != nil {
		account.URL = *input.URL
	}
	if input.APIKey != nil {
		account.APIKey = input.APIKey
	}
	if input.IsActive != nil {
		account.IsActive = *input.IsActive
	}
	if input.Credentials != nil {
		if *input.Credentials == "" {
			account.CredentialsEncrypted = nil
		} else {
			ciphertext, err := service.cipher.Encrypt(*input.Credentials)
			if err != nil {
				return nil, fmt.Errorf("account_service_encrypt_failed: %w", err)
			}
			account.CredentialsEncrypted = &ciphertext
		}
	}

	if err := service.accountRepository.Update(context, account); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("account_updated", slog.String("account_id", accountID))

	if actor.Role == sec.RoleUser {
		account.Owner = nil
	}

	return account, nil
}

/*
Delete removes an account after an authorization check.

Parameters:
  - context: context.Context
  - actor: Actor
  - accountID: string

Returns:
  - error: apperr.Forbidden, apperr.NotFound, or storage failures
*/
func (service *Service) Delete(context context.Context, actor Actor, accountID string) error {
	account, err := service.accountRepository.FindByID(context, accountID)
	if err != nil {
		return fmt.Errorf("account_service_delete_lookup_failed: %w", err)
	}

	if !sec.CanAccess(actor.ID, actor.Role, account.ResourceOwner()) {
		return apperr.Forbidden("Not authorized to delete this account")
	}

	if err := service.accountRepository.Delete(context, accountID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	service.logger.Info("account_deleted", slog.String("account_id", accountID))

	return nil
}

/*
Sync refreshes an account's platform data.

Description: Real platform API integrations are not connected yet, so this
only stamps last_synced. The route exists so clients can already build
against the final contract.

Parameters:
  - context: context.Context
  - actor: Actor
  - accountID: string

Returns:
  - *Account: The account with the refreshed timestamp
  - error: apperr.Forbidden, apperr.NotFound, or storage failures
*/
func (service *Service) Sync(context context.Context, actor Actor, accountID string) (*Account, error) {
	account, err := service.accountRepository.FindByID(context, accountID)
	if err != nil {
		return nil, fmt.Errorf("account_service_sync_lookup_failed: %w", err)
	}

	if !sec.CanAccess(actor.ID, actor.Role, account.ResourceOwner()) {
		return nil, apperr.Forbidden("Not authorized to sync this account")
	}

	now := time.Now()
	account.LastSynced = &now

	if err := service.accountRepository.Update(context, account); err != nil {
		return nil, fmt.Errorf("account_service_sync_failed: %w", err)
	}

	service.logger.Info("account_synced", slog.String("account_id", accountID))

	if actor.Role == sec.RoleUser {
		account.Owner = nil
	}

	return account, nil
}
