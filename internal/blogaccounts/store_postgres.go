// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package blogaccounts (Postgres) implements the storage layer for connected
blog accounts.

# Schema Table Mapping
  - blog_accounts: The connections, keyed by sequential integer IDs.
  - account_field_data: One row per submitted form value, unique per
    (blog_account_id, platform_field_id).
  - platforms, platform_fields: Joined for hydration.
  - users: Joined on detail reads for referral-based policy facts.

# Transactions

Create and Update write the account row and its field values inside one
pgx transaction so a connection never appears without its credentials.
*/
package blogaccounts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blognest/blognest/internal/platform/dberr"
	"github.com/blognest/blognest/internal/platforms"
)

// blogAccountColumns is the SELECT list for blog_accounts rows joined
// with their platform, in the exact order scanBlogAccountRow reads them.
const blogAccountColumns = `
	a.id, a.user_id, a.platform_id, a.account_name, a.is_active,
	a.sync_status, a.sync_error_message, a.last_synced_at,
	a.created_at, a.updated_at,
	p.id, p.name, p.display_name, p.description, p.icon, p.is_active,
	p.api_endpoint, p.login_url, p.created_at, p.updated_at`

// PostgresBlogAccountRepository implements [BlogAccountRepository] using pgx.
type PostgresBlogAccountRepository struct {
	pool *pgxpool.Pool
}

// NewBlogAccountRepository creates a new PostgreSQL implementation of the [BlogAccountRepository].
func NewBlogAccountRepository(pool *pgxpool.Pool) *PostgresBlogAccountRepository {
	return &PostgresBlogAccountRepository{pool: pool}
}

// rowScanner abstracts pgx.Row and pgx.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanBlogAccountRow hydrates a [BlogAccount] plus its platform summary
// from a joined row.
func scanBlogAccountRow(row rowScanner) (*BlogAccount, error) {
	account := &BlogAccount{}
	platform := &platforms.Platform{}

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.PlatformID,
		&account.AccountName,
		&account.IsActive,
		&account.SyncStatus,
		&account.SyncErrorMessage,
		&account.LastSyncedAt,
		&account.CreatedAt,
		&account.UpdatedAt,
		&platform.ID,
		&platform.Name,
		&platform.DisplayName,
		&platform.Description,
		&platform.Icon,
		&platform.IsActive,
		&platform.APIEndpoint,
		&platform.LoginURL,
		&platform.CreatedAt,
		&platform.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Platform = platform
	return account, nil
}

/*
Create persists an account and its field values in one transaction.

Parameters:
  - context: context.Context
  - account: *BlogAccount
  - values: []FieldValue

Returns:
  - error: apperr.ValidationError on a broken schema reference, or
    storage failures
*/
func (repository *PostgresBlogAccountRepository) Create(context context.Context, account *BlogAccount, values []FieldValue) error {
	const insertAccount = `
		INSERT INTO blog_accounts (
			user_id, platform_id, account_name, is_active,
			sync_status, sync_error_message, last_synced_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_blog_account_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	err = transaction.QueryRow(context, insertAccount,
		account.UserID,
		account.PlatformID,
		account.AccountName,
		account.IsActive,
		account.SyncStatus,
		account.SyncErrorMessage,
		account.LastSyncedAt,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_blog_account_repo_create_failed: %w", err), "Blog account")
	}

	if err := upsertFieldValues(context, transaction, account.ID, values); err != nil {
		return err
	}
	account.FieldData = values

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_blog_account_repo_commit_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves an account hydrated for a detail read.

Description: Joins the owner for the referral facts the authorization
policy needs, the platform for context, and loads the schema plus the
stored field values.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *BlogAccount: The hydrated account
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresBlogAccountRepository) FindByID(context context.Context, id int64) (*BlogAccount, error) {
	query := `SELECT` + blogAccountColumns + `, u.referred_by
		FROM blog_accounts a
		JOIN platforms p ON p.id = a.platform_id
		JOIN users u ON u.id = a.user_id
		WHERE a.id = $1`

	account := &BlogAccount{}
	platform := &platforms.Platform{}

	err := repository.pool.QueryRow(context, query, id).Scan(
		&account.ID,
		&account.UserID,
		&account.PlatformID,
		&account.AccountName,
		&account.IsActive,
		&account.SyncStatus,
		&account.SyncErrorMessage,
		&account.LastSyncedAt,
		&account.CreatedAt,
		&account.UpdatedAt,
		&platform.ID,
		&platform.Name,
		&platform.DisplayName,
		&platform.Description,
		&platform.Icon,
		&platform.IsActive,
		&platform.APIEndpoint,
		&platform.LoginURL,
		&platform.CreatedAt,
		&platform.UpdatedAt,
		&account.ownerReferredBy,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Blog account")
	}
	account.Platform = platform

	page := []BlogAccount{*account}
	if err := repository.hydrate(context, page); err != nil {
		return nil, err
	}

	return &page[0], nil
}

/*
ListByUser returns the user's accounts, newest first, fully hydrated.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []BlogAccount: The user's connections with platforms and values
  - error: storage failures
*/
func (repository *PostgresBlogAccountRepository) ListByUser(context context.Context, userID string) ([]BlogAccount, error) {
	query := `SELECT` + blogAccountColumns + `
		FROM blog_accounts a
		JOIN platforms p ON p.id = a.platform_id
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_blog_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	accounts := []BlogAccount{}
	for rows.Next() {
		account, err := scanBlogAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_blog_account_repo_scan_failed: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_blog_account_repo_list_failed: %w", err)
	}

	if err := repository.hydrate(context, accounts); err != nil {
		return nil, err
	}

	return accounts, nil
}

/*
Update persists the account row and upserts the given field values in the
same transaction.

Parameters:
  - context: context.Context
  - account: *BlogAccount
  - upserts: []FieldValue

Returns:
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresBlogAccountRepository) Update(context context.Context, account *BlogAccount, upserts []FieldValue) error {
	const query = `
		UPDATE blog_accounts SET
			account_name = $2, is_active = $3, sync_status = $4,
			sync_error_message = $5, last_synced_at = $6, updated_at = $7
		WHERE id = $1`

	account.UpdatedAt = time.Now()

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_blog_account_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	tag, err := transaction.Exec(context, query,
		account.ID,
		account.AccountName,
		account.IsActive,
		account.SyncStatus,
		account.SyncErrorMessage,
		account.LastSyncedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_blog_account_repo_update_failed: %w", err), "Blog account")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Blog account")
	}

	if err := upsertFieldValues(context, transaction, account.ID, upserts); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_blog_account_repo_commit_failed: %w", err)
	}

	return nil
}

/*
Delete removes an account. Field values cascade via the schema.
*/
func (repository *PostgresBlogAccountRepository) Delete(context context.Context, id int64) error {
	const query = `DELETE FROM blog_accounts WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_blog_account_repo_delete_failed: %w", err), "Blog account")
	}

	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Blog account")
	}

	return nil
}

// # Internal Helpers

// hydrate loads the platform field schemas and stored field values for
// every account in the slice, each with a single query.
func (repository *PostgresBlogAccountRepository) hydrate(context context.Context, accounts []BlogAccount) error {
	if len(accounts) == 0 {
		return nil
	}

	accountIDs := make([]int64, len(accounts))
	platformIDs := make([]int64, 0, len(accounts))
	seenPlatforms := make(map[int64]bool, len(accounts))
	for i := range accounts {
		accountIDs[i] = accounts[i].ID
		if !seenPlatforms[accounts[i].PlatformID] {
			seenPlatforms[accounts[i].PlatformID] = true
			platformIDs = append(platformIDs, accounts[i].PlatformID)
		}
	}

	schemaByPlatform, fieldsByID, err := repository.loadSchemas(context, platformIDs)
	if err != nil {
		return err
	}

	valuesByAccount, err := repository.loadFieldValues(context, accountIDs, fieldsByID)
	if err != nil {
		return err
	}

	for i := range accounts {
		if accounts[i].Platform != nil {
			accounts[i].Platform.Fields = schemaByPlatform[accounts[i].PlatformID]
		}
		accounts[i].FieldData = valuesByAccount[accounts[i].ID]
	}

	return nil
}

// loadSchemas fetches the platform_fields rows for the given platforms,
// grouped by platform and indexed by field ID.
func (repository *PostgresBlogAccountRepository) loadSchemas(context context.Context, platformIDs []int64) (map[int64][]platforms.PlatformField, map[int64]*platforms.PlatformField, error) {
	const query = `SELECT
		id, platform_id, field_name, field_label, field_type,
		placeholder, help_text, is_required, is_encrypted, display_order,
		validation, options, created_at, updated_at
		FROM platform_fields
		WHERE platform_id = ANY($1)
		ORDER BY display_order ASC, id ASC`

	rows, err := repository.pool.Query(context, query, platformIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres_blog_account_repo_schema_load_failed: %w", err)
	}
	defer rows.Close()

	byPlatform := make(map[int64][]platforms.PlatformField, len(platformIDs))
	byID := make(map[int64]*platforms.PlatformField)
	for rows.Next() {
		field := platforms.PlatformField{}
		err := rows.Scan(
			&field.ID,
			&field.PlatformID,
			&field.FieldName,
			&field.FieldLabel,
			&field.FieldType,
			&field.Placeholder,
			&field.HelpText,
			&field.IsRequired,
			&field.IsEncrypted,
			&field.DisplayOrder,
			&field.Validation,
			&field.Options,
			&field.CreatedAt,
			&field.UpdatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres_blog_account_repo_schema_scan_failed: %w", err)
		}
		byPlatform[field.PlatformID] = append(byPlatform[field.PlatformID], field)
		stored := field
		byID[field.ID] = &stored
	}

	return byPlatform, byID, rows.Err()
}

// loadFieldValues fetches the stored values for the given accounts and
// attaches each value's schema row from the preloaded index.
func (repository *PostgresBlogAccountRepository) loadFieldValues(context context.Context, accountIDs []int64, fieldsByID map[int64]*platforms.PlatformField) (map[int64][]FieldValue, error) {
	const query = `SELECT
		id, blog_account_id, platform_field_id, field_value, is_encrypted,
		created_at, updated_at
		FROM account_field_data
		WHERE blog_account_id = ANY($1)
		ORDER BY id ASC`

	rows, err := repository.pool.Query(context, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres_blog_account_repo_value_load_failed: %w", err)
	}
	defer rows.Close()

	byAccount := make(map[int64][]FieldValue, len(accountIDs))
	for rows.Next() {
		value := FieldValue{}
		err := rows.Scan(
			&value.ID,
			&value.BlogAccountID,
			&value.PlatformFieldID,
			&value.Value,
			&value.IsEncrypted,
			&value.CreatedAt,
			&value.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_blog_account_repo_value_scan_failed: %w", err)
		}
		value.Field = fieldsByID[value.PlatformFieldID]
		byAccount[value.BlogAccountID] = append(byAccount[value.BlogAccountID], value)
	}

	return byAccount, rows.Err()
}

// upsertFieldValues writes the field values inside the caller's
// transaction, replacing any previous value for the same schema field.
func upsertFieldValues(context context.Context, transaction pgx.Tx, accountID int64, values []FieldValue) error {
	const query = `
		INSERT INTO account_field_data (
			blog_account_id, platform_field_id, field_value, is_encrypted,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (blog_account_id, platform_field_id) DO UPDATE SET
			field_value = EXCLUDED.field_value,
			is_encrypted = EXCLUDED.is_encrypted,
			updated_at = EXCLUDED.updated_at
		RETURNING id`

	now := time.Now()
	for i := range values {
		value := &values[i]
		value.BlogAccountID = accountID
		value.CreatedAt = now
		value.UpdatedAt = now

		err := transaction.QueryRow(context, query,
			value.BlogAccountID,
			value.PlatformFieldID,
			value.Value,
			value.IsEncrypted,
			value.CreatedAt,
			value.UpdatedAt,
		).Scan(&value.ID)
		if err != nil {
			return dberr.Wrap(fmt.Errorf("postgres_blog_account_repo_value_upsert_failed: %w", err), "Field value")
		}
	}

	return nil
}
