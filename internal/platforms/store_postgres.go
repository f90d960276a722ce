// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package platforms (Postgres) implements the catalog storage layer.

# Schema Table Mapping
  - platforms: Catalog entries with sequential integer IDs.
  - platform_fields: Connection form schema, cascade-deleted with the platform.
  - blog_accounts: Counted to guard deletion and feed the admin listing.

# Transactions

Create and Update touch both tables, so they run inside an explicit pgx
transaction: a platform must never become visible without its field schema.
*/
package platforms

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blognest/blognest/internal/platform/dberr"
)

// platformColumns is the SELECT list for platform rows, in scan order.
const platformColumns = `
	id, name, display_name, description, icon, is_active,
	api_endpoint, login_url, created_at, updated_at`

// fieldColumns is the SELECT list for platform_fields rows, in scan order.
const fieldColumns = `
	id, platform_id, field_name, field_label, field_type,
	placeholder, help_text, is_required, is_encrypted, display_order,
	validation, options, created_at, updated_at`

// PostgresPlatformRepository implements [PlatformRepository] using pgx.
type PostgresPlatformRepository struct {
	pool *pgxpool.Pool
}

// NewPlatformRepository creates a new PostgreSQL implementation of the [PlatformRepository].
func NewPlatformRepository(pool *pgxpool.Pool) *PostgresPlatformRepository {
	return &PostgresPlatformRepository{pool: pool}
}

// rowScanner abstracts pgx.Row and pgx.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPlatform hydrates a [Platform] from a platforms row.
func scanPlatform(row rowScanner) (*Platform, error) {
	platform := &Platform{}
	err := row.Scan(
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
	return platform, nil
}

// scanField hydrates a [PlatformField] from a platform_fields row.
func scanField(row rowScanner) (*PlatformField, error) {
	field := &PlatformField{}
	err := row.Scan(
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
		return nil, err
	}
	return field, nil
}

/*
ListActive returns active platforms with their field schemas.

Description: Platforms are ordered by display name, fields by display
order. Fields for the whole page are loaded in one query and distributed
back onto their platforms.

Parameters:
  - context: context.Context

Returns:
  - []Platform: Active platforms with Fields populated
  - error: storage failures
*/
func (repository *PostgresPlatformRepository) ListActive(context context.Context) ([]Platform, error) {
	query := `SELECT` + platformColumns + `
		FROM platforms
		WHERE is_active = TRUE
		ORDER BY display_name ASC`

	platforms, err := repository.queryPlatforms(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_platform_repo_list_active_failed: %w", err)
	}

	if err := repository.attachFields(context, platforms); err != nil {
		return nil, err
	}

	return platforms, nil
}

/*
FindByID retrieves one platform with its field schema.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *Platform: The platform with Fields populated
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresPlatformRepository) FindByID(context context.Context, id int64) (*Platform, error) {
	query := `SELECT` + platformColumns + ` FROM platforms WHERE id = $1`

	platform, err := scanPlatform(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Platform")
	}

	page := []Platform{*platform}
	if err := repository.attachFields(context, page); err != nil {
		return nil, err
	}

	return &page[0], nil
}

/*
ListAll returns every platform with fields and linked-account counts.

Description: Admin view. The account count is computed with a scalar
subquery so inactive platforms with zero accounts still appear.

Parameters:
  - context: context.Context

Returns:
  - []Platform: All platforms, AccountCount populated
  - error: storage failures
*/
func (repository *PostgresPlatformRepository) ListAll(context context.Context) ([]Platform, error) {
	query := `SELECT
		id, name, display_name, description, icon, is_active,
		api_endpoint, login_url, created_at, updated_at,
		(SELECT COUNT(*) FROM blog_accounts b WHERE b.platform_id = platforms.id) AS account_count
		FROM platforms
		ORDER BY display_name ASC`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_platform_repo_list_all_failed: %w", err)
	}
	defer rows.Close()

	platforms := []Platform{}
	for rows.Next() {
		platform := Platform{}
		var accountCount int
		err := rows.Scan(
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
			&accountCount,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_platform_repo_scan_failed: %w", err)
		}
		platform.AccountCount = &accountCount
		platforms = append(platforms, platform)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_platform_repo_list_all_failed: %w", err)
	}

	if err := repository.attachFields(context, platforms); err != nil {
		return nil, err
	}

	return platforms, nil
}

/*
Create inserts a platform and its fields in one transaction.

Parameters:
  - context: context.Context
  - platform: *Platform

Returns:
  - error: apperr.Conflict on a duplicate name, or storage failures
*/
func (repository *PostgresPlatformRepository) Create(context context.Context, platform *Platform) error {
	const insertPlatform = `
		INSERT INTO platforms (
			name, display_name, description, icon, is_active,
			api_endpoint, login_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	now := time.Now()
	platform.CreatedAt = now
	platform.UpdatedAt = now

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_platform_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	err = transaction.QueryRow(context, insertPlatform,
		platform.Name,
		platform.DisplayName,
		platform.Description,
		platform.Icon,
		platform.IsActive,
		platform.APIEndpoint,
		platform.LoginURL,
		platform.CreatedAt,
		platform.UpdatedAt,
	).Scan(&platform.ID)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_platform_repo_create_failed: %w", err), "Platform")
	}

	if err := insertFields(context, transaction, platform.ID, platform.Fields); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_platform_repo_commit_failed: %w", err)
	}

	return nil
}

/*
Update persists the platform row and optionally replaces its field set.

Description: When replaceFields is set, every existing field row is
deleted and platform.Fields is inserted fresh, all inside one
transaction. A partially replaced schema is never observable.

Parameters:
  - context: context.Context
  - platform: *Platform
  - replaceFields: bool

Returns:
  - error: apperr.Conflict on a duplicate name, or storage failures
*/
func (repository *PostgresPlatformRepository) Update(context context.Context, platform *Platform, replaceFields bool) error {
	const updatePlatform = `
		UPDATE platforms SET
			name = $2, display_name = $3, description = $4, icon = $5,
			is_active = $6, api_endpoint = $7, login_url = $8, updated_at = $9
		WHERE id = $1`

	platform.UpdatedAt = time.Now()

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_platform_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	tag, err := transaction.Exec(context, updatePlatform,
		platform.ID,
		platform.Name,
		platform.DisplayName,
		platform.Description,
		platform.Icon,
		platform.IsActive,
		platform.APIEndpoint,
		platform.LoginURL,
		platform.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_platform_repo_update_failed: %w", err), "Platform")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Platform")
	}

	if replaceFields {
		if _, err := transaction.Exec(context, `DELETE FROM platform_fields WHERE platform_id = $1`, platform.ID); err != nil {
			return fmt.Errorf("postgres_platform_repo_field_clear_failed: %w", err)
		}
		if err := insertFields(context, transaction, platform.ID, platform.Fields); err != nil {
			return err
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_platform_repo_commit_failed: %w", err)
	}

	return nil
}

/*
SetActive flips the activation flag and returns the new state.

Parameters:
  - context: context.Context
  - id: int64
  - active: bool

Returns:
  - *Platform: The toggled platform (without Fields)
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresPlatformRepository) SetActive(context context.Context, id int64, active bool) (*Platform, error) {
	query := `
		UPDATE platforms SET is_active = $2, updated_at = $3
		WHERE id = $1
		RETURNING` + platformColumns

	platform, err := scanPlatform(repository.pool.QueryRow(context, query, id, active, time.Now()))
	if err != nil {
		return nil, dberr.Wrap(err, "Platform")
	}

	return platform, nil
}

/*
CountLinkedAccounts reports how many blog accounts reference the platform.
*/
func (repository *PostgresPlatformRepository) CountLinkedAccounts(context context.Context, id int64) (int, error) {
	const query = `SELECT COUNT(*) FROM blog_accounts WHERE platform_id = $1`

	var count int
	if err := repository.pool.QueryRow(context, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_platform_repo_account_count_failed: %w", err)
	}

	return count, nil
}

/*
Delete removes a platform. Field rows cascade via the schema.
*/
func (repository *PostgresPlatformRepository) Delete(context context.Context, id int64) error {
	const query = `DELETE FROM platforms WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_platform_repo_delete_failed: %w", err), "Platform")
	}

	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Platform")
	}

	return nil
}

// # Internal Helpers

// queryPlatforms runs a platforms SELECT and scans the result set.
func (repository *PostgresPlatformRepository) queryPlatforms(context context.Context, query string, args ...any) ([]Platform, error) {
	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	platforms := []Platform{}
	for rows.Next() {
		platform, err := scanPlatform(rows)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, *platform)
	}

	return platforms, rows.Err()
}

// attachFields loads the field schemas for every platform in the slice
// with a single query and distributes them by platform ID.
func (repository *PostgresPlatformRepository) attachFields(context context.Context, platforms []Platform) error {
	if len(platforms) == 0 {
		return nil
	}

	ids := make([]int64, len(platforms))
	for i := range platforms {
		ids[i] = platforms[i].ID
	}

	query := `SELECT` + fieldColumns + `
		FROM platform_fields
		WHERE platform_id = ANY($1)
		ORDER BY display_order ASC, id ASC`

	rows, err := repository.pool.Query(context, query, ids)
	if err != nil {
		return fmt.Errorf("postgres_platform_repo_field_load_failed: %w", err)
	}
	defer rows.Close()

	byPlatform := make(map[int64][]PlatformField, len(platforms))
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return fmt.Errorf("postgres_platform_repo_field_scan_failed: %w", err)
		}
		byPlatform[field.PlatformID] = append(byPlatform[field.PlatformID], *field)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres_platform_repo_field_load_failed: %w", err)
	}

	for i := range platforms {
		platforms[i].Fields = byPlatform[platforms[i].ID]
	}

	return nil
}

// insertFields bulk-inserts the field schema rows for a platform inside
// the caller's transaction, assigning generated IDs back onto the slice.
func insertFields(context context.Context, transaction pgx.Tx, platformID int64, fields []PlatformField) error {
	const query = `
		INSERT INTO platform_fields (
			platform_id, field_name, field_label, field_type,
			placeholder, help_text, is_required, is_encrypted, display_order,
			validation, options, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	now := time.Now()
	for i := range fields {
		field := &fields[i]
		field.PlatformID = platformID
		field.CreatedAt = now
		field.UpdatedAt = now

		err := transaction.QueryRow(context, query,
			field.PlatformID,
			field.FieldName,
			field.FieldLabel,
			field.FieldType,
			field.Placeholder,
			field.HelpText,
			field.IsRequired,
			field.IsEncrypted,
			field.DisplayOrder,
			field.Validation,
			field.Options,
			field.CreatedAt,
			field.UpdatedAt,
		).Scan(&field.ID)
		if err != nil {
			return dberr.Wrap(fmt.Errorf("postgres_platform_repo_field_insert_failed: %w", err), "Platform field")
		}
	}

	return nil
}
