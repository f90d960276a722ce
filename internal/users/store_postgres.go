// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package users (Postgres) implements the storage layer for accounts.

# Schema Table Mapping
  - users: Master identity, settlement, verification, and referral data.

# Error Mapping

Raw pgx errors pass through dberr.Wrap so unique violations surface as
Conflict and missing rows as NotFound, never as bare SQL errors.
*/
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blognest/blognest/internal/platform/dberr"
	"github.com/blognest/blognest/pkg/pagination"
)

// userColumns is the canonical SELECT column list, kept in the exact order
// scanUser reads them.
const userColumns = `
	id, username, email, phone, password_hash, role, is_active, last_login,
	bank_name, account_number, account_holder,
	real_name, id_type, id_image_url, id_image_key, id_verified, id_verified_at,
	referred_by, referral_code, created_at, updated_at`

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the [UserRepository].
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// rowScanner abstracts pgx.Row and pgx.Rows for the shared scan helper.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser hydrates a [User] from a row following the userColumns order.
func scanUser(row rowScanner) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.LastLogin,
		&user.BankName,
		&user.AccountNumber,
		&user.AccountHolder,
		&user.RealName,
		&user.IDType,
		&user.IDImageURL,
		&user.IDImageKey,
		&user.IDVerified,
		&user.IDVerifiedAt,
		&user.ReferredBy,
		&user.ReferralCode,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users table.

Description: Initializes timestamps when absent, then inserts the full row.
Unique violations on username, email, or referral_code surface as Conflict.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict, or database execution failure
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (
			id, username, email, phone, password_hash, role, is_active,
			referred_by, referral_code, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.ReferredBy,
		user.ReferralCode,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_create_failed: %w", err), "User")
	}

	return nil
}

/*
FindByID retrieves a user record by their unique ID.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return user, nil
}

/*
FindByUsername retrieves a user record by their unique username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(repository.pool.QueryRow(context, query, username))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return user, nil
}

/*
FindByReferralCode resolves a referral code to its owning account.

Parameters:
  - context: context.Context
  - code: string

Returns:
  - *User: The referrer account
  - error: apperr.NotFound when the code is unknown
*/
func (repository *PostgresUserRepository) FindByReferralCode(context context.Context, code string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE referral_code = $1`

	user, err := scanUser(repository.pool.QueryRow(context, query, code))
	if err != nil {
		return nil, dberr.Wrap(err, "Referral code")
	}

	return user, nil
}

/*
FindEarliestAdmin returns the oldest admin account by creation time.

Description: Backs the default referral attribution for signups that arrive
without a referral code.

Returns:
  - *User: The earliest-created admin
  - error: apperr.NotFound when no admin exists yet
*/
func (repository *PostgresUserRepository) FindEarliestAdmin(context context.Context) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE role = 'admin' ORDER BY created_at ASC LIMIT 1`

	user, err := scanUser(repository.pool.QueryRow(context, query))
	if err != nil {
		return nil, dberr.Wrap(err, "Admin")
	}

	return user, nil
}

/*
ExistsByUsernameOrEmail checks signup uniqueness in one round trip.

Parameters:
  - context: context.Context
  - username: string
  - email: string

Returns:
  - bool: true when either value is already taken
  - error: database execution failure
*/
func (repository *PostgresUserRepository) ExistsByUsernameOrEmail(context context.Context, username, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`

	var exists bool
	if err := repository.pool.QueryRow(context, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_user_repo_exists_check_failed: %w", err)
	}

	return exists, nil
}

/*
Update persists every mutable field of an existing user.

Parameters:
  - context: context.Context
  - user: *User (Hydrated entity with changes)

Returns:
  - error: apperr.Conflict on unique violations, or storage failures
*/
func (repository *PostgresUserRepository) Update(context context.Context, user *User) error {
	const query = `
		UPDATE users SET
			username = $2, email = $3, phone = $4, password_hash = $5,
			role = $6, is_active = $7,
			bank_name = $8, account_number = $9, account_holder = $10,
			real_name = $11, id_type = $12, id_image_url = $13, id_image_key = $14,
			id_verified = $15, id_verified_at = $16,
			referral_code = $17, updated_at = $18
		WHERE id = $1`

	user.UpdatedAt = time.Now()

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.BankName,
		user.AccountNumber,
		user.AccountHolder,
		user.RealName,
		user.IDType,
		user.IDImageURL,
		user.IDImageKey,
		user.IDVerified,
		user.IDVerifiedAt,
		user.ReferralCode,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_update_failed: %w", err), "User")
	}

	return nil
}

/*
UpdateLastLogin stamps the successful-login time without touching the rest
of the row.
*/
func (repository *PostgresUserRepository) UpdateLastLogin(context context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_login = $2 WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, id, at); err != nil {
		return fmt.Errorf("postgres_user_repo_last_login_failed: %w", err)
	}

	return nil
}

/*
List returns a page of users ordered by creation time (newest first).

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []User: The page of accounts
  - int: Total account count for pagination metadata
  - error: database retrieval failures
*/
func (repository *PostgresUserRepository) List(context context.Context, params pagination.Params) ([]User, int, error) {
	var total int
	if err := repository.pool.QueryRow(context, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_count_failed: %w", err)
	}

	query := `SELECT` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(context, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_list_failed: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_user_repo_scan_failed: %w", err)
		}
		users = append(users, *user)
	}

	return users, total, rows.Err()
}

/*
Delete removes a user permanently.

Description: The referred_by FK is declared ON DELETE SET NULL, so accounts
referred by the deleted user survive with their referral link cleared.
*/
func (repository *PostgresUserRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_delete_failed: %w", err), "User")
	}

	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "User")
	}

	return nil
}

/*
Stats aggregates total/active/inactive/admin counts in a single scan.
*/
func (repository *PostgresUserRepository) Stats(context context.Context) (*Stats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE NOT is_active),
			COUNT(*) FILTER (WHERE role = 'admin')
		FROM users`

	stats := &Stats{}
	err := repository.pool.QueryRow(context, query).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Inactive,
		&stats.Admins,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_stats_failed: %w", err)
	}

	return stats, nil
}
