// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package accounts (Postgres) implements the storage layer for blog accounts.

# Schema Table Mapping
  - accounts: Connected blog accounts with revenue metrics.
  - users: Joined for owner summaries and referral-based visibility.

# Query Building

The listing query combines role scoping, an optional platform filter,
four sort orders, and pagination; it is assembled with squirrel instead of
hand-concatenated SQL to keep the placeholder numbering correct.
*/
package accounts

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blognest/blognest/internal/platform/dberr"
	"github.com/blognest/blognest/internal/platform/sec"
)

// accountColumns is the SELECT list for account rows joined with owner facts,
// in the exact order scanAccountRow reads them.
const accountColumns = `
	a.id, a.user_id, a.name, a.platform, a.url,
	a.credentials_encrypted, a.api_key,
	a.post_count, a.daily_revenue, a.weekly_revenue, a.monthly_revenue,
	a.last_synced, a.is_active, a.created_at, a.updated_at,
	u.username, u.email, u.role, u.referred_by`

// PostgresAccountRepository implements [AccountRepository] using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the [AccountRepository].
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// scanAccountRow hydrates an [Account] plus its owner facts from a joined row.
func scanAccountRow(row rowScanner) (*Account, error) {
	account := &Account{}
	var ownerUsername, ownerEmail string
	var ownerRole sec.Role

	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Name,
		&account.Platform,
		&account.URL,
		&account.CredentialsEncrypted,
		&account.APIKey,
		&account.PostCount,
		&account.DailyRevenue,
		&account.WeeklyRevenue,
		&account.MonthlyRevenue,
		&account.LastSynced,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
		&ownerUsername,
		&ownerEmail,
		&ownerRole,
		&account.ownerReferredBy,
	)
	if err != nil {
		return nil, err
	}

	account.Owner = &OwnerSummary{
		ID:       account.UserID,
		Username: ownerUsername,
		Email:    ownerEmail,
		Role:     ownerRole,
	}

	return account, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for the shared scan helper.
type rowScanner interface {
	Scan(dest ...any) error
}

/*
Create persists a new account record into the accounts table.

Parameters:
  - context: context.Context
  - account: *Account

Returns:
  - error: apperr.Conflict on a duplicate URL, or storage failures
*/
func (repository *PostgresAccountRepository) Create(context context.Context, account *Account) error {
	const query = `
		INSERT INTO accounts (
			id, user_id, name, platform, url, credentials_encrypted, api_key,
			post_count, daily_revenue, weekly_revenue, monthly_revenue,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		account.ID,
		account.UserID,
		account.Name,
		account.Platform,
		account.URL,
		account.CredentialsEncrypted,
		account.APIKey,
		account.PostCount,
		account.DailyRevenue,
		account.WeeklyRevenue,
		account.MonthlyRevenue,
		account.IsActive,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_account_repo_create_failed: %w", err), "Account")
	}

	return nil
}

/*
FindByID retrieves an account together with its owner facts.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *Account: Hydrated entity with owner summary and referral link
  - error: apperr.NotFound or storage failures
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*Account, error) {
	query := `SELECT` + accountColumns + `
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE a.id = $1`

	account, err := scanAccountRow(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Account")
	}

	return account, nil
}

/*
ExistsByURL reports whether any account (any owner) uses the given URL.
*/
func (repository *PostgresAccountRepository) ExistsByURL(context context.Context, url string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE url = $1)`

	var exists bool
	if err := repository.pool.QueryRow(context, query, url).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_account_repo_url_check_failed: %w", err)
	}

	return exists, nil
}

/*
List returns a role-scoped, filtered, sorted page of accounts.

Description: Builds the listing dynamically with squirrel. Role scoping is
pushed into SQL: admins see every row; moderators see their own accounts
plus those whose owner they referred; users see only their own.

Parameters:
  - context: context.Context
  - filter: ListFilter

Returns:
  - []Account: The page of visible accounts
  - int: Total matching count for pagination metadata
  - error: storage failures
*/
func (repository *PostgresAccountRepository) List(context context.Context, filter ListFilter) ([]Account, int, error) {
	scope := repository.visibilityPredicate(filter)

	// ── 1. Total count under the same predicate ───────────────────────────
	countQuery, countArgs, err := sq.Select("COUNT(*)").
		From("accounts a").
		Join("users u ON u.id = a.user_id").
		Where(scope).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_build_failed: %w", err)
	}

	var total int
	if err := repository.pool.QueryRow(context, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", err)
	}

	// ── 2. Page query ─────────────────────────────────────────────────────
	listQuery, listArgs, err := sq.Select(
		"a.id", "a.user_id", "a.name", "a.platform", "a.url",
		"a.credentials_encrypted", "a.api_key",
		"a.post_count", "a.daily_revenue", "a.weekly_revenue", "a.monthly_revenue",
		"a.last_synced", "a.is_active", "a.created_at", "a.updated_at",
		"u.username", "u.email", "u.role", "u.referred_by",
	).
		From("accounts a").
		Join("users u ON u.id = a.user_id").
		Where(scope).
		OrderBy(orderByClause(filter.Sort)).
		Limit(uint64(filter.Page.Limit)).
		Offset(uint64(filter.Page.Offset())).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_build_failed: %w", err)
	}

	rows, err := repository.pool.Query(context, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_scan_failed: %w", err)
		}
		accounts = append(accounts, *account)
	}

	return accounts, total, rows.Err()
}

// visibilityPredicate translates the actor's role into the row filter.
func (repository *PostgresAccountRepository) visibilityPredicate(filter ListFilter) sq.And {
	predicate := sq.And{}

	switch filter.ActorRole {
	case sec.RoleAdmin:
		// No ownership restriction.
	case sec.RoleModerator:
		predicate = append(predicate, sq.Or{
			sq.Eq{"a.user_id": filter.ActorID},
			sq.Eq{"u.referred_by": filter.ActorID},
		})
	default:
		predicate = append(predicate, sq.Eq{"a.user_id": filter.ActorID})
	}

	if filter.Platform != "" {
		predicate = append(predicate, sq.Eq{"a.platform": filter.Platform})
	}

	return predicate
}

// orderByClause maps an API sort key to its ORDER BY expression.
func orderByClause(sort string) string {
	switch sort {
	case "revenue":
		return "a.monthly_revenue DESC"
	case "posts":
		return "a.post_count DESC"
	case "name":
		return "a.name ASC"
	default:
		return "a.updated_at DESC"
	}
}

/*
Update persists the mutable fields of an existing account.

Parameters:
  - context: context.Context
  - account: *Account

Returns:
  - error: apperr.Conflict on a duplicate URL, or storage failures
*/
func (repository *PostgresAccountRepository) Update(context context.Context, account *Account) error {
	const query = `
		UPDATE accounts SET
			name = $2, url = $3, credentials_encrypted = $4, api_key = $5,
			post_count = $6, daily_revenue = $7, weekly_revenue = $8,
			monthly_revenue = $9, last_synced = $10, is_active = $11,
			updated_at = $12
		WHERE id = $1`

	account.UpdatedAt = time.Now()

	_, err := repository.pool.Exec(context, query,
		account.ID,
		account.Name,
		account.URL,
		account.CredentialsEncrypted,
		account.APIKey,
		account.PostCount,
		account.DailyRevenue,
		account.WeeklyRevenue,
		account.MonthlyRevenue,
		account.LastSynced,
		account.IsActive,
		account.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_account_repo_update_failed: %w", err), "Account")
	}

	return nil
}

/*
Delete removes an account permanently.
*/
func (repository *PostgresAccountRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM accounts WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_account_repo_delete_failed: %w", err), "Account")
	}

	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "Account")
	}

	return nil
}
