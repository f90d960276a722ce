// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package accounts manages directly-connected blog accounts and their revenue
metrics.

Each account binds a user to one of the supported blogging platforms via a
unique blog URL. Revenue and post-count figures are populated by the sync
operation (currently a stub pending real platform API integrations).

# Architecture

  - Entities: Account (ownership, platform, revenue metrics, credentials).
  - Security: Stored login credentials are encrypted at rest; ciphertext
    never leaves the service layer.
  - Visibility: admin sees everything, moderators see their own accounts
    plus those of users they referred, users see only their own.
*/
package accounts

import (
	"context"
	"time"

	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/pkg/pagination"
)

// # Domain Entities

// validPlatforms is the closed set of supported blogging platforms.
var validPlatforms = []string{"naver", "tistory", "velog", "brunch"}

// validSorts maps API sort keys to their ORDER BY semantics.
var validSorts = []string{"revenue", "posts", "name", "updated"}

// OwnerSummary is the compact owner view attached to rows returned to
// admin and moderator callers.
type OwnerSummary struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     sec.Role `json:"role"`
}

// Account represents a connected blog account with its revenue metrics.
//
// CredentialsEncrypted holds the at-rest ciphertext and is never serialized.
// The decrypted value travels only through the transient Credentials field,
// populated by the service on owner-facing detail reads.
type Account struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
	URL      string `json:"url"`

	CredentialsEncrypted *string `json:"-"`
	Credentials          *string `json:"credentials,omitempty"`
	APIKey               *string `json:"api_key"`

	PostCount      int     `json:"post_count"`
	DailyRevenue   float64 `json:"daily_revenue"`
	WeeklyRevenue  float64 `json:"weekly_revenue"`
	MonthlyRevenue float64 `json:"monthly_revenue"`

	LastSynced *time.Time `json:"last_synced"`
	IsActive   bool       `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Owner is attached for admin/moderator reads.
	Owner *OwnerSummary `json:"user,omitempty"`

	// ownerReferredBy carries the owner's referrer for policy checks.
	// Populated by the store's join, never serialized.
	ownerReferredBy *string
}

// ResourceOwner builds the ownership facts the authorization policy needs.
func (a *Account) ResourceOwner() sec.ResourceOwner {
	owner := sec.ResourceOwner{OwnerID: a.UserID}
	if a.ownerReferredBy != nil {
		owner.OwnerReferredBy = *a.ownerReferredBy
	}
	return owner
}

// ListFilter narrows and orders the account listing.
type ListFilter struct {
	// ActorID and ActorRole drive role-based row visibility.
	ActorID   string
	ActorRole sec.Role

	// Platform restricts results to one platform when non-empty.
	Platform string

	// Sort is one of revenue|posts|name|updated (default updated).
	Sort string

	Page pagination.Params
}

// # Repository Contracts

// AccountRepository defines the persistence contract for blog accounts.
type AccountRepository interface {
	/*
		Create persists a new account record.

		Parameters:
		  - context: context.Context
		  - account: *Account

		Returns:
		  - error: apperr.Conflict on a duplicate URL, or storage failures
	*/
	Create(context context.Context, account *Account) error

	/*
		FindByID retrieves an account together with its owner facts.

		Returns:
		  - *Account: Hydrated entity with owner summary and referral link
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		ExistsByURL reports whether any account (any owner) uses the URL.
	*/
	ExistsByURL(context context.Context, url string) (bool, error)

	/*
		List returns a role-scoped, filtered, sorted page of accounts.

		Returns:
		  - []Account: The page of visible accounts
		  - int: Total matching count for pagination metadata
		  - error: storage failures
	*/
	List(context context.Context, filter ListFilter) ([]Account, int, error)

	/*
		Update persists the mutable fields of an existing account.
	*/
	Update(context context.Context, account *Account) error

	/*
		Delete removes an account permanently.
	*/
	Delete(context context.Context, id string) error
}
