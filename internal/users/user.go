// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package users implements the account domain: registration, authentication,
profile and settlement management, identity verification, the referral
hierarchy, and the administrative user console.

# Architecture

  - Entities: User (identity, settlement, verification, referral facts).
  - Domain: Signup-time referral attribution binds every user to the
    moderator or admin who brought them in.
  - Security: Passwords are bcrypt-hashed and never serialized; bearer
    tokens are issued by the sec.TokenService.
*/
package users

import (
	"context"
	"time"

	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/pkg/pagination"
)

// # Domain Entities

// IDType enumerates accepted identity-document kinds for verification.
var validIDTypes = []string{"resident_card", "driver_license", "passport"}

// User is the master account entity.
//
// The PasswordHash field is excluded from every JSON response. Settlement
// and identity-verification fields are nullable: they stay empty until the
// user submits them.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`

	PasswordHash string `json:"-"`

	Role      sec.Role   `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login"`

	// Settlement (payout) details
	BankName      *string `json:"bank_name"`
	AccountNumber *string `json:"account_number"`
	AccountHolder *string `json:"account_holder"`

	// Identity verification
	RealName     *string    `json:"real_name"`
	IDType       *string    `json:"id_type"`
	IDImageURL   *string    `json:"id_image_url"`
	IDImageKey   *string    `json:"-"`
	IDVerified   bool       `json:"id_verified"`
	IDVerifiedAt *time.Time `json:"id_verified_at"`

	// Referral hierarchy
	ReferredBy   *string `json:"referred_by"`
	ReferralCode *string `json:"referral_code"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Owner builds the ownership facts the authorization policy evaluates
// when this user's data is the accessed resource.
func (u *User) Owner() sec.ResourceOwner {
	owner := sec.ResourceOwner{OwnerID: u.ID}
	if u.ReferredBy != nil {
		owner.OwnerReferredBy = *u.ReferredBy
	}
	return owner
}

// Stats aggregates account counts for the admin dashboard.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Admins   int `json:"admins"`
}

// # Repository Contracts

// UserRepository defines the persistence contract for user accounts.
type UserRepository interface {
	/*
		Create persists a new user record.

		Parameters:
		  - context: context.Context
		  - user: *User (Entity to persist)

		Returns:
		  - error: apperr.Conflict on unique violations, or storage failures
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID retrieves a user record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByUsername retrieves a user record by their unique username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByReferralCode resolves a referral code to its owning account.

		Parameters:
		  - context: context.Context
		  - code: string

		Returns:
		  - *User: The referrer account
		  - error: apperr.NotFound when the code is unknown
	*/
	FindByReferralCode(context context.Context, code string) (*User, error)

	/*
		FindEarliestAdmin returns the oldest admin account by creation time.

		It backs the default referral attribution for signups without a code.

		Returns:
		  - *User: The earliest-created admin
		  - error: apperr.NotFound when no admin exists yet
	*/
	FindEarliestAdmin(context context.Context) (*User, error)

	/*
		ExistsByUsernameOrEmail checks signup uniqueness in one round trip.

		Returns:
		  - bool: true when either value is already taken
		  - error: storage failures
	*/
	ExistsByUsernameOrEmail(context context.Context, username, email string) (bool, error)

	/*
		Update persists every mutable field of an existing user.

		Parameters:
		  - context: context.Context
		  - user: *User (Hydrated entity with changes)

		Returns:
		  - error: apperr.Conflict on unique violations, or storage failures
	*/
	Update(context context.Context, user *User) error

	/*
		UpdateLastLogin stamps the successful-login time without touching
		the rest of the row.
	*/
	UpdateLastLogin(context context.Context, id string, at time.Time) error

	/*
		List returns a page of users ordered by creation time (newest first).

		Returns:
		  - []User: The page of accounts
		  - int: Total account count for pagination metadata
		  - error: storage failures
	*/
	List(context context.Context, params pagination.Params) ([]User, int, error)

	/*
		Delete removes a user permanently. Accounts referred by the deleted
		user keep existing: the referred_by link is nulled by the schema.
	*/
	Delete(context context.Context, id string) error

	/*
		Stats aggregates total/active/inactive/admin counts.
	*/
	Stats(context context.Context) (*Stats, error)
}
