// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package users

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

// TokenIssuer defines the token-generation contract the service needs.
type TokenIssuer interface {
	GenerateAccessToken(userID string, role sec.Role) (string, error)
}

// ImageStore defines the identity-image persistence contract.
type ImageStore interface {
	SaveDataURL(userID, dataURL string) (string, error)
	Remove(urlPath string) error
}

// # Service Layer

// Service orchestrates business logic for accounts, authentication, and the
// referral hierarchy.
type Service struct {
	userRepository UserRepository
	tokens         TokenIssuer
	images         ImageStore
	logger         *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(userRepo UserRepository, tokens TokenIssuer, images ImageStore, logger *slog.Logger) *Service {
	return &Service{
		userRepository: userRepo,
		tokens:         tokens,
		images:         images,
		logger:         logger,
	}
}

// AuthResult carries a freshly issued bearer token together with the account
// it authenticates.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// # Registration & Referral Attribution

// SignupInput defines the fields accepted at registration time.
type SignupInput struct {
	Username     string
	Email        string
	Phone        string
	Password     string
	ReferralCode string
}

/*
Signup registers a new standard user and issues their first bearer token.

Description: Enforces username/email uniqueness, resolves referral
attribution, hashes the password, and persists the account. Every new
account is attributed to a referrer: either the owner of the submitted
referral code (who must be a moderator or admin), or the earliest-created
admin when no code is given.

Parameters:
  - context: context.Context
  - input: SignupInput

Returns:
  - *AuthResult: Token plus the created account
  - error: Validation, conflict, or storage failures
*/
func (service *Service) Signup(context context.Context, input SignupInput) (*AuthResult, error) {

	// ── 1. Uniqueness ─────────────────────────────────────────────────────
	taken, err := service.userRepository.ExistsByUsernameOrEmail(context, input.Username, input.Email)
	if err != nil {
		return nil, fmt.Errorf("user_service_signup_uniqueness_failed: %w", err)
	}
	if taken {
		return nil, apperr.ValidationError("Username or email already exists")
	}

	// ── 2. Referral Attribution ───────────────────────────────────────────
	referredBy, err := service.resolveReferrer(context, input.ReferralCode)
	if err != nil {
		return nil, err
	}

	// ── 3. Credential Hashing ─────────────────────────────────────────────
	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user_service_signup_hash_failed: %w", err)
	}

	// ── 4. Persistence ────────────────────────────────────────────────────
	user := &User{
		ID:           uuidv7.New(),
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: passwordHash,
		Role:         sec.RoleUser,
		IsActive:     true,
		ReferredBy:   referredBy,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("user_service_signup_create_failed: %w", err)
	}

	// ── 5. Token Issue ────────────────────────────────────────────────────
	token, err := service.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("user_service_signup_token_failed: %w", err)
	}

	service.logger.Info("user_registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{Token: token, User: user}, nil
}

// resolveReferrer maps an optional referral code to the referrer's user ID.
//
// An explicit code must belong to a moderator or admin; anything else is a
// validation failure. Without a code, attribution falls back to the
// earliest-created admin, and to no referrer at all when no admin exists.
func (service *Service) resolveReferrer(context context.Context, code string) (*string, error) {
	if code != "" {
		referrer, err := service.userRepository.FindByReferralCode(context, code)
		if err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.ValidationError("Invalid referral code")
			}
			return nil, fmt.Errorf("user_service_referrer_lookup_failed: %w", err)
		}

		if !referrer.Role.CanRefer() {
			return nil, apperr.ValidationError("Invalid referral code")
		}

		return &referrer.ID, nil
	}

	defaultReferrer, err := service.userRepository.FindEarliestAdmin(context)
	if err != nil {
		// A fresh install has no admin yet; the account simply goes unattributed.
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("user_service_default_referrer_failed: %w", err)
	}

	return &defaultReferrer.ID, nil
}

// # Authentication

/*
Login authenticates a user by username and password.

Description: Unknown usernames, wrong passwords, and deactivated accounts
all surface as 401 so callers cannot probe which accounts exist. A
successful login stamps last_login and issues a bearer token.

Parameters:
  - context: context.Context
  - username: string
  - password: string

Returns:
  - *AuthResult: Token plus the authenticated account
  - error: apperr.Unauthorized or storage failures
*/
func (service *Service) Login(context context.Context, username, password string) (*AuthResult, error) {
	user, err := service.userRepository.FindByUsername(context, username)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("user_service_login_lookup_failed: %w", err)
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	if !user.IsActive {
		return nil, apperr.Unauthorized("Account is deactivated")
	}

	now := time.Now()
	if err := service.userRepository.UpdateLastLogin(context, user.ID, now); err != nil {
		return nil, fmt.Errorf("user_service_login_stamp_failed: %w", err)
	}
	user.LastLogin = &now

	token, err := service.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("user_service_login_token_failed: %w", err)
	}

	service.logger.Info("user_logged_in", slog.String("user_id", user.ID))

	return &AuthResult{Token: token, User: user}, nil
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("user_service_get_profile_failed: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines the mutable subset of identity fields.
type UpdateProfileInput struct {
	Username *string
	Email    *string
	Phone    *string
}

/*
UpdateProfile applies a partial set of changes to a user's identity fields.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *User: The updated user profile
  - error: Conflict (taken username/email), not found, or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("user_service_update_lookup_failed: %w", err)
	}

	// Apply delta updates
	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}

	if err := service.userRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("user_service_update_failed: %w", err)
	}

	service.logger.Info("user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
ChangePassword rotates a user's password after verifying the current one.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - error: apperr.Unauthorized on a wrong current password, or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return fmt.Errorf("user_service_password_lookup_failed: %w", err)
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user_service_password_hash_failed: %w", err)
	}

	user.PasswordHash = newHash
	if err := service.userRepository.Update(context, user); err != nil {
		return fmt.Errorf("user_service_password_update_failed: %w", err)
	}

	service.logger.Info("user_password_changed", slog.String("user_id", userID))

	return nil
}

// # Settlement

// SettlementInput defines the payout-detail fields.
type SettlementInput struct {
	BankName      *string
	AccountNumber *string
	AccountHolder *string
}

/*
UpdateSettlement saves the user's payout bank details.

Parameters:
  - context: context.Context
  - userID: string
  - input: SettlementInput

Returns:
  - *User: The updated profile
  - error: Not found or storage failures
*/
func (service *Service) UpdateSettlement(context context.Context, userID string, input SettlementInput) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("user_service_settlement_lookup_failed: %w", err)
	}

	if input.BankName != nil {
		user.BankName = input.BankName
	}
	if input.AccountNumber != nil {
		user.AccountNumber = input.AccountNumber
	}
	if input.AccountHolder != nil {
		user.AccountHolder = input.AccountHolder
	}

	if err := service.userRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("user_service_settlement_update_failed: %w", err)
	}

	service.logger.Info("user_settlement_updated", slog.String("user_id", userID))

	return user, nil
}

// # Identity Verification

// IDVerificationInput defines the identity-document submission payload.
type IDVerificationInput struct {
	RealName      string
	IDType        string
	IDImageBase64 string
}

/*
SubmitIDVerification stores a user's identity document for admin review.

Description: Replaces any previously uploaded image, persists the decoded
file via the [ImageStore], and resets the verification state to pending.

Parameters:
  - context: context.Context
  - userID: string
  - input: IDVerificationInput

Returns:
  - *User: The updated profile (verification pending)
  - error: Validation, not found, or storage failures
*/
func (service *Service) SubmitIDVerification(context context.Context, userID string, input IDVerificationInput) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("user_service_verification_lookup_failed: %w", err)
	}

	// Replace any earlier submission before writing the new image.
	if user.IDImageKey != nil {
		if err := service.images.Remove(*user.IDImageKey); err != nil {
			service.logger.Warn("user_old_id_image_remove_failed",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
	}

	imageURL, err := service.images.SaveDataURL(userID, input.IDImageBase64)
	if err != nil {
		return nil, err
	}

	user.RealName = &input.RealName
	user.IDType = &input.IDType
	user.IDImageURL = &imageURL
	user.IDImageKey = &imageURL
	user.IDVerified = false
	user.IDVerifiedAt = nil

	if err := service.userRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("user_service_verification_update_failed: %w", err)
	}

	service.logger.Info("user_id_verification_submitted",
		slog.String("user_id", userID),
		slog.String("id_type", input.IDType),
	)

	return user, nil
}

/*
VerifyIdentity approves or rejects a user's pending identity submission.

Parameters:
  - context: context.Context
  - userID: string (The reviewed account)
  - verified: bool (true approves, false rejects)

Returns:
  - *User: The updated account
  - error: Validation when nothing was submitted, not found, or storage failures
*/
func (service *Service) VerifyIdentity(context context.Context, userID string, verified bool) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("user_service_verify_lookup_failed: %w", err)
	}

	if user.IDImageKey == nil {
		return nil, apperr.ValidationError("User has not uploaded ID verification image")
	}

	user.IDVerified = verified
	if verified {
		now := time.Now()
		user.IDVerifiedAt = &now
	} else {
		user.IDVerifiedAt = nil
	}

	if err := service.userRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("user_service_verify_update_failed: %w", err)
	}

	service.logger.Info("user_identity_reviewed",
		slog.String("user_id", userID),
		slog.Bool("verified", verified),
	)

	return user, nil
}

// # Administration

/*
ListUsers returns a page of all accounts for the admin console.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []User: The page of accounts
  - pagination.Meta: Page metadata
  - error: Retrieval failures
*/
func (service *Service) ListUsers(context context.Context, params pagination.Params) ([]User, pagination.Meta, error) {
	users, total, err := service.userRepository.List(context, params)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("user_service_list_failed: %w", err)
	}

	return users, pagination.NewMeta(params.Page, params.Limit, total), nil
}

// CreateUserInput defines the fields an admin supplies when provisioning
// an account directly.
type CreateUserInput struct {
	Username string
	Email    string
	Phone    string
	Password string
	Role     sec.Role
	IsActive bool
}

/*
CreateUser provisions an account with an explicit role (admin console).

Description: Moderator and admin accounts receive a generated referral code
so they can start referring users immediately.

Parameters:
  - context: context.Context
  - input: CreateUserInput

Returns:
  - *User: The created account
  - error: Validation, conflict, or storage failures
*/
func (service *Service) CreateUser(context context.Context, input CreateUserInput) (*User, error) {
	taken, err := service.userRepository.ExistsByUsernameOrEmail(context, input.Username, input.Email)
	if err != nil {
		return nil, fmt.Errorf("user_service_create_uniqueness_failed: %w", err)
	}
	if taken {
		return nil, apperr.ValidationError("Username or email already exists")
	}

	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user_service_create_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuidv7.New(),
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: passwordHash,
		Role:         input.Role,
		IsActive:     input.IsActive,
	}

	if user.Role.CanRefer() {
		code, err := sec.GenerateReferralCode()
		if err != nil {
			return nil, fmt.Errorf("user_service_create_referral_code_failed: %w", err)
		}
		user.ReferralCode = &code
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("user_service_create_failed: %w", err)
	}

	service.logger.Info("user_created_by_admin",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return user, nil
}

// UpdateUserInput defines the admin-editable account fields.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Phone    *string
	Role     *sec.Role
	IsActive *bool
	Password *string
}

/*
UpdateUser applies admin-side changes to any account, including role moves.

Description: Promoting an account to moderator or admin assigns a referral
code if it does not have one yet.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateUserInput

Returns:
  - *User: The updated account
  - error: Conflict, not found, or storage failures
*/
func (service *Service) UpdateUser(context context.Context, userID string, input UpdateUserInput) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("user_service_admin_update_lookup_failed: %w", err)
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		newHash, err := sec.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("user_service_admin_update_hash_failed: %w", err)
		}
		user.PasswordHash = newHash
	}
	if input.Role != nil {
		user.Role = *input.Role
		if user.Role.CanRefer() && user.ReferralCode == nil {
			code, err := sec.GenerateReferralCode()
			if err != nil {
				return nil, fmt.Errorf("user_service_admin_referral_code_failed: %w", err)
			}
			user.ReferralCode = &code
		}
	}

	if err := service.userRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("user_service_admin_update_failed: %w", err)
	}

	service.logger.Info("user_updated_by_admin", slog.String("user_id", userID))

	return user, nil
}

/*
UpdateUserStatus activates or deactivates an account.

Description: Admins cannot deactivate their own account, which would lock
them out of the console mid-session.

Parameters:
  - context: context.Context
  - actorID: string (The admin performing the change)
  - userID: string (The target account)
  - isActive: bool

Returns:
  - *User: The updated account
  - error: Validation on self-deactivation, not found, or storage failures
*/
func (service *Service) UpdateUserStatus(context context.Context, actorID, userID string, isActive bool) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("user_service_status_lookup_failed: %w", err)
	}

	if user.ID == actorID && !isActive {
		return nil, apperr.ValidationError("You cannot deactivate your own account")
	}

	user.IsActive = isActive
	if err := service.userRepository.Update(context, user); err != nil {
		return nil, fmt.Errorf("user_service_status_update_failed: %w", err)
	}

	service.logger.Info("user_status_updated",
		slog.String("user_id", userID),
		slog.Bool("is_active", isActive),
	)

	return user, nil
}

/*
DeleteUser removes an account permanently.

Description: Admins cannot delete their own account. Users referred by the
deleted account remain, with their referral link cleared by the schema.

Parameters:
  - context: context.Context
  - actorID: string
  - userID: string

Returns:
  - error: Validation on self-deletion, not found, or storage failures
*/
func (service *Service) DeleteUser(context context.Context, actorID, userID string) error {
	if actorID == userID {
		return apperr.ValidationError("You cannot delete your own account")
	}

	if err := service.userRepository.Delete(context, userID); err != nil {
		return fmt.Errorf("user_service_delete_failed: %w", err)
	}

	service.logger.Warn("user_deleted_by_admin", slog.String("user_id", userID))

	return nil
}

/*
UserStats aggregates account counts for the admin dashboard.
*/
func (service *Service) UserStats(context context.Context) (*Stats, error) {
	stats, err := service.userRepository.Stats(context)
	if err != nil {
		return nil, fmt.Errorf("user_service_stats_failed: %w", err)
	}
	return stats, nil
}
