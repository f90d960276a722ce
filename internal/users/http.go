// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

/*
Package users provides the HTTP delivery layer for authentication, profile
management, and the admin user console.

# Security

Public endpoints are limited to signup and login. Everything else requires
an authenticated bearer token; the admin console additionally requires the
admin role, enforced by the RequireRole middleware.
*/
package users

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platform/middleware"
	requestutil "github.com/blognest/blognest/internal/platform/request"
	"github.com/blognest/blognest/internal/platform/respond"
	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/internal/platform/validate"
	"github.com/blognest/blognest/pkg/pagination"
)

// Handler implements the HTTP layer for the users domain.
type Handler struct {
	userService *Service
}

// NewHandler constructs a new users [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{userService: service}
}

// AuthRoutes returns the /auth subrouter: registration, login, and the
// token-holder's own identity endpoints.
func (handler *Handler) AuthRoutes() chi.Router {
	router := chi.NewRouter()

	// Public
	router.Post("/signup", handler.signup)
	router.Post("/login", handler.login)

	// Token required
	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Get("/me", handler.getMe)
		protected.Put("/profile", handler.updateProfile)
		protected.Put("/password", handler.changePassword)
	})

	return router
}

// UserRoutes returns the /users subrouter: profile, settlement, and
// identity verification for the authenticated user.
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/me", handler.getMe)
	router.Put("/me", handler.updateProfile)
	router.Put("/me/settlement", handler.updateSettlement)
	router.Post("/me/id-verification", handler.submitIDVerification)

	// Identity review lives under /users/admin so the frontend submits the
	// decision to the same resource tree the user uploaded to.
	router.Route("/admin", func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))
		admin.Post("/{userId}/verify", handler.adminVerifyIdentity)
	})

	return router
}

// AdminRoutes returns the /admin subrouter for the user console.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireRole(sec.RoleAdmin))

	router.Get("/users", handler.adminListUsers)
	router.Post("/users", handler.adminCreateUser)
	router.Put("/users/{userId}", handler.adminUpdateUser)
	router.Patch("/users/{userId}", handler.adminUpdateUserStatus)
	router.Delete("/users/{userId}", handler.adminDeleteUser)
	router.Get("/stats", handler.adminUserStats)

	return router
}

// # Password Rules

// validatePassword enforces the signup password policy: minimum 8 chars
// containing lowercase, uppercase, digit, and one of @$!%*?&.
func validatePassword(v *validate.Validator, field, password string) {
	v.MinLen(field, password, 8).
		Custom(field, !strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz"), "Must contain a lowercase letter").
		Custom(field, !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"), "Must contain an uppercase letter").
		Custom(field, !strings.ContainsAny(password, "0123456789"), "Must contain a number").
		Custom(field, !strings.ContainsAny(password, "@$!%*?&"), "Must contain a special character (@$!%*?&)")
}

// # Authentication Endpoints

// signupRequest defines the expected JSON payload for registration.
type signupRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

/*
POST /api/v1/auth/signup.

Description: Registers a new user account and returns a bearer token.

Request:
  - body: signupRequest

Response:
  - 201: AuthResult: Token plus the created user
  - 400: Validation: Invalid input or taken username/email
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)

	v := &validate.Validator{}
	v.Required("username", input.Username).
		MinLen("username", input.Username, 3).
		MaxLen("username", input.Username, 50).
		Username("username", input.Username).
		Required("email", input.Email).
		Email("email", input.Email).
		Required("phone", input.Phone).
		Phone("phone", input.Phone)
	validatePassword(v, "password", input.Password)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.userService.Signup(request.Context(), SignupInput{
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		Password:     input.Password,
		ReferralCode: strings.TrimSpace(input.ReferralCode),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.CreatedMessage(writer, "User registered successfully", result)
}

// loginRequest defines the expected JSON payload for login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

/*
POST /api/v1/auth/login.

Description: Authenticates a user and returns a bearer token.

Request:
  - body: loginRequest

Response:
  - 200: AuthResult: Token plus the authenticated user
  - 401: Unauthorized: Invalid credentials or deactivated account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("username", input.Username).
		Required("password", input.Password)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.userService.Login(request.Context(), strings.TrimSpace(input.Username), input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Login successful", result)
}

/*
GET /api/v1/auth/me.

Description: Retrieves the full private profile of the authenticated user.

Response:
  - 200: User: Fully hydrated user profile
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateProfileRequest defines the expected JSON payload for profile updates.
type updateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

/*
PUT /api/v1/auth/profile (also PUT /api/v1/users/me).

Description: Applies partial updates to the authenticated user's identity.

Request:
  - body: updateProfileRequest (Partial JSON)

Response:
  - 200: User: The updated profile
  - 400: Validation: Invalid input data
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	if input.Username != nil {
		v.MinLen("username", *input.Username, 3).
			MaxLen("username", *input.Username, 50).
			Username("username", *input.Username)
	}
	if input.Email != nil {
		v.Email("email", *input.Email)
	}
	if input.Phone != nil {
		v.Phone("phone", *input.Phone)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		Username: input.Username,
		Email:    input.Email,
		Phone:    input.Phone,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Profile updated successfully", user)
}

// changePasswordRequest defines the password-rotation payload.
type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

/*
PUT /api/v1/auth/password.

Description: Rotates the authenticated user's password.

Request:
  - body: changePasswordRequest

Response:
  - 200: Message: Password changed successfully
  - 400: Validation: Weak new password
  - 401: Unauthorized: Wrong current password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("current_password", input.CurrentPassword)
	validatePassword(v, "new_password", input.NewPassword)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.userService.ChangePassword(request.Context(), userID, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Password changed successfully", nil)
}

// # Settlement Endpoints

// settlementRequest defines the payout-detail payload.
type settlementRequest struct {
	BankName      *string `json:"bank_name"`
	AccountNumber *string `json:"account_number"`
	AccountHolder *string `json:"account_holder"`
}

/*
PUT /api/v1/users/me/settlement.

Description: Saves the authenticated user's payout bank details.

Request:
  - body: settlementRequest (Partial JSON)

Response:
  - 200: User: The updated profile
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) updateSettlement(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input settlementRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	if input.BankName != nil {
		v.MaxLen("bank_name", *input.BankName, 50)
	}
	if input.AccountNumber != nil {
		v.MaxLen("account_number", *input.AccountNumber, 50)
	}
	if input.AccountHolder != nil {
		v.MaxLen("account_holder", *input.AccountHolder, 50)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.UpdateSettlement(request.Context(), userID, SettlementInput{
		BankName:      input.BankName,
		AccountNumber: input.AccountNumber,
		AccountHolder: input.AccountHolder,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "Settlement information updated successfully", user)
}

// # Identity Verification Endpoints

// idVerificationRequest defines the identity-document submission payload.
type idVerificationRequest struct {
	RealName      string `json:"real_name"`
	IDType        string `json:"id_type"`
	IDImageBase64 string `json:"id_image_base64"`
}

/*
POST /api/v1/users/me/id-verification.

Description: Uploads an identity document (base64 data URL) for admin review.

Request:
  - body: idVerificationRequest

Response:
  - 200: User: Submission stored, verification pending
  - 400: Validation: Missing fields, bad image, or unsupported ID type
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) submitIDVerification(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input idVerificationRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("real_name", input.RealName).
		MaxLen("real_name", input.RealName, 50).
		Required("id_type", input.IDType).
		OneOf("id_type", input.IDType, validIDTypes...).
		Required("id_image_base64", input.IDImageBase64)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.SubmitIDVerification(request.Context(), userID, IDVerificationInput{
		RealName:      strings.TrimSpace(input.RealName),
		IDType:        input.IDType,
		IDImageBase64: input.IDImageBase64,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "ID verification image uploaded successfully. Pending admin approval.", user)
}

// # Admin Console Endpoints

// pathUserID extracts and validates the {userId} path parameter. Rejecting
// malformed ids here keeps them out of the store, where Postgres would
// fail the uuid cast.
func pathUserID(request *http.Request) (string, error) {
	id := requestutil.ID(request, "userId")
	if (&validate.Validator{}).UUID("userId", id).HasErrors() {
		return "", apperr.ValidationError("Invalid user id")
	}
	return id, nil
}

/*
GET /api/v1/admin/users.

Description: Lists all accounts, newest first, with pagination metadata.

Response:
  - 200: []User + pagination
  - 403: Forbidden: Admin role required
*/
func (handler *Handler) adminListUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, meta, err := handler.userService.ListUsers(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}

// adminCreateUserRequest defines the admin account-provisioning payload.
type adminCreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

/*
POST /api/v1/admin/users.

Description: Provisions an account with an explicit role. Moderator and
admin accounts receive a generated referral code.

Request:
  - body: adminCreateUserRequest

Response:
  - 201: User: The created account
  - 400: Validation: Invalid input or taken username/email
  - 403: Forbidden: Admin role required
*/
func (handler *Handler) adminCreateUser(writer http.ResponseWriter, request *http.Request) {
	var input adminCreateUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	role, roleOK := sec.ParseRole(input.Role)

	v := &validate.Validator{}
	v.Required("username", input.Username).
		MinLen("username", input.Username, 3).
		MaxLen("username", input.Username, 50).
		Username("username", input.Username).
		Required("email", input.Email).
		Email("email", input.Email).
		Phone("phone", input.Phone).
		Custom("role", !roleOK, "Must be one of: user, moderator, admin")
	validatePassword(v, "password", input.Password)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	user, err := handler.userService.CreateUser(request.Context(), CreateUserInput{
		Username: input.Username,
		Email:    input.Email,
		Phone:    strings.TrimSpace(input.Phone),
		Password: input.Password,
		Role:     role,
		IsActive: isActive,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.CreatedMessage(writer, "User created successfully", user)
}

// adminUpdateUserRequest defines the admin-editable account fields.
type adminUpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

/*
PUT /api/v1/admin/users/{userId}.

Description: Updates any account's identity, role, status, or password.

Request:
  - userId: string (UUID)
  - body: adminUpdateUserRequest (Partial JSON)

Response:
  - 200: User: The updated account
  - 400: Validation: Invalid input or malformed user id
  - 404: NotFound: Unknown account
*/
func (handler *Handler) adminUpdateUser(writer http.ResponseWriter, request *http.Request) {
	userID, err := pathUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input adminUpdateUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	var role *sec.Role
	if input.Username != nil {
		v.MinLen("username", *input.Username, 3).
			MaxLen("username", *input.Username, 50).
			Username("username", *input.Username)
	}
	if input.Email != nil {
		v.Email("email", *input.Email)
	}
	if input.Phone != nil {
		v.Phone("phone", *input.Phone)
	}
	if input.Role != nil {
		parsed, ok := sec.ParseRole(*input.Role)
		v.Custom("role", !ok, "Must be one of: user, moderator, admin")
		if ok {
			role = &parsed
		}
	}
	if input.Password != nil {
		validatePassword(v, "password", *input.Password)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.userService.UpdateUser(request.Context(), userID, UpdateUserInput{
		Username: input.Username,
		Email:    input.Email,
		Phone:    input.Phone,
		Role:     role,
		IsActive: input.IsActive,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "User updated successfully", user)
}

// adminStatusRequest defines the activation toggle payload.
type adminStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

/*
PATCH /api/v1/admin/users/{userId}.

Description: Activates or deactivates an account. Self-deactivation is
rejected.

Request:
  - userId: string (UUID)
  - body: adminStatusRequest

Response:
  - 200: User: The updated account
  - 400: Validation: Missing is_active, malformed user id, or self-deactivation
  - 404: NotFound: Unknown account
*/
func (handler *Handler) adminUpdateUserStatus(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID, err := pathUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input adminStatusRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.IsActive == nil {
		respond.Error(writer, request, validate.RequiredError("is_active", "This field is required"))
		return
	}

	user, err := handler.userService.UpdateUserStatus(request.Context(), actorID, userID, *input.IsActive)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "User status updated successfully", user)
}

/*
DELETE /api/v1/admin/users/{userId}.

Description: Permanently removes an account. Self-deletion is rejected.

Request:
  - userId: string (UUID)

Response:
  - 200: Message: User deleted successfully
  - 400: Validation: Malformed user id or self-deletion attempt
  - 404: NotFound: Unknown account
*/
func (handler *Handler) adminDeleteUser(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID, err := pathUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.userService.DeleteUser(request.Context(), actorID, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OKMessage(writer, "User deleted successfully", nil)
}

// adminVerifyRequest defines the identity-review decision payload.
type adminVerifyRequest struct {
	Verified *bool `json:"verified"`
}

/*
POST /api/v1/users/admin/{userId}/verify.

Description: Approves or rejects a user's pending identity submission.

Request:
  - userId: string (UUID)
  - body: adminVerifyRequest

Response:
  - 200: User: The reviewed account
  - 400: Validation: Missing decision, malformed user id, or nothing submitted
  - 403: Forbidden: Admin role required
  - 404: NotFound: Unknown account
*/
func (handler *Handler) adminVerifyIdentity(writer http.ResponseWriter, request *http.Request) {
	userID, err := pathUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input adminVerifyRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Verified == nil {
		respond.Error(writer, request, validate.RequiredError("verified", "This field must be a boolean"))
		return
	}

	user, err := handler.userService.VerifyIdentity(request.Context(), userID, *input.Verified)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	message := "User identity verified successfully"
	if !*input.Verified {
		message = "User identity verification rejected"
	}

	respond.OKMessage(writer, message, user)
}

/*
GET /api/v1/admin/stats.

Description: Aggregates account counts for the admin dashboard.

Response:
  - 200: Stats: total/active/inactive/admins
  - 403: Forbidden: Admin role required
*/
func (handler *Handler) adminUserStats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.userService.UserStats(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, stats)
}
