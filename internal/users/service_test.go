// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package users_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/internal/users"
	"github.com/blognest/blognest/pkg/pagination"
)

// # Test Doubles

// fakeUserRepository is an in-memory UserRepository.
type fakeUserRepository struct {
	users map[string]*users.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: map[string]*users.User{}}
}

func (f *fakeUserRepository) Create(_ context.Context, user *users.User) error {
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepository) FindByID(_ context.Context, id string) (*users.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepository) FindByUsername(_ context.Context, username string) (*users.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeUserRepository) FindByReferralCode(_ context.Context, code string) (*users.User, error) {
	for _, user := range f.users {
		if user.ReferralCode != nil && *user.ReferralCode == code {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Referral code")
}

func (f *fakeUserRepository) FindEarliestAdmin(_ context.Context) (*users.User, error) {
	var earliest *users.User
	for _, user := range f.users {
		if user.Role != sec.RoleAdmin {
			continue
		}
		if earliest == nil || user.CreatedAt.Before(earliest.CreatedAt) {
			earliest = user
		}
	}
	if earliest == nil {
		return nil, apperr.NotFound("Admin")
	}
	clone := *earliest
	return &clone, nil
}

func (f *fakeUserRepository) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, user := range f.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepository) Update(_ context.Context, user *users.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return apperr.NotFound("User")
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	user, ok := f.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.LastLogin = &at
	return nil
}

func (f *fakeUserRepository) List(_ context.Context, params pagination.Params) ([]users.User, int, error) {
	all := make([]users.User, 0, len(f.users))
	for _, user := range f.users {
		all = append(all, *user)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeUserRepository) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperr.NotFound("User")
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepository) Stats(_ context.Context) (*users.Stats, error) {
	stats := &users.Stats{}
	for _, user := range f.users {
		stats.Total++
		if user.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		if user.Role == sec.RoleAdmin {
			stats.Admins++
		}
	}
	return stats, nil
}

// fakeTokenIssuer returns a deterministic token.
type fakeTokenIssuer struct{}

func (fakeTokenIssuer) GenerateAccessToken(userID string, _ sec.Role) (string, error) {
	return "token-for-" + userID, nil
}

// fakeImageStore records saved and removed paths.
type fakeImageStore struct {
	saved   []string
	removed []string
}

func (f *fakeImageStore) SaveDataURL(userID, _ string) (string, error) {
	path := "/uploads/id_images/" + userID + "_test.png"
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeImageStore) Remove(urlPath string) error {
	f.removed = append(f.removed, urlPath)
	return nil
}

// # Fixtures

func newTestService(repo users.UserRepository) *users.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return users.NewService(repo, fakeTokenIssuer{}, &fakeImageStore{}, logger)
}

// seedUser inserts a user with a bcrypt hash of the given password.
func seedUser(t *testing.T, repo *fakeUserRepository, user users.User, password string) *users.User {
	t.Helper()
	if password != "" {
		hash, err := sec.HashPassword(password)
		require.NoError(t, err)
		user.PasswordHash = hash
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	require.NoError(t, repo.Create(context.Background(), &user))
	return &user
}

func strptr(s string) *string { return &s }

// # Registration & Referral Attribution

/*
TestSignup_ReferralAttribution covers the attribution rules: moderator
codes attach, user-owned codes are rejected, unknown codes are rejected,
and the earliest admin is the fallback referrer.
*/
func TestSignup_ReferralAttribution(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	newRepo := func(t *testing.T) *fakeUserRepository {
		repo := newFakeUserRepository()
		seedUser(t, repo, users.User{
			ID: "admin-old", Username: "admin-old", Email: "old@x.io",
			Role: sec.RoleAdmin, IsActive: true,
			ReferralCode: strptr("ADMINOLD"), CreatedAt: base,
		}, "Aa1!aaaa")
		seedUser(t, repo, users.User{
			ID: "admin-new", Username: "admin-new", Email: "new@x.io",
			Role: sec.RoleAdmin, IsActive: true,
			ReferralCode: strptr("ADMINNEW"), CreatedAt: base.Add(time.Hour),
		}, "Aa1!aaaa")
		seedUser(t, repo, users.User{
			ID: "mod-1", Username: "mod", Email: "mod@x.io",
			Role: sec.RoleModerator, IsActive: true,
			ReferralCode: strptr("MODCODE2"), CreatedAt: base.Add(2 * time.Hour),
		}, "Aa1!aaaa")
		seedUser(t, repo, users.User{
			ID: "user-1", Username: "plain", Email: "plain@x.io",
			Role: sec.RoleUser, IsActive: true,
			ReferralCode: strptr("USERCODE"), CreatedAt: base.Add(3 * time.Hour),
		}, "Aa1!aaaa")
		return repo
	}

	t.Run("moderator_code_attaches", func(t *testing.T) {
		service := newTestService(newRepo(t))
		result, err := service.Signup(context.Background(), users.SignupInput{
			Username: "newbie", Email: "newbie@x.io", Password: "Aa1!aaaa",
			ReferralCode: "MODCODE2",
		})
		require.NoError(t, err)
		require.NotNil(t, result.User.ReferredBy)
		assert.Equal(t, "mod-1", *result.User.ReferredBy)
	})

	t.Run("user_owned_code_rejected", func(t *testing.T) {
		service := newTestService(newRepo(t))
		_, err := service.Signup(context.Background(), users.SignupInput{
			Username: "newbie", Email: "newbie@x.io", Password: "Aa1!aaaa",
			ReferralCode: "USERCODE",
		})
		require.Error(t, err)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "VALIDATION_ERROR", ae.Code)
		assert.Equal(t, "Invalid referral code", ae.Message)
	})

	t.Run("unknown_code_rejected", func(t *testing.T) {
		service := newTestService(newRepo(t))
		_, err := service.Signup(context.Background(), users.SignupInput{
			Username: "newbie", Email: "newbie@x.io", Password: "Aa1!aaaa",
			ReferralCode: "NOPE1234",
		})
		require.Error(t, err)
		assert.Equal(t, "Invalid referral code", apperr.As(err).Message)
	})

	t.Run("no_code_falls_back_to_earliest_admin", func(t *testing.T) {
		service := newTestService(newRepo(t))
		result, err := service.Signup(context.Background(), users.SignupInput{
			Username: "newbie", Email: "newbie@x.io", Password: "Aa1!aaaa",
		})
		require.NoError(t, err)
		require.NotNil(t, result.User.ReferredBy)
		assert.Equal(t, "admin-old", *result.User.ReferredBy)
	})

	t.Run("no_admin_means_no_referrer", func(t *testing.T) {
		service := newTestService(newFakeUserRepository())
		result, err := service.Signup(context.Background(), users.SignupInput{
			Username: "first", Email: "first@x.io", Password: "Aa1!aaaa",
		})
		require.NoError(t, err)
		assert.Nil(t, result.User.ReferredBy)
	})
}

/*
TestSignup_DuplicateIdentity rejects a taken username or email.
*/
func TestSignup_DuplicateIdentity(t *testing.T) {
	repo := newFakeUserRepository()
	seedUser(t, repo, users.User{
		ID: "user-1", Username: "taken", Email: "taken@x.io",
		Role: sec.RoleUser, IsActive: true,
	}, "Aa1!aaaa")
	service := newTestService(repo)

	_, err := service.Signup(context.Background(), users.SignupInput{
		Username: "taken", Email: "other@x.io", Password: "Aa1!aaaa",
	})
	require.Error(t, err)
	assert.Equal(t, "Username or email already exists", apperr.As(err).Message)
}

// # Authentication

/*
TestLogin covers success, credential failures, and the deactivated-account
rejection. Repeated wrong passwords stay 401 — there is no lockout.
*/
func TestLogin(t *testing.T) {
	newRepo := func(t *testing.T) *fakeUserRepository {
		repo := newFakeUserRepository()
		seedUser(t, repo, users.User{
			ID: "user-1", Username: "kim", Email: "kim@x.io",
			Role: sec.RoleUser, IsActive: true,
		}, "Right1!pass")
		seedUser(t, repo, users.User{
			ID: "user-2", Username: "dormant", Email: "dormant@x.io",
			Role: sec.RoleUser, IsActive: false,
		}, "Right1!pass")
		return repo
	}

	t.Run("success_stamps_last_login", func(t *testing.T) {
		repo := newRepo(t)
		service := newTestService(repo)

		result, err := service.Login(context.Background(), "kim", "Right1!pass")
		require.NoError(t, err)
		assert.Equal(t, "token-for-user-1", result.Token)
		require.NotNil(t, result.User.LastLogin)
	})

	t.Run("wrong_password_twice_no_lockout", func(t *testing.T) {
		repo := newRepo(t)
		service := newTestService(repo)

		for range 2 {
			_, err := service.Login(context.Background(), "kim", "wrong-pass")
			require.Error(t, err)
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, 401, ae.HTTPStatus)
		}

		// Still lets the right password in afterwards.
		_, err := service.Login(context.Background(), "kim", "Right1!pass")
		assert.NoError(t, err)
	})

	t.Run("unknown_username_is_401_not_404", func(t *testing.T) {
		service := newTestService(newRepo(t))
		_, err := service.Login(context.Background(), "ghost", "whatever")
		require.Error(t, err)
		assert.Equal(t, 401, apperr.As(err).HTTPStatus)
	})

	t.Run("deactivated_account_rejected", func(t *testing.T) {
		service := newTestService(newRepo(t))
		_, err := service.Login(context.Background(), "dormant", "Right1!pass")
		require.Error(t, err)
		ae := apperr.As(err)
		assert.Equal(t, 401, ae.HTTPStatus)
		assert.Equal(t, "Account is deactivated", ae.Message)
	})
}

/*
TestChangePassword requires the current password before accepting a new one.
*/
func TestChangePassword(t *testing.T) {
	repo := newFakeUserRepository()
	seedUser(t, repo, users.User{
		ID: "user-1", Username: "kim", Email: "kim@x.io",
		Role: sec.RoleUser, IsActive: true,
	}, "Old1!pass")
	service := newTestService(repo)

	err := service.ChangePassword(context.Background(), "user-1", "not-the-old-one", "New1!pass")
	require.Error(t, err)
	assert.Equal(t, "Current password is incorrect", apperr.As(err).Message)

	require.NoError(t, service.ChangePassword(context.Background(), "user-1", "Old1!pass", "New1!pass"))

	_, err = service.Login(context.Background(), "kim", "New1!pass")
	assert.NoError(t, err)
}

// # Admin Console

/*
TestUpdateUserStatus_SelfDeactivationGuard prevents admins from locking
themselves out.
*/
func TestUpdateUserStatus_SelfDeactivationGuard(t *testing.T) {
	repo := newFakeUserRepository()
	seedUser(t, repo, users.User{
		ID: "admin-1", Username: "root", Email: "root@x.io",
		Role: sec.RoleAdmin, IsActive: true,
	}, "Aa1!aaaa")
	seedUser(t, repo, users.User{
		ID: "user-1", Username: "kim", Email: "kim@x.io",
		Role: sec.RoleUser, IsActive: true,
	}, "Aa1!aaaa")
	service := newTestService(repo)

	_, err := service.UpdateUserStatus(context.Background(), "admin-1", "admin-1", false)
	require.Error(t, err)
	assert.Equal(t, "You cannot deactivate your own account", apperr.As(err).Message)

	updated, err := service.UpdateUserStatus(context.Background(), "admin-1", "user-1", false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}

/*
TestDeleteUser_SelfDeletionGuard prevents admins from deleting themselves.
*/
func TestDeleteUser_SelfDeletionGuard(t *testing.T) {
	repo := newFakeUserRepository()
	seedUser(t, repo, users.User{
		ID: "admin-1", Username: "root", Email: "root@x.io",
		Role: sec.RoleAdmin, IsActive: true,
	}, "Aa1!aaaa")
	seedUser(t, repo, users.User{
		ID: "user-1", Username: "kim", Email: "kim@x.io",
		Role: sec.RoleUser, IsActive: true,
	}, "Aa1!aaaa")
	service := newTestService(repo)

	err := service.DeleteUser(context.Background(), "admin-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, "You cannot delete your own account", apperr.As(err).Message)

	require.NoError(t, service.DeleteUser(context.Background(), "admin-1", "user-1"))
	_, err = repo.FindByID(context.Background(), "user-1")
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestCreateUser_ReferralCodeIssue verifies that moderator and admin
accounts receive a generated referral code and plain users do not.
*/
func TestCreateUser_ReferralCodeIssue(t *testing.T) {
	service := newTestService(newFakeUserRepository())

	moderator, err := service.CreateUser(context.Background(), users.CreateUserInput{
		Username: "mod", Email: "mod@x.io", Password: "Aa1!aaaa", Role: sec.RoleModerator,
	})
	require.NoError(t, err)
	require.NotNil(t, moderator.ReferralCode)
	assert.Len(t, *moderator.ReferralCode, 8)

	plain, err := service.CreateUser(context.Background(), users.CreateUserInput{
		Username: "kim", Email: "kim@x.io", Password: "Aa1!aaaa", Role: sec.RoleUser,
	})
	require.NoError(t, err)
	assert.Nil(t, plain.ReferralCode)
}
