// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package accounts_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blognest/blognest/internal/accounts"
	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platform/fieldcrypt"
	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/pkg/pagination"
)

// # Test Doubles

// fakeAccountRepository is an in-memory AccountRepository.
type fakeAccountRepository struct {
	accounts map[string]*accounts.Account
	// referrers maps owner IDs to their referrer, mimicking the join the
	// real store performs against users.referred_by.
	referrers map[string]string
}

func newFakeAccountRepository() *fakeAccountRepository {
	return &fakeAccountRepository{
		accounts:  map[string]*accounts.Account{},
		referrers: map[string]string{},
	}
}

func (f *fakeAccountRepository) Create(_ context.Context, account *accounts.Account) error {
	clone := *account
	f.accounts[account.ID] = &clone
	return nil
}

func (f *fakeAccountRepository) FindByID(_ context.Context, id string) (*accounts.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	clone := *account
	if referrer, ok := f.referrers[account.UserID]; ok {
		accounts.SetOwnerReferredBy(&clone, referrer)
	}
	return &clone, nil
}

func (f *fakeAccountRepository) ExistsByURL(_ context.Context, url string) (bool, error) {
	for _, account := range f.accounts {
		if account.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAccountRepository) List(_ context.Context, filter accounts.ListFilter) ([]accounts.Account, int, error) {
	visible := []accounts.Account{}
	for _, account := range f.accounts {
		switch filter.ActorRole {
		case sec.RoleAdmin:
			// Unrestricted.
		case sec.RoleModerator:
			if account.UserID != filter.ActorID && f.referrers[account.UserID] != filter.ActorID {
				continue
			}
		default:
			if account.UserID != filter.ActorID {
				continue
			}
		}
		if filter.Platform != "" && account.Platform != filter.Platform {
			continue
		}
		visible = append(visible, *account)
	}
	return visible, len(visible), nil
}

func (f *fakeAccountRepository) Update(_ context.Context, account *accounts.Account) error {
	if _, ok := f.accounts[account.ID]; !ok {
		return apperr.NotFound("Account")
	}
	clone := *account
	f.accounts[account.ID] = &clone
	return nil
}

func (f *fakeAccountRepository) Delete(_ context.Context, id string) error {
	if _, ok := f.accounts[id]; !ok {
		return apperr.NotFound("Account")
	}
	delete(f.accounts, id)
	return nil
}

// # Fixtures

const cipherKey = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T, repo accounts.AccountRepository) *accounts.Service {
	t.Helper()
	cipher, err := fieldcrypt.New(cipherKey)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return accounts.NewService(repo, cipher, logger)
}

func strptr(s string) *string { return &s }

// # Creation

/*
TestCreate_DuplicateURL rejects a URL that any owner already registered.
*/
func TestCreate_DuplicateURL(t *testing.T) {
	repo := newFakeAccountRepository()
	service := newTestService(t, repo)

	_, err := service.Create(context.Background(), "user-1", accounts.CreateInput{
		Name: "My Blog", Platform: "naver", URL: "https://blog.naver.com/kim",
	})
	require.NoError(t, err)

	// Same URL, different owner.
	_, err = service.Create(context.Background(), "user-2", accounts.CreateInput{
		Name: "Copycat", Platform: "naver", URL: "https://blog.naver.com/kim",
	})
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	assert.Equal(t, "An account with this URL already exists", ae.Message)
}

/*
TestCreate_EncryptsCredentials verifies credentials are ciphertext at rest
and decrypted only on the owner's detail read.
*/
func TestCreate_EncryptsCredentials(t *testing.T) {
	repo := newFakeAccountRepository()
	service := newTestService(t, repo)

	created, err := service.Create(context.Background(), "user-1", accounts.CreateInput{
		Name: "My Blog", Platform: "tistory", URL: "https://kim.tistory.com",
		Credentials: strptr("login-secret"),
	})
	require.NoError(t, err)

	stored := repo.accounts[created.ID]
	require.NotNil(t, stored.CredentialsEncrypted)
	assert.NotContains(t, *stored.CredentialsEncrypted, "login-secret")
	assert.Contains(t, *stored.CredentialsEncrypted, ":")

	owner := accounts.Actor{ID: "user-1", Role: sec.RoleUser}
	detail, err := service.Get(context.Background(), owner, created.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Credentials)
	assert.Equal(t, "login-secret", *detail.Credentials)

	admin := accounts.Actor{ID: "admin-1", Role: sec.RoleAdmin}
	adminView, err := service.Get(context.Background(), admin, created.ID)
	require.NoError(t, err)
	assert.Nil(t, adminView.Credentials)
}

// # Access Policy

/*
TestGet_Policy covers the role matrix on detail reads: owners and admins
pass, moderators reach referred owners only, strangers are refused.
*/
func TestGet_Policy(t *testing.T) {
	repo := newFakeAccountRepository()
	repo.referrers["user-1"] = "mod-1"
	service := newTestService(t, repo)

	created, err := service.Create(context.Background(), "user-1", accounts.CreateInput{
		Name: "My Blog", Platform: "velog", URL: "https://velog.io/@kim",
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		actor accounts.Actor
		allow bool
	}{
		{"owner", accounts.Actor{ID: "user-1", Role: sec.RoleUser}, true},
		{"admin", accounts.Actor{ID: "admin-1", Role: sec.RoleAdmin}, true},
		{"referring_moderator", accounts.Actor{ID: "mod-1", Role: sec.RoleModerator}, true},
		{"unrelated_moderator", accounts.Actor{ID: "mod-2", Role: sec.RoleModerator}, false},
		{"other_user", accounts.Actor{ID: "user-2", Role: sec.RoleUser}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Get(context.Background(), tt.actor, created.ID)
			if tt.allow {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, 403, apperr.As(err).HTTPStatus)
			}
		})
	}
}

/*
TestList_RoleScoping verifies row visibility per role and that plain users
never receive owner summaries.
*/
func TestList_RoleScoping(t *testing.T) {
	repo := newFakeAccountRepository()
	repo.referrers["user-1"] = "mod-1"
	service := newTestService(t, repo)

	seed := []struct {
		owner string
		url   string
	}{
		{"user-1", "https://blog.naver.com/one"},
		{"user-2", "https://blog.naver.com/two"},
		{"mod-1", "https://blog.naver.com/mod"},
	}
	for _, s := range seed {
		_, err := service.Create(context.Background(), s.owner, accounts.CreateInput{
			Name: "Blog", Platform: "naver", URL: s.url,
		})
		require.NoError(t, err)
	}

	page := pagination.Params{Page: 1, Limit: 20}

	adminRows, _, err := service.List(context.Background(), accounts.Actor{ID: "admin-1", Role: sec.RoleAdmin}, accounts.ListQuery{Page: page})
	require.NoError(t, err)
	assert.Len(t, adminRows, 3)

	modRows, _, err := service.List(context.Background(), accounts.Actor{ID: "mod-1", Role: sec.RoleModerator}, accounts.ListQuery{Page: page})
	require.NoError(t, err)
	assert.Len(t, modRows, 2) // own + referred user-1

	userRows, _, err := service.List(context.Background(), accounts.Actor{ID: "user-1", Role: sec.RoleUser}, accounts.ListQuery{Page: page})
	require.NoError(t, err)
	require.Len(t, userRows, 1)
	assert.Nil(t, userRows[0].Owner)
	assert.True(t, strings.HasSuffix(userRows[0].URL, "/one"))
}

// # Mutations

/*
TestUpdate_ClearsCredentials verifies that an empty credentials string
drops the stored ciphertext while nil leaves it untouched.
*/
func TestUpdate_ClearsCredentials(t *testing.T) {
	repo := newFakeAccountRepository()
	service := newTestService(t, repo)
	owner := accounts.Actor{ID: "user-1", Role: sec.RoleUser}

	created, err := service.Create(context.Background(), "user-1", accounts.CreateInput{
		Name: "My Blog", Platform: "brunch", URL: "https://brunch.co.kr/@kim",
		Credentials: strptr("secret"),
	})
	require.NoError(t, err)

	// nil leaves ciphertext alone
	_, err = service.Update(context.Background(), owner, created.ID, accounts.UpdateInput{Name: strptr("Renamed")})
	require.NoError(t, err)
	assert.NotNil(t, repo.accounts[created.ID].CredentialsEncrypted)

	// empty string clears it
	_, err = service.Update(context.Background(), owner, created.ID, accounts.UpdateInput{Credentials: strptr("")})
	require.NoError(t, err)
	assert.Nil(t, repo.accounts[created.ID].CredentialsEncrypted)
}

/*
TestDelete_Policy refuses deletion for non-owners without admin reach.
*/
func TestDelete_Policy(t *testing.T) {
	repo := newFakeAccountRepository()
	service := newTestService(t, repo)

	created, err := service.Create(context.Background(), "user-1", accounts.CreateInput{
		Name: "My Blog", Platform: "naver", URL: "https://blog.naver.com/kim",
	})
	require.NoError(t, err)

	err = service.Delete(context.Background(), accounts.Actor{ID: "user-2", Role: sec.RoleUser}, created.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.As(err).HTTPStatus)

	require.NoError(t, service.Delete(context.Background(), accounts.Actor{ID: "user-1", Role: sec.RoleUser}, created.ID))
	_, err = repo.FindByID(context.Background(), created.ID)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestSync_StampsLastSynced verifies the stub records a sync time.
*/
func TestSync_StampsLastSynced(t *testing.T) {
	repo := newFakeAccountRepository()
	service := newTestService(t, repo)

	created, err := service.Create(context.Background(), "user-1", accounts.CreateInput{
		Name: "My Blog", Platform: "naver", URL: "https://blog.naver.com/kim",
	})
	require.NoError(t, err)
	assert.Nil(t, created.LastSynced)

	synced, err := service.Sync(context.Background(), accounts.Actor{ID: "user-1", Role: sec.RoleUser}, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, synced.LastSynced)
}
