// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package blogaccounts_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blognest/blognest/internal/blogaccounts"
	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platform/sec"
	"github.com/blognest/blognest/internal/platforms"
)

// # Test Doubles

// fakeCatalog serves platform schemas from a fixed map.
type fakeCatalog struct {
	platforms map[int64]*platforms.Platform
}

func (f *fakeCatalog) FindByID(_ context.Context, id int64) (*platforms.Platform, error) {
	platform, ok := f.platforms[id]
	if !ok {
		return nil, apperr.NotFound("Platform")
	}
	clone := *platform
	return &clone, nil
}

// fakeFieldCipher marks ciphertext with a prefix instead of real AES so
// tests can distinguish stored from submitted values.
type fakeFieldCipher struct{}

func (fakeFieldCipher) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (fakeFieldCipher) Decrypt(token string) (string, error) {
	if !strings.HasPrefix(token, "enc:") {
		return "", errors.New("not a token")
	}
	return strings.TrimPrefix(token, "enc:"), nil
}

// fakeBlogAccountRepository is an in-memory BlogAccountRepository that
// hydrates accounts the way the real store's joins do.
type fakeBlogAccountRepository struct {
	catalog   *fakeCatalog
	accounts  map[int64]*blogaccounts.BlogAccount
	values    map[int64][]blogaccounts.FieldValue
	referrers map[string]string
	nextID    int64
}

func newFakeBlogAccountRepository(catalog *fakeCatalog) *fakeBlogAccountRepository {
	return &fakeBlogAccountRepository{
		catalog:   catalog,
		accounts:  map[int64]*blogaccounts.BlogAccount{},
		values:    map[int64][]blogaccounts.FieldValue{},
		referrers: map[string]string{},
		nextID:    1,
	}
}

func (f *fakeBlogAccountRepository) Create(_ context.Context, account *blogaccounts.BlogAccount, values []blogaccounts.FieldValue) error {
	account.ID = f.nextID
	f.nextID++
	clone := *account
	f.accounts[account.ID] = &clone

	stored := make([]blogaccounts.FieldValue, len(values))
	for i, value := range values {
		value.ID = f.nextID
		f.nextID++
		value.BlogAccountID = account.ID
		stored[i] = cloneValue(value)
	}
	f.values[account.ID] = stored
	return nil
}

func (f *fakeBlogAccountRepository) FindByID(_ context.Context, id int64) (*blogaccounts.BlogAccount, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, apperr.NotFound("Blog account")
	}
	return f.hydrate(account), nil
}

func (f *fakeBlogAccountRepository) ListByUser(_ context.Context, userID string) ([]blogaccounts.BlogAccount, error) {
	var owned []blogaccounts.BlogAccount
	for _, account := range f.accounts {
		if account.UserID == userID {
			owned = append(owned, *f.hydrate(account))
		}
	}
	return owned, nil
}

func (f *fakeBlogAccountRepository) Update(_ context.Context, account *blogaccounts.BlogAccount, upserts []blogaccounts.FieldValue) error {
	if _, ok := f.accounts[account.ID]; !ok {
		return apperr.NotFound("Blog account")
	}
	clone := *account
	clone.Platform = nil
	clone.FieldData = nil
	f.accounts[account.ID] = &clone

	for _, upsert := range upserts {
		replaced := false
		for i, existing := range f.values[account.ID] {
			if existing.PlatformFieldID == upsert.PlatformFieldID {
				upsert.ID = existing.ID
				upsert.BlogAccountID = account.ID
				f.values[account.ID][i] = cloneValue(upsert)
				replaced = true
				break
			}
		}
		if !replaced {
			upsert.ID = f.nextID
			f.nextID++
			upsert.BlogAccountID = account.ID
			f.values[account.ID] = append(f.values[account.ID], cloneValue(upsert))
		}
	}
	return nil
}

func (f *fakeBlogAccountRepository) Delete(_ context.Context, id int64) error {
	if _, ok := f.accounts[id]; !ok {
		return apperr.NotFound("Blog account")
	}
	delete(f.accounts, id)
	delete(f.values, id)
	return nil
}

// hydrate mirrors the real store: platform, schema, field values, and the
// owner's referral link all attached to a fresh copy.
func (f *fakeBlogAccountRepository) hydrate(account *blogaccounts.BlogAccount) *blogaccounts.BlogAccount {
	clone := *account
	if platform, ok := f.catalog.platforms[account.PlatformID]; ok {
		platformClone := *platform
		clone.Platform = &platformClone
	}
	clone.FieldData = make([]blogaccounts.FieldValue, len(f.values[account.ID]))
	for i, value := range f.values[account.ID] {
		clone.FieldData[i] = cloneValue(value)
	}
	if referrer, ok := f.referrers[account.UserID]; ok {
		blogaccounts.SetOwnerReferredBy(&clone, referrer)
	}
	return &clone
}

func cloneValue(value blogaccounts.FieldValue) blogaccounts.FieldValue {
	if value.Value != nil {
		v := *value.Value
		value.Value = &v
	}
	return value
}

// # Fixtures

// newTistoryCatalog builds a catalog with one active platform (ID 1) whose
// schema has a plain field and an encrypted one, plus an inactive platform
// (ID 2).
func newTistoryCatalog() *fakeCatalog {
	return &fakeCatalog{platforms: map[int64]*platforms.Platform{
		1: {
			ID: 1, Name: "tistory", DisplayName: "Tistory", IsActive: true,
			Fields: []platforms.PlatformField{
				{ID: 10, PlatformID: 1, FieldName: "blog_url", FieldLabel: "Blog URL", FieldType: "url"},
				{ID: 11, PlatformID: 1, FieldName: "api_key", FieldLabel: "API Key", FieldType: "password", IsEncrypted: true},
			},
		},
		2: {ID: 2, Name: "ghost", DisplayName: "Ghost", IsActive: false},
	}}
}

func newTestService(catalog *fakeCatalog, repo blogaccounts.BlogAccountRepository) *blogaccounts.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return blogaccounts.NewService(repo, catalog, fakeFieldCipher{}, logger)
}

func fieldValue(account *blogaccounts.BlogAccount, platformFieldID int64) *blogaccounts.FieldValue {
	for i := range account.FieldData {
		if account.FieldData[i].PlatformFieldID == platformFieldID {
			return &account.FieldData[i]
		}
	}
	return nil
}

// # Creation

/*
TestCreate_PlatformGuards rejects unknown and inactive platforms.
*/
func TestCreate_PlatformGuards(t *testing.T) {
	catalog := newTistoryCatalog()
	service := newTestService(catalog, newFakeBlogAccountRepository(catalog))

	_, err := service.Create(context.Background(), "user-1", blogaccounts.CreateInput{PlatformID: 99})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	_, err = service.Create(context.Background(), "user-1", blogaccounts.CreateInput{PlatformID: 2})
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "Platform is not active", ae.Message)
}

/*
TestCreate_SchemaDrivenEncryption verifies that values for encrypted schema
fields are ciphertext at rest, plain fields pass through, and unknown
field names are dropped.
*/
func TestCreate_SchemaDrivenEncryption(t *testing.T) {
	catalog := newTistoryCatalog()
	repo := newFakeBlogAccountRepository(catalog)
	service := newTestService(catalog, repo)

	created, err := service.Create(context.Background(), "user-1", blogaccounts.CreateInput{
		PlatformID: 1,
		Fields: map[string]string{
			"blog_url": "https://kim.tistory.com",
			"api_key":  "super-secret",
			"stray":    "ignored",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, blogaccounts.SyncStatusPending, created.SyncStatus)
	assert.True(t, created.IsActive)
	require.Len(t, created.FieldData, 2)

	// At rest: plain value verbatim, encrypted value as ciphertext.
	stored := repo.values[created.ID]
	for _, value := range stored {
		switch value.PlatformFieldID {
		case 10:
			assert.Equal(t, "https://kim.tistory.com", *value.Value)
		case 11:
			assert.Equal(t, "enc:super-secret", *value.Value)
			assert.True(t, value.IsEncrypted)
		default:
			t.Fatalf("unexpected stored field %d", value.PlatformFieldID)
		}
	}

	// The owner's response carries the decrypted value.
	apiKey := fieldValue(created, 11)
	require.NotNil(t, apiKey)
	require.NotNil(t, apiKey.Value)
	assert.Equal(t, "super-secret", *apiKey.Value)
}

// # Retrieval

/*
TestGet_EncryptedValueVisibility verifies owners see plaintext while other
authorized readers get encrypted values withheld.
*/
func TestGet_EncryptedValueVisibility(t *testing.T) {
	catalog := newTistoryCatalog()
	repo := newFakeBlogAccountRepository(catalog)
	repo.referrers["user-1"] = "mod-1"
	service := newTestService(catalog, repo)

	created, err := service.Create(context.Background(), "user-1", blogaccounts.CreateInput{
		PlatformID: 1,
		Fields:     map[string]string{"blog_url": "https://kim.tistory.com", "api_key": "super-secret"},
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		actor     blogaccounts.Actor
		wantValue *string
	}{
		{"owner_sees_plaintext", blogaccounts.Actor{ID: "user-1", Role: sec.RoleUser}, strptr("super-secret")},
		{"admin_value_withheld", blogaccounts.Actor{ID: "admin-1", Role: sec.RoleAdmin}, nil},
		{"referring_moderator_value_withheld", blogaccounts.Actor{ID: "mod-1", Role: sec.RoleModerator}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := service.Get(context.Background(), tt.actor, created.ID)
			require.NoError(t, err)

			apiKey := fieldValue(account, 11)
			require.NotNil(t, apiKey)
			if tt.wantValue == nil {
				assert.Nil(t, apiKey.Value)
			} else {
				require.NotNil(t, apiKey.Value)
				assert.Equal(t, *tt.wantValue, *apiKey.Value)
			}

			// Plain values are visible to every authorized reader.
			blogURL := fieldValue(account, 10)
			require.NotNil(t, blogURL)
			require.NotNil(t, blogURL.Value)
			assert.Equal(t, "https://kim.tistory.com", *blogURL.Value)
		})
	}

	t.Run("unrelated_user_forbidden", func(t *testing.T) {
		_, err := service.Get(context.Background(), blogaccounts.Actor{ID: "user-2", Role: sec.RoleUser}, created.ID)
		require.Error(t, err)
		assert.Equal(t, 403, apperr.As(err).HTTPStatus)
	})
}

/*
TestListMine_OnlyOwnRows verifies the listing is scoped to the caller and
decrypted.
*/
func TestListMine_OnlyOwnRows(t *testing.T) {
	catalog := newTistoryCatalog()
	repo := newFakeBlogAccountRepository(catalog)
	service := newTestService(catalog, repo)

	_, err := service.Create(context.Background(), "user-1", blogaccounts.CreateInput{
		PlatformID: 1, Fields: map[string]string{"api_key": "mine"},
	})
	require.NoError(t, err)
	_, err = service.Create(context.Background(), "user-2", blogaccounts.CreateInput{PlatformID: 1})
	require.NoError(t, err)

	mine, err := service.ListMine(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	apiKey := fieldValue(&mine[0], 11)
	require.NotNil(t, apiKey)
	require.NotNil(t, apiKey.Value)
	assert.Equal(t, "mine", *apiKey.Value)
}

// # Mutations

/*
TestUpdate_UpsertsValues verifies submitted values overwrite existing rows
for the same schema field and leave the rest alone.
*/
func TestUpdate_UpsertsValues(t *testing.T) {
	catalog := newTistoryCatalog()
	repo := newFakeBlogAccountRepository(catalog)
	service := newTestService(catalog, repo)
	owner := blogaccounts.Actor{ID: "user-1", Role: sec.RoleUser}

	created, err := service.Create(context.Background(), "user-1", blogaccounts.CreateInput{
		PlatformID: 1,
		Fields:     map[string]string{"blog_url": "https://kim.tistory.com", "api_key": "old-key"},
	})
	require.NoError(t, err)

	name := "Kim's Tistory"
	updated, err := service.Update(context.Background(), owner, created.ID, blogaccounts.UpdateInput{
		AccountName: &name,
		Fields:      map[string]string{"api_key": "new-key"},
	})
	require.NoError(t, err)

	require.NotNil(t, updated.AccountName)
	assert.Equal(t, "Kim's Tistory", *updated.AccountName)
	require.Len(t, updated.FieldData, 2)

	apiKey := fieldValue(updated, 11)
	require.NotNil(t, apiKey)
	require.NotNil(t, apiKey.Value)
	assert.Equal(t, "new-key", *apiKey.Value)

	blogURL := fieldValue(updated, 10)
	require.NotNil(t, blogURL)
	require.NotNil(t, blogURL.Value)
	assert.Equal(t, "https://kim.tistory.com", *blogURL.Value)
}

/*
TestDelete_Policy refuses disconnection for non-owners without admin reach.
*/
func TestDelete_Policy(t *testing.T) {
	catalog := newTistoryCatalog()
	repo := newFakeBlogAccountRepository(catalog)
	service := newTestService(catalog, repo)

	created, err := service.Create(context.Background(), "user-1", blogaccounts.CreateInput{PlatformID: 1})
	require.NoError(t, err)

	err = service.Delete(context.Background(), blogaccounts.Actor{ID: "user-2", Role: sec.RoleUser}, created.ID)
	require.Error(t, err)
	assert.Equal(t, 403, apperr.As(err).HTTPStatus)

	require.NoError(t, service.Delete(context.Background(), blogaccounts.Actor{ID: "user-1", Role: sec.RoleUser}, created.ID))
	_, err = service.Get(context.Background(), blogaccounts.Actor{ID: "user-1", Role: sec.RoleUser}, created.ID)
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestSync_MarksSuccess verifies the stub records a successful sync and
clears any previous error.
*/
func TestSync_MarksSuccess(t *testing.T) {
	catalog := newTistoryCatalog()
	repo := newFakeBlogAccountRepository(catalog)
	service := newTestService(catalog, repo)

	created, err := service.Create(context.Background(), "user-1", blogaccounts.CreateInput{PlatformID: 1})
	require.NoError(t, err)
	assert.Equal(t, blogaccounts.SyncStatusPending, created.SyncStatus)
	assert.Nil(t, created.LastSyncedAt)

	synced, err := service.Sync(context.Background(), blogaccounts.Actor{ID: "user-1", Role: sec.RoleUser}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, blogaccounts.SyncStatusSuccess, synced.SyncStatus)
	assert.Nil(t, synced.SyncErrorMessage)
	assert.NotNil(t, synced.LastSyncedAt)
}

func strptr(s string) *string { return &s }
