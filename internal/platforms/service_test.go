// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package platforms_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platforms"
)

// # Test Doubles

// fakePlatformRepository is an in-memory PlatformRepository.
type fakePlatformRepository struct {
	platforms map[int64]*platforms.Platform
	nextID    int64
	// linked maps platform IDs to their blog-account count.
	linked map[int64]int
	// listActiveCalls counts repository reads so tests can prove the
	// cache short-circuited them.
	listActiveCalls int
}

func newFakePlatformRepository() *fakePlatformRepository {
	return &fakePlatformRepository{
		platforms: map[int64]*platforms.Platform{},
		nextID:    1,
		linked:    map[int64]int{},
	}
}

func (f *fakePlatformRepository) ListActive(_ context.Context) ([]platforms.Platform, error) {
	f.listActiveCalls++
	active := []platforms.Platform{}
	for _, platform := range f.platforms {
		if platform.IsActive {
			active = append(active, *platform)
		}
	}
	return active, nil
}

func (f *fakePlatformRepository) FindByID(_ context.Context, id int64) (*platforms.Platform, error) {
	platform, ok := f.platforms[id]
	if !ok {
		return nil, apperr.NotFound("Platform")
	}
	clone := *platform
	return &clone, nil
}

func (f *fakePlatformRepository) ListAll(_ context.Context) ([]platforms.Platform, error) {
	all := []platforms.Platform{}
	for _, platform := range f.platforms {
		count := f.linked[platform.ID]
		clone := *platform
		clone.AccountCount = &count
		all = append(all, clone)
	}
	return all, nil
}

func (f *fakePlatformRepository) Create(_ context.Context, platform *platforms.Platform) error {
	for _, existing := range f.platforms {
		if existing.Name == platform.Name {
			return apperr.Conflict("Platform with this name already exists")
		}
	}
	platform.ID = f.nextID
	f.nextID++
	clone := *platform
	f.platforms[platform.ID] = &clone
	return nil
}

func (f *fakePlatformRepository) Update(_ context.Context, platform *platforms.Platform, _ bool) error {
	if _, ok := f.platforms[platform.ID]; !ok {
		return apperr.NotFound("Platform")
	}
	clone := *platform
	f.platforms[platform.ID] = &clone
	return nil
}

func (f *fakePlatformRepository) SetActive(_ context.Context, id int64, active bool) (*platforms.Platform, error) {
	platform, ok := f.platforms[id]
	if !ok {
		return nil, apperr.NotFound("Platform")
	}
	platform.IsActive = active
	clone := *platform
	return &clone, nil
}

func (f *fakePlatformRepository) CountLinkedAccounts(_ context.Context, id int64) (int, error) {
	return f.linked[id], nil
}

func (f *fakePlatformRepository) Delete(_ context.Context, id int64) error {
	if _, ok := f.platforms[id]; !ok {
		return apperr.NotFound("Platform")
	}
	delete(f.platforms, id)
	return nil
}

// fakeCatalogCache is an in-memory CatalogCache tracking invalidations.
type fakeCatalogCache struct {
	entry       []platforms.Platform
	warm        bool
	invalidated int
}

func (f *fakeCatalogCache) GetActive(_ context.Context) ([]platforms.Platform, error) {
	if !f.warm {
		return nil, apperr.NotFound("Cached platform catalog")
	}
	return f.entry, nil
}

func (f *fakeCatalogCache) SetActive(_ context.Context, entry []platforms.Platform) error {
	f.entry = entry
	f.warm = true
	return nil
}

func (f *fakeCatalogCache) Invalidate(_ context.Context) error {
	f.entry = nil
	f.warm = false
	f.invalidated++
	return nil
}

// # Fixtures

func newTestService(repo platforms.PlatformRepository, cache platforms.CatalogCache) *platforms.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return platforms.NewService(repo, cache, logger)
}

func boolptr(b bool) *bool { return &b }

// # Public Catalog

/*
TestListActive_CachePopulationAndHit verifies that a cold cache falls back
to the repository and warms the cache, and that a warm cache skips the
repository entirely.
*/
func TestListActive_CachePopulationAndHit(t *testing.T) {
	repo := newFakePlatformRepository()
	cache := &fakeCatalogCache{}
	service := newTestService(repo, cache)

	_, err := service.Create(context.Background(), platforms.CreateInput{DisplayName: "Naver Blog"})
	require.NoError(t, err)
	_, err = service.Create(context.Background(), platforms.CreateInput{DisplayName: "Ghost", IsActive: boolptr(false)})
	require.NoError(t, err)

	first, err := service.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Equal(t, 1, repo.listActiveCalls)
	assert.True(t, cache.warm)

	second, err := service.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 1)
	// Second read must come from the cache.
	assert.Equal(t, 1, repo.listActiveCalls)
}

// # Admin Curation

/*
TestCreate_Defaults verifies slug-derived machine names, the active-by-
default flag, and submission-order display ordering.
*/
func TestCreate_Defaults(t *testing.T) {
	repo := newFakePlatformRepository()
	cache := &fakeCatalogCache{}
	service := newTestService(repo, cache)

	created, err := service.Create(context.Background(), platforms.CreateInput{
		DisplayName: "Naver Blog",
		Fields: []platforms.FieldInput{
			{FieldName: "blog_url", FieldLabel: "Blog URL", FieldType: "url"},
			{FieldName: "api_key", FieldLabel: "API Key", FieldType: "password", IsEncrypted: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "naver-blog", created.Name)
	assert.True(t, created.IsActive)
	require.Len(t, created.Fields, 2)
	assert.Equal(t, 0, created.Fields[0].DisplayOrder)
	assert.Equal(t, 1, created.Fields[1].DisplayOrder)
	assert.True(t, created.Fields[1].IsEncrypted)
}

/*
TestMutations_InvalidateCache verifies every admin mutation drops the
public catalog cache.
*/
func TestMutations_InvalidateCache(t *testing.T) {
	repo := newFakePlatformRepository()
	cache := &fakeCatalogCache{}
	service := newTestService(repo, cache)

	created, err := service.Create(context.Background(), platforms.CreateInput{DisplayName: "Tistory"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	name := "Tistory Blog"
	_, err = service.Update(context.Background(), created.ID, platforms.UpdateInput{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.invalidated)

	_, err = service.ToggleStatus(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, cache.invalidated)

	require.NoError(t, service.Delete(context.Background(), created.ID))
	assert.Equal(t, 4, cache.invalidated)
}

/*
TestToggleStatus_Flips verifies the flag flips on each call.
*/
func TestToggleStatus_Flips(t *testing.T) {
	repo := newFakePlatformRepository()
	service := newTestService(repo, &fakeCatalogCache{})

	created, err := service.Create(context.Background(), platforms.CreateInput{DisplayName: "Velog"})
	require.NoError(t, err)
	require.True(t, created.IsActive)

	toggled, err := service.ToggleStatus(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = service.ToggleStatus(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
}

/*
TestUpdate_SchemaReplacement verifies a non-nil field set replaces the
schema while nil leaves it untouched.
*/
func TestUpdate_SchemaReplacement(t *testing.T) {
	repo := newFakePlatformRepository()
	service := newTestService(repo, &fakeCatalogCache{})

	created, err := service.Create(context.Background(), platforms.CreateInput{
		DisplayName: "Brunch",
		Fields: []platforms.FieldInput{
			{FieldName: "writer_id", FieldLabel: "Writer ID", FieldType: "text"},
		},
	})
	require.NoError(t, err)

	// nil Fields: schema untouched
	name := "Brunch Story"
	updated, err := service.Update(context.Background(), created.ID, platforms.UpdateInput{DisplayName: &name})
	require.NoError(t, err)
	assert.Len(t, updated.Fields, 1)

	// non-nil Fields: schema replaced wholesale
	updated, err = service.Update(context.Background(), created.ID, platforms.UpdateInput{
		Fields: []platforms.FieldInput{
			{FieldName: "writer_id", FieldLabel: "Writer ID", FieldType: "text"},
			{FieldName: "password", FieldLabel: "Password", FieldType: "password", IsEncrypted: true},
		},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Fields, 2)
}

/*
TestDelete_LinkedAccountGuard refuses deletion while blog accounts still
reference the platform, naming the count.
*/
func TestDelete_LinkedAccountGuard(t *testing.T) {
	repo := newFakePlatformRepository()
	service := newTestService(repo, &fakeCatalogCache{})

	created, err := service.Create(context.Background(), platforms.CreateInput{DisplayName: "Naver Blog"})
	require.NoError(t, err)
	repo.linked[created.ID] = 3

	err = service.Delete(context.Background(), created.ID)
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	assert.Equal(t, "Cannot delete platform: 3 blog account(s) are connected to it", ae.Message)

	// Guard lifts once the accounts are gone.
	repo.linked[created.ID] = 0
	require.NoError(t, service.Delete(context.Background(), created.ID))
}
