// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blognest/blognest/internal/platform/sec"
)

/*
TestHashPassword_RoundTrip verifies bcrypt hashing and verification.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := sec.HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Pass", hash)

	assert.True(t, sec.CheckPasswordHash("Str0ng!Pass", hash))
	assert.False(t, sec.CheckPasswordHash("wrong-password", hash))
	assert.False(t, sec.CheckPasswordHash("", hash))
}

/*
TestTokenService_RoundTrip verifies token generation and verification.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewTokenService("test-secret-at-least-32-bytes-long!!", "blognest.app", time.Hour)
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("user-123", sec.RoleModerator)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, string(sec.RoleModerator), claims.Role)
	assert.Equal(t, "blognest.app", claims.Issuer)
}

/*
TestTokenService_VerifyToken_Rejections checks that tampered, foreign,
and garbage tokens are all rejected.
*/
func TestTokenService_VerifyToken_Rejections(t *testing.T) {
	service, err := sec.NewTokenService("test-secret-at-least-32-bytes-long!!", "blognest.app", time.Hour)
	require.NoError(t, err)

	other, err := sec.NewTokenService("another-secret-also-32-bytes-long!!!", "blognest.app", time.Hour)
	require.NoError(t, err)

	valid, err := service.GenerateAccessToken("user-123", sec.RoleUser)
	require.NoError(t, err)

	foreign, err := other.GenerateAccessToken("user-123", sec.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"wrong_signature", foreign},
		{"tampered_payload", valid[:len(valid)-4] + "AAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifyToken(tt.token)
			assert.Error(t, err)
		})
	}
}

/*
TestTokenService_Expiry verifies that expired tokens fail verification.
*/
func TestTokenService_Expiry(t *testing.T) {
	service, err := sec.NewTokenService("test-secret-at-least-32-bytes-long!!", "blognest.app", -time.Minute)
	require.NoError(t, err)

	token, err := service.GenerateAccessToken("user-123", sec.RoleUser)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}

/*
TestCanAccess covers the full role/ownership decision matrix, including
the moderator's transitive referral reach.
*/
func TestCanAccess(t *testing.T) {
	tests := []struct {
		name     string
		actorID  string
		role     sec.Role
		resource sec.ResourceOwner
		want     bool
	}{
		{"admin_any_resource", "admin-1", sec.RoleAdmin, sec.ResourceOwner{OwnerID: "someone-else"}, true},
		{"user_own_resource", "user-1", sec.RoleUser, sec.ResourceOwner{OwnerID: "user-1"}, true},
		{"user_foreign_resource", "user-1", sec.RoleUser, sec.ResourceOwner{OwnerID: "user-2"}, false},
		{"moderator_own_resource", "mod-1", sec.RoleModerator, sec.ResourceOwner{OwnerID: "mod-1"}, true},
		{"moderator_referred_owner", "mod-1", sec.RoleModerator, sec.ResourceOwner{OwnerID: "user-2", OwnerReferredBy: "mod-1"}, true},
		{"moderator_unrelated_owner", "mod-1", sec.RoleModerator, sec.ResourceOwner{OwnerID: "user-2", OwnerReferredBy: "mod-2"}, false},
		{"moderator_owner_without_referrer", "mod-1", sec.RoleModerator, sec.ResourceOwner{OwnerID: "user-2"}, false},
		{"unknown_role_foreign", "x-1", sec.Role("ghost"), sec.ResourceOwner{OwnerID: "user-2"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sec.CanAccess(tt.actorID, tt.role, tt.resource))
		})
	}
}

/*
TestRole_Hierarchy checks role parsing, comparison, and referral rights.
*/
func TestRole_Hierarchy(t *testing.T) {
	role, ok := sec.ParseRole("moderator")
	require.True(t, ok)
	assert.Equal(t, sec.RoleModerator, role)

	_, ok = sec.ParseRole("superuser")
	assert.False(t, ok)

	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleModerator))
	assert.True(t, sec.RoleModerator.AtLeast(sec.RoleUser))
	assert.False(t, sec.RoleUser.AtLeast(sec.RoleModerator))
	assert.True(t, sec.RoleUser.AtLeast(sec.RoleUser))

	assert.True(t, sec.RoleAdmin.CanRefer())
	assert.True(t, sec.RoleModerator.CanRefer())
	assert.False(t, sec.RoleUser.CanRefer())
}

/*
TestGenerateReferralCode verifies code shape and the ambiguity-free
alphabet (no 0/O or 1/I).
*/
func TestGenerateReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		code, err := sec.GenerateReferralCode()
		require.NoError(t, err)
		assert.Len(t, code, 8)
		assert.False(t, strings.ContainsAny(code, "01OI"))
		seen[code] = true
	}

	// 50 draws from a 32^8 space colliding would indicate a broken RNG.
	assert.Greater(t, len(seen), 45)
}
