// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blognest/blognest/internal/platform/apperr"
	"github.com/blognest/blognest/internal/platform/validate"
)

/*
TestValidator_PassingChain verifies that a chain with only satisfied rules
yields no error.
*/
func TestValidator_PassingChain(t *testing.T) {
	v := &validate.Validator{}
	err := v.
		Required("username", "kimcoder").
		Username("username", "kimcoder").
		MinLen("username", "kimcoder", 3).
		MaxLen("username", "kimcoder", 30).
		Email("email", "kim@blognest.app").
		URL("blog_url", "https://kim.tistory.com").
		OneOf("role", "moderator", "user", "moderator", "admin").
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

/*
TestValidator_CollectsAllFailures verifies that every failed rule appears
in the details of the single returned error.
*/
func TestValidator_CollectsAllFailures(t *testing.T) {
	v := &validate.Validator{}
	err := v.
		Required("username", "   ").
		Email("email", "not-an-email").
		URL("blog_url", "ftp://wrong-scheme.example").
		OneOf("role", "superuser", "user", "moderator", "admin").
		Custom("display_order", -1 < 0, "Must not be negative").
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	assert.Equal(t, "Validation failed", ae.Message)
	require.Len(t, ae.Details, 5)

	fields := make([]string, len(ae.Details))
	for i, detail := range ae.Details {
		fields[i] = detail.Field
	}
	assert.Equal(t, []string{"username", "email", "blog_url", "role", "display_order"}, fields)
}

/*
TestValidator_Rules covers individual rule edge cases.
*/
func TestValidator_Rules(t *testing.T) {
	tests := []struct {
		name  string
		chain func(v *validate.Validator) *validate.Validator
		fails bool
	}{
		{"required_whitespace_only", func(v *validate.Validator) *validate.Validator {
			return v.Required("f", " \t ")
		}, true},
		{"maxlen_counts_runes", func(v *validate.Validator) *validate.Validator {
			return v.MaxLen("f", "한국어블로그", 6)
		}, false},
		{"minlen_counts_runes", func(v *validate.Validator) *validate.Validator {
			return v.MinLen("f", "한국", 3)
		}, true},
		{"range_inclusive_bounds", func(v *validate.Validator) *validate.Validator {
			return v.Range("f", 100, 1, 100)
		}, false},
		{"range_above_max", func(v *validate.Validator) *validate.Validator {
			return v.Range("f", 101, 1, 100)
		}, true},
		{"username_rejects_symbols", func(v *validate.Validator) *validate.Validator {
			return v.Username("f", "kim_coder")
		}, true},
		{"phone_allows_separators", func(v *validate.Validator) *validate.Validator {
			return v.Phone("f", "+82-10-1234-5678")
		}, false},
		{"phone_rejects_letters", func(v *validate.Validator) *validate.Validator {
			return v.Phone("f", "call me")
		}, true},
		{"url_requires_host", func(v *validate.Validator) *validate.Validator {
			return v.URL("f", "https://")
		}, true},
		{"uuid_case_insensitive", func(v *validate.Validator) *validate.Validator {
			return v.UUID("f", "0190A6E2-37AA-7CD1-92B5-2C9A1C1E2F3D")
		}, false},
		{"uuid_rejects_short", func(v *validate.Validator) *validate.Validator {
			return v.UUID("f", "0190a6e2-37aa")
		}, true},
		{"custom_passes_when_not_failed", func(v *validate.Validator) *validate.Validator {
			return v.Custom("f", false, "never added")
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			assert.Equal(t, tt.fails, tt.chain(v).HasErrors())
		})
	}
}

/*
TestRequiredError verifies the single-field shortcut.
*/
func TestRequiredError(t *testing.T) {
	err := validate.RequiredError("referral_code", "Invalid referral code")
	require.Len(t, err.Details, 1)
	assert.Equal(t, "referral_code", err.Details[0].Field)
	assert.Equal(t, "Invalid referral code", err.Details[0].Message)
}
