// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blognest/blognest/pkg/slug"
)

/*
TestFrom covers the slug pipeline: lowercasing, accent stripping, symbol
replacement, and hyphen cleanup.
*/
func TestFrom(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Naver Blog", "naver-blog"},
		{"already_slug", "tistory", "tistory"},
		{"accents", "Médium Café", "medium-cafe"},
		{"symbols", "Ghost (self-hosted)!", "ghost-self-hosted"},
		{"collapsed_hyphens", "A  --  B", "a-b"},
		{"leading_trailing", "  WordPress  ", "wordpress"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.From(tt.input))
		})
	}
}
