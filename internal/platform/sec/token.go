// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package sec

import (
	"crypto/rand"
	"fmt"
	"io"
)

// referralCodeAlphabet excludes visually ambiguous characters (0/O, 1/I)
// because codes are typed by hand during signup.
const referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// referralCodeLength keeps codes short enough to share verbally while leaving
// ~1e12 possible values.
const referralCodeLength = 8

// GenerateReferralCode produces a new random referral code for a
// moderator/admin account.
//
// Uniqueness is enforced by the database constraint, not here; collisions at
// this keyspace are practically unreachable.
func GenerateReferralCode() (string, error) {
	buffer := make([]byte, referralCodeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}

	for i, b := range buffer {
		buffer[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}

	return string(buffer), nil
}
