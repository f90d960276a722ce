// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package accounts

// SetOwnerReferredBy lets tests populate the referral link the real store
// hydrates from its join against users.referred_by.
func SetOwnerReferredBy(account *Account, referrerID string) {
	account.ownerReferredBy = &referrerID
}
