// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package blogaccounts

// SetOwnerReferredBy lets tests populate the referral link the real store
// hydrates from its join against users.referred_by.
func SetOwnerReferredBy(account *BlogAccount, referrerID string) {
	account.ownerReferredBy = &referrerID
}
