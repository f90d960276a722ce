// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

package sec

// # Authorization Policy

// ResourceOwner describes the ownership facts the policy needs about a
// resource: who owns it, and who (if anyone) referred that owner.
//
// It is deliberately a value type so that services can build it from any
// entity (Account, BlogAccount, User profile) without coupling to storage.
type ResourceOwner struct {
	// OwnerID is the user ID that owns the resource.
	OwnerID string

	// OwnerReferredBy is the ID of the moderator/admin who referred the
	// owner at signup. Empty when the owner has no referrer on record.
	OwnerReferredBy string
}

// CanAccess is the single role-based visibility rule of the system.
//
// # Rules
//   - admin: always allowed.
//   - moderator: allowed if the resource is their own, OR its owner signed
//     up with the moderator's referral code (owner.referred_by == moderator).
//   - user: allowed only for their own resources.
//
// The function is state-free: all facts arrive as arguments, which keeps it
// trivially testable and applicable identically across every resource kind.
func CanAccess(actorID string, actorRole Role, resource ResourceOwner) bool {
	switch actorRole {
	case RoleAdmin:
		return true
	case RoleModerator:
		if resource.OwnerID == actorID {
			return true
		}
		return resource.OwnerReferredBy != "" && resource.OwnerReferredBy == actorID
	default:
		return resource.OwnerID == actorID
	}
}
