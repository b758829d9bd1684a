package service

import "github.com/google/uuid"

// AllowAllEntitlements grants every plan-gated capability. Billing lives
// outside this service; deployments plug a real implementation in here.
type AllowAllEntitlements struct{}

// CanHavePrivatePage always returns true
func (AllowAllEntitlements) CanHavePrivatePage(ownerUserID uuid.UUID) bool { return true }

// CanInviteToCollabPage always returns true
func (AllowAllEntitlements) CanInviteToCollabPage(ownerUserID uuid.UUID) bool { return true }
