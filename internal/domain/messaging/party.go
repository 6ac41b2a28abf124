// Package messaging models messages between the platform admin, mess
// managers and members. Who may write to whom, and who receives a message,
// is decided in exactly one place each: CanSend and ResolveRecipients.
package messaging

import (
	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
)

// PartyKind tags who sent a message
type PartyKind string

const (
	PartyAdmin   PartyKind = "admin"
	PartyManager PartyKind = "manager"
	PartyMember  PartyKind = "member"
	PartySystem  PartyKind = "system"
)

func (k PartyKind) IsValid() bool {
	switch k {
	case PartyAdmin, PartyManager, PartyMember, PartySystem:
		return true
	}
	return false
}

// Party is the sender of a message. AccountID is the login account for
// admins and the member ID for managers and members.
type Party struct {
	Kind      PartyKind  `json:"kind"`
	AccountID uuid.UUID  `json:"account_id"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
}

func AdminParty(accountID uuid.UUID) Party {
	return Party{Kind: PartyAdmin, AccountID: accountID}
}

func ManagerParty(memberID, tenantID uuid.UUID) Party {
	return Party{Kind: PartyManager, AccountID: memberID, TenantID: &tenantID}
}

func MemberParty(memberID, tenantID uuid.UUID) Party {
	return Party{Kind: PartyMember, AccountID: memberID, TenantID: &tenantID}
}

// SystemParty is used for automatic notices, such as settlement summaries
func SystemParty(tenantID uuid.UUID) Party {
	return Party{Kind: PartySystem, TenantID: &tenantID}
}

// TargetKind tags who a message is addressed to
type TargetKind string

const (
	TargetGlobal   TargetKind = "global"   // managers of every active mess
	TargetTenant   TargetKind = "tenant"   // every active member of one mess
	TargetManagers TargetKind = "managers" // managers of one mess
	TargetMember   TargetKind = "member"   // one member
)

func (k TargetKind) IsValid() bool {
	switch k {
	case TargetGlobal, TargetTenant, TargetManagers, TargetMember:
		return true
	}
	return false
}

// Target is the addressee of a message
type Target struct {
	Kind     TargetKind `json:"kind"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
	MemberID *uuid.UUID `json:"member_id,omitempty"`
}

func GlobalTarget() Target {
	return Target{Kind: TargetGlobal}
}

func TenantTarget(tenantID uuid.UUID) Target {
	return Target{Kind: TargetTenant, TenantID: &tenantID}
}

func ManagersTarget(tenantID uuid.UUID) Target {
	return Target{Kind: TargetManagers, TenantID: &tenantID}
}

func MemberTarget(tenantID, memberID uuid.UUID) Target {
	return Target{Kind: TargetMember, TenantID: &tenantID, MemberID: &memberID}
}

// Validate checks that the fields required by Kind are present
func (t Target) Validate() error {
	switch t.Kind {
	case TargetGlobal:
		if t.TenantID != nil || t.MemberID != nil {
			return shared.NewDomainError("INVALID_TARGET", "Global messages cannot name a mess or member")
		}
	case TargetTenant, TargetManagers:
		if t.TenantID == nil {
			return shared.NewDomainError("INVALID_TARGET", "Mess is required")
		}
	case TargetMember:
		if t.TenantID == nil || t.MemberID == nil {
			return shared.NewDomainError("INVALID_TARGET", "Mess and member are required")
		}
	default:
		return shared.NewDomainError("INVALID_TARGET", "Unknown target kind: "+string(t.Kind))
	}
	return nil
}

// CanSend is the single authorization rule for messaging:
// admins may write to any target, managers to anyone in their own mess,
// members only to the managers of their own mess.
func CanSend(sender Party, target Target) error {
	if err := target.Validate(); err != nil {
		return err
	}

	switch sender.Kind {
	case PartyAdmin:
		return nil
	case PartySystem:
		if target.Kind == TargetGlobal || !sameTenant(sender, target) {
			return shared.ErrForbidden
		}
		return nil
	case PartyManager:
		if target.Kind == TargetGlobal {
			return shared.NewDomainError("FORBIDDEN", "Only the platform admin can broadcast to every mess")
		}
		if !sameTenant(sender, target) {
			return shared.NewDomainError("FORBIDDEN", "Managers can only message their own mess")
		}
		return nil
	case PartyMember:
		if target.Kind != TargetManagers || !sameTenant(sender, target) {
			return shared.NewDomainError("FORBIDDEN", "Members can only message the managers of their mess")
		}
		return nil
	default:
		return shared.NewDomainError("INVALID_SENDER", "Unknown sender kind: "+string(sender.Kind))
	}
}

func sameTenant(sender Party, target Target) bool {
	return sender.TenantID != nil && target.TenantID != nil && *sender.TenantID == *target.TenantID
}
