package messaging

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
)

// Recipient is one inbox a message is delivered to
type Recipient struct {
	TenantID uuid.UUID
	MemberID uuid.UUID
}

// Directory answers the lookups recipient resolution needs
type Directory interface {
	ActiveMembers(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
	Managers(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
	IsMember(ctx context.Context, tenantID, memberID uuid.UUID) (bool, error)
	ActiveTenants(ctx context.Context) ([]uuid.UUID, error)
}

// ResolveRecipients expands a target into the inboxes it reaches
func ResolveRecipients(ctx context.Context, target Target, dir Directory) ([]Recipient, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	switch target.Kind {
	case TargetGlobal:
		tenants, err := dir.ActiveTenants(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active tenants: %w", err)
		}
		var out []Recipient
		for _, tenantID := range tenants {
			managers, err := dir.Managers(ctx, tenantID)
			if err != nil {
				return nil, fmt.Errorf("list managers of %s: %w", tenantID, err)
			}
			out = append(out, recipients(tenantID, managers)...)
		}
		return out, nil

	case TargetTenant:
		members, err := dir.ActiveMembers(ctx, *target.TenantID)
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		return recipients(*target.TenantID, members), nil

	case TargetManagers:
		managers, err := dir.Managers(ctx, *target.TenantID)
		if err != nil {
			return nil, fmt.Errorf("list managers: %w", err)
		}
		return recipients(*target.TenantID, managers), nil

	case TargetMember:
		ok, err := dir.IsMember(ctx, *target.TenantID, *target.MemberID)
		if err != nil {
			return nil, fmt.Errorf("look up member: %w", err)
		}
		if !ok {
			return nil, shared.ErrNotFound
		}
		return []Recipient{{TenantID: *target.TenantID, MemberID: *target.MemberID}}, nil
	}

	return nil, shared.NewDomainError("INVALID_TARGET", "Unknown target kind: "+string(target.Kind))
}

func recipients(tenantID uuid.UUID, memberIDs []uuid.UUID) []Recipient {
	out := make([]Recipient, 0, len(memberIDs))
	for _, id := range memberIDs {
		out = append(out, Recipient{TenantID: tenantID, MemberID: id})
	}
	return out
}
