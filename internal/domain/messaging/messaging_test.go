package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/messaging"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	members  map[uuid.UUID][]uuid.UUID
	managers map[uuid.UUID][]uuid.UUID
	tenants  []uuid.UUID
	err      error
}

func (d *fakeDirectory) ActiveMembers(_ context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	return d.members[tenantID], d.err
}

func (d *fakeDirectory) Managers(_ context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	return d.managers[tenantID], d.err
}

func (d *fakeDirectory) IsMember(_ context.Context, tenantID, memberID uuid.UUID) (bool, error) {
	for _, id := range d.members[tenantID] {
		if id == memberID {
			return true, d.err
		}
	}
	return false, d.err
}

func (d *fakeDirectory) ActiveTenants(context.Context) ([]uuid.UUID, error) {
	return d.tenants, d.err
}

func TestCanSend(t *testing.T) {
	tenantA, tenantB := uuid.New(), uuid.New()
	memberID := uuid.New()

	admin := messaging.AdminParty(uuid.New())
	manager := messaging.ManagerParty(uuid.New(), tenantA)
	member := messaging.MemberParty(memberID, tenantA)
	system := messaging.SystemParty(tenantA)

	tests := []struct {
		name    string
		sender  messaging.Party
		target  messaging.Target
		allowed bool
	}{
		{"admin broadcasts", admin, messaging.GlobalTarget(), true},
		{"admin to any mess", admin, messaging.TenantTarget(tenantB), true},
		{"manager to own mess", manager, messaging.TenantTarget(tenantA), true},
		{"manager to own member", manager, messaging.MemberTarget(tenantA, memberID), true},
		{"manager to other mess", manager, messaging.TenantTarget(tenantB), false},
		{"manager broadcasts", manager, messaging.GlobalTarget(), false},
		{"member to own managers", member, messaging.ManagersTarget(tenantA), true},
		{"member to whole mess", member, messaging.TenantTarget(tenantA), false},
		{"member to other managers", member, messaging.ManagersTarget(tenantB), false},
		{"member to a member", member, messaging.MemberTarget(tenantA, uuid.New()), false},
		{"system to own mess", system, messaging.TenantTarget(tenantA), true},
		{"system broadcasts", system, messaging.GlobalTarget(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := messaging.CanSend(tt.sender, tt.target)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	t.Run("malformed target", func(t *testing.T) {
		err := messaging.CanSend(admin, messaging.Target{Kind: messaging.TargetMember, TenantID: &tenantA})
		assert.Equal(t, "INVALID_TARGET", shared.ErrorCode(err))

		err = messaging.CanSend(admin, messaging.Target{Kind: "everyone"})
		assert.Equal(t, "INVALID_TARGET", shared.ErrorCode(err))
	})
}

func TestResolveRecipients(t *testing.T) {
	tenantA, tenantB := uuid.New(), uuid.New()
	m1, m2, m3, mgrA, mgrB := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	dir := &fakeDirectory{
		members: map[uuid.UUID][]uuid.UUID{
			tenantA: {m1, m2, mgrA},
			tenantB: {m3, mgrB},
		},
		managers: map[uuid.UUID][]uuid.UUID{
			tenantA: {mgrA},
			tenantB: {mgrB},
		},
		tenants: []uuid.UUID{tenantA, tenantB},
	}
	ctx := context.Background()

	t.Run("global reaches every manager", func(t *testing.T) {
		got, err := messaging.ResolveRecipients(ctx, messaging.GlobalTarget(), dir)
		require.NoError(t, err)
		assert.ElementsMatch(t, []messaging.Recipient{
			{TenantID: tenantA, MemberID: mgrA},
			{TenantID: tenantB, MemberID: mgrB},
		}, got)
	})

	t.Run("tenant reaches every active member", func(t *testing.T) {
		got, err := messaging.ResolveRecipients(ctx, messaging.TenantTarget(tenantA), dir)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("managers of one mess", func(t *testing.T) {
		got, err := messaging.ResolveRecipients(ctx, messaging.ManagersTarget(tenantB), dir)
		require.NoError(t, err)
		assert.Equal(t, []messaging.Recipient{{TenantID: tenantB, MemberID: mgrB}}, got)
	})

	t.Run("single member must belong to the mess", func(t *testing.T) {
		got, err := messaging.ResolveRecipients(ctx, messaging.MemberTarget(tenantA, m1), dir)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		_, err = messaging.ResolveRecipients(ctx, messaging.MemberTarget(tenantA, m3), dir)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("directory errors are wrapped", func(t *testing.T) {
		boom := errors.New("db down")
		_, err := messaging.ResolveRecipients(ctx, messaging.TenantTarget(tenantA), &fakeDirectory{err: boom})
		assert.ErrorIs(t, err, boom)
	})
}

func TestMessage_Deliver(t *testing.T) {
	tenantID := uuid.New()
	managerID := uuid.New()
	other := uuid.New()

	msg, err := messaging.NewMessage(messaging.ManagerParty(managerID, tenantID), messaging.TenantTarget(tenantID), "Bazar", "Please deposit by Friday")
	require.NoError(t, err)

	msg.Deliver([]messaging.Recipient{
		{TenantID: tenantID, MemberID: managerID},
		{TenantID: tenantID, MemberID: other},
		{TenantID: tenantID, MemberID: other},
	})
	require.Len(t, msg.Deliveries, 1)
	assert.Equal(t, other, msg.Deliveries[0].MemberID)
	assert.Equal(t, msg.ID, msg.Deliveries[0].MessageID)

	_, err = messaging.NewMessage(messaging.ManagerParty(managerID, tenantID), messaging.TenantTarget(tenantID), "", "   ")
	assert.Equal(t, "INVALID_BODY", shared.ErrorCode(err))
}
