package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/messaging"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormMessageRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewGormMessageRepository(db)
	dir := NewGormDirectory(db)

	m := seedMess(t, db, "inbox")
	manager := seedMember(t, db, m.ID, "Mina", "mina@example.com", day(1))
	require.NoError(t, manager.PromoteToManager())
	require.NoError(t, NewGormMemberRepository(db).Save(ctx, manager))
	ana := seedMember(t, db, m.ID, "Ana", "ana@example.com", day(2))
	bob := seedMember(t, db, m.ID, "Bob", "bob@example.com", day(3))

	msg, err := messaging.NewMessage(messaging.ManagerParty(manager.ID, m.ID), messaging.TenantTarget(m.ID), "Bazar", "Deposit by Friday")
	require.NoError(t, err)
	recipients, err := messaging.ResolveRecipients(ctx, msg.Target, dir)
	require.NoError(t, err)
	msg.Deliver(recipients)
	require.Len(t, msg.Deliveries, 2)
	require.NoError(t, repo.Save(ctx, msg))

	t.Run("inbox of a recipient", func(t *testing.T) {
		items, total, err := repo.Inbox(ctx, ana.ID, false, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, msg.ID, items[0].MessageID)
		assert.Equal(t, messaging.PartyManager, items[0].Sender.Kind)
		assert.Equal(t, manager.ID, items[0].Sender.AccountID)
		assert.Nil(t, items[0].ReadAt)
	})

	t.Run("sender gets no delivery", func(t *testing.T) {
		_, total, err := repo.Inbox(ctx, manager.ID, false, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("mark read", func(t *testing.T) {
		items, _, err := repo.Inbox(ctx, bob.ID, true, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, items, 1)
		deliveryID := items[0].DeliveryID

		assert.ErrorIs(t, repo.MarkRead(ctx, ana.ID, deliveryID, time.Now()), shared.ErrNotFound)
		require.NoError(t, repo.MarkRead(ctx, bob.ID, deliveryID, time.Now()))
		require.NoError(t, repo.MarkRead(ctx, bob.ID, deliveryID, time.Now()))

		_, unread, err := repo.Inbox(ctx, bob.ID, true, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Zero(t, unread)
	})

	t.Run("sent box", func(t *testing.T) {
		sent, total, err := repo.Sent(ctx, manager.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, sent[0].Deliveries, 2)
	})
}

func TestGormDirectory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	dir := NewGormDirectory(db)

	m := seedMess(t, db, "dir")
	ana := seedMember(t, db, m.ID, "Ana", "ana@example.com", day(1))
	bob := seedMember(t, db, m.ID, "Bob", "bob@example.com", day(2))
	require.NoError(t, bob.Deactivate())
	require.NoError(t, NewGormMemberRepository(db).Save(ctx, bob))

	active, err := dir.ActiveMembers(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ana.ID}, active)

	ok, err := dir.IsMember(ctx, m.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	tenants, err := dir.ActiveTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m.ID}, tenants)
}
