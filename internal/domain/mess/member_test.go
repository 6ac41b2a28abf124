package mess_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMember(t *testing.T) {
	tenantID := uuid.New()

	tests := []struct {
		name     string
		mName    string
		email    string
		phone    string
		wantCode string
	}{
		{"email only", "Rahim", "Rahim@Example.com", "", ""},
		{"phone only", "Karim", "", "+880 1711-000000", ""},
		{"no contact", "Nobody", "", "", "CONTACT_REQUIRED"},
		{"bad email", "Bad", "not-an-email", "", "INVALID_EMAIL"},
		{"short phone", "Short", "", "123", "INVALID_PHONE"},
		{"empty name", "", "a@b.co", "", "INVALID_NAME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := mess.NewMember(tenantID, tt.mName, tt.email, tt.phone)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, shared.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, m.IsActive)
			assert.Equal(t, mess.MemberRoleMember, m.Role)
			assert.Equal(t, tenantID, m.TenantID)
		})
	}

	m, err := mess.NewMember(tenantID, "Rahim", " Rahim@Example.com ", "+880 1711-000000")
	require.NoError(t, err)
	assert.Equal(t, "rahim@example.com", m.Email)
	assert.Equal(t, "+8801711000000", m.Phone)
}

func TestMember_RoleAndActivation(t *testing.T) {
	m, err := mess.NewMember(uuid.New(), "Rahim", "rahim@example.com", "")
	require.NoError(t, err)

	require.NoError(t, m.PromoteToManager())
	assert.True(t, m.IsManager())
	assert.Error(t, m.PromoteToManager())

	require.NoError(t, m.DemoteToMember())
	require.NoError(t, m.Deactivate())
	assert.Error(t, m.Deactivate())
	assert.Error(t, m.PromoteToManager(), "inactive members cannot be promoted")
	require.NoError(t, m.Activate())
}

func TestMealRecord(t *testing.T) {
	day := time.Date(2026, 1, 15, 18, 30, 0, 0, time.UTC)
	r, err := mess.NewMealRecord(uuid.New(), uuid.New(), day, 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), r.Units())
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), r.Date)

	assert.Error(t, r.UpdateCounts(-1, 0, 0))
	assert.Error(t, r.UpdateCounts(0, mess.MaxMealsPerSlot+1, 0))
	require.NoError(t, r.UpdateCounts(0, 0, 0))
	assert.Equal(t, int64(0), r.Units())

	_, err = mess.NewMealRecord(uuid.New(), uuid.Nil, day, 1, 1, 1)
	assert.Error(t, err)
}

func TestLedgerAmounts(t *testing.T) {
	tenantID := uuid.New()
	day := time.Now()

	_, err := mess.NewBazarPurchase(tenantID, day, decimal.NewFromInt(-1), nil, "rice")
	assert.Equal(t, "INVALID_AMOUNT", shared.ErrorCode(err))

	p, err := mess.NewBazarPurchase(tenantID, day, decimal.Zero, nil, " rice ")
	require.NoError(t, err)
	assert.Equal(t, "rice", p.Description)

	_, err = mess.NewDeposit(tenantID, uuid.New(), day, decimal.NewFromFloat(-0.01), "")
	assert.Error(t, err)

	_, err = mess.NewAdditionalCost(tenantID, day, decimal.NewFromInt(100), "")
	assert.Equal(t, "INVALID_DESCRIPTION", shared.ErrorCode(err))

	c, err := mess.NewAdditionalCost(tenantID, day, decimal.NewFromInt(100), "gas bill")
	require.NoError(t, err)
	assert.True(t, c.Amount.Equal(decimal.NewFromInt(100)))
}
