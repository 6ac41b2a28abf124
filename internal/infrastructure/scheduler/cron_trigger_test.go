package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseMonthlySchedule(t *testing.T) {
	tests := []struct {
		name     string
		cronExpr string
		expected MonthlySchedule
		wantErr  bool
	}{
		{name: "Default", cronExpr: "5 0 1 * *", expected: MonthlySchedule{Minute: 5, Hour: 0, Day: 1}},
		{name: "Empty string defaults", cronExpr: "", expected: MonthlySchedule{Minute: 5, Hour: 0, Day: 1}},
		{name: "Mid month", cronExpr: "30 3 15 * *", expected: MonthlySchedule{Minute: 30, Hour: 3, Day: 15}},
		{name: "Extra whitespace", cronExpr: "  0   23   28  *  * ", expected: MonthlySchedule{Minute: 0, Hour: 23, Day: 28}},
		{name: "Too few fields", cronExpr: "0 2 * *", wantErr: true},
		{name: "Daily schedule", cronExpr: "0 2 * * *", wantErr: true},
		{name: "Month restricted", cronExpr: "0 0 1 6 *", wantErr: true},
		{name: "Minute out of range", cronExpr: "60 0 1 * *", wantErr: true},
		{name: "Hour out of range", cronExpr: "0 24 1 * *", wantErr: true},
		{name: "Day 29", cronExpr: "0 0 29 * *", wantErr: true},
		{name: "Day zero", cronExpr: "0 0 0 * *", wantErr: true},
		{name: "Step syntax", cronExpr: "*/5 0 1 * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthlySchedule(tt.cronExpr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMonthlySchedule_LastAndNext(t *testing.T) {
	schedule := MonthlySchedule{Minute: 5, Hour: 0, Day: 1}
	loc, err := time.LoadLocation("Asia/Dhaka")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 5, 0, 0, loc), schedule.Last(time.Date(2024, 4, 1, 0, 4, 0, 0, loc)))
	assert.Equal(t, time.Date(2024, 4, 1, 0, 5, 0, 0, loc), schedule.Last(time.Date(2024, 4, 1, 0, 5, 0, 0, loc)))
	assert.Equal(t, time.Date(2024, 4, 1, 0, 5, 0, 0, loc), schedule.Last(time.Date(2024, 4, 30, 23, 0, 0, 0, loc)))
	assert.Equal(t, time.Date(2023, 12, 1, 0, 5, 0, 0, loc), schedule.Last(time.Date(2024, 1, 1, 0, 0, 0, 0, loc)))

	midMonth := MonthlySchedule{Minute: 0, Hour: 3, Day: 28}
	assert.Equal(t, time.Date(2024, 2, 28, 3, 0, 0, 0, loc), midMonth.Last(time.Date(2024, 3, 27, 9, 0, 0, 0, loc)))
	assert.Equal(t, time.Date(2024, 3, 28, 3, 0, 0, 0, loc), midMonth.Next(time.Date(2024, 2, 29, 9, 0, 0, 0, loc)))

	assert.Equal(t, time.Date(2024, 4, 1, 0, 5, 0, 0, loc), schedule.Next(time.Date(2024, 3, 20, 9, 0, 0, 0, loc)))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 5, 0, 0, loc), schedule.Next(time.Date(2024, 4, 1, 0, 5, 0, 0, loc)))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 5, 0, 0, loc), schedule.Next(time.Date(2024, 12, 31, 23, 0, 0, 0, loc)))
	assert.Equal(t, "5 0 1 * *", schedule.String())
}

type mockTenantProvider struct {
	mock.Mock
}

func (m *mockTenantProvider) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if ids := args.Get(0); ids != nil {
		return ids.([]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCronTrigger_CheckAndTrigger(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Dhaka")
	require.NoError(t, err)

	tenants := []uuid.UUID{uuid.New(), uuid.New()}
	provider := new(mockTenantProvider)
	provider.On("ListActiveIDs", mock.Anything).Return(tenants, nil).Once()

	exec := &recordingExecutor{}
	s := startScheduler(t, testConfig(), exec)

	cfg := DefaultCronTriggerConfig()
	cfg.Location = loc
	trigger := NewCronTrigger(cfg, s, provider, newTestLogger())

	// 2024-03-31 18:10 UTC is 2024-04-01 00:10 in Dhaka
	now := time.Date(2024, 3, 31, 18, 10, 0, 0, time.UTC)
	trigger.now = func() time.Time { return now }

	assert.True(t, trigger.checkAndTrigger(context.Background()))
	now = now.Add(36 * time.Hour)
	assert.False(t, trigger.checkAndTrigger(context.Background()), "fires once per period")

	require.Eventually(t, func() bool { return len(exec.calls()) == 2 }, time.Second, 5*time.Millisecond)
	for _, job := range exec.calls() {
		assert.Equal(t, mess.MustParsePeriod("2024-04"), job.Target)
		assert.Equal(t, TriggerCron, job.Trigger)
	}
	provider.AssertExpectations(t)

	status := trigger.GetStatus()
	assert.Equal(t, "2024-04", status["last_target"])
	assert.Equal(t, time.Date(2024, 5, 1, 0, 5, 0, 0, loc), status["next_run_at"])
}

func TestCronTrigger_CatchesUpMissedDay(t *testing.T) {
	tenant := uuid.New()
	provider := new(mockTenantProvider)
	provider.On("ListActiveIDs", mock.Anything).Return([]uuid.UUID{tenant}, nil).Twice()

	exec := &recordingExecutor{}
	s := startScheduler(t, testConfig(), exec)
	trigger := NewCronTrigger(DefaultCronTriggerConfig(), s, provider, newTestLogger())

	// March was rolled over on time, then the process was down on 1 April
	now := time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC)
	trigger.now = func() time.Time { return now }
	require.True(t, trigger.checkAndTrigger(context.Background()))
	require.Eventually(t, func() bool { return len(exec.calls()) == 1 }, time.Second, 5*time.Millisecond)

	var fired []time.Time
	for day := 2; day <= 30; day++ {
		now = time.Date(2024, 4, day, 12, 0, 0, 0, time.UTC)
		if trigger.checkAndTrigger(context.Background()) {
			fired = append(fired, now)
		}
	}
	assert.Equal(t, []time.Time{time.Date(2024, 4, 2, 12, 0, 0, 0, time.UTC)}, fired)

	require.Eventually(t, func() bool { return len(exec.calls()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, mess.MustParsePeriod("2024-03"), exec.calls()[0].Target)
	assert.Equal(t, mess.MustParsePeriod("2024-04"), exec.calls()[1].Target)
	provider.AssertExpectations(t)
}

func TestCronTrigger_WaitsForScheduledInstant(t *testing.T) {
	provider := new(mockTenantProvider)
	provider.On("ListActiveIDs", mock.Anything).Return([]uuid.UUID{}, nil).Once()
	s := NewScheduler(testConfig(), &recordingExecutor{}, newTestLogger())
	trigger := NewCronTrigger(DefaultCronTriggerConfig(), s, provider, newTestLogger())

	now := time.Date(2024, 4, 1, 0, 4, 0, 0, time.UTC)
	trigger.now = func() time.Time { return now }
	require.True(t, trigger.checkAndTrigger(context.Background()))
	assert.Equal(t, "2024-03", trigger.GetStatus()["last_target"], "before 00:05 the last instant is in March")

	assert.False(t, trigger.checkAndTrigger(context.Background()))
	provider.AssertExpectations(t)
}

func TestCronTrigger_ProviderError(t *testing.T) {
	provider := new(mockTenantProvider)
	provider.On("ListActiveIDs", mock.Anything).Return(nil, errors.New("db down"))

	s := startScheduler(t, testConfig(), &recordingExecutor{})
	trigger := NewCronTrigger(DefaultCronTriggerConfig(), s, provider, newTestLogger())

	err := trigger.Trigger(context.Background(), mess.MustParsePeriod("2024-04"), TriggerManual)
	assert.ErrorContains(t, err, "db down")
}

func TestCronTrigger_RetriesAfterListingFailure(t *testing.T) {
	provider := new(mockTenantProvider)
	provider.On("ListActiveIDs", mock.Anything).Return(nil, errors.New("db down")).Once()
	provider.On("ListActiveIDs", mock.Anything).Return([]uuid.UUID{}, nil).Once()
	s := NewScheduler(testConfig(), &recordingExecutor{}, newTestLogger())
	trigger := NewCronTrigger(DefaultCronTriggerConfig(), s, provider, newTestLogger())
	trigger.now = func() time.Time { return time.Date(2024, 4, 3, 8, 0, 0, 0, time.UTC) }

	assert.True(t, trigger.checkAndTrigger(context.Background()))
	assert.True(t, trigger.checkAndTrigger(context.Background()), "listing failed, nothing was queued")
	assert.False(t, trigger.checkAndTrigger(context.Background()))
	provider.AssertExpectations(t)
}

func TestCronTrigger_StartStop(t *testing.T) {
	s := NewScheduler(testConfig(), &recordingExecutor{}, newTestLogger())
	cfg := DefaultCronTriggerConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	provider := new(mockTenantProvider)
	provider.On("ListActiveIDs", mock.Anything).Return([]uuid.UUID{}, nil).Once()
	trigger := NewCronTrigger(cfg, s, provider, newTestLogger())
	trigger.now = func() time.Time { return time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()))
	assert.Equal(t, true, trigger.GetStatus()["running"])

	// startup check catches up on the April instant without waiting for a tick
	require.Eventually(t, func() bool {
		return trigger.GetStatus()["last_target"] == "2024-04"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, trigger.Stop(context.Background()))
	assert.Equal(t, false, trigger.GetStatus()["running"])
	provider.AssertExpectations(t)
}
