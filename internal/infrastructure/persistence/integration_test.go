//go:build integration

package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/settlement"
	"github.com/messmate/backend/internal/infrastructure/migration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newPostgresDB starts a PostgreSQL container and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("messmate_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)

	m, err := migration.New(sqlDB, "", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return db
}

func TestPostgres_RolloverBlocksConcurrentLedgerWrites(t *testing.T) {
	db := newPostgresDB(t)
	f := seedLedger(t, db)
	store := NewGormSettlementStore(db)
	deposits := NewGormDepositRepository(db)
	ctx := context.Background()
	march, april := mess.MustParsePeriod("2024-03"), mess.MustParsePeriod("2024-04")

	locked := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := store.InTenantTx(ctx, f.mess.ID, func(tx mess.SettlementStore) error {
			ledger, err := tx.LoadLedger(ctx, f.mess.ID)
			if err != nil {
				return err
			}
			close(locked)
			<-release
			a, err := mess.NewSettlementArchive(f.mess.ID, march, settlement.Compute(ledger))
			if err != nil {
				return err
			}
			if err := tx.SaveArchive(ctx, a); err != nil {
				return err
			}
			_, err = tx.ClearAndAdvance(ctx, f.mess.ID, march, april)
			return err
		})
		assert.NoError(t, err)
	}()

	<-locked
	written := make(chan error, 1)
	go func() {
		d, err := mess.NewDeposit(f.mess.ID, f.ana.ID, day(20), decimal.NewFromInt(10), "late")
		if err != nil {
			written <- err
			return
		}
		written <- deposits.Save(ctx, d)
	}()

	select {
	case <-written:
		t.Fatal("ledger write finished while the rollover held the mess lock")
	case <-time.After(300 * time.Millisecond):
	}
	close(release)
	wg.Wait()
	// the March deposit waited for the lock and then saw April open
	assert.ErrorIs(t, <-written, mess.ErrDateOutsidePeriod)

	ledger, err := store.LoadLedger(ctx, f.mess.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger.Deposits)

	a, err := NewGormArchiveRepository(db).FindByPeriod(ctx, f.mess.ID, march)
	require.NoError(t, err)
	assert.True(t, a.TotalDeposits.Equal(decimal.NewFromInt(300)))
}

func TestPostgres_DuplicateArchiveAbortsTransaction(t *testing.T) {
	db := newPostgresDB(t)
	f := seedLedger(t, db)
	store := NewGormSettlementStore(db)
	ctx := context.Background()
	march := mess.MustParsePeriod("2024-03")

	first, err := mess.NewSettlementArchive(f.mess.ID, march, settlement.Statement{})
	require.NoError(t, err)
	require.NoError(t, store.SaveArchive(ctx, first))

	err = store.InTenantTx(ctx, f.mess.ID, func(tx mess.SettlementStore) error {
		second, err := mess.NewSettlementArchive(f.mess.ID, march, settlement.Statement{})
		if err != nil {
			return err
		}
		return tx.SaveArchive(ctx, second)
	})
	assert.ErrorIs(t, err, mess.ErrArchiveExists)

	ledger, err := store.LoadLedger(ctx, f.mess.ID)
	require.NoError(t, err)
	assert.Len(t, ledger.Purchases, 1)
}
