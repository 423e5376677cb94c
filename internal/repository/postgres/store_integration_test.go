//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/infrastructure/database"
)

// Run with:
//
//	SUBLY_TEST_DATABASE_DSN="host=localhost port=5432 user=postgres password=postgres dbname=subly sslmode=disable" \
//	  go test -tags=integration ./internal/repository/postgres/...
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("SUBLY_TEST_DATABASE_DSN")
	if dsn == "" || testing.Short() {
		t.Skip("SUBLY_TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = database.RunMigrations(db, &config.DatabaseConfig{
		DBName:         "subly",
		MigrationsPath: "file://../../../migrations",
	})
	require.NoError(t, err)

	return NewStore(db)
}

func uniqueOwner(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func TestStore_LedgerRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := uniqueOwner("user")

	err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		_, err := repos.Ledgers().Get(ctx, owner)
		require.ErrorIs(t, err, domain.ErrLedgerNotFound)
		return repos.Ledgers().Save(ctx, &domain.UserLedger{Owner: owner, Deposited: 5_000_000_000, Locked: 1_000_000_000})
	})
	require.NoError(t, err)

	ledger, err := store.Reader().Ledgers().Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000_000), ledger.Deposited)
	assert.Equal(t, uint64(4_000_000_000), ledger.Available())
}

func TestStore_RollbackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := uniqueOwner("user")
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := repos.Ledgers().Save(ctx, &domain.UserLedger{Owner: owner, Deposited: 1}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Reader().Ledgers().Get(ctx, owner)
	assert.ErrorIs(t, err, domain.ErrLedgerNotFound)
}

func TestStore_SubscriptionLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	provider := uniqueOwner("provider")
	user := uniqueOwner("user")
	now := time.Now().UTC().Truncate(time.Second)
	serviceID := uint64(now.UnixNano())

	key := domain.SubscriptionKey{UserID: user, ProviderID: provider, ServiceID: serviceID}

	err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := repos.Providers().Create(ctx, &domain.Provider{Owner: provider, Name: "p", CreatedAt: now}); err != nil {
			return err
		}
		if err := repos.Services().Create(ctx, &domain.SubscriptionService{
			ID:                serviceID,
			ProviderID:        provider,
			Name:              "svc",
			FeeFiatCents:      1500,
			BillingPeriodDays: 30,
			Active:            true,
			CreatedAt:         now,
		}); err != nil {
			return err
		}
		return repos.Subscriptions().Create(ctx, &domain.Subscription{
			UserID:         user,
			ProviderID:     provider,
			ServiceID:      serviceID,
			SubscribedAt:   now,
			NextPaymentDue: now.Add(-time.Minute),
			Active:         true,
		})
	})
	require.NoError(t, err)

	t.Run("duplicate active triple", func(t *testing.T) {
		err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			return repos.Subscriptions().Create(ctx, &domain.Subscription{
				UserID: user, ProviderID: provider, ServiceID: serviceID,
				SubscribedAt: now, NextPaymentDue: now, Active: true,
			})
		})
		assert.ErrorIs(t, err, domain.ErrSubscriptionAlreadyExists)
	})

	t.Run("due listing", func(t *testing.T) {
		due, err := store.Reader().Subscriptions().ListDue(ctx, now, 0)
		require.NoError(t, err)

		found := false
		for _, s := range due {
			if s.Key() == key {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("cancel then resubscribe", func(t *testing.T) {
		err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			sub, err := repos.Subscriptions().GetActive(ctx, key)
			if err != nil {
				return err
			}
			sub.Active = false
			sub.CancelledAt = &now
			if err := repos.Subscriptions().Save(ctx, sub); err != nil {
				return err
			}
			return repos.Subscriptions().Create(ctx, &domain.Subscription{
				UserID: user, ProviderID: provider, ServiceID: serviceID,
				SubscribedAt: now, NextPaymentDue: now.Add(time.Hour), Active: true,
			})
		})
		require.NoError(t, err)

		latest, err := store.Reader().Subscriptions().GetLatest(ctx, key)
		require.NoError(t, err)
		assert.True(t, latest.Active)

		all, err := store.Reader().Subscriptions().ListByUser(ctx, user)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func ensureProtocol(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Reader().Protocol().Get(ctx)
	if errors.Is(err, domain.ErrProtocolNotInitialized) {
		err = store.Reader().Protocol().Save(ctx, &domain.ProtocolConfig{
			AuthorityID:    uniqueOwner("authority"),
			ProtocolFeeBps: 300,
			OracleRef:      "oracle",
			StakingRef:     "staking",
			YieldRateBps:   500,
		})
	}
	require.NoError(t, err)
}

func TestProtocol_ReadsDoNotWaitOnLockedRow(t *testing.T) {
	store := newTestStore(t)
	ensureProtocol(t, store)
	ctx := context.Background()

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			if _, err := repos.Protocol().GetForUpdate(ctx); err != nil {
				close(locked)
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := store.WithinTx(readCtx, func(ctx context.Context, repos domain.Repositories) error {
		_, err := repos.Protocol().Get(ctx)
		return err
	})
	close(release)

	assert.NoError(t, err)
	require.NoError(t, <-done)
}

func TestProtocol_AddTreasuryConcurrent(t *testing.T) {
	store := newTestStore(t)
	ensureProtocol(t, store)
	ctx := context.Background()

	before, err := store.Reader().Protocol().Get(ctx)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
				return repos.Protocol().AddTreasury(ctx, 3)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	after, err := store.Reader().Protocol().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.TreasuryBalance+3*workers, after.TreasuryBalance)
}
