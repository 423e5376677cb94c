package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikm/subly/internal/domain"
)

func TestStore_RollbackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Reader().Ledgers().Save(ctx, &domain.UserLedger{Owner: "alice", Deposited: 100}))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		l, err := repos.Ledgers().Get(ctx, "alice")
		require.NoError(t, err)
		l.Deposited = 1
		require.NoError(t, repos.Ledgers().Save(ctx, l))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	l, err := store.Reader().Ledgers().Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), l.Deposited)
}

func TestStore_CommitOnSuccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		return repos.Ledgers().Save(ctx, &domain.UserLedger{Owner: "bob", Deposited: 7})
	})
	require.NoError(t, err)

	l, err := store.Reader().Ledgers().Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), l.Deposited)
}

func TestSubscriptionRepository_ActiveUniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.Reader().Subscriptions()
	key := domain.SubscriptionKey{UserID: "u", ProviderID: "p", ServiceID: 1}

	first := &domain.Subscription{UserID: "u", ProviderID: "p", ServiceID: 1, Active: true}
	require.NoError(t, repo.Create(ctx, first))

	dup := &domain.Subscription{UserID: "u", ProviderID: "p", ServiceID: 1, Active: true}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrSubscriptionAlreadyExists)

	first.Active = false
	require.NoError(t, repo.Save(ctx, first))

	second := &domain.Subscription{UserID: "u", ProviderID: "p", ServiceID: 1, Active: true}
	require.NoError(t, repo.Create(ctx, second))

	latest, err := repo.GetLatest(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestSubscriptionRepository_ListDue(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	repo := store.Reader().Subscriptions()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, due := range []time.Time{now.Add(time.Hour), now, now.Add(-time.Hour)} {
		sub := &domain.Subscription{UserID: "u", ProviderID: "p", ServiceID: uint64(i), Active: true, NextPaymentDue: due}
		require.NoError(t, repo.Create(ctx, sub))
	}

	due, err := repo.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, uint64(2), due[0].ServiceID)
	assert.Equal(t, uint64(1), due[1].ServiceID)
}

func TestProtocolRepository_AddTreasury(t *testing.T) {
	ctx := context.Background()

	t.Run("not initialized", func(t *testing.T) {
		store := NewStore()
		err := store.Reader().Protocol().AddTreasury(ctx, 10)
		assert.ErrorIs(t, err, domain.ErrProtocolNotInitialized)
	})

	t.Run("credits without touching other fields", func(t *testing.T) {
		store := NewStore()
		require.NoError(t, store.Reader().Protocol().Save(ctx, &domain.ProtocolConfig{
			AuthorityID:     "authority",
			ProtocolFeeBps:  300,
			TreasuryBalance: 5,
		}))

		err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			return repos.Protocol().AddTreasury(ctx, 7)
		})
		require.NoError(t, err)

		cfg, err := store.Reader().Protocol().GetForUpdate(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(12), cfg.TreasuryBalance)
		assert.Equal(t, uint64(300), cfg.ProtocolFeeBps)
		assert.Equal(t, "authority", cfg.AuthorityID)
	})

	t.Run("overflow leaves balance", func(t *testing.T) {
		store := NewStore()
		require.NoError(t, store.Reader().Protocol().Save(ctx, &domain.ProtocolConfig{TreasuryBalance: ^uint64(0) - 1}))

		err := store.Reader().Protocol().AddTreasury(ctx, 2)
		assert.ErrorIs(t, err, domain.ErrArithmeticOverflow)

		cfg, err := store.Reader().Protocol().Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, ^uint64(0)-1, cfg.TreasuryBalance)
	})

	t.Run("rolled back with the transaction", func(t *testing.T) {
		store := NewStore()
		require.NoError(t, store.Reader().Protocol().Save(ctx, &domain.ProtocolConfig{TreasuryBalance: 1}))

		boom := errors.New("boom")
		err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			require.NoError(t, repos.Protocol().AddTreasury(ctx, 9))
			return boom
		})
		require.ErrorIs(t, err, boom)

		cfg, err := store.Reader().Protocol().Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), cfg.TreasuryBalance)
	})
}
