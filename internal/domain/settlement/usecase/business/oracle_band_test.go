package business

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikm/subly/config"
	"github.com/yukikm/subly/internal/domain"
	certbusiness "github.com/yukikm/subly/internal/domain/certificate/usecase/business"
	oraclebusiness "github.com/yukikm/subly/internal/domain/oracle/usecase/business"
	subdto "github.com/yukikm/subly/internal/domain/subscription/dto"
	subbusiness "github.com/yukikm/subly/internal/domain/subscription/usecase/business"
	"github.com/yukikm/subly/internal/testkit"
)

type quoteSource struct {
	quote domain.PriceQuote
}

func (s *quoteSource) Latest(ctx context.Context) (domain.PriceQuote, error) {
	return s.quote, nil
}

// Every consumer of the oracle rejects an out-of-band price the same way.
func TestOutOfBandPriceRejectedByEveryConsumer(t *testing.T) {
	prices := []struct {
		name  string
		cents int64
	}{
		{"below $10", 999},
		{"above $1000", 100001},
	}

	for _, p := range prices {
		t.Run(p.name, func(t *testing.T) {
			ctx := context.Background()
			store := testkit.NewStore(t)
			clock := testkit.NewClock()
			source := &quoteSource{quote: domain.PriceQuote{Price: p.cents, Expo: -2, PublishTime: clock.Now()}}
			rates := oraclebusiness.NewUseCase(source, clock, &config.OracleConfig{
				SubscribeMaxAge:  time.Hour,
				SettlementMaxAge: 5 * time.Minute,
				MinPriceCents:    1000,
				MaxPriceCents:    100000,
			}, testkit.NewMetrics(), zerolog.Nop())

			require.NoError(t, store.Reader().Providers().Create(ctx, &domain.Provider{Owner: provider}))
			require.NoError(t, store.Reader().Services().Create(ctx, &domain.SubscriptionService{
				ID: 0, ProviderID: provider, FeeFiatCents: 500, BillingPeriodDays: 30, Active: true,
			}))
			testkit.Fund(t, store, domain.UserLedger{Owner: user, Deposited: 100 * domain.NativeUnit})
			require.NoError(t, store.Reader().Subscriptions().Create(ctx, &domain.Subscription{
				UserID: "bob", ProviderID: provider, ServiceID: 0, NextPaymentDue: clock.Now(), Active: true,
			}))

			subs := subbusiness.NewUseCase(store, rates,
				certbusiness.NewUseCase(store, clock, zerolog.Nop()),
				clock, &testkit.Publisher{}, testkit.NewMetrics(), zerolog.Nop())
			settle := NewUseCase(store, rates, clock, &testkit.Publisher{}, testkit.NewMetrics(),
				&config.SettlementConfig{BatchSize: 10}, zerolog.Nop())

			_, err := subs.Subscribe(ctx, user, subdto.SubscribeRequest{ProviderID: provider, ServiceID: 0})
			assert.ErrorIs(t, err, domain.ErrInvalidPrice)

			_, err = subs.ListAffordableServices(ctx, user, 700)
			assert.ErrorIs(t, err, domain.ErrInvalidPrice)

			_, err = settle.RunBatch(ctx)
			assert.ErrorIs(t, err, domain.ErrInvalidPrice)

			_, err = settle.ExecutePayment(ctx, domain.SubscriptionKey{UserID: "bob", ProviderID: provider, ServiceID: 0}, nil)
			assert.ErrorIs(t, err, domain.ErrInvalidPrice)
		})
	}
}
