// Package testkit holds fakes shared by use case tests.
package testkit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/yukikm/subly/internal/domain"
	"github.com/yukikm/subly/internal/infrastructure/metrics"
	"github.com/yukikm/subly/internal/repository/memory"
)

// Authority is the protocol authority seeded by NewStore
const Authority = "authority"

// Epoch is the default start time of Clock
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Clock is a settable domain.Clock
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: Epoch}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Message is a recorded publish call
type Message struct {
	Topic string
	Key   string
	Event any
}

// Publisher records published events
type Publisher struct {
	mu       sync.Mutex
	Messages []Message
	Err      error
}

func (p *Publisher) SendToTopic(ctx context.Context, topic string, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Messages = append(p.Messages, Message{Topic: topic, Key: key, Event: event})
	return p.Err
}

// Topics returns the topics published so far in order
func (p *Publisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, 0, len(p.Messages))
	for _, m := range p.Messages {
		topics = append(topics, m.Topic)
	}
	return topics
}

// Rates is a settable domain.RateProvider
type Rates struct {
	mu    sync.Mutex
	Rate  domain.Rate
	Err   error
	Calls int
}

func NewRates(cents uint64) *Rates {
	return &Rates{Rate: domain.Rate{Cents: cents, PublishTime: Epoch}}
}

func (r *Rates) SubscribeRate(ctx context.Context) (domain.Rate, error) {
	return r.get()
}

func (r *Rates) SettlementRate(ctx context.Context) (domain.Rate, error) {
	return r.get()
}

func (r *Rates) Set(cents uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rate.Cents = cents
	r.Err = err
}

func (r *Rates) get() (domain.Rate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if r.Err != nil {
		return domain.Rate{}, r.Err
	}
	return r.Rate, nil
}

// NewMetrics returns metrics bound to a private registry
func NewMetrics() *metrics.Metrics {
	return metrics.NewMetrics(prometheus.NewRegistry())
}

// NewStore returns a memory store with an initialized, unpaused protocol
func NewStore(t *testing.T) *memory.Store {
	t.Helper()

	store := memory.NewStore()
	err := store.Reader().Protocol().Save(context.Background(), &domain.ProtocolConfig{
		AuthorityID:    Authority,
		ProtocolFeeBps: domain.DefaultProtocolFeeBps,
		OracleRef:      "oracle",
		StakingRef:     "staking",
		YieldRateBps:   domain.DefaultYieldRateBps,
	})
	require.NoError(t, err)
	return store
}

// Fund creates or overwrites a ledger
func Fund(t *testing.T, store domain.Store, ledger domain.UserLedger) {
	t.Helper()
	require.NoError(t, store.Reader().Ledgers().Save(context.Background(), &ledger))
}

// Ledger loads a committed ledger
func Ledger(t *testing.T, store domain.Store, owner string) *domain.UserLedger {
	t.Helper()
	l, err := store.Reader().Ledgers().Get(context.Background(), owner)
	require.NoError(t, err)
	return l
}

// SetPaused flips the pause flag directly
func SetPaused(t *testing.T, store domain.Store, paused bool) {
	t.Helper()
	ctx := context.Background()
	cfg, err := store.Reader().Protocol().Get(ctx)
	require.NoError(t, err)
	cfg.Paused = paused
	require.NoError(t, store.Reader().Protocol().Save(ctx, cfg))
}

// Position creates or overwrites a stake position
func Position(t *testing.T, store domain.Store, pos domain.StakePosition) {
	t.Helper()
	require.NoError(t, store.Reader().Stakes().Save(context.Background(), &pos))
}

// Pool is a domain.StakingPool that records every call. It mints receipts
// one to one unless Inner is set.
type Pool struct {
	mu          sync.Mutex
	Inner       domain.StakingPool
	Delegated   uint64
	Undelegated uint64
	Calls       int
}

func (p *Pool) Delegate(ctx context.Context, amount uint64) (uint64, error) {
	p.mu.Lock()
	p.Calls++
	p.Delegated += amount
	p.mu.Unlock()
	if p.Inner != nil {
		return p.Inner.Delegate(ctx, amount)
	}
	return amount, nil
}

func (p *Pool) Undelegate(ctx context.Context, receipts uint64) (uint64, error) {
	p.mu.Lock()
	p.Calls++
	p.Undelegated += receipts
	p.mu.Unlock()
	if p.Inner != nil {
		return p.Inner.Undelegate(ctx, receipts)
	}
	return receipts, nil
}
