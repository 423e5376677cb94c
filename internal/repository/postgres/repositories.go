package postgres

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikm/subly/internal/domain"
)

// ledgerRepository implements domain.LedgerRepository
type ledgerRepository struct {
	*repositories
}

func (r *ledgerRepository) Get(ctx context.Context, owner string) (*domain.UserLedger, error) {
	var ledger domain.UserLedger
	err := r.query(ctx).Where("owner = ?", owner).First(&ledger).Error
	if err != nil {
		return nil, mapError(err, domain.ErrLedgerNotFound)
	}
	return &ledger, nil
}

func (r *ledgerRepository) Save(ctx context.Context, ledger *domain.UserLedger) error {
	err := r.exec(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}},
		DoUpdates: clause.AssignmentColumns([]string{"deposited", "locked", "staked", "updated_at"}),
	}).Create(ledger).Error
	return mapError(err, domain.ErrLedgerNotFound)
}

// providerRepository implements domain.ProviderRepository
type providerRepository struct {
	*repositories
}

func (r *providerRepository) Get(ctx context.Context, owner string) (*domain.Provider, error) {
	var provider domain.Provider
	err := r.query(ctx).Where("owner = ?", owner).First(&provider).Error
	if err != nil {
		return nil, mapError(err, domain.ErrProviderNotFound)
	}
	return &provider, nil
}

func (r *providerRepository) Create(ctx context.Context, provider *domain.Provider) error {
	err := r.exec(ctx).Create(provider).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrProviderAlreadyExists
	}
	return mapError(err, domain.ErrProviderNotFound)
}

func (r *providerRepository) Save(ctx context.Context, provider *domain.Provider) error {
	return mapError(r.exec(ctx).Save(provider).Error, domain.ErrProviderNotFound)
}

// serviceRepository implements domain.ServiceRepository
type serviceRepository struct {
	*repositories
}

func (r *serviceRepository) Get(ctx context.Context, id uint64) (*domain.SubscriptionService, error) {
	var service domain.SubscriptionService
	err := r.query(ctx).Where("id = ?", id).First(&service).Error
	if err != nil {
		return nil, mapError(err, domain.ErrServiceNotFound)
	}
	return &service, nil
}

func (r *serviceRepository) Create(ctx context.Context, service *domain.SubscriptionService) error {
	return mapError(r.exec(ctx).Create(service).Error, domain.ErrServiceNotFound)
}

func (r *serviceRepository) Save(ctx context.Context, service *domain.SubscriptionService) error {
	return mapError(r.exec(ctx).Save(service).Error, domain.ErrServiceNotFound)
}

func (r *serviceRepository) List(ctx context.Context, activeOnly bool) ([]domain.SubscriptionService, error) {
	var services []domain.SubscriptionService
	db := r.exec(ctx).Order("id")
	if activeOnly {
		db = db.Where("active = ?", true)
	}
	if err := db.Find(&services).Error; err != nil {
		return nil, mapError(err, domain.ErrServiceNotFound)
	}
	return services, nil
}

// subscriptionRepository implements domain.SubscriptionRepository
type subscriptionRepository struct {
	*repositories
}

func (r *subscriptionRepository) GetActive(ctx context.Context, key domain.SubscriptionKey) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.query(ctx).
		Where("user_id = ? AND provider_id = ? AND service_id = ? AND active = ?", key.UserID, key.ProviderID, key.ServiceID, true).
		First(&sub).Error
	if err != nil {
		return nil, mapError(err, domain.ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetLatest(ctx context.Context, key domain.SubscriptionKey) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.query(ctx).
		Where("user_id = ? AND provider_id = ? AND service_id = ?", key.UserID, key.ProviderID, key.ServiceID).
		Order("id DESC").
		First(&sub).Error
	if err != nil {
		return nil, mapError(err, domain.ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	err := r.exec(ctx).Create(sub).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrSubscriptionAlreadyExists
	}
	return mapError(err, domain.ErrSubscriptionNotFound)
}

func (r *subscriptionRepository) Save(ctx context.Context, sub *domain.Subscription) error {
	return mapError(r.exec(ctx).Save(sub).Error, domain.ErrSubscriptionNotFound)
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	err := r.exec(ctx).Where("user_id = ?", userID).Order("id").Find(&subs).Error
	if err != nil {
		return nil, mapError(err, domain.ErrSubscriptionNotFound)
	}
	return subs, nil
}

func (r *subscriptionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	db := r.exec(ctx).
		Where("active = ? AND next_payment_due <= ?", true, now).
		Order("next_payment_due, id")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Find(&subs).Error; err != nil {
		return nil, mapError(err, domain.ErrSubscriptionNotFound)
	}
	return subs, nil
}

// stakeRepository implements domain.StakeRepository
type stakeRepository struct {
	*repositories
}

func (r *stakeRepository) Get(ctx context.Context, userID string) (*domain.StakePosition, error) {
	var pos domain.StakePosition
	err := r.query(ctx).Where("user_id = ?", userID).First(&pos).Error
	if err != nil {
		return nil, mapError(err, domain.ErrStakePositionNotFound)
	}
	return &pos, nil
}

func (r *stakeRepository) Save(ctx context.Context, position *domain.StakePosition) error {
	return mapError(r.exec(ctx).Save(position).Error, domain.ErrStakePositionNotFound)
}

// protocolRepository implements domain.ProtocolRepository
type protocolRepository struct {
	*repositories
}

func (r *protocolRepository) Get(ctx context.Context) (*domain.ProtocolConfig, error) {
	return r.load(r.exec(ctx))
}

func (r *protocolRepository) GetForUpdate(ctx context.Context) (*domain.ProtocolConfig, error) {
	return r.load(r.query(ctx))
}

func (r *protocolRepository) load(db *gorm.DB) (*domain.ProtocolConfig, error) {
	var cfg domain.ProtocolConfig
	err := db.Where("id = ?", domain.ProtocolConfigID).First(&cfg).Error
	if err != nil {
		return nil, mapError(err, domain.ErrProtocolNotInitialized)
	}
	return &cfg, nil
}

func (r *protocolRepository) AddTreasury(ctx context.Context, amount uint64) error {
	if amount == 0 {
		return nil
	}
	res := r.exec(ctx).Model(&domain.ProtocolConfig{}).
		Where("id = ? AND treasury_balance <= ?", domain.ProtocolConfigID, uint64(math.MaxUint64)-amount).
		UpdateColumn("treasury_balance", gorm.Expr("treasury_balance + ?", amount))
	if res.Error != nil {
		return mapError(res.Error, domain.ErrProtocolNotInitialized)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx); err != nil {
			return err
		}
		return domain.ErrArithmeticOverflow
	}
	return nil
}

func (r *protocolRepository) Save(ctx context.Context, cfg *domain.ProtocolConfig) error {
	cfg.ID = domain.ProtocolConfigID
	return mapError(r.exec(ctx).Save(cfg).Error, domain.ErrProtocolNotInitialized)
}

// paymentRepository implements domain.PaymentRepository
type paymentRepository struct {
	*repositories
}

func (r *paymentRepository) Create(ctx context.Context, records ...*domain.PaymentRecord) error {
	if len(records) == 0 {
		return nil
	}
	return mapError(r.exec(ctx).Create(records).Error, domain.ErrDatabaseOperation)
}

func (r *paymentRepository) ListBySubscription(ctx context.Context, subscriptionID uint) ([]domain.PaymentRecord, error) {
	var records []domain.PaymentRecord
	err := r.exec(ctx).Where("subscription_id = ?", subscriptionID).Order("paid_at").Find(&records).Error
	if err != nil {
		return nil, mapError(err, domain.ErrDatabaseOperation)
	}
	return records, nil
}

// certificateRepository implements domain.CertificateRepository
type certificateRepository struct {
	*repositories
}

func (r *certificateRepository) Get(ctx context.Context, id string) (*domain.Certificate, error) {
	var cert domain.Certificate
	err := r.query(ctx).Where("id = ?", id).First(&cert).Error
	if err != nil {
		return nil, mapError(err, domain.ErrCertificateNotFound)
	}
	return &cert, nil
}

func (r *certificateRepository) Create(ctx context.Context, cert *domain.Certificate) error {
	return mapError(r.exec(ctx).Create(cert).Error, domain.ErrCertificateNotFound)
}

func (r *certificateRepository) Save(ctx context.Context, cert *domain.Certificate) error {
	return mapError(r.exec(ctx).Save(cert).Error, domain.ErrCertificateNotFound)
}
