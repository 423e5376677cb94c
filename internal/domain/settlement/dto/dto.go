package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/yukikm/subly/internal/domain"
)

// BatchResult is the price checkpoint of a scan
type BatchResult struct {
	BatchID   uuid.UUID                `json:"batch_id"`
	RateCents uint64                   `json:"rate_cents"`
	StartedAt time.Time                `json:"started_at"`
	Due       []domain.SubscriptionKey `json:"due"`
}

// PaymentResult describes one settled billing cycle
type PaymentResult struct {
	SubscriptionID uint                   `json:"subscription_id"`
	Key            domain.SubscriptionKey `json:"key"`
	FeeNative      uint64                 `json:"fee_native"`
	ProviderShare  uint64                 `json:"provider_share"`
	ProtocolFee    uint64                 `json:"protocol_fee"`
	RateCents      uint64                 `json:"rate_cents"`
	PaymentsMade   uint64                 `json:"payments_made"`
	NextPaymentDue time.Time              `json:"next_payment_due"`
}

// CycleReport summarises a scan followed by its executions
type CycleReport struct {
	BatchID  uuid.UUID      `json:"batch_id"`
	Due      int            `json:"due"`
	Settled  int            `json:"settled"`
	Failed   int            `json:"failed"`
	Skipped  int            `json:"skipped"`
	Failures map[string]int `json:"failures,omitempty"`
}

// ExecuteRequest is the body of POST /settlement/execute
type ExecuteRequest struct {
	UserID     string     `json:"user_id"`
	ProviderID string     `json:"provider_id"`
	ServiceID  uint64     `json:"service_id"`
	BatchID    *uuid.UUID `json:"batch_id,omitempty"`
}

// Key returns the subscription triple of the request
func (r ExecuteRequest) Key() domain.SubscriptionKey {
	return domain.SubscriptionKey{UserID: r.UserID, ProviderID: r.ProviderID, ServiceID: r.ServiceID}
}
