package dto

import "github.com/yukikm/subly/internal/domain"

// SubscribeRequest is the body of subscribe and unsubscribe calls
type SubscribeRequest struct {
	ProviderID string `json:"provider_id"`
	ServiceID  uint64 `json:"service_id"`
}

// SubscribeResult is returned by Subscribe
type SubscribeResult struct {
	Subscription *domain.Subscription `json:"subscription"`
	Certificate  *domain.Certificate  `json:"certificate"`
	RateCents    uint64               `json:"rate_cents"`
}

// UnsubscribeResult is returned by Unsubscribe
type UnsubscribeResult struct {
	Subscription *domain.Subscription `json:"subscription"`
	Unlocked     uint64               `json:"unlocked"`
}

// CheckResult is returned by CheckSubscription
type CheckResult struct {
	Active bool `json:"active"`
}

// AffordableService is one row of ListAffordableServices
type AffordableService struct {
	Service              domain.SubscriptionService `json:"service"`
	MonthlyFeeNative     uint64                     `json:"monthly_fee_native"`
	ExpectedMonthlyYield uint64                     `json:"expected_monthly_yield"`
	CanAfford            bool                       `json:"can_afford"`
}
