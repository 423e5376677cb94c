package dto

import "github.com/yukikm/subly/internal/domain"

// RegisterProviderRequest is the body of POST /catalog/providers
type RegisterProviderRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RegisterServiceRequest is the body of POST /catalog/services
type RegisterServiceRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	FeeFiatCents      uint64 `json:"fee_fiat_cents"`
	BillingPeriodDays uint64 `json:"billing_period_days"`
	ImageURL          string `json:"image_url"`
}

// Validate checks length and range bounds of a new service
func (r RegisterServiceRequest) Validate() error {
	switch {
	case len(r.Name) > domain.MaxNameLength:
		return domain.ErrNameTooLong
	case len(r.Description) > domain.MaxDescriptionLength:
		return domain.ErrDescriptionTooLong
	case len(r.ImageURL) > domain.MaxURLLength:
		return domain.ErrURLTooLong
	case r.FeeFiatCents == 0:
		return domain.ErrInvalidFeeAmount
	case r.BillingPeriodDays < domain.MinBillingPeriodDays || r.BillingPeriodDays > domain.MaxBillingPeriodDays:
		return domain.ErrInvalidBillingFrequency
	}
	return nil
}
