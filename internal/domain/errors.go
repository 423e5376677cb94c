package domain

import "errors"

// Kind classifies domain errors for transport mapping
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindBalance       Kind = "balance"
	KindTiming        Kind = "timing"
	KindArithmetic    Kind = "arithmetic"
	KindExternal      Kind = "external"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindState         Kind = "state"
	KindInternal      Kind = "internal"
)

// Error is a classified domain error with a stable code
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// KindOf returns the kind of the first domain error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first domain error in err's chain
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

// Validation errors
var (
	ErrNameTooLong                 = newError(KindValidation, "name_too_long", "name is too long")
	ErrDescriptionTooLong          = newError(KindValidation, "description_too_long", "description is too long")
	ErrURLTooLong                  = newError(KindValidation, "url_too_long", "image url is too long")
	ErrInvalidFeeAmount            = newError(KindValidation, "invalid_fee_amount", "fee amount must be positive")
	ErrInvalidBillingFrequency     = newError(KindValidation, "invalid_billing_frequency", "billing period must be between 7 and 365 days")
	ErrInvalidAmount               = newError(KindValidation, "invalid_amount", "amount must be positive")
	ErrInvalidUserID               = newError(KindValidation, "invalid_user_id", "invalid user ID")
	ErrInvalidProtocolFee          = newError(KindValidation, "invalid_protocol_fee", "protocol fee exceeds maximum")
	ErrCannotSubscribeToOwnService = newError(KindValidation, "cannot_subscribe_to_own_service", "cannot subscribe to own service")
	ErrInvalidProvider             = newError(KindValidation, "invalid_provider", "subscription provider mismatch")
	ErrInvalidServiceID            = newError(KindValidation, "invalid_service_id", "subscription service mismatch")
	ErrMinimumStakeNotMet          = newError(KindValidation, "minimum_stake_not_met", "minimum stake amount not met")
)

// Authorization errors
var (
	ErrUnauthorizedUser      = newError(KindAuthorization, "unauthorized_user", "unauthorized user")
	ErrUnauthorizedAuthority = newError(KindAuthorization, "unauthorized_authority", "unauthorized protocol authority")
	ErrUnauthorizedProvider  = newError(KindAuthorization, "unauthorized_provider", "unauthorized provider")
)

// Balance errors
var (
	ErrInsufficientBalance          = newError(KindBalance, "insufficient_balance", "insufficient balance")
	ErrInsufficientAvailableBalance = newError(KindBalance, "insufficient_available_balance", "insufficient available balance")
	ErrInsufficientStakedFunds      = newError(KindBalance, "insufficient_staked_funds", "insufficient staked funds")
	ErrNoStakedFunds                = newError(KindBalance, "no_staked_funds", "no staked funds")
)

// Timing errors
var (
	ErrPaymentNotDue = newError(KindTiming, "payment_not_due", "payment is not due yet")
)

// Arithmetic errors
var (
	ErrArithmeticOverflow  = newError(KindArithmetic, "arithmetic_overflow", "arithmetic overflow")
	ErrArithmeticUnderflow = newError(KindArithmetic, "arithmetic_underflow", "arithmetic underflow")
)

// External dependency errors
var (
	ErrPriceNotAvailable = newError(KindExternal, "price_not_available", "price not available")
	ErrInvalidPrice      = newError(KindExternal, "invalid_price", "invalid price from oracle")
	ErrStakePoolFailure  = newError(KindExternal, "stake_pool_error", "stake pool operation failed")
)

// Lookup errors
var (
	ErrLedgerNotFound         = newError(KindNotFound, "ledger_not_found", "user ledger not found")
	ErrProviderNotFound       = newError(KindNotFound, "provider_not_found", "provider not found")
	ErrServiceNotFound        = newError(KindNotFound, "service_not_found", "service not found")
	ErrSubscriptionNotFound   = newError(KindNotFound, "subscription_not_found", "subscription not found")
	ErrStakePositionNotFound  = newError(KindNotFound, "stake_position_not_found", "stake position not found")
	ErrCertificateNotFound    = newError(KindNotFound, "certificate_not_found", "certificate not found")
	ErrProtocolNotInitialized = newError(KindNotFound, "protocol_not_initialized", "protocol is not initialized")
)

// Conflict errors
var (
	ErrSubscriptionAlreadyExists  = newError(KindConflict, "subscription_already_exists", "subscription already exists")
	ErrProviderAlreadyExists      = newError(KindConflict, "provider_already_exists", "provider already registered")
	ErrProtocolAlreadyInitialized = newError(KindConflict, "protocol_already_initialized", "protocol already initialized")
)

// State errors
var (
	ErrProtocolPaused         = newError(KindState, "protocol_paused", "protocol is paused")
	ErrServiceNotActive       = newError(KindState, "service_not_active", "service is not active")
	ErrSubscriptionNotActive  = newError(KindState, "subscription_not_active", "subscription is not active")
	ErrStakingNotAvailable    = newError(KindState, "staking_not_available", "staking is not available")
	ErrNoCertificateToDestroy = newError(KindState, "no_certificate_to_destroy", "no certificate to destroy")
)

// ErrDatabaseOperation is returned when database operation fails
var ErrDatabaseOperation = newError(KindInternal, "database_error", "database operation failed")
