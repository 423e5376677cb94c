package domain

import "time"

const (
	MaxNameLength        = 64
	MaxDescriptionLength = 200
	MaxURLLength         = 200

	DefaultProtocolFeeBps = 100
	MaxProtocolFeeBps     = 1000
	BasisPoints           = 10000

	MinBillingPeriodDays = 7
	MaxBillingPeriodDays = 365

	// NativeUnit is the number of base units in one native unit
	NativeUnit uint64 = 1_000_000_000

	MinStakeAmount = NativeUnit

	// LockPeriods is the number of monthly fees locked as collateral on subscribe
	LockPeriods = 12

	DefaultYieldRateBps = 500
	YieldPeriod         = 24 * time.Hour
	SecondsPerYear      = 365 * 24 * 60 * 60

	// DelegationHaircutBps is what the liquid staking service keeps on delegation
	DelegationHaircutBps = 200

	// ProtocolConfigID is the primary key of the single protocol row
	ProtocolConfigID = 1
)
