package dto

// SetFeeRequest is the body of POST /protocol/fee
type SetFeeRequest struct {
	FeeBps uint64 `json:"fee_bps"`
}

// SetPausedRequest is the body of POST /protocol/pause
type SetPausedRequest struct {
	Paused bool `json:"paused"`
}

// InitializeRequest is the body of POST /protocol/initialize
type InitializeRequest struct {
	OracleRef  string `json:"oracle_ref"`
	StakingRef string `json:"staking_ref"`
}
