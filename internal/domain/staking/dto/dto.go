package dto

// StakeResult is returned by Stake
type StakeResult struct {
	Staked        uint64 `json:"staked"`
	ReceiptTokens uint64 `json:"receipt_tokens"`
}

// UnstakeResult is returned by Unstake
type UnstakeResult struct {
	ReceiptTokens  uint64 `json:"receipt_tokens"`
	Proceeds       uint64 `json:"proceeds"`
	PrincipalMoved uint64 `json:"principal_moved"`
	Gain           uint64 `json:"gain"`
	Loss           uint64 `json:"loss"`
}

// ClaimResult is returned by ClaimYield
type ClaimResult struct {
	Yield          uint64 `json:"yield"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
}

// StakeRequest is the body of POST /staking/stake
type StakeRequest struct {
	Amount uint64 `json:"amount"`
}

// UnstakeRequest is the body of POST /staking/unstake
type UnstakeRequest struct {
	ReceiptAmount uint64 `json:"receipt_amount"`
	ApyBps        uint64 `json:"apy_bps"`
}
