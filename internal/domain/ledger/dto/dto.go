package dto

// Balance is the ledger view returned to callers
type Balance struct {
	Owner     string `json:"owner"`
	Deposited uint64 `json:"deposited"`
	Locked    uint64 `json:"locked"`
	Staked    uint64 `json:"staked"`
	Available uint64 `json:"available"`
	// Display is the available balance in native units, e.g. "1.25"
	Display string `json:"display"`
}

// WithdrawResult reports a withdrawal and any staking unwind it needed
type WithdrawResult struct {
	Balance
	Withdrawn        uint64 `json:"withdrawn"`
	UnstakedReceipts uint64 `json:"unstaked_receipts,omitempty"`
	UnstakedProceeds uint64 `json:"unstaked_proceeds,omitempty"`
}

// DepositRequest is the body of POST /ledger/deposit
type DepositRequest struct {
	Amount uint64 `json:"amount"`
}

// WithdrawRequest is the body of POST /ledger/withdraw
type WithdrawRequest struct {
	Amount uint64 `json:"amount"`
	ApyBps uint64 `json:"apy_bps"`
}
