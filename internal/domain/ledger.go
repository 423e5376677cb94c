package domain

// Every mutator validates before it writes, so a failed call leaves the
// ledger untouched and deposited >= locked always holds.

// Available returns the liquid balance not reserved as collateral
func (l *UserLedger) Available() uint64 {
	if l.Deposited < l.Locked {
		return 0
	}
	return l.Deposited - l.Locked
}

// Deposit adds amount to the liquid balance
func (l *UserLedger) Deposit(amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return l.Credit(amount)
}

// Withdraw removes amount from the liquid balance
func (l *UserLedger) Withdraw(amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if l.Deposited < amount {
		return ErrInsufficientBalance
	}
	if l.Available() < amount {
		return ErrInsufficientAvailableBalance
	}
	l.Deposited -= amount
	return nil
}

// Lock reserves amount of the liquid balance as collateral
func (l *UserLedger) Lock(amount uint64) error {
	locked, err := AddAmount(l.Locked, amount)
	if err != nil {
		return err
	}
	if locked > l.Deposited {
		return ErrInsufficientAvailableBalance
	}
	l.Locked = locked
	return nil
}

// Unlock releases amount of collateral
func (l *UserLedger) Unlock(amount uint64) error {
	locked, err := SubAmount(l.Locked, amount)
	if err != nil {
		return err
	}
	l.Locked = locked
	return nil
}

// MoveToStaked moves amount from the liquid balance to the staked bucket
func (l *UserLedger) MoveToStaked(amount uint64) error {
	if amount > l.Available() {
		return ErrInsufficientAvailableBalance
	}
	staked, err := AddAmount(l.Staked, amount)
	if err != nil {
		return err
	}
	l.Deposited -= amount
	l.Staked = staked
	return nil
}

// MoveFromStaked moves amount from the staked bucket back to the liquid balance
func (l *UserLedger) MoveFromStaked(amount uint64) error {
	if amount > l.Staked {
		return ErrInsufficientStakedFunds
	}
	deposited, err := AddAmount(l.Deposited, amount)
	if err != nil {
		return err
	}
	l.Staked -= amount
	l.Deposited = deposited
	return nil
}

// Credit adds amount to the liquid balance
func (l *UserLedger) Credit(amount uint64) error {
	deposited, err := AddAmount(l.Deposited, amount)
	if err != nil {
		return err
	}
	l.Deposited = deposited
	return nil
}

// Debit removes amount from the unlocked liquid balance
func (l *UserLedger) Debit(amount uint64) error {
	if amount > l.Available() {
		return ErrInsufficientBalance
	}
	l.Deposited -= amount
	return nil
}

// Balanced reports whether the collateral invariant holds
func (l *UserLedger) Balanced() bool {
	return l.Deposited >= l.Locked
}
