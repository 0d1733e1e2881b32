package atmxgo

import (
	"crypto/subtle"
	"slices"
)

// MaxPINAttempts is the number of consecutive wrong PINs that locks an account.
const MaxPINAttempts = 3

// Account is a card holder's ledger. Only Bank mutates it; callers
// outside the package get clones through read-only getters.
type Account struct {
	cardNumber     string
	name           string
	pin            string
	balance        Money
	failedAttempts int
	locked         bool
	history        []Transaction
}

// NewAccount provisions an account with an empty history.
func NewAccount(cardNumber, name, pin string, balance Money) *Account {
	return &Account{
		cardNumber: cardNumber,
		name:       name,
		pin:        pin,
		balance:    balance,
	}
}

func (a *Account) CardNumber() string  { return a.cardNumber }
func (a *Account) Name() string        { return a.name }
func (a *Account) Balance() Money      { return a.balance }
func (a *Account) FailedAttempts() int { return a.failedAttempts }
func (a *Account) Locked() bool        { return a.locked }

// History returns a copy of the account's records, oldest first.
func (a *Account) History() []Transaction {
	return slices.Clone(a.history)
}

// verifyPIN compares in constant time and never touches lockout state.
func (a *Account) verifyPIN(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(a.pin), []byte(candidate)) == 1
}

func (a *Account) record(tx Transaction) {
	a.history = append(a.history, tx)
}

// applyDelta adds a signed amount to the balance. It refuses to take
// the balance below zero or above MaxMoney and leaves it untouched in
// that case.
func (a *Account) applyDelta(delta Money) error {
	next := a.balance.Add(delta)
	if !next.IsNonNegative() {
		return ErrInsufficientFunds
	}
	if next.Cmp(MaxMoney) > 0 {
		return ErrAmountTooLarge
	}
	a.balance = next
	return nil
}

func (a *Account) clone() *Account {
	cp := *a
	cp.history = slices.Clone(a.history)
	return &cp
}
