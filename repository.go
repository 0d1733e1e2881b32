package atmxgo

import (
	"errors"
	"fmt"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/arhyth/atmxgo Store

// Store persists the whole account collection.
//
// Load returns ErrStoreNotFound when nothing has been persisted yet and
// ErrCorruptStore when the persisted data is malformed. Save must be
// all-or-nothing: after a failed Save the previous contents are intact.
// Implementations assume a single process owns the store.
type Store interface {
	Load() (map[string]*Account, error)
	Save(accts map[string]*Account) error
}

// DefaultAccounts returns the two demo accounts a fresh store starts with.
func DefaultAccounts() map[string]*Account {
	return map[string]*Account{
		"12345678": NewAccount("12345678", "Alice", "1234", MustParseMoney("500.00")),
		"87654321": NewAccount("87654321", "Bob", "4321", MustParseMoney("1000.00")),
	}
}

// SeedDefault writes DefaultAccounts to store. It is meant for stores
// where Load reports ErrStoreNotFound.
func SeedDefault(store Store) (map[string]*Account, error) {
	accts := DefaultAccounts()
	if err := store.Save(accts); err != nil {
		return nil, asPersistence("seed", err)
	}
	return accts, nil
}

// validateAccounts checks the invariants a loaded store must satisfy.
func validateAccounts(accts map[string]*Account) error {
	for card, a := range accts {
		if a == nil {
			return fmt.Errorf("account %s: missing", card)
		}
		if card == "" || card != a.cardNumber {
			return fmt.Errorf("account key %s does not match card %q", card, a.cardNumber)
		}
		if a.pin == "" {
			return fmt.Errorf("account %s: empty PIN", card)
		}
		if a.balance.IsNegative() {
			return fmt.Errorf("account %s: negative balance %s", card, a.balance)
		}
		if a.failedAttempts < 0 || a.failedAttempts > MaxPINAttempts {
			return fmt.Errorf("account %s: failed attempts %d out of range", card, a.failedAttempts)
		}
		if a.failedAttempts == MaxPINAttempts && !a.locked {
			return fmt.Errorf("account %s: attempts exhausted but not locked", card)
		}
		for i, tx := range a.history {
			if err := validateTransaction(tx); err != nil {
				return fmt.Errorf("account %s: record %d: %w", card, i, err)
			}
		}
	}
	return nil
}

func validateTransaction(tx Transaction) error {
	switch {
	case !tx.Kind.Valid():
		return fmt.Errorf("unknown kind %q", tx.Kind)
	case tx.Kind.HasAmount() && !tx.Amount.IsPositive():
		return errors.New("amount must be positive")
	case !tx.Kind.HasAmount() && !tx.Amount.IsZero():
		return errors.New("unexpected amount")
	case tx.Kind.HasCounterparty() && tx.Counterparty == "":
		return errors.New("missing counterparty")
	case tx.Timestamp.IsZero():
		return errors.New("missing timestamp")
	}
	return nil
}
