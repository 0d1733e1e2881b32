package atmxgo

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCard        = errors.New("unknown card")
	ErrAccountLocked      = errors.New("account locked")
	ErrNonPositiveAmount  = errors.New("amount must be positive")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrAmountTooLarge     = errors.New("amount exceeds the largest supported balance")
	ErrUnknownDestination = errors.New("unknown destination card")
	ErrSelfTransfer       = errors.New("cannot transfer to the same card")
	ErrWeakPIN            = errors.New("PIN does not meet policy")
	ErrStoreNotFound      = errors.New("store does not exist")
	ErrSessionActive      = errors.New("another session is active")
	ErrSessionClosed      = errors.New("session closed")
)

// ErrInvalidPIN is returned on a PIN mismatch that did not lock the
// account. AttemptsLeft is zero when the check does not count towards
// the lockout.
type ErrInvalidPIN struct {
	AttemptsLeft int
}

func (e ErrInvalidPIN) Error() string {
	if e.AttemptsLeft == 0 {
		return "invalid PIN"
	}
	return fmt.Sprintf("invalid PIN: %d attempt(s) left", e.AttemptsLeft)
}

// ErrCorruptStore is returned when a persisted store cannot be decoded
// into a consistent set of accounts.
type ErrCorruptStore struct {
	Source string
	Err    error
}

func (e ErrCorruptStore) Error() string {
	return fmt.Sprintf("corrupt store %s: %v", e.Source, e.Err)
}

func (e ErrCorruptStore) Unwrap() error { return e.Err }

// ErrPersistence is returned when a store operation could not complete.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e ErrPersistence) Error() string {
	return fmt.Sprintf("persistence failure on %s: %v", e.Op, e.Err)
}

func (e ErrPersistence) Unwrap() error { return e.Err }

// asPersistence wraps err in ErrPersistence unless it already is one.
func asPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe ErrPersistence
	if errors.As(err, &pe) {
		return err
	}
	return ErrPersistence{Op: op, Err: err}
}

// UserMessage turns a Bank error into text fit for an ATM screen.
func UserMessage(err error) string {
	var (
		errpin     ErrInvalidPIN
		errcorrupt ErrCorruptStore
		errpersist ErrPersistence
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &errpin) && errpin.AttemptsLeft > 0:
		return fmt.Sprintf("Incorrect PIN. %d attempt(s) remaining.", errpin.AttemptsLeft)
	case errors.As(err, &errpin):
		return "Incorrect PIN."
	case errors.Is(err, ErrUnknownCard):
		return "Card not recognised."
	case errors.Is(err, ErrAccountLocked):
		return "This card is locked after too many incorrect PIN entries."
	case errors.Is(err, ErrNonPositiveAmount):
		return "Please enter an amount greater than zero."
	case errors.Is(err, ErrInsufficientFunds):
		return "Insufficient funds."
	case errors.Is(err, ErrAmountTooLarge):
		return "That amount is too large."
	case errors.Is(err, ErrUnknownDestination):
		return "Destination card not recognised."
	case errors.Is(err, ErrSelfTransfer):
		return "You cannot transfer to your own card."
	case errors.Is(err, ErrWeakPIN):
		return "The new PIN does not meet the PIN policy."
	case errors.Is(err, ErrSessionActive):
		return "Another session is in progress."
	case errors.Is(err, ErrSessionClosed):
		return "Your session has ended. Please sign in again."
	case errors.As(err, &errcorrupt):
		return "Account data is damaged. Please contact your bank."
	case errors.As(err, &errpersist):
		return "The operation could not be saved. Nothing was changed."
	default:
		return "An unexpected error occurred."
	}
}
