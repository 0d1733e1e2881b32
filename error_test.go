package atmxgo_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arhyth/atmxgo"
)

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{atmxgo.ErrInvalidPIN{AttemptsLeft: 2}, "Incorrect PIN. 2 attempt(s) remaining."},
		{fmt.Errorf("login: %w", atmxgo.ErrInvalidPIN{AttemptsLeft: 1}), "Incorrect PIN. 1 attempt(s) remaining."},
		{atmxgo.ErrInvalidPIN{}, "Incorrect PIN."},
		{atmxgo.ErrUnknownCard, "Card not recognised."},
		{atmxgo.ErrAccountLocked, "This card is locked after too many incorrect PIN entries."},
		{atmxgo.ErrNonPositiveAmount, "Please enter an amount greater than zero."},
		{atmxgo.ErrInsufficientFunds, "Insufficient funds."},
		{fmt.Errorf("parse money: %w", atmxgo.ErrAmountTooLarge), "That amount is too large."},
		{atmxgo.ErrUnknownDestination, "Destination card not recognised."},
		{atmxgo.ErrSelfTransfer, "You cannot transfer to your own card."},
		{fmt.Errorf("%w: want exactly 4 digits", atmxgo.ErrWeakPIN), "The new PIN does not meet the PIN policy."},
		{atmxgo.ErrSessionActive, "Another session is in progress."},
		{atmxgo.ErrSessionClosed, "Your session has ended. Please sign in again."},
		{atmxgo.ErrCorruptStore{Source: "x", Err: errors.New("bad")}, "Account data is damaged. Please contact your bank."},
		{atmxgo.ErrPersistence{Op: "save", Err: errDiskFull}, "The operation could not be saved. Nothing was changed."},
		{errors.New("what"), "An unexpected error occurred."},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, atmxgo.UserMessage(c.err), "error: %v", c.err)
	}
}

func TestErrorWrapping(t *testing.T) {
	as := assert.New(t)
	inner := errors.New("bad json")
	corrupt := atmxgo.ErrCorruptStore{Source: "accounts.json", Err: inner}
	as.ErrorIs(corrupt, inner)
	as.Contains(corrupt.Error(), "accounts.json")

	persist := atmxgo.ErrPersistence{Op: "save", Err: errDiskFull}
	as.ErrorIs(persist, errDiskFull)
	as.Contains(persist.Error(), "save")
}
