package atmxgo

import (
	"fmt"
	"io"
	"iter"
)

type ChargeReq struct {
	Amount Money
	Note   string
}

type TransferReq struct {
	Amount      Money
	Destination string
	Note        string
}

type ChangePINReq struct {
	OldPIN string
	NewPIN string
}

// Service is what the presentation layer may do with an authenticated card.
type Service interface {
	Balance() (Money, error)
	Deposit(ChargeReq) (Money, error)
	Withdraw(ChargeReq) (Money, error)
	Transfer(TransferReq) (Money, error)
	ChangePIN(ChangePINReq) error
	History() iter.Seq[Transaction]
	Statement(io.Writer) error
	End()
}

var (
	_ Service = (*Session)(nil)
)

// Session is an authenticated binding to one account. It holds the
// bank's single session slot until End is called.
type Session struct {
	bank   *Bank
	card   string
	closed bool
}

func (s *Session) CardNumber() string { return s.card }

// End releases the session. Calling it more than once is harmless.
func (s *Session) End() {
	if s.closed {
		return
	}
	s.closed = true
	s.bank.active.Release(1)
	s.bank.log.Info().Str("card", maskCard(s.card)).Msg("session closed")
}

func (s *Session) account() (*Account, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.bank.accts[s.card], nil
}

func (s *Session) Balance() (Money, error) {
	acct, err := s.account()
	if err != nil {
		return Money{}, err
	}
	return acct.balance, nil
}

func (s *Session) Deposit(req ChargeReq) (Money, error) {
	acct, err := s.account()
	if err != nil {
		return Money{}, err
	}
	if !req.Amount.IsPositive() {
		return Money{}, ErrNonPositiveAmount
	}

	next := acct.clone()
	if err = next.applyDelta(req.Amount); err != nil {
		return Money{}, err
	}
	next.record(s.bank.newTxn(KindDeposit, req.Amount, "", req.Note))
	if err = s.bank.commit(next); err != nil {
		return Money{}, err
	}
	s.bank.log.Info().
		Str("card", maskCard(s.card)).
		Stringer("amount", req.Amount).
		Msg("deposit")
	return next.balance, nil
}

func (s *Session) Withdraw(req ChargeReq) (Money, error) {
	acct, err := s.account()
	if err != nil {
		return Money{}, err
	}
	if !req.Amount.IsPositive() {
		return Money{}, ErrNonPositiveAmount
	}

	next := acct.clone()
	if err = next.applyDelta(req.Amount.Neg()); err != nil {
		return Money{}, err
	}
	next.record(s.bank.newTxn(KindWithdrawal, req.Amount, "", req.Note))
	if err = s.bank.commit(next); err != nil {
		return Money{}, err
	}
	s.bank.log.Info().
		Str("card", maskCard(s.card)).
		Stringer("amount", req.Amount).
		Msg("withdrawal")
	return next.balance, nil
}

// Transfer moves money to another card. Both accounts and both history
// records are saved in one store write; on any failure neither side changes.
func (s *Session) Transfer(req TransferReq) (Money, error) {
	acct, err := s.account()
	if err != nil {
		return Money{}, err
	}
	if !req.Amount.IsPositive() {
		return Money{}, ErrNonPositiveAmount
	}
	if req.Destination == s.card {
		return Money{}, ErrSelfTransfer
	}
	dest, ok := s.bank.accts[req.Destination]
	if !ok {
		return Money{}, ErrUnknownDestination
	}

	src := acct.clone()
	dst := dest.clone()
	if err = src.applyDelta(req.Amount.Neg()); err != nil {
		return Money{}, err
	}
	if err = dst.applyDelta(req.Amount); err != nil {
		return Money{}, err
	}
	src.record(s.bank.newTxn(KindTransferOut, req.Amount, dst.cardNumber, req.Note))
	dst.record(s.bank.newTxn(KindTransferIn, req.Amount, src.cardNumber, req.Note))
	if err = s.bank.commit(src, dst); err != nil {
		return Money{}, err
	}
	s.bank.log.Info().
		Str("card", maskCard(s.card)).
		Str("destination", maskCard(req.Destination)).
		Stringer("amount", req.Amount).
		Msg("transfer")
	return src.balance, nil
}

// ChangePIN replaces the card's PIN. A wrong OldPIN fails with
// ErrInvalidPIN but does not count towards the login lockout.
func (s *Session) ChangePIN(req ChangePINReq) error {
	acct, err := s.account()
	if err != nil {
		return err
	}
	if !acct.verifyPIN(req.OldPIN) {
		return ErrInvalidPIN{}
	}
	if !s.bank.policy.Check(req.NewPIN) {
		return fmt.Errorf("%w: want exactly %d digits", ErrWeakPIN, s.bank.policy.Length)
	}

	next := acct.clone()
	next.pin = req.NewPIN
	next.record(s.bank.newTxn(KindPINChange, Money{}, "", "PIN updated"))
	if err = s.bank.commit(next); err != nil {
		return err
	}
	s.bank.log.Info().Str("card", maskCard(s.card)).Msg("PIN changed")
	return nil
}

// History yields the account's records oldest first. Every range over
// the sequence reads the log afresh; records committed while a range is
// in progress are not seen by it. An ended session yields nothing.
func (s *Session) History() iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		acct, err := s.account()
		if err != nil {
			return
		}
		for _, tx := range acct.history {
			if !yield(tx) {
				return
			}
		}
	}
}
