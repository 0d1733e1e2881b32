package atmxgo

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TxKind is the closed set of ledger events an account can record.
type TxKind string

const (
	KindDeposit     TxKind = "deposit"
	KindWithdrawal  TxKind = "withdrawal"
	KindTransferOut TxKind = "transfer-out"
	KindTransferIn  TxKind = "transfer-in"
	KindPINChange   TxKind = "pin-change"
)

func (k TxKind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindTransferOut, KindTransferIn, KindPINChange:
		return true
	}
	return false
}

// HasAmount reports whether records of this kind carry an amount.
func (k TxKind) HasAmount() bool {
	return k.Valid() && k != KindPINChange
}

// HasCounterparty reports whether records of this kind name another card.
func (k TxKind) HasCounterparty() bool {
	return k == KindTransferOut || k == KindTransferIn
}

// Transaction is one entry of an account's append-only history.
// Amount is zero for KindPINChange; Counterparty is set only for transfers.
type Transaction struct {
	ID           snowflake.ID
	Kind         TxKind
	Amount       Money
	Timestamp    time.Time
	Counterparty string
	Note         string
}

func (t Transaction) HasAmount() bool {
	return t.Kind.HasAmount()
}
