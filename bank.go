package atmxgo

import (
	"errors"
	"maps"
	"time"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// PINPolicy is the rule a new PIN must satisfy: exactly Length decimal digits.
type PINPolicy struct {
	Length int
}

var DefaultPINPolicy = PINPolicy{Length: 4}

func (p PINPolicy) Check(pin string) bool {
	if len(pin) != p.Length {
		return false
	}
	for _, r := range pin {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Bank is the registry of accounts loaded from a Store. It authenticates
// card holders and applies every monetary operation, saving the store
// synchronously after each state change.
//
// A Bank serves one session at a time and is not safe for concurrent use.
type Bank struct {
	store  Store
	accts  map[string]*Account
	node   *snowflake.Node
	now    func() time.Time
	policy PINPolicy
	active *semaphore.Weighted
	log    *zerolog.Logger
}

type Option func(*Bank)

// WithClock overrides the clock used to timestamp transactions.
func WithClock(now func() time.Time) Option {
	return func(b *Bank) { b.now = now }
}

func WithPINPolicy(p PINPolicy) Option {
	return func(b *Bank) { b.policy = p }
}

// WithNode sets the snowflake node transaction IDs are drawn from.
func WithNode(node *snowflake.Node) Option {
	return func(b *Bank) { b.node = node }
}

// NewBank loads the accounts from store. When the store does not exist
// yet it is created with DefaultAccounts. A corrupt store or a failed
// read aborts with the store's error.
func NewBank(store Store, log *zerolog.Logger, opts ...Option) (*Bank, error) {
	b := &Bank{
		store:  store,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		policy: DefaultPINPolicy,
		active: semaphore.NewWeighted(1),
		log:    log,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.node == nil {
		node, err := snowflake.NewNode(1)
		if err != nil {
			return nil, err
		}
		b.node = node
	}

	accts, err := store.Load()
	switch {
	case errors.Is(err, ErrStoreNotFound):
		log.Info().Msg("no store found, seeding default accounts")
		if accts, err = SeedDefault(store); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	b.accts = accts
	log.Info().Int("accounts", len(accts)).Msg("bank ready")
	return b, nil
}

// Authenticate opens a session for card if pin matches.
//
// A wrong PIN increments the account's failure counter and returns
// ErrInvalidPIN with the attempts left; the failure that reaches
// MaxPINAttempts locks the account and returns ErrAccountLocked. A locked
// account rejects every PIN. A correct PIN resets the counter. Counter
// changes are saved before Authenticate returns.
func (b *Bank) Authenticate(card, pin string) (*Session, error) {
	if !b.active.TryAcquire(1) {
		return nil, ErrSessionActive
	}
	sess, err := b.authenticate(card, pin)
	if err != nil {
		b.active.Release(1)
		return nil, err
	}
	return sess, nil
}

func (b *Bank) authenticate(card, pin string) (*Session, error) {
	acct, ok := b.accts[card]
	if !ok {
		b.log.Warn().Str("card", maskCard(card)).Msg("authentication for unknown card")
		return nil, ErrUnknownCard
	}
	if acct.locked {
		b.log.Warn().Str("card", maskCard(card)).Msg("authentication on locked account")
		return nil, ErrAccountLocked
	}

	next := acct.clone()
	if next.verifyPIN(pin) {
		if next.failedAttempts != 0 {
			next.failedAttempts = 0
			if err := b.commit(next); err != nil {
				return nil, err
			}
		}
		b.log.Info().Str("card", maskCard(card)).Msg("session opened")
		return &Session{bank: b, card: card}, nil
	}

	next.failedAttempts++
	if next.failedAttempts >= MaxPINAttempts {
		next.locked = true
	}
	if err := b.commit(next); err != nil {
		return nil, err
	}
	if next.locked {
		b.log.Warn().Str("card", maskCard(card)).Msg("account locked after repeated PIN failures")
		return nil, ErrAccountLocked
	}
	left := MaxPINAttempts - next.failedAttempts
	b.log.Warn().
		Str("card", maskCard(card)).
		Int("attempts_left", left).
		Msg("invalid PIN")
	return nil, ErrInvalidPIN{AttemptsLeft: left}
}

// Lookup returns a snapshot of the account for card.
func (b *Bank) Lookup(card string) (*Account, error) {
	acct, ok := b.accts[card]
	if !ok {
		return nil, ErrUnknownCard
	}
	return acct.clone(), nil
}

// commit saves the registry with changed swapped in and installs the
// new registry only once the save succeeded.
func (b *Bank) commit(changed ...*Account) error {
	next := maps.Clone(b.accts)
	for _, a := range changed {
		next[a.cardNumber] = a
	}
	if err := b.store.Save(next); err != nil {
		return asPersistence("save", err)
	}
	b.accts = next
	return nil
}

func (b *Bank) newTxn(kind TxKind, amount Money, counterparty, note string) Transaction {
	return Transaction{
		ID:           b.node.Generate(),
		Kind:         kind,
		Amount:       amount,
		Timestamp:    b.now(),
		Counterparty: counterparty,
		Note:         note,
	}
}

// maskCard keeps the last four digits of a card number.
func maskCard(card string) string {
	if len(card) <= 4 {
		return card
	}
	masked := make([]byte, len(card))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(card)-4:], card[len(card)-4:])
	return string(masked)
}
