package atmxgo

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var (
	pgSelectAcctsSQL = `
		SELECT card_number, holder, pin, balance::text, failed_attempts, locked
		FROM accounts;
	`

	pgSelectTxnsSQL = `
		SELECT id, card_number, kind, amount::text, ts, counterparty, note
		FROM transactions
		ORDER BY card_number, seq;
	`

	pgUpsertAcctSQL = `
		INSERT INTO accounts (card_number, holder, pin, balance, failed_attempts, locked)
		VALUES ($1, $2, $3, $4::text::numeric, $5, $6)
		ON CONFLICT (card_number) DO UPDATE
		SET holder = EXCLUDED.holder,
			pin = EXCLUDED.pin,
			balance = EXCLUDED.balance,
			failed_attempts = EXCLUDED.failed_attempts,
			locked = EXCLUDED.locked;
	`

	// history is append-only, so records already stored are left alone
	pgInsertTxnSQL = `
		INSERT INTO transactions (id, card_number, seq, kind, amount, ts, counterparty, note)
		VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING;
	`
)

// pgUndefinedTable is the SQLSTATE for a missing relation.
const pgUndefinedTable = "42P01"

// PostgresStore keeps accounts in the `accounts` and `transactions`
// tables created by LocalHelper.InitDB. Every call is bounded by the
// configured timeout.
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	log     *zerolog.Logger
}

var (
	_ Store = (*PostgresStore)(nil)
)

func NewPostgresStore(connStr string, timeout time.Duration, log *zerolog.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	endpt := &PostgresStore{
		pool:    pool,
		timeout: timeout,
		log:     log,
	}
	return endpt, err
}

func (pg *PostgresStore) Close() {
	pg.pool.Close()
}

func (pg *PostgresStore) Load() (map[string]*Account, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pg.timeout)
	defer cancel()

	accts, err := pg.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accts) == 0 {
		return nil, ErrStoreNotFound
	}
	if err = pg.loadTransactions(ctx, accts); err != nil {
		return nil, err
	}
	if err = validateAccounts(accts); err != nil {
		return nil, ErrCorruptStore{Source: "postgres", Err: err}
	}
	return accts, nil
}

func (pg *PostgresStore) loadAccounts(ctx context.Context) (map[string]*Account, error) {
	rows, err := pg.pool.Query(ctx, pgSelectAcctsSQL)
	if err != nil {
		return nil, pgLoadError(err)
	}
	defer rows.Close()

	accts := make(map[string]*Account)
	for rows.Next() {
		var (
			card, holder, pin, rbal string
			failed                  int
			locked                  bool
		)
		if err = rows.Scan(&card, &holder, &pin, &rbal, &failed, &locked); err != nil {
			return nil, ErrPersistence{Op: "load", Err: err}
		}
		bal, err := ParseMoney(rbal)
		if err != nil {
			return nil, ErrCorruptStore{Source: "postgres", Err: err}
		}
		accts[card] = &Account{
			cardNumber:     card,
			name:           holder,
			pin:            pin,
			balance:        bal,
			failedAttempts: failed,
			locked:         locked,
		}
	}
	if err = rows.Err(); err != nil {
		return nil, pgLoadError(err)
	}
	return accts, nil
}

func (pg *PostgresStore) loadTransactions(ctx context.Context, accts map[string]*Account) error {
	rows, err := pg.pool.Query(ctx, pgSelectTxnsSQL)
	if err != nil {
		return pgLoadError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id                       int64
			card, kind               string
			ramount, rcounter, rnote *string
			ts                       time.Time
		)
		if err = rows.Scan(&id, &card, &kind, &ramount, &ts, &rcounter, &rnote); err != nil {
			return ErrPersistence{Op: "load", Err: err}
		}
		acct, ok := accts[card]
		if !ok {
			return ErrCorruptStore{Source: "postgres", Err: fmt.Errorf("transaction %d for unknown card %s", id, card)}
		}
		tx := Transaction{
			ID:        snowflake.ParseInt64(id),
			Kind:      TxKind(kind),
			Timestamp: ts.UTC(),
		}
		if ramount != nil {
			if tx.Amount, err = ParseMoney(*ramount); err != nil {
				return ErrCorruptStore{Source: "postgres", Err: err}
			}
		}
		if rcounter != nil {
			tx.Counterparty = *rcounter
		}
		if rnote != nil {
			tx.Note = *rnote
		}
		acct.history = append(acct.history, tx)
	}
	if err = rows.Err(); err != nil {
		return pgLoadError(err)
	}
	return nil
}

// Save writes every account and any history records not yet stored in
// a single database transaction.
func (pg *PostgresStore) Save(accts map[string]*Account) error {
	ctx, cancel := context.WithTimeout(context.Background(), pg.timeout)
	defer cancel()

	tx, err := pg.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return ErrPersistence{Op: "save", Err: err}
	}
	defer func() {
		if rerr := tx.Rollback(ctx); rerr != nil && !errors.Is(rerr, pgx.ErrTxClosed) {
			pg.log.Err(rerr).Msg("transaction rollback fail")
		}
	}()

	batch := &pgx.Batch{}
	for _, card := range slices.Sorted(maps.Keys(accts)) {
		a := accts[card]
		batch.Queue(pgUpsertAcctSQL, a.cardNumber, a.name, a.pin, a.balance.String(), a.failedAttempts, a.locked)
		for seq, t := range a.history {
			batch.Queue(pgInsertTxnSQL,
				t.ID.Int64(),
				a.cardNumber,
				seq,
				string(t.Kind),
				nullAmount(t),
				t.Timestamp,
				nullString(t.Counterparty),
				nullString(t.Note),
			)
		}
	}

	btresults := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err = btresults.Exec(); err != nil {
			btresults.Close()
			return ErrPersistence{Op: "save", Err: err}
		}
	}
	if err = btresults.Close(); err != nil {
		return ErrPersistence{Op: "save", Err: err}
	}

	if err = tx.Commit(ctx); err != nil {
		return ErrPersistence{Op: "save", Err: err}
	}
	return nil
}

func pgLoadError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return ErrStoreNotFound
	}
	return ErrPersistence{Op: "load", Err: err}
}

func nullAmount(t Transaction) *string {
	if !t.HasAmount() {
		return nil
	}
	s := t.Amount.String()
	return &s
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
