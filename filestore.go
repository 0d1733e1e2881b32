package atmxgo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/snowflake"
)

const fileStoreVersion = 1

type fileDoc struct {
	Version  int                     `json:"version"`
	Accounts map[string]*fileAccount `json:"accounts"`
}

type fileAccount struct {
	CardNumber     string    `json:"card_number"`
	Name           string    `json:"name"`
	PIN            string    `json:"pin"`
	Balance        *Money    `json:"balance"`
	FailedAttempts int       `json:"failed_attempts"`
	Locked         bool      `json:"locked"`
	Transactions   []fileTxn `json:"transactions"`
}

type fileTxn struct {
	ID           snowflake.ID `json:"id"`
	Kind         TxKind       `json:"kind"`
	Amount       *Money       `json:"amount,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
	Counterparty string       `json:"counterparty,omitempty"`
	Note         string       `json:"note,omitempty"`
}

// FileStore keeps all accounts in a single JSON document.
//
// Saves go to a sibling temp file which is fsynced and renamed over the
// target, so readers see either the old or the new document. There is
// no locking: two processes sharing one file will overwrite each other.
type FileStore struct {
	path string
}

var (
	_ Store = (*FileStore)(nil)
)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (fs *FileStore) Path() string { return fs.path }

func (fs *FileStore) Load() (map[string]*Account, error) {
	bits, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrStoreNotFound
		}
		return nil, ErrPersistence{Op: "load", Err: err}
	}

	var doc fileDoc
	if err = json.Unmarshal(bits, &doc); err != nil {
		return nil, ErrCorruptStore{Source: fs.path, Err: err}
	}
	if doc.Version != fileStoreVersion {
		return nil, ErrCorruptStore{Source: fs.path, Err: fmt.Errorf("unsupported version %d", doc.Version)}
	}

	accts := make(map[string]*Account, len(doc.Accounts))
	for card, fa := range doc.Accounts {
		if fa == nil || fa.Balance == nil {
			return nil, ErrCorruptStore{Source: fs.path, Err: fmt.Errorf("account %s: missing balance", card)}
		}
		acct := &Account{
			cardNumber:     fa.CardNumber,
			name:           fa.Name,
			pin:            fa.PIN,
			balance:        *fa.Balance,
			failedAttempts: fa.FailedAttempts,
			locked:         fa.Locked,
			history:        make([]Transaction, 0, len(fa.Transactions)),
		}
		for _, ft := range fa.Transactions {
			tx := Transaction{
				ID:           ft.ID,
				Kind:         ft.Kind,
				Timestamp:    ft.Timestamp.UTC(),
				Counterparty: ft.Counterparty,
				Note:         ft.Note,
			}
			if ft.Amount != nil {
				tx.Amount = *ft.Amount
			} else if ft.Kind.HasAmount() {
				return nil, ErrCorruptStore{Source: fs.path, Err: fmt.Errorf("account %s: %s record without amount", card, ft.Kind)}
			}
			acct.history = append(acct.history, tx)
		}
		accts[card] = acct
	}

	if err = validateAccounts(accts); err != nil {
		return nil, ErrCorruptStore{Source: fs.path, Err: err}
	}
	return accts, nil
}

func (fs *FileStore) Save(accts map[string]*Account) error {
	doc := fileDoc{
		Version:  fileStoreVersion,
		Accounts: make(map[string]*fileAccount, len(accts)),
	}
	for card, a := range accts {
		bal := a.balance
		fa := &fileAccount{
			CardNumber:     a.cardNumber,
			Name:           a.name,
			PIN:            a.pin,
			Balance:        &bal,
			FailedAttempts: a.failedAttempts,
			Locked:         a.locked,
			Transactions:   make([]fileTxn, 0, len(a.history)),
		}
		for _, tx := range a.history {
			ft := fileTxn{
				ID:           tx.ID,
				Kind:         tx.Kind,
				Timestamp:    tx.Timestamp,
				Counterparty: tx.Counterparty,
				Note:         tx.Note,
			}
			if tx.HasAmount() {
				amt := tx.Amount
				ft.Amount = &amt
			}
			fa.Transactions = append(fa.Transactions, ft)
		}
		doc.Accounts[card] = fa
	}

	bits, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ErrPersistence{Op: "save", Err: err}
	}
	if err = fs.writeAtomic(bits); err != nil {
		return ErrPersistence{Op: "save", Err: err}
	}
	return nil
}

func (fs *FileStore) writeAtomic(bits []byte) error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(bits); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err = os.Rename(tmpName, fs.path); err != nil {
		return err
	}
	committed = true
	return nil
}
