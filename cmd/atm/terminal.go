package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arhyth/atmxgo"
)

// terminal is a line-oriented ATM front end. It only talks to the Bank
// and the Session it hands out.
type terminal struct {
	bank    *atmxgo.Bank
	in      *bufio.Reader
	out     io.Writer
	symbol  string
	stmtDir string
}

func newTerminal(bank *atmxgo.Bank, in *bufio.Reader, out io.Writer, cfg *atmxgo.Config) *terminal {
	return &terminal{
		bank:    bank,
		in:      in,
		out:     out,
		symbol:  cfg.CurrencySymbol,
		stmtDir: cfg.StatementDir,
	}
}

// Run serves customers until an empty card number or end of input.
func (t *terminal) Run() error {
	for {
		fmt.Fprintln(t.out, "\n=== Welcome ===")
		card, err := t.prompt("Card number (empty to quit): ")
		if err != nil {
			return err
		}
		if card == "" {
			fmt.Fprintln(t.out, "Goodbye.")
			return nil
		}
		pin, err := t.prompt("PIN: ")
		if err != nil {
			return err
		}
		sess, err := t.bank.Authenticate(card, pin)
		if err != nil {
			fmt.Fprintln(t.out, atmxgo.UserMessage(err))
			continue
		}
		err = t.serve(sess)
		sess.End()
		if err != nil {
			return err
		}
	}
}

func (t *terminal) serve(sess *atmxgo.Session) error {
	acct, err := t.bank.Lookup(sess.CardNumber())
	if err == nil {
		fmt.Fprintf(t.out, "Hello, %s.\n", acct.Name())
	}
	for {
		fmt.Fprintln(t.out, "\n1) Balance  2) Deposit  3) Withdraw  4) Transfer")
		fmt.Fprintln(t.out, "5) Change PIN  6) History  7) Statement (PDF)  0) Sign out")
		choice, err := t.prompt("> ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			err = t.balance(sess)
		case "2":
			err = t.charge(sess, "Deposit", sess.Deposit)
		case "3":
			err = t.charge(sess, "Withdrawal", sess.Withdraw)
		case "4":
			err = t.transfer(sess)
		case "5":
			err = t.changePIN(sess)
		case "6":
			t.history(sess)
		case "7":
			err = t.statement(sess)
		case "0":
			fmt.Fprintln(t.out, "Signed out.")
			return nil
		default:
			fmt.Fprintln(t.out, "Unknown option.")
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			fmt.Fprintln(t.out, atmxgo.UserMessage(err))
		}
	}
}

func (t *terminal) balance(sess *atmxgo.Session) error {
	bal, err := sess.Balance()
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "Balance: %s\n", bal.Format(t.symbol))
	return nil
}

func (t *terminal) charge(sess *atmxgo.Session, label string, op func(atmxgo.ChargeReq) (atmxgo.Money, error)) error {
	amount, err := t.promptAmount()
	if err != nil {
		return err
	}
	note, err := t.prompt("Note (optional): ")
	if err != nil {
		return err
	}
	bal, err := op(atmxgo.ChargeReq{Amount: amount, Note: note})
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "%s done. New balance: %s\n", label, bal.Format(t.symbol))
	return nil
}

func (t *terminal) transfer(sess *atmxgo.Session) error {
	dest, err := t.prompt("Destination card: ")
	if err != nil {
		return err
	}
	amount, err := t.promptAmount()
	if err != nil {
		return err
	}
	note, err := t.prompt("Note (optional): ")
	if err != nil {
		return err
	}
	bal, err := sess.Transfer(atmxgo.TransferReq{Amount: amount, Destination: dest, Note: note})
	if err != nil {
		return err
	}
	fmt.Fprintf(t.out, "Transfer done. New balance: %s\n", bal.Format(t.symbol))
	return nil
}

func (t *terminal) changePIN(sess *atmxgo.Session) error {
	oldPIN, err := t.prompt("Current PIN: ")
	if err != nil {
		return err
	}
	newPIN, err := t.prompt("New PIN: ")
	if err != nil {
		return err
	}
	confirm, err := t.prompt("Repeat new PIN: ")
	if err != nil {
		return err
	}
	if newPIN != confirm {
		fmt.Fprintln(t.out, "The new PINs do not match.")
		return nil
	}
	if err = sess.ChangePIN(atmxgo.ChangePINReq{OldPIN: oldPIN, NewPIN: newPIN}); err != nil {
		return err
	}
	fmt.Fprintln(t.out, "PIN updated.")
	return nil
}

func (t *terminal) history(sess *atmxgo.Session) {
	n := 0
	for tx := range sess.History() {
		amount := "-"
		if tx.HasAmount() {
			amount = tx.Amount.Format(t.symbol)
		}
		fmt.Fprintf(t.out, "%s  %-12s %12s  %-10s %s\n",
			tx.Timestamp.Format(time.DateTime), tx.Kind, amount, tx.Counterparty, tx.Note)
		n++
	}
	if n == 0 {
		fmt.Fprintln(t.out, "No transactions yet.")
	}
}

func (t *terminal) statement(sess *atmxgo.Session) error {
	name := fmt.Sprintf("statement-%s-%s.pdf", sess.CardNumber(), time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(t.stmtDir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = sess.Statement(f); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(t.out, "Statement written to %s\n", path)
	return nil
}

func (t *terminal) promptAmount() (atmxgo.Money, error) {
	for {
		s, err := t.prompt("Amount: ")
		if err != nil {
			return atmxgo.Money{}, err
		}
		amount, err := atmxgo.ParseMoney(s)
		switch {
		case err == nil:
			return amount, nil
		case errors.Is(err, atmxgo.ErrAmountTooLarge):
			fmt.Fprintln(t.out, atmxgo.UserMessage(err))
		default:
			fmt.Fprintln(t.out, "Please enter a number such as 20 or 12.50.")
		}
	}
}

func (t *terminal) prompt(label string) (string, error) {
	fmt.Fprint(t.out, label)
	line, err := t.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
