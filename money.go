package atmxgo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// moneyPlaces is the number of fractional digits every Money carries.
	moneyPlaces = 2
	// moneyIntDigits bounds the integer part, matching NUMERIC(20, 2).
	moneyIntDigits = 18
)

// MaxMoney is the largest amount a Money may hold.
var MaxMoney = Money{d: decimal.RequireFromString("999999999999999999.99")}

// Money is an exact base-10 monetary amount with two fractional digits.
// The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// ParseMoney reads a decimal amount such as "100", "12.5" or "12,50".
// Extra fractional digits are rounded half-up to cents. Exponent forms
// are rejected and amounts beyond MaxMoney fail with ErrAmountTooLarge.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Money{}, fmt.Errorf("parse money: empty amount")
	}
	m, err := parseAmount(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return m, nil
}

// parseAmount accepts an optional leading '-', digits and at most one
// '.' followed by digits.
func parseAmount(s string) (Money, error) {
	digits := strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(digits, ".")
	if whole == "" && frac == "" {
		return Money{}, errors.New("no digits")
	}
	for _, part := range []string{whole, frac} {
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return Money{}, fmt.Errorf("unexpected character %q", part[i])
			}
		}
	}
	if len(strings.TrimLeft(whole, "0")) > moneyIntDigits {
		return Money{}, ErrAmountTooLarge
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	m := newMoney(d)
	if m.d.Abs().GreaterThan(MaxMoney.d) {
		return Money{}, ErrAmountTooLarge
	}
	return m, nil
}

// MustParseMoney is like ParseMoney but panics on malformed input.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func MoneyFromCents(cents int64) Money {
	return newMoney(decimal.New(cents, -moneyPlaces))
}

func newMoney(d decimal.Decimal) Money {
	return Money{d: d.Round(moneyPlaces)}
}

func (m Money) Add(o Money) Money { return newMoney(m.d.Add(o.d)) }

// Sub may return a negative amount. Callers debiting a balance must
// check IsNonNegative on the result before committing it.
func (m Money) Sub(o Money) Money { return newMoney(m.d.Sub(o.d)) }

func (m Money) Neg() Money { return newMoney(m.d.Neg()) }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) IsNonNegative() bool { return !m.d.IsNegative() }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

// Decimal exposes the underlying value for storage drivers.
func (m Money) Decimal() decimal.Decimal { return m.d }

// String renders the amount with exactly two decimals, e.g. "1300.00".
func (m Money) String() string {
	return m.d.StringFixed(moneyPlaces)
}

// Format renders the amount as a currency string with thousands
// separators, e.g. Format("$") on 1300 gives "$1,300.00".
func (m Money) Format(symbol string) string {
	s := m.d.Abs().StringFixed(moneyPlaces)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if m.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalText(text []byte) error {
	v, err := parseAmount(string(text))
	if err != nil {
		return fmt.Errorf("unmarshal money %q: %w", text, err)
	}
	*m = v
	return nil
}
