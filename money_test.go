package atmxgo_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhyth/atmxgo"
)

func TestParseMoney(t *testing.T) {
	t.Run("normalizes to two decimals", func(tt *testing.T) {
		as := assert.New(tt)
		cases := map[string]string{
			"100":     "100.00",
			"12.5":    "12.50",
			" 7,25 ":  "7.25",
			"0.005":   "0.01",
			"19.994":  "19.99",
			"1000000": "1000000.00",
			"-3.10":   "-3.10",
		}
		for in, want := range cases {
			m, err := atmxgo.ParseMoney(in)
			as.NoError(err, in)
			as.Equal(want, m.String(), in)
		}
	})

	t.Run("rejects malformed input", func(tt *testing.T) {
		as := assert.New(tt)
		for _, in := range []string{"", "   ", "abc", "1.2.3", "12e", "-", ".", "+5", "--1", "0x10", "1_000"} {
			_, err := atmxgo.ParseMoney(in)
			as.Error(err, in)
		}
	})

	t.Run("rejects exponent notation", func(tt *testing.T) {
		as := assert.New(tt)
		for _, in := range []string{"1e3", "1E3", "1e9999999", "1e999999999", "2.5e-1", "-1e2"} {
			_, err := atmxgo.ParseMoney(in)
			as.Error(err, in)
			as.NotErrorIs(err, atmxgo.ErrAmountTooLarge, in)
		}
	})

	t.Run("caps amounts at MaxMoney", func(tt *testing.T) {
		as := assert.New(tt)
		m, err := atmxgo.ParseMoney("999999999999999999.99")
		as.NoError(err)
		as.True(m.Equal(atmxgo.MaxMoney))

		m, err = atmxgo.ParseMoney("000000000000000000001.00")
		as.NoError(err)
		as.Equal("1.00", m.String())

		for _, in := range []string{
			"1000000000000000000",
			"-1000000000000000000",
			"999999999999999999.995",
			"123456789012345678901234567890",
		} {
			_, err = atmxgo.ParseMoney(in)
			as.ErrorIs(err, atmxgo.ErrAmountTooLarge, in)
		}
	})
}

func TestMoneyArithmetic(t *testing.T) {
	t.Run("deposit then withdraw of the same amount leaves no drift", func(tt *testing.T) {
		as := assert.New(tt)
		start := atmxgo.MustParseMoney("500.00")
		amt := atmxgo.MustParseMoney("100.00")
		as.True(start.Add(amt).Sub(amt).Equal(start))
		as.Equal("500.00", start.Add(amt).Sub(amt).String())
	})

	t.Run("sums of cents stay exact", func(tt *testing.T) {
		as := assert.New(tt)
		total := atmxgo.Money{}
		dime := atmxgo.MustParseMoney("0.10")
		for i := 0; i < 10; i++ {
			total = total.Add(dime)
		}
		as.Equal("1.00", total.String())
		as.True(total.Equal(atmxgo.MoneyFromCents(100)))
	})

	t.Run("subtraction may go negative", func(tt *testing.T) {
		as := assert.New(tt)
		diff := atmxgo.MustParseMoney("10.00").Sub(atmxgo.MustParseMoney("10.01"))
		as.True(diff.IsNegative())
		as.False(diff.IsNonNegative())
		as.Equal("-0.01", diff.String())
	})

	t.Run("compare and sign predicates", func(tt *testing.T) {
		as := assert.New(tt)
		a := atmxgo.MustParseMoney("1.00")
		b := atmxgo.MustParseMoney("2.00")
		as.Equal(-1, a.Cmp(b))
		as.Equal(1, b.Cmp(a))
		as.Equal(0, a.Cmp(atmxgo.MoneyFromCents(100)))
		as.True(atmxgo.Money{}.IsZero())
		as.True(atmxgo.Money{}.IsNonNegative())
		as.False(atmxgo.Money{}.IsPositive())
		as.Equal("0.00", atmxgo.Money{}.String())
	})
}

func TestMoneyFormat(t *testing.T) {
	as := assert.New(t)
	as.Equal("$0.00", atmxgo.Money{}.Format("$"))
	as.Equal("$500.00", atmxgo.MustParseMoney("500").Format("$"))
	as.Equal("$1,300.00", atmxgo.MustParseMoney("1300").Format("$"))
	as.Equal("€1,234,567.89", atmxgo.MustParseMoney("1234567.89").Format("€"))
	as.Equal("-$12.30", atmxgo.MustParseMoney("-12.3").Format("$"))
}

func TestMoneyJSON(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)

	bits, err := json.Marshal(map[string]atmxgo.Money{"balance": atmxgo.MustParseMoney("1300")})
	reqrd.NoError(err)
	as.JSONEq(`{"balance":"1300.00"}`, string(bits))

	var out map[string]atmxgo.Money
	reqrd.NoError(json.Unmarshal([]byte(`{"balance":"12.345"}`), &out))
	as.Equal("12.35", out["balance"].String())

	for _, bad := range []string{`"twelve"`, `"1e9999999"`, `"12,50"`, `"1000000000000000000.00"`} {
		err = json.Unmarshal([]byte(`{"balance":`+bad+`}`), &out)
		as.Error(err, bad)
	}
}
