package atmxgo_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhyth/atmxgo"
)

func TestStatement(t *testing.T) {
	t.Run("renders a PDF for an account with history", func(tt *testing.T) {
		as := assert.New(tt)
		bank, _ := newTestBank(tt)
		sess := login(tt, bank, aliceCard, alicePIN)
		_, err := sess.Deposit(atmxgo.ChargeReq{Amount: atmxgo.MustParseMoney("1234.5"), Note: "salário"})
		require.NoError(tt, err)
		_, err = sess.Transfer(atmxgo.TransferReq{Amount: atmxgo.MustParseMoney("20"), Destination: bobCard})
		require.NoError(tt, err)
		require.NoError(tt, sess.ChangePIN(atmxgo.ChangePINReq{OldPIN: alicePIN, NewPIN: "8642"}))

		var buf bytes.Buffer
		as.NoError(sess.Statement(&buf))
		as.True(bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
		as.Contains(buf.String(), "%%EOF")
	})

	t.Run("renders a PDF for an empty history", func(tt *testing.T) {
		as := assert.New(tt)
		bank, _ := newTestBank(tt)
		sess := login(tt, bank, bobCard, bobPIN)

		var buf bytes.Buffer
		as.NoError(sess.Statement(&buf))
		as.True(bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	})

	t.Run("is refused once the session has ended", func(tt *testing.T) {
		bank, _ := newTestBank(tt)
		sess, err := bank.Authenticate(aliceCard, alicePIN)
		require.NoError(tt, err)
		sess.End()

		var buf bytes.Buffer
		assert.ErrorIs(tt, sess.Statement(&buf), atmxgo.ErrSessionClosed)
		assert.Zero(tt, buf.Len())
	})
}
