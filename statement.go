package atmxgo

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

var statementCols = []struct {
	title string
	width float64
	align string
}{
	{"Date (UTC)", 38, "L"},
	{"Type", 28, "L"},
	{"Amount", 28, "R"},
	{"Counterparty", 32, "L"},
	{"Note", 64, "L"},
}

// Statement writes a PDF statement of the session's account to w.
func (s *Session) Statement(w io.Writer) error {
	acct, err := s.account()
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Account statement", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Account statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Card holder: %s", acct.name)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Card: %s", maskCard(acct.cardNumber)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Balance: %s", acct.balance))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", s.bank.now().Format(time.RFC3339)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range statementCols {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, tx := range acct.history {
		amount := ""
		if tx.HasAmount() {
			amount = tx.Amount.String()
		}
		cells := []string{
			tx.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			string(tx.Kind),
			amount,
			tx.Counterparty,
			tr(tx.Note),
		}
		for i, c := range statementCols {
			pdf.CellFormat(c.width, 6, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(acct.history) == 0 {
		pdf.CellFormat(0, 6, "No transactions.", "1", 1, "C", false, 0, "")
	}

	return pdf.Output(w)
}
