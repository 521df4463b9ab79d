package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"loandash/internal/domain/loan"
)

var csvHeader = []string{
	"month", "label", "phase", "repayment_month",
	"opening_balance", "interest", "installment", "principal",
	"prepayment", "closing_balance", "current_installment", "note",
}

// WriteScheduleCSV flattens ledger rows to delimited text with two-decimal
// fixed formatting, the shape the dashboard's download button expects.
func WriteScheduleCSV(w io.Writer, input loan.LoanInput, rows []loan.LedgerRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.MonthIndex),
			input.MonthLabel(row.MonthIndex),
			string(row.Phase),
			strconv.Itoa(row.RepaymentMonthIndex),
			money(row.OpeningBalance),
			money(row.InterestAccrued),
			money(row.InstallmentPaid),
			money(row.PrincipalPaid),
			money(row.PrepaymentPaid),
			money(row.ClosingBalance),
			money(row.CurrentInstallment),
			row.Note,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func money(v loan.Money) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
