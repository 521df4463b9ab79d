package export

import "loandash/internal/domain/loan"

// ChartPoint is one balance sample for the dashboard chart layer.
type ChartPoint struct {
	MonthLabel     string     `json:"monthLabel"`
	ClosingBalance loan.Money `json:"closingBalance"`
}

// DefaultMaxChartPoints bounds the series size so a 50-year schedule does
// not flood the chart layer.
const DefaultMaxChartPoints = 120

// ChartSeries downsamples ledger rows to at most maxPoints balance samples.
// The first and last rows are always kept so the series spans the full
// schedule; intermediate rows are taken at an even stride.
func ChartSeries(input loan.LoanInput, rows []loan.LedgerRow, maxPoints int) []ChartPoint {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxChartPoints
	}
	if len(rows) == 0 {
		return nil
	}

	stride := 1
	if len(rows) > maxPoints {
		stride = (len(rows) + maxPoints - 1) / maxPoints
	}

	points := make([]ChartPoint, 0, maxPoints)
	for i := 0; i < len(rows); i += stride {
		points = append(points, chartPoint(input, rows[i]))
	}
	if last := rows[len(rows)-1]; len(points) == 0 || points[len(points)-1].MonthLabel != input.MonthLabel(last.MonthIndex) {
		points = append(points, chartPoint(input, last))
	}
	return points
}

func chartPoint(input loan.LoanInput, row loan.LedgerRow) ChartPoint {
	return ChartPoint{
		MonthLabel:     input.MonthLabel(row.MonthIndex),
		ClosingBalance: row.ClosingBalance,
	}
}
