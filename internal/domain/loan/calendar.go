package loan

import (
	"fmt"
	"strconv"
	"strings"

	"loandash/internal/pkg/apperrors"
)

// Month is a calendar month in plain "YYYY-MM" form. Parsing is done by
// hand so behavior never depends on locale or platform date handling.
type Month struct {
	Year int
	Mon  int
}

func ParseMonth(s string) (Month, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Month{}, fmt.Errorf("%w: month must be in YYYY-MM form, got %q", apperrors.ErrInvalidArgument, s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Month{}, fmt.Errorf("%w: invalid year in %q", apperrors.ErrInvalidArgument, s)
	}
	mon, err := strconv.Atoi(parts[1])
	if err != nil || mon < 1 || mon > 12 {
		return Month{}, fmt.Errorf("%w: invalid month in %q", apperrors.ErrInvalidArgument, s)
	}
	return Month{Year: year, Mon: mon}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Mon)
}

func (m Month) AddMonths(n int) Month {
	total := m.Year*12 + (m.Mon - 1) + n
	return Month{Year: total / 12, Mon: total%12 + 1}
}

// MonthsBetween returns the zero-based month offset from one calendar month
// to another; negative when to precedes from.
func MonthsBetween(from, to Month) int {
	return (to.Year-from.Year)*12 + (to.Mon - from.Mon)
}

// MonthIndexOf maps a calendar month onto the 1-based repayment-month index
// of a loan, accounting for the deferment period. It returns 0 when the loan
// start is unknown or the month falls before the repayment phase begins.
// This is the only bridge between calendar-anchored rules and the index
// space the simulator iterates over.
func MonthIndexOf(target Month, loanStart *Month, defermentMonths int) int {
	if loanStart == nil {
		return 0
	}
	idx := MonthsBetween(*loanStart, target) - defermentMonths + 1
	if idx <= 0 {
		return 0
	}
	return idx
}
