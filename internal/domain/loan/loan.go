package loan

import (
	"fmt"
	"time"

	"loandash/internal/pkg/apperrors"
)

type Money = float64

type Strategy string

const (
	StrategyReduceTenure      Strategy = "REDUCE_TENURE"
	StrategyReduceInstallment Strategy = "REDUCE_INSTALLMENT"
)

type RuleKind string

const (
	RuleOnce     RuleKind = "ONCE"
	RuleMonthly  RuleKind = "MONTHLY"
	RuleInterval RuleKind = "INTERVAL"
)

type Phase string

const (
	PhaseDeferment Phase = "DEFERMENT"
	PhaseRepayment Phase = "REPAYMENT"
)

// LoanInput holds the parameters for one simulation run. It is treated as
// immutable once handed to the simulator.
type LoanInput struct {
	Principal       Money
	AnnualRatePct   float64
	TenureMonths    int
	StartMonth      *Month
	DefermentMonths int
}

// Anchor points a prepayment rule at a repayment month, either by calendar
// month (resolved against the loan start date) or by literal 1-based index.
// A calendar anchor takes precedence when the loan start date is known.
type Anchor struct {
	Month *Month
	Index int
}

// PrepaymentRule describes an extra principal payment. Kind selects which
// anchor fields are meaningful: Once uses At; Monthly and Interval use
// Start/End, both optional. Rules with a non-positive amount are ignored.
type PrepaymentRule struct {
	Kind         RuleKind
	At           Anchor
	Start        *Anchor
	End          *Anchor
	EveryNMonths int
	Amount       Money
	Strategy     Strategy
}

// PrepayEntry is the single effective prepayment for one repayment month.
type PrepayEntry struct {
	Amount   Money
	Strategy Strategy
	Label    string
}

// PrepaymentTable maps a 1-based repayment-month index to its effective
// prepayment. At most one entry exists per month; when rules collide the
// later-defined rule wins.
type PrepaymentTable map[int]PrepayEntry

// LedgerRow is one simulated month, emitted in chronological order.
// RepaymentMonthIndex is 0 for deferment rows.
type LedgerRow struct {
	MonthIndex          int
	RepaymentMonthIndex int
	Phase               Phase
	OpeningBalance      Money
	InterestAccrued     Money
	InstallmentPaid     Money
	PrincipalPaid       Money
	PrepaymentPaid      Money
	ClosingBalance      Money
	CurrentInstallment  Money
	Note                string
}

// ScheduleResult is the full outcome of one simulation. Converged is false
// when the iteration safety cap was hit before the balance settled.
type ScheduleResult struct {
	Rows                     []LedgerRow
	DefermentMonths          int
	DefermentInterest        Money
	TotalInterest            Money
	TotalMonths              int
	RepaymentMonthsUsed      int
	PostDefermentInstallment Money
	Converged                bool
}

// Loan is the persisted aggregate: the input parameters plus the ordered
// prepayment rules the dashboard user has configured.
type Loan struct {
	ID        int64
	Name      string
	Input     LoanInput
	Rules     []PrepaymentRule
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewLoan(name string, input LoanInput, rules []PrepaymentRule) (*Loan, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name must not be empty")
	}
	if err := ValidateInput(input); err != nil {
		return nil, err
	}
	return &Loan{Name: name, Input: input, Rules: rules}, nil
}

// ValidateInput rejects inputs the simulator cannot meaningfully degrade
// from. Zero principal and zero tenure are allowed and yield empty schedules.
func ValidateInput(in LoanInput) error {
	if in.Principal < 0 {
		return apperrors.NewValidationError("principal", "principal must not be negative")
	}
	if in.AnnualRatePct < 0 {
		return apperrors.NewValidationError("annualRatePct", "annual rate must not be negative")
	}
	if in.TenureMonths < 0 {
		return apperrors.NewValidationError("tenureMonths", "tenure must not be negative")
	}
	if in.DefermentMonths < 0 {
		return apperrors.NewValidationError("defermentMonths", "deferment must not be negative")
	}
	return nil
}

// MonthLabel returns the display label for a ledger row: the calendar month
// when the loan start date is known, otherwise the global month number.
func (in LoanInput) MonthLabel(monthIndex int) string {
	if in.StartMonth != nil {
		return in.StartMonth.AddMonths(monthIndex - 1).String()
	}
	return fmt.Sprintf("M%d", monthIndex)
}
