package loan

import "fmt"

const (
	// BalanceEpsilon is the tolerance below which a balance counts as settled.
	BalanceEpsilon = 0.01

	// safetyCapExtra bounds the repayment loop at tenure + safetyCapExtra
	// iterations so rule configurations that never converge still terminate.
	safetyCapExtra = 600
)

// Simulate walks the loan month by month: a deferment phase where interest
// capitalizes onto the balance, then a repayment phase applying the
// installment, any prepayment for the month, and the strategy-driven
// re-amortization. It is a pure function: no shared state, safe for
// concurrent callers, deterministic for identical inputs.
//
// ReduceInstallment spreads the balance over the months left in the current
// plan, and a prior ReduceTenure prepayment retargets that plan — so a later
// installment reduction honors the shortened horizon rather than the tenure
// the loan started with.
//
// Degenerate inputs never panic or error. Zero principal or zero tenure
// yield an empty schedule; an installment that cannot cover interest runs
// into the safety cap and is reported with Converged set to false.
func Simulate(in LoanInput, rules []PrepaymentRule) ScheduleResult {
	res := ScheduleResult{DefermentMonths: in.DefermentMonths, Converged: true}
	if in.Principal <= 0 || in.TenureMonths <= 0 {
		return res
	}

	rate := monthlyRate(in.AnnualRatePct)
	balance := in.Principal
	month := 0

	for d := 0; d < in.DefermentMonths; d++ {
		month++
		interest := balance * rate
		res.Rows = append(res.Rows, LedgerRow{
			MonthIndex:      month,
			Phase:           PhaseDeferment,
			OpeningBalance:  balance,
			InterestAccrued: interest,
			ClosingBalance:  balance + interest,
			Note:            "Interest capitalized",
		})
		balance += interest
		res.DefermentInterest += interest
		res.TotalInterest += interest
	}

	installment := Installment(balance, in.AnnualRatePct, in.TenureMonths)
	res.PostDefermentInstallment = installment

	maxMonths := in.TenureMonths + safetyCapExtra
	table := ExpandRules(rules, maxMonths, in.StartMonth, in.DefermentMonths)
	plannedMonths := in.TenureMonths

	m := 0
	for balance > BalanceEpsilon && m < maxMonths {
		m++
		month++
		opening := balance
		interest := opening * rate
		res.TotalInterest += interest

		principalPart := installment - interest
		if principalPart > balance {
			principalPart = balance
		}
		balance -= principalPart

		row := LedgerRow{
			MonthIndex:          month,
			RepaymentMonthIndex: m,
			Phase:               PhaseRepayment,
			OpeningBalance:      opening,
			InterestAccrued:     interest,
			InstallmentPaid:     interest + principalPart,
			PrincipalPaid:       principalPart,
			CurrentInstallment:  installment,
		}

		if entry, ok := table[m]; ok && balance > BalanceEpsilon {
			prepaid := entry.Amount
			if prepaid > balance {
				prepaid = balance
			}
			balance -= prepaid
			row.PrepaymentPaid = prepaid
			row.Note = fmt.Sprintf("Prepayment %.2f (%s)", prepaid, entry.Label)

			if balance > BalanceEpsilon {
				switch entry.Strategy {
				case StrategyReduceInstallment:
					// Nothing left to adjust when the planned tenure is
					// already used up; the current installment stands.
					if remaining := plannedMonths - m; remaining > 0 {
						installment = Installment(balance, in.AnnualRatePct, remaining)
					}
				case StrategyReduceTenure:
					// TenureNever means the fixed installment no longer
					// covers interest; skip and keep the current plan.
					if n := TenureFor(balance, in.AnnualRatePct, installment); n != TenureNever {
						plannedMonths = m + n
					}
				}
				row.CurrentInstallment = installment
			}
		}

		row.ClosingBalance = balance
		res.Rows = append(res.Rows, row)
	}

	res.RepaymentMonthsUsed = m
	res.TotalMonths = in.DefermentMonths + m
	res.Converged = balance <= BalanceEpsilon
	return res
}
