package loan

import "context"

// Repository persists loan inputs and their prepayment rules. Rule order
// must survive a round trip, since expansion is order-sensitive.
type Repository interface {
	CreateLoan(ctx context.Context, l *Loan) (*Loan, error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	ListLoans(ctx context.Context) ([]*Loan, error)

	UpdateLoan(ctx context.Context, l *Loan) (*Loan, error)

	DeleteLoan(ctx context.Context, loanID int64) error
}

// ScheduleCache keeps the most recent simulation per loan so the dashboard
// can re-render without recomputing. A miss returns (nil, nil).
type ScheduleCache interface {
	Get(ctx context.Context, loanID int64) (*Simulation, error)

	Set(ctx context.Context, loanID int64, sim *Simulation) error

	Invalidate(ctx context.Context, loanID int64) error
}

// SimulationPublisher notifies downstream consumers that a loan's schedule
// was recomputed.
type SimulationPublisher interface {
	PublishScheduleSimulated(ctx context.Context, loanID int64, sim *Simulation) error
}
