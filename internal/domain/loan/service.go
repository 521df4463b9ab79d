package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"loandash/internal/infrastructure/monitoring"
	"loandash/internal/pkg/apperrors"
)

// Simulation pairs the configured run with its baseline (same principal,
// rate and tenure, but no deferment and no prepayments). The simulator
// itself is comparison-agnostic, so the service invokes it twice.
type Simulation struct {
	Result        ScheduleResult
	Baseline      ScheduleResult
	InterestSaved Money
	MonthsSaved   int
}

type LoanService interface {
	CreateLoan(ctx context.Context, name string, input LoanInput, rules []PrepaymentRule) (*Loan, error)

	GetLoan(ctx context.Context, loanID int64) (*Loan, error)

	ListLoans(ctx context.Context) ([]*Loan, error)

	UpdateLoan(ctx context.Context, loanID int64, name string, input LoanInput, rules []PrepaymentRule) (*Loan, error)

	DeleteLoan(ctx context.Context, loanID int64) error

	SimulateLoan(ctx context.Context, loanID int64) (*Loan, *Simulation, error)

	SimulateAdhoc(ctx context.Context, input LoanInput, rules []PrepaymentRule) *Simulation
}

type loanServiceImpl struct {
	repo      Repository
	cache     ScheduleCache
	publisher SimulationPublisher
	logger    *slog.Logger
}

// NewLoanService wires the service. Cache and publisher are optional; a nil
// value disables that concern.
func NewLoanService(r Repository, cache ScheduleCache, publisher SimulationPublisher, logger *slog.Logger) LoanService {
	return &loanServiceImpl{repo: r, cache: cache, publisher: publisher, logger: logger.With("component", "LoanService")}
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, name string, input LoanInput, rules []PrepaymentRule) (*Loan, error) {
	s.logger.InfoContext(ctx, "Creating new loan", "name", name)
	l, err := NewLoan(name, input, rules)
	if err != nil {
		s.logger.ErrorContext(ctx, "Invalid loan input", slog.Any("error", err))
		return nil, err
	}
	created, err := s.repo.CreateLoan(ctx, l)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}
	s.logger.InfoContext(ctx, "Loan created", "loanID", created.ID)
	return created, nil
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, loanID)
		}
		s.logger.ErrorContext(ctx, "Failed to load loan", "loanID", loanID, slog.Any("error", err))
		return nil, fmt.Errorf("failed to load loan %d: %w", loanID, err)
	}
	return l, nil
}

func (s *loanServiceImpl) ListLoans(ctx context.Context) ([]*Loan, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return loans, nil
}

func (s *loanServiceImpl) UpdateLoan(ctx context.Context, loanID int64, name string, input LoanInput, rules []PrepaymentRule) (*Loan, error) {
	s.logger.InfoContext(ctx, "Updating loan", "loanID", loanID)
	l, err := NewLoan(name, input, rules)
	if err != nil {
		return nil, err
	}
	l.ID = loanID
	updated, err := s.repo.UpdateLoan(ctx, l)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update loan", "loanID", loanID, slog.Any("error", err))
		return nil, fmt.Errorf("failed to update loan %d: %w", loanID, err)
	}
	s.invalidateCache(ctx, loanID)
	return updated, nil
}

func (s *loanServiceImpl) DeleteLoan(ctx context.Context, loanID int64) error {
	s.logger.InfoContext(ctx, "Deleting loan", "loanID", loanID)
	if err := s.repo.DeleteLoan(ctx, loanID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete loan", "loanID", loanID, slog.Any("error", err))
		return fmt.Errorf("failed to delete loan %d: %w", loanID, err)
	}
	s.invalidateCache(ctx, loanID)
	return nil
}

func (s *loanServiceImpl) SimulateLoan(ctx context.Context, loanID int64) (*Loan, *Simulation, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}

	if s.cache != nil {
		cached, cacheErr := s.cache.Get(ctx, loanID)
		if cacheErr != nil {
			s.logger.WarnContext(ctx, "Schedule cache read failed", "loanID", loanID, slog.Any("error", cacheErr))
		} else if cached != nil {
			monitoring.RecordScheduleCache("hit")
			return l, cached, nil
		} else {
			monitoring.RecordScheduleCache("miss")
		}
	}

	sim := s.SimulateAdhoc(ctx, l.Input, l.Rules)

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, loanID, sim); cacheErr != nil {
			s.logger.WarnContext(ctx, "Schedule cache write failed", "loanID", loanID, slog.Any("error", cacheErr))
		}
	}
	if s.publisher != nil {
		if pubErr := s.publisher.PublishScheduleSimulated(ctx, loanID, sim); pubErr != nil {
			s.logger.WarnContext(ctx, "Failed to publish simulation event", "loanID", loanID, slog.Any("error", pubErr))
		}
	}
	return l, sim, nil
}

func (s *loanServiceImpl) SimulateAdhoc(ctx context.Context, input LoanInput, rules []PrepaymentRule) *Simulation {
	result := Simulate(input, rules)
	baseline := Simulate(LoanInput{
		Principal:     input.Principal,
		AnnualRatePct: input.AnnualRatePct,
		TenureMonths:  input.TenureMonths,
		StartMonth:    input.StartMonth,
	}, nil)

	monitoring.RecordSimulation(result.Converged)
	if !result.Converged {
		s.logger.WarnContext(ctx, "Simulation hit the iteration safety cap",
			"principal", input.Principal, "tenureMonths", input.TenureMonths)
	}

	return &Simulation{
		Result:        result,
		Baseline:      baseline,
		InterestSaved: baseline.TotalInterest - result.TotalInterest,
		MonthsSaved:   baseline.TotalMonths - result.TotalMonths,
	}
}

func (s *loanServiceImpl) invalidateCache(ctx context.Context, loanID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, loanID); err != nil {
		s.logger.WarnContext(ctx, "Schedule cache invalidation failed", "loanID", loanID, slog.Any("error", err))
	}
}
