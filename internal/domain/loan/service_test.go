package loan

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"loandash/internal/pkg/apperrors"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) CreateLoan(ctx context.Context, l *Loan) (*Loan, error) {
	ret := _m.Called(ctx, l)
	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) GetLoanByID(ctx context.Context, loanID int64) (*Loan, error) {
	ret := _m.Called(ctx, loanID)
	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListLoans(ctx context.Context) ([]*Loan, error) {
	ret := _m.Called(ctx)
	var r0 []*Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdateLoan(ctx context.Context, l *Loan) (*Loan, error) {
	ret := _m.Called(ctx, l)
	var r0 *Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) DeleteLoan(ctx context.Context, loanID int64) error {
	ret := _m.Called(ctx, loanID)
	return ret.Error(0)
}

type MockScheduleCache struct {
	mock.Mock
}

func (_m *MockScheduleCache) Get(ctx context.Context, loanID int64) (*Simulation, error) {
	ret := _m.Called(ctx, loanID)
	var r0 *Simulation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Simulation)
	}
	return r0, ret.Error(1)
}

func (_m *MockScheduleCache) Set(ctx context.Context, loanID int64, sim *Simulation) error {
	ret := _m.Called(ctx, loanID, sim)
	return ret.Error(0)
}

func (_m *MockScheduleCache) Invalidate(ctx context.Context, loanID int64) error {
	ret := _m.Called(ctx, loanID)
	return ret.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (_m *MockPublisher) PublishScheduleSimulated(ctx context.Context, loanID int64, sim *Simulation) error {
	ret := _m.Called(ctx, loanID, sim)
	return ret.Error(0)
}

func TestCreateLoan(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a valid loan", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewLoanService(repo, nil, nil, logger)

		stored := &Loan{ID: 1, Name: "home", Input: referenceInput}
		repo.On("CreateLoan", ctx, mock.AnythingOfType("*loan.Loan")).Return(stored, nil)

		created, err := svc.CreateLoan(ctx, "home", referenceInput, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		repo.AssertExpectations(t)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewLoanService(repo, nil, nil, logger)

		_, err := svc.CreateLoan(ctx, "home", LoanInput{Principal: -1}, nil)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		repo.AssertNotCalled(t, "CreateLoan")
	})

	t.Run("rejects empty name", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewLoanService(repo, nil, nil, logger)

		_, err := svc.CreateLoan(ctx, "", referenceInput, nil)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestGetLoanNotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewLoanService(repo, nil, nil, logger)

	repo.On("GetLoanByID", ctx, int64(42)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.GetLoan(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSimulateLoan(t *testing.T) {
	ctx := context.Background()
	stored := &Loan{ID: 7, Name: "home", Input: referenceInput}

	t.Run("cache hit skips recomputation", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockScheduleCache)
		svc := NewLoanService(repo, cache, nil, logger)

		cached := &Simulation{Result: ScheduleResult{TotalMonths: 240, Converged: true}}
		repo.On("GetLoanByID", ctx, int64(7)).Return(stored, nil)
		cache.On("Get", ctx, int64(7)).Return(cached, nil)

		l, sim, err := svc.SimulateLoan(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, stored, l)
		assert.Same(t, cached, sim)
		cache.AssertNotCalled(t, "Set")
	})

	t.Run("cache miss computes, caches and publishes", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockScheduleCache)
		publisher := new(MockPublisher)
		svc := NewLoanService(repo, cache, publisher, logger)

		repo.On("GetLoanByID", ctx, int64(7)).Return(stored, nil)
		cache.On("Get", ctx, int64(7)).Return(nil, nil)
		cache.On("Set", ctx, int64(7), mock.AnythingOfType("*loan.Simulation")).Return(nil)
		publisher.On("PublishScheduleSimulated", ctx, int64(7), mock.AnythingOfType("*loan.Simulation")).Return(nil)

		_, sim, err := svc.SimulateLoan(ctx, 7)
		require.NoError(t, err)
		assert.True(t, sim.Result.Converged)
		assert.Equal(t, 240, sim.Result.TotalMonths)
		cache.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("cache failures are non-fatal", func(t *testing.T) {
		repo := new(MockRepository)
		cache := new(MockScheduleCache)
		svc := NewLoanService(repo, cache, nil, logger)

		repo.On("GetLoanByID", ctx, int64(7)).Return(stored, nil)
		cache.On("Get", ctx, int64(7)).Return(nil, errors.New("redis down"))
		cache.On("Set", ctx, int64(7), mock.Anything).Return(errors.New("redis down"))

		_, sim, err := svc.SimulateLoan(ctx, 7)
		require.NoError(t, err)
		assert.NotNil(t, sim)
	})
}

func TestUpdateLoanInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	cache := new(MockScheduleCache)
	svc := NewLoanService(repo, cache, nil, logger)

	updated := &Loan{ID: 7, Name: "home", Input: referenceInput}
	repo.On("UpdateLoan", ctx, mock.AnythingOfType("*loan.Loan")).Return(updated, nil)
	cache.On("Invalidate", ctx, int64(7)).Return(nil)

	_, err := svc.UpdateLoan(ctx, 7, "home", referenceInput, nil)
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestDeleteLoanInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	cache := new(MockScheduleCache)
	svc := NewLoanService(repo, cache, nil, logger)

	repo.On("DeleteLoan", ctx, int64(7)).Return(nil)
	cache.On("Invalidate", ctx, int64(7)).Return(nil)

	require.NoError(t, svc.DeleteLoan(ctx, 7))
	cache.AssertExpectations(t)
}

func TestSimulateAdhocInsights(t *testing.T) {
	svc := NewLoanService(new(MockRepository), nil, nil, logger)

	rules := []PrepaymentRule{
		{Kind: RuleOnce, At: Anchor{Index: 12}, Amount: 50000, Strategy: StrategyReduceTenure},
	}
	sim := svc.SimulateAdhoc(context.Background(), referenceInput, rules)

	assert.True(t, sim.Result.Converged)
	assert.Greater(t, sim.InterestSaved, 0.0)
	assert.Greater(t, sim.MonthsSaved, 0)
	assert.Equal(t, 240, sim.Baseline.TotalMonths)

	// The baseline itself carries no deferment and no prepayments.
	assert.Equal(t, 0, sim.Baseline.DefermentMonths)
	for _, row := range sim.Baseline.Rows {
		assert.Equal(t, 0.0, row.PrepaymentPaid)
	}
}
