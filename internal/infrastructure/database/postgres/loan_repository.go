package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"

	"loandash/internal/domain/loan"
	"loandash/internal/infrastructure/monitoring"
	"loandash/internal/pkg/apperrors"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var _ loan.Repository = (*LoanRepository)(nil)

var errMsgFormat = "%w: %w"

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

const selectLoanColumns = `id, name, principal, annual_rate_pct, tenure_months, start_month, deferment_months, created_at, updated_at`

const selectRuleColumns = `kind, at_month, at_index, start_anchor_month, start_anchor_index, end_anchor_month, end_anchor_index, every_n_months, amount, strategy`

func (r *LoanRepository) CreateLoan(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	start := time.Now()
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rollback(ctx, tx, r.logger)

	loanSQL := `
        INSERT INTO loans (name, principal, annual_rate_pct, tenure_months, start_month, deferment_months, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING ` + selectLoanColumns

	created, err := scanLoan(tx.QueryRow(ctx, loanSQL,
		l.Name, l.Input.Principal, l.Input.AnnualRatePct, l.Input.TenureMonths,
		monthText(l.Input.StartMonth), l.Input.DefermentMonths,
	))
	if err != nil {
		monitoring.RecordDBQuery("create_loan", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	if err := insertRules(ctx, tx, created.ID, l.Rules); err != nil {
		monitoring.RecordDBQuery("create_loan", "error", time.Since(start))
		return nil, err
	}
	created.Rules = l.Rules

	if err := tx.Commit(ctx); err != nil {
		monitoring.RecordDBQuery("create_loan", "error", time.Since(start))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("create_loan", "ok", time.Since(start))
	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", created.ID)
	return created, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	start := time.Now()
	sql := `SELECT ` + selectLoanColumns + ` FROM loans WHERE id = $1`
	l, err := scanLoan(r.db.QueryRow(ctx, sql, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			monitoring.RecordDBQuery("get_loan", "not_found", time.Since(start))
			return nil, fmt.Errorf("%w: loan %d", apperrors.ErrNotFound, loanID)
		}
		monitoring.RecordDBQuery("get_loan", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query loan", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	rules, err := r.loadRules(ctx, loanID)
	if err != nil {
		monitoring.RecordDBQuery("get_loan", "error", time.Since(start))
		return nil, err
	}
	l.Rules = rules
	monitoring.RecordDBQuery("get_loan", "ok", time.Since(start))
	return l, nil
}

func (r *LoanRepository) ListLoans(ctx context.Context) ([]*loan.Loan, error) {
	start := time.Now()
	sql := `SELECT ` + selectLoanColumns + ` FROM loans ORDER BY id`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		monitoring.RecordDBQuery("list_loans", "error", time.Since(start))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var loans []*loan.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			monitoring.RecordDBQuery("list_loans", "error", time.Since(start))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery("list_loans", "error", time.Since(start))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	for _, l := range loans {
		rules, err := r.loadRules(ctx, l.ID)
		if err != nil {
			monitoring.RecordDBQuery("list_loans", "error", time.Since(start))
			return nil, err
		}
		l.Rules = rules
	}
	monitoring.RecordDBQuery("list_loans", "ok", time.Since(start))
	return loans, nil
}

func (r *LoanRepository) UpdateLoan(ctx context.Context, l *loan.Loan) (*loan.Loan, error) {
	start := time.Now()
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rollback(ctx, tx, r.logger)

	updateSQL := `
        UPDATE loans
        SET name = $2, principal = $3, annual_rate_pct = $4, tenure_months = $5, start_month = $6, deferment_months = $7, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + selectLoanColumns

	updated, err := scanLoan(tx.QueryRow(ctx, updateSQL,
		l.ID, l.Name, l.Input.Principal, l.Input.AnnualRatePct, l.Input.TenureMonths,
		monthText(l.Input.StartMonth), l.Input.DefermentMonths,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			monitoring.RecordDBQuery("update_loan", "not_found", time.Since(start))
			return nil, fmt.Errorf("%w: loan %d", apperrors.ErrNotFound, l.ID)
		}
		monitoring.RecordDBQuery("update_loan", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to update loan", "loan_id", l.ID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM prepayment_rules WHERE loan_id = $1`, l.ID); err != nil {
		monitoring.RecordDBQuery("update_loan", "error", time.Since(start))
		return nil, fmt.Errorf("%w: failed to clear prepayment rules: %w", apperrors.ErrDatabase, err)
	}
	if err := insertRules(ctx, tx, l.ID, l.Rules); err != nil {
		monitoring.RecordDBQuery("update_loan", "error", time.Since(start))
		return nil, err
	}
	updated.Rules = l.Rules

	if err := tx.Commit(ctx); err != nil {
		monitoring.RecordDBQuery("update_loan", "error", time.Since(start))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("update_loan", "ok", time.Since(start))
	return updated, nil
}

func (r *LoanRepository) DeleteLoan(ctx context.Context, loanID int64) error {
	start := time.Now()
	tag, err := r.db.Exec(ctx, `DELETE FROM loans WHERE id = $1`, loanID)
	if err != nil {
		monitoring.RecordDBQuery("delete_loan", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to delete loan", "loan_id", loanID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if tag.RowsAffected() == 0 {
		monitoring.RecordDBQuery("delete_loan", "not_found", time.Since(start))
		return fmt.Errorf("%w: loan %d", apperrors.ErrNotFound, loanID)
	}
	monitoring.RecordDBQuery("delete_loan", "ok", time.Since(start))
	return nil
}

// insertRules writes the ordered rule list; position preserves evaluation
// order across round trips.
func insertRules(ctx context.Context, tx pgx.Tx, loanID int64, rules []loan.PrepaymentRule) error {
	if len(rules) == 0 {
		return nil
	}
	ruleSQL := `
        INSERT INTO prepayment_rules (loan_id, position, ` + selectRuleColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	batch := &pgx.Batch{}
	for i, rule := range rules {
		batch.Queue(ruleSQL, loanID, i,
			string(rule.Kind),
			monthText(rule.At.Month), rule.At.Index,
			anchorMonthText(rule.Start), anchorIndex(rule.Start),
			anchorMonthText(rule.End), anchorIndex(rule.End),
			rule.EveryNMonths, rule.Amount, string(rule.Strategy),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < len(rules); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("%w: failed inserting prepayment rule %d: %w", apperrors.ErrDatabase, i+1, err)
		}
	}
	return results.Close()
}

func (r *LoanRepository) loadRules(ctx context.Context, loanID int64) ([]loan.PrepaymentRule, error) {
	sql := `SELECT ` + selectRuleColumns + ` FROM prepayment_rules WHERE loan_id = $1 ORDER BY position`
	rows, err := r.db.Query(ctx, sql, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query prepayment rules: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	var rules []loan.PrepaymentRule
	for rows.Next() {
		var (
			kind, strategy                string
			atMonth, startMonth, endMonth *string
			atIndex, startIndex, endIndex int
			everyN                        int
			amount                        float64
		)
		if err := rows.Scan(&kind, &atMonth, &atIndex, &startMonth, &startIndex, &endMonth, &endIndex, &everyN, &amount, &strategy); err != nil {
			return nil, fmt.Errorf("%w: failed to scan prepayment rule: %w", apperrors.ErrDatabase, err)
		}
		rule := loan.PrepaymentRule{
			Kind:         loan.RuleKind(kind),
			At:           loan.Anchor{Month: parseMonthText(atMonth), Index: atIndex},
			Start:        buildAnchor(startMonth, startIndex),
			End:          buildAnchor(endMonth, endIndex),
			EveryNMonths: everyN,
			Amount:       amount,
			Strategy:     loan.Strategy(strategy),
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return rules, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*loan.Loan, error) {
	var (
		l          loan.Loan
		startMonth *string
	)
	err := row.Scan(&l.ID, &l.Name, &l.Input.Principal, &l.Input.AnnualRatePct, &l.Input.TenureMonths,
		&startMonth, &l.Input.DefermentMonths, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Input.StartMonth = parseMonthText(startMonth)
	return &l, nil
}

func rollback(ctx context.Context, tx pgx.Tx, logger *slog.Logger) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
	}
}

func monthText(m *loan.Month) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}

func parseMonthText(s *string) *loan.Month {
	if s == nil || *s == "" {
		return nil
	}
	m, err := loan.ParseMonth(*s)
	if err != nil {
		return nil
	}
	return &m
}

func anchorMonthText(a *loan.Anchor) *string {
	if a == nil {
		return nil
	}
	return monthText(a.Month)
}

func anchorIndex(a *loan.Anchor) int {
	if a == nil {
		return 0
	}
	return a.Index
}

func buildAnchor(month *string, index int) *loan.Anchor {
	m := parseMonthText(month)
	if m == nil && index == 0 {
		return nil
	}
	return &loan.Anchor{Month: m, Index: index}
}
