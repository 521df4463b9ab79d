package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loandash/internal/domain/loan"
	"loandash/internal/export"
)

type AnchorRequest struct {
	Month string `json:"month,omitempty"`
	Index int    `json:"index,omitempty"`
}

type PrepaymentRuleRequest struct {
	Kind         string         `json:"kind"`
	At           *AnchorRequest `json:"at,omitempty"`
	Start        *AnchorRequest `json:"start,omitempty"`
	End          *AnchorRequest `json:"end,omitempty"`
	EveryNMonths int            `json:"everyNMonths,omitempty"`
	Amount       float64        `json:"amount"`
	Strategy     string         `json:"strategy"`
}

type LoanRequest struct {
	Name            string                  `json:"name"`
	Principal       float64                 `json:"principal"`
	AnnualRatePct   float64                 `json:"annualRatePct"`
	TenureMonths    int                     `json:"tenureMonths"`
	StartMonth      string                  `json:"startMonth,omitempty"`
	DefermentMonths int                     `json:"defermentMonths"`
	Prepayments     []PrepaymentRuleRequest `json:"prepayments,omitempty"`
}

func (r *LoanRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	return validateParams(r.Principal, r.AnnualRatePct, r.TenureMonths, r.DefermentMonths, r.StartMonth, r.Prepayments)
}

// SimulateRequest is the ad-hoc simulation payload: the same shape as a
// stored loan but unnamed and unpersisted, for interactive what-if entry.
type SimulateRequest struct {
	Principal       float64                 `json:"principal"`
	AnnualRatePct   float64                 `json:"annualRatePct"`
	TenureMonths    int                     `json:"tenureMonths"`
	StartMonth      string                  `json:"startMonth,omitempty"`
	DefermentMonths int                     `json:"defermentMonths"`
	Prepayments     []PrepaymentRuleRequest `json:"prepayments,omitempty"`
}

func (r *SimulateRequest) Validate() error {
	return validateParams(r.Principal, r.AnnualRatePct, r.TenureMonths, r.DefermentMonths, r.StartMonth, r.Prepayments)
}

func validateParams(principal, ratePct float64, tenure, deferment int, startMonth string, rules []PrepaymentRuleRequest) error {
	if principal < 0 {
		return fmt.Errorf("principal must not be negative")
	}
	if ratePct < 0 {
		return fmt.Errorf("annualRatePct must not be negative")
	}
	if tenure < 0 {
		return fmt.Errorf("tenureMonths must not be negative")
	}
	if deferment < 0 {
		return fmt.Errorf("defermentMonths must not be negative")
	}
	if startMonth != "" {
		if _, err := loan.ParseMonth(startMonth); err != nil {
			return fmt.Errorf("invalid startMonth (use YYYY-MM): %w", err)
		}
	}
	for i, rule := range rules {
		if err := validateRule(rule); err != nil {
			return fmt.Errorf("prepayments[%d]: %w", i, err)
		}
	}
	return nil
}

func validateRule(rule PrepaymentRuleRequest) error {
	switch loan.RuleKind(rule.Kind) {
	case loan.RuleOnce, loan.RuleMonthly:
	case loan.RuleInterval:
		if rule.EveryNMonths < 1 {
			return fmt.Errorf("everyNMonths must be at least 1")
		}
	default:
		return fmt.Errorf("unknown rule kind %q", rule.Kind)
	}
	switch loan.Strategy(rule.Strategy) {
	case loan.StrategyReduceTenure, loan.StrategyReduceInstallment:
	default:
		return fmt.Errorf("unknown strategy %q", rule.Strategy)
	}
	for _, a := range []*AnchorRequest{rule.At, rule.Start, rule.End} {
		if a != nil && a.Month != "" {
			if _, err := loan.ParseMonth(a.Month); err != nil {
				return fmt.Errorf("invalid anchor month (use YYYY-MM): %w", err)
			}
		}
	}
	return nil
}

func (r *LoanRequest) ToDomain() (loan.LoanInput, []loan.PrepaymentRule, error) {
	return toDomainParams(r.Principal, r.AnnualRatePct, r.TenureMonths, r.DefermentMonths, r.StartMonth, r.Prepayments)
}

func (r *SimulateRequest) ToDomain() (loan.LoanInput, []loan.PrepaymentRule, error) {
	return toDomainParams(r.Principal, r.AnnualRatePct, r.TenureMonths, r.DefermentMonths, r.StartMonth, r.Prepayments)
}

func toDomainParams(principal, ratePct float64, tenure, deferment int, startMonth string, rules []PrepaymentRuleRequest) (loan.LoanInput, []loan.PrepaymentRule, error) {
	input := loan.LoanInput{
		Principal:       principal,
		AnnualRatePct:   ratePct,
		TenureMonths:    tenure,
		DefermentMonths: deferment,
	}
	if startMonth != "" {
		m, err := loan.ParseMonth(startMonth)
		if err != nil {
			return loan.LoanInput{}, nil, err
		}
		input.StartMonth = &m
	}

	domainRules := make([]loan.PrepaymentRule, 0, len(rules))
	for _, rule := range rules {
		at, err := toAnchor(rule.At)
		if err != nil {
			return loan.LoanInput{}, nil, err
		}
		start, err := toAnchorPtr(rule.Start)
		if err != nil {
			return loan.LoanInput{}, nil, err
		}
		end, err := toAnchorPtr(rule.End)
		if err != nil {
			return loan.LoanInput{}, nil, err
		}
		domainRules = append(domainRules, loan.PrepaymentRule{
			Kind:         loan.RuleKind(rule.Kind),
			At:           at,
			Start:        start,
			End:          end,
			EveryNMonths: rule.EveryNMonths,
			Amount:       rule.Amount,
			Strategy:     loan.Strategy(rule.Strategy),
		})
	}
	return input, domainRules, nil
}

func toAnchor(a *AnchorRequest) (loan.Anchor, error) {
	if a == nil {
		return loan.Anchor{}, nil
	}
	anchor := loan.Anchor{Index: a.Index}
	if a.Month != "" {
		m, err := loan.ParseMonth(a.Month)
		if err != nil {
			return loan.Anchor{}, err
		}
		anchor.Month = &m
	}
	return anchor, nil
}

func toAnchorPtr(a *AnchorRequest) (*loan.Anchor, error) {
	if a == nil {
		return nil, nil
	}
	anchor, err := toAnchor(a)
	if err != nil {
		return nil, err
	}
	return &anchor, nil
}

// MoneyFormatter renders an engine amount for display, applying any
// requested currency conversion. The default formats the implicit base unit
// with two decimals.
type MoneyFormatter func(v loan.Money) string

func BaseMoneyFormatter(v loan.Money) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

type LoanResponse struct {
	ID              int64                   `json:"id"`
	Name            string                  `json:"name"`
	Principal       string                  `json:"principal"`
	AnnualRatePct   float64                 `json:"annualRatePct"`
	TenureMonths    int                     `json:"tenureMonths"`
	StartMonth      string                  `json:"startMonth,omitempty"`
	DefermentMonths int                     `json:"defermentMonths"`
	Prepayments     []PrepaymentRuleRequest `json:"prepayments,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	resp := LoanResponse{
		ID:              l.ID,
		Name:            l.Name,
		Principal:       BaseMoneyFormatter(l.Input.Principal),
		AnnualRatePct:   l.Input.AnnualRatePct,
		TenureMonths:    l.Input.TenureMonths,
		DefermentMonths: l.Input.DefermentMonths,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
	if l.Input.StartMonth != nil {
		resp.StartMonth = l.Input.StartMonth.String()
	}
	for _, rule := range l.Rules {
		resp.Prepayments = append(resp.Prepayments, fromDomainRule(rule))
	}
	return resp
}

func fromDomainRule(rule loan.PrepaymentRule) PrepaymentRuleRequest {
	return PrepaymentRuleRequest{
		Kind:         string(rule.Kind),
		At:           fromAnchor(rule.At),
		Start:        fromAnchorPtr(rule.Start),
		End:          fromAnchorPtr(rule.End),
		EveryNMonths: rule.EveryNMonths,
		Amount:       rule.Amount,
		Strategy:     string(rule.Strategy),
	}
}

func fromAnchor(a loan.Anchor) *AnchorRequest {
	if a.Month == nil && a.Index == 0 {
		return nil
	}
	req := &AnchorRequest{Index: a.Index}
	if a.Month != nil {
		req.Month = a.Month.String()
	}
	return req
}

func fromAnchorPtr(a *loan.Anchor) *AnchorRequest {
	if a == nil {
		return nil
	}
	return fromAnchor(*a)
}

type LedgerRowResponse struct {
	Month              int    `json:"month"`
	Label              string `json:"label"`
	RepaymentMonth     int    `json:"repaymentMonth"`
	Phase              string `json:"phase"`
	OpeningBalance     string `json:"openingBalance"`
	Interest           string `json:"interest"`
	InstallmentPaid    string `json:"installmentPaid"`
	PrincipalPaid      string `json:"principalPaid"`
	PrepaymentPaid     string `json:"prepaymentPaid"`
	ClosingBalance     string `json:"closingBalance"`
	CurrentInstallment string `json:"currentInstallment"`
	Note               string `json:"note,omitempty"`
}

type BaselineResponse struct {
	Installment   string `json:"installment"`
	TotalInterest string `json:"totalInterest"`
	TotalMonths   int    `json:"totalMonths"`
}

type SimulationResponse struct {
	Converged                bool                `json:"converged"`
	Currency                 string              `json:"currency"`
	TotalMonths              int                 `json:"totalMonths"`
	RepaymentMonthsUsed      int                 `json:"repaymentMonthsUsed"`
	DefermentMonths          int                 `json:"defermentMonths"`
	PostDefermentInstallment string              `json:"postDefermentInstallment"`
	TotalInterest            string              `json:"totalInterest"`
	DefermentInterest        string              `json:"defermentInterest"`
	InterestSaved            string              `json:"interestSaved"`
	MonthsSaved              int                 `json:"monthsSaved"`
	Baseline                 BaselineResponse    `json:"baseline"`
	Rows                     []LedgerRowResponse `json:"rows"`
}

func NewSimulationResponse(input loan.LoanInput, sim *loan.Simulation, currency string, format MoneyFormatter) SimulationResponse {
	resp := SimulationResponse{
		Converged:                sim.Result.Converged,
		Currency:                 currency,
		TotalMonths:              sim.Result.TotalMonths,
		RepaymentMonthsUsed:      sim.Result.RepaymentMonthsUsed,
		DefermentMonths:          sim.Result.DefermentMonths,
		PostDefermentInstallment: format(sim.Result.PostDefermentInstallment),
		TotalInterest:            format(sim.Result.TotalInterest),
		DefermentInterest:        format(sim.Result.DefermentInterest),
		InterestSaved:            format(sim.InterestSaved),
		MonthsSaved:              sim.MonthsSaved,
		Baseline: BaselineResponse{
			Installment:   format(sim.Baseline.PostDefermentInstallment),
			TotalInterest: format(sim.Baseline.TotalInterest),
			TotalMonths:   sim.Baseline.TotalMonths,
		},
	}
	for _, row := range sim.Result.Rows {
		resp.Rows = append(resp.Rows, LedgerRowResponse{
			Month:              row.MonthIndex,
			Label:              input.MonthLabel(row.MonthIndex),
			RepaymentMonth:     row.RepaymentMonthIndex,
			Phase:              string(row.Phase),
			OpeningBalance:     format(row.OpeningBalance),
			Interest:           format(row.InterestAccrued),
			InstallmentPaid:    format(row.InstallmentPaid),
			PrincipalPaid:      format(row.PrincipalPaid),
			PrepaymentPaid:     format(row.PrepaymentPaid),
			ClosingBalance:     format(row.ClosingBalance),
			CurrentInstallment: format(row.CurrentInstallment),
			Note:               row.Note,
		})
	}
	return resp
}

type ChartResponse struct {
	Points []export.ChartPoint `json:"points"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username"`
}
