package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"loandash/internal/api/handler/dto"
	"loandash/internal/domain/currency"
	"loandash/internal/domain/loan"
	"loandash/internal/export"
	"loandash/internal/infrastructure/monitoring"
	"loandash/internal/pkg/apperrors"
)

type LoanHandler struct {
	service   loan.LoanService
	converter *currency.Converter
	logger    *slog.Logger
}

func NewLoanHandler(s loan.LoanService, conv *currency.Converter, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service:   s,
		converter: conv,
		logger:    l.With("component", "LoanHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrCurrencyUnknown):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrScheduleNotConverged):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.As(err, &appErr):
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func getLoanIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "loanID")
	if idStr == "" {
		return 0, fmt.Errorf("loanID not found in URL path")
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// displayFormatter resolves the optional ?currency= query parameter into a
// money formatter; without it amounts stay in the engine's base unit.
func (h *LoanHandler) displayFormatter(r *http.Request) (string, dto.MoneyFormatter, error) {
	code := r.URL.Query().Get("currency")
	if code == "" || h.converter == nil {
		base := ""
		if h.converter != nil {
			base = h.converter.Base()
		}
		return base, dto.BaseMoneyFormatter, nil
	}
	if !h.converter.Supports(code) {
		return "", nil, fmt.Errorf("%w: %q", apperrors.ErrCurrencyUnknown, code)
	}
	format := func(v loan.Money) string {
		d, err := h.converter.Convert(v, code)
		if err != nil {
			return dto.BaseMoneyFormatter(v)
		}
		return d.StringFixed(2)
	}
	return strings.ToUpper(code), format, nil
}

// CreateLoan handles the creation of a new loan.
//
// @Summary Create a new loan
// @Description Stores a loan's parameters and its ordered prepayment rules.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanRequest true "Loan creation request payload"
// @Success 201 {object} dto.LoanResponse "Loan successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.LoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	input, rules, err := req.ToDomain()
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.CreateLoan(r.Context(), req.Name, input, rules)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(created))
}

// GetLoan retrieves the details of a specific loan.
//
// @Summary Retrieve loan details
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.LoanResponse "Loan details successfully retrieved"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	domainLoan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanResponse(domainLoan))
}

// ListLoans lists every stored loan.
//
// @Summary List loans
// @Tags Loans
// @Produce json
// @Success 200 {array} dto.LoanResponse
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.LoanResponse, 0, len(loans))
	for _, l := range loans {
		resp = append(resp, dto.NewLoanResponse(l))
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateLoan replaces a loan's parameters and rules.
//
// @Summary Update a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.LoanRequest true "Loan update request payload"
// @Success 200 {object} dto.LoanResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID} [put]
// @Security BearerAuth
func (h *LoanHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.LoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	input, rules, err := req.ToDomain()
	if err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.UpdateLoan(r.Context(), loanID, req.Name, input, rules)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated))
}

// DeleteLoan removes a stored loan.
//
// @Summary Delete a loan
// @Tags Loans
// @Param loanID path int true "Loan ID"
// @Success 204 "Loan deleted"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID} [delete]
// @Security BearerAuth
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.DeleteLoan(r.Context(), loanID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchedule simulates a stored loan and returns the full ledger plus the
// baseline comparison. A schedule that hit the iteration safety cap is still
// returned, with converged set to false.
//
// @Summary Simulate a loan's amortization schedule
// @Tags Schedules
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param currency query string false "Display currency code"
// @Success 200 {object} dto.SimulationResponse
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID}/schedule [get]
// @Security BearerAuth
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	code, format, err := h.displayFormatter(r)
	if err != nil {
		respondError(w, err)
		return
	}

	l, sim, err := h.service.SimulateLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewSimulationResponse(l.Input, sim, code, format))
}

// SimulateAdhoc runs a what-if simulation without persisting anything.
//
// @Summary Run an ad-hoc simulation
// @Tags Schedules
// @Accept json
// @Produce json
// @Param request body dto.SimulateRequest true "Simulation parameters"
// @Param currency query string false "Display currency code"
// @Success 200 {object} dto.SimulationResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Router /simulations [post]
// @Security BearerAuth
func (h *LoanHandler) SimulateAdhoc(w http.ResponseWriter, r *http.Request) {
	var req dto.SimulateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	code, format, err := h.displayFormatter(r)
	if err != nil {
		respondError(w, err)
		return
	}

	input, rules, err := req.ToDomain()
	if err != nil {
		respondError(w, err)
		return
	}

	sim := h.service.SimulateAdhoc(r.Context(), input, rules)
	respondJSON(w, http.StatusOK, dto.NewSimulationResponse(input, sim, code, format))
}

// GetScheduleChart returns the schedule's balance curve downsampled to a
// bounded point count for the dashboard chart.
//
// @Summary Get chart points for a loan's schedule
// @Tags Schedules
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param maxPoints query int false "Maximum number of points"
// @Success 200 {object} dto.ChartResponse
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID}/schedule/chart [get]
// @Security BearerAuth
func (h *LoanHandler) GetScheduleChart(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	maxPoints := export.DefaultMaxChartPoints
	if raw := r.URL.Query().Get("maxPoints"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil || parsed < 1 {
			respondError(w, fmt.Errorf("%w: maxPoints must be a positive integer", apperrors.ErrInvalidArgument))
			return
		}
		maxPoints = parsed
	}

	l, sim, err := h.service.SimulateLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	points := export.ChartSeries(l.Input, sim.Result.Rows, maxPoints)
	respondJSON(w, http.StatusOK, dto.ChartResponse{Points: points})
}

// ExportScheduleCSV streams the schedule as a CSV download. Schedules that
// did not converge are refused rather than exported as if complete.
//
// @Summary Export a loan's schedule as CSV
// @Tags Schedules
// @Produce text/csv
// @Param loanID path int true "Loan ID"
// @Success 200 {string} string "CSV content"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 422 {object} dto.ErrorResponse "Schedule did not converge"
// @Router /loans/{loanID}/schedule/export [get]
// @Security BearerAuth
func (h *LoanHandler) ExportScheduleCSV(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	l, sim, err := h.service.SimulateLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !sim.Result.Converged {
		respondError(w, fmt.Errorf("%w: loan %d", apperrors.ErrScheduleNotConverged, loanID))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="schedule-%d.csv"`, loanID))
	if err := export.WriteScheduleCSV(w, l.Input, sim.Result.Rows); err != nil {
		h.logger.Error("Failed to stream schedule CSV", "loanID", loanID, "error", err)
		return
	}
	monitoring.RecordExport()
}
