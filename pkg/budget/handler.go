package budget

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/klokku/spendwise/internal/rest"
	"github.com/klokku/spendwise/pkg/currency"
	"github.com/klokku/spendwise/pkg/ledger"
	"github.com/klokku/spendwise/pkg/session"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type SummaryDTO struct {
	Goal         float64  `json:"goal"`
	TotalSpent   float64  `json:"totalSpent"`
	Remaining    float64  `json:"remaining"`
	Utilization  *float64 `json:"utilization"`
	OverBudget   bool     `json:"overBudget"`
	ExpenseCount int      `json:"expenseCount"`

	FormattedGoal       string `json:"formattedGoal"`
	FormattedTotalSpent string `json:"formattedTotalSpent"`
	FormattedRemaining  string `json:"formattedRemaining"`
}

type GoalDTO struct {
	Goal decimal.Decimal `json:"goal"`
}

type DailyTotalDTO struct {
	Date           string  `json:"date"`
	Total          float64 `json:"total"`
	FormattedTotal string  `json:"formattedTotal"`
}

type Handler struct {
	service   Service
	formatter *currency.Formatter
}

func NewHandler(service Service, formatter *currency.Formatter) *Handler {
	return &Handler{service: service, formatter: formatter}
}

// GetSummary godoc
// @Summary Get the budget summary
// @Description Total spent, remaining budget and utilization of the current session
// @Tags Budget
// @Produce json
// @Success 200 {object} SummaryDTO
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/budget [get]
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting budget summary")
	w.Header().Set("Content-Type", "application/json")

	summary, err := h.service.GetSummary(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, SummaryToDTO(summary, h.formatter))
}

// SetGoal godoc
// @Summary Set the budget goal
// @Tags Budget
// @Accept json
// @Produce json
// @Param goal body GoalDTO true "New budget goal"
// @Success 200 {object} SummaryDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/budget/goal [put]
func (h *Handler) SetGoal(w http.ResponseWriter, r *http.Request) {
	log.Debug("Setting budget goal")
	w.Header().Set("Content-Type", "application/json")

	var goalDTO GoalDTO
	if err := json.NewDecoder(r.Body).Decode(&goalDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	summary, err := h.service.SetGoal(r.Context(), goalDTO.Goal)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, SummaryToDTO(summary, h.formatter))
}

// GetDailyTotals godoc
// @Summary Get spending per day
// @Tags Budget
// @Produce json
// @Success 200 {array} DailyTotalDTO
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/budget/daily [get]
func (h *Handler) GetDailyTotals(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting daily totals")
	w.Header().Set("Content-Type", "application/json")

	totals, err := h.service.GetDailyTotals(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dtos := make([]DailyTotalDTO, 0, len(totals))
	for _, total := range totals {
		dtos = append(dtos, DailyTotalToDTO(total, h.formatter))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		rest.WriteError(w, http.StatusForbidden, "No active session", err.Error())
	case errors.Is(err, ErrInvalidGoal):
		rest.WriteError(w, http.StatusBadRequest, "Invalid budget goal", err.Error())
	default:
		log.Errorf("budget request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

func SummaryToDTO(summary Summary, formatter *currency.Formatter) SummaryDTO {
	dto := SummaryDTO{
		Goal:                summary.Goal.InexactFloat64(),
		TotalSpent:          summary.TotalSpent.InexactFloat64(),
		Remaining:           summary.Remaining.InexactFloat64(),
		OverBudget:          summary.OverBudget,
		ExpenseCount:        summary.ExpenseCount,
		FormattedGoal:       formatter.Format(summary.Goal),
		FormattedTotalSpent: formatter.Format(summary.TotalSpent),
		FormattedRemaining:  formatter.Format(summary.Remaining),
	}
	if summary.UtilizationDefined {
		u := summary.Utilization.InexactFloat64()
		dto.Utilization = &u
	}
	return dto
}

func DailyTotalToDTO(total DailyTotal, formatter *currency.Formatter) DailyTotalDTO {
	return DailyTotalDTO{
		Date:           total.Date.Format(ledger.DateLayout),
		Total:          total.Total.InexactFloat64(),
		FormattedTotal: formatter.Format(total.Total),
	}
}
