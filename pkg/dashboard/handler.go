package dashboard

import (
	"errors"
	"net/http"

	"github.com/klokku/spendwise/internal/rest"
	"github.com/klokku/spendwise/pkg/advisor"
	"github.com/klokku/spendwise/pkg/budget"
	"github.com/klokku/spendwise/pkg/currency"
	"github.com/klokku/spendwise/pkg/expense"
	"github.com/klokku/spendwise/pkg/session"
	log "github.com/sirupsen/logrus"
)

type IdentityDTO struct {
	Name string       `json:"name"`
	Kind session.Kind `json:"kind"`
}

type AdvisorDTO struct {
	Enabled   bool              `json:"enabled"`
	KeySource advisor.KeySource `json:"keySource"`
	Models    []string          `json:"models"`
}

// DashboardDTO is everything the single page needs to render after any change.
type DashboardDTO struct {
	Identity       IdentityDTO            `json:"identity"`
	CurrencySymbol string                 `json:"currencySymbol"`
	Expenses       []expense.ExpenseDTO   `json:"expenses"`
	Summary        budget.SummaryDTO      `json:"summary"`
	Daily          []budget.DailyTotalDTO `json:"daily"`
	Conversation   []advisor.TurnDTO      `json:"conversation"`
	Advisor        AdvisorDTO             `json:"advisor"`
}

type Handler struct {
	expenses  expense.Service
	budgets   budget.Service
	advisor   advisor.Service
	formatter *currency.Formatter
}

func NewHandler(expenses expense.Service, budgets budget.Service, advisor advisor.Service, formatter *currency.Formatter) *Handler {
	return &Handler{expenses: expenses, budgets: budgets, advisor: advisor, formatter: formatter}
}

// GetDashboard godoc
// @Summary Get the dashboard
// @Description Expenses, budget summary, daily totals and advisor conversation of the current session
// @Tags Dashboard
// @Produce json
// @Success 200 {object} DashboardDTO
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/dashboard [get]
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting dashboard")
	w.Header().Set("Content-Type", "application/json")

	dashboard, err := h.build(r)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			rest.WriteError(w, http.StatusForbidden, "No active session", err.Error())
			return
		}
		log.Errorf("failed to build dashboard: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not load the dashboard", err.Error())
		return
	}
	rest.WriteJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) build(r *http.Request) (DashboardDTO, error) {
	ctx := r.Context()
	state, err := session.Current(ctx)
	if err != nil {
		return DashboardDTO{}, err
	}

	records, err := h.expenses.ListExpenses(ctx)
	if err != nil {
		return DashboardDTO{}, err
	}
	summary, err := h.budgets.GetSummary(ctx)
	if err != nil {
		return DashboardDTO{}, err
	}
	daily, err := h.budgets.GetDailyTotals(ctx)
	if err != nil {
		return DashboardDTO{}, err
	}
	turns, err := h.advisor.History(ctx)
	if err != nil {
		return DashboardDTO{}, err
	}
	keySource, err := h.advisor.KeySource(ctx)
	if err != nil {
		return DashboardDTO{}, err
	}

	expenseDTOs := make([]expense.ExpenseDTO, 0, len(records))
	for _, record := range records {
		expenseDTOs = append(expenseDTOs, expense.RecordToDTO(record, h.formatter))
	}
	dailyDTOs := make([]budget.DailyTotalDTO, 0, len(daily))
	for _, total := range daily {
		dailyDTOs = append(dailyDTOs, budget.DailyTotalToDTO(total, h.formatter))
	}
	identity := state.Identity()

	return DashboardDTO{
		Identity:       IdentityDTO{Name: identity.Name, Kind: identity.Kind},
		CurrencySymbol: h.formatter.Symbol(),
		Expenses:       expenseDTOs,
		Summary:        budget.SummaryToDTO(summary, h.formatter),
		Daily:          dailyDTOs,
		Conversation:   advisor.TurnsToDTO(turns),
		Advisor: AdvisorDTO{
			Enabled:   h.advisor.Enabled(),
			KeySource: keySource,
			Models:    h.advisor.Models(),
		},
	}, nil
}
