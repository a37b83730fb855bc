package expense

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/klokku/spendwise/internal/rest"
	"github.com/klokku/spendwise/pkg/currency"
	"github.com/klokku/spendwise/pkg/ledger"
	"github.com/klokku/spendwise/pkg/session"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type ExpenseDTO struct {
	Id              string  `json:"id"`
	Date            string  `json:"date"`
	Amount          float64 `json:"amount"`
	FormattedAmount string  `json:"formattedAmount"`
	Description     string  `json:"description"`
}

type NewExpenseDTO struct {
	// Date is optional and defaults to today.
	Date        string          `json:"date,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type AddedDTO struct {
	Added   bool        `json:"added"`
	Expense *ExpenseDTO `json:"expense,omitempty"`
}

type ResetDTO struct {
	ClearedExpenses int `json:"clearedExpenses"`
	ClearedMessages int `json:"clearedMessages"`
}

type Handler struct {
	service     Service
	csvRenderer Renderer
	formatter   *currency.Formatter
}

func NewHandler(service Service, csvRenderer Renderer, formatter *currency.Formatter) *Handler {
	return &Handler{service: service, csvRenderer: csvRenderer, formatter: formatter}
}

// AddExpense godoc
// @Summary Add an expense
// @Description Appends an expense to the current session. Entries without a description or with an
// @Description amount below 1 are ignored and reported with added=false.
// @Tags Expense
// @Accept json
// @Produce json
// @Param expense body NewExpenseDTO true "Expense"
// @Success 200 {object} AddedDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/expense [post]
func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	log.Debug("Adding expense")
	w.Header().Set("Content-Type", "application/json")

	var newExpense NewExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&newExpense); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	record, err := DTOToRecord(newExpense)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "date must be in YYYY-MM-DD format")
		return
	}

	stored, added, err := h.service.AddExpense(r.Context(), record)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response := AddedDTO{Added: added}
	if added {
		dto := RecordToDTO(stored, h.formatter)
		response.Expense = &dto
	}
	rest.WriteJSON(w, http.StatusOK, response)
}

// ListExpenses godoc
// @Summary List expenses
// @Description Returns the expenses of the current session in the order they were added.
// @Description Send "Accept: text/csv" to download them as CSV.
// @Tags Expense
// @Produce json
// @Produce text/csv
// @Success 200 {array} ExpenseDTO
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/expense [get]
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	log.Trace("Listing expenses")

	records, err := h.service.ListExpenses(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeServiceError(w, err)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := h.csvRenderer.RenderExpenses(records)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="expenses.csv"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv: %v", err)
		}
		return
	}

	dtos := make([]ExpenseDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, RecordToDTO(record, h.formatter))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// ResetExpenses godoc
// @Summary Clear all expenses
// @Description Clears the expenses and the advisor conversation of the current session.
// @Tags Expense
// @Produce json
// @Success 200 {object} ResetDTO
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/expense [delete]
func (h *Handler) ResetExpenses(w http.ResponseWriter, r *http.Request) {
	log.Debug("Clearing expenses")
	w.Header().Set("Content-Type", "application/json")

	cleared, err := h.service.Reset(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ResetDTO{
		ClearedExpenses: cleared.Records,
		ClearedMessages: cleared.Turns,
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNoSession) {
		rest.WriteError(w, http.StatusForbidden, "No active session", err.Error())
		return
	}
	log.Errorf("expense request failed: %v", err)
	rest.WriteError(w, http.StatusInternalServerError, "Internal server error", err.Error())
}

func DTOToRecord(dto NewExpenseDTO) (ledger.Record, error) {
	record := ledger.Record{
		Amount:      dto.Amount,
		Description: dto.Description,
	}
	if date := strings.TrimSpace(dto.Date); date != "" {
		parsed, err := time.Parse(ledger.DateLayout, date)
		if err != nil {
			return ledger.Record{}, err
		}
		record.Date = parsed
	}
	return record, nil
}

func RecordToDTO(record ledger.Record, formatter *currency.Formatter) ExpenseDTO {
	return ExpenseDTO{
		Id:              record.Id,
		Date:            record.Date.Format(ledger.DateLayout),
		Amount:          record.Amount.InexactFloat64(),
		FormattedAmount: formatter.Format(record.Amount),
		Description:     record.Description,
	}
}
