package budget

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klokku/spendwise/internal/rest"
	"github.com/klokku/spendwise/internal/test_utils"
	"github.com/klokku/spendwise/pkg/currency"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler() *Handler {
	return NewHandler(NewService(), currency.NewFormatter("₹", "en-IN"))
}

func TestHandler_SetGoal(t *testing.T) {
	t.Run("should update goal and return summary", func(t *testing.T) {
		// given
		handler := setupHandler()
		state, ctx := test_utils.NewGuestSession(t)
		state.Ledger().Append(record("2024-03-01", 150, "books"))
		req := httptest.NewRequest(http.MethodPut, "/api/budget/goal", bytes.NewBufferString(`{"goal": 200}`))
		w := httptest.NewRecorder()

		// when
		handler.SetGoal(w, req.WithContext(ctx))

		// then
		require.Equal(t, http.StatusOK, w.Code)
		var dto SummaryDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, 200.0, dto.Goal)
		assert.Equal(t, 50.0, dto.Remaining)
		require.NotNil(t, dto.Utilization)
		assert.Equal(t, 0.75, *dto.Utilization)
		assert.Equal(t, "₹50.00", dto.FormattedRemaining)
		assert.True(t, state.BudgetGoal().Equal(decimal.NewFromInt(200)))
	})

	t.Run("should reject non positive goal", func(t *testing.T) {
		handler := setupHandler()
		_, ctx := test_utils.NewGuestSession(t)
		req := httptest.NewRequest(http.MethodPut, "/api/budget/goal", bytes.NewBufferString(`{"goal": 0}`))
		w := httptest.NewRecorder()

		handler.SetGoal(w, req.WithContext(ctx))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var errResponse rest.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResponse))
		assert.Equal(t, "Invalid budget goal", errResponse.Error)
	})

	t.Run("should reject malformed body", func(t *testing.T) {
		handler := setupHandler()
		_, ctx := test_utils.NewGuestSession(t)
		req := httptest.NewRequest(http.MethodPut, "/api/budget/goal", bytes.NewBufferString(`{"goal": "abc"}`))
		w := httptest.NewRecorder()

		handler.SetGoal(w, req.WithContext(ctx))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_GetSummary(t *testing.T) {
	t.Run("should forbid requests without session", func(t *testing.T) {
		handler := setupHandler()
		req := httptest.NewRequest(http.MethodGet, "/api/budget", nil)
		w := httptest.NewRecorder()

		handler.GetSummary(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("should report zero utilization for empty ledger", func(t *testing.T) {
		handler := setupHandler()
		_, ctx := test_utils.NewGuestSession(t)
		req := httptest.NewRequest(http.MethodGet, "/api/budget", nil)
		w := httptest.NewRecorder()

		handler.GetSummary(w, req.WithContext(ctx))

		require.Equal(t, http.StatusOK, w.Code)
		var dto SummaryDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		require.NotNil(t, dto.Utilization)
		assert.Equal(t, 0.0, *dto.Utilization)
		assert.Equal(t, 200.0, dto.Remaining)
	})
}
