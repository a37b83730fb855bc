package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klokku/spendwise/internal/config"
	"github.com/klokku/spendwise/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Application {
	return config.Application{
		Host: "http://localhost:3000",
		Session: config.Session{
			CookieName: "spendwise_session",
			TTL:        time.Hour,
		},
		Budget:   config.Budget{DefaultGoal: "5000"},
		Currency: config.Currency{Symbol: "₹", Language: "en-IN"},
		Advisor: config.Advisor{
			ApiVersion: "v1beta",
			Models:     []string{"gemini-2.0-flash"},
			Timeout:    time.Second,
		},
	}
}

func newTestRouter(t *testing.T, cfg config.Application) http.Handler {
	t.Helper()
	clock := &utils.MockClock{FixedNow: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	deps, err := BuildDependencies(nil, cfg, clock)
	require.NoError(t, err)
	return NewRouter(deps)
}

func do(router http.Handler, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBuildDependencies(t *testing.T) {
	t.Run("should reject non positive default goal", func(t *testing.T) {
		cfg := testConfig()
		cfg.Budget.DefaultGoal = "0"

		_, err := BuildDependencies(nil, cfg, utils.SystemClock{})

		assert.Error(t, err)
	})

	t.Run("should reject malformed default goal", func(t *testing.T) {
		cfg := testConfig()
		cfg.Budget.DefaultGoal = "lots"

		_, err := BuildDependencies(nil, cfg, utils.SystemClock{})

		assert.Error(t, err)
	})

	t.Run("should disable advisor on invalid base url", func(t *testing.T) {
		cfg := testConfig()
		cfg.Advisor.BaseUrl = "ftp://example.com"

		deps, err := BuildDependencies(nil, cfg, utils.SystemClock{})

		require.NoError(t, err)
		assert.False(t, deps.AdvisorService.Enabled())
	})

	t.Run("should skip user endpoints without database", func(t *testing.T) {
		deps, err := BuildDependencies(nil, testConfig(), utils.SystemClock{})

		require.NoError(t, err)
		assert.Nil(t, deps.UserService)
		assert.Nil(t, deps.UserHandler)
	})
}

func TestRouter_GuestFlow(t *testing.T) {
	router := newTestRouter(t, testConfig())

	// given a guest session
	w := do(router, http.MethodPost, "/api/auth/guest", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]

	t.Run("should refuse dashboard without session", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/dashboard", "", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("should add expense and reflect it in budget", func(t *testing.T) {
		// when
		w := do(router, http.MethodPost, "/api/expense", `{"date":"2024-03-01","amount":"150","description":"Lunch"}`, cookie)

		// then
		require.Equal(t, http.StatusOK, w.Code)
		var added map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
		assert.Equal(t, true, added["added"])

		w = do(router, http.MethodGet, "/api/budget", "", cookie)
		require.Equal(t, http.StatusOK, w.Code)
		var summary map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
		assert.Equal(t, 150.0, summary["totalSpent"])
		assert.Equal(t, 4850.0, summary["remaining"])
	})

	t.Run("should ask for api key when none is configured", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/advisor/analysis", "", cookie)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"missing_key"`)
	})

	t.Run("should list configured models", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/advisor/models", "", cookie)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "gemini-2.0-flash")
	})

	t.Run("should clear expenses on reset", func(t *testing.T) {
		w := do(router, http.MethodDelete, "/api/expense", "", cookie)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"clearedExpenses":1`)
	})

	t.Run("should not expose user endpoints without google login", func(t *testing.T) {
		w := do(router, http.MethodGet, "/api/user/current", "", cookie)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should end session on logout", func(t *testing.T) {
		w := do(router, http.MethodPost, "/api/auth/logout", "", cookie)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = do(router, http.MethodGet, "/api/dashboard", "", cookie)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestWriteTimeout(t *testing.T) {
	cfg := config.Advisor{Models: []string{"a", "b", "c"}, Timeout: 10 * time.Second}

	assert.Equal(t, 45*time.Second, writeTimeout(cfg))
	assert.Equal(t, 25*time.Second, writeTimeout(config.Advisor{Timeout: 10 * time.Second}))
}
