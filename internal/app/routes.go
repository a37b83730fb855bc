package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Auth
	r.HandleFunc("/api/auth/guest", deps.AuthHandler.ContinueAsGuest).Methods("POST")
	r.HandleFunc("/api/auth/google/login", deps.AuthHandler.GoogleLogin).Methods("GET")
	r.HandleFunc("/api/auth/google/callback", deps.AuthHandler.GoogleCallback).Methods("GET")
	r.HandleFunc("/api/auth/logout", deps.AuthHandler.Logout).Methods("POST")
	r.HandleFunc("/api/auth/status", deps.AuthHandler.Status).Methods("GET")

	// User
	if deps.UserHandler != nil {
		r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
		r.HandleFunc("/api/user/current", deps.UserHandler.DeleteCurrentUser).Methods("DELETE")
	}

	// Expenses
	r.HandleFunc("/api/expense", deps.ExpenseHandler.AddExpense).Methods("POST")
	r.HandleFunc("/api/expense", deps.ExpenseHandler.ListExpenses).Methods("GET")
	r.HandleFunc("/api/expense", deps.ExpenseHandler.ResetExpenses).Methods("DELETE")

	// Budget
	r.HandleFunc("/api/budget", deps.BudgetHandler.GetSummary).Methods("GET")
	r.HandleFunc("/api/budget/goal", deps.BudgetHandler.SetGoal).Methods("PUT")
	r.HandleFunc("/api/budget/daily", deps.BudgetHandler.GetDailyTotals).Methods("GET")

	// Advisor
	r.HandleFunc("/api/advisor/analysis", deps.AdvisorHandler.Analyze).Methods("POST")
	r.HandleFunc("/api/advisor/chat", deps.AdvisorHandler.Chat).Methods("POST")
	r.HandleFunc("/api/advisor/chat", deps.AdvisorHandler.GetHistory).Methods("GET")
	r.HandleFunc("/api/advisor/key", deps.AdvisorHandler.SetApiKey).Methods("PUT")
	r.HandleFunc("/api/advisor/key", deps.AdvisorHandler.ClearApiKey).Methods("DELETE")
	r.HandleFunc("/api/advisor/models", deps.AdvisorHandler.GetStatus).Methods("GET")

	// Dashboard
	r.HandleFunc("/api/dashboard", deps.DashboardHandler.GetDashboard).Methods("GET")
}
