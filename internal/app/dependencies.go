package app

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/spendwise/internal/config"
	"github.com/klokku/spendwise/internal/event_bus"
	"github.com/klokku/spendwise/internal/utils"
	"github.com/klokku/spendwise/pkg/advisor"
	"github.com/klokku/spendwise/pkg/auth"
	"github.com/klokku/spendwise/pkg/budget"
	"github.com/klokku/spendwise/pkg/currency"
	"github.com/klokku/spendwise/pkg/dashboard"
	"github.com/klokku/spendwise/pkg/expense"
	"github.com/klokku/spendwise/pkg/gemini"
	"github.com/klokku/spendwise/pkg/session"
	"github.com/klokku/spendwise/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock     utils.Clock
	EventBus  *event_bus.EventBus
	Formatter *currency.Formatter

	SessionStore *session.Store
	Cookies      auth.Cookies
	AuthHandler  *auth.Handler

	// UserService and UserHandler are nil when Google login is not configured.
	UserService user.Service
	UserHandler *user.Handler

	ExpenseService expense.Service
	ExpenseHandler *expense.Handler

	BudgetService budget.Service
	BudgetHandler *budget.Handler

	AdvisorService advisor.Service
	AdvisorHandler *advisor.Handler

	DashboardHandler *dashboard.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
// db may be nil when Google login is disabled.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application, clock utils.Clock) (*Dependencies, error) {
	deps := &Dependencies{Clock: clock}

	defaultGoal, err := decimal.NewFromString(cfg.Budget.DefaultGoal)
	if err != nil {
		return nil, fmt.Errorf("invalid budget.defaultgoal %q: %w", cfg.Budget.DefaultGoal, err)
	}
	if !defaultGoal.IsPositive() {
		return nil, fmt.Errorf("budget.defaultgoal must be positive, got %s", defaultGoal)
	}

	deps.EventBus = event_bus.NewEventBus()
	deps.Formatter = currency.NewFormatter(cfg.Currency.Symbol, cfg.Currency.Language)

	deps.SessionStore = session.NewStore(clock, cfg.Session.TTL, defaultGoal)
	deps.SessionStore.SubscribeTo(deps.EventBus)
	event_bus.SubscribeTyped(deps.EventBus, event_bus.SessionResetType, func(e event_bus.EventT[event_bus.SessionReset]) error {
		log.Infof("session %s reset: %d expense(s), %d message(s) cleared",
			e.Data.SessionId, e.Data.ClearedRecords, e.Data.ClearedTurns)
		return nil
	})
	deps.Cookies = auth.Cookies{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.SecureCookie,
	}

	var provider auth.Provider
	if db != nil {
		deps.UserService = user.NewUserService(user.NewUserRepo(db), deps.EventBus)
		deps.UserHandler = user.NewHandler(deps.UserService)
		provider = auth.NewGoogleProvider(cfg)
	}
	deps.AuthHandler = auth.NewHandler(deps.SessionStore, deps.Cookies, deps.UserService, provider, cfg.Host, clock)

	deps.ExpenseService = expense.NewService(deps.EventBus, clock)
	deps.ExpenseHandler = expense.NewHandler(deps.ExpenseService, expense.NewCsvRenderer(), deps.Formatter)

	deps.BudgetService = budget.NewService()
	deps.BudgetHandler = budget.NewHandler(deps.BudgetService, deps.Formatter)

	deps.AdvisorService = buildAdvisor(cfg.Advisor, deps.Formatter)
	deps.AdvisorHandler = advisor.NewHandler(deps.AdvisorService)

	deps.DashboardHandler = dashboard.NewHandler(deps.ExpenseService, deps.BudgetService, deps.AdvisorService, deps.Formatter)

	return deps, nil
}

// buildAdvisor never fails: a broken provider configuration only disables the AI features.
func buildAdvisor(cfg config.Advisor, formatter *currency.Formatter) *advisor.ServiceImpl {
	factory, err := gemini.NewFactory(cfg)
	if err != nil {
		log.Errorf("Failed to initialize AI client: %v", err)
		return advisor.NewDisabledService(err)
	}
	return advisor.NewService(advisor.Config{
		ApiKey:            cfg.ApiKey,
		SystemInstruction: cfg.SystemInstruction,
		Models:            cfg.Models,
		Timeout:           cfg.Timeout,
	}, factory, advisor.NewPromptBuilder(cfg.SystemInstruction, formatter))
}
