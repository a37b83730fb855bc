package budget

import (
	"context"
	"fmt"

	"github.com/klokku/spendwise/pkg/session"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	GetSummary(ctx context.Context) (Summary, error)
	SetGoal(ctx context.Context, goal decimal.Decimal) (Summary, error)
	GetDailyTotals(ctx context.Context) ([]DailyTotal, error)
}

type ServiceImpl struct{}

func NewService() *ServiceImpl {
	return &ServiceImpl{}
}

func (s *ServiceImpl) GetSummary(ctx context.Context) (Summary, error) {
	state, err := session.Current(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to get current session: %w", err)
	}
	return Summarize(state.BudgetGoal(), state.Ledger().Snapshot()), nil
}

// SetGoal replaces the session's budget goal. Only positive goals are accepted.
func (s *ServiceImpl) SetGoal(ctx context.Context, goal decimal.Decimal) (Summary, error) {
	state, err := session.Current(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to get current session: %w", err)
	}
	if !goal.IsPositive() {
		return Summary{}, ErrInvalidGoal
	}
	state.SetBudgetGoal(goal)
	log.Debugf("budget goal of session %s set to %s", state.Id, goal)
	return Summarize(goal, state.Ledger().Snapshot()), nil
}

func (s *ServiceImpl) GetDailyTotals(ctx context.Context) ([]DailyTotal, error) {
	state, err := session.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current session: %w", err)
	}
	return DailyTotals(state.Ledger().Snapshot()), nil
}
