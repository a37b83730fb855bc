package test_utils

import (
	"context"
	"testing"
	"time"

	"github.com/klokku/spendwise/internal/utils"
	"github.com/klokku/spendwise/pkg/session"
	"github.com/shopspring/decimal"
)

// DefaultGoal is the budget goal of sessions created by NewGuestSession.
var DefaultGoal = decimal.NewFromInt(200)

// NewGuestSession creates a fresh guest session and a context carrying it.
func NewGuestSession(t *testing.T) (*session.State, context.Context) {
	t.Helper()
	return NewSession(t, session.Guest())
}

func NewSession(t *testing.T, identity session.Identity) (*session.State, context.Context) {
	t.Helper()
	clock := &utils.MockClock{FixedNow: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := session.NewStore(clock, time.Hour, DefaultGoal)
	state := store.Create(identity)
	return state, session.WithSession(context.Background(), state)
}
