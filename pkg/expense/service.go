package expense

import (
	"context"
	"fmt"

	"github.com/klokku/spendwise/internal/event_bus"
	"github.com/klokku/spendwise/internal/utils"
	"github.com/klokku/spendwise/pkg/ledger"
	"github.com/klokku/spendwise/pkg/session"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// AddExpense appends record to the current session's ledger. Invalid records are
	// ignored: added is false and no error is returned.
	AddExpense(ctx context.Context, record ledger.Record) (stored ledger.Record, added bool, err error)
	ListExpenses(ctx context.Context) ([]ledger.Record, error)
	// Reset clears the ledger and the advisor conversation of the current session together.
	Reset(ctx context.Context) (Cleared, error)
}

type Cleared struct {
	Records int
	Turns   int
}

type ServiceImpl struct {
	eventBus *event_bus.EventBus
	clock    utils.Clock
}

func NewService(eventBus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{eventBus: eventBus, clock: clock}
}

func (s *ServiceImpl) AddExpense(ctx context.Context, record ledger.Record) (ledger.Record, bool, error) {
	state, err := session.Current(ctx)
	if err != nil {
		return ledger.Record{}, false, fmt.Errorf("failed to get current session: %w", err)
	}
	if record.Date.IsZero() {
		record.Date = utils.Today(s.clock)
	}
	stored, added := state.Ledger().Append(record)
	if !added {
		log.Debugf("ignoring invalid expense in session %s", state.Id)
		return ledger.Record{}, false, nil
	}
	return stored, true, nil
}

func (s *ServiceImpl) ListExpenses(ctx context.Context) ([]ledger.Record, error) {
	state, err := session.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current session: %w", err)
	}
	return state.Ledger().Snapshot(), nil
}

func (s *ServiceImpl) Reset(ctx context.Context) (Cleared, error) {
	state, err := session.Current(ctx)
	if err != nil {
		return Cleared{}, fmt.Errorf("failed to get current session: %w", err)
	}
	cleared := Cleared{
		Records: state.Ledger().Len(),
		Turns:   state.Transcript().Len(),
	}
	state.Reset()

	if s.eventBus != nil {
		err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.SessionResetType, event_bus.SessionReset{
			SessionId:      state.Id,
			ClearedRecords: cleared.Records,
			ClearedTurns:   cleared.Turns,
		}))
		if err != nil {
			log.Errorf("failed to publish session reset: %v", err)
		}
	}
	return cleared, nil
}
