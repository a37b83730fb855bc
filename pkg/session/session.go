package session

import (
	"sync"
	"time"

	"github.com/klokku/spendwise/pkg/conversation"
	"github.com/klokku/spendwise/pkg/ledger"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindLoggedIn Kind = "logged-in"
	KindGuest    Kind = "guest"
)

// GuestName is shown for sessions that skipped login.
const GuestName = "Guest"

type Identity struct {
	Name string
	Kind Kind
	// UserUid is the stable id of a logged-in user, empty for guests.
	UserUid string
}

func Guest() Identity {
	return Identity{Name: GuestName, Kind: KindGuest}
}

// State is everything one browser session owns: its ledger, chat transcript, budget goal
// and an optional API key typed in by the user. Nothing in a State is shared with another session.
//
// Callers must hold the session lock (Lock/Unlock) while reading or mutating the state;
// the HTTP middleware does this for the whole duration of a request.
type State struct {
	mu sync.Mutex

	Id        string
	CreatedAt time.Time

	identity   Identity
	ledger     *ledger.Ledger
	transcript *conversation.Transcript
	budgetGoal decimal.Decimal
	apiKey     string

	// guarded by the store lock
	lastSeen time.Time
}

func newState(id string, identity Identity, goal decimal.Decimal, now time.Time) *State {
	return &State{
		Id:         id,
		CreatedAt:  now,
		identity:   identity,
		ledger:     ledger.NewLedger(),
		transcript: conversation.NewTranscript(),
		budgetGoal: goal,
		lastSeen:   now,
	}
}

func (s *State) Lock() {
	s.mu.Lock()
}

func (s *State) Unlock() {
	s.mu.Unlock()
}

func (s *State) Identity() Identity {
	return s.identity
}

func (s *State) Ledger() *ledger.Ledger {
	return s.ledger
}

func (s *State) Transcript() *conversation.Transcript {
	return s.transcript
}

func (s *State) BudgetGoal() decimal.Decimal {
	return s.budgetGoal
}

func (s *State) SetBudgetGoal(goal decimal.Decimal) {
	s.budgetGoal = goal
}

// ApiKey returns the key entered in this session, or "" when none was entered.
func (s *State) ApiKey() string {
	return s.apiKey
}

func (s *State) SetApiKey(key string) {
	s.apiKey = key
}

// Reset empties the ledger and the transcript together.
func (s *State) Reset() {
	s.ledger.Clear()
	s.transcript.Clear()
}
