package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/spendwise/internal/event_bus"
	"github.com/klokku/spendwise/internal/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrSessionNotFound = errors.New("session not found")

// Store keeps sessions in memory. Sessions idle for longer than ttl are dropped the next
// time they are looked up; there is no background sweeper.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*State
	clock       utils.Clock
	ttl         time.Duration
	defaultGoal decimal.Decimal
}

func NewStore(clock utils.Clock, ttl time.Duration, defaultGoal decimal.Decimal) *Store {
	return &Store{
		sessions:    make(map[string]*State),
		clock:       clock,
		ttl:         ttl,
		defaultGoal: defaultGoal,
	}
}

func (s *Store) Create(identity Identity) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := newState(uuid.NewString(), identity, s.defaultGoal, s.clock.Now())
	s.sessions[state.Id] = state
	log.Debugf("created %s session %s", identity.Kind, state.Id)
	return state
}

// Get returns the live session with the given id and marks it as seen.
func (s *Store) Get(id string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := s.clock.Now()
	if s.ttl > 0 && now.Sub(state.lastSeen) > s.ttl {
		delete(s.sessions, id)
		log.Debugf("session %s expired", id)
		return nil, ErrSessionNotFound
	}
	state.lastSeen = now
	return state, nil
}

// Destroy removes the session. It reports whether the session existed.
func (s *Store) Destroy(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	log.Debugf("destroyed session %s", id)
	return true
}

// DestroyForUser removes every session of a logged-in user and returns how many were removed.
func (s *Store) DestroyForUser(userUid string) int {
	if userUid == "" {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, state := range s.sessions {
		if state.identity.UserUid == userUid {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SubscribeTo ends all sessions of a user once the user account is deleted.
func (s *Store) SubscribeTo(bus *event_bus.EventBus) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.UserDeletedType, func(e event_bus.EventT[event_bus.UserDeleted]) error {
		removed := s.DestroyForUser(e.Data.Uid)
		log.Infof("user %s deleted, ended %d session(s)", e.Data.Uid, removed)
		return nil
	})
}
