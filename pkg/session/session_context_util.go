package session

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const sessionKey contextKey = "session"

var ErrNoSession = errors.New("no active session")

// Current returns the session attached to ctx by the session middleware.
func Current(ctx context.Context) (*State, error) {
	state, ok := ctx.Value(sessionKey).(*State)
	if !ok || state == nil {
		log.Trace("session not found in context")
		return nil, ErrNoSession
	}
	return state, nil
}

func WithSession(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, sessionKey, state)
}
