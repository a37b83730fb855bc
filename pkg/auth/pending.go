package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/spendwise/internal/utils"
)

const pendingLoginTTL = 10 * time.Minute

type pendingLogin struct {
	finalUrl  string
	expiresAt time.Time
}

// pendingLogins remembers the OAuth state nonces handed out by the login endpoint until
// Google redirects back with them. A nonce can be redeemed once.
type pendingLogins struct {
	mu     sync.Mutex
	logins map[string]pendingLogin
	clock  utils.Clock
}

func newPendingLogins(clock utils.Clock) *pendingLogins {
	return &pendingLogins{logins: make(map[string]pendingLogin), clock: clock}
}

func (p *pendingLogins) Add(finalUrl string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	for nonce, login := range p.logins {
		if now.After(login.expiresAt) {
			delete(p.logins, nonce)
		}
	}
	nonce := uuid.NewString()
	p.logins[nonce] = pendingLogin{finalUrl: finalUrl, expiresAt: now.Add(pendingLoginTTL)}
	return nonce
}

func (p *pendingLogins) Take(nonce string) (finalUrl string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	login, ok := p.logins[nonce]
	if !ok {
		return "", false
	}
	delete(p.logins, nonce)
	if p.clock.Now().After(login.expiresAt) {
		return "", false
	}
	return login.finalUrl, true
}
