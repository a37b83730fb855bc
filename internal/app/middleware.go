package app

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/klokku/spendwise/internal/rest"
	"github.com/klokku/spendwise/pkg/auth"
	"github.com/klokku/spendwise/pkg/session"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {
	r.Use(SessionMiddleware(deps.SessionStore, deps.Cookies))
}

// SessionMiddleware attaches the caller's session to the request context and holds the session
// lock until the request completes, so requests of one session run one at a time.
// API endpoints outside /api/auth/ are refused without a live session.
func SessionMiddleware(store *session.Store, cookies auth.Cookies) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			path := req.URL.Path
			if !strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/api/auth/") {
				next.ServeHTTP(w, req)
				return
			}

			id, ok := cookies.Read(req)
			if !ok {
				log.Debugf("no session cookie for %s", path)
				forbidden(w)
				return
			}
			state, err := store.Get(id)
			if err != nil {
				log.Debugf("session %s rejected: %v", id, err)
				cookies.Clear(w)
				forbidden(w)
				return
			}

			state.Lock()
			defer state.Unlock()
			next.ServeHTTP(w, req.WithContext(session.WithSession(req.Context(), state)))
		})
	}
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	rest.WriteError(w, http.StatusForbidden, "Not authorized", "log in with Google or continue as guest")
}
