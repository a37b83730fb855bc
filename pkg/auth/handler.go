package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/klokku/spendwise/internal/rest"
	"github.com/klokku/spendwise/internal/utils"
	"github.com/klokku/spendwise/pkg/session"
	"github.com/klokku/spendwise/pkg/user"
	log "github.com/sirupsen/logrus"
)

var ErrGoogleDisabled = errors.New("google login is not configured")

type IdentityDTO struct {
	Name string       `json:"name"`
	Kind session.Kind `json:"kind"`
}

type StatusDTO struct {
	Authorized    bool         `json:"authorized"`
	Identity      *IdentityDTO `json:"identity,omitempty"`
	GoogleEnabled bool         `json:"googleEnabled"`
}

type RedirectDTO struct {
	RedirectUrl string `json:"redirectUrl"`
}

type Handler struct {
	store       *session.Store
	cookies     Cookies
	userService user.Service
	provider    Provider
	pending     *pendingLogins
	host        string
}

// NewHandler builds the login endpoints. provider and userService may be nil, in which case
// only guest sessions are offered.
func NewHandler(store *session.Store, cookies Cookies, userService user.Service, provider Provider, host string, clock utils.Clock) *Handler {
	return &Handler{
		store:       store,
		cookies:     cookies,
		userService: userService,
		provider:    provider,
		pending:     newPendingLogins(clock),
		host:        strings.TrimRight(host, "/"),
	}
}

func (h *Handler) googleEnabled() bool {
	return h.provider != nil && h.userService != nil
}

// ContinueAsGuest godoc
// @Summary Start a guest session
// @Description Guest sessions keep their data in memory only.
// @Tags Auth
// @Produce json
// @Success 200 {object} StatusDTO
// @Router /api/auth/guest [post]
func (h *Handler) ContinueAsGuest(w http.ResponseWriter, r *http.Request) {
	log.Debug("Starting guest session")
	w.Header().Set("Content-Type", "application/json")

	h.endCurrentSession(r)
	state := h.store.Create(session.Guest())
	h.cookies.Set(w, state.Id)
	rest.WriteJSON(w, http.StatusOK, statusOf(state.Identity(), h.googleEnabled()))
}

// GoogleLogin godoc
// @Summary Start Google login
// @Description Returns the Google consent page URL the browser should navigate to.
// @Tags Auth
// @Produce json
// @Param finalUrl query string false "Where to return after login"
// @Success 200 {object} RedirectDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/auth/google/login [get]
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	log.Debug("Starting Google login")
	w.Header().Set("Content-Type", "application/json")

	if !h.googleEnabled() {
		rest.WriteError(w, http.StatusNotFound, "Google login is not available", ErrGoogleDisabled.Error())
		return
	}
	nonce := h.pending.Add(h.safeFinalUrl(r.URL.Query().Get("finalUrl")))
	log.Tracef("Redirecting to Google auth URL with nonce: %s", nonce)
	rest.WriteJSON(w, http.StatusOK, RedirectDTO{RedirectUrl: h.provider.AuthCodeURL(nonce)})
}

// GoogleCallback godoc
// @Summary Google login callback
// @Tags Auth
// @Param code query string true "Authorization code"
// @Param state query string true "State nonce"
// @Success 302
// @Router /api/auth/google/callback [get]
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	nonce := r.FormValue("state")

	finalUrl, ok := h.pending.Take(nonce)
	if !ok || !h.googleEnabled() {
		log.Warnf("Google callback with unknown state")
		http.Redirect(w, r, h.safeFinalUrl("")+"?success=false", http.StatusFound)
		return
	}

	profile, err := h.provider.Authenticate(r.Context(), code)
	if err != nil {
		log.Errorf("Google login failed: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	stored, err := h.userService.Login(r.Context(), profile)
	if err != nil {
		log.Errorf("failed to store user after Google login: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	h.endCurrentSession(r)
	state := h.store.Create(session.Identity{
		Name:    displayName(stored),
		Kind:    session.KindLoggedIn,
		UserUid: stored.Uid,
	})
	h.cookies.Set(w, state.Id)
	log.Debugf("user %s logged in with session %s", stored.Uid, state.Id)
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

// Logout godoc
// @Summary End the session
// @Description Logs out a Google user or leaves guest mode. All data of the session is discarded.
// @Tags Auth
// @Success 204 "No Content"
// @Router /api/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	log.Debug("Logging out")
	h.endCurrentSession(r)
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Status godoc
// @Summary Session status
// @Tags Auth
// @Produce json
// @Success 200 {object} StatusDTO
// @Router /api/auth/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting auth status")
	w.Header().Set("Content-Type", "application/json")

	id, ok := h.cookies.Read(r)
	if !ok {
		rest.WriteJSON(w, http.StatusOK, StatusDTO{GoogleEnabled: h.googleEnabled()})
		return
	}
	state, err := h.store.Get(id)
	if err != nil {
		h.cookies.Clear(w)
		rest.WriteJSON(w, http.StatusOK, StatusDTO{GoogleEnabled: h.googleEnabled()})
		return
	}
	rest.WriteJSON(w, http.StatusOK, statusOf(state.Identity(), h.googleEnabled()))
}

func (h *Handler) endCurrentSession(r *http.Request) {
	if id, ok := h.cookies.Read(r); ok {
		h.store.Destroy(id)
	}
}

// safeFinalUrl only allows returning to this application.
func (h *Handler) safeFinalUrl(finalUrl string) string {
	fallback := h.host + "/"
	if finalUrl == "" {
		return fallback
	}
	if strings.HasPrefix(finalUrl, "/") && !strings.HasPrefix(finalUrl, "//") {
		return h.host + finalUrl
	}
	u, err := url.Parse(finalUrl)
	if err != nil || h.host == "" || !strings.HasPrefix(u.String(), h.host+"/") {
		return fallback
	}
	return u.String()
}

func statusOf(identity session.Identity, googleEnabled bool) StatusDTO {
	return StatusDTO{
		Authorized:    true,
		Identity:      &IdentityDTO{Name: identity.Name, Kind: identity.Kind},
		GoogleEnabled: googleEnabled,
	}
}

func displayName(u user.User) string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	default:
		return u.Uid
	}
}
