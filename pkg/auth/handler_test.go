package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/klokku/spendwise/internal/event_bus"
	"github.com/klokku/spendwise/internal/utils"
	"github.com/klokku/spendwise/pkg/session"
	"github.com/klokku/spendwise/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const host = "http://localhost:3000"

type stubProvider struct {
	profile user.User
	err     error
}

func (s *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (s *stubProvider) Authenticate(ctx context.Context, code string) (user.User, error) {
	if code != "good-code" {
		return user.User{}, errors.New("invalid code")
	}
	return s.profile, s.err
}

type fixture struct {
	handler *Handler
	store   *session.Store
	clock   *utils.MockClock
	cookies Cookies
}

func setup(provider Provider) fixture {
	clock := &utils.MockClock{FixedNow: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	store := session.NewStore(clock, time.Hour, decimal.NewFromInt(5000))
	cookies := Cookies{Name: "spendwise_session", TTL: time.Hour}
	var userService user.Service
	if provider != nil {
		userService = user.NewUserService(user.NewStubUserRepository(), event_bus.NewEventBus())
	}
	return fixture{
		handler: NewHandler(store, cookies, userService, provider, host, clock),
		store:   store,
		clock:   clock,
		cookies: cookies,
	}
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestHandler_ContinueAsGuest(t *testing.T) {
	t.Run("should create guest session and set cookie", func(t *testing.T) {
		// given
		f := setup(nil)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/guest", nil)
		w := httptest.NewRecorder()

		// when
		f.handler.ContinueAsGuest(w, req)

		// then
		require.Equal(t, http.StatusOK, w.Code)
		var status StatusDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
		assert.True(t, status.Authorized)
		assert.Equal(t, "Guest", status.Identity.Name)
		assert.Equal(t, session.KindGuest, status.Identity.Kind)
		assert.False(t, status.GoogleEnabled)

		cookie := sessionCookie(t, w, "spendwise_session")
		assert.True(t, cookie.HttpOnly)
		_, err := f.store.Get(cookie.Value)
		assert.NoError(t, err)
	})

	t.Run("should replace previous session", func(t *testing.T) {
		f := setup(nil)
		previous := f.store.Create(session.Guest())
		req := httptest.NewRequest(http.MethodPost, "/api/auth/guest", nil)
		req.AddCookie(&http.Cookie{Name: "spendwise_session", Value: previous.Id})
		w := httptest.NewRecorder()

		f.handler.ContinueAsGuest(w, req)

		_, err := f.store.Get(previous.Id)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
		assert.Equal(t, 1, f.store.Len())
	})
}

func TestHandler_Logout(t *testing.T) {
	t.Run("should destroy session and clear cookie", func(t *testing.T) {
		f := setup(nil)
		state := f.store.Create(session.Guest())
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: "spendwise_session", Value: state.Id})
		w := httptest.NewRecorder()

		f.handler.Logout(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, 0, f.store.Len())
		assert.Equal(t, -1, sessionCookie(t, w, "spendwise_session").MaxAge)
	})
}

func TestHandler_Status(t *testing.T) {
	t.Run("should be unauthorized without cookie", func(t *testing.T) {
		f := setup(&stubProvider{})
		w := httptest.NewRecorder()

		f.handler.Status(w, httptest.NewRequest(http.MethodGet, "/api/auth/status", nil))

		assert.JSONEq(t, `{"authorized": false, "googleEnabled": true}`, w.Body.String())
	})

	t.Run("should be unauthorized after session expired", func(t *testing.T) {
		f := setup(nil)
		state := f.store.Create(session.Guest())
		f.clock.Advance(2 * time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
		req.AddCookie(&http.Cookie{Name: "spendwise_session", Value: state.Id})
		w := httptest.NewRecorder()

		f.handler.Status(w, req)

		var status StatusDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
		assert.False(t, status.Authorized)
	})
}

func TestHandler_GoogleFlow(t *testing.T) {
	t.Run("should log in user through login and callback", func(t *testing.T) {
		// given
		f := setup(&stubProvider{profile: user.User{Uid: "g-42", Email: "asha@example.com", DisplayName: "Asha"}})
		loginW := httptest.NewRecorder()
		f.handler.GoogleLogin(loginW, httptest.NewRequest(http.MethodGet, "/api/auth/google/login?finalUrl=/dashboard", nil))
		require.Equal(t, http.StatusOK, loginW.Code)
		var redirect RedirectDTO
		require.NoError(t, json.NewDecoder(loginW.Body).Decode(&redirect))
		redirectUrl, err := url.Parse(redirect.RedirectUrl)
		require.NoError(t, err)
		nonce := redirectUrl.Query().Get("state")

		// when
		callbackW := httptest.NewRecorder()
		callback := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=good-code&state="+url.QueryEscape(nonce), nil)
		f.handler.GoogleCallback(callbackW, callback)

		// then
		assert.Equal(t, http.StatusFound, callbackW.Code)
		assert.Equal(t, host+"/dashboard?success=true", callbackW.Header().Get("Location"))
		state, err := f.store.Get(sessionCookie(t, callbackW, "spendwise_session").Value)
		require.NoError(t, err)
		assert.Equal(t, session.Identity{Name: "Asha", Kind: session.KindLoggedIn, UserUid: "g-42"}, state.Identity())
	})

	t.Run("should reject reused nonce", func(t *testing.T) {
		f := setup(&stubProvider{profile: user.User{Uid: "g-42"}})
		nonce := f.handler.pending.Add(host + "/")
		_, ok := f.handler.pending.Take(nonce)
		require.True(t, ok)
		w := httptest.NewRecorder()

		f.handler.GoogleCallback(w, httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=good-code&state="+nonce, nil))

		assert.Equal(t, host+"/?success=false", w.Header().Get("Location"))
		assert.Equal(t, 0, f.store.Len())
	})

	t.Run("should reject expired nonce", func(t *testing.T) {
		f := setup(&stubProvider{profile: user.User{Uid: "g-42"}})
		nonce := f.handler.pending.Add(host + "/")
		f.clock.Advance(pendingLoginTTL + time.Second)
		w := httptest.NewRecorder()

		f.handler.GoogleCallback(w, httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=good-code&state="+nonce, nil))

		assert.Equal(t, host+"/?success=false", w.Header().Get("Location"))
	})

	t.Run("should report failed code exchange", func(t *testing.T) {
		f := setup(&stubProvider{profile: user.User{Uid: "g-42"}})
		nonce := f.handler.pending.Add(host + "/")
		w := httptest.NewRecorder()

		f.handler.GoogleCallback(w, httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=bad&state="+nonce, nil))

		assert.Equal(t, host+"/?success=false", w.Header().Get("Location"))
		assert.Equal(t, 0, f.store.Len())
	})

	t.Run("should answer 404 when google is not configured", func(t *testing.T) {
		f := setup(nil)
		w := httptest.NewRecorder()

		f.handler.GoogleLogin(w, httptest.NewRequest(http.MethodGet, "/api/auth/google/login", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_safeFinalUrl(t *testing.T) {
	h := setup(nil).handler

	assert.Equal(t, host+"/", h.safeFinalUrl(""))
	assert.Equal(t, host+"/app", h.safeFinalUrl("/app"))
	assert.Equal(t, host+"/app", h.safeFinalUrl(host+"/app"))
	assert.Equal(t, host+"/", h.safeFinalUrl("https://evil.example.com/"))
	assert.Equal(t, host+"/", h.safeFinalUrl("//evil.example.com"))
}
