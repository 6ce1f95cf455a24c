package handlers

import (
	"net/http"
	"net/url"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iris-site/pkg/auth"
	"iris-site/pkg/models"
	"iris-site/pkg/session"
)

func TestGithubLoginStoresState(t *testing.T) {
	h := newHarness(t, fstest.MapFS{})

	w := h.get("/auth/github")
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	assert.NotEmpty(t, state)
	assert.Equal(t, state, session.New(h.mem).TakeState())
}

func TestAuthCallbackSignsIn(t *testing.T) {
	ex := &fakeExchanger{ownsState: true, result: &auth.Result{Token: "jwt", User: linus}}
	h := newHarness(t, fstest.MapFS{}, func(s *Server) { s.Exchanger = ex })
	require.NoError(t, session.New(h.mem).SetState("st-1"))

	w := h.get("/auth/callback?code=c0de&state=st-1")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard/member", w.Header().Get("Location"))
	assert.Equal(t, "c0de", ex.gotCode)

	sess := session.New(h.mem)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "jwt", sess.Token())
	assert.Equal(t, []session.Flash{{Kind: session.FlashSuccess, Message: "Welcome, linus!"}}, sess.Flashes())
}

func TestAuthCallbackAdminRedirect(t *testing.T) {
	ex := &fakeExchanger{result: &auth.Result{Token: "jwt", User: ada}}
	h := newHarness(t, fstest.MapFS{}, func(s *Server) { s.Exchanger = ex })

	w := h.get("/auth/callback?code=c0de&state=from-backend")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard/admin", w.Header().Get("Location"))
}

func TestAuthCallbackFailures(t *testing.T) {
	cases := []struct {
		name   string
		ex     *fakeExchanger
		state  string
		target string
		want   string
	}{
		{"no code", &fakeExchanger{}, "", "/auth/callback", "/login?error=no_code"},
		{"state mismatch", &fakeExchanger{ownsState: true}, "expected", "/auth/callback?code=c&state=forged", "/login?error=auth_failed"},
		{"missing state", &fakeExchanger{ownsState: true}, "", "/auth/callback?code=c&state=x", "/login?error=auth_failed"},
		{"exchange error", &fakeExchanger{err: auth.ErrExchangeFailed}, "", "/auth/callback?code=c", "/login?error=auth_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, fstest.MapFS{}, func(s *Server) { s.Exchanger = tc.ex })
			if tc.state != "" {
				require.NoError(t, session.New(h.mem).SetState(tc.state))
			}

			w := h.get(tc.target)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tc.want, w.Header().Get("Location"))
			assert.False(t, session.New(h.mem).Authenticated())
		})
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t, fstest.MapFS{})
	h.login(linus)

	w := h.get("/logout")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.False(t, session.New(h.mem).Authenticated())

	page := h.get("/login")
	assert.Contains(t, page.Body.String(), "You have been signed out.")
}

func TestLoginPage(t *testing.T) {
	h := newHarness(t, fstest.MapFS{})

	w := h.get("/login?error=auth_failed")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication failed")
	assert.Contains(t, w.Body.String(), `href="/auth/github"`)

	h.login(ada)
	w = h.get("/login")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard/admin", w.Header().Get("Location"))
}

func TestRequireAuth(t *testing.T) {
	h := newHarness(t, fstest.MapFS{}, withMedia(t))

	w := h.get("/api/media")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	tokens := newTokens()
	h := newHarness(t, fstest.MapFS{}, withMedia(t), withTokens(tokens))

	require.NoError(t, session.New(h.mem).Login("forged", linus))
	w := h.get("/api/media")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, session.New(h.mem).Authenticated())

	valid, err := tokens.Issue(linus)
	require.NoError(t, err)
	require.NoError(t, session.New(h.mem).Login(valid, linus))
	assert.Equal(t, http.StatusOK, h.get("/api/media").Code)
}

func TestRequireAdmin(t *testing.T) {
	backendURL := fakeClubBackend(t)
	h := newHarness(t, fstest.MapFS{}, withBackend(backendURL))
	h.login(&models.User{ID: "u2", Username: "linus", Role: models.RoleMember})

	w := h.get("/api/dashboard/users")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Admin access required"}`, w.Body.String())

	w = h.get("/dashboard/admin")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Admin access required.")

	w = h.get("/dashboard/member")
	assert.Equal(t, http.StatusOK, w.Code)
}
