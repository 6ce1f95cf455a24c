package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"iris-site/pkg/models"
	"iris-site/pkg/session"
)

const userKey = "iris.user"

func (s *Server) RequireAuth(c *gin.Context) {
	sess := session.From(c)
	user := sess.User()
	if !sess.Authenticated() {
		s.deny(c)
		return
	}
	if s.Tokens != nil {
		if _, err := s.Tokens.Verify(sess.Token()); err != nil {
			s.Log.Info("session token rejected", zap.String("user", user.Username), zap.Error(err))
			_ = sess.Logout()
			_ = sess.AddFlash(session.FlashInfo, "Your session expired. Please sign in again.")
			s.deny(c)
			return
		}
	}
	c.Set(userKey, user)
	c.Next()
}

func (s *Server) deny(c *gin.Context) {
	if isAPI(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}

// RequireAdmin must run after RequireAuth.
func (s *Server) RequireAdmin(c *gin.Context) {
	if currentUser(c).IsAdmin() {
		c.Next()
		return
	}
	if isAPI(c) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}
	s.errorPage(c, http.StatusForbidden, "Admin access required.")
	c.Abort()
}

func currentUser(c *gin.Context) *models.User {
	u, _ := c.Get(userKey)
	user, _ := u.(*models.User)
	return user
}

func (s *Server) LoginPage(c *gin.Context) {
	if sess := session.From(c); sess.Authenticated() {
		c.Redirect(http.StatusFound, dashboardFor(sess.User()))
		return
	}
	s.page(c, http.StatusOK, "login.html", gin.H{"Title": "Sign in", "Error": c.Query("error")})
}

func (s *Server) GithubLogin(c *gin.Context) {
	state := uuid.NewString()
	if err := session.From(c).SetState(state); err != nil {
		s.Log.Error("store oauth state", zap.Error(err))
		c.Redirect(http.StatusFound, "/login?error=auth_failed")
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, s.Exchanger.LoginURL(state))
}

func (s *Server) AuthCallback(c *gin.Context) {
	sess := session.From(c)
	code, state := c.Query("code"), c.Query("state")
	if code == "" {
		c.Redirect(http.StatusFound, "/login?error=no_code")
		return
	}

	expected := sess.TakeState()
	if s.Exchanger.OwnsState() && (expected == "" || expected != state) {
		s.Log.Warn("oauth state mismatch")
		c.Redirect(http.StatusFound, "/login?error=auth_failed")
		return
	}

	res, err := s.Exchanger.Exchange(c.Request.Context(), code, state)
	if err != nil {
		s.Log.Warn("oauth exchange", zap.Error(err))
		c.Redirect(http.StatusFound, "/login?error=auth_failed")
		return
	}
	if err := sess.Login(res.Token, res.User); err != nil {
		s.Log.Error("save session", zap.Error(err))
		c.Redirect(http.StatusFound, "/login?error=auth_failed")
		return
	}
	_ = sess.AddFlash(session.FlashSuccess, fmt.Sprintf("Welcome, %s!", res.User.Username))
	c.Redirect(http.StatusFound, dashboardFor(res.User))
}

func (s *Server) Logout(c *gin.Context) {
	sess := session.From(c)
	_ = sess.Logout()
	_ = sess.AddFlash(session.FlashInfo, "You have been signed out.")
	c.Redirect(http.StatusFound, "/login")
}

func dashboardFor(u *models.User) string {
	if u.IsAdmin() {
		return "/dashboard/admin"
	}
	return "/dashboard/member"
}
