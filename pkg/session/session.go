// Package session keeps the signed-in user, their backend token and flash
// messages for one browser, over whatever store the router is configured with.
package session

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"iris-site/pkg/models"
)

const (
	keyToken = "access_token"
	keyUser  = "user"
	keyState = "oauth_state"

	contextKey = "iris.session"
)

// Storage is the subset of sessions.Session the app relies on.
type Storage interface {
	Get(key any) any
	Set(key any, val any)
	Delete(key any)
	Clear()
	AddFlash(value any, vars ...string)
	Flashes(vars ...string) []any
	Save() error
}

// GinStorage opens the gin-contrib session attached by sessions.Sessions.
func GinStorage(c *gin.Context) Storage {
	return sessions.Default(c)
}

type Session struct {
	store Storage
}

func New(store Storage) *Session {
	return &Session{store: store}
}

func (s *Session) Token() string {
	tok, _ := s.store.Get(keyToken).(string)
	return tok
}

// User is nil when nobody is signed in or the stored user cannot be decoded.
func (s *Session) User() *models.User {
	raw, _ := s.store.Get(keyUser).(string)
	if raw == "" {
		return nil
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil
	}
	return &u
}

func (s *Session) Authenticated() bool {
	return s.Token() != "" && s.User() != nil
}

func (s *Session) Login(token string, u *models.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	s.store.Set(keyToken, token)
	s.store.Set(keyUser, string(raw))
	s.store.Delete(keyState)
	return s.store.Save()
}

// Logout drops everything but pending flashes.
func (s *Session) Logout() error {
	flashes := s.store.Flashes()
	s.store.Clear()
	for _, f := range flashes {
		s.store.AddFlash(f)
	}
	return s.store.Save()
}

// SetState remembers the OAuth state handed to the provider.
func (s *Session) SetState(state string) error {
	s.store.Set(keyState, state)
	return s.store.Save()
}

// TakeState returns the remembered OAuth state and forgets it.
func (s *Session) TakeState() string {
	state, _ := s.store.Get(keyState).(string)
	s.store.Delete(keyState)
	_ = s.store.Save()
	return state
}

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashInfo    FlashKind = "info"
)

type Flash struct {
	Kind    FlashKind
	Message string
}

func (s *Session) AddFlash(kind FlashKind, message string) error {
	s.store.AddFlash(string(kind) + ":" + message)
	return s.store.Save()
}

// Flashes returns and consumes pending flash messages.
func (s *Session) Flashes() []Flash {
	raw := s.store.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = s.store.Save()

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		kind, msg, found := strings.Cut(str, ":")
		if !found {
			kind, msg = string(FlashInfo), str
		}
		out = append(out, Flash{Kind: FlashKind(kind), Message: msg})
	}
	return out
}

// Middleware opens a Session for every request; handlers fetch it with From.
func Middleware(open func(*gin.Context) Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKey, New(open(c)))
		c.Next()
	}
}

// From returns the request's Session. It panics if Middleware is not installed.
func From(c *gin.Context) *Session {
	return c.MustGet(contextKey).(*Session)
}
