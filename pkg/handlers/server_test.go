package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"iris-site/pkg/auth"
	"iris-site/pkg/models"
	"iris-site/pkg/services"
	"iris-site/pkg/session"
)

const helloWorld = `---
title: "Hello"
date: 2024-01-01
---
## Intro
text
## Intro
more text
`

type fakeExchanger struct {
	ownsState bool
	result    *auth.Result
	err       error
	gotCode   string
}

func (f *fakeExchanger) LoginURL(state string) string {
	return "https://github.example/authorize?state=" + state
}

func (f *fakeExchanger) OwnsState() bool { return f.ownsState }

func (f *fakeExchanger) Exchange(_ context.Context, code, _ string) (*auth.Result, error) {
	f.gotCode = code
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type harness struct {
	t      *testing.T
	router *gin.Engine
	server *Server
	mem    *session.Memory
}

func newHarness(t *testing.T, files fstest.MapFS, configure ...func(*Server)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := services.NewFSStore(files)
	s := &Server{
		Resolver:  services.NewResolver(store, services.NewPipeline(services.PipelineOptions{})),
		Lister:    services.NewLister(store),
		Exchanger: &fakeExchanger{},
	}
	for _, fn := range configure {
		fn(s)
	}

	mem := session.NewMemory()
	r := gin.New()
	r.Use(session.Middleware(func(*gin.Context) session.Storage { return mem }))
	require.NoError(t, s.Routes(r))
	return &harness{t: t, router: r, server: s, mem: mem}
}

func (h *harness) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) get(target string) *httptest.ResponseRecorder {
	return h.do(http.MethodGet, target, nil, "")
}

func (h *harness) sendJSON(method, target, body string) *httptest.ResponseRecorder {
	return h.do(method, target, strings.NewReader(body), "application/json")
}

func (h *harness) login(u *models.User) {
	h.t.Helper()
	require.NoError(h.t, session.New(h.mem).Login("tok-"+u.Username, u))
}

var (
	ada   = &models.User{ID: "u1", Username: "ada", Role: models.RoleAdmin}
	linus = &models.User{ID: "u2", Username: "linus", Role: models.RoleMember}
)

func withTokens(tokens *auth.Tokens) func(*Server) {
	return func(s *Server) { s.Tokens = tokens }
}

var errBoom = errors.New("boom")

func newTokens() *auth.Tokens { return auth.NewTokens("s3cret", time.Hour) }
