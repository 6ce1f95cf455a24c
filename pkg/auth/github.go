package auth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"iris-site/pkg/models"
)

const githubAPI = "https://api.github.com"

// GitHubExchanger runs the OAuth code exchange itself and issues its own
// session tokens. Logins listed as admins get the Admin role.
type GitHubExchanger struct {
	oauth   *oauth2.Config
	client  *resty.Client
	apiURL  string
	tokens  *Tokens
	isAdmin func(login string) bool
}

type GitHubOption func(*GitHubExchanger)

// WithAPIURL points the exchanger at a different GitHub API host.
func WithAPIURL(u string) GitHubOption {
	return func(g *GitHubExchanger) { g.apiURL = u }
}

func NewGitHubExchanger(cfg *oauth2.Config, client *resty.Client, tokens *Tokens, isAdmin func(string) bool, opts ...GitHubOption) *GitHubExchanger {
	g := &GitHubExchanger{
		oauth:   cfg,
		client:  client,
		apiURL:  githubAPI,
		tokens:  tokens,
		isAdmin: isAdmin,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GitHubExchanger) LoginURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

func (g *GitHubExchanger) OwnsState() bool { return true }

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (g *GitHubExchanger) Exchange(ctx context.Context, code, _ string) (*Result, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	var gu githubUser
	resp, err := g.api(ctx, tok.AccessToken).SetResult(&gu).Get(g.apiURL + "/user")
	if err != nil {
		return nil, fmt.Errorf("%w: fetch user: %v", ErrExchangeFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: fetch user: github returned %d", ErrExchangeFailed, resp.StatusCode())
	}

	email := gu.Email
	if email == "" {
		email = g.primaryEmail(ctx, tok.AccessToken)
	}
	if email == "" {
		email = gu.Login + "@github.com"
	}
	name := gu.Name
	if name == "" {
		name = gu.Login
	}

	user := &models.User{
		ID:       strconv.FormatInt(gu.ID, 10),
		Username: gu.Login,
		FullName: name,
		Email:    email,
		Role:     models.RoleMember,
	}
	if g.isAdmin != nil && g.isAdmin(gu.Login) {
		user.Role = models.RoleAdmin
	}

	token, err := g.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: user}, nil
}

// primaryEmail falls back to the first listed address when none is primary.
// Lookup failures yield "".
func (g *GitHubExchanger) primaryEmail(ctx context.Context, accessToken string) string {
	var emails []githubEmail
	resp, err := g.api(ctx, accessToken).SetResult(&emails).Get(g.apiURL + "/user/emails")
	if err != nil || resp.IsError() {
		return ""
	}
	for _, e := range emails {
		if e.Primary {
			return e.Email
		}
	}
	if len(emails) > 0 {
		return emails[0].Email
	}
	return ""
}

func (g *GitHubExchanger) api(ctx context.Context, accessToken string) *resty.Request {
	return g.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetHeader("Accept", "application/vnd.github+json").
		ForceContentType("application/json")
}
