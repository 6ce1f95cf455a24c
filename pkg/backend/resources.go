package backend

import (
	"context"
	"net/http"
	"net/url"

	"iris-site/pkg/models"
)

type userRef struct {
	UserID string `json:"user_id"`
}

// NewUser is the payload for creating a member account.
type NewUser struct {
	Username     string      `json:"username"`
	FullName     string      `json:"full_name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Role         models.Role `json:"role"`
}

func (c *Client) Users(ctx context.Context, token string) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, token, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) Members(ctx context.Context, token string) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, token, http.MethodGet, "/members", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, token string, u NewUser) error {
	return c.do(ctx, token, http.MethodPost, "/users", u, nil)
}

func (c *Client) UpdateUserRole(ctx context.Context, token, userID string, role models.Role) error {
	body := struct {
		UserID string      `json:"user_id"`
		Role   models.Role `json:"role"`
	}{userID, role}
	return c.do(ctx, token, http.MethodPost, "/users/role", body, nil)
}

func (c *Client) DeleteUser(ctx context.Context, token, userID string) error {
	return c.do(ctx, token, http.MethodDelete, "/users", userRef{userID}, nil)
}

// NewProject is the payload for creating a project.
type NewProject struct {
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	CreatedBy     string               `json:"created_by"`
	Status        models.ProjectStatus `json:"status,omitempty"`
	GithubLink    string               `json:"github_link,omitempty"`
	ProjectLeadID string               `json:"project_lead_id,omitempty"`
}

type projectMember struct {
	ProjectID string `json:"project_id"`
	MemberID  string `json:"member_id"`
}

func (c *Client) Projects(ctx context.Context, token string) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, token, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) UserProjects(ctx context.Context, token, userID string) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, token, http.MethodPost, "/projects/user", userRef{userID}, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) CreateProject(ctx context.Context, token string, p NewProject) error {
	return c.do(ctx, token, http.MethodPost, "/projects", p, nil)
}

func (c *Client) DeleteProject(ctx context.Context, token, projectID string) error {
	body := struct {
		ProjectID string `json:"project_id"`
	}{projectID}
	return c.do(ctx, token, http.MethodDelete, "/projects", body, nil)
}

func (c *Client) AssignMember(ctx context.Context, token, projectID, memberID string) error {
	return c.do(ctx, token, http.MethodPost, "/projects/assign", projectMember{projectID, memberID}, nil)
}

func (c *Client) RemoveMember(ctx context.Context, token, projectID, memberID string) error {
	return c.do(ctx, token, http.MethodPost, "/projects/remove", projectMember{projectID, memberID}, nil)
}

// ManageCoins credits (or with a negative amount debits) a member.
func (c *Client) ManageCoins(ctx context.Context, token string, tx models.CoinTransaction) error {
	return c.do(ctx, token, http.MethodPost, "/coins/manage", tx, nil)
}

func (c *Client) CoinTransactions(ctx context.Context, token, userID string) ([]models.CoinTransaction, error) {
	var txs []models.CoinTransaction
	if err := c.do(ctx, token, http.MethodPost, "/coins/transactions", userRef{userID}, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// Leaderboard is public; token may be empty.
func (c *Client) Leaderboard(ctx context.Context, token string) (*models.Leaderboard, error) {
	var lb models.Leaderboard
	if err := c.do(ctx, token, http.MethodGet, "/coins/leaderboard", nil, &lb); err != nil {
		return nil, err
	}
	return &lb, nil
}

func (c *Client) SaveLeaderboard(ctx context.Context, token string) error {
	return c.do(ctx, token, http.MethodPost, "/coins/leaderboard/save", struct{}{}, nil)
}

// MessageType selects the recipients of an outgoing message.
type MessageType string

const (
	MessageIndividual  MessageType = "individual"
	MessageProjectTeam MessageType = "project_team"
	MessageBroadcast   MessageType = "broadcast"
)

type OutgoingMessage struct {
	RecipientIDs []string    `json:"recipient_ids,omitempty"`
	ProjectID    string      `json:"project_id,omitempty"`
	Subject      string      `json:"subject"`
	Content      string      `json:"content"`
	Type         MessageType `json:"message_type"`
}

func (c *Client) SendMessage(ctx context.Context, token string, m OutgoingMessage) error {
	return c.do(ctx, token, http.MethodPost, "/messages/send", m, nil)
}

func (c *Client) UserMessages(ctx context.Context, token, userID string) ([]models.Message, error) {
	var msgs []models.Message
	if err := c.do(ctx, token, http.MethodPost, "/messages/user", userRef{userID}, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) AllMessages(ctx context.Context, token string) ([]models.Message, error) {
	var msgs []models.Message
	if err := c.do(ctx, token, http.MethodGet, "/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) Blog(ctx context.Context, slug string) (*models.Blog, error) {
	var b models.Blog
	if err := c.do(ctx, "", http.MethodGet, "/blogs/"+url.PathEscape(slug), nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
