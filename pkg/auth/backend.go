package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"

	"iris-site/pkg/models"
)

// BackendExchanger lets the REST backend run the GitHub flow and mint tokens.
type BackendExchanger struct {
	baseURL string
	client  *resty.Client
}

func NewBackendExchanger(baseURL string, client *resty.Client) *BackendExchanger {
	return &BackendExchanger{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (b *BackendExchanger) LoginURL(string) string {
	return b.baseURL + "/auth/github"
}

func (b *BackendExchanger) OwnsState() bool { return false }

func (b *BackendExchanger) Exchange(ctx context.Context, code, state string) (*Result, error) {
	resp, err := b.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"code": code, "state": state}).
		Get(b.baseURL + "/auth/github/callback")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: backend returned %d", ErrExchangeFailed, resp.StatusCode())
	}

	var payload struct {
		Success bool         `json:"success"`
		Token   string       `json:"token"`
		User    *models.User `json:"user"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrExchangeFailed, err)
	}
	if !payload.Success || payload.Token == "" || payload.User == nil {
		return nil, fmt.Errorf("%w: invalid response from backend", ErrExchangeFailed)
	}
	return &Result{Token: payload.Token, User: payload.User}, nil
}
