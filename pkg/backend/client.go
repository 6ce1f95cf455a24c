// Package backend is a client for the club's REST backend: members, projects,
// coins, messages and database-backed blog posts.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWith(resty.New(), baseURL, timeout)
}

// NewClientWith configures an existing resty client, handy when callers
// want to share transports or add middleware.
func NewClientWith(rc *resty.Client, baseURL string, timeout time.Duration) *Client {
	rc.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	return &Client{http: rc}
}

// do sends the request and decodes a successful body into out when out is non-nil.
func (c *Client) do(ctx context.Context, token, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return newAPIError(resp.StatusCode(), resp.Body())
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("backend %s %s: decode: %w", method, path, err)
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return &APIError{Status: status, Message: payload.Message}
		}
		if payload.Error != "" {
			return &APIError{Status: status, Message: payload.Error}
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" && !strings.HasPrefix(msg, "{") {
		return &APIError{Status: status, Message: msg}
	}
	return &APIError{Status: status, Message: fmt.Sprintf("HTTP %d", status)}
}
