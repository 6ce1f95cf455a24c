// Package auth signs club members in through GitHub, either by delegating the
// OAuth exchange to the REST backend or by running it locally.
package auth

import (
	"context"
	"errors"

	"iris-site/pkg/models"
)

var ErrExchangeFailed = errors.New("oauth exchange failed")

// Result is a signed-in user and the bearer token for the REST backend.
type Result struct {
	Token string
	User  *models.User
}

type Exchanger interface {
	// LoginURL is where the browser goes to start signing in.
	LoginURL(state string) string
	// OwnsState reports whether LoginURL carries the given state, so the
	// callback must check it.
	OwnsState() bool
	// Exchange trades the authorization code from the callback for a session.
	Exchange(ctx context.Context, code, state string) (*Result, error)
}
