// Package auth exposes authentication state as a readable signal. Token
// issuance and the sign-in protocol are external; this package only answers
// "is the session signed in" and builds the login redirect target.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"snda-browse/session"
)

const tokenKey = "snda-access-token"

// Authenticator is the authentication collaborator consumed by the like
// manager and the browsing surface.
type Authenticator interface {
	IsAuthenticated() bool
	LoginURL(returnTo string) string
}

// SessionAuth reads the access token from the session store.
type SessionAuth struct {
	store    session.Store
	siteBase string
}

// NewSessionAuth creates a session-backed authenticator. siteBaseURL is the
// public site root used to build login redirects.
func NewSessionAuth(store session.Store, siteBaseURL string) *SessionAuth {
	return &SessionAuth{
		store:    store,
		siteBase: strings.TrimRight(siteBaseURL, "/"),
	}
}

// IsAuthenticated reports whether the session holds an access token.
func (a *SessionAuth) IsAuthenticated() bool {
	_, err := a.store.Get(context.Background(), tokenKey)
	return err == nil
}

// LoginURL builds the sign-in redirect carrying the return path.
func (a *SessionAuth) LoginURL(returnTo string) string {
	return fmt.Sprintf("%s/login?from=%s", a.siteBase, url.QueryEscape(returnTo))
}

// SignIn records an access token, marking the session authenticated.
func (a *SessionAuth) SignIn(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("empty access token")
	}
	if err := a.store.Set(ctx, tokenKey, token); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	return nil
}

// SignOut clears the access token.
func (a *SessionAuth) SignOut(ctx context.Context) error {
	return a.store.Delete(ctx, tokenKey)
}
