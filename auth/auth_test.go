package auth

import (
	"context"
	"testing"

	"snda-browse/session"
)

func TestSessionAuthLifecycle(t *testing.T) {
	a := NewSessionAuth(session.NewMemory(), "https://example.org/")
	ctx := context.Background()

	if a.IsAuthenticated() {
		t.Error("fresh session should not be authenticated")
	}

	if err := a.SignIn(ctx, "tok-123"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if !a.IsAuthenticated() {
		t.Error("session should be authenticated after SignIn")
	}

	if err := a.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if a.IsAuthenticated() {
		t.Error("session should not be authenticated after SignOut")
	}
}

func TestSignInEmptyToken(t *testing.T) {
	a := NewSessionAuth(session.NewMemory(), "https://example.org")

	if err := a.SignIn(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestLoginURL(t *testing.T) {
	a := NewSessionAuth(session.NewMemory(), "https://example.org/")

	got := a.LoginURL("/wall-of-love")
	want := "https://example.org/login?from=%2Fwall-of-love"
	if got != want {
		t.Errorf("LoginURL = %q, want %q", got, want)
	}
}
