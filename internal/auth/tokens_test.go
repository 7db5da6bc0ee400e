package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", "citybasic", time.Hour)
	id := uuid.New()

	signed, expires, err := tokens.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Errorf("expiry should be in the future, got %v", expires)
	}

	got, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != id {
		t.Errorf("expected %s, got %s", id, got)
	}
}

func TestTokensRejected(t *testing.T) {
	tokens := NewTokens("secret", "citybasic", time.Hour)
	signed, _, err := tokens.Issue(uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	expired := NewTokens("secret", "citybasic", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    "citybasic",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]struct {
		tokens *Tokens
		token  string
	}{
		"wrong secret": {NewTokens("other", "citybasic", time.Hour), signed},
		"wrong issuer": {NewTokens("secret", "someone-else", time.Hour), signed},
		"expired":      {tokens, old},
		"alg none":     {tokens, none},
		"garbage":      {tokens, "not.a.token"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := tt.tokens.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestSafeRedirect(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/cities/paris":        "/cities/paris",
		"/fr/cities?tab=1":     "/fr/cities?tab=1",
		"https://evil.example": "/",
		"//evil.example":       "/",
		`/\evil.example`:       "/",
		"cities":               "/",
	}
	for in, want := range tests {
		if got := SafeRedirect(in); got != want {
			t.Errorf("SafeRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}
