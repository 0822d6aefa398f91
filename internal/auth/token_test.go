package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, expiresAt, err := tm.GenerateToken("session-1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expiry in the past: %s", expiresAt)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.SessionID != "session-1" {
		t.Fatalf("session id = %q", claims.SessionID)
	}
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	token, _, _ := NewTokenManager("a", time.Hour).GenerateToken("s")
	if _, err := NewTokenManager("b", time.Hour).ParseToken(token); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
}

func TestTokenExpires(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	issued := time.Now()
	tm.now = func() time.Time { return issued }
	token, _, _ := tm.GenerateToken("s")

	tm.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := tm.ParseToken(token); err == nil {
		t.Fatalf("expired token accepted")
	}
}
