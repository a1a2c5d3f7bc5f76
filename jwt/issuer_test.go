package jwt

import (
	"testing"
	"time"
)

func TestIssueSetsClaims(t *testing.T) {
	c := newTestCodec(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 500, time.UTC)
	issuer := NewIssuer(c, "", func() time.Time { return now })

	_, claims, err := issuer.Issue("7", "seven@example.com", 15*time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	iat, ok := claims.IssuedAtTime()
	if !ok || !iat.Equal(now.Truncate(time.Second)) {
		t.Fatalf("unexpected iat %v", iat)
	}
	exp, ok := claims.ExpiresAtTime()
	if !ok || !exp.Equal(iat.Add(15*time.Minute)) {
		t.Fatalf("unexpected exp %v", exp)
	}
	if claims.Issuer != DefaultIssuer {
		t.Fatalf("expected default issuer, got %q", claims.Issuer)
	}
}

func TestIssueIsFreshEveryCall(t *testing.T) {
	c := newTestCodec(t)
	now := time.Unix(1_700_000_000, 0)
	issuer := NewIssuer(c, "test", func() time.Time { return now })

	seen := make(map[string]struct{})
	tokens := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		token, claims, err := issuer.Issue("7", "seven@example.com", time.Minute)
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if _, dup := seen[claims.TokenID()]; dup {
			t.Fatalf("duplicate jti %s", claims.TokenID())
		}
		if _, dup := tokens[token]; dup {
			t.Fatal("duplicate token")
		}
		seen[claims.TokenID()] = struct{}{}
		tokens[token] = struct{}{}
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	issuer := NewIssuer(newTestCodec(t), "test", nil)
	if _, _, err := issuer.Issue("", "x@example.com", time.Minute); err == nil {
		t.Fatal("expected error for empty subject")
	}
	if _, _, err := issuer.Issue("7", "x@example.com", 0); err == nil {
		t.Fatal("expected error for zero lifetime")
	}
}
