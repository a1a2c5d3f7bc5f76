package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte(strings.Repeat("k", 64))

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return c
}

func issueTestToken(t *testing.T, c *Codec) string {
	t.Helper()
	now := time.Unix(1_700_000_000, 0)
	token, _, err := NewIssuer(c, "test", func() time.Time { return now }).Issue("42", "a@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return token
}

func TestNewCodecRejectsEmptySecret(t *testing.T) {
	if _, err := NewCodec(nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestNewCodecCopiesSecret(t *testing.T) {
	secret := []byte(strings.Repeat("s", 64))
	c, err := NewCodec(secret)
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	token := issueTestToken(t, c)

	secret[0] = 'x'
	if _, err := c.Verify(token); err != nil {
		t.Fatalf("mutating caller secret must not affect codec: %v", err)
	}
}

func TestEncodeProducesHS512Header(t *testing.T) {
	c := newTestCodec(t)
	token := issueTestToken(t, c)

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}
	header, err := jwt.NewParser().DecodeSegment(parts[0])
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if !strings.Contains(string(header), `"alg":"HS512"`) {
		t.Fatalf("unexpected header %s", header)
	}
}

func TestDecodeRejectsBadStructure(t *testing.T) {
	c := newTestCodec(t)
	cases := []string{
		"",
		"abc",
		"a.b",
		"a.b.c.d",
		"..",
		"a..c",
		".b.c",
		"a.b.",
	}
	for _, tc := range cases {
		if _, err := c.Decode(tc); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Decode(%q) = %v, want ErrMalformed", tc, err)
		}
	}
}

func TestDecodeRejectsOtherAlgorithms(t *testing.T) {
	c := newTestCodec(t)
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "42", ID: "x"}}

	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}
	if _, err := c.Decode(hs256); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm for HS256, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := c.Verify(none + "AAAA"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for alg none, got %v", err)
	}
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec([]byte(strings.Repeat("z", 64)))
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	token := issueTestToken(t, other)

	p, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if c.VerifySignature(p) {
		t.Fatal("signature from another secret must not verify")
	}
}

func TestTamperedTokenFails(t *testing.T) {
	c := newTestCodec(t)
	token := issueTestToken(t, c)
	firstDot := strings.IndexByte(token, '.')

	for i := firstDot + 1; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		b := []byte(token)
		b[i] ^= 0x01
		if _, err := c.Verify(string(b)); err == nil {
			t.Fatalf("flipping byte %d must invalidate the token", i)
		}
	}
}

func TestVerifyRoundTripClaims(t *testing.T) {
	c := newTestCodec(t)
	token := issueTestToken(t, c)

	claims, err := c.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "42" || claims.Email != "a@example.com" || claims.Issuer != "test" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.TokenID() == "" {
		t.Fatal("expected jti")
	}
}
