package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultIssuer is the iss claim used when none is configured.
const DefaultIssuer = "authsession"

// Issuer mints signed tokens for principals.
type Issuer struct {
	codec  *Codec
	issuer string
	now    func() time.Time
	newID  func() string
}

// NewIssuer returns an Issuer signing with codec. A nil now uses time.Now.
func NewIssuer(codec *Codec, issuer string, now func() time.Time) *Issuer {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		codec:  codec,
		issuer: issuer,
		now:    now,
		newID:  uuid.NewString,
	}
}

// Issue builds and signs a token for subject valid for validFor from now.
//
// Every call draws a fresh jti, so two tokens for the same principal are
// never equal. Issue has no side effects.
func (i *Issuer) Issue(subject, email string, validFor time.Duration) (string, *Claims, error) {
	if i == nil || i.codec == nil {
		return "", nil, errors.New("issuer not configured")
	}
	if subject == "" {
		return "", nil, errors.New("subject required")
	}
	if validFor <= 0 {
		return "", nil, errors.New("token lifetime must be positive")
	}

	issuedAt := i.now().UTC().Truncate(time.Second)
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validFor)),
			ID:        i.newID(),
		},
	}

	token, err := i.codec.Encode(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}
