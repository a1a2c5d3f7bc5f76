package jwt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm is the only header alg accepted and produced by [Codec].
const Algorithm = "HS512"

var (
	// ErrInvalidToken is the single signal for every codec failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMalformed reports a token that does not have three non-empty
	// segments or whose segments do not decode.
	ErrMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	// ErrUnsupportedAlgorithm reports a header alg other than HS512.
	ErrUnsupportedAlgorithm = fmt.Errorf("%w: unsupported algorithm", ErrInvalidToken)
	// ErrSignatureInvalid reports an HMAC mismatch.
	ErrSignatureInvalid = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
)

// Parsed is a structurally valid token whose signature has not been checked.
type Parsed struct {
	Claims *Claims

	signingInput string
	signature    []byte
}

// Codec encodes and decodes HS512 tokens with a fixed secret.
//
// The secret is copied at construction and never mutated, so a Codec is safe
// for concurrent use.
type Codec struct {
	secret []byte
	parser *jwt.Parser
}

// NewCodec returns a codec bound to a copy of secret.
//
// Segments are decoded strictly: a base64url segment with non-zero padding
// bits is malformed, so every encoded byte is covered by the signature.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret required")
	}
	key := make([]byte, len(secret))
	copy(key, secret)

	return &Codec{
		secret: key,
		parser: jwt.NewParser(jwt.WithStrictDecoding()),
	}, nil
}

// Encode signs claims and returns the compact token string.
func (c *Codec) Encode(claims *Claims) (string, error) {
	if claims == nil {
		return "", errors.New("nil claims")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.secret)
}

// Decode splits and decodes token without checking its signature.
//
// Anything other than exactly three non-empty dot-separated segments is
// rejected before any decoding happens.
func (c *Codec) Decode(token string) (*Parsed, error) {
	if !wellFormed(token) {
		return nil, ErrMalformed
	}

	parsed, parts, err := c.parser.ParseUnverified(token, &Claims{})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenUnverifiable) {
			return nil, ErrUnsupportedAlgorithm
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed.Method == nil || parsed.Method.Alg() != Algorithm {
		return nil, ErrUnsupportedAlgorithm
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformed
	}

	signature, err := c.parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &Parsed{
		Claims:       claims,
		signingInput: parts[0] + "." + parts[1],
		signature:    signature,
	}, nil
}

// VerifySignature recomputes the HMAC over header and claims and compares it
// with the presented signature in constant time.
func (c *Codec) VerifySignature(p *Parsed) bool {
	if p == nil || len(p.signature) == 0 {
		return false
	}
	return jwt.SigningMethodHS512.Verify(p.signingInput, p.signature, c.secret) == nil
}

// Verify decodes token and checks its signature in one step.
func (c *Codec) Verify(token string) (*Claims, error) {
	p, err := c.Decode(token)
	if err != nil {
		return nil, err
	}
	if !c.VerifySignature(p) {
		return nil, ErrSignatureInvalid
	}
	return p.Claims, nil
}

func wellFormed(token string) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	for _, seg := range strings.SplitN(token, ".", 3) {
		if seg == "" {
			return false
		}
	}
	return true
}
