package middleware

import (
	"net/http"
	"strings"

	"github.com/teamer-dev/authsession"
)

// Guard verifies the bearer token and passes the request on with the claims
// attached. A nil engine rejects everything.
func Guard(engine *authsession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := verifyRequest(engine, r)
			if !ok {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(authsession.ContextWithClaims(r.Context(), claims)))
		})
	}
}

// verifyRequest is shared by Guard and Echo. Every failure, including a
// missing header, collapses to false.
func verifyRequest(engine *authsession.Engine, r *http.Request) (*authsession.Claims, bool) {
	if engine == nil {
		return nil, false
	}
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, false
	}
	claims, err := engine.Verify(requestContext(r), token)
	return claims, err == nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="authsession"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
