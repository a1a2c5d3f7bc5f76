package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/teamer-dev/authsession"
)

// ClientIP returns the caller address, preferring the first hop of
// X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestContext carries the client IP and user agent into audit events.
func requestContext(r *http.Request) context.Context {
	ctx := authsession.WithClientIP(r.Context(), ClientIP(r))
	return authsession.WithUserAgent(ctx, r.UserAgent())
}

// RequestContext is requestContext for handlers outside this package.
func RequestContext(r *http.Request) context.Context {
	return requestContext(r)
}
