// Package middleware rejects requests that do not carry a valid access
// token.
//
// [Guard] wraps a net/http handler and [Echo] returns the same check as an
// echo middleware. Both read a Bearer token from the Authorization header,
// call Engine.Verify and store the verified claims in the request context.
// Any failure, including an unreachable revocation store, ends the request
// with 401.
//
// This package only translates HTTP into Engine calls. It never parses
// tokens or touches a store itself.
package middleware
