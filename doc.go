// Package authsession issues, verifies, refreshes and revokes stateless
// HS512 session tokens.
//
// A token is valid while its signature checks out, the current time is
// before its expiry, and its jti is absent from the revocation store. Two
// expiry formulas exist: NORMAL uses the exp claim, REFRESH uses iat plus
// the configured refreshable duration. Refresh rotates a token exactly once.
//
// # Architecture boundaries
//
// authsession is the public surface. It exposes [Engine], [Builder],
// [Config] and value types. Flow orchestration lives in internal/flows,
// token encoding in the jwt package and persistence in the revocation
// package.
//
// # What this package must NOT do
//
//   - Log or audit raw token strings or the signing secret.
//   - Distinguish failure reasons to callers beyond [ErrUnauthenticated].
//   - Mutate configuration after [Builder.Build].
package authsession
