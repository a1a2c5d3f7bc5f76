// Package jwt builds and parses the HS512 bearer tokens used for session
// authentication.
//
// [Codec] owns the wire format: three base64url segments signed with
// HMAC-SHA512. [Issuer] mints fresh claim sets on top of a Codec. Neither
// type touches the revocation store; time windows and revocation are
// decided by the caller.
package jwt
