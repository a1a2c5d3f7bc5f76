// Package principal provides authsession.PrincipalStore implementations.
//
// Both stores accept an email address or a display name as the login
// identifier, trying email first. Passwords are stored as bcrypt hashes.
package principal
