// Package password hashes and checks principal passwords with bcrypt.
//
// Hashes are standard modular-crypt strings ($2a$10$...), so rows written
// by other bcrypt implementations verify unchanged.
package password
