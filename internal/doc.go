// Package internal holds the building blocks behind authsession.Engine that
// are not part of the public API.
//
// # Sub-packages
//
//   - audit: async event dispatch to pluggable sinks
//   - flows: the verify, login, logout, refresh and introspect sequences
//   - logging: zerolog construction and trace id enrichment
//   - rate: Redis-backed login throttling
package internal
