// Package flows contains the orchestration for every Engine operation.
//
// Each flow function (RunVerify, RunLogin, RunLogout, RunRefresh,
// RunIntrospect) takes a dependency struct and returns a result carrying a
// failure kind. The root package maps failure kinds to public errors,
// metrics and audit events.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root authsession package (import cycle).
//   - Perform I/O directly. Store and principal access go through deps.
package flows
