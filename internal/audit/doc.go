// Package audit relays security events from the engine to a sink without
// blocking request paths.
//
// The engine decides which events to emit. This package only buffers and
// delivers them, and must not import the root package.
package audit
