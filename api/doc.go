// Package api serves the session operations over HTTP.
//
// Every response uses the same JSON envelope:
//
//	{"code": 1000, "message": "...", "result": ...}
//
// Code 1000 means success. Token failures of any kind share code 1007 and
// HTTP 401 so a caller cannot tell an expired token from a revoked one.
package api
