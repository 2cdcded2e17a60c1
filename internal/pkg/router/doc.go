// Package router is the HTTP layer shared by all modules: an httprouter-based
// mux, a JSON response envelope, and the standard middleware chain
// (recover, client IP, correlation id, tracing and access logs, maintenance
// switch, bearer authentication). Route-level middleware such as
// RequireScope is appended per endpoint.
package router
