// Package jwt issues and verifies the HS512 bearer tokens that calling
// services present to the HTTP API.
//
// A token identifies a client (the subject) and the scopes it was granted.
// The router stores verified claims in the request context via SetAuth.
package jwt
