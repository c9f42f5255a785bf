// Package auth verifies bearer tokens and enforces scopes on the cell API.
//
// Tokens are JWTs signed with RS256 (PEM public key or JWKS endpoint) or
// HS256 (shared secret, intended for tests and single-host deployments).
// Verified claims travel in the request context so that capability gates
// deeper in the call can consult them without knowing about HTTP.
package auth
