// Package jwt issues and verifies the three token kinds used by mailAuth:
// access tokens (short-lived, stateless), refresh tokens (long-lived,
// revocable through a denylist held elsewhere) and action tokens (single
// purpose links for email verification and password reset).
//
// Every token carries a token_type claim and parsing is typed, so a refresh
// token is never accepted where an access token is expected. Action token
// decoding returns an [ActionResult] instead of an error.
package jwt
