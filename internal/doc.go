// Package internal holds helpers private to mailAuth, chiefly the uid codec
// used in password reset links.
//
// # Sub-packages
//
//   - dispatch: bounded async queues for audit events and outgoing mail
//   - flows: dependency-injected orchestrators for login and password reset
//   - limiters: fixed-window limiters for registration, resend and reset
//   - rate: the login attempt throttle
//   - stores: the Redis-backed single-use password reset records
//
// Nothing here appears in the public API.
package internal
