// Package mailAuth is an email/password authentication engine: registration,
// email verification, throttled login, JWT access and refresh tokens,
// password change and reset, and logout through a refresh-token denylist.
//
// An [Engine] is assembled with [Builder] from a Redis client, a [UserStore]
// and a [TokenStore] (package store provides gorm implementations of both).
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// mailAuth is the public surface. It exposes [Engine], [Builder], [Config]
// and the request and result types. Flow orchestration, the login throttle,
// request limiters, single-use reset records and the async dispatchers live
// under internal/ and are never exported.
//
// Outbound email goes through a [MailSender] on a background goroutine. A
// slow or failing mail provider never delays or fails a request.
//
// # Known limitations
//
//   - Logout revokes the refresh token only. Access tokens stay valid until
//     they expire.
//   - The login throttle counts every request, including successful ones, and
//     is never reset early.
package mailAuth
