// Package middleware adapts bearer access tokens to gin handlers.
//
// [Guard] reads the Authorization header, delegates verification to
// Engine.Authenticate and stores the result for [AuthResultFromContext].
// Requests without usable credentials are answered with 401 before the
// handler runs. The package never parses JWTs itself.
package middleware
