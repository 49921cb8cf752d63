// Package limiters holds the request limiters for the unauthenticated
// endpoints: registration, password-reset requests and confirmations, and
// confirmation-email resends.
//
// Each limiter is a fixed window per identifier and, optionally, per client IP.
// Refusals are returned as *[LimitError] so callers can surface Retry-After.
// Calling a method on a nil limiter allows the request.
package limiters
