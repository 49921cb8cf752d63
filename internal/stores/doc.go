// Package stores keeps the short-lived, single-use password reset records in
// Redis.
//
// Each record is a versioned binary blob with a TTL, keyed by the reset
// token's jti. Consume runs under WATCH/MULTI with retry on contention, so a
// reset link succeeds at most once even when replayed concurrently. Secret
// comparisons are constant-time.
package stores
