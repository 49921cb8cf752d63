// Package password hashes passwords with Argon2id and checks them against a
// strength policy.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters so the
// caller can rehash on the next successful login.
//
// # Policy
//
// [Policy] returns human-readable messages for every violated rule: minimum
// length, similarity to user attributes such as the email address, membership
// in an embedded list of common passwords, and all-digit passwords.
//
// This package never stores passwords and never logs them.
package password
