// Package notify provides [mailAuth.MailSender] implementations: SendGrid and
// Resend over their HTTP APIs, and a zerolog sender for development.
//
// Senders run on the engine's mail dispatcher goroutine. A delivery error is
// logged and counted by the engine; it never reaches the request that queued
// the message.
package notify
