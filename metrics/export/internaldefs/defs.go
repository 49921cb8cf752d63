package internaldefs

import (
	mailAuth "github.com/MrEthical07/mailAuth"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   mailAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   mailAuth.MetricID
	Name string
	Help string
}

// Dispatcher drop counters are not MetricIDs; exporters read them separately.
const (
	AuditDroppedName = "mailauth_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
	MailDroppedName  = "mailauth_mail_dropped_total"
	MailDroppedHelp  = "Dropped outgoing emails due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: mailAuth.MetricRegisterSuccess, Name: "mailauth_register_success_total", Help: "Successful registrations."},
	{ID: mailAuth.MetricRegisterDuplicate, Name: "mailauth_register_duplicate_total", Help: "Registrations rejected for an existing email."},
	{ID: mailAuth.MetricRegisterRejected, Name: "mailauth_register_rejected_total", Help: "Registrations rejected by validation or password policy."},
	{ID: mailAuth.MetricRegisterRateLimited, Name: "mailauth_register_rate_limited_total", Help: "Rate-limited registrations."},
	{ID: mailAuth.MetricEmailVerificationSuccess, Name: "mailauth_email_verification_success_total", Help: "Accounts activated through a verification link."},
	{ID: mailAuth.MetricEmailVerificationFailure, Name: "mailauth_email_verification_failure_total", Help: "Rejected verification links."},
	{ID: mailAuth.MetricEmailVerificationResent, Name: "mailauth_email_verification_resent_total", Help: "Verification emails sent again on request."},
	{ID: mailAuth.MetricLoginSuccess, Name: "mailauth_login_success_total", Help: "Successful logins."},
	{ID: mailAuth.MetricLoginFailure, Name: "mailauth_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: mailAuth.MetricLoginForbidden, Name: "mailauth_login_forbidden_total", Help: "Logins rejected for inactive or unverified accounts."},
	{ID: mailAuth.MetricLoginRateLimited, Name: "mailauth_login_rate_limited_total", Help: "Logins rejected by the attempt throttle."},
	{ID: mailAuth.MetricSessionCreated, Name: "mailauth_session_created_total", Help: "Issued access and refresh token pairs."},
	{ID: mailAuth.MetricTokenRefreshed, Name: "mailauth_token_refreshed_total", Help: "Access tokens issued from a refresh token."},
	{ID: mailAuth.MetricLogout, Name: "mailauth_logout_total", Help: "Refresh tokens revoked by logout."},
	{ID: mailAuth.MetricLogoutFailure, Name: "mailauth_logout_failure_total", Help: "Failed logout requests."},
	{ID: mailAuth.MetricPasswordChangeSuccess, Name: "mailauth_password_change_success_total", Help: "Successful password changes."},
	{ID: mailAuth.MetricPasswordChangeInvalidOld, Name: "mailauth_password_change_invalid_old_total", Help: "Password changes with an incorrect current password."},
	{ID: mailAuth.MetricPasswordResetRequest, Name: "mailauth_password_reset_request_total", Help: "Password reset links sent."},
	{ID: mailAuth.MetricPasswordResetConfirmSuccess, Name: "mailauth_password_reset_confirm_success_total", Help: "Successful password resets."},
	{ID: mailAuth.MetricPasswordResetConfirmFailure, Name: "mailauth_password_reset_confirm_failure_total", Help: "Rejected password reset confirmations."},
	{ID: mailAuth.MetricPasswordResetReplay, Name: "mailauth_password_reset_replay_total", Help: "Reset links presented after they were consumed."},
	{ID: mailAuth.MetricRateLimitHit, Name: "mailauth_rate_limit_hit_total", Help: "Requests denied by any throttle or limiter."},
	{ID: mailAuth.MetricMailSent, Name: "mailauth_mail_sent_total", Help: "Emails accepted by the mail provider."},
	{ID: mailAuth.MetricMailFailed, Name: "mailauth_mail_failed_total", Help: "Emails the mail provider rejected."},
}

var HistogramDefs = []HistogramDef{
	{ID: mailAuth.MetricLoginLatency, Name: "mailauth_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds are the upper bounds of the engine's eight latency buckets, in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix renders HistogramBounds as instrument name suffixes.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
