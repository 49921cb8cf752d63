package mailAuth

import "github.com/MrEthical07/mailAuth/internal/security"

// SecurityReport summarizes the engine's effective security settings.
type SecurityReport = security.Report

// SecurityReport returns the posture of the running configuration, with
// warnings for settings that weaken it.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	cfg := e.config

	return security.BuildReport(security.ReportInput{
		SigningAlgorithm: cfg.JWT.SigningMethod,
		Issuer:           cfg.JWT.Issuer,
		AccessTTL:        cfg.JWT.AccessTTL,
		RefreshTTL:       cfg.JWT.RefreshTTL,
		VerificationTTL:  cfg.EmailVerification.VerificationTTL,
		ResetTTL:         cfg.PasswordReset.ResetTTL,
		Password: security.PasswordReport{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		},
		LoginThreshold: cfg.LoginThrottle.Threshold,
		LoginWindow:    cfg.LoginThrottle.Window,

		ResetIdentifierThrottle: cfg.PasswordReset.EnableIdentifierThrottle,
		ResetIPThrottle:         cfg.PasswordReset.EnableIPThrottle,
		ResetMaxRequests:        cfg.PasswordReset.MaxRequests,

		ResendIdentifierThrottle: cfg.EmailVerification.EnableIdentifierThrottle,
		ResendIPThrottle:         cfg.EmailVerification.EnableIPThrottle,
		MaxResends:               cfg.EmailVerification.MaxResends,

		RegistrationIdentifierThrottle: cfg.Registration.EnableIdentifierThrottle,
		RegistrationIPThrottle:         cfg.Registration.EnableIPThrottle,
		RegistrationMaxAttempts:        cfg.Registration.MaxAttempts,

		LinkBaseURL:  cfg.Links.BaseURL,
		AuditEnabled: cfg.Audit.Enabled,
	})
}
