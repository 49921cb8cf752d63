package security

import "time"

// Argon2 memory below this is flagged; 64 MiB is the library default.
const recommendedArgon2MemoryKB = 64 * 1024

type PasswordReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

type Report struct {
	SigningAlgorithm string
	IssuerPinned     bool
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	VerificationTTL  time.Duration
	ResetTTL         time.Duration
	Argon2           PasswordReport

	LoginThrottleActive        bool
	ResetThrottleActive        bool
	ResendThrottleActive       bool
	RegistrationThrottleActive bool

	// LinksFromRequestHost is true when emailed links take their origin from
	// the request Host header instead of a configured base URL.
	LinksFromRequestHost bool
	AuditEnabled         bool

	Warnings []string
}

type ReportInput struct {
	SigningAlgorithm string
	Issuer           string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	VerificationTTL  time.Duration
	ResetTTL         time.Duration
	Password         PasswordReport

	LoginThreshold int
	LoginWindow    time.Duration

	ResetIdentifierThrottle bool
	ResetIPThrottle         bool
	ResetMaxRequests        int

	ResendIdentifierThrottle bool
	ResendIPThrottle         bool
	MaxResends               int

	RegistrationIdentifierThrottle bool
	RegistrationIPThrottle         bool
	RegistrationMaxAttempts        int

	LinkBaseURL  string
	AuditEnabled bool
}

func BuildReport(input ReportInput) Report {
	r := Report{
		SigningAlgorithm: input.SigningAlgorithm,
		IssuerPinned:     input.Issuer != "",
		AccessTTL:        input.AccessTTL,
		RefreshTTL:       input.RefreshTTL,
		VerificationTTL:  input.VerificationTTL,
		ResetTTL:         input.ResetTTL,
		Argon2:           input.Password,

		LoginThrottleActive: input.LoginThreshold > 0 && input.LoginWindow > 0,
		ResetThrottleActive: input.ResetMaxRequests > 0 &&
			(input.ResetIdentifierThrottle || input.ResetIPThrottle),
		ResendThrottleActive: input.MaxResends > 0 &&
			(input.ResendIdentifierThrottle || input.ResendIPThrottle),
		RegistrationThrottleActive: input.RegistrationMaxAttempts > 0 &&
			(input.RegistrationIdentifierThrottle || input.RegistrationIPThrottle),

		LinksFromRequestHost: input.LinkBaseURL == "",
		AuditEnabled:         input.AuditEnabled,
	}

	if r.LinksFromRequestHost {
		r.Warnings = append(r.Warnings, "emailed links use the request Host header; set a link base URL behind untrusted proxies")
	}
	if input.Password.Memory < recommendedArgon2MemoryKB {
		r.Warnings = append(r.Warnings, "argon2 memory is below 64 MiB")
	}
	if !r.ResetThrottleActive {
		r.Warnings = append(r.Warnings, "password reset requests are not rate limited")
	}
	if !r.IssuerPinned {
		r.Warnings = append(r.Warnings, "tokens carry no issuer")
	}

	return r
}
